package agent

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func initStatsFlags(root *cobra.Command) {
	f := root.PersistentFlags()

	f.Duration("stats.min-interval", defaultCfg.Stats.MinInterval, "最小采样间隔")
	f.Int("stats.queue-size", defaultCfg.Stats.QueueSize, "发送队列容量")
	f.String("stats.statsd-addr", defaultCfg.Stats.StatsdAddr, "UDP调试通路目的地址（为空则不启用）")

	f.Bool("producers.host.enable", defaultCfg.Stats.Producers.Host.Enable, "启用主机资源生产者")
	f.Duration("producers.host.interval", defaultCfg.Stats.Producers.Host.Interval, "主机资源采样间隔覆盖")

	err := viper.BindPFlags(f)
	if err != nil {
		return
	}
}
