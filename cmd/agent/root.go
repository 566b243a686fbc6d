package agent

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stats-agent/internal/metrics"
	"github.com/stats-agent/internal/producer"
	"github.com/stats-agent/internal/sender"
	"github.com/stats-agent/internal/server"
	"github.com/stats-agent/internal/stats"
	"github.com/stats-agent/pkg/config"
	"github.com/stats-agent/pkg/logger"
	"github.com/stats-agent/pkg/util"
)

var (
	cfgFile   string
	GlobalCfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "stats-agent",
	Short: "Host-resident network observability agent: samples subsystem counters and ships batched stats to a remote collector",
	RunE: func(cmd *cobra.Command, args []string) error {
		var err error
		GlobalCfg, err = config.LoadConfigWithCli(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "请检查配置文件路径或使用 -c 参数指定\n")
			os.Exit(1)
		}
		if err := runAgent(GlobalCfg); err != nil {
			fmt.Fprintf(os.Stderr, "服务启动失败: %v\n", err)
			os.Exit(1)
		}
		return nil
	},
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")
	// 注册分组 flag
	initServerFlags(rootCmd)
	initStatsFlags(rootCmd)
	initLogFlags(rootCmd)
}

func runAgent(cfg *config.Config) error {
	util.PrintBanner("stats-agent", "ColorBlue")

	// 初始化日志
	log, err := logger.InitLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger failed: %w", err)
	}
	defer logger.Sync()

	hostname, err := os.Hostname()
	if err != nil {
		log.Warn("get hostname failed, using fallback", zap.Error(err))
		hostname = "unknown"
	}

	// Prometheus 自观测注册器（仅进程指标 + 自定义指标，不注册Go指标）
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	factory := metrics.NewMetricFactory(metrics.NewPromRegistry(promReg))

	// NTP偏移由时间校正协作方写入，此处提供零偏移初值
	var ntpDiff atomic.Int64

	collector := stats.NewCollector(
		stats.CollectorConfig{
			Hostname:    hostname,
			MinInterval: cfg.Stats.MinInterval,
			QueueSize:   cfg.Stats.QueueSize,
		},
		&ntpDiff, stats.NewCollectorMetrics(factory), log,
	)
	producer.RegisterFromConfig(collector, &cfg.Stats.Producers, log)

	// UDP调试通路（可选）
	var sink *stats.DropletSink
	if cfg.Stats.StatsdAddr != "" {
		sink, err = stats.NewDropletSink(cfg.Stats.StatsdAddr, log)
		if err != nil {
			return fmt.Errorf("create statsd sink failed: %w", err)
		}
	}

	snd := sender.New(collector.GetReceiver(), sink, log)
	collector.RegisterCountable(snd, snd)

	collector.Start()
	snd.Start()

	httpServer := server.NewHTTPServer(&cfg.Server, log, promReg)
	if err := httpServer.Start(); err != nil {
		return fmt.Errorf("start HTTP server failed: %w", err)
	}

	server.WaitForShutdown(log, func() error {
		if err := httpServer.Shutdown(); err != nil {
			return fmt.Errorf("shutdown HTTP server failed: %w", err)
		}
		// 关闭顺序：调度循环 → 队列接收端 → 发送方排空退出
		if done := collector.NotifyStop(); done != nil {
			<-done
		}
		collector.GetReceiver().Close()
		<-snd.Wait()
		if sink != nil {
			_ = sink.Close()
		}
		log.Info("all services shutdown successfully")
		return nil
	})
	return nil
}
