package agent

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func initLogFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	logPrefix := "log."

	f.String(
		logPrefix+"level",
		defaultCfg.Log.Level,
		"-> Log level [info,debug] | 日志级别 [info,debug]")
	f.String(
		logPrefix+"format",
		defaultCfg.Log.Format,
		"-> Log format [console,json] | 日志格式 [console,json]")
	f.String(
		logPrefix+"path",
		defaultCfg.Log.Path,
		"-> Log file storage path | 日志路径")

	err := viper.BindPFlags(f)
	if err != nil {
		return
	}
}
