package producer

import (
	"go.uber.org/zap"

	"github.com/stats-agent/internal/stats"
	"github.com/stats-agent/pkg/config"
	"github.com/stats-agent/pkg/counter"
)

// entry 一条注册表项：开关 + 身份 + 生产者构造函数
type entry struct {
	Enabled bool
	Name    string
	NewFunc func() (stats.Module, counter.Countable)
}

// RegisterFromConfig 内置生产者注册统一入口（扩展仅需在列表添加一条）。
// 返回已注册的生产者名称，便于启动日志排查配置。
func RegisterFromConfig(c *stats.Collector, cfg *config.ProducerConfig, log *zap.Logger) []string {
	entries := []entry{
		{
			Enabled: cfg.Host.Enable,
			Name:    "host",
			NewFunc: func() (stats.Module, counter.Countable) {
				h := NewHostStats(cfg.Host, log)
				return h, h
			},
		},
	}

	var registered []string
	for _, e := range entries {
		if !e.Enabled {
			log.Debug("producer disabled", zap.String("name", e.Name))
			continue
		}
		module, countable := e.NewFunc()
		c.RegisterCountable(module, countable)
		registered = append(registered, e.Name)
		log.Debug("registered producer", zap.String("name", e.Name))
	}
	log.Info("builtin producers registered", zap.Strings("producers", registered))
	return registered
}
