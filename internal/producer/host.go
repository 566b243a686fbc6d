// Package producer 提供内置计数器生产者。生产者实现 stats.Module 与
// counter.Countable 后注册到采集器，由调度循环周期性拉取。
package producer

import (
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	cload "github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/stats-agent/internal/stats"
	"github.com/stats-agent/pkg/config"
	"github.com/stats-agent/pkg/counter"
)

// HostStats 主机资源生产者（CPU使用率/内存/负载），实现 stats.Module + counter.Countable
type HostStats struct {
	interval time.Duration
	closed   atomic.Bool
	log      *zap.Logger
}

// NewHostStats 创建主机资源生产者。interval为0时跟随进程最小采样间隔。
func NewHostStats(cfg config.HostProducerConfig, log *zap.Logger) *HostStats {
	return &HostStats{
		interval: cfg.Interval,
		log:      log,
	}
}

// -------------------------- 实现stats.Module接口 --------------------------

func (h *HostStats) Name() string { return "host" }

func (h *HostStats) Tags() []stats.Tag { return nil }

func (h *HostStats) Options() []stats.Option {
	if h.interval <= 0 {
		return nil
	}
	return []stats.Option{{Interval: h.interval}}
}

// -------------------------- 实现counter.Countable接口 --------------------------

// GetCounters 拉取当前主机计数。单项采集失败仅告警并跳过，不影响其余计数。
func (h *HostStats) GetCounters() []counter.CounterPoint {
	var points []counter.CounterPoint

	// interval=0 表示返回距上次调用以来的使用率，不阻塞采样
	if usage, err := cpu.Percent(0, false); err == nil && len(usage) > 0 {
		points = append(points, counter.CounterPoint{
			Name: "cpu_usage_percent", Value: counter.FloatValue(usage[0]),
		})
	} else if err != nil {
		h.log.Warn("get cpu usage failed", zap.Error(err))
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		points = append(points,
			counter.CounterPoint{Name: "mem_used_bytes", Value: counter.UnsignedValue(vm.Used)},
			counter.CounterPoint{Name: "mem_used_percent", Value: counter.FloatValue(vm.UsedPercent)},
		)
	} else {
		h.log.Warn("get virtual memory failed", zap.Error(err))
	}

	if avg, err := cload.Avg(); err == nil {
		points = append(points,
			counter.CounterPoint{Name: "load1", Value: counter.FloatValue(avg.Load1)},
			counter.CounterPoint{Name: "load5", Value: counter.FloatValue(avg.Load5)},
			counter.CounterPoint{Name: "load15", Value: counter.FloatValue(avg.Load15)},
		)
	} else {
		h.log.Warn("get load average failed", zap.Error(err))
	}

	return points
}

func (h *HostStats) Closed() bool {
	return h.closed.Load()
}

// Close 标记生产者结束生命周期，注册表在下一个tick将其剪除
func (h *HostStats) Close() {
	h.closed.Store(true)
}
