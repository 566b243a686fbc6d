package metrics

import "github.com/prometheus/client_golang/prometheus"

// MetricFactory 指标工厂，用于统一创建指标（counter/gauge/histogram）。
type MetricFactory struct {
	reg Registers
}

// NewMetricFactory 创建指标工厂
func NewMetricFactory(reg Registers) *MetricFactory {
	return &MetricFactory{reg: reg}
}

// NewStatsBatchesEmittedTotal 创建「成功递交发送队列的批次总数」指标
// 指标类型：Counter - 仅支持单调递增，服务重启后会重置为0
// 标签说明：
//
//	module: 统计来源模块名，用于区分不同生产者
func (m *MetricFactory) NewStatsBatchesEmittedTotal() *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stats_batches_emitted_total",
		Help: "Batches successfully handed to the outbound queue",
	}, []string{"module"})
	m.reg.MustRegister(c)
	return c
}

// NewStatsBatchesDroppedTotal 创建「因队列满/关闭被放弃的批次总数」指标
func (m *MetricFactory) NewStatsBatchesDroppedTotal() *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stats_batches_dropped_total",
		Help: "Batches dropped because the outbound queue was full or closed",
	}, []string{"module"})
	m.reg.MustRegister(c)
	return c
}

// NewStatsTickDurationSeconds 创建「单次采样tick耗时分布」指标
// 分桶说明：使用Prometheus默认分桶，覆盖毫秒级到秒级的常见采样耗时
func (m *MetricFactory) NewStatsTickDurationSeconds() prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "stats_tick_duration_seconds",
		Help:    "Duration of one eligible sampling tick",
		Buckets: prometheus.DefBuckets,
	})
	m.reg.MustRegister(h)
	return h
}

// NewStatsRegisteredSources 创建「注册表中存活来源数」指标
func (m *MetricFactory) NewStatsRegisteredSources() prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stats_registered_sources",
		Help: "Live sources currently tracked by the registry",
	})
	m.reg.MustRegister(g)
	return g
}
