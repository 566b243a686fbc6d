// Package stats 实现统计聚合核心：来源注册表、采样调度循环、批次构造与外发队列递交。
// 一个 Collector 只持有一个专职调度goroutine，运行期间不泄漏内存、不阻塞生产者。
package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/stats-agent/internal/metrics"
	"github.com/stats-agent/pkg/counter"
	"github.com/stats-agent/pkg/queue"
)

const (
	// TickCycle 调度循环的固定唤醒周期
	TickCycle = time.Second
	// MinInterval 默认最小采样间隔
	MinInterval = 10 * time.Second
	// SenderQueueSize 外发队列容量
	SenderQueueSize = 4096
)

// Source 注册表条目：一个生产者实例绑定身份、采样间隔与tick倒计数。
// 身份 = (module, tags)；interval/skip 不参与身份比较。
type Source struct {
	module    string
	interval  time.Duration
	countable counter.Countable
	tags      []Tag
	// 距下次采样的tick倒计数
	skip int64
}

// equals 身份比较（module + tags 完全相等）
func (s *Source) equals(other *Source) bool {
	if s.module != other.module || len(s.tags) != len(other.tags) {
		return false
	}
	for i := range s.tags {
		if s.tags[i] != other.tags[i] {
			return false
		}
	}
	return true
}

func (s *Source) String() string {
	return fmt.Sprintf("%s-%v", s.module, s.tags)
}

// CollectorMetrics 采集器自观测指标（可为nil，表示不上报）
type CollectorMetrics struct {
	BatchesEmitted    *prometheus.CounterVec
	BatchesDropped    *prometheus.CounterVec
	TickDuration      prometheus.Histogram
	RegisteredSources prometheus.Gauge
}

// NewCollectorMetrics 通过指标工厂创建并注册自观测指标
func NewCollectorMetrics(f *metrics.MetricFactory) *CollectorMetrics {
	return &CollectorMetrics{
		BatchesEmitted:    f.NewStatsBatchesEmittedTotal(),
		BatchesDropped:    f.NewStatsBatchesDroppedTotal(),
		TickDuration:      f.NewStatsTickDurationSeconds(),
		RegisteredSources: f.NewStatsRegisteredSources(),
	}
}

// Collector 统计采集器：持有注册表并运行唯一的后台调度循环，
// 每个合格tick决定采样哪些来源、拉取计数并构造批次递交外发队列。
type Collector struct {
	hostnameMu sync.Mutex
	hostname   string

	sourcesMu sync.Mutex
	sources   []*Source

	hooksMu  sync.Mutex
	preHooks []func()

	// 秒值，启动与更新时都按tick周期向上取整
	minInterval atomic.Int64

	// 外部供给的NTP纳秒偏移（可为nil，表示无校正）
	ntpDiff *atomic.Int64

	runningMu sync.Mutex
	running   bool
	stopCh    chan struct{}
	stopped   chan struct{}

	sender   *queue.Sender[*Batch]
	receiver *queue.Receiver[*Batch]

	metrics *CollectorMetrics
	log     *zap.Logger
}

// CollectorConfig 采集器构造配置（零值字段取默认）
type CollectorConfig struct {
	Hostname    string
	MinInterval time.Duration // 默认 MinInterval
	QueueSize   int           // 默认 SenderQueueSize
}

// NewCollector 创建采集器。
// 最小间隔低于tick周期按一个tick处理，非整数倍向上取整到tick周期的整数倍。
// 外发队列的深度观测器在此处注册为保留来源，使队列积压可被同一管道观测。
func NewCollector(cfg CollectorConfig, ntpDiff *atomic.Int64, m *CollectorMetrics, log *zap.Logger) *Collector {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = MinInterval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = SenderQueueSize
	}
	sender, receiver, depth := queue.Bounded[*Batch](cfg.QueueSize)

	c := &Collector{
		hostname: cfg.Hostname,
		ntpDiff:  ntpDiff,
		sender:   sender,
		receiver: receiver,
		metrics:  m,
		log:      log,
	}
	c.minInterval.Store(normalizeInterval(cfg.MinInterval))

	c.RegisterCountable(QueueStats{Module: "0-stats-to-sender"}, depth)
	return c
}

// normalizeInterval 秒值规整：下限一个tick，其余向上取整到tick整数倍
func normalizeInterval(interval time.Duration) int64 {
	tick := int64(TickCycle / time.Second)
	secs := int64(interval / time.Second)
	if interval <= TickCycle {
		return tick
	}
	return (secs + tick - 1) / tick * tick
}

// GetReceiver 获取外发队列接收端（供下游发送方排空批次）
func (c *Collector) GetReceiver() *queue.Receiver[*Batch] {
	return c.receiver
}

// RegisterCountable 注册统计来源。
// 标签按key去重（重复声明忽略并告警）；间隔覆盖低于最小间隔时忽略并告警，
// 否则向下取整到tick整数倍；同身份的旧条目被替换（先告警），已关闭条目顺带剪除。
func (c *Collector) RegisterCountable(module Module, countable counter.Countable) {
	minLoaded := c.minInterval.Load()
	src := &Source{
		module:    module.Name(),
		interval:  time.Duration(minLoaded) * time.Second,
		countable: countable,
	}
	for _, tag := range module.Tags() {
		dup := false
		for _, t := range src.tags {
			if t.Key == tag.Key {
				dup = true
				break
			}
		}
		if dup {
			c.log.Warn("ignored duplicated tag for module",
				zap.String("module", src.module), zap.String("tag", tag.Key))
			continue
		}
		src.tags = append(src.tags, tag)
	}
	tick := int64(TickCycle / time.Second)
	for _, opt := range module.Options() {
		secs := int64(opt.Interval / time.Second)
		if secs >= c.minInterval.Load() {
			src.interval = time.Duration(secs/tick*tick) * time.Second
		} else {
			c.log.Warn("ignored invalid interval for module",
				zap.String("module", src.module), zap.Duration("interval", opt.Interval))
		}
	}
	if int64(src.interval/time.Second) > minLoaded {
		src.skip = int64(src.interval/time.Second) / minLoaded
	}

	c.sourcesMu.Lock()
	defer c.sourcesMu.Unlock()
	kept := c.sources[:0]
	for _, s := range c.sources {
		closed := s.countable.Closed()
		equals := s.equals(src)
		if !closed && equals {
			c.log.Warn("found duplicated counter source, please check if the old one is correctly closed",
				zap.String("source", src.String()))
		}
		if !closed && !equals {
			kept = append(kept, s)
		}
	}
	c.sources = append(kept, src)
	if c.metrics != nil {
		c.metrics.RegisteredSources.Set(float64(len(c.sources)))
	}
}

// DeregisterCountables 按身份注销来源。身份标签按与注册相同的规则归一（key去重），
// (module, tags) 完全相等的条目被移除。
func (c *Collector) DeregisterCountables(modules ...Module) {
	c.sourcesMu.Lock()
	defer c.sourcesMu.Unlock()
	for _, m := range modules {
		var tags []Tag
		for _, tag := range m.Tags() {
			dup := false
			for _, t := range tags {
				if t.Key == tag.Key {
					dup = true
					break
				}
			}
			if !dup {
				tags = append(tags, tag)
			}
		}
		probe := &Source{module: m.Name(), tags: tags}
		kept := c.sources[:0]
		for _, s := range c.sources {
			if !s.equals(probe) {
				kept = append(kept, s)
			}
		}
		for i := len(kept); i < len(c.sources); i++ {
			c.sources[i] = nil
		}
		c.sources = kept
	}
	if c.metrics != nil {
		c.metrics.RegisteredSources.Set(float64(len(c.sources)))
	}
}

// RegisterPreHook 追加采样前回调。回调在每个合格tick采样前按注册顺序执行，
// 运行在调度goroutine上，不得无限阻塞。
func (c *Collector) RegisterPreHook(hook func()) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	c.preHooks = append(c.preHooks, hook)
}

// SetHostname 更新主机名（空值忽略，末次写入生效）
func (c *Collector) SetHostname(hostname string) {
	if hostname == "" {
		return
	}
	c.hostnameMu.Lock()
	defer c.hostnameMu.Unlock()
	if c.hostname != hostname {
		c.log.Info("set stats hostname", zap.String("hostname", hostname))
		c.hostname = hostname
	}
}

// SetMinInterval 更新最小采样间隔。已注册来源的倒计数保持原节奏，
// 直到下次重新注册才按新间隔折算。
func (c *Collector) SetMinInterval(interval time.Duration) {
	c.minInterval.Store(normalizeInterval(interval))
}

// MinSamplingInterval 当前生效的最小采样间隔
func (c *Collector) MinSamplingInterval() time.Duration {
	return time.Duration(c.minInterval.Load()) * time.Second
}

// correctedNow 经NTP偏移校正的当前秒级时间戳
func (c *Collector) correctedNow() int64 {
	var diff int64
	if c.ntpDiff != nil {
		diff = c.ntpDiff.Load()
	}
	return time.Now().Add(time.Duration(diff)).Unix()
}

// Start 启动调度循环（幂等：运行中重复调用为空操作）
func (c *Collector) Start() {
	c.runningMu.Lock()
	defer c.runningMu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.stopped = make(chan struct{})
	go c.run(c.stopCh, c.stopped)
	c.log.Info("stats collector started",
		zap.Duration("min_interval", c.MinSamplingInterval()))
}

// NotifyStop 请求停止并返回完成信号。调度goroutine在下一个唤醒点退出，
// 需要等待退出完成的调用方应接收返回的通道。未启动时返回nil。
func (c *Collector) NotifyStop() <-chan struct{} {
	c.runningMu.Lock()
	defer c.runningMu.Unlock()
	if !c.running {
		return nil
	}
	c.running = false
	close(c.stopCh)
	return c.stopped
}

// run 调度循环：每tick唤醒一次，仅在 now/min 跨越间隔边界的合格tick上采样。
// 这种粗粒度对齐节奏对tick抖动鲁棒，不会像固定周期定时器那样累积漂移。
func (c *Collector) run(stopCh <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(TickCycle)
	defer ticker.Stop()

	var lastRun int64
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		minLoaded := c.minInterval.Load()
		now := c.correctedNow()
		if now/minLoaded == lastRun/minLoaded {
			continue
		}
		lastRun = now

		start := time.Now()
		c.runTick(now, minLoaded)
		if c.metrics != nil {
			c.metrics.TickDuration.Observe(time.Since(start).Seconds())
		}
	}
}

// runTick 执行一个合格tick：跑前置回调，剪除已关闭来源，
// 对到期来源拉取计数并构造批次递交外发队列（满/关闭则放弃，不阻塞）。
func (c *Collector) runTick(now int64, minLoaded int64) {
	c.hostnameMu.Lock()
	host := c.hostname
	c.hostnameMu.Unlock()

	c.hooksMu.Lock()
	for _, hook := range c.preHooks {
		hook()
	}
	c.hooksMu.Unlock()

	c.sourcesMu.Lock()
	defer c.sourcesMu.Unlock()

	kept := c.sources[:0]
	for _, s := range c.sources {
		if !s.countable.Closed() {
			kept = append(kept, s)
		}
	}
	for i := len(kept); i < len(c.sources); i++ {
		c.sources[i] = nil
	}
	c.sources = kept
	if c.metrics != nil {
		c.metrics.RegisteredSources.Set(float64(len(c.sources)))
	}

	for _, source := range c.sources {
		source.skip--
		if source.skip > 0 {
			continue
		}
		intervalSecs := int64(source.interval / time.Second)
		if intervalSecs < minLoaded {
			intervalSecs = minLoaded
		}
		source.skip = intervalSecs / minLoaded

		points := source.countable.GetCounters()
		if len(points) == 0 {
			continue
		}
		batch := &Batch{
			module:    source.module,
			hostname:  host,
			tags:      source.tags,
			points:    points,
			timestamp: uint32(now),
		}
		if err := c.sender.Send(batch); err != nil {
			// 背压属正常结果：放弃本批，调度不受影响
			c.log.Debug("stats batch dropped",
				zap.String("module", source.module), zap.Error(err))
			if c.metrics != nil {
				c.metrics.BatchesDropped.WithLabelValues(source.module).Inc()
			}
			continue
		}
		if c.metrics != nil {
			c.metrics.BatchesEmitted.WithLabelValues(source.module).Inc()
		}
	}
}
