// Package counter 定义计数器生产者能力契约与计数值模型。
// 任意子系统实现 Countable 后即可注册到统计采集器，由调度线程周期性拉取。
package counter

import (
	"sync/atomic"
	"time"
)

// Countable 计数器生产者能力契约（所有统计来源必须实现）
// 两个方法都可能被反复并发调用，实现必须无阻塞、可与生产者自身的正常运行并存。
type Countable interface {
	GetCounters() []CounterPoint // 拉取当前计数（瞬态序列，采集核心不保留引用）
	Closed() bool                // 生产者是否已结束生命周期（结束后会被注册表剪除）
}

type valueKind uint8

const (
	kindSigned valueKind = iota
	kindUnsigned
	kindFloat
)

// CounterValue 计数值（有符号/无符号/浮点三种表示的封闭变体）
type CounterValue struct {
	kind valueKind
	i    int64
	u    uint64
	f    float64
}

// SignedValue 构造有符号计数值
func SignedValue(v int64) CounterValue {
	return CounterValue{kind: kindSigned, i: v}
}

// UnsignedValue 构造无符号计数值
func UnsignedValue(v uint64) CounterValue {
	return CounterValue{kind: kindUnsigned, u: v}
}

// FloatValue 构造浮点计数值
func FloatValue(v float64) CounterValue {
	return CounterValue{kind: kindFloat, f: v}
}

// Float64 统一转为64位浮点（上线路编码前的归一表示）
func (v CounterValue) Float64() float64 {
	switch v.kind {
	case kindSigned:
		return float64(v.i)
	case kindUnsigned:
		return float64(v.u)
	default:
		return v.f
	}
}

// CounterPoint 一条计数：名称 + 计数值
type CounterPoint struct {
	Name  string
	Value CounterValue
}

// AtomicTimeStats 滚动时延累加器：无锁维护次数/总和/最大值。
// 任意并发调用方可安全使用，更新过程不阻塞、不分配。
type AtomicTimeStats struct {
	Count atomic.Uint32
	SumNs atomic.Uint64
	MaxNs atomic.Uint64
}

// Update 记录一次耗时。最大值采用比较-重试循环，仅在严格更大时替换。
func (s *AtomicTimeStats) Update(d time.Duration) {
	nanos := uint64(d.Nanoseconds())
	s.SumNs.Add(nanos)
	s.Count.Add(1)
	for {
		cur := s.MaxNs.Load()
		if nanos <= cur {
			return
		}
		if s.MaxNs.CompareAndSwap(cur, nanos) {
			return
		}
	}
}
