// Package queue 提供有界、非阻塞发送的队列原语，用于解耦采集调度线程与网络发送方。
// 队列满或接收端已关闭时发送立即失败，这是正常的背压结果而非异常。
package queue

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/stats-agent/pkg/counter"
)

var (
	// ErrQueueFull 队列已满，本次元素被放弃
	ErrQueueFull = errors.New("queue is full")
	// ErrQueueClosed 接收端已关闭，队列不再接受元素
	ErrQueueClosed = errors.New("queue is closed")
)

// queue 发送端与接收端共享的内部状态
type queue[T any] struct {
	ch     chan T
	mu     sync.RWMutex
	closed bool

	in       atomic.Uint64
	out      atomic.Uint64
	overflow atomic.Uint64
}

// Sender 队列发送端（任意goroutine可并发调用Send）
type Sender[T any] struct {
	q *queue[T]
}

// Receiver 队列接收端（单消费者）
type Receiver[T any] struct {
	q *queue[T]
}

// DepthCounter 队列深度观测器，实现 counter.Countable，
// 可作为统计来源注册，使队列积压通过同一条统计管道可见。
type DepthCounter[T any] struct {
	q *queue[T]
}

// Bounded 创建容量固定的队列，返回发送端、接收端与深度观测器
func Bounded[T any](capacity int) (*Sender[T], *Receiver[T], *DepthCounter[T]) {
	q := &queue[T]{ch: make(chan T, capacity)}
	return &Sender[T]{q: q}, &Receiver[T]{q: q}, &DepthCounter[T]{q: q}
}

// Send 非阻塞入队。队列满返回 ErrQueueFull，接收端已关闭返回 ErrQueueClosed。
func (s *Sender[T]) Send(v T) error {
	s.q.mu.RLock()
	defer s.q.mu.RUnlock()
	if s.q.closed {
		return ErrQueueClosed
	}
	select {
	case s.q.ch <- v:
		s.q.in.Add(1)
		return nil
	default:
		s.q.overflow.Add(1)
		return ErrQueueFull
	}
}

// Recv 阻塞出队。队列被关闭且已排空时返回 ok=false。
func (r *Receiver[T]) Recv() (T, bool) {
	v, ok := <-r.q.ch
	if ok {
		r.q.out.Add(1)
	}
	return v, ok
}

// Len 当前积压元素个数
func (r *Receiver[T]) Len() int {
	return len(r.q.ch)
}

// Close 关闭接收端，此后所有Send立即失败
func (r *Receiver[T]) Close() {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	if r.q.closed {
		return
	}
	r.q.closed = true
	close(r.q.ch)
}

// GetCounters 实现 counter.Countable
func (c *DepthCounter[T]) GetCounters() []counter.CounterPoint {
	return []counter.CounterPoint{
		{Name: "pending", Value: counter.UnsignedValue(uint64(len(c.q.ch)))},
		{Name: "in", Value: counter.UnsignedValue(c.q.in.Load())},
		{Name: "out", Value: counter.UnsignedValue(c.q.out.Load())},
		{Name: "overflow", Value: counter.UnsignedValue(c.q.overflow.Load())},
	}
}

// Closed 实现 counter.Countable
func (c *DepthCounter[T]) Closed() bool {
	c.q.mu.RLock()
	defer c.q.mu.RUnlock()
	return c.q.closed
}
