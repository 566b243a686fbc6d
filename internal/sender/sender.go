// Package sender 实现外发队列的排空端：编码批次供主传输通路使用，
// 并在配置了UDP调试通路时逐条发出指标行。
package sender

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/stats-agent/internal/stats"
	"github.com/stats-agent/pkg/counter"
	"github.com/stats-agent/pkg/queue"
)

// Sender 批次发送方：持续排空接收端，逐批编码；编码耗时经滚动累加器自观测，
// 自身可作为统计来源注册回采集器。
type Sender struct {
	receiver *queue.Receiver[*stats.Batch]
	sink     *stats.DropletSink // 可为nil，表示不启用调试通路
	log      *zap.Logger

	encodeStats counter.AtomicTimeStats
	stopped     chan struct{}
}

// New 创建发送方。sink为nil时仅做编码排空。
func New(receiver *queue.Receiver[*stats.Batch], sink *stats.DropletSink, log *zap.Logger) *Sender {
	return &Sender{
		receiver: receiver,
		sink:     sink,
		log:      log,
		stopped:  make(chan struct{}),
	}
}

// Start 启动排空goroutine。队列接收端关闭且排空后自行退出。
func (s *Sender) Start() {
	go s.run()
}

// Wait 返回退出信号通道
func (s *Sender) Wait() <-chan struct{} {
	return s.stopped
}

func (s *Sender) run() {
	defer close(s.stopped)
	var buf []byte
	for {
		batch, ok := s.receiver.Recv()
		if !ok {
			s.log.Info("stats sender queue closed, exiting")
			return
		}
		start := time.Now()
		var err error
		buf, err = batch.Encode(buf[:0])
		if err != nil {
			s.log.Warn("encode stats batch failed",
				zap.String("module", batch.Module()), zap.Error(err))
			continue
		}
		s.encodeStats.Update(time.Since(start))
		// 编码结果交由主传输通路发送（外部协作方）；此处仅维护调试通路
		_ = buf
		if s.sink != nil {
			s.emitDebug(batch)
		}
	}
}

// emitDebug 调试通路：每条计数一行、一行一个数据报。发送失败仅记录，不影响排空。
func (s *Sender) emitDebug(batch *stats.Batch) {
	record := batch.ToStats()
	for i, name := range record.MetricsFloatNames {
		line := fmt.Sprintf("%s.%s:%s|g", record.Name, name,
			strconv.FormatFloat(record.MetricsFloatValues[i], 'f', -1, 64))
		if _, err := s.sink.Emit(line); err != nil {
			s.log.Debug("emit debug metric failed", zap.Error(err))
		}
	}
}

// -------------------------- 实现stats.Module接口 --------------------------

func (s *Sender) Name() string            { return "stats-sender" }
func (s *Sender) Tags() []stats.Tag       { return nil }
func (s *Sender) Options() []stats.Option { return nil }

// -------------------------- 实现counter.Countable接口 --------------------------

// GetCounters 上报编码自观测：批次数、累计耗时、单批最大耗时
func (s *Sender) GetCounters() []counter.CounterPoint {
	return []counter.CounterPoint{
		{Name: "encoded_batches", Value: counter.UnsignedValue(uint64(s.encodeStats.Count.Load()))},
		{Name: "encode_sum_ns", Value: counter.UnsignedValue(s.encodeStats.SumNs.Load())},
		{Name: "encode_max_ns", Value: counter.UnsignedValue(s.encodeStats.MaxNs.Load())},
	}
}

func (s *Sender) Closed() bool {
	select {
	case <-s.stopped:
		return true
	default:
		return false
	}
}
