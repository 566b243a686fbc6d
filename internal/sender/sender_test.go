package sender

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stats-agent/internal/stats"
	"github.com/stats-agent/pkg/queue"
)

func TestSenderDrainsAndExitsOnClose(t *testing.T) {
	qs, qr, _ := queue.Bounded[*stats.Batch](8)
	s := New(qr, nil, zaptest.NewLogger(t))
	s.Start()

	c := stats.NewCollector(stats.CollectorConfig{Hostname: "node-1", MinInterval: time.Second}, nil, nil, zaptest.NewLogger(t))
	// 借采集器构造真实批次：队列观测来源每个合格tick必然产出
	c.Start()
	defer func() {
		if done := c.NotifyStop(); done != nil {
			<-done
		}
	}()

	// 搬运一个真实批次进入发送方队列
	require.Eventually(t, func() bool {
		if c.GetReceiver().Len() == 0 {
			return false
		}
		b, ok := c.GetReceiver().Recv()
		if !ok {
			return false
		}
		return qs.Send(b) == nil
	}, 5*time.Second, 50*time.Millisecond)

	require.Eventually(t, func() bool {
		return s.encodeStats.Count.Load() >= 1
	}, 3*time.Second, 20*time.Millisecond)

	assert.False(t, s.Closed())
	qr.Close()
	select {
	case <-s.Wait():
	case <-time.After(3 * time.Second):
		t.Fatal("sender did not exit after queue close")
	}
	assert.True(t, s.Closed())

	points := s.GetCounters()
	require.Len(t, points, 3)
	assert.Equal(t, "encoded_batches", points[0].Name)
	assert.GreaterOrEqual(t, points[0].Value.Float64(), float64(1))
}
