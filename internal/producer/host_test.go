package producer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/stats-agent/internal/stats"
	"github.com/stats-agent/pkg/config"
)

func TestHostStatsIdentity(t *testing.T) {
	h := NewHostStats(config.HostProducerConfig{Interval: 30 * time.Second}, zaptest.NewLogger(t))
	assert.Equal(t, "host", h.Name())
	assert.Empty(t, h.Tags())
	assert.Equal(t, []stats.Option{{Interval: 30 * time.Second}}, h.Options())

	// 无覆盖时跟随最小间隔
	h = NewHostStats(config.HostProducerConfig{}, zaptest.NewLogger(t))
	assert.Empty(t, h.Options())
}

func TestHostStatsLifecycle(t *testing.T) {
	h := NewHostStats(config.HostProducerConfig{}, zaptest.NewLogger(t))
	assert.False(t, h.Closed())
	h.Close()
	assert.True(t, h.Closed())
}

func TestHostStatsGetCounters(t *testing.T) {
	h := NewHostStats(config.HostProducerConfig{}, zaptest.NewLogger(t))
	points := h.GetCounters()
	// 具体计数依赖运行环境，至少内存计数在任何平台都应产出
	names := map[string]bool{}
	for _, p := range points {
		names[p.Name] = true
	}
	assert.True(t, names["mem_used_bytes"])
	assert.True(t, names["mem_used_percent"])
}
