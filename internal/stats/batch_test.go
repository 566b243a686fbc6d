package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stats-agent/internal/stats/pb"
	"github.com/stats-agent/pkg/counter"
)

func TestBatchToStatsInjectsHostTag(t *testing.T) {
	b := &Batch{
		module:   "flow-map",
		hostname: "node-1",
		tags:     []Tag{{Key: "severity", Value: "high"}},
		points: []counter.CounterPoint{
			{Name: "errors", Value: counter.UnsignedValue(5)},
		},
		timestamp: 1700000000,
	}

	s := b.ToStats()
	// 无host标签时补一条，数组长度+1
	assert.Equal(t, []string{"severity", "host"}, s.TagNames)
	assert.Equal(t, []string{"high", "node-1"}, s.TagValues)
}

func TestBatchToStatsKeepsExistingHostTag(t *testing.T) {
	b := &Batch{
		module:   "flow-map",
		hostname: "node-1",
		tags:     []Tag{{Key: "host", Value: "override"}},
		points: []counter.CounterPoint{
			{Name: "errors", Value: counter.SignedValue(-1)},
		},
		timestamp: 1700000000,
	}

	s := b.ToStats()
	assert.Equal(t, []string{"host"}, s.TagNames)
	assert.Equal(t, []string{"override"}, s.TagValues)
}

func TestBatchToStatsNameAndValues(t *testing.T) {
	b := &Batch{
		module:   "quadruple-generator",
		hostname: "node-1",
		points: []counter.CounterPoint{
			{Name: "signed", Value: counter.SignedValue(-2)},
			{Name: "unsigned", Value: counter.UnsignedValue(7)},
			{Name: "float", Value: counter.FloatValue(0.5)},
		},
		timestamp: 42,
	}

	s := b.ToStats()
	assert.Equal(t, "stats_agent_quadruple_generator", s.Name)
	assert.Equal(t, uint64(42), s.Timestamp)
	assert.Equal(t, []string{"signed", "unsigned", "float"}, s.MetricsFloatNames)
	assert.Equal(t, []float64{-2, 7, 0.5}, s.MetricsFloatValues)
	assert.Equal(t, uint32(0), s.OrgID)
	assert.Equal(t, uint32(0), s.TeamID)
}

func TestBatchEncodeDeterministic(t *testing.T) {
	b := &Batch{
		module:    "queue",
		hostname:  "node-1",
		tags:      []Tag{{Key: "index", Value: "0"}},
		points:    []counter.CounterPoint{{Name: "pending", Value: counter.UnsignedValue(3)}},
		timestamp: 1700000000,
	}

	one, err := b.Encode(nil)
	require.NoError(t, err)
	two, err := b.Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, one, two)
	assert.Equal(t, SendMessageTypeStats, b.MessageType())

	decoded := &pb.Stats{}
	require.NoError(t, decoded.Unmarshal(one))
	assert.Equal(t, b.ToStats(), decoded)
}
