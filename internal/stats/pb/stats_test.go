package pb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsMarshalDeterministic(t *testing.T) {
	s := &Stats{
		Name:               "stats_agent_queue",
		Timestamp:          1700000000,
		TagNames:           []string{"index", "module", "host"},
		TagValues:          []string{"0", "0-stats-to-sender", "node-1"},
		MetricsFloatNames:  []string{"pending", "in"},
		MetricsFloatValues: []float64{3, 42},
	}

	a := s.Marshal(nil)
	b := s.Marshal(nil)
	assert.Equal(t, a, b)
	assert.Equal(t, len(a), s.Size())
}

func TestStatsRoundTrip(t *testing.T) {
	in := &Stats{
		Name:               "stats_agent_flow_map",
		Timestamp:          1700000123,
		TagNames:           []string{"severity", "host"},
		TagValues:          []string{"high", "node-2"},
		MetricsFloatNames:  []string{"errors", "latency_max"},
		MetricsFloatValues: []float64{5, 0.25},
		OrgID:              0,
		TeamID:             0,
	}

	buf := in.Marshal(nil)
	out := &Stats{}
	require.NoError(t, out.Unmarshal(buf))
	assert.Equal(t, in, out)
}

func TestStatsUnmarshalEmpty(t *testing.T) {
	out := &Stats{}
	require.NoError(t, out.Unmarshal(nil))
	assert.Equal(t, &Stats{}, out)
}
