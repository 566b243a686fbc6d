package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedSendRecv(t *testing.T) {
	s, r, _ := Bounded[int](4)

	require.NoError(t, s.Send(1))
	require.NoError(t, s.Send(2))

	v, ok := r.Recv()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = r.Recv()
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

// 队列满后再次发送：立即返回 ErrQueueFull，不阻塞，队列长度不变
func TestBoundedSendFullDoesNotBlock(t *testing.T) {
	s, r, _ := Bounded[int](2)

	require.NoError(t, s.Send(1))
	require.NoError(t, s.Send(2))

	err := s.Send(3)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 2, r.Len())
}

func TestBoundedSendAfterClose(t *testing.T) {
	s, r, _ := Bounded[int](2)
	require.NoError(t, s.Send(1))
	r.Close()

	assert.ErrorIs(t, s.Send(2), ErrQueueClosed)

	// 已入队元素仍可排空
	v, ok := r.Recv()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = r.Recv()
	assert.False(t, ok)
}

func TestDepthCounter(t *testing.T) {
	s, r, c := Bounded[int](2)

	require.NoError(t, s.Send(1))
	require.NoError(t, s.Send(2))
	assert.ErrorIs(t, s.Send(3), ErrQueueFull)
	r.Recv()

	points := map[string]float64{}
	for _, p := range c.GetCounters() {
		points[p.Name] = p.Value.Float64()
	}
	assert.Equal(t, float64(1), points["pending"])
	assert.Equal(t, float64(2), points["in"])
	assert.Equal(t, float64(1), points["out"])
	assert.Equal(t, float64(1), points["overflow"])

	assert.False(t, c.Closed())
	r.Close()
	assert.True(t, c.Closed())
}
