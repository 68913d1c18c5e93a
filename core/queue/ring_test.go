package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.openwager.io/openwager/core/queue"
)

func TestRingFIFOOrder(t *testing.T) {
	r := queue.New[int](4)
	for i := 1; i <= 4; i++ {
		require.NoError(t, r.PushBack(i))
	}
	assert.Equal(t, 4, r.Len())

	for i := 1; i <= 4; i++ {
		v, err := r.PopFront()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.True(t, r.Empty())
}

func TestRingRejectsOverCapacity(t *testing.T) {
	r := queue.New[string](2)
	require.NoError(t, r.PushBack("a"))
	require.NoError(t, r.PushBack("b"))
	assert.ErrorIs(t, r.PushBack("c"), queue.ErrQueueFull)
}

func TestRingEmptyPop(t *testing.T) {
	r := queue.New[int](2)
	_, err := r.PopFront()
	assert.ErrorIs(t, err, queue.ErrQueueEmpty)
	_, err = r.Front()
	assert.ErrorIs(t, err, queue.ErrQueueEmpty)
}

func TestRingWrapAround(t *testing.T) {
	// front+len exceeding capacity must wrap via modulo, not slice naively
	r := queue.New[int](3)
	require.NoError(t, r.PushBack(1))
	require.NoError(t, r.PushBack(2))

	v, err := r.PopFront()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	require.NoError(t, r.PushBack(3))
	require.NoError(t, r.PushBack(4)) // wraps to index 0

	assert.Equal(t, []int{2, 3, 4}, r.Items())

	v, err = r.PopFront()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 4, r.At(1))
}

func TestRingFrontDoesNotConsume(t *testing.T) {
	r := queue.New[int](2)
	require.NoError(t, r.PushBack(7))

	v, err := r.Front()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, r.Len())
}
