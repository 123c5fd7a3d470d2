package containers

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueWraps(t *testing.T) {
	q := NewRingQueue[int](2)
	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	assert.ErrorIs(t, q.Enqueue(3), ErrQueueFull)

	v, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	require.NoError(t, q.Enqueue(3))
	v, _ = q.Peek()
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, q.Len())

	q.Dequeue()
	v, _ = q.Dequeue()
	assert.Equal(t, 3, v)
	_, err = q.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestArenaRejectsStaleHandles(t *testing.T) {
	a := NewArena[string](4)
	h := a.Insert("vertex")
	assert.False(t, h.IsNil())

	v, ok := a.Get(h)
	require.True(t, ok)
	assert.Equal(t, "vertex", v)

	_, ok = a.Remove(h)
	require.True(t, ok)

	h2 := a.Insert("index")
	assert.Equal(t, h.Index, h2.Index)
	assert.NotEqual(t, h.Generation, h2.Generation)

	_, ok = a.Get(h)
	assert.False(t, ok)
	_, err := a.Ptr(h)
	assert.True(t, errors.Is(err, ErrStaleHandle))
	_, ok = a.Remove(h)
	assert.False(t, ok)

	_, ok = a.Get(Handle{})
	assert.False(t, ok)
	assert.Equal(t, 1, a.Len())
}

func TestArenaEachSkipsFreeSlots(t *testing.T) {
	a := NewArena[int](0)
	h1 := a.Insert(1)
	a.Insert(2)
	a.Insert(3)
	a.Remove(h1)

	var seen []int
	a.Each(func(_ Handle, v int) bool {
		seen = append(seen, v)
		return true
	})
	assert.Equal(t, []int{2, 3}, seen)
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint64(512), AlignUp[uint64](400, 256))
	assert.Equal(t, uint64(256), AlignUp[uint64](256, 256))
	assert.Equal(t, uint32(7), AlignUp[uint32](7, 1))
	assert.Equal(t, uint32(7), AlignUp[uint32](7, 0))
	assert.Equal(t, 3, Clamp(5, 1, 3))
	assert.Equal(t, 1, Clamp(-5, 1, 3))
}
