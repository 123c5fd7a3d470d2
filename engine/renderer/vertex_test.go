package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVertexLayout(t *testing.T) {
	assert.Equal(t, uint32(36), VertexSize)
	attrs := vertexAttributes()
	assert.Equal(t, uint32(0), attrs[0].Offset)
	assert.Equal(t, uint32(12), attrs[1].Offset)
	assert.Equal(t, uint32(28), attrs[2].Offset)
}

func TestGenerateIndices(t *testing.T) {
	indices := GenerateIndices(3, nil)
	assert.Len(t, indices, 18)
	assert.Equal(t, []uint16{0, 1, 2, 2, 3, 0}, indices[:6])
	assert.Equal(t, []uint16{4, 5, 6, 6, 7, 4}, indices[6:12])

	reused := GenerateIndices(1, indices)
	assert.Equal(t, []uint16{0, 1, 2, 2, 3, 0}, reused)
	assert.Empty(t, GenerateIndices(0, reused))
}

func TestDrawRangesAreContiguous(t *testing.T) {
	ranges := DrawRanges([]int{2, 0, 1, 3})
	assert.Equal(t, []DrawRange{{0, 12}, {12, 12}, {12, 18}, {18, 36}}, ranges)
	for i := 1; i < len(ranges); i++ {
		assert.Equal(t, ranges[i-1].End, ranges[i].Start)
	}
	assert.Empty(t, DrawRanges(nil))
}

func TestDrawRangesRejectsNegativeCounts(t *testing.T) {
	assert.Panics(t, func() { DrawRanges([]int{1, -1}) })
}
