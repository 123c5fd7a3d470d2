package renderer

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

// MaxQuads bounds the vertex and index buffers. They never grow.
const MaxQuads = 10

const (
	VerticesPerQuad = 4
	IndicesPerQuad  = 6
)

// Vertex matches the vertex shader inputs at locations 0, 1 and 2.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec4
	UV       mgl32.Vec2
}

const VertexSize = uint32(unsafe.Sizeof(Vertex{}))

var QuadIndices = [IndicesPerQuad]uint16{0, 1, 2, 2, 3, 0}

func vertexAttributes() []hal.VertexAttribute {
	return []hal.VertexAttribute{
		{Location: 0, Format: hal.FormatR32G32B32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Position))},
		{Location: 1, Format: hal.FormatR32G32B32A32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Color))},
		{Location: 2, Format: hal.FormatR32G32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.UV))},
	}
}

// GenerateIndices fills dst with two triangles per quad and returns it
// resliced to 6*quads entries.
func GenerateIndices(quads int, dst []uint16) []uint16 {
	dst = dst[:0]
	for q := 0; q < quads; q++ {
		base := uint16(q * VerticesPerQuad)
		for _, i := range QuadIndices {
			dst = append(dst, base+i)
		}
	}
	return dst
}

// DrawRange is a half open range of indices drawn with one texture.
type DrawRange struct {
	Start uint32
	End   uint32
}

func (r DrawRange) Count() uint32 {
	return r.End - r.Start
}

// DrawRanges turns per texture quad counts into consecutive index ranges.
// It panics if a count is negative.
func DrawRanges(quadCounts []int) []DrawRange {
	ranges := make([]DrawRange, len(quadCounts))
	var start uint32
	for i, n := range quadCounts {
		if n < 0 {
			panic(core.Errorf(core.ErrLogic, "negative quad count %d for texture %d", n, i))
		}
		end := start + uint32(n*IndicesPerQuad)
		ranges[i] = DrawRange{Start: start, End: end}
		start = end
	}
	return ranges
}
