package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/rendermatic/engine/renderer"
)

// QuadVertices is a unit square centered on the origin, in the order
// top left, bottom left, bottom right, top right.
var QuadVertices = [renderer.VerticesPerQuad]mgl32.Vec2{
	{-0.5, 0.5},
	{-0.5, -0.5},
	{0.5, -0.5},
	{0.5, 0.5},
}

// QuadUVs map a whole texture onto QuadVertices.
var QuadUVs = [renderer.VerticesPerQuad]mgl32.Vec2{
	{0, 0},
	{0, 1},
	{1, 1},
	{1, 0},
}

var white = mgl32.Vec4{1, 1, 1, 1}

// Projection maps pixels centered on the window to clip space. Depth uses
// the zero to one range Vulkan expects.
func Projection(width, height float32) mgl32.Mat4 {
	left, right := -width/2, width/2
	bottom, top := -height/2, height/2
	var near, far float32 = 0, 1
	return mgl32.Mat4{
		2 / (right - left), 0, 0, 0,
		0, 2 / (top - bottom), 0, 0,
		0, 0, 1 / (far - near), 0,
		-(right + left) / (right - left), -(top + bottom) / (top - bottom), -near / (far - near), 1,
	}
}

// Positions transforms QuadVertices by model then projection.
func Positions(projection mgl32.Mat4, model mgl32.Mat3) [renderer.VerticesPerQuad]mgl32.Vec3 {
	var out [renderer.VerticesPerQuad]mgl32.Vec3
	for i, v := range QuadVertices {
		w := model.Mul3x1(v.Vec3(1))
		out[i] = projection.Mul4x1(mgl32.Vec4{w.X(), w.Y(), 1, 1}).Vec3()
	}
	return out
}

// UVs transforms QuadUVs by m, usually a texel space transform followed by
// the texture's normalization.
func UVs(m mgl32.Mat3) [renderer.VerticesPerQuad]mgl32.Vec2 {
	var out [renderer.VerticesPerQuad]mgl32.Vec2
	for i, uv := range QuadUVs {
		out[i] = m.Mul3x1(uv.Vec3(1)).Vec2()
	}
	return out
}

// QuadUVMatrix crops the texture at the quad's offset with the quad's size.
func QuadUVMatrix(q *Quad, normalization mgl32.Mat3) mgl32.Mat3 {
	offset := mgl32.Translate2D(q.UVOffset.X(), q.UVOffset.Y())
	return normalization.Mul3(offset).Mul3(q.Transform.ScalingMatrix())
}

// AnimationUVMatrix crops the current frame out of the spritesheet.
func AnimationUVMatrix(frame int, sheet Spritesheet, normalization mgl32.Mat3) mgl32.Mat3 {
	cell := sheet.FrameOffset(frame)
	return normalization.
		Mul3(mgl32.Translate2D(cell.X(), cell.Y())).
		Mul3(mgl32.Translate2D(sheet.Position.X(), sheet.Position.Y())).
		Mul3(mgl32.Scale2D(sheet.FrameSize.X(), sheet.FrameSize.Y()))
}

// QuadData assembles the four vertices of one quad.
func QuadData(positions [renderer.VerticesPerQuad]mgl32.Vec3, uvs [renderer.VerticesPerQuad]mgl32.Vec2) [renderer.VerticesPerQuad]renderer.Vertex {
	var out [renderer.VerticesPerQuad]renderer.Vertex
	for i := range out {
		out[i] = renderer.Vertex{Position: positions[i], Color: white, UV: uvs[i]}
	}
	return out
}
