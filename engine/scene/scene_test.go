package scene

import (
	"image"
	"math"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rendermatic/engine/containers"
	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

const testComponents = `
[[components]]
type = "quad"
texture_index = 1
layer = 1
uv_offset = [0.0, 0.0]
transform = { translation = [0.0, 0.0], scaling = [1024.0, 768.0], rotation = 0.0 }

[[components]]
type = "animation2d"
texture_index = 0
spritesheet_index = 0
current_animation = 0
transform = { translation = [10.0, 0.0], scaling = [64.0, 64.0], rotation = 0.0 }
movement = { delta_translate = [4.0, 1.0], delta_rotation = 0.5, delta_scale = [2.0, 0.0] }

[[components.animations]]
frames = [0, 1, 2, 3]
type = "loop"
frame_length = 100

[[components.animations]]
frames = [4, 5]
type = "bounce"
frame_length = 50
`

const testSpritesheets = `
[[spritesheets]]
index = 0
pitch = 4
position = [0.0, 32.0]
size = [64.0, 32.0]
frame_size = [16.0, 16.0]
`

func assertVec2(t *testing.T, want, got mgl32.Vec2) {
	t.Helper()
	assert.InDelta(t, want.X(), got.X(), 1e-5, "x of %v", got)
	assert.InDelta(t, want.Y(), got.Y(), 1e-5, "y of %v", got)
}

func TestTransformMatrix(t *testing.T) {
	tr := Transform{
		Translation: mgl32.Vec2{10, 5},
		Scaling:     mgl32.Vec2{2, 1},
		Rotation:    math.Pi / 2,
	}
	p := tr.Matrix().Mul3x1(mgl32.Vec3{1, 0, 1})
	assertVec2(t, mgl32.Vec2{10, 7}, p.Vec2())

	identity := Transform{Scaling: mgl32.Vec2{1, 1}}
	assert.True(t, identity.Matrix().ApproxEqual(mgl32.Ident3()))
}

func TestCalculateFrame(t *testing.T) {
	assert.Equal(t, 0, CalculateFrame(0, 3, 1000))
	assert.Equal(t, 0, CalculateFrame(999*time.Millisecond, 3, 1000))
	assert.Equal(t, 1, CalculateFrame(1000*time.Millisecond, 3, 1000))
	assert.Equal(t, 2, CalculateFrame(2500*time.Millisecond, 3, 1000))
	assert.Equal(t, 0, CalculateFrame(3000*time.Millisecond, 3, 1000))

	assert.Equal(t, 0, CalculateFrame(time.Second, 0, 100))
	assert.Equal(t, 0, CalculateFrame(time.Second, 3, 0))
}

func TestAnimationStep(t *testing.T) {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }

	loop := Animation{Frames: []uint16{7, 8, 9}, Type: AnimationLoop, FrameLength: 10}
	var got []int
	for i := 0; i < 7; i++ {
		got = append(got, loop.Frame(ms(10*i)))
	}
	assert.Equal(t, []int{7, 8, 9, 7, 8, 9, 7}, got)

	bounce := Animation{Frames: []uint16{1, 2, 3}, Type: AnimationBounce, FrameLength: 10}
	got = got[:0]
	for i := 0; i < 7; i++ {
		got = append(got, bounce.Frame(ms(10*i)))
	}
	assert.Equal(t, []int{1, 2, 3, 2, 1, 2, 3}, got)

	once := Animation{Frames: []uint16{1, 2, 3}, Type: AnimationOnce, FrameLength: 10}
	got = got[:0]
	for i := 0; i < 5; i++ {
		got = append(got, once.Frame(ms(10*i)))
	}
	assert.Equal(t, []int{1, 2, 3, 3, 3}, got)

	single := Animation{Frames: []uint16{4}, Type: AnimationBounce, FrameLength: 10}
	assert.Equal(t, 4, single.Frame(ms(1234)))
}

func TestSpritesheetFrameOffset(t *testing.T) {
	s := Spritesheet{Pitch: 4, FrameSize: mgl32.Vec2{16, 8}}
	assertVec2(t, mgl32.Vec2{0, 0}, s.FrameOffset(0))
	assertVec2(t, mgl32.Vec2{48, 0}, s.FrameOffset(3))
	assertVec2(t, mgl32.Vec2{16, 8}, s.FrameOffset(5))
	assertVec2(t, mgl32.Vec2{0, 16}, s.FrameOffset(8))
}

func TestProjection(t *testing.T) {
	p := Projection(1024, 768)
	corner := p.Mul4x1(mgl32.Vec4{512, 384, 1, 1})
	assert.InDelta(t, 1, corner.X(), 1e-6)
	assert.InDelta(t, 1, corner.Y(), 1e-6)
	assert.InDelta(t, 1, corner.Z(), 1e-6)

	center := p.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, center.X(), 1e-6)
	assert.InDelta(t, 0, center.Z(), 1e-6)
}

func TestPositions(t *testing.T) {
	tr := Transform{Scaling: mgl32.Vec2{100, 50}}
	pos := Positions(Projection(200, 100), tr.Matrix())
	want := []mgl32.Vec2{{-0.5, 0.5}, {-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}}
	for i := range pos {
		assertVec2(t, want[i], pos[i].Vec2())
		assert.InDelta(t, 1, pos[i].Z(), 1e-6)
	}
}

func TestQuadUVs(t *testing.T) {
	q := &Quad{UVOffset: mgl32.Vec2{16, 0}, Transform: Transform{Scaling: mgl32.Vec2{32, 32}}}
	uvs := UVs(QuadUVMatrix(q, renderer.NormalizationMatrix(64, 32)))
	assertVec2(t, mgl32.Vec2{0.25, 0}, uvs[0])
	assertVec2(t, mgl32.Vec2{0.25, 1}, uvs[1])
	assertVec2(t, mgl32.Vec2{0.75, 1}, uvs[2])
	assertVec2(t, mgl32.Vec2{0.75, 0}, uvs[3])
}

func TestAnimationUVs(t *testing.T) {
	sheet := Spritesheet{Pitch: 4, Position: mgl32.Vec2{0, 32}, FrameSize: mgl32.Vec2{16, 16}}
	uvs := UVs(AnimationUVMatrix(5, sheet, renderer.NormalizationMatrix(64, 64)))
	assertVec2(t, mgl32.Vec2{0.25, 0.75}, uvs[0])
	assertVec2(t, mgl32.Vec2{0.5, 1}, uvs[2])
}

func TestDecodeComponents(t *testing.T) {
	start := 5 * time.Second
	store, err := DecodeComponents([]byte(testComponents), start)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	quads := store.OfType(ComponentQuad)
	require.Len(t, quads, 1)
	c, err := store.Get(quads[0])
	require.NoError(t, err)
	q := c.(*Quad)
	assert.Equal(t, 1, q.TextureIndex)
	assert.Equal(t, uint16(1), q.Layer)
	assert.Equal(t, mgl32.Vec2{1024, 768}, q.Transform.Scaling)

	anims := store.OfType(ComponentAnimation2D)
	require.Len(t, anims, 1)
	c, err = store.Get(anims[0])
	require.NoError(t, err)
	a := c.(*Animation2D)
	assert.Equal(t, start, a.StartTime)
	require.Len(t, a.Animations, 2)
	assert.Equal(t, AnimationBounce, a.Animations[1].Type)
	assert.Equal(t, []uint16{0, 1, 2, 3}, a.Animations[0].Frames)
	assert.Equal(t, Movement{DeltaTranslate: mgl32.Vec2{4, 1}, DeltaRotation: 0.5, DeltaScale: mgl32.Vec2{2, 0}}, a.Movement)
}

func TestDecodeComponentsErrors(t *testing.T) {
	cases := map[string]struct {
		doc  string
		kind error
	}{
		"unknown type": {`
[[components]]
type = "sprite"
`, core.ErrLogic},
		"current animation out of range": {`
[[components]]
type = "animation2d"
current_animation = 1
[[components.animations]]
frames = [0]
frame_length = 10
`, core.ErrIndex},
		"empty animation": {`
[[components]]
type = "animation2d"
[[components.animations]]
frames = []
frame_length = 10
`, core.ErrIndex},
		"zero frame length": {`
[[components]]
type = "animation2d"
[[components.animations]]
frames = [1]
`, core.ErrLogic},
		"unknown key": {`
[[components]]
type = "quad"
colour = "red"
`, core.ErrIO},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeComponents([]byte(tc.doc), 0)
			assert.True(t, errors.Is(err, tc.kind), "%v", err)
		})
	}
}

func TestDecodeSpritesheets(t *testing.T) {
	sheets, err := DecodeSpritesheets([]byte(testSpritesheets))
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, uint16(4), sheets[0].Pitch)
	assert.Equal(t, mgl32.Vec2{0, 32}, sheets[0].Position)

	_, err = DecodeSpritesheets([]byte(`
[[spritesheets]]
index = 2
pitch = 1
frame_size = [1.0, 1.0]
`))
	assert.True(t, errors.Is(err, core.ErrIndex))

	_, err = DecodeSpritesheets([]byte(`
[[spritesheets]]
index = 0
pitch = 0
frame_size = [1.0, 1.0]
`))
	assert.True(t, errors.Is(err, core.ErrLogic))
}

func TestComponentStore(t *testing.T) {
	store := NewComponentStore()
	a := store.Add(&Quad{TextureIndex: 0})
	b := store.Add(&Animation2D{TextureIndex: 0})
	c := store.Add(&Quad{TextureIndex: 1})

	assert.Equal(t, []containers.Handle{a, c}, store.OfType(ComponentQuad))
	assert.Equal(t, []containers.Handle{b}, store.OfType(ComponentAnimation2D))

	require.NoError(t, store.Remove(a))
	_, err := store.Get(a)
	assert.True(t, errors.Is(err, core.ErrIndex))
	assert.True(t, errors.Is(store.Remove(a), core.ErrIndex))

	// the freed slot is reused but the old handle stays dead
	d := store.Add(&Quad{TextureIndex: 2})
	assert.Equal(t, a.Index, d.Index)
	assert.NotEqual(t, a, d)
	_, err = store.Get(a)
	assert.True(t, errors.Is(err, core.ErrIndex))
	assert.Equal(t, []containers.Handle{c, d}, store.OfType(ComponentQuad))
}

func TestKeyboardResponse(t *testing.T) {
	store := NewComponentStore()
	anim := &Animation2D{
		Transform: Transform{Translation: mgl32.Vec2{0, 0}, Scaling: mgl32.Vec2{10, 10}},
		Movement:  Movement{DeltaTranslate: mgl32.Vec2{4, 1}, DeltaRotation: 0.5, DeltaScale: mgl32.Vec2{2, 0}},
	}
	quad := &Quad{Transform: Transform{Translation: mgl32.Vec2{3, 3}}}
	store.Add(anim)
	store.Add(quad)

	store.KeyboardResponse(core.KEY_RIGHT)
	assert.Equal(t, mgl32.Vec2{4, 1}, anim.Transform.Translation)
	assert.Equal(t, float32(0.5), anim.Transform.Rotation)
	assert.Equal(t, mgl32.Vec2{12, 10}, anim.Transform.Scaling)

	store.KeyboardResponse(core.KEY_LEFT)
	store.KeyboardResponse(core.KEY_LEFT)
	assert.Equal(t, mgl32.Vec2{-4, -1}, anim.Transform.Translation)
	assert.Equal(t, float32(-0.5), anim.Transform.Rotation)
	assert.Equal(t, mgl32.Vec2{8, 10}, anim.Transform.Scaling)

	store.KeyboardResponse(core.KEY_SPACE)
	assert.Equal(t, mgl32.Vec2{-4, -1}, anim.Transform.Translation)
	assert.Equal(t, mgl32.Vec2{3, 3}, quad.Transform.Translation)
}

type fakeRenderer struct {
	textures []*renderer.Texture
	extent   hal.Extent2D
	vertices []renderer.Vertex
	ranges   []renderer.DrawRange
	frames   int
	err      error
}

func (f *fakeRenderer) RenderFrame(vertices []renderer.Vertex, ranges []renderer.DrawRange) error {
	f.frames++
	f.vertices = append([]renderer.Vertex(nil), vertices...)
	f.ranges = append([]renderer.DrawRange(nil), ranges...)
	return f.err
}

func (f *fakeRenderer) Extent() hal.Extent2D { return f.extent }
func (f *fakeRenderer) Textures() []*renderer.Texture { return f.textures }

func newFakeRenderer(sizes ...int) *fakeRenderer {
	f := &fakeRenderer{extent: hal.Extent2D{Width: 200, Height: 100}}
	for i, s := range sizes {
		f.textures = append(f.textures, renderer.NewTexture(i, "t.png", image.NewRGBA(image.Rect(0, 0, s, s))))
	}
	return f
}

func TestDrawingSystemGroupsByTexture(t *testing.T) {
	store := NewComponentStore()
	store.Add(&Animation2D{
		TextureIndex: 0,
		Animations:   []Animation{{Frames: []uint16{0}, FrameLength: 10}},
		Transform:    Transform{Scaling: mgl32.Vec2{16, 16}},
	})
	store.Add(&Quad{TextureIndex: 2, Transform: Transform{Scaling: mgl32.Vec2{8, 8}}})
	store.Add(&Quad{TextureIndex: 0, Transform: Transform{Scaling: mgl32.Vec2{200, 100}}})
	sheets := []Spritesheet{{Pitch: 1, FrameSize: mgl32.Vec2{16, 16}}}

	r := newFakeRenderer(64, 64, 64)
	d, err := NewDrawingSystem(store, sheets, r)
	require.NoError(t, err)

	require.NoError(t, d.DrawFrame(0))
	assert.Equal(t, 1, r.frames)
	require.Len(t, r.vertices, 3*renderer.VerticesPerQuad)
	assert.Equal(t, []renderer.DrawRange{{Start: 0, End: 12}, {Start: 12, End: 12}, {Start: 12, End: 18}}, r.ranges)

	// the full screen quad comes first within texture 0
	assertVec2(t, mgl32.Vec2{-1, 1}, r.vertices[0].Position.Vec2())
	assertVec2(t, mgl32.Vec2{1, -1}, r.vertices[2].Position.Vec2())
	for _, v := range r.vertices {
		assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, v.Color)
	}
	// animation frame 0 covers the top left 16x16 texels
	assertVec2(t, mgl32.Vec2{0.25, 0.25}, r.vertices[6].UV)
}

func TestDrawingSystemAdvancesAnimation(t *testing.T) {
	store := NewComponentStore()
	store.Add(&Animation2D{
		Animations: []Animation{{Frames: []uint16{0, 1}, FrameLength: 100}},
		Transform:  Transform{Scaling: mgl32.Vec2{16, 16}},
		StartTime:  time.Second,
	})
	sheets := []Spritesheet{{Pitch: 2, FrameSize: mgl32.Vec2{16, 16}}}
	d, err := NewDrawingSystem(store, sheets, newFakeRenderer(32))
	require.NoError(t, err)

	vertices, _, err := d.Gather(time.Second + 50*time.Millisecond)
	require.NoError(t, err)
	assertVec2(t, mgl32.Vec2{0, 0}, vertices[0].UV)

	vertices, _, err = d.Gather(time.Second + 150*time.Millisecond)
	require.NoError(t, err)
	assertVec2(t, mgl32.Vec2{0.5, 0}, vertices[0].UV)
}

func TestDrawingSystemRejectsBadIndices(t *testing.T) {
	store := NewComponentStore()
	store.Add(&Quad{TextureIndex: 3})
	_, err := NewDrawingSystem(store, nil, newFakeRenderer(8))
	assert.True(t, errors.Is(err, core.ErrIndex))

	store = NewComponentStore()
	store.Add(&Animation2D{SpritesheetIndex: 1, Animations: []Animation{{Frames: []uint16{0}, FrameLength: 1}}})
	_, err = NewDrawingSystem(store, []Spritesheet{{Pitch: 1}}, newFakeRenderer(8))
	assert.True(t, errors.Is(err, core.ErrIndex))

	// components added after construction are checked every frame
	store = NewComponentStore()
	r := newFakeRenderer(8)
	d, err := NewDrawingSystem(store, nil, r)
	require.NoError(t, err)
	store.Add(&Quad{TextureIndex: 1})
	assert.True(t, errors.Is(d.DrawFrame(0), core.ErrIndex))
	assert.Zero(t, r.frames)
}

func TestDrawingSystemPropagatesRenderErrors(t *testing.T) {
	store := NewComponentStore()
	store.Add(&Quad{Transform: Transform{Scaling: mgl32.Vec2{1, 1}}})
	r := newFakeRenderer(8)
	r.err = core.Errorf(core.ErrPresent, "surface lost")
	d, err := NewDrawingSystem(store, nil, r)
	require.NoError(t, err)
	assert.True(t, errors.Is(d.DrawFrame(0), core.ErrPresent))
}
