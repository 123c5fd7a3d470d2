package scene

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

// FrameRenderer is the part of *renderer.Renderer the DrawingSystem drives.
type FrameRenderer interface {
	RenderFrame(vertices []renderer.Vertex, ranges []renderer.DrawRange) error
	Extent() hal.Extent2D
	Textures() []*renderer.Texture
}

var _ FrameRenderer = (*renderer.Renderer)(nil)

// DrawingSystem turns the drawable components into one vertex list per frame.
// Quads are grouped by texture so draw range i uses texture i; within a
// group Quad components come before Animation2D ones.
type DrawingSystem struct {
	store    *ComponentStore
	sheets   []Spritesheet
	renderer FrameRenderer

	vertices []renderer.Vertex
	counts   []int
}

func NewDrawingSystem(store *ComponentStore, sheets []Spritesheet, r FrameRenderer) (*DrawingSystem, error) {
	d := &DrawingSystem{
		store:    store,
		sheets:   sheets,
		renderer: r,
		vertices: make([]renderer.Vertex, 0, renderer.MaxQuads*renderer.VerticesPerQuad),
	}
	for _, t := range []ComponentType{ComponentQuad, ComponentAnimation2D} {
		for _, h := range store.OfType(t) {
			c, err := store.Get(h)
			if err != nil {
				return nil, err
			}
			if err := d.check(c); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

func (d *DrawingSystem) check(c ComponentData) error {
	textures := len(d.renderer.Textures())
	if c.Texture() < 0 || c.Texture() >= textures {
		return core.Errorf(core.ErrIndex, "%s component uses texture %d of %d", c.Type(), c.Texture(), textures)
	}
	if a, ok := c.(*Animation2D); ok {
		if a.SpritesheetIndex < 0 || a.SpritesheetIndex >= len(d.sheets) {
			return core.Errorf(core.ErrIndex, "animation uses spritesheet %d of %d", a.SpritesheetIndex, len(d.sheets))
		}
		if a.CurrentAnimation < 0 || a.CurrentAnimation >= len(a.Animations) {
			return core.Errorf(core.ErrIndex, "current animation %d of %d", a.CurrentAnimation, len(a.Animations))
		}
	}
	return nil
}

// Gather builds the vertices and draw ranges for the frame at now, an
// hrtime reading.
func (d *DrawingSystem) Gather(now time.Duration) ([]renderer.Vertex, []renderer.DrawRange, error) {
	textures := d.renderer.Textures()
	extent := d.renderer.Extent()
	projection := Projection(float32(extent.Width), float32(extent.Height))

	var drawables []ComponentData
	for _, t := range []ComponentType{ComponentQuad, ComponentAnimation2D} {
		for _, h := range d.store.OfType(t) {
			c, err := d.store.Get(h)
			if err != nil {
				return nil, nil, err
			}
			if err := d.check(c); err != nil {
				return nil, nil, err
			}
			drawables = append(drawables, c)
		}
	}

	d.vertices = d.vertices[:0]
	d.counts = d.counts[:0]
	for i, tex := range textures {
		n := 0
		for _, c := range drawables {
			if c.Texture() != i {
				continue
			}
			positions := Positions(projection, c.transform().Matrix())
			quad := QuadData(positions, UVs(d.uvMatrix(c, tex.Normalization, now)))
			d.vertices = append(d.vertices, quad[:]...)
			n++
		}
		d.counts = append(d.counts, n)
	}
	return d.vertices, renderer.DrawRanges(d.counts), nil
}

func (d *DrawingSystem) uvMatrix(c ComponentData, normalization mgl32.Mat3, now time.Duration) mgl32.Mat3 {
	switch c := c.(type) {
	case *Quad:
		return QuadUVMatrix(c, normalization)
	case *Animation2D:
		anim := c.Animations[c.CurrentAnimation]
		frame := anim.Frame(now - c.StartTime)
		return AnimationUVMatrix(frame, d.sheets[c.SpritesheetIndex], normalization)
	}
	return normalization
}

func (d *DrawingSystem) DrawFrame(now time.Duration) error {
	vertices, ranges, err := d.Gather(now)
	if err != nil {
		return errors.Wrap(err, "gathering quads")
	}
	return d.renderer.RenderFrame(vertices, ranges)
}
