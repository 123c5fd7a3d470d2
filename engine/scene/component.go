// Package scene holds the drawable game data: components, spritesheets and
// the system that turns them into vertices every frame.
package scene

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

type ComponentType uint8

const (
	ComponentQuad ComponentType = iota
	ComponentAnimation2D
)

func (t ComponentType) String() string {
	switch t {
	case ComponentQuad:
		return "quad"
	case ComponentAnimation2D:
		return "animation2d"
	}
	return "unknown"
}

// ComponentData is implemented by *Quad and *Animation2D only.
type ComponentData interface {
	Type() ComponentType
	Texture() int
	transform() Transform
}

// Transform places a unit quad in the world. Translation is in pixels from
// the center of the window and Scaling is the size in pixels.
type Transform struct {
	Translation mgl32.Vec2 `toml:"translation"`
	Scaling     mgl32.Vec2 `toml:"scaling"`
	Rotation    float32    `toml:"rotation"`
}

func (t Transform) TranslationMatrix() mgl32.Mat3 {
	return mgl32.Translate2D(t.Translation.X(), t.Translation.Y())
}

func (t Transform) RotationMatrix() mgl32.Mat3 {
	return mgl32.HomogRotate2D(t.Rotation)
}

func (t Transform) ScalingMatrix() mgl32.Mat3 {
	return mgl32.Scale2D(t.Scaling.X(), t.Scaling.Y())
}

// Matrix is translation * rotation * scaling.
func (t Transform) Matrix() mgl32.Mat3 {
	return t.TranslationMatrix().Mul3(t.RotationMatrix()).Mul3(t.ScalingMatrix())
}

// Movement is applied to a Transform once per arrow key press.
type Movement struct {
	DeltaTranslate mgl32.Vec2 `toml:"delta_translate"`
	DeltaRotation  float32    `toml:"delta_rotation"`
	DeltaScale     mgl32.Vec2 `toml:"delta_scale"`
}

// Quad is a plain textured quad.
type Quad struct {
	TextureIndex int
	Transform    Transform
	// Texel of the texture attached to the quad's top left corner.
	UVOffset mgl32.Vec2
	Layer    uint16
}

func (q *Quad) Type() ComponentType { return ComponentQuad }
func (q *Quad) Texture() int { return q.TextureIndex }
func (q *Quad) transform() Transform { return q.Transform }

// Animation2D is a quad showing frames of a spritesheet over time.
type Animation2D struct {
	TextureIndex     int
	SpritesheetIndex int
	// Higher layers are further from the camera.
	Layer            uint16
	Animations       []Animation
	CurrentAnimation int
	Transform        Transform
	// hrtime reading taken when the current animation started.
	StartTime time.Duration
	Movement  Movement
}

func (a *Animation2D) Type() ComponentType { return ComponentAnimation2D }
func (a *Animation2D) Texture() int { return a.TextureIndex }
func (a *Animation2D) transform() Transform { return a.Transform }

// Play switches to animation i and restarts it at now.
func (a *Animation2D) Play(i int, now time.Duration) bool {
	if i < 0 || i >= len(a.Animations) {
		return false
	}
	a.CurrentAnimation = i
	a.StartTime = now
	return true
}

// Move applies the movement deltas scaled by sign, +1 or -1.
func (a *Animation2D) Move(sign float32) {
	a.Transform.Translation = a.Transform.Translation.Add(a.Movement.DeltaTranslate.Mul(sign))
	a.Transform.Rotation += sign * a.Movement.DeltaRotation
	a.Transform.Scaling = a.Transform.Scaling.Add(a.Movement.DeltaScale.Mul(sign))
}
