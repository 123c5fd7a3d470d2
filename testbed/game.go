package testbed

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"

	"github.com/spaghettifunk/rendermatic/engine"
	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/scene"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	width  uint32
	height uint32

	labelQuad *scene.Quad
	sprite    *scene.Animation2D
}

func NewTestGame() *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				StartPosX:   100,
				StartPosY:   100,
				StartWidth:  1024,
				StartHeight: 768,
				Name:        "rendermatic testbed",
				LogLevel:    core.DebugLevel,
				ConfigPath:  "config.toml",
				Validation:  true,
			},
			State: &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Initialize(world *engine.World) error {
	core.LogDebug("TestGame Initialize fn....")
	state := g.State.(*gameState)

	for _, h := range world.Components.OfType(scene.ComponentAnimation2D) {
		c, err := world.Components.Get(h)
		if err != nil {
			return err
		}
		state.sprite = c.(*scene.Animation2D)
		break
	}

	if len(world.Fonts) == 0 {
		core.LogWarn("no fonts in the manifest, skipping the label")
		return nil
	}
	label, err := world.AddText("rendermatic", 0, [4]float32{1, 1, 1, 1}, 32)
	if err != nil {
		return err
	}
	tex := world.Textures[label]
	state.labelQuad = &scene.Quad{
		TextureIndex: label,
		Transform: scene.Transform{
			Scaling: mgl32.Vec2{float32(tex.Width), float32(tex.Height)},
		},
	}
	world.Components.Add(state.labelQuad)
	return nil
}

func (g *TestGame) Update(world *engine.World, deltaTime float64) error {
	state := g.State.(*gameState)
	if state.sprite == nil {
		return nil
	}

	// Space cycles through the sprite's animations.
	if core.InputIsKeyDown(core.KEY_SPACE) && !core.InputWasKeyDown(core.KEY_SPACE) {
		next := (state.sprite.CurrentAnimation + 1) % len(state.sprite.Animations)
		state.sprite.Play(next, hrtime.Now())
		core.LogDebug("animation %d (%s)", next, state.sprite.Animations[next].Type)
	}
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height

	// Keep the label at the top of the window.
	if state.labelQuad != nil {
		state.labelQuad.Transform.Translation = mgl32.Vec2{0, -float32(height)/2 + state.labelQuad.Transform.Scaling.Y()}
	}
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("testbed shut down after %d frames", core.MetricsTotalFrames())
	return nil
}
