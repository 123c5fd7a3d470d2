package engine

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"

	"github.com/spaghettifunk/rendermatic/engine/assets"
	"github.com/spaghettifunk/rendermatic/engine/assets/loaders"
	"github.com/spaghettifunk/rendermatic/engine/config"
	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/platform"
	"github.com/spaghettifunk/rendermatic/engine/renderer"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
	"github.com/spaghettifunk/rendermatic/engine/renderer/vulkan"
	"github.com/spaghettifunk/rendermatic/engine/scene"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Every resource has been released
	EngineStageShutdown
)

type Engine struct {
	currentStage Stage
	gameInstance *Game
	isRunning    bool
	isSuspended  bool
	config       *config.Config
	platform     *platform.Platform
	assetManager *assets.AssetManager
	device       *vulkan.Device
	renderer     *renderer.Renderer
	drawing      *scene.DrawingSystem
	world        *World
	width        uint32
	height       uint32
	clock        *core.Clock
	lastTime     float64
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, core.Errorf(core.ErrLogic, "game without an application config")
	}
	core.SetLogLevel(g.ApplicationConfig.LogLevel)

	am, err := assets.NewAssetManager()
	if err != nil {
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		clock:        core.NewClock(),
		platform:     platform.New(),
		assetManager: am,
		isRunning:    true,
		width:        g.ApplicationConfig.StartWidth,
		height:       g.ApplicationConfig.StartHeight,
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	app := e.gameInstance.ApplicationConfig

	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return err
	}
	e.config = cfg
	core.SetLogLevel(cfg.LogLevel())
	e.width, e.height = cfg.WindowSize()
	name := app.Name
	if cfg.Graphics.Window.Title != "" {
		name = cfg.Graphics.Window.Title
	}

	if err := core.InputInitialize(); err != nil {
		return err
	}
	if !core.EventSystemInitialize() {
		return core.Errorf(core.ErrLogic, "failed to initialize the event system")
	}
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e.onKey)
	core.EventRegister(core.EVENT_CODE_KEY_RELEASED, e.onKey)
	core.EventRegister(core.EVENT_CODE_RESIZED, e.onResized)

	if err := e.platform.Startup(name, app.StartPosX, app.StartPosY, e.width, e.height); err != nil {
		return err
	}

	if err := e.assetManager.Initialize(cfg.Assets.Dir); err != nil {
		return err
	}
	world, err := e.loadWorld()
	if err != nil {
		return err
	}
	e.world = world

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(world); err != nil {
			return errors.Wrap(err, "initializing game")
		}
	}
	world.sealed = true

	device, err := vulkan.New(e.platform, name, app.Validation)
	if err != nil {
		return err
	}
	e.device = device

	vertexShader, err := e.loadShader(cfg.Assets.VertexShader)
	if err != nil {
		return err
	}
	fragmentShader, err := e.loadShader(cfg.Assets.FragmentShader)
	if err != nil {
		return err
	}

	fbWidth, fbHeight := e.platform.FramebufferSize()
	r, err := renderer.New(device, renderer.Options{
		WindowExtent:   hal.Extent2D{Width: fbWidth, Height: fbHeight},
		VertexShader:   vertexShader,
		FragmentShader: fragmentShader,
		Textures:       world.Textures,
	})
	if err != nil {
		return err
	}
	e.renderer = r

	drawing, err := scene.NewDrawingSystem(world.Components, world.Spritesheets, r)
	if err != nil {
		return err
	}
	e.drawing = drawing

	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) loadWorld() (*World, error) {
	cfg := e.config
	profiler := core.NewProfiler("assets")

	manifest, err := assets.LoadManifest(cfg.AssetPath(cfg.Assets.Manifest))
	if err != nil {
		return nil, err
	}
	textures, err := e.assetManager.LoadTextures(context.Background(), manifest)
	if err != nil {
		return nil, err
	}
	fonts, err := e.assetManager.LoadFonts(manifest)
	if err != nil {
		return nil, err
	}
	profiler.LogTime("textures and fonts loaded")

	sheets, err := scene.LoadSpritesheets(cfg.AssetPath(cfg.Assets.Spritesheets))
	if err != nil {
		return nil, err
	}
	store, err := scene.LoadComponents(cfg.AssetPath(cfg.Assets.Components), hrtime.Now())
	if err != nil {
		return nil, err
	}
	profiler.LogTime("scene loaded")

	return &World{
		Textures:     textures,
		Fonts:        fonts,
		Components:   store,
		Spritesheets: sheets,
	}, nil
}

func (e *Engine) loadShader(rel string) ([]byte, error) {
	res, err := e.assetManager.LoadAsset(rel, nil)
	if err != nil {
		return nil, err
	}
	code, ok := res.Data.([]byte)
	if !ok || res.Type != loaders.ResourceTypeShader {
		return nil, core.Errorf(core.ErrCreation, "%s is not a compiled shader", rel)
	}
	return code, nil
}

func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return core.Errorf(core.ErrLogic, "engine run before initialization")
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Seconds()

	for e.isRunning {
		if !e.platform.PumpMessages() {
			e.isRunning = false
		}
		core.EventDispatch()
		if !e.isRunning {
			break
		}
		if e.isSuspended {
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Seconds()
		delta := currentTime - e.lastTime
		frameStart := hrtime.Now()

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(e.world, delta); err != nil {
				return errors.Wrap(err, "game update failed")
			}
		}

		if err := e.drawing.DrawFrame(hrtime.Now()); err != nil {
			if errors.Is(err, core.ErrPresent) {
				// The swap chain is never recreated, so a lost surface ends the run.
				core.LogError("presentation failed, shutting down: %s", err)
				e.isRunning = false
				break
			}
			return err
		}

		core.MetricsUpdate(hrtime.Since(frameStart))
		if total := core.MetricsTotalFrames(); total%600 == 0 {
			fps, frameTime := core.MetricsFrame()
			core.LogDebug("FPS: %5.1f (%4.1fms)", fps, frameTime)
		}

		// NOTE: Input update/state copying should always be handled
		// after any input should be recorded; I.E. before this line.
		core.InputUpdate(delta)
		e.lastTime = currentTime
	}
	return nil
}

// Shutdown releases everything Initialize created, in reverse order. It is
// safe to call after a failed Initialize.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	var errs error
	if e.renderer != nil {
		errs = errors.CombineErrors(errs, e.renderer.CleanUp())
		e.renderer = nil
	}
	if e.device != nil {
		errs = errors.CombineErrors(errs, e.device.Shutdown())
		e.device = nil
	}
	if e.gameInstance.FnShutdown != nil {
		errs = errors.CombineErrors(errs, e.gameInstance.FnShutdown())
	}
	errs = errors.CombineErrors(errs, e.assetManager.Close())
	errs = errors.CombineErrors(errs, e.platform.Shutdown())
	errs = errors.CombineErrors(errs, core.EventSystemShutdown())
	errs = errors.CombineErrors(errs, core.InputShutdown())

	e.currentStage = EngineStageShutdown
	return errs
}

// GetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

// Quit asks the run loop to stop after the current frame. Safe to call from
// any goroutine.
func (e *Engine) Quit() {
	core.EventFire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
}

func (e *Engine) onEvent(context core.EventContext) {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
	}
}

func (e *Engine) onKey(context core.EventContext) {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}
	if context.Type != core.EVENT_CODE_KEY_PRESSED {
		return
	}

	switch ke.KeyCode {
	case core.KEY_ESCAPE:
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.Quit()
	case core.KEY_LEFT, core.KEY_RIGHT:
		if e.world != nil {
			e.world.Components.KeyboardResponse(ke.KeyCode)
		}
	default:
		core.LogDebug("key %#x pressed in window.", uint16(ke.KeyCode))
	}
}

func (e *Engine) onResized(context core.EventContext) {
	re, ok := context.Data.(*core.ResizeEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}
	if re.Width == e.width && re.Height == e.height {
		return
	}
	e.width, e.height = re.Width, re.Height
	core.LogDebug("Window resize: %d, %d", re.Width, re.Height)

	// Handle minimization
	if re.Width == 0 || re.Height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(re.Width, re.Height); err != nil {
			core.LogError("game resize: %s", err)
		}
	}
}
