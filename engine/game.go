package engine

type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

// Initialize runs once the assets are loaded and before the renderer is
// created, so textures added to the world are uploaded with the others.
type Initialize func(world *World) error
type Update func(world *World, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
