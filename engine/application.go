package engine

import "github.com/spaghettifunk/rendermatic/engine/core"

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32
	// Window starting position y axis, if applicable.
	StartPosY uint32
	// Window starting width. Overridden by config.toml when it sets one.
	StartWidth uint32
	// Window starting height. Overridden by config.toml when it sets one.
	StartHeight uint32
	// The application name used in windowing, if applicable.
	Name string
	// Used until config.toml is read.
	LogLevel core.LogLevel
	// Path to config.toml.
	ConfigPath string
	// Enables the Vulkan validation layer.
	Validation bool
}
