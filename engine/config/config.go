package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/rendermatic/engine/core"
)

type Size struct {
	X float32 `toml:"x"`
	Y float32 `toml:"y"`
}

type Window struct {
	Size  Size   `toml:"size"`
	Title string `toml:"title"`
}

type Graphics struct {
	Window Window `toml:"window"`
}

type Log struct {
	Level string `toml:"level"`
}

// Assets locates every file the engine reads at startup. Paths other than Dir
// are relative to Dir.
type Assets struct {
	Dir            string `toml:"dir"`
	Manifest       string `toml:"manifest"`
	Components     string `toml:"components"`
	Spritesheets   string `toml:"spritesheets"`
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`
}

type Config struct {
	Graphics Graphics `toml:"graphics"`
	Log      Log      `toml:"log"`
	Assets   Assets   `toml:"assets"`
}

func Default() *Config {
	return &Config{
		Graphics: Graphics{
			Window: Window{
				Size:  Size{X: 1024, Y: 768},
				Title: "rendermatic",
			},
		},
		Log: Log{Level: "info"},
		Assets: Assets{
			Dir:            "assets",
			Manifest:       "resources.toml",
			Components:     "components.toml",
			Spritesheets:   "spritesheets.toml",
			VertexShader:   "shaders/shader.vert.spv",
			FragmentShader: "shaders/shader.frag.spv",
		},
	}
}

// Load reads the configuration at path on top of Default. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			core.LogWarn("config file %s not found, using defaults", path)
			return cfg, nil
		}
		return nil, core.Wrapf(err, core.ErrIO, "reading config %s", path)
	}
	if err := Decode(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Decode unmarshals data into cfg, rejecting unknown keys.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return errors.Newf("unknown keys:\n%s", strict.String())
		}
		return errors.Wrap(err, "decoding toml")
	}
	if cfg.Graphics.Window.Size.X <= 0 || cfg.Graphics.Window.Size.Y <= 0 {
		return errors.Newf("invalid window size %vx%v", cfg.Graphics.Window.Size.X, cfg.Graphics.Window.Size.Y)
	}
	return nil
}

func (c *Config) WindowSize() (uint32, uint32) {
	return uint32(c.Graphics.Window.Size.X), uint32(c.Graphics.Window.Size.Y)
}

func (c *Config) LogLevel() core.LogLevel {
	return core.ParseLogLevel(c.Log.Level)
}

// AssetPath resolves a path relative to the asset directory.
func (c *Config) AssetPath(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Assets.Dir, rel)
}
