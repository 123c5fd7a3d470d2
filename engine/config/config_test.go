package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rendermatic/engine/core"
)

func TestMissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	w, h := cfg.WindowSize()
	assert.Equal(t, uint32(1024), w)
	assert.Equal(t, uint32(768), h)
	assert.Equal(t, core.InfoLevel, cfg.LogLevel())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[graphics.window]
size = { x = 800.0, y = 600.0 }
title = "demo"

[log]
level = "warn"

[assets]
dir = "/opt/game"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	w, h := cfg.WindowSize()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)
	assert.Equal(t, "demo", cfg.Graphics.Window.Title)
	assert.Equal(t, core.WarnLevel, cfg.LogLevel())
	// untouched keys keep their defaults
	assert.Equal(t, "resources.toml", cfg.Assets.Manifest)
	assert.Equal(t, filepath.Join("/opt/game", "resources.toml"), cfg.AssetPath(cfg.Assets.Manifest))
}

func TestUnknownKeysAreRejected(t *testing.T) {
	err := Decode([]byte("[graphics.window]\nfullscreen = true\n"), Default())
	assert.Error(t, err)
}

func TestMalformedFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[graphics\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestZeroWindowSizeIsRejected(t *testing.T) {
	err := Decode([]byte("[graphics.window]\nsize = { x = 0.0, y = 10.0 }\n"), Default())
	assert.Error(t, err)
}
