package engine

import (
	"image"

	"golang.org/x/image/font/opentype"

	"github.com/spaghettifunk/rendermatic/engine/assets"
	"github.com/spaghettifunk/rendermatic/engine/assets/loaders"
	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer"
	"github.com/spaghettifunk/rendermatic/engine/scene"
)

// World is the game data the engine loaded at startup.
type World struct {
	Textures     []*renderer.Texture
	Fonts        []*loaders.Resource
	Components   *scene.ComponentStore
	Spritesheets []scene.Spritesheet

	sealed bool
}

// AddTexture appends a texture and returns its index. Textures can only be
// added before the renderer starts.
func (w *World) AddTexture(name string, pixels *image.RGBA) (int, error) {
	if w.sealed {
		return 0, core.Errorf(core.ErrLogic, "texture %s added after the renderer started", name)
	}
	index := len(w.Textures)
	w.Textures = append(w.Textures, renderer.NewTexture(index, name, pixels))
	return index, nil
}

// AddText renders text with font and adds it as a texture. Both outline and
// bitmap fonts are accepted.
func (w *World) AddText(text string, font int, color [4]float32, height uint32) (int, error) {
	if w.sealed {
		return 0, core.Errorf(core.ErrLogic, "text %q added after the renderer started", text)
	}
	if font < 0 || font >= len(w.Fonts) {
		return 0, core.Errorf(core.ErrIndex, "font %d of %d", font, len(w.Fonts))
	}

	var (
		img *loaders.TextImage
		err error
	)
	switch f := w.Fonts[font].Data.(type) {
	case *opentype.Font:
		img, err = loaders.RenderText(text, f, color, height)
	case *loaders.BitmapFont:
		img, err = loaders.RenderBitmapText(text, f, color)
	default:
		return 0, core.Errorf(core.ErrLogic, "font %d is a %T", font, f)
	}
	if err != nil {
		return 0, err
	}
	index := len(w.Textures)
	w.Textures = append(w.Textures, assets.TextTexture(index, img))
	return index, nil
}
