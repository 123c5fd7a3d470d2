package assets

import (
	"bytes"
	"context"
	"image"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/sync/errgroup"

	"github.com/spaghettifunk/rendermatic/engine/assets/loaders"
	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer"
)

// decodeWorkers bounds the number of images decoded at once.
const decodeWorkers = 4

type Size struct {
	X uint32 `toml:"x"`
	Y uint32 `toml:"y"`
}

type TextureEntry struct {
	Index int    `toml:"index"`
	File  string `toml:"file"`
	// Texels. Zero keeps the decoded size.
	Size Size `toml:"size"`
}

type FontEntry struct {
	Index int    `toml:"index"`
	File  string `toml:"file"`
}

// Manifest lists the media the game needs. Entry i must carry index i since
// components refer to textures and fonts by position.
type Manifest struct {
	Textures []TextureEntry `toml:"textures"`
	Fonts    []FontEntry    `toml:"fonts"`
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.Wrapf(err, core.ErrIO, "reading manifest %s", path)
	}
	m, err := DecodeManifest(data)
	if err != nil {
		return nil, errors.Wrapf(err, "manifest %s", path)
	}
	return m, nil
}

func DecodeManifest(data []byte) (*Manifest, error) {
	m := &Manifest{}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(m); err != nil {
		return nil, core.Wrapf(err, core.ErrIO, "decoding manifest")
	}
	for i, t := range m.Textures {
		if t.Index != i {
			return nil, core.Errorf(core.ErrIndex, "texture %s has index %d at position %d", t.File, t.Index, i)
		}
		if t.File == "" {
			return nil, core.Errorf(core.ErrIO, "texture %d has no file", i)
		}
	}
	for i, f := range m.Fonts {
		if f.Index != i {
			return nil, core.Errorf(core.ErrIndex, "font %s has index %d at position %d", f.File, f.Index, i)
		}
	}
	return m, nil
}

// LoadTextures decodes every texture of the manifest concurrently and
// returns them ordered by index.
func (am *AssetManager) LoadTextures(ctx context.Context, m *Manifest) ([]*renderer.Texture, error) {
	textures := make([]*renderer.Texture, len(m.Textures))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(decodeWorkers)
	for i, entry := range m.Textures {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			params := &loaders.ImageParams{Size: image.Pt(int(entry.Size.X), int(entry.Size.Y))}
			res, err := am.LoadAsset(entry.File, params)
			if err != nil {
				return errors.Wrapf(err, "texture %d", entry.Index)
			}
			pixels, ok := res.Data.(*image.RGBA)
			if !ok {
				return core.Errorf(core.ErrImage, "texture %d: %s is not an image", entry.Index, entry.File)
			}
			textures[i] = renderer.NewTexture(entry.Index, res.FullPath, pixels)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, t := range textures {
		core.LogDebug("texture %d: %s (%dx%d)", t.Index, t.Path, t.Width, t.Height)
	}
	return textures, nil
}

// LoadFonts loads every font of the manifest, ordered by index. Data is an
// *opentype.Font or a *loaders.BitmapFont depending on the file type.
func (am *AssetManager) LoadFonts(m *Manifest) ([]*loaders.Resource, error) {
	fonts := make([]*loaders.Resource, 0, len(m.Fonts))
	for _, entry := range m.Fonts {
		res, err := am.LoadAsset(entry.File, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "font %d", entry.Index)
		}
		fonts = append(fonts, res)
	}
	return fonts, nil
}

// TextTexture wraps rendered text as a texture sampled by draw range index.
func TextTexture(index int, text *loaders.TextImage) *renderer.Texture {
	return renderer.NewTexture(index, text.Name, text.Pixels)
}
