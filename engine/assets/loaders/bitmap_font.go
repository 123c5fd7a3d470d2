package loaders

import (
	"image"
	"os"
	"path/filepath"

	"github.com/fzipp/bmfont"
	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/spaghettifunk/rendermatic/engine/core"
)

// BitmapFont is an AngelCode .fnt font with its page sheets loaded.
type BitmapFont struct {
	Face       string
	Size       int
	LineHeight int
	Base       int
	glyphs     map[rune]bitmapGlyph
	pages      map[int]image.Image
}

type bitmapGlyph struct {
	bounds  image.Rectangle
	offset  image.Point
	advance int
	page    int
}

type BitmapFontLoader struct{}

func (fl *BitmapFontLoader) Load(path string, params interface{}) (*Resource, error) {
	bf, err := LoadBitmapFont(path)
	if err != nil {
		return nil, err
	}
	return &Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		Type:     ResourceTypeBitmapFont,
		DataSize: uint64(len(bf.glyphs)),
		Data:     bf,
	}, nil
}

func (fl *BitmapFontLoader) Unload(res *Resource) error {
	if bf, ok := res.Data.(*BitmapFont); ok {
		bf.glyphs = nil
		bf.pages = nil
	}
	res.Data = nil
	res.DataSize = 0
	return nil
}

func LoadBitmapFont(path string) (*BitmapFont, error) {
	f, err := bmfont.Load(path)
	if err != nil {
		return nil, core.Wrapf(err, core.ErrIO, "loading bitmap font %s", path)
	}

	d := f.Descriptor
	bf := &BitmapFont{
		Face:       d.Info.Face,
		Size:       int(d.Info.Size),
		LineHeight: int(d.Common.LineHeight),
		Base:       int(d.Common.Base),
		glyphs:     make(map[rune]bitmapGlyph, len(d.Chars)),
		pages:      make(map[int]image.Image, len(d.Pages)),
	}
	for _, p := range d.Pages {
		img, err := loadPage(filepath.Join(filepath.Dir(path), p.File))
		if err != nil {
			return nil, err
		}
		bf.pages[int(p.ID)] = img
	}
	for _, g := range d.Chars {
		x, y := int(g.X), int(g.Y)
		bf.glyphs[rune(g.ID)] = bitmapGlyph{
			bounds:  image.Rect(x, y, x+int(g.Width), y+int(g.Height)),
			offset:  image.Pt(int(g.XOffset), int(g.YOffset)),
			advance: int(g.XAdvance),
			page:    int(g.Page),
		}
	}
	core.LogDebug("loaded bitmap font %s (%s, %d glyphs)", path, bf.Face, len(bf.glyphs))
	return bf, nil
}

func loadPage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.Wrapf(err, core.ErrIO, "opening font page %s", path)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, core.Wrapf(err, core.ErrImage, "decoding font page %s", path)
	}
	return img, nil
}

// Advance is the width of text laid out on one line. Runes missing from the
// font take no space.
func (bf *BitmapFont) Advance(text string) int {
	w := 0
	for _, r := range text {
		w += bf.glyphs[r].advance
	}
	return w
}

// RenderBitmapText draws text with a bitmap font in one line of the font's
// line height, using the page sheets' alpha as coverage.
func RenderBitmapText(text string, bf *BitmapFont, color [4]float32) (*TextImage, error) {
	if bf == nil || bf.glyphs == nil {
		return nil, core.Errorf(core.ErrLogic, "rendering %q without a font", text)
	}
	width := bf.Advance(text)
	if width <= 0 || bf.LineHeight <= 0 {
		return nil, core.Errorf(core.ErrNoGlyphs, "text %q has an empty layout", text)
	}

	mask := image.NewAlpha(image.Rect(0, 0, width, bf.LineHeight))
	pen := 0
	for _, r := range text {
		g, ok := bf.glyphs[r]
		if !ok {
			continue
		}
		if page, ok := bf.pages[g.page]; ok && !g.bounds.Empty() {
			dst := g.bounds.Sub(g.bounds.Min).Add(image.Pt(pen, 0).Add(g.offset))
			draw.Draw(mask, dst, page, g.bounds.Min, draw.Over)
		}
		pen += g.advance
	}

	pixels, covered := colorize(mask, color)
	if !covered {
		return nil, core.Errorf(core.ErrNoGlyphs, "text %q has no visible glyphs", text)
	}
	return &TextImage{Name: uuid.NewString(), Text: text, Pixels: pixels}, nil
}
