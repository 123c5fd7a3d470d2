package loaders

import (
	"image"
	"math"

	"github.com/google/uuid"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/spaghettifunk/rendermatic/engine/containers"
	"github.com/spaghettifunk/rendermatic/engine/core"
)

// TextImage is a rendered line of text ready to be turned into a texture.
type TextImage struct {
	// Generated, so two renders of the same string never collide.
	Name   string
	Text   string
	Pixels *image.RGBA
}

// RenderText rasterizes text in a single line height pixels tall. The image
// is as wide as the advance of the laid out glyphs. Color is straight RGBA in
// [0,1]; the alpha written to each pixel is color[3] times the glyph coverage
// and pixels no glyph touches stay fully transparent.
func RenderText(text string, f *opentype.Font, color [4]float32, height uint32) (*TextImage, error) {
	if f == nil {
		return nil, core.Errorf(core.ErrLogic, "rendering %q without a font", text)
	}
	if height == 0 {
		return nil, core.Errorf(core.ErrNoGlyphs, "rendering %q at zero height", text)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(height),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, core.Wrapf(err, core.ErrCreation, "creating face for %q", text)
	}
	defer face.Close()

	width := font.MeasureString(face, text).Ceil()
	if width <= 0 {
		return nil, core.Errorf(core.ErrNoGlyphs, "text %q has an empty layout", text)
	}

	mask := image.NewAlpha(image.Rect(0, 0, width, int(height)))
	d := font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)

	pixels, covered := colorize(mask, color)
	if !covered {
		return nil, core.Errorf(core.ErrNoGlyphs, "text %q has no visible glyphs", text)
	}
	return &TextImage{Name: uuid.NewString(), Text: text, Pixels: pixels}, nil
}

// colorize turns a coverage mask into straight alpha RGBA pixels.
func colorize(mask *image.Alpha, color [4]float32) (*image.RGBA, bool) {
	var rgb [3]uint8
	for i := range rgb {
		rgb[i] = toByte(color[i])
	}
	alpha := containers.Clamp(color[3], 0, 1)

	b := mask.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	covered := false
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := mask.AlphaAt(b.Min.X+x, b.Min.Y+y).A
			if c == 0 {
				continue
			}
			covered = true
			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = rgb[0]
			dst.Pix[i+1] = rgb[1]
			dst.Pix[i+2] = rgb[2]
			dst.Pix[i+3] = uint8(math.Round(float64(alpha) * float64(c)))
		}
	}
	return dst, covered
}

func toByte(v float32) uint8 {
	return uint8(math.Round(float64(containers.Clamp(v, 0, 1)) * 255))
}
