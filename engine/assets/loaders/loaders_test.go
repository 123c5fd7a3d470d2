package loaders

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/spaghettifunk/rendermatic/engine/core"
)

func goRegular(t *testing.T) *opentype.Font {
	t.Helper()
	f, err := ParseFont(goregular.TTF)
	require.NoError(t, err)
	return f
}

func writePNG(t *testing.T, path string, w, h int, c color.RGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestRenderText(t *testing.T) {
	f := goRegular(t)
	col := [4]float32{1, 0.5, 0, 0.5}

	out, err := RenderText("Hi", f, col, 32)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Name)
	assert.Equal(t, "Hi", out.Text)

	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: 32, DPI: 72, Hinting: font.HintingFull})
	require.NoError(t, err)
	defer face.Close()
	b := out.Pixels.Bounds()
	assert.Equal(t, font.MeasureString(face, "Hi").Ceil(), b.Dx())
	assert.Equal(t, 32, b.Dy())

	drawn := 0
	for i := 0; i < len(out.Pixels.Pix); i += 4 {
		px := out.Pixels.Pix[i : i+4]
		if px[3] == 0 {
			assert.Equal(t, []uint8{0, 0, 0, 0}, px)
			continue
		}
		drawn++
		assert.Equal(t, []uint8{255, 128, 0}, px[:3])
		assert.LessOrEqual(t, px[3], uint8(128))
	}
	assert.Positive(t, drawn)
}

func TestRenderTextCoverage(t *testing.T) {
	out, err := RenderText("H", goRegular(t), [4]float32{1, 1, 1, 1}, 32)
	require.NoError(t, err)

	var maxAlpha uint8
	for i := 3; i < len(out.Pixels.Pix); i += 4 {
		if out.Pixels.Pix[i] > maxAlpha {
			maxAlpha = out.Pixels.Pix[i]
		}
	}
	assert.Equal(t, uint8(255), maxAlpha)
}

func TestRenderTextNoGlyphs(t *testing.T) {
	f := goRegular(t)
	for _, text := range []string{"", "   "} {
		_, err := RenderText(text, f, [4]float32{1, 1, 1, 1}, 24)
		assert.True(t, errors.Is(err, core.ErrNoGlyphs), "%q: %v", text, err)
	}

	_, err := RenderText("x", f, [4]float32{1, 1, 1, 1}, 0)
	assert.True(t, errors.Is(err, core.ErrNoGlyphs))

	_, err = RenderText("x", nil, [4]float32{1, 1, 1, 1}, 24)
	assert.True(t, errors.Is(err, core.ErrLogic))
}

func TestRenderTextNamesAreUnique(t *testing.T) {
	f := goRegular(t)
	a, err := RenderText("a", f, [4]float32{1, 1, 1, 1}, 16)
	require.NoError(t, err)
	b, err := RenderText("a", f, [4]float32{1, 1, 1, 1}, 16)
	require.NoError(t, err)
	assert.NotEqual(t, a.Name, b.Name)
}

func TestColorize(t *testing.T) {
	mask := image.NewAlpha(image.Rect(0, 0, 2, 1))
	mask.SetAlpha(1, 0, color.Alpha{A: 200})

	out, covered := colorize(mask, [4]float32{0, 1, 2, 0.5})
	require.True(t, covered)
	assert.Equal(t, []uint8{0, 0, 0, 0}, out.Pix[0:4])
	// color channels are clamped to [0,1]
	assert.Equal(t, []uint8{0, 255, 255, 100}, out.Pix[4:8])

	_, covered = colorize(image.NewAlpha(image.Rect(0, 0, 3, 3)), [4]float32{1, 1, 1, 1})
	assert.False(t, covered)
}

func TestImageLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "red.png")
	writePNG(t, path, 8, 4, color.RGBA{R: 255, A: 255})

	il := &ImageLoader{}
	res, err := il.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ResourceTypeImage, res.Type)
	assert.Equal(t, "red.png", res.Name)

	rgba, ok := res.Data.(*image.RGBA)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 8, 4), rgba.Bounds())
	assert.Equal(t, uint64(8*4*4), res.DataSize)
	assert.Equal(t, []uint8{255, 0, 0, 255}, rgba.Pix[0:4])

	res, err = il.Load(path, &ImageParams{Size: image.Pt(16, 8)})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 8), res.Data.(*image.RGBA).Bounds())

	require.NoError(t, il.Unload(res))
	assert.Nil(t, res.Data)
}

func TestImageLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	il := &ImageLoader{}

	_, err := il.Load(filepath.Join(dir, "missing.png"), nil)
	assert.True(t, errors.Is(err, core.ErrIO))

	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))
	_, err = il.Load(garbage, nil)
	assert.True(t, errors.Is(err, core.ErrImage))
}

func TestToRGBAMovesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 14, 12))
	src.SetRGBA(10, 10, color.RGBA{G: 255, A: 255})

	dst := ToRGBA(src, image.Point{})
	assert.Equal(t, image.Rect(0, 0, 4, 2), dst.Bounds())
	assert.Equal(t, []uint8{0, 255, 0, 255}, dst.Pix[0:4])

	packed := image.NewRGBA(image.Rect(0, 0, 4, 4))
	assert.Same(t, packed, ToRGBA(packed, image.Pt(4, 4)))
}

func spirv(words ...uint32) []byte {
	b := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[4*i:], w)
	}
	return b
}

func TestValidateSPIRV(t *testing.T) {
	assert.NoError(t, ValidateSPIRV(spirv(spirvMagic, 0x00010000, 0, 1, 0)))
	assert.True(t, errors.Is(ValidateSPIRV(nil), core.ErrCreation))
	assert.True(t, errors.Is(ValidateSPIRV([]byte{0x03, 0x02, 0x23, 0x07, 0x00}), core.ErrCreation))
	assert.True(t, errors.Is(ValidateSPIRV(spirv(0xdeadbeef)), core.ErrCreation))
}

func TestBinaryLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shader.vert.spv")
	require.NoError(t, os.WriteFile(path, spirv(spirvMagic, 0x00010000), 0o644))

	bl := &BinaryLoader{}
	res, err := bl.Load(path, map[string]string{"name": "vertex"})
	require.NoError(t, err)
	assert.Equal(t, "vertex", res.Name)
	assert.Equal(t, ResourceTypeShader, res.Type)
	assert.Equal(t, uint64(8), res.DataSize)

	bad := filepath.Join(dir, "bad.spv")
	require.NoError(t, os.WriteFile(bad, []byte("glsl"), 0o644))
	_, err = bl.Load(bad, nil)
	assert.True(t, errors.Is(err, core.ErrCreation))
}

func TestSystemFontLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "goregular.ttf")
	require.NoError(t, os.WriteFile(path, goregular.TTF, 0o644))

	res, err := (&SystemFontLoader{}).Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ResourceTypeFont, res.Type)
	assert.IsType(t, &opentype.Font{}, res.Data)

	_, err = ParseFont([]byte("definitely not a font"))
	assert.True(t, errors.Is(err, core.ErrIO))
}

func testBitmapFont() *BitmapFont {
	page := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 6; y++ {
		for x := 0; x < 4; x++ {
			page.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	return &BitmapFont{
		Face:       "test",
		Size:       8,
		LineHeight: 8,
		Base:       6,
		glyphs: map[rune]bitmapGlyph{
			'A': {bounds: image.Rect(0, 0, 4, 6), offset: image.Pt(0, 1), advance: 5},
			'B': {bounds: image.Rect(4, 0, 8, 6), advance: 5},
			' ': {advance: 3},
		},
		pages: map[int]image.Image{0: page},
	}
}

func TestRenderBitmapText(t *testing.T) {
	bf := testBitmapFont()
	assert.Equal(t, 13, bf.Advance("A B"))
	assert.Equal(t, 5, bf.Advance("A?"))

	img, err := RenderBitmapText("AB", bf, [4]float32{1, 0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 8), img.Pixels.Bounds())
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.Pixels.RGBAAt(1, 2))
	// glyph offset leaves the first row empty
	assert.Equal(t, color.RGBA{}, img.Pixels.RGBAAt(1, 0))
	// 'B' is transparent in the page
	assert.Equal(t, color.RGBA{}, img.Pixels.RGBAAt(6, 2))
}

func TestRenderBitmapTextErrors(t *testing.T) {
	bf := testBitmapFont()

	_, err := RenderBitmapText("A", nil, [4]float32{1, 1, 1, 1})
	assert.True(t, errors.Is(err, core.ErrLogic))

	_, err = RenderBitmapText("??", bf, [4]float32{1, 1, 1, 1})
	assert.True(t, errors.Is(err, core.ErrNoGlyphs))

	_, err = RenderBitmapText("B ", bf, [4]float32{1, 1, 1, 1})
	assert.True(t, errors.Is(err, core.ErrNoGlyphs))
}
