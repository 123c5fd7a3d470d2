package loaders

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/rendermatic/engine/core"
)

// ImageParams controls how an ImageLoader prepares the pixels.
type ImageParams struct {
	// Target size in pixels. A zero size keeps the decoded size.
	Size image.Point
}

// ImageLoader decodes png, jpeg, bmp and webp files into RGBA8 pixels.
type ImageLoader struct{}

func (il *ImageLoader) Load(path string, params interface{}) (*Resource, error) {
	var size image.Point
	if p, ok := params.(*ImageParams); ok && p != nil {
		size = p.Size
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, core.Wrapf(err, core.ErrIO, "opening image %s", path)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, core.Wrapf(err, core.ErrImage, "decoding image %s", path)
	}
	core.LogDebug("decoded %s image %s (%dx%d)", format, path, img.Bounds().Dx(), img.Bounds().Dy())

	pixels := ToRGBA(img, size)
	return &Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		Type:     ResourceTypeImage,
		DataSize: uint64(len(pixels.Pix)),
		Data:     pixels,
	}, nil
}

func (il *ImageLoader) Unload(res *Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}

// ToRGBA converts img to tightly packed RGBA8 with its origin at (0, 0).
// When size is non zero and differs from the image bounds the image is
// resampled to it.
func ToRGBA(img image.Image, size image.Point) *image.RGBA {
	b := img.Bounds()
	if size.X <= 0 || size.Y <= 0 {
		size = b.Size()
	}
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && b.Size() == size && rgba.Stride == 4*size.X {
		return rgba
	}

	dst := image.NewRGBA(image.Rectangle{Max: size})
	if b.Size() == size {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	}
	return dst
}
