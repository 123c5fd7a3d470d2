package loaders

import (
	"os"
	"path/filepath"

	"golang.org/x/image/font/opentype"

	"github.com/spaghettifunk/rendermatic/engine/core"
)

// SystemFontLoader parses TrueType and OpenType fonts. For collections the
// first face is used.
type SystemFontLoader struct{}

func (fl *SystemFontLoader) Load(path string, params interface{}) (*Resource, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, core.Wrapf(err, core.ErrIO, "reading font %s", path)
	}
	f, err := ParseFont(fontBytes)
	if err != nil {
		return nil, core.Wrapf(err, core.ErrIO, "font %s", path)
	}
	return &Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		Type:     ResourceTypeFont,
		DataSize: uint64(len(fontBytes)),
		Data:     f,
	}, nil
}

func (fl *SystemFontLoader) Unload(res *Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}

func ParseFont(b []byte) (*opentype.Font, error) {
	f, err := opentype.Parse(b)
	if err == nil {
		return f, nil
	}
	c, cerr := opentype.ParseCollection(b)
	if cerr != nil {
		return nil, core.Wrapf(err, core.ErrIO, "parsing font")
	}
	if c.NumFonts() == 0 {
		return nil, core.Errorf(core.ErrIO, "empty font collection")
	}
	return c.Font(0)
}
