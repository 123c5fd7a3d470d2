package loaders

type ResourceType uint8

const (
	ResourceTypeNone ResourceType = iota
	ResourceTypeImage
	ResourceTypeShader
	ResourceTypeFont
	ResourceTypeBitmapFont
	ResourceTypeData
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeImage:
		return "image"
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeFont:
		return "font"
	case ResourceTypeBitmapFont:
		return "bitmap-font"
	case ResourceTypeData:
		return "data"
	}
	return "none"
}

// Resource is what every loader hands back. Data holds the decoded payload:
// *image.RGBA for images, []byte for shaders, *opentype.Font for fonts and
// *BitmapFont for bitmap fonts.
type Resource struct {
	Name     string
	FullPath string
	Type     ResourceType
	DataSize uint64
	Data     interface{}
}
