package renderer

import (
	"image"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/rendermatic/engine/containers"
	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

// UploadTimeout bounds the wait for a texture copy to finish on the GPU.
const UploadTimeout = time.Second

// TextureFormat is used for both the image and its view.
const TextureFormat = hal.FormatR8G8B8A8Srgb

const bytesPerPixel = 4

type TextureState uint8

const (
	TextureLoaded TextureState = iota
	TextureImageCreated
	TextureBound
	TextureStaged
	TextureUploading
	TextureUploaded
	TextureDestroyed
)

func (s TextureState) String() string {
	switch s {
	case TextureLoaded:
		return "loaded"
	case TextureImageCreated:
		return "image-created"
	case TextureBound:
		return "bound"
	case TextureStaged:
		return "staged"
	case TextureUploading:
		return "uploading"
	case TextureUploaded:
		return "uploaded"
	case TextureDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// ByteRange is a half open range inside a MemoryBlock.
type ByteRange struct {
	Start uint64
	End   uint64
}

type Texture struct {
	Index  int
	Width  uint32
	Height uint32
	Path   string
	// Dropped once the texture is on the GPU.
	Pixels *image.RGBA

	Image        hal.Image
	View         hal.ImageView
	Requirements hal.MemoryRequirements
	// Offset inside the image MemoryBlock.
	Offset uint64
	// Where the pixels sit inside the staging buffer's MemoryBlock.
	StagingRange ByteRange
	Pitch        uint64
	// Maps texel coordinates to [0,1] UVs.
	Normalization mgl32.Mat3

	state TextureState
}

func NewTexture(index int, path string, pixels *image.RGBA) *Texture {
	b := pixels.Bounds()
	return &Texture{
		Index:         index,
		Width:         uint32(b.Dx()),
		Height:        uint32(b.Dy()),
		Path:          path,
		Pixels:        pixels,
		Normalization: NormalizationMatrix(uint32(b.Dx()), uint32(b.Dy())),
		state:         TextureLoaded,
	}
}

func (t *Texture) State() TextureState {
	return t.state
}

func NormalizationMatrix(width, height uint32) mgl32.Mat3 {
	return mgl32.Scale2D(1/float32(width), 1/float32(height))
}

// RowPitch is the byte length of one staged pixel row, rounded up to the
// copy alignment. An alignment of 0 or 1 means tightly packed rows.
func RowPitch(width uint32, alignment uint64) uint64 {
	return containers.AlignUp(uint64(width)*bytesPerPixel, alignment)
}

func (t *Texture) StagingSize(alignment uint64) uint64 {
	return RowPitch(t.Width, alignment) * uint64(t.Height)
}

// AssignStagingRanges lays the textures out back to back inside the staging
// buffer and returns the total size.
func AssignStagingRanges(textures []*Texture, staging *BufferObject, alignment uint64) uint64 {
	start := staging.Offset
	for _, t := range textures {
		size := t.StagingSize(alignment)
		t.StagingRange = ByteRange{Start: start, End: start + size}
		start += size
	}
	return start - staging.Offset
}

func (t *Texture) CreateImage(dev hal.Device) error {
	if t.state != TextureLoaded {
		return core.Errorf(core.ErrLogic, "texture %d is %s, cannot create its image", t.Index, t.state)
	}
	img, err := dev.CreateImage(hal.ImageInfo{
		Format: TextureFormat,
		Extent: hal.Extent2D{Width: t.Width, Height: t.Height},
		Usage:  hal.ImageUsageTransferDst | hal.ImageUsageSampled,
	})
	if err != nil {
		return core.Wrapf(err, core.ErrCreation, "creating image for texture %d (%s)", t.Index, t.Path)
	}
	t.Image = img
	t.Requirements = dev.ImageRequirements(img)
	t.state = TextureImageCreated
	return nil
}

// Stage copies the pixels into the staging memory, one row at a time at
// multiples of the row pitch.
func (t *Texture) Stage(dev hal.Device, block *MemoryBlock, alignment uint64) error {
	if t.state != TextureBound {
		return core.Errorf(core.ErrLogic, "texture %d is %s, cannot stage it", t.Index, t.state)
	}
	if t.Pixels == nil {
		return core.Errorf(core.ErrLogic, "texture %d has no pixels", t.Index)
	}
	pitch := RowPitch(t.Width, alignment)
	if size := t.StagingRange.End - t.StagingRange.Start; size < pitch*uint64(t.Height) {
		return core.Errorf(core.ErrCapacity, "texture %d needs %d staging bytes, has %d", t.Index, pitch*uint64(t.Height), size)
	}

	dst, err := dev.MapMemory(block.Memory, t.StagingRange.Start, t.StagingRange.End-t.StagingRange.Start)
	if err != nil {
		return core.Wrapf(err, core.ErrMapping, "mapping staging range of texture %d", t.Index)
	}
	defer dev.UnmapMemory(block.Memory)

	origin := t.Pixels.Rect.Min
	rowBytes := int(t.Width) * bytesPerPixel
	for row := 0; row < int(t.Height); row++ {
		src := t.Pixels.Pix[t.Pixels.PixOffset(origin.X, origin.Y+row):]
		copy(dst[uint64(row)*pitch:], src[:rowBytes])
	}
	t.Pitch = pitch
	t.state = TextureStaged
	return nil
}

// Upload copies the staged pixels into the image, waits for the copy and
// creates the view the fragment shader samples from. A failed wait is fatal.
func (t *Texture) Upload(dev hal.Device, pool hal.CommandPool, staging *BufferObject) error {
	if t.state != TextureStaged {
		return core.Errorf(core.ErrLogic, "texture %d is %s, cannot upload it", t.Index, t.state)
	}
	t.state = TextureUploading

	if err := t.copyToImage(dev, pool, staging); err != nil {
		return err
	}

	view, err := dev.CreateImageView(hal.ImageViewInfo{Image: t.Image, Format: TextureFormat})
	if err != nil {
		return core.Wrapf(err, core.ErrCreation, "creating view for texture %d", t.Index)
	}
	t.View = view
	t.state = TextureUploaded
	return nil
}

func (t *Texture) copyToImage(dev hal.Device, pool hal.CommandPool, staging *BufferObject) error {
	cb, err := dev.AllocateCommandBuffer(pool)
	if err != nil {
		return core.Wrapf(err, core.ErrCreation, "allocating upload command buffer")
	}
	defer dev.FreeCommandBuffer(pool, cb)

	if err := cb.Begin(true); err != nil {
		return core.Wrapf(err, core.ErrCreation, "beginning upload command buffer")
	}
	cb.PipelineBarrier(hal.PipelineStageTopOfPipe, hal.PipelineStageTransfer, hal.ImageBarrier{
		Image:     t.Image,
		OldLayout: hal.ImageLayoutUndefined,
		NewLayout: hal.ImageLayoutTransferDstOptimal,
		SrcAccess: 0,
		DstAccess: hal.AccessTransferWrite,
	})
	cb.CopyBufferToImage(staging.Handle, t.Image, hal.ImageLayoutTransferDstOptimal, hal.BufferImageCopy{
		BufferOffset:    t.StagingRange.Start - staging.Offset,
		BufferRowLength: uint32(t.Pitch / bytesPerPixel),
		Extent:          hal.Extent2D{Width: t.Width, Height: t.Height},
	})
	cb.PipelineBarrier(hal.PipelineStageTransfer, hal.PipelineStageFragmentShader, hal.ImageBarrier{
		Image:     t.Image,
		OldLayout: hal.ImageLayoutTransferDstOptimal,
		NewLayout: hal.ImageLayoutShaderReadOnlyOptimal,
		SrcAccess: hal.AccessTransferWrite,
		DstAccess: hal.AccessShaderRead,
	})
	if err := cb.End(); err != nil {
		return core.Wrapf(err, core.ErrCreation, "ending upload command buffer")
	}

	fence, err := dev.CreateFence(false)
	if err != nil {
		return core.Wrapf(err, core.ErrCreation, "creating upload fence")
	}
	defer dev.DestroyFence(fence)

	if err := dev.Queue().Submit(hal.SubmitInfo{CommandBuffers: []hal.CommandBuffer{cb}}, fence); err != nil {
		return core.Wrapf(err, core.ErrHostExecution, "submitting upload of texture %d", t.Index)
	}
	if err := dev.WaitForFence(fence, UploadTimeout); err != nil {
		err = core.Wrapf(err, core.ErrHostExecution, "waiting for upload of texture %d", t.Index)
		// The copy may still be running. Drain the queue before the fence and
		// the command buffer are released.
		if werr := dev.Queue().WaitIdle(); werr != nil {
			err = errors.CombineErrors(err, core.Wrapf(werr, core.ErrHostExecution, "draining the queue after texture %d", t.Index))
		}
		return err
	}
	return nil
}

// Destroy releases the view and the image. The bound memory belongs to the
// MemoryBlock and is freed separately.
func (t *Texture) Destroy(dev hal.Device) error {
	if t.state == TextureUploading {
		return core.Errorf(core.ErrLogic, "texture %d is still uploading", t.Index)
	}
	if !t.View.IsNil() {
		dev.DestroyImageView(t.View)
		t.View = hal.ImageView{}
	}
	if !t.Image.IsNil() {
		dev.DestroyImage(t.Image)
		t.Image = hal.Image{}
	}
	t.Pixels = nil
	t.state = TextureDestroyed
	return nil
}
