package renderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal/haltest"
)

func solidTexture(index int, w, h int, c color.RGBA) *Texture {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return NewTexture(index, "solid.png", img)
}

func TestRowPitch(t *testing.T) {
	assert.Equal(t, uint64(512), RowPitch(100, 256))
	assert.Equal(t, uint64(400), RowPitch(100, 1))
	assert.Equal(t, uint64(400), RowPitch(100, 0))
	assert.Equal(t, uint64(256), RowPitch(64, 256))

	for _, a := range []uint64{4, 64, 128, 256} {
		for w := uint32(1); w < 300; w += 17 {
			p := RowPitch(w, a)
			assert.Zero(t, p%a)
			assert.GreaterOrEqual(t, p, uint64(4*w))
			assert.Less(t, p, uint64(4*w)+a)
		}
	}
}

func TestNormalizationMatrix(t *testing.T) {
	tex := solidTexture(0, 256, 128, color.RGBA{})
	uv := tex.Normalization.Mul3x1(mgl32.Vec3{1, 1, 1})
	assert.InDelta(t, 1.0/256, uv.X(), 1e-9)
	assert.InDelta(t, 1.0/128, uv.Y(), 1e-9)

	full := tex.Normalization.Mul3x1(mgl32.Vec3{256, 128, 1})
	assert.InDelta(t, 1.0, full.X(), 1e-6)
	assert.InDelta(t, 1.0, full.Y(), 1e-6)
}

type uploadFixture struct {
	dev     *haltest.Device
	tex     *Texture
	staging *BufferObject
	block   *MemoryBlock
	pool    hal.CommandPool
}

func stagedTexture(t *testing.T, w, h int) *uploadFixture {
	t.Helper()
	dev := haltest.NewDevice()
	tex := solidTexture(0, w, h, color.RGBA{R: 255, A: 255})
	alignment := dev.Limits().OptimalBufferCopyRowPitchAlignment

	require.NoError(t, tex.CreateImage(dev))
	_, err := NewMemoryAllocator(dev).AllocateImages([]*Texture{tex})
	require.NoError(t, err)
	assert.Equal(t, TextureBound, tex.State())

	// something in front of the staging buffer so its offset is not zero
	vertex, err := NewBufferObject(dev, 64, hal.BufferUsageVertex)
	require.NoError(t, err)
	staging, err := NewBufferObject(dev, tex.StagingSize(alignment), hal.BufferUsageTransferSrc)
	require.NoError(t, err)
	block, err := NewMemoryAllocator(dev).AllocateBuffers([]*BufferObject{vertex, staging}, hal.MemoryPropertyHostVisible)
	require.NoError(t, err)
	AssignStagingRanges([]*Texture{tex}, staging, alignment)
	require.NoError(t, tex.Stage(dev, block, alignment))

	pool, err := dev.CreateCommandPool()
	require.NoError(t, err)
	return &uploadFixture{dev: dev, tex: tex, staging: staging, block: block, pool: pool}
}

func TestAssignStagingRanges(t *testing.T) {
	textures := []*Texture{solidTexture(0, 100, 2, color.RGBA{}), solidTexture(1, 3, 3, color.RGBA{})}
	staging := &BufferObject{Offset: 1024}

	total := AssignStagingRanges(textures, staging, 256)
	assert.Equal(t, textures[0].StagingSize(256)+textures[1].StagingSize(256), total)
	assert.Equal(t, ByteRange{Start: 1024, End: 1024 + 512*2}, textures[0].StagingRange)
	assert.Equal(t, ByteRange{Start: 1024 + 512*2, End: 1024 + 512*2 + 256*3}, textures[1].StagingRange)
}

func TestStageCopiesRowsAtPitch(t *testing.T) {
	f := stagedTexture(t, 100, 2)
	assert.Equal(t, ByteRange{Start: 64, End: 64 + 1024}, f.tex.StagingRange)

	staged := f.dev.BufferBytes(f.staging.Handle)
	require.Len(t, staged, 1024)
	assert.Equal(t, []byte{255, 0, 0, 255}, staged[0:4])
	assert.Equal(t, []byte{255, 0, 0, 255}, staged[396:400])
	// padding between rows stays untouched
	assert.Equal(t, []byte{0, 0, 0, 0}, staged[400:404])
	assert.Equal(t, []byte{255, 0, 0, 255}, staged[512:516])
	assert.False(t, f.dev.Mapped(f.block.Memory))
}

func TestUploadRecordsBarriersAroundCopy(t *testing.T) {
	f := stagedTexture(t, 100, 2)
	require.NoError(t, f.tex.Upload(f.dev, f.pool, f.staging))

	require.Len(t, f.dev.Submits, 1)
	submit := f.dev.Submits[0]
	assert.False(t, submit.Fence.IsNil())
	cmds := submit.Commands[0]
	require.Equal(t, []string{"PipelineBarrier", "CopyBufferToImage", "PipelineBarrier"}, haltest.Names(cmds))

	toTransfer := cmds[0]
	assert.Equal(t, hal.PipelineStageTopOfPipe, toTransfer.SrcStage)
	assert.Equal(t, hal.PipelineStageTransfer, toTransfer.DstStage)
	assert.Equal(t, hal.ImageBarrier{
		Image:     f.tex.Image,
		OldLayout: hal.ImageLayoutUndefined,
		NewLayout: hal.ImageLayoutTransferDstOptimal,
		DstAccess: hal.AccessTransferWrite,
	}, toTransfer.Barriers[0])

	copyCmd := cmds[1]
	assert.Equal(t, f.staging.Handle, copyCmd.Buffer)
	assert.Equal(t, hal.ImageLayoutTransferDstOptimal, copyCmd.Layout)
	assert.Equal(t, hal.BufferImageCopy{
		BufferOffset:    0,
		BufferRowLength: 128,
		Extent:          hal.Extent2D{Width: 100, Height: 2},
	}, copyCmd.Region)

	toShader := cmds[2]
	assert.Equal(t, hal.PipelineStageTransfer, toShader.SrcStage)
	assert.Equal(t, hal.PipelineStageFragmentShader, toShader.DstStage)
	assert.Equal(t, hal.ImageBarrier{
		Image:     f.tex.Image,
		OldLayout: hal.ImageLayoutTransferDstOptimal,
		NewLayout: hal.ImageLayoutShaderReadOnlyOptimal,
		SrcAccess: hal.AccessTransferWrite,
		DstAccess: hal.AccessShaderRead,
	}, toShader.Barriers[0])

	assert.Equal(t, TextureUploaded, f.tex.State())
	assert.False(t, f.tex.View.IsNil())
	view := f.dev.Info(f.tex.View.Handle).(hal.ImageViewInfo)
	assert.Equal(t, hal.FormatR8G8B8A8Srgb, view.Format)
	assert.Zero(t, f.dev.Live("Fence"))
	assert.Zero(t, f.dev.Live("CommandBuffer"))

	// the fence is gone and the command buffer freed before the view exists
	ops := f.dev.Ops
	last := func(name string) int {
		for i := len(ops) - 1; i >= 0; i-- {
			if ops[i] == name {
				return i
			}
		}
		return -1
	}
	assert.Less(t, last("WaitForFence"), last("DestroyFence"))
	assert.Less(t, last("DestroyFence"), last("FreeCommandBuffer"))
	assert.Less(t, last("FreeCommandBuffer"), last("CreateImageView"))

	require.NoError(t, f.tex.Destroy(f.dev))
	assert.Zero(t, f.dev.Live("Image"))
	assert.Zero(t, f.dev.Live("ImageView"))
}

func TestUploadFenceFailureIsFatal(t *testing.T) {
	f := stagedTexture(t, 4, 4)
	f.dev.Fail["WaitForFence"] = errors.New("device lost")

	err := f.tex.Upload(f.dev, f.pool, f.staging)
	assert.True(t, errors.Is(err, core.ErrHostExecution))
	assert.Equal(t, TextureUploading, f.tex.State())
	assert.True(t, f.tex.View.IsNil())

	// the queue drains before the fence and command buffer go away
	assert.Equal(t, []string{"WaitForFence", "QueueWaitIdle", "DestroyFence", "FreeCommandBuffer"}, f.dev.Ops[len(f.dev.Ops)-4:])
	assert.Zero(t, f.dev.Live("Fence"))
	assert.Zero(t, f.dev.Live("CommandBuffer"))

	err = f.tex.Destroy(f.dev)
	assert.True(t, errors.Is(err, core.ErrLogic))
	assert.Equal(t, 1, f.dev.Live("Image"))
}

func TestTextureLifecycleIsEnforced(t *testing.T) {
	dev := haltest.NewDevice()
	tex := solidTexture(0, 4, 4, color.RGBA{})

	err := tex.Stage(dev, &MemoryBlock{}, 1)
	assert.True(t, errors.Is(err, core.ErrLogic))
	err = tex.Upload(dev, hal.CommandPool{}, &BufferObject{})
	assert.True(t, errors.Is(err, core.ErrLogic))

	_, err = NewMemoryAllocator(dev).AllocateImages([]*Texture{tex})
	assert.True(t, errors.Is(err, core.ErrLogic))
}
