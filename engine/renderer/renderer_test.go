package renderer

import (
	"encoding/binary"
	"image/color"
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal/haltest"
)

func newTestRenderer(t *testing.T, dev *haltest.Device, textures ...*Texture) *Renderer {
	t.Helper()
	r, err := New(dev, Options{
		WindowExtent:   hal.Extent2D{Width: 1024, Height: 768},
		VertexShader:   testShader,
		FragmentShader: testShader,
		Textures:       textures,
	})
	require.NoError(t, err)
	return r
}

func quads(n int) []Vertex {
	var out []Vertex
	for q := 0; q < n; q++ {
		for i := 0; i < VerticesPerQuad; i++ {
			out = append(out, Vertex{
				Position: mgl32.Vec3{float32(q), float32(i), 0},
				Color:    mgl32.Vec4{1, 1, 1, 1},
				UV:       mgl32.Vec2{float32(i) / 4, 0},
			})
		}
	}
	return out
}

func frameCommands(t *testing.T, dev *haltest.Device) []haltest.Command {
	t.Helper()
	require.NotEmpty(t, dev.Submits)
	last := dev.Submits[len(dev.Submits)-1]
	require.Len(t, last.Commands, 1)
	return last.Commands[0]
}

func TestNewUploadsTexturesAndBuildsFrameResources(t *testing.T) {
	dev := haltest.NewDevice()
	tex := solidTexture(0, 16, 16, color.RGBA{G: 255, A: 255})
	r := newTestRenderer(t, dev, tex)

	assert.Equal(t, FrameIdle, r.State())
	assert.Equal(t, hal.Extent2D{Width: 1024, Height: 768}, r.Extent())
	assert.Equal(t, TextureUploaded, tex.State())
	assert.Nil(t, tex.Pixels)
	assert.Equal(t, 3, dev.Live("Framebuffer"))
	assert.Equal(t, 2, dev.Live("Semaphore"))
	assert.Equal(t, 2, dev.Live("Memory"))

	sc := dev.Info(r.swapchain.Handle).(hal.SwapchainInfo)
	assert.Equal(t, hal.PresentModeFifo, sc.PresentMode)
	assert.Equal(t, uint32(3), sc.MinImageCount)
	assert.Equal(t, hal.FormatB8G8R8A8Srgb, sc.Format.Format)

	// vertex, index, staging in one host visible block
	assert.Equal(t, uint64(0), r.vertexBuffer.Offset)
	assert.Equal(t, uint64(MaxQuads*4*36), r.indexBuffer.Offset)
	assert.Equal(t, uint64(MaxQuads*4*36+MaxQuads*6*2), r.stagingBuffer.Offset)
	assert.Equal(t, r.stagingBuffer.Offset, tex.StagingRange.Start)
}

func TestRenderFrameDrawsOneRangePerTexture(t *testing.T) {
	dev := haltest.NewDevice()
	r := newTestRenderer(t, dev, solidTexture(0, 8, 8, color.RGBA{A: 255}))

	vertices := quads(2)
	require.NoError(t, r.RenderFrame(vertices, DrawRanges([]int{2})))
	assert.Equal(t, FrameIdle, r.State())

	cmds := frameCommands(t, dev)
	assert.Equal(t, []string{
		"BindVertexBuffer",
		"BindIndexBuffer",
		"BindGraphicsPipeline",
		"BeginRenderPass",
		"BindDescriptorSets",
		"DrawIndexed",
		"EndRenderPass",
	}, haltest.Names(cmds))

	assert.Equal(t, hal.ClearColor{0, 0, 0, 0}, cmds[3].Clear)
	assert.Equal(t, []hal.DescriptorSet{r.pipeline.SamplerSet, r.pipeline.TextureSets[0]}, cmds[4].Sets)
	assert.Equal(t, uint32(12), cmds[5].IndexCount)
	assert.Equal(t, uint32(0), cmds[5].FirstIndex)

	raw := dev.BufferBytes(r.vertexBuffer.Handle)
	copied := unsafe.Slice((*Vertex)(unsafe.Pointer(&raw[0])), len(vertices))
	assert.Equal(t, vertices, copied)

	idx := dev.BufferBytes(r.indexBuffer.Handle)
	var indices []uint16
	for i := 0; i < 12; i++ {
		indices = append(indices, binary.LittleEndian.Uint16(idx[2*i:]))
	}
	assert.Equal(t, []uint16{0, 1, 2, 2, 3, 0, 4, 5, 6, 6, 7, 4}, indices)

	submit := dev.Submits[len(dev.Submits)-1]
	assert.True(t, submit.Fence.IsNil())
	assert.Equal(t, []hal.PipelineStageFlags{hal.PipelineStageBottomOfPipe}, submit.Info.WaitStages)
	assert.Equal(t, []hal.Semaphore{r.imageAvailable}, submit.Info.WaitSemaphores)
	assert.Equal(t, []hal.Semaphore{r.renderFinished}, submit.Info.SignalSemaphores)

	require.Len(t, dev.Presents, 1)
	assert.Equal(t, []hal.Semaphore{r.renderFinished}, dev.Presents[0].WaitSemaphores)
	assert.Equal(t, uint32(0), dev.Presents[0].ImageIndex)
	assert.False(t, dev.Mapped(r.bufferMemory.Memory))
}

func TestRenderFrameSkipsEmptyRanges(t *testing.T) {
	dev := haltest.NewDevice()
	r := newTestRenderer(t, dev,
		solidTexture(0, 4, 4, color.RGBA{}),
		solidTexture(1, 4, 4, color.RGBA{}),
		solidTexture(2, 4, 4, color.RGBA{}))

	require.NoError(t, r.RenderFrame(quads(3), DrawRanges([]int{1, 0, 2})))

	var draws []haltest.Command
	var sets [][]hal.DescriptorSet
	for _, c := range frameCommands(t, dev) {
		switch c.Name {
		case "DrawIndexed":
			draws = append(draws, c)
		case "BindDescriptorSets":
			sets = append(sets, c.Sets)
		}
	}
	require.Len(t, draws, 2)
	assert.Equal(t, uint32(6), draws[0].IndexCount)
	assert.Equal(t, uint32(0), draws[0].FirstIndex)
	assert.Equal(t, uint32(12), draws[1].IndexCount)
	assert.Equal(t, uint32(6), draws[1].FirstIndex)
	assert.Equal(t, r.pipeline.TextureSets[2], sets[1][1])
}

func TestRenderFrameRejectsBadInput(t *testing.T) {
	dev := haltest.NewDevice()
	r := newTestRenderer(t, dev, solidTexture(0, 4, 4, color.RGBA{}))

	err := r.RenderFrame(quads(MaxQuads+1), DrawRanges([]int{MaxQuads + 1}))
	assert.True(t, errors.Is(err, core.ErrCapacity))

	err = r.RenderFrame(quads(1)[:3], nil)
	assert.True(t, errors.Is(err, core.ErrLogic))

	err = r.RenderFrame(quads(2), DrawRanges([]int{1, 1}))
	assert.True(t, errors.Is(err, core.ErrIndex))

	err = r.RenderFrame(quads(1), []DrawRange{{Start: 0, End: 12}})
	assert.True(t, errors.Is(err, core.ErrIndex))

	assert.NotContains(t, dev.Ops, "AcquireNextImage")
	assert.Equal(t, FrameIdle, r.State())
}

func TestRenderFrameAtCapacity(t *testing.T) {
	dev := haltest.NewDevice()
	r := newTestRenderer(t, dev, solidTexture(0, 4, 4, color.RGBA{}))
	require.NoError(t, r.RenderFrame(quads(MaxQuads), DrawRanges([]int{MaxQuads})))
	require.NoError(t, r.RenderFrame(nil, nil))
}

func TestPresentFailureIsReported(t *testing.T) {
	dev := haltest.NewDevice()
	r := newTestRenderer(t, dev, solidTexture(0, 4, 4, color.RGBA{}))
	dev.Fail["Present"] = errors.New("out of date")

	err := r.RenderFrame(quads(1), DrawRanges([]int{1}))
	assert.True(t, errors.Is(err, core.ErrPresent))
	assert.Equal(t, FrameIdle, r.State())

	delete(dev.Fail, "Present")
	require.NoError(t, r.RenderFrame(quads(1), DrawRanges([]int{1})))
	// swap images are handed out in turn
	assert.Equal(t, uint32(1), dev.Presents[0].ImageIndex)
}

func TestAcquireFailureKeepsItsKind(t *testing.T) {
	dev := haltest.NewDevice()
	r := newTestRenderer(t, dev)
	dev.Fail["AcquireNextImage"] = core.Errorf(core.ErrHostExecution, "lost")

	err := r.RenderFrame(nil, nil)
	assert.True(t, errors.Is(err, core.ErrHostExecution))
	assert.NotContains(t, dev.Ops, "Submit")
}

func TestCleanUpReleasesEverythingInOrder(t *testing.T) {
	dev := haltest.NewDevice()
	r := newTestRenderer(t, dev, solidTexture(0, 4, 4, color.RGBA{}))
	require.NoError(t, r.RenderFrame(quads(1), DrawRanges([]int{1})))

	before := len(dev.Ops)
	require.NoError(t, r.CleanUp())
	assert.Zero(t, dev.Live(""))

	ops := dev.Ops[before:]
	assert.Equal(t, []string{
		"QueueWaitIdle",
		"FreeMemory",
		"FreeMemory",
		"DestroyImageView",
		"DestroyImage",
		"FreeDescriptorSets",
	}, ops[:6])
	assert.Equal(t, "DestroyCommandPool", ops[len(ops)-1])

	idx := func(name string) int {
		for i, op := range ops {
			if op == name {
				return i
			}
		}
		return -1
	}
	assert.Less(t, idx("DestroySampler"), idx("DestroyBuffer"))
	assert.Less(t, idx("DestroyBuffer"), idx("DestroySemaphore"))
	assert.Less(t, idx("DestroySemaphore"), idx("DestroyFramebuffer"))
	assert.Less(t, idx("DestroyFramebuffer"), idx("DestroySwapchain"))
}

func TestCleanUpReportsWaitFailureButStillReleases(t *testing.T) {
	dev := haltest.NewDevice()
	r := newTestRenderer(t, dev, solidTexture(0, 4, 4, color.RGBA{}))
	dev.Fail["QueueWaitIdle"] = errors.New("device lost")

	err := r.CleanUp()
	assert.True(t, errors.Is(err, core.ErrHostExecution))
	assert.Zero(t, dev.Live(""))
}

func TestNewFailureLeaksNothing(t *testing.T) {
	for _, op := range []string{"CreateSwapchain", "AllocateMemory", "WaitForFence", "CreateGraphicsPipeline", "CreateFramebuffer"} {
		t.Run(op, func(t *testing.T) {
			dev := haltest.NewDevice()
			dev.Fail[op] = errors.New("boom")

			_, err := New(dev, Options{
				VertexShader:   testShader,
				FragmentShader: testShader,
				Textures:       []*Texture{solidTexture(0, 4, 4, color.RGBA{})},
			})
			require.Error(t, err)
			assert.Zero(t, dev.Live(""))

			// nothing is freed before the queue has drained
			waited := -1
			for i, o := range dev.Ops {
				if o == "QueueWaitIdle" && waited < 0 {
					waited = i
				}
				if o == "FreeMemory" || o == "DestroyImage" || o == "DestroyBuffer" {
					assert.Greater(t, i, waited, "%s at %d", o, i)
				}
			}
			assert.GreaterOrEqual(t, waited, 0)
		})
	}
}

func TestNewFenceFailureKeepsItsKind(t *testing.T) {
	dev := haltest.NewDevice()
	dev.Fail["WaitForFence"] = errors.New("device lost")

	_, err := New(dev, Options{
		VertexShader:   testShader,
		FragmentShader: testShader,
		Textures:       []*Texture{solidTexture(0, 4, 4, color.RGBA{}), solidTexture(1, 4, 4, color.RGBA{})},
	})
	assert.True(t, errors.Is(err, core.ErrHostExecution))
	assert.Zero(t, dev.Live("Image"))
	assert.Zero(t, dev.Live("Fence"))
	assert.NotContains(t, dev.Ops, "CreateGraphicsPipeline")
}

func TestTexturesMustBeInIndexOrder(t *testing.T) {
	dev := haltest.NewDevice()
	_, err := New(dev, Options{
		VertexShader:   testShader,
		FragmentShader: testShader,
		Textures:       []*Texture{solidTexture(1, 4, 4, color.RGBA{})},
	})
	assert.True(t, errors.Is(err, core.ErrIndex))
}
