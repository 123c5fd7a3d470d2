package renderer

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

type FrameState uint8

const (
	FrameIdle FrameState = iota
	FrameAcquiring
	FrameRecording
	FrameSubmitted
	FramePresenting
)

func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "idle"
	case FrameAcquiring:
		return "acquiring"
	case FrameRecording:
		return "recording"
	case FrameSubmitted:
		return "submitted"
	case FramePresenting:
		return "presenting"
	}
	return "unknown"
}

var clearColor = hal.ClearColor{0, 0, 0, 0}

type Options struct {
	// Used when the surface lets the swap chain pick its size.
	WindowExtent   hal.Extent2D
	VertexShader   []byte
	FragmentShader []byte
	// Texture i is sampled by draw range i.
	Textures []*Texture
}

// Renderer draws textured quads with a single frame in flight.
type Renderer struct {
	dev       hal.Device
	queue     hal.Queue
	allocator *MemoryAllocator
	state     FrameState
	frame     uint64

	surfaceFormat hal.SurfaceFormat
	extent        hal.Extent2D
	swapchain     hal.Swapchain
	swapImages    []hal.Image
	swapViews     []hal.ImageView
	framebuffers  []hal.Framebuffer

	commandPool   hal.CommandPool
	commandBuffer hal.CommandBuffer

	vertexBuffer  *BufferObject
	indexBuffer   *BufferObject
	stagingBuffer *BufferObject
	bufferMemory  *MemoryBlock
	imageMemory   *MemoryBlock

	textures []*Texture
	pipeline *PipelineData
	indices  []uint16

	imageAvailable hal.Semaphore
	renderFinished hal.Semaphore
}

func New(dev hal.Device, opts Options) (*Renderer, error) {
	r := &Renderer{
		dev:       dev,
		queue:     dev.Queue(),
		allocator: NewMemoryAllocator(dev),
		textures:  opts.Textures,
		indices:   make([]uint16, 0, MaxQuads*IndicesPerQuad),
	}
	if err := r.initialize(opts); err != nil {
		// Uploads submitted before the failure may still be in flight.
		if werr := r.queue.WaitIdle(); werr != nil {
			err = errors.CombineErrors(err, core.Wrapf(werr, core.ErrHostExecution, "waiting for the queue to drain"))
		}
		return nil, errors.CombineErrors(err, r.release())
	}
	return r, nil
}

func (r *Renderer) initialize(opts Options) error {
	profiler := core.NewProfiler("renderer")
	dev := r.dev

	formats, err := dev.SurfaceFormats()
	if err != nil {
		return core.Wrapf(err, core.ErrCreation, "querying surface formats")
	}
	r.surfaceFormat = ChooseSurfaceFormat(formats)

	caps, err := dev.SurfaceCapabilities()
	if err != nil {
		return core.Wrapf(err, core.ErrCreation, "querying surface capabilities")
	}
	r.extent = ChooseExtent(caps, opts.WindowExtent)

	if r.commandPool, err = dev.CreateCommandPool(); err != nil {
		return core.Wrapf(err, core.ErrCreation, "creating command pool")
	}

	if err := r.createSwapchain(caps); err != nil {
		return err
	}
	if err := r.createBuffers(); err != nil {
		return err
	}
	if err := r.uploadTextures(); err != nil {
		return err
	}
	profiler.LogTime("textures uploaded")

	builder := &PipelineBuilder{
		Device:         dev,
		Format:         r.surfaceFormat.Format,
		Extent:         r.extent,
		Textures:       r.textures,
		VertexShader:   opts.VertexShader,
		FragmentShader: opts.FragmentShader,
	}
	if r.pipeline, err = builder.Build(); err != nil {
		return err
	}

	for i, view := range r.swapViews {
		fb, err := dev.CreateFramebuffer(hal.FramebufferInfo{
			RenderPass:  r.pipeline.RenderPass,
			Attachments: []hal.ImageView{view},
			Extent:      r.extent,
		})
		if err != nil {
			return core.Wrapf(err, core.ErrCreation, "creating framebuffer %d", i)
		}
		r.framebuffers = append(r.framebuffers, fb)
	}

	if r.imageAvailable, err = dev.CreateSemaphore(); err != nil {
		return core.Wrapf(err, core.ErrCreation, "creating image available semaphore")
	}
	if r.renderFinished, err = dev.CreateSemaphore(); err != nil {
		return core.Wrapf(err, core.ErrCreation, "creating render finished semaphore")
	}
	if r.commandBuffer, err = dev.AllocateCommandBuffer(r.commandPool); err != nil {
		return core.Wrapf(err, core.ErrCreation, "allocating frame command buffer")
	}

	profiler.LogTime("renderer ready")
	core.LogInfo("renderer initialized: %dx%d, format %d, %d swap images, %d textures",
		r.extent.Width, r.extent.Height, r.surfaceFormat.Format, len(r.swapImages), len(r.textures))
	return nil
}

func (r *Renderer) createSwapchain(caps hal.SurfaceCapabilities) error {
	var err error
	r.swapchain, err = r.dev.CreateSwapchain(hal.SwapchainInfo{
		MinImageCount: ChooseImageCount(caps),
		Format:        r.surfaceFormat,
		Extent:        r.extent,
		Usage:         hal.ImageUsageColorAttachment,
		PresentMode:   hal.PresentModeFifo,
	})
	if err != nil {
		return core.Wrapf(err, core.ErrCreation, "creating swap chain")
	}
	if r.swapImages, err = r.dev.SwapchainImages(r.swapchain); err != nil {
		return core.Wrapf(err, core.ErrCreation, "retrieving swap chain images")
	}
	for i, img := range r.swapImages {
		view, err := r.dev.CreateImageView(hal.ImageViewInfo{Image: img, Format: r.surfaceFormat.Format})
		if err != nil {
			return core.Wrapf(err, core.ErrCreation, "creating view for swap image %d", i)
		}
		r.swapViews = append(r.swapViews, view)
	}
	return nil
}

// createBuffers makes the vertex, index and staging buffers and backs them
// with a single host visible allocation, in that order.
func (r *Renderer) createBuffers() error {
	var err error
	alignment := r.dev.Limits().OptimalBufferCopyRowPitchAlignment

	if r.vertexBuffer, err = NewBufferObject(r.dev, uint64(MaxQuads*VerticesPerQuad*VertexSize), hal.BufferUsageVertex); err != nil {
		return err
	}
	if r.indexBuffer, err = NewBufferObject(r.dev, MaxQuads*IndicesPerQuad*2, hal.BufferUsageIndex); err != nil {
		return err
	}
	buffers := []*BufferObject{r.vertexBuffer, r.indexBuffer}

	var stagingSize uint64
	for _, t := range r.textures {
		stagingSize += t.StagingSize(alignment)
	}
	if stagingSize > 0 {
		if r.stagingBuffer, err = NewBufferObject(r.dev, stagingSize, hal.BufferUsageTransferSrc); err != nil {
			return err
		}
		buffers = append(buffers, r.stagingBuffer)
	}

	r.bufferMemory, err = r.allocator.AllocateBuffers(buffers, hal.MemoryPropertyHostVisible|hal.MemoryPropertyHostCoherent)
	if err != nil {
		return err
	}
	if r.stagingBuffer != nil {
		if laid := AssignStagingRanges(r.textures, r.stagingBuffer, alignment); laid != stagingSize {
			return core.Errorf(core.ErrLogic, "staging ranges cover %d bytes of a %d byte buffer", laid, stagingSize)
		}
	}
	return nil
}

func (r *Renderer) uploadTextures() error {
	if len(r.textures) == 0 {
		return nil
	}
	for i, t := range r.textures {
		if t.Index != i {
			return core.Errorf(core.ErrIndex, "texture at position %d has index %d", i, t.Index)
		}
		if err := t.CreateImage(r.dev); err != nil {
			return err
		}
	}

	var err error
	if r.imageMemory, err = r.allocator.AllocateImages(r.textures); err != nil {
		return err
	}

	alignment := r.dev.Limits().OptimalBufferCopyRowPitchAlignment
	for _, t := range r.textures {
		if err := t.Stage(r.dev, r.bufferMemory, alignment); err != nil {
			return err
		}
		if err := t.Upload(r.dev, r.commandPool, r.stagingBuffer); err != nil {
			return err
		}
		t.Pixels = nil
		core.LogDebug("texture %d uploaded (%dx%d, %s)", t.Index, t.Width, t.Height, t.Path)
	}
	return nil
}

func (r *Renderer) State() FrameState {
	return r.state
}

func (r *Renderer) Extent() hal.Extent2D {
	return r.extent
}

func (r *Renderer) Textures() []*Texture {
	return r.textures
}

func (r *Renderer) validate(vertices []Vertex, ranges []DrawRange) error {
	if len(vertices) > MaxQuads*VerticesPerQuad {
		return core.Errorf(core.ErrCapacity, "%d vertices exceed the %d vertex capacity", len(vertices), MaxQuads*VerticesPerQuad)
	}
	if len(vertices)%VerticesPerQuad != 0 {
		return core.Errorf(core.ErrLogic, "%d vertices do not form whole quads", len(vertices))
	}
	if len(ranges) > len(r.pipeline.TextureSets) {
		return core.Errorf(core.ErrIndex, "%d draw ranges for %d textures", len(ranges), len(r.pipeline.TextureSets))
	}
	indexCount := uint32(len(vertices) / VerticesPerQuad * IndicesPerQuad)
	for i, rg := range ranges {
		if rg.Start > rg.End || rg.End > indexCount {
			return core.Errorf(core.ErrIndex, "draw range %d [%d, %d) outside of %d indices", i, rg.Start, rg.End, indexCount)
		}
	}
	return nil
}

// RenderFrame draws the quads in vertices. Range i is drawn with texture i.
func (r *Renderer) RenderFrame(vertices []Vertex, ranges []DrawRange) error {
	if r.state != FrameIdle {
		return core.Errorf(core.ErrLogic, "frame started while %s", r.state)
	}
	if err := r.validate(vertices, ranges); err != nil {
		return err
	}
	defer func() { r.state = FrameIdle }()

	r.state = FrameAcquiring
	imageIndex, err := r.dev.AcquireNextImage(r.swapchain, hal.NoTimeout, r.imageAvailable)
	if err != nil {
		return errors.Wrapf(err, "frame %d: acquiring swap image", r.frame)
	}

	r.state = FrameRecording
	if err := r.record(imageIndex, vertices, ranges); err != nil {
		return errors.Wrapf(err, "frame %d: recording", r.frame)
	}

	r.state = FrameSubmitted
	// No fence: the next frame resets the command pool without knowing whether
	// the GPU is done with this submission. Only one frame is ever in flight
	// and presentation with FIFO throttles the CPU, which hides the race.
	if err := r.queue.Submit(hal.SubmitInfo{
		WaitSemaphores:   []hal.Semaphore{r.imageAvailable},
		WaitStages:       []hal.PipelineStageFlags{hal.PipelineStageBottomOfPipe},
		CommandBuffers:   []hal.CommandBuffer{r.commandBuffer},
		SignalSemaphores: []hal.Semaphore{r.renderFinished},
	}, hal.Fence{}); err != nil {
		return errors.Wrapf(err, "frame %d: submitting", r.frame)
	}

	r.state = FramePresenting
	if err := r.queue.Present(hal.PresentInfo{
		WaitSemaphores: []hal.Semaphore{r.renderFinished},
		Swapchain:      r.swapchain,
		ImageIndex:     imageIndex,
	}); err != nil {
		return core.Wrapf(err, core.ErrPresent, "frame %d: presenting image %d", r.frame, imageIndex)
	}

	r.frame++
	return nil
}

func (r *Renderer) record(imageIndex uint32, vertices []Vertex, ranges []DrawRange) error {
	if err := r.dev.ResetCommandPool(r.commandPool); err != nil {
		return err
	}

	if err := CopyDataToBuffer(r.dev, r.bufferMemory, r.vertexBuffer, vertices); err != nil {
		return err
	}
	r.indices = GenerateIndices(len(vertices)/VerticesPerQuad, r.indices)
	if err := CopyDataToBuffer(r.dev, r.bufferMemory, r.indexBuffer, r.indices); err != nil {
		return err
	}

	cb := r.commandBuffer
	if err := cb.Begin(false); err != nil {
		return err
	}
	cb.BindVertexBuffer(r.vertexBuffer.Handle, 0)
	cb.BindIndexBuffer(r.indexBuffer.Handle, 0, hal.IndexTypeUint16)
	cb.BindGraphicsPipeline(r.pipeline.Pipeline)
	cb.BeginRenderPass(r.pipeline.RenderPass, r.framebuffers[imageIndex], r.extent, clearColor)
	for i, rg := range ranges {
		if rg.Count() == 0 {
			continue
		}
		cb.BindDescriptorSets(r.pipeline.Layout, 0, r.pipeline.SamplerSet, r.pipeline.TextureSets[i])
		cb.DrawIndexed(rg.Count(), rg.Start)
	}
	cb.EndRenderPass()
	return cb.End()
}

// CleanUp waits for the GPU and destroys everything the renderer owns. It
// always runs to completion and reports what went wrong along the way.
func (r *Renderer) CleanUp() error {
	var errs error
	if err := r.queue.WaitIdle(); err != nil {
		errs = errors.CombineErrors(errs, core.Wrapf(err, core.ErrHostExecution, "waiting for the queue to drain"))
	}
	errs = errors.CombineErrors(errs, r.release())
	core.LogInfo("renderer destroyed after %d frames", r.frame)
	return errs
}

func (r *Renderer) release() error {
	var errs error
	dev := r.dev

	r.allocator.Free(r.bufferMemory)
	r.allocator.Free(r.imageMemory)
	for _, t := range r.textures {
		// Callers drain the queue first, so an abandoned upload is no longer
		// using its image.
		if t.state == TextureUploading {
			t.state = TextureStaged
		}
		errs = errors.CombineErrors(errs, t.Destroy(dev))
	}
	r.pipeline.Destroy(dev)
	r.pipeline = nil
	r.vertexBuffer.Destroy(dev)
	r.indexBuffer.Destroy(dev)
	r.stagingBuffer.Destroy(dev)

	if !r.imageAvailable.IsNil() {
		dev.DestroySemaphore(r.imageAvailable)
		r.imageAvailable = hal.Semaphore{}
	}
	if !r.renderFinished.IsNil() {
		dev.DestroySemaphore(r.renderFinished)
		r.renderFinished = hal.Semaphore{}
	}
	for _, fb := range r.framebuffers {
		dev.DestroyFramebuffer(fb)
	}
	r.framebuffers = nil
	for _, v := range r.swapViews {
		dev.DestroyImageView(v)
	}
	r.swapViews = nil
	if !r.swapchain.IsNil() {
		dev.DestroySwapchain(r.swapchain)
		r.swapchain = hal.Swapchain{}
	}
	if r.commandBuffer != nil {
		dev.FreeCommandBuffer(r.commandPool, r.commandBuffer)
		r.commandBuffer = nil
	}
	if !r.commandPool.IsNil() {
		dev.DestroyCommandPool(r.commandPool)
		r.commandPool = hal.CommandPool{}
	}
	return errs
}
