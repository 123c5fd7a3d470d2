package hal

import "time"

// Device owns every GPU object. Create calls return generational handles;
// destroying an unknown or already destroyed handle is a no-op.
type Device interface {
	MemoryTypes() []MemoryType
	Limits() Limits
	SurfaceCapabilities() (SurfaceCapabilities, error)
	SurfaceFormats() ([]SurfaceFormat, error)

	CreateBuffer(info BufferInfo) (Buffer, error)
	DestroyBuffer(b Buffer)
	BufferRequirements(b Buffer) MemoryRequirements
	BindBufferMemory(b Buffer, mem Memory, offset uint64) error

	CreateImage(info ImageInfo) (Image, error)
	DestroyImage(img Image)
	ImageRequirements(img Image) MemoryRequirements
	BindImageMemory(img Image, mem Memory, offset uint64) error

	CreateImageView(info ImageViewInfo) (ImageView, error)
	DestroyImageView(v ImageView)

	AllocateMemory(size uint64, typeIndex uint32) (Memory, error)
	FreeMemory(mem Memory)
	// MapMemory returns a host view of [offset, offset+size). It stays valid
	// until UnmapMemory.
	MapMemory(mem Memory, offset, size uint64) ([]byte, error)
	UnmapMemory(mem Memory)

	CreateSampler(info SamplerInfo) (Sampler, error)
	DestroySampler(s Sampler)

	CreateDescriptorSetLayout(bindings []DescriptorSetLayoutBinding) (DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(l DescriptorSetLayout)
	CreateDescriptorPool(info DescriptorPoolInfo) (DescriptorPool, error)
	DestroyDescriptorPool(p DescriptorPool)
	AllocateDescriptorSets(pool DescriptorPool, layouts []DescriptorSetLayout) ([]DescriptorSet, error)
	FreeDescriptorSets(pool DescriptorPool, sets []DescriptorSet) error
	UpdateDescriptorSets(writes []DescriptorWrite)

	CreatePipelineLayout(layouts []DescriptorSetLayout) (PipelineLayout, error)
	DestroyPipelineLayout(l PipelineLayout)
	CreateShaderModule(code []byte) (ShaderModule, error)
	DestroyShaderModule(m ShaderModule)
	CreateRenderPass(info RenderPassInfo) (RenderPass, error)
	DestroyRenderPass(rp RenderPass)
	CreateGraphicsPipeline(info GraphicsPipelineInfo) (Pipeline, error)
	DestroyPipeline(p Pipeline)
	CreateFramebuffer(info FramebufferInfo) (Framebuffer, error)
	DestroyFramebuffer(fb Framebuffer)

	CreateCommandPool() (CommandPool, error)
	DestroyCommandPool(p CommandPool)
	ResetCommandPool(p CommandPool) error
	AllocateCommandBuffer(p CommandPool) (CommandBuffer, error)
	FreeCommandBuffer(p CommandPool, cb CommandBuffer)

	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(s Semaphore)
	CreateFence(signaled bool) (Fence, error)
	DestroyFence(f Fence)
	WaitForFence(f Fence, timeout time.Duration) error

	CreateSwapchain(info SwapchainInfo) (Swapchain, error)
	DestroySwapchain(sc Swapchain)
	SwapchainImages(sc Swapchain) ([]Image, error)
	AcquireNextImage(sc Swapchain, timeout time.Duration, signal Semaphore) (uint32, error)

	Queue() Queue
	WaitIdle() error
}

// Queue is the single graphics and present queue.
type Queue interface {
	// A zero fence submits without one.
	Submit(info SubmitInfo, fence Fence) error
	Present(info PresentInfo) error
	WaitIdle() error
}

type CommandBuffer interface {
	Begin(oneTimeSubmit bool) error
	End() error

	PipelineBarrier(src, dst PipelineStageFlags, barriers ...ImageBarrier)
	CopyBufferToImage(src Buffer, dst Image, layout ImageLayout, region BufferImageCopy)

	BindVertexBuffer(b Buffer, offset uint64)
	BindIndexBuffer(b Buffer, offset uint64, indexType IndexType)
	BindGraphicsPipeline(p Pipeline)
	BindDescriptorSets(layout PipelineLayout, firstSet uint32, sets ...DescriptorSet)

	BeginRenderPass(rp RenderPass, fb Framebuffer, extent Extent2D, clear ClearColor)
	EndRenderPass()
	DrawIndexed(indexCount, firstIndex uint32)
}
