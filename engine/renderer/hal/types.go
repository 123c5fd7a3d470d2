// Package hal is the thin device layer the renderer is written against. Enum
// values match their Vulkan counterparts so a backend can convert them with a
// plain cast.
package hal

import (
	"time"

	"github.com/spaghettifunk/rendermatic/engine/containers"
)

// NoTimeout waits forever.
const NoTimeout time.Duration = -1

// SubpassExternal names the implicit subpass outside a render pass.
const SubpassExternal = ^uint32(0)

// UndefinedExtent in SurfaceCapabilities.CurrentExtent means the surface size
// is picked by the swap chain.
const UndefinedExtent = ^uint32(0)

type Format uint32

const (
	FormatUndefined          Format = 0
	FormatR8G8B8A8Unorm      Format = 37
	FormatR8G8B8A8Srgb       Format = 43
	FormatB8G8R8A8Unorm      Format = 44
	FormatB8G8R8A8Srgb       Format = 50
	FormatR32G32Sfloat       Format = 103
	FormatR32G32B32Sfloat    Format = 106
	FormatR32G32B32A32Sfloat Format = 109
)

func (f Format) IsSRGB() bool {
	return f == FormatR8G8B8A8Srgb || f == FormatB8G8R8A8Srgb
}

type ColorSpace uint32

const ColorSpaceSrgbNonlinear ColorSpace = 0

type ImageLayout uint32

const (
	ImageLayoutUndefined              ImageLayout = 0
	ImageLayoutColorAttachmentOptimal ImageLayout = 2
	ImageLayoutShaderReadOnlyOptimal  ImageLayout = 5
	ImageLayoutTransferDstOptimal     ImageLayout = 7
	ImageLayoutPresentSrc             ImageLayout = 1000001002
)

type AccessFlags uint32

const (
	AccessShaderRead           AccessFlags = 0x20
	AccessColorAttachmentRead  AccessFlags = 0x80
	AccessColorAttachmentWrite AccessFlags = 0x100
	AccessTransferWrite        AccessFlags = 0x1000
)

type PipelineStageFlags uint32

const (
	PipelineStageTopOfPipe             PipelineStageFlags = 0x1
	PipelineStageFragmentShader        PipelineStageFlags = 0x80
	PipelineStageColorAttachmentOutput PipelineStageFlags = 0x400
	PipelineStageTransfer              PipelineStageFlags = 0x1000
	PipelineStageBottomOfPipe          PipelineStageFlags = 0x2000
)

type BufferUsageFlags uint32

const (
	BufferUsageTransferSrc BufferUsageFlags = 0x1
	BufferUsageTransferDst BufferUsageFlags = 0x2
	BufferUsageIndex       BufferUsageFlags = 0x40
	BufferUsageVertex      BufferUsageFlags = 0x80
)

type ImageUsageFlags uint32

const (
	ImageUsageTransferDst     ImageUsageFlags = 0x2
	ImageUsageSampled         ImageUsageFlags = 0x4
	ImageUsageColorAttachment ImageUsageFlags = 0x10
)

type ShaderStageFlags uint32

const (
	ShaderStageVertex   ShaderStageFlags = 0x1
	ShaderStageFragment ShaderStageFlags = 0x10
)

type DescriptorType uint32

const (
	DescriptorTypeSampler      DescriptorType = 0
	DescriptorTypeSampledImage DescriptorType = 2
)

type MemoryPropertyFlags uint32

const (
	MemoryPropertyDeviceLocal  MemoryPropertyFlags = 0x1
	MemoryPropertyHostVisible  MemoryPropertyFlags = 0x2
	MemoryPropertyHostCoherent MemoryPropertyFlags = 0x4
	MemoryPropertyHostCached   MemoryPropertyFlags = 0x8
)

// Has reports whether every flag in want is set.
func (m MemoryPropertyFlags) Has(want MemoryPropertyFlags) bool {
	return m&want == want
}

type IndexType uint32

const IndexTypeUint16 IndexType = 0

type PresentMode uint32

const (
	PresentModeImmediate PresentMode = 0
	PresentModeMailbox   PresentMode = 1
	PresentModeFifo      PresentMode = 2
)

type Filter uint32

const (
	FilterNearest Filter = 0
	FilterLinear  Filter = 1
)

type SamplerAddressMode uint32

const (
	SamplerAddressModeRepeat      SamplerAddressMode = 0
	SamplerAddressModeClampToEdge SamplerAddressMode = 2
)

type AttachmentLoadOp uint32

const (
	AttachmentLoadOpLoad     AttachmentLoadOp = 0
	AttachmentLoadOpClear    AttachmentLoadOp = 1
	AttachmentLoadOpDontCare AttachmentLoadOp = 2
)

type AttachmentStoreOp uint32

const (
	AttachmentStoreOpStore    AttachmentStoreOp = 0
	AttachmentStoreOpDontCare AttachmentStoreOp = 1
)

type PrimitiveTopology uint32

const PrimitiveTopologyTriangleList PrimitiveTopology = 3

type PolygonMode uint32

const PolygonModeFill PolygonMode = 0

type BlendFactor uint32

const (
	BlendFactorZero             BlendFactor = 0
	BlendFactorOne              BlendFactor = 1
	BlendFactorSrcAlpha         BlendFactor = 6
	BlendFactorOneMinusSrcAlpha BlendFactor = 7
)

// Handles. Each kind is its own type so they cannot be mixed up; all of them
// are generational so a destroyed object is never silently reused.
type (
	Buffer              struct{ containers.Handle }
	Image               struct{ containers.Handle }
	ImageView           struct{ containers.Handle }
	Memory              struct{ containers.Handle }
	Sampler             struct{ containers.Handle }
	DescriptorSetLayout struct{ containers.Handle }
	DescriptorPool      struct{ containers.Handle }
	DescriptorSet       struct{ containers.Handle }
	PipelineLayout      struct{ containers.Handle }
	ShaderModule        struct{ containers.Handle }
	RenderPass          struct{ containers.Handle }
	Pipeline            struct{ containers.Handle }
	Framebuffer         struct{ containers.Handle }
	CommandPool         struct{ containers.Handle }
	Semaphore           struct{ containers.Handle }
	Fence               struct{ containers.Handle }
	Swapchain           struct{ containers.Handle }
)

type MemoryRequirements struct {
	Size      uint64
	Alignment uint64
	// Bit i is set when memory type i can back the resource.
	TypeBits uint32
}

type MemoryType struct {
	PropertyFlags MemoryPropertyFlags
	HeapIndex     uint32
}

type Limits struct {
	OptimalBufferCopyOffsetAlignment   uint64
	OptimalBufferCopyRowPitchAlignment uint64
}

type Extent2D struct {
	Width  uint32
	Height uint32
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type SurfaceCapabilities struct {
	MinImageCount uint32
	// Zero means no limit.
	MaxImageCount  uint32
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D
}

type BufferInfo struct {
	Size  uint64
	Usage BufferUsageFlags
}

// ImageInfo describes a single-mip, single-layer 2D image with optimal tiling.
type ImageInfo struct {
	Format Format
	Extent Extent2D
	Usage  ImageUsageFlags
}

type ImageViewInfo struct {
	Image  Image
	Format Format
}

type SamplerInfo struct {
	MagFilter   Filter
	MinFilter   Filter
	AddressMode SamplerAddressMode
}

type DescriptorSetLayoutBinding struct {
	Binding uint32
	Type    DescriptorType
	Count   uint32
	Stages  ShaderStageFlags
}

type DescriptorPoolSize struct {
	Type  DescriptorType
	Count uint32
}

type DescriptorPoolInfo struct {
	MaxSets uint32
	Sizes   []DescriptorPoolSize
}

// DescriptorWrite points one binding of a set at a sampler or an image view.
type DescriptorWrite struct {
	Set     DescriptorSet
	Binding uint32
	Type    DescriptorType
	Sampler Sampler
	View    ImageView
	Layout  ImageLayout
}

type AttachmentInfo struct {
	Format        Format
	Load          AttachmentLoadOp
	Store         AttachmentStoreOp
	InitialLayout ImageLayout
	FinalLayout   ImageLayout
}

type SubpassDependency struct {
	SrcSubpass uint32
	DstSubpass uint32
	SrcStages  PipelineStageFlags
	DstStages  PipelineStageFlags
	SrcAccess  AccessFlags
	DstAccess  AccessFlags
}

// RenderPassInfo describes a pass with one color attachment and one subpass.
type RenderPassInfo struct {
	Color          AttachmentInfo
	ColorRefLayout ImageLayout
	Dependency     SubpassDependency
}

type VertexAttribute struct {
	Location uint32
	Format   Format
	Offset   uint32
}

type BlendInfo struct {
	Enable   bool
	SrcColor BlendFactor
	DstColor BlendFactor
	SrcAlpha BlendFactor
	DstAlpha BlendFactor
}

type GraphicsPipelineInfo struct {
	Layout         PipelineLayout
	RenderPass     RenderPass
	VertexShader   ShaderModule
	FragmentShader ShaderModule
	Topology       PrimitiveTopology
	PolygonMode    PolygonMode
	VertexStride   uint32
	Attributes     []VertexAttribute
	Blend          BlendInfo
	// Viewport and scissor are baked to this extent.
	Extent Extent2D
}

type FramebufferInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Extent      Extent2D
}

type SwapchainInfo struct {
	MinImageCount uint32
	Format        SurfaceFormat
	Extent        Extent2D
	Usage         ImageUsageFlags
	PresentMode   PresentMode
}

type ImageBarrier struct {
	Image     Image
	OldLayout ImageLayout
	NewLayout ImageLayout
	SrcAccess AccessFlags
	DstAccess AccessFlags
}

type BufferImageCopy struct {
	BufferOffset uint64
	// In texels. Zero means tightly packed.
	BufferRowLength uint32
	Extent          Extent2D
}

type ClearColor [4]float32

type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStageFlags
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}

type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchain      Swapchain
	ImageIndex     uint32
}
