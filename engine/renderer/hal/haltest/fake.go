// Package haltest provides an in-memory hal.Device that records every call so
// renderer code can be tested without a GPU.
package haltest

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/rendermatic/engine/containers"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

var (
	ErrTimeout       = errors.New("fence was never signaled")
	ErrUnknown       = errors.New("unknown handle")
	ErrAlreadyMapped = errors.New("memory is already mapped")
	ErrOutOfRange    = errors.New("range exceeds allocation")
)

// Command is one recorded command buffer entry. Only the fields relevant to
// Name are set.
type Command struct {
	Name       string
	SrcStage   hal.PipelineStageFlags
	DstStage   hal.PipelineStageFlags
	Barriers   []hal.ImageBarrier
	Buffer     hal.Buffer
	Image      hal.Image
	Layout     hal.ImageLayout
	Region     hal.BufferImageCopy
	Offset     uint64
	IndexType  hal.IndexType
	Pipeline   hal.Pipeline
	RenderPass hal.RenderPass
	Frame      hal.Framebuffer
	Clear      hal.ClearColor
	Sets       []hal.DescriptorSet
	FirstSet   uint32
	IndexCount uint32
	FirstIndex uint32
}

type Submit struct {
	Info     hal.SubmitInfo
	Fence    hal.Fence
	Commands [][]Command
}

type object struct {
	kind     string
	info     interface{}
	reqs     hal.MemoryRequirements
	data     []byte
	mapped   bool
	memory   hal.Memory
	offset   uint64
	pool     hal.CommandPool
	signaled bool
	images   []hal.Image
}

// Device is a recording fake. Exported fields may be changed between calls.
type Device struct {
	Types        []hal.MemoryType
	DeviceLimits hal.Limits
	Caps         hal.SurfaceCapabilities
	Formats      []hal.SurfaceFormat
	// Memory type masks reported for buffers and images.
	BufferTypeBits uint32
	ImageTypeBits  uint32
	// Fail makes the named method return the given error.
	Fail map[string]error

	// Ops lists every call by method name, in order.
	Ops      []string
	Submits  []Submit
	Presents []hal.PresentInfo
	Writes   []hal.DescriptorWrite

	objects  *containers.Arena[*object]
	buffers  map[hal.CommandPool][]*CommandBuffer
	acquired uint32
	queue    *Queue
}

func NewDevice() *Device {
	d := &Device{
		Types: []hal.MemoryType{
			{PropertyFlags: hal.MemoryPropertyDeviceLocal},
			{PropertyFlags: hal.MemoryPropertyHostVisible | hal.MemoryPropertyHostCoherent},
		},
		DeviceLimits: hal.Limits{
			OptimalBufferCopyOffsetAlignment:   4,
			OptimalBufferCopyRowPitchAlignment: 256,
		},
		Caps: hal.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  3,
			CurrentExtent:  hal.Extent2D{Width: 1024, Height: 768},
			MinImageExtent: hal.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: hal.Extent2D{Width: 4096, Height: 4096},
		},
		Formats: []hal.SurfaceFormat{
			{Format: hal.FormatB8G8R8A8Srgb, ColorSpace: hal.ColorSpaceSrgbNonlinear},
		},
		BufferTypeBits: 0b11,
		ImageTypeBits:  0b11,
		Fail:           map[string]error{},
		objects:        containers.NewArena[*object](64),
		buffers:        map[hal.CommandPool][]*CommandBuffer{},
	}
	d.queue = &Queue{dev: d}
	return d
}

// Live counts objects of the given kind that were created and not destroyed.
// An empty kind counts everything.
func (d *Device) Live(kind string) int {
	n := 0
	d.objects.Each(func(_ containers.Handle, o *object) bool {
		if kind == "" || o.kind == kind {
			n++
		}
		return true
	})
	return n
}

// OpsWithPrefix filters Ops, e.g. OpsWithPrefix("Destroy").
func (d *Device) OpsWithPrefix(prefix string) []string {
	var out []string
	for _, op := range d.Ops {
		if len(op) >= len(prefix) && op[:len(prefix)] == prefix {
			out = append(out, op)
		}
	}
	return out
}

// BufferBytes returns a copy of the memory a buffer is bound to.
func (d *Device) BufferBytes(b hal.Buffer) []byte {
	o, ok := d.get(b.Handle, "Buffer")
	if !ok || o.memory.IsNil() {
		return nil
	}
	mem, ok := d.get(o.memory.Handle, "Memory")
	if !ok {
		return nil
	}
	out := make([]byte, o.reqs.Size)
	copy(out, mem.data[o.offset:])
	return out
}

// BoundAt reports which memory and offset a buffer or image is bound to.
func (d *Device) BoundAt(h containers.Handle) (hal.Memory, uint64) {
	o, ok := d.objects.Get(h)
	if !ok {
		return hal.Memory{}, 0
	}
	return o.memory, o.offset
}

// Info returns the create info an object was made with.
func (d *Device) Info(h containers.Handle) interface{} {
	o, ok := d.objects.Get(h)
	if !ok {
		return nil
	}
	return o.info
}

func (d *Device) record(op string) error {
	d.Ops = append(d.Ops, op)
	if err, ok := d.Fail[op]; ok {
		return err
	}
	return nil
}

func (d *Device) create(kind string, o *object) containers.Handle {
	o.kind = kind
	return d.objects.Insert(o)
}

func (d *Device) get(h containers.Handle, kind string) (*object, bool) {
	o, ok := d.objects.Get(h)
	if !ok || o.kind != kind {
		return nil, false
	}
	return o, true
}

func (d *Device) destroy(op string, h containers.Handle, kind string) {
	d.Ops = append(d.Ops, op)
	if _, ok := d.get(h, kind); ok {
		d.objects.Remove(h)
	}
}

func (d *Device) MemoryTypes() []hal.MemoryType { return d.Types }
func (d *Device) Limits() hal.Limits            { return d.DeviceLimits }

func (d *Device) SurfaceCapabilities() (hal.SurfaceCapabilities, error) {
	return d.Caps, d.record("SurfaceCapabilities")
}

func (d *Device) SurfaceFormats() ([]hal.SurfaceFormat, error) {
	return d.Formats, d.record("SurfaceFormats")
}

func (d *Device) CreateBuffer(info hal.BufferInfo) (hal.Buffer, error) {
	if err := d.record("CreateBuffer"); err != nil {
		return hal.Buffer{}, err
	}
	reqs := hal.MemoryRequirements{Size: info.Size, Alignment: 4, TypeBits: d.BufferTypeBits}
	return hal.Buffer{Handle: d.create("Buffer", &object{info: info, reqs: reqs})}, nil
}

func (d *Device) DestroyBuffer(b hal.Buffer) { d.destroy("DestroyBuffer", b.Handle, "Buffer") }

func (d *Device) BufferRequirements(b hal.Buffer) hal.MemoryRequirements {
	o, _ := d.get(b.Handle, "Buffer")
	if o == nil {
		return hal.MemoryRequirements{}
	}
	return o.reqs
}

func (d *Device) BindBufferMemory(b hal.Buffer, mem hal.Memory, offset uint64) error {
	return d.bind("BindBufferMemory", b.Handle, "Buffer", mem, offset)
}

func (d *Device) CreateImage(info hal.ImageInfo) (hal.Image, error) {
	if err := d.record("CreateImage"); err != nil {
		return hal.Image{}, err
	}
	size := uint64(info.Extent.Width) * uint64(info.Extent.Height) * 4
	reqs := hal.MemoryRequirements{Size: size, Alignment: 256, TypeBits: d.ImageTypeBits}
	return hal.Image{Handle: d.create("Image", &object{info: info, reqs: reqs})}, nil
}

func (d *Device) DestroyImage(img hal.Image) { d.destroy("DestroyImage", img.Handle, "Image") }

func (d *Device) ImageRequirements(img hal.Image) hal.MemoryRequirements {
	o, _ := d.get(img.Handle, "Image")
	if o == nil {
		return hal.MemoryRequirements{}
	}
	return o.reqs
}

func (d *Device) BindImageMemory(img hal.Image, mem hal.Memory, offset uint64) error {
	return d.bind("BindImageMemory", img.Handle, "Image", mem, offset)
}

func (d *Device) bind(op string, h containers.Handle, kind string, mem hal.Memory, offset uint64) error {
	if err := d.record(op); err != nil {
		return err
	}
	o, ok := d.get(h, kind)
	if !ok {
		return errors.Wrapf(ErrUnknown, "%s %v", kind, h)
	}
	m, ok := d.get(mem.Handle, "Memory")
	if !ok {
		return errors.Wrapf(ErrUnknown, "memory %v", mem.Handle)
	}
	if offset+o.reqs.Size > uint64(len(m.data)) {
		return errors.Wrapf(ErrOutOfRange, "binding %d bytes at %d into %d", o.reqs.Size, offset, len(m.data))
	}
	o.memory = mem
	o.offset = offset
	return nil
}

func (d *Device) CreateImageView(info hal.ImageViewInfo) (hal.ImageView, error) {
	if err := d.record("CreateImageView"); err != nil {
		return hal.ImageView{}, err
	}
	return hal.ImageView{Handle: d.create("ImageView", &object{info: info})}, nil
}

func (d *Device) DestroyImageView(v hal.ImageView) {
	d.destroy("DestroyImageView", v.Handle, "ImageView")
}

func (d *Device) AllocateMemory(size uint64, typeIndex uint32) (hal.Memory, error) {
	if err := d.record("AllocateMemory"); err != nil {
		return hal.Memory{}, err
	}
	if int(typeIndex) >= len(d.Types) {
		return hal.Memory{}, errors.Newf("memory type %d does not exist", typeIndex)
	}
	return hal.Memory{Handle: d.create("Memory", &object{info: typeIndex, data: make([]byte, size)})}, nil
}

func (d *Device) FreeMemory(mem hal.Memory) { d.destroy("FreeMemory", mem.Handle, "Memory") }

func (d *Device) MapMemory(mem hal.Memory, offset, size uint64) ([]byte, error) {
	if err := d.record("MapMemory"); err != nil {
		return nil, err
	}
	m, ok := d.get(mem.Handle, "Memory")
	if !ok {
		return nil, errors.Wrapf(ErrUnknown, "memory %v", mem.Handle)
	}
	if m.mapped {
		return nil, ErrAlreadyMapped
	}
	if offset+size > uint64(len(m.data)) {
		return nil, errors.Wrapf(ErrOutOfRange, "mapping [%d, %d) of %d", offset, offset+size, len(m.data))
	}
	m.mapped = true
	return m.data[offset : offset+size : offset+size], nil
}

func (d *Device) UnmapMemory(mem hal.Memory) {
	d.Ops = append(d.Ops, "UnmapMemory")
	if m, ok := d.get(mem.Handle, "Memory"); ok {
		m.mapped = false
	}
}

// Mapped reports whether mem is currently mapped.
func (d *Device) Mapped(mem hal.Memory) bool {
	m, ok := d.get(mem.Handle, "Memory")
	return ok && m.mapped
}

func (d *Device) CreateSampler(info hal.SamplerInfo) (hal.Sampler, error) {
	if err := d.record("CreateSampler"); err != nil {
		return hal.Sampler{}, err
	}
	return hal.Sampler{Handle: d.create("Sampler", &object{info: info})}, nil
}

func (d *Device) DestroySampler(s hal.Sampler) { d.destroy("DestroySampler", s.Handle, "Sampler") }

func (d *Device) CreateDescriptorSetLayout(bindings []hal.DescriptorSetLayoutBinding) (hal.DescriptorSetLayout, error) {
	if err := d.record("CreateDescriptorSetLayout"); err != nil {
		return hal.DescriptorSetLayout{}, err
	}
	return hal.DescriptorSetLayout{Handle: d.create("DescriptorSetLayout", &object{info: bindings})}, nil
}

func (d *Device) DestroyDescriptorSetLayout(l hal.DescriptorSetLayout) {
	d.destroy("DestroyDescriptorSetLayout", l.Handle, "DescriptorSetLayout")
}

func (d *Device) CreateDescriptorPool(info hal.DescriptorPoolInfo) (hal.DescriptorPool, error) {
	if err := d.record("CreateDescriptorPool"); err != nil {
		return hal.DescriptorPool{}, err
	}
	return hal.DescriptorPool{Handle: d.create("DescriptorPool", &object{info: info})}, nil
}

// DestroyDescriptorPool also releases every set still allocated from p.
func (d *Device) DestroyDescriptorPool(p hal.DescriptorPool) {
	var sets []containers.Handle
	d.objects.Each(func(h containers.Handle, o *object) bool {
		if o.kind == "DescriptorSet" && o.info == p {
			sets = append(sets, h)
		}
		return true
	})
	for _, h := range sets {
		d.objects.Remove(h)
	}
	d.destroy("DestroyDescriptorPool", p.Handle, "DescriptorPool")
}

func (d *Device) AllocateDescriptorSets(pool hal.DescriptorPool, layouts []hal.DescriptorSetLayout) ([]hal.DescriptorSet, error) {
	if err := d.record("AllocateDescriptorSets"); err != nil {
		return nil, err
	}
	p, ok := d.get(pool.Handle, "DescriptorPool")
	if !ok {
		return nil, errors.Wrapf(ErrUnknown, "pool %v", pool.Handle)
	}
	allocated := 0
	d.objects.Each(func(_ containers.Handle, o *object) bool {
		if o.kind == "DescriptorSet" && o.info == pool {
			allocated++
		}
		return true
	})
	if limit := p.info.(hal.DescriptorPoolInfo).MaxSets; uint32(allocated+len(layouts)) > limit {
		return nil, errors.Newf("pool holds %d sets, %d requested", limit, allocated+len(layouts))
	}
	sets := make([]hal.DescriptorSet, len(layouts))
	for i := range layouts {
		sets[i] = hal.DescriptorSet{Handle: d.create("DescriptorSet", &object{info: pool})}
	}
	return sets, nil
}

func (d *Device) FreeDescriptorSets(pool hal.DescriptorPool, sets []hal.DescriptorSet) error {
	if err := d.record("FreeDescriptorSets"); err != nil {
		return err
	}
	for _, s := range sets {
		if _, ok := d.get(s.Handle, "DescriptorSet"); ok {
			d.objects.Remove(s.Handle)
		}
	}
	return nil
}

func (d *Device) UpdateDescriptorSets(writes []hal.DescriptorWrite) {
	d.Ops = append(d.Ops, "UpdateDescriptorSets")
	d.Writes = append(d.Writes, writes...)
}

func (d *Device) CreatePipelineLayout(layouts []hal.DescriptorSetLayout) (hal.PipelineLayout, error) {
	if err := d.record("CreatePipelineLayout"); err != nil {
		return hal.PipelineLayout{}, err
	}
	return hal.PipelineLayout{Handle: d.create("PipelineLayout", &object{info: layouts})}, nil
}

func (d *Device) DestroyPipelineLayout(l hal.PipelineLayout) {
	d.destroy("DestroyPipelineLayout", l.Handle, "PipelineLayout")
}

func (d *Device) CreateShaderModule(code []byte) (hal.ShaderModule, error) {
	if err := d.record("CreateShaderModule"); err != nil {
		return hal.ShaderModule{}, err
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return hal.ShaderModule{}, errors.Newf("invalid SPIR-V size %d", len(code))
	}
	return hal.ShaderModule{Handle: d.create("ShaderModule", &object{info: len(code)})}, nil
}

func (d *Device) DestroyShaderModule(m hal.ShaderModule) {
	d.destroy("DestroyShaderModule", m.Handle, "ShaderModule")
}

func (d *Device) CreateRenderPass(info hal.RenderPassInfo) (hal.RenderPass, error) {
	if err := d.record("CreateRenderPass"); err != nil {
		return hal.RenderPass{}, err
	}
	return hal.RenderPass{Handle: d.create("RenderPass", &object{info: info})}, nil
}

func (d *Device) DestroyRenderPass(rp hal.RenderPass) {
	d.destroy("DestroyRenderPass", rp.Handle, "RenderPass")
}

func (d *Device) CreateGraphicsPipeline(info hal.GraphicsPipelineInfo) (hal.Pipeline, error) {
	if err := d.record("CreateGraphicsPipeline"); err != nil {
		return hal.Pipeline{}, err
	}
	return hal.Pipeline{Handle: d.create("Pipeline", &object{info: info})}, nil
}

func (d *Device) DestroyPipeline(p hal.Pipeline) { d.destroy("DestroyPipeline", p.Handle, "Pipeline") }

func (d *Device) CreateFramebuffer(info hal.FramebufferInfo) (hal.Framebuffer, error) {
	if err := d.record("CreateFramebuffer"); err != nil {
		return hal.Framebuffer{}, err
	}
	return hal.Framebuffer{Handle: d.create("Framebuffer", &object{info: info})}, nil
}

func (d *Device) DestroyFramebuffer(fb hal.Framebuffer) {
	d.destroy("DestroyFramebuffer", fb.Handle, "Framebuffer")
}

func (d *Device) CreateCommandPool() (hal.CommandPool, error) {
	if err := d.record("CreateCommandPool"); err != nil {
		return hal.CommandPool{}, err
	}
	return hal.CommandPool{Handle: d.create("CommandPool", &object{})}, nil
}

func (d *Device) DestroyCommandPool(p hal.CommandPool) {
	for _, cb := range d.buffers[p] {
		d.objects.Remove(cb.handle)
	}
	delete(d.buffers, p)
	d.destroy("DestroyCommandPool", p.Handle, "CommandPool")
}

func (d *Device) ResetCommandPool(p hal.CommandPool) error {
	if err := d.record("ResetCommandPool"); err != nil {
		return err
	}
	for _, cb := range d.buffers[p] {
		cb.Commands = nil
		cb.recording = false
	}
	return nil
}

func (d *Device) AllocateCommandBuffer(p hal.CommandPool) (hal.CommandBuffer, error) {
	if err := d.record("AllocateCommandBuffer"); err != nil {
		return nil, err
	}
	if _, ok := d.get(p.Handle, "CommandPool"); !ok {
		return nil, errors.Wrapf(ErrUnknown, "command pool %v", p.Handle)
	}
	cb := &CommandBuffer{dev: d}
	cb.handle = d.create("CommandBuffer", &object{pool: p})
	d.buffers[p] = append(d.buffers[p], cb)
	return cb, nil
}

func (d *Device) FreeCommandBuffer(p hal.CommandPool, cb hal.CommandBuffer) {
	fake, ok := cb.(*CommandBuffer)
	if !ok {
		return
	}
	d.destroy("FreeCommandBuffer", fake.handle, "CommandBuffer")
	list := d.buffers[p]
	for i, c := range list {
		if c == fake {
			d.buffers[p] = append(list[:i], list[i+1:]...)
			break
		}
	}
}

func (d *Device) CreateSemaphore() (hal.Semaphore, error) {
	if err := d.record("CreateSemaphore"); err != nil {
		return hal.Semaphore{}, err
	}
	return hal.Semaphore{Handle: d.create("Semaphore", &object{})}, nil
}

func (d *Device) DestroySemaphore(s hal.Semaphore) {
	d.destroy("DestroySemaphore", s.Handle, "Semaphore")
}

func (d *Device) CreateFence(signaled bool) (hal.Fence, error) {
	if err := d.record("CreateFence"); err != nil {
		return hal.Fence{}, err
	}
	return hal.Fence{Handle: d.create("Fence", &object{signaled: signaled})}, nil
}

func (d *Device) DestroyFence(f hal.Fence) { d.destroy("DestroyFence", f.Handle, "Fence") }

// WaitForFence succeeds once the fence has been submitted with work, which the
// fake completes immediately.
func (d *Device) WaitForFence(f hal.Fence, timeout time.Duration) error {
	if err := d.record("WaitForFence"); err != nil {
		return err
	}
	o, ok := d.get(f.Handle, "Fence")
	if !ok {
		return errors.Wrapf(ErrUnknown, "fence %v", f.Handle)
	}
	if !o.signaled {
		return errors.Wrapf(ErrTimeout, "after %s", timeout)
	}
	return nil
}

func (d *Device) CreateSwapchain(info hal.SwapchainInfo) (hal.Swapchain, error) {
	if err := d.record("CreateSwapchain"); err != nil {
		return hal.Swapchain{}, err
	}
	o := &object{info: info}
	for i := uint32(0); i < info.MinImageCount; i++ {
		o.images = append(o.images, hal.Image{Handle: d.create("SwapchainImage", &object{})})
	}
	return hal.Swapchain{Handle: d.create("Swapchain", o)}, nil
}

func (d *Device) DestroySwapchain(sc hal.Swapchain) {
	if o, ok := d.get(sc.Handle, "Swapchain"); ok {
		for _, img := range o.images {
			d.objects.Remove(img.Handle)
		}
	}
	d.destroy("DestroySwapchain", sc.Handle, "Swapchain")
}

func (d *Device) SwapchainImages(sc hal.Swapchain) ([]hal.Image, error) {
	if err := d.record("SwapchainImages"); err != nil {
		return nil, err
	}
	o, ok := d.get(sc.Handle, "Swapchain")
	if !ok {
		return nil, errors.Wrapf(ErrUnknown, "swapchain %v", sc.Handle)
	}
	return append([]hal.Image(nil), o.images...), nil
}

// AcquireNextImage hands out swap images round-robin.
func (d *Device) AcquireNextImage(sc hal.Swapchain, timeout time.Duration, signal hal.Semaphore) (uint32, error) {
	if err := d.record("AcquireNextImage"); err != nil {
		return 0, err
	}
	o, ok := d.get(sc.Handle, "Swapchain")
	if !ok {
		return 0, errors.Wrapf(ErrUnknown, "swapchain %v", sc.Handle)
	}
	idx := d.acquired % uint32(len(o.images))
	d.acquired++
	return idx, nil
}

func (d *Device) Queue() hal.Queue { return d.queue }

func (d *Device) WaitIdle() error { return d.record("WaitIdle") }

type Queue struct {
	dev *Device
}

func (q *Queue) Submit(info hal.SubmitInfo, fence hal.Fence) error {
	if err := q.dev.record("Submit"); err != nil {
		return err
	}
	s := Submit{Info: info, Fence: fence}
	for _, cb := range info.CommandBuffers {
		if fake, ok := cb.(*CommandBuffer); ok {
			s.Commands = append(s.Commands, append([]Command(nil), fake.Commands...))
		}
	}
	q.dev.Submits = append(q.dev.Submits, s)
	if !fence.IsNil() {
		if o, ok := q.dev.get(fence.Handle, "Fence"); ok {
			o.signaled = true
		}
	}
	return nil
}

func (q *Queue) Present(info hal.PresentInfo) error {
	if err := q.dev.record("Present"); err != nil {
		return err
	}
	q.dev.Presents = append(q.dev.Presents, info)
	return nil
}

func (q *Queue) WaitIdle() error { return q.dev.record("QueueWaitIdle") }

type CommandBuffer struct {
	dev       *Device
	handle    containers.Handle
	recording bool
	Commands  []Command
}

func (c *CommandBuffer) Begin(oneTimeSubmit bool) error {
	if err := c.dev.record("BeginCommandBuffer"); err != nil {
		return err
	}
	c.Commands = nil
	c.recording = true
	return nil
}

func (c *CommandBuffer) End() error {
	if err := c.dev.record("EndCommandBuffer"); err != nil {
		return err
	}
	if !c.recording {
		return errors.New("command buffer is not recording")
	}
	c.recording = false
	return nil
}

func (c *CommandBuffer) add(cmd Command) {
	c.Commands = append(c.Commands, cmd)
}

func (c *CommandBuffer) PipelineBarrier(src, dst hal.PipelineStageFlags, barriers ...hal.ImageBarrier) {
	c.add(Command{Name: "PipelineBarrier", SrcStage: src, DstStage: dst, Barriers: barriers})
}

func (c *CommandBuffer) CopyBufferToImage(src hal.Buffer, dst hal.Image, layout hal.ImageLayout, region hal.BufferImageCopy) {
	c.add(Command{Name: "CopyBufferToImage", Buffer: src, Image: dst, Layout: layout, Region: region})
}

func (c *CommandBuffer) BindVertexBuffer(b hal.Buffer, offset uint64) {
	c.add(Command{Name: "BindVertexBuffer", Buffer: b, Offset: offset})
}

func (c *CommandBuffer) BindIndexBuffer(b hal.Buffer, offset uint64, indexType hal.IndexType) {
	c.add(Command{Name: "BindIndexBuffer", Buffer: b, Offset: offset, IndexType: indexType})
}

func (c *CommandBuffer) BindGraphicsPipeline(p hal.Pipeline) {
	c.add(Command{Name: "BindGraphicsPipeline", Pipeline: p})
}

func (c *CommandBuffer) BindDescriptorSets(layout hal.PipelineLayout, firstSet uint32, sets ...hal.DescriptorSet) {
	c.add(Command{Name: "BindDescriptorSets", FirstSet: firstSet, Sets: sets})
}

func (c *CommandBuffer) BeginRenderPass(rp hal.RenderPass, fb hal.Framebuffer, extent hal.Extent2D, clear hal.ClearColor) {
	c.add(Command{Name: "BeginRenderPass", RenderPass: rp, Frame: fb, Clear: clear})
}

func (c *CommandBuffer) EndRenderPass() {
	c.add(Command{Name: "EndRenderPass"})
}

func (c *CommandBuffer) DrawIndexed(indexCount, firstIndex uint32) {
	c.add(Command{Name: "DrawIndexed", IndexCount: indexCount, FirstIndex: firstIndex})
}

// Names lists command names in recording order.
func Names(cmds []Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Name
	}
	return out
}

var _ hal.Device = (*Device)(nil)
var _ hal.CommandBuffer = (*CommandBuffer)(nil)
