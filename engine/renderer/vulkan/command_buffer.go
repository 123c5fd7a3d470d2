package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

type CommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY CommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

// CommandBuffer is a primary command buffer allocated from one of the
// device's command pools.
type CommandBuffer struct {
	device *Device
	pool   hal.CommandPool
	Handle vk.CommandBuffer
	State  CommandBufferState
}

var _ hal.CommandBuffer = (*CommandBuffer)(nil)

// CreateCommandPool creates a pool on the graphics queue family whose
// buffers can be reset individually.
func (d *Device) CreateCommandPool() (hal.CommandPool, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.queueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}

	var pool vk.CommandPool
	if err := check(vk.CreateCommandPool(d.logical, &poolCreateInfo, nil, &pool), core.ErrCreation, "vkCreateCommandPool"); err != nil {
		return hal.CommandPool{}, err
	}
	core.LogInfo("Graphics command pool created.")
	return hal.CommandPool{Handle: track(d.locks, CommandPoolManagement, d.objects.commandPools, pool)}, nil
}

func (d *Device) DestroyCommandPool(p hal.CommandPool) {
	if pool, ok := untrack(d.locks, CommandPoolManagement, d.objects.commandPools, p.Handle); ok {
		vk.DestroyCommandPool(d.logical, pool, nil)
	}
}

func (d *Device) ResetCommandPool(p hal.CommandPool) error {
	pool, ok := d.objects.commandPools.Get(p.Handle)
	if !ok {
		return core.Errorf(core.ErrLogic, "unknown command pool %v", p)
	}
	return d.locks.SafeCall(CommandPoolManagement, func() error {
		return check(vk.ResetCommandPool(d.logical, pool, 0), core.ErrHostExecution, "vkResetCommandPool")
	})
}

func (d *Device) AllocateCommandBuffer(p hal.CommandPool) (hal.CommandBuffer, error) {
	pool, ok := d.objects.commandPools.Get(p.Handle)
	if !ok {
		return nil, core.Errorf(core.ErrCreation, "unknown command pool %v", p)
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}

	handles := make([]vk.CommandBuffer, 1)
	err := d.locks.SafeCall(CommandPoolManagement, func() error {
		return check(vk.AllocateCommandBuffers(d.logical, &allocateInfo, handles), core.ErrCreation, "vkAllocateCommandBuffers")
	})
	if err != nil {
		return nil, err
	}

	return &CommandBuffer{
		device: d,
		pool:   p,
		Handle: handles[0],
		State:  COMMAND_BUFFER_STATE_READY,
	}, nil
}

func (d *Device) FreeCommandBuffer(p hal.CommandPool, cb hal.CommandBuffer) {
	v, ok := cb.(*CommandBuffer)
	if !ok || v.Handle == nil || v.pool != p {
		return
	}
	pool, ok := d.objects.commandPools.Get(p.Handle)
	if !ok {
		return
	}
	_ = d.locks.SafeCall(CommandPoolManagement, func() error {
		vk.FreeCommandBuffers(d.logical, pool, 1, []vk.CommandBuffer{v.Handle})
		return nil
	})
	v.Handle = nil
	v.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}

func (v *CommandBuffer) Begin(oneTimeSubmit bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if oneTimeSubmit {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}

	if err := check(vk.BeginCommandBuffer(v.Handle, &beginInfo), core.ErrHostExecution, "vkBeginCommandBuffer"); err != nil {
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *CommandBuffer) End() error {
	if err := check(vk.EndCommandBuffer(v.Handle), core.ErrHostExecution, "vkEndCommandBuffer"); err != nil {
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (v *CommandBuffer) PipelineBarrier(src, dst hal.PipelineStageFlags, barriers ...hal.ImageBarrier) {
	imageBarriers := make([]vk.ImageMemoryBarrier, len(barriers))
	for i, b := range barriers {
		imageBarriers[i] = vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(b.SrcAccess),
			DstAccessMask:       vk.AccessFlags(b.DstAccess),
			OldLayout:           vk.ImageLayout(b.OldLayout),
			NewLayout:           vk.ImageLayout(b.NewLayout),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               lookup(v.device.objects.images, b.Image.Handle).handle,
			SubresourceRange:    colorSubresourceRange,
		}
	}
	vk.CmdPipelineBarrier(v.Handle,
		vk.PipelineStageFlags(src), vk.PipelineStageFlags(dst),
		0,
		0, nil,
		0, nil,
		uint32(len(imageBarriers)), imageBarriers)
}

func (v *CommandBuffer) CopyBufferToImage(src hal.Buffer, dst hal.Image, layout hal.ImageLayout, region hal.BufferImageCopy) {
	copyRegion := vk.BufferImageCopy{
		BufferOffset:      vk.DeviceSize(region.BufferOffset),
		BufferRowLength:   region.BufferRowLength,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{
			Width:  region.Extent.Width,
			Height: region.Extent.Height,
			Depth:  1,
		},
	}
	vk.CmdCopyBufferToImage(v.Handle,
		lookup(v.device.objects.buffers, src.Handle),
		lookup(v.device.objects.images, dst.Handle).handle,
		vk.ImageLayout(layout),
		1, []vk.BufferImageCopy{copyRegion})
}

func (v *CommandBuffer) BindVertexBuffer(b hal.Buffer, offset uint64) {
	vk.CmdBindVertexBuffers(v.Handle, 0, 1,
		[]vk.Buffer{lookup(v.device.objects.buffers, b.Handle)},
		[]vk.DeviceSize{vk.DeviceSize(offset)})
}

func (v *CommandBuffer) BindIndexBuffer(b hal.Buffer, offset uint64, indexType hal.IndexType) {
	vk.CmdBindIndexBuffer(v.Handle, lookup(v.device.objects.buffers, b.Handle), vk.DeviceSize(offset), vk.IndexType(indexType))
}

func (v *CommandBuffer) BindGraphicsPipeline(p hal.Pipeline) {
	vk.CmdBindPipeline(v.Handle, vk.PipelineBindPointGraphics, lookup(v.device.objects.pipelines, p.Handle))
}

func (v *CommandBuffer) BindDescriptorSets(layout hal.PipelineLayout, firstSet uint32, sets ...hal.DescriptorSet) {
	vkSets := make([]vk.DescriptorSet, len(sets))
	for i, s := range sets {
		vkSets[i] = lookup(v.device.objects.descriptorSets, s.Handle).handle
	}
	vk.CmdBindDescriptorSets(v.Handle, vk.PipelineBindPointGraphics,
		lookup(v.device.objects.pipelineLayouts, layout.Handle),
		firstSet, uint32(len(vkSets)), vkSets, 0, nil)
}

func (v *CommandBuffer) BeginRenderPass(rp hal.RenderPass, fb hal.Framebuffer, extent hal.Extent2D, clear hal.ClearColor) {
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  lookup(v.device.objects.renderPasses, rp.Handle),
		Framebuffer: lookup(v.device.objects.framebuffers, fb.Handle),
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vkExtent(extent),
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{vk.NewClearValue(clear[:])},
	}
	vk.CmdBeginRenderPass(v.Handle, &beginInfo, vk.SubpassContentsInline)
	v.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (v *CommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(v.Handle)
	v.State = COMMAND_BUFFER_STATE_RECORDING
}

func (v *CommandBuffer) DrawIndexed(indexCount, firstIndex uint32) {
	vk.CmdDrawIndexed(v.Handle, indexCount, 1, firstIndex, 0, 0)
}
