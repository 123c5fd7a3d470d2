package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

// Queue is the device's single graphics and present queue. Access is
// serialized per queue family through the device lock pool.
type Queue struct {
	device *Device
	handle vk.Queue
}

var _ hal.Queue = (*Queue)(nil)

func (q *Queue) Submit(info hal.SubmitInfo, fence hal.Fence) error {
	objs := &q.device.objects

	waits := make([]vk.Semaphore, len(info.WaitSemaphores))
	for i, s := range info.WaitSemaphores {
		waits[i] = lookup(objs.semaphores, s.Handle)
	}
	stages := make([]vk.PipelineStageFlags, len(info.WaitStages))
	for i, s := range info.WaitStages {
		stages[i] = vk.PipelineStageFlags(s)
	}
	signals := make([]vk.Semaphore, len(info.SignalSemaphores))
	for i, s := range info.SignalSemaphores {
		signals[i] = lookup(objs.semaphores, s.Handle)
	}

	buffers := make([]vk.CommandBuffer, 0, len(info.CommandBuffers))
	var recorded []*CommandBuffer
	for _, cb := range info.CommandBuffers {
		v, ok := cb.(*CommandBuffer)
		if !ok {
			return core.Errorf(core.ErrLogic, "command buffer %T does not belong to this device", cb)
		}
		buffers = append(buffers, v.Handle)
		recorded = append(recorded, v)
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(waits)),
		PWaitSemaphores:      waits,
		PWaitDstStageMask:    stages,
		CommandBufferCount:   uint32(len(buffers)),
		PCommandBuffers:      buffers,
		SignalSemaphoreCount: uint32(len(signals)),
		PSignalSemaphores:    signals,
	}

	vkFence := vk.NullFence
	if !fence.IsNil() {
		vkFence = lookup(objs.fences, fence.Handle)
	}

	err := q.device.locks.SafeQueueCall(q.device.queueFamily, func() error {
		return check(vk.QueueSubmit(q.handle, 1, []vk.SubmitInfo{submitInfo}, vkFence), core.ErrHostExecution, "vkQueueSubmit")
	})
	if err != nil {
		return err
	}
	for _, v := range recorded {
		v.State = COMMAND_BUFFER_STATE_SUBMITTED
	}
	return nil
}

func (q *Queue) Present(info hal.PresentInfo) error {
	objs := &q.device.objects

	waits := make([]vk.Semaphore, len(info.WaitSemaphores))
	for i, s := range info.WaitSemaphores {
		waits[i] = lookup(objs.semaphores, s.Handle)
	}

	sc, ok := objs.swapchains.Get(info.Swapchain.Handle)
	if !ok {
		return core.Errorf(core.ErrPresent, "unknown swapchain %v", info.Swapchain)
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(waits)),
		PWaitSemaphores:    waits,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.handle},
		PImageIndices:      []uint32{info.ImageIndex},
	}

	return q.device.locks.SafeQueueCall(q.device.queueFamily, func() error {
		result := vk.QueuePresent(q.handle, &presentInfo)
		if result == vk.Suboptimal {
			core.LogWarn("Swapchain is suboptimal for the surface.")
			return nil
		}
		return check(result, core.ErrPresent, "vkQueuePresent")
	})
}

func (q *Queue) WaitIdle() error {
	return q.device.locks.SafeQueueCall(q.device.queueFamily, func() error {
		return check(vk.QueueWaitIdle(q.handle), core.ErrHostExecution, "vkQueueWaitIdle")
	})
}
