package vulkan

import (
	"time"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

func (d *Device) CreateSemaphore() (hal.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var semaphore vk.Semaphore
	if err := check(vk.CreateSemaphore(d.logical, &semaphoreCreateInfo, nil, &semaphore), core.ErrCreation, "vkCreateSemaphore"); err != nil {
		return hal.Semaphore{}, err
	}
	return hal.Semaphore{Handle: track(d.locks, SynchronizationManagement, d.objects.semaphores, semaphore)}, nil
}

func (d *Device) DestroySemaphore(s hal.Semaphore) {
	if semaphore, ok := untrack(d.locks, SynchronizationManagement, d.objects.semaphores, s.Handle); ok {
		vk.DestroySemaphore(d.logical, semaphore, nil)
	}
}

func (d *Device) CreateFence(signaled bool) (hal.Fence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	if err := check(vk.CreateFence(d.logical, &fenceCreateInfo, nil, &fence), core.ErrCreation, "vkCreateFence"); err != nil {
		return hal.Fence{}, err
	}
	return hal.Fence{Handle: track(d.locks, SynchronizationManagement, d.objects.fences, fence)}, nil
}

func (d *Device) DestroyFence(f hal.Fence) {
	if fence, ok := untrack(d.locks, SynchronizationManagement, d.objects.fences, f.Handle); ok {
		vk.DestroyFence(d.logical, fence, nil)
	}
}

// WaitForFence blocks until f is signaled or timeout elapses. A timeout is
// reported as an error like any other failure.
func (d *Device) WaitForFence(f hal.Fence, timeout time.Duration) error {
	fence, ok := d.objects.fences.Get(f.Handle)
	if !ok {
		return core.Errorf(core.ErrLogic, "unknown fence %v", f)
	}

	result := vk.WaitForFences(d.logical, 1, []vk.Fence{fence}, vk.True, timeoutNanos(timeout))
	switch result {
	case vk.Success:
		return nil
	case vk.Timeout:
		core.LogWarn("vk_fence_wait - Timed out after %s", timeout)
	}
	return check(result, core.ErrHostExecution, "vkWaitForFences")
}
