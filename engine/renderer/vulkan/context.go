package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendermatic/engine/containers"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

type image struct {
	handle vk.Image
	// Swap chain images belong to their swap chain and are never destroyed
	// through DestroyImage.
	owned bool
}

type swapchain struct {
	handle vk.Swapchain
	images []hal.Image
}

type descriptorSet struct {
	handle vk.DescriptorSet
	pool   hal.DescriptorPool
}

// objects maps hal handles onto the live Vulkan objects of one device.
type objects struct {
	buffers         *containers.Arena[vk.Buffer]
	images          *containers.Arena[image]
	views           *containers.Arena[vk.ImageView]
	memory          *containers.Arena[vk.DeviceMemory]
	samplers        *containers.Arena[vk.Sampler]
	setLayouts      *containers.Arena[vk.DescriptorSetLayout]
	descriptorPools *containers.Arena[vk.DescriptorPool]
	descriptorSets  *containers.Arena[descriptorSet]
	pipelineLayouts *containers.Arena[vk.PipelineLayout]
	shaders         *containers.Arena[vk.ShaderModule]
	renderPasses    *containers.Arena[vk.RenderPass]
	pipelines       *containers.Arena[vk.Pipeline]
	framebuffers    *containers.Arena[vk.Framebuffer]
	commandPools    *containers.Arena[vk.CommandPool]
	semaphores      *containers.Arena[vk.Semaphore]
	fences          *containers.Arena[vk.Fence]
	swapchains      *containers.Arena[swapchain]
}

func newObjects() objects {
	return objects{
		buffers:         containers.NewArena[vk.Buffer](8),
		images:          containers.NewArena[image](16),
		views:           containers.NewArena[vk.ImageView](16),
		memory:          containers.NewArena[vk.DeviceMemory](4),
		samplers:        containers.NewArena[vk.Sampler](1),
		setLayouts:      containers.NewArena[vk.DescriptorSetLayout](2),
		descriptorPools: containers.NewArena[vk.DescriptorPool](1),
		descriptorSets:  containers.NewArena[descriptorSet](16),
		pipelineLayouts: containers.NewArena[vk.PipelineLayout](1),
		shaders:         containers.NewArena[vk.ShaderModule](2),
		renderPasses:    containers.NewArena[vk.RenderPass](1),
		pipelines:       containers.NewArena[vk.Pipeline](1),
		framebuffers:    containers.NewArena[vk.Framebuffer](4),
		commandPools:    containers.NewArena[vk.CommandPool](1),
		semaphores:      containers.NewArena[vk.Semaphore](2),
		fences:          containers.NewArena[vk.Fence](2),
		swapchains:      containers.NewArena[swapchain](1),
	}
}

// leaked counts every object still tracked. Anything left at shutdown is
// destroyed with the device but reported.
func (o *objects) leaked() int {
	return o.buffers.Len() + o.images.Len() + o.views.Len() + o.memory.Len() +
		o.samplers.Len() + o.setLayouts.Len() + o.descriptorPools.Len() +
		o.descriptorSets.Len() + o.pipelineLayouts.Len() + o.shaders.Len() +
		o.renderPasses.Len() + o.pipelines.Len() + o.framebuffers.Len() +
		o.commandPools.Len() + o.semaphores.Len() + o.fences.Len() +
		o.swapchains.Len()
}

// lookup returns the object behind h or its zero value.
func lookup[T any](a *containers.Arena[T], h containers.Handle) T {
	v, _ := a.Get(h)
	return v
}

// track stores v under a new handle while holding the group lock.
func track[T any](lp *LockPool, group LockGroup, a *containers.Arena[T], v T) (h containers.Handle) {
	_ = lp.SafeCall(group, func() error {
		h = a.Insert(v)
		return nil
	})
	return h
}

// untrack forgets h and returns the object it named, if it was live.
func untrack[T any](lp *LockPool, group LockGroup, a *containers.Arena[T], h containers.Handle) (v T, ok bool) {
	_ = lp.SafeCall(group, func() error {
		v, ok = a.Remove(h)
		return nil
	})
	return v, ok
}
