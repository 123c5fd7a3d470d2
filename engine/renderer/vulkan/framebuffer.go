package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

func (d *Device) CreateFramebuffer(info hal.FramebufferInfo) (hal.Framebuffer, error) {
	attachments := make([]vk.ImageView, len(info.Attachments))
	for i, v := range info.Attachments {
		attachments[i] = lookup(d.objects.views, v.Handle)
	}

	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      lookup(d.objects.renderPasses, info.RenderPass.Handle),
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           info.Extent.Width,
		Height:          info.Extent.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	if err := check(vk.CreateFramebuffer(d.logical, &createInfo, nil, &framebuffer), core.ErrCreation, "vkCreateFramebuffer"); err != nil {
		return hal.Framebuffer{}, err
	}
	return hal.Framebuffer{Handle: track(d.locks, ResourceManagement, d.objects.framebuffers, framebuffer)}, nil
}

func (d *Device) DestroyFramebuffer(fb hal.Framebuffer) {
	if framebuffer, ok := untrack(d.locks, ResourceManagement, d.objects.framebuffers, fb.Handle); ok {
		vk.DestroyFramebuffer(d.logical, framebuffer, nil)
	}
}
