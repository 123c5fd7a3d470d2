package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

func (d *Device) CreateRenderPass(info hal.RenderPassInfo) (hal.RenderPass, error) {
	colorAttachment := vk.AttachmentDescription{
		Format:         vk.Format(info.Color.Format),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOp(info.Color.Load),
		StoreOp:        vk.AttachmentStoreOp(info.Color.Store),
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayout(info.Color.InitialLayout),
		FinalLayout:    vk.ImageLayout(info.Color.FinalLayout),
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayout(info.ColorRefLayout),
		}},
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    info.Dependency.SrcSubpass,
		DstSubpass:    info.Dependency.DstSubpass,
		SrcStageMask:  vk.PipelineStageFlags(info.Dependency.SrcStages),
		DstStageMask:  vk.PipelineStageFlags(info.Dependency.DstStages),
		SrcAccessMask: vk.AccessFlags(info.Dependency.SrcAccess),
		DstAccessMask: vk.AccessFlags(info.Dependency.DstAccess),
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var renderPass vk.RenderPass
	if err := check(vk.CreateRenderPass(d.logical, &createInfo, nil, &renderPass), core.ErrCreation, "vkCreateRenderPass"); err != nil {
		return hal.RenderPass{}, err
	}
	return hal.RenderPass{Handle: track(d.locks, PipelineManagement, d.objects.renderPasses, renderPass)}, nil
}

func (d *Device) DestroyRenderPass(rp hal.RenderPass) {
	if renderPass, ok := untrack(d.locks, PipelineManagement, d.objects.renderPasses, rp.Handle); ok {
		vk.DestroyRenderPass(d.logical, renderPass, nil)
	}
}
