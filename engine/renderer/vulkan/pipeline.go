package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

func (d *Device) CreatePipelineLayout(layouts []hal.DescriptorSetLayout) (hal.PipelineLayout, error) {
	setLayouts := make([]vk.DescriptorSetLayout, len(layouts))
	for i, l := range layouts {
		setLayouts[i] = lookup(d.objects.setLayouts, l.Handle)
	}

	createInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(setLayouts)),
		PSetLayouts:    setLayouts,
	}

	var layout vk.PipelineLayout
	if err := check(vk.CreatePipelineLayout(d.logical, &createInfo, nil, &layout), core.ErrCreation, "vkCreatePipelineLayout"); err != nil {
		return hal.PipelineLayout{}, err
	}
	return hal.PipelineLayout{Handle: track(d.locks, PipelineManagement, d.objects.pipelineLayouts, layout)}, nil
}

func (d *Device) DestroyPipelineLayout(l hal.PipelineLayout) {
	if layout, ok := untrack(d.locks, PipelineManagement, d.objects.pipelineLayouts, l.Handle); ok {
		vk.DestroyPipelineLayout(d.logical, layout, nil)
	}
}

// CreateGraphicsPipeline builds a pipeline with a single vertex binding, no
// culling, no depth testing, and the viewport and scissor fixed to
// info.Extent.
func (d *Device) CreateGraphicsPipeline(info hal.GraphicsPipelineInfo) (hal.Pipeline, error) {
	stages := []vk.PipelineShaderStageCreateInfo{
		shaderStage(vk.ShaderStageVertexBit, lookup(d.objects.shaders, info.VertexShader.Handle)),
		shaderStage(vk.ShaderStageFragmentBit, lookup(d.objects.shaders, info.FragmentShader.Handle)),
	}

	attributes := make([]vk.VertexInputAttributeDescription, len(info.Attributes))
	for i, a := range info.Attributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  0,
			Format:   vk.Format(a.Format),
			Offset:   a.Offset,
		}
	}

	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                         vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount: 1,
		PVertexBindingDescriptions: []vk.VertexInputBindingDescription{{
			Binding:   0,
			Stride:    info.VertexStride,
			InputRate: vk.VertexInputRateVertex,
		}},
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopology(info.Topology),
		PrimitiveRestartEnable: vk.False,
	}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports: []vk.Viewport{{
			X:        0,
			Y:        0,
			Width:    float32(info.Extent.Width),
			Height:   float32(info.Extent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		}},
		ScissorCount: 1,
		PScissors: []vk.Rect2D{{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vkExtent(info.Extent),
		}},
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonMode(info.PolygonMode),
		LineWidth:               1.0,
		CullMode:                vk.CullModeFlags(vk.CullModeNone),
		FrontFace:               vk.FrontFaceClockwise,
		DepthBiasEnable:         vk.False,
	}

	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:  vk.False,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}

	blendAttachment := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.False,
		SrcColorBlendFactor: vk.BlendFactor(info.Blend.SrcColor),
		DstColorBlendFactor: vk.BlendFactor(info.Blend.DstColor),
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactor(info.Blend.SrcAlpha),
		DstAlphaBlendFactor: vk.BlendFactor(info.Blend.DstAlpha),
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}
	if info.Blend.Enable {
		blendAttachment.BlendEnable = vk.True
	}

	colorBlending := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{blendAttachment},
	}

	pipelineInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PColorBlendState:    &colorBlending,
		Layout:              lookup(d.objects.pipelineLayouts, info.Layout.Handle),
		RenderPass:          lookup(d.objects.renderPasses, info.RenderPass.Handle),
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if err := check(vk.CreateGraphicsPipelines(d.logical, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{pipelineInfo}, nil, pipelines), core.ErrCreation, "vkCreateGraphicsPipelines"); err != nil {
		return hal.Pipeline{}, err
	}

	core.LogDebug("Graphics pipeline created!")
	return hal.Pipeline{Handle: track(d.locks, PipelineManagement, d.objects.pipelines, pipelines[0])}, nil
}

func (d *Device) DestroyPipeline(p hal.Pipeline) {
	if pipeline, ok := untrack(d.locks, PipelineManagement, d.objects.pipelines, p.Handle); ok {
		vk.DestroyPipeline(d.logical, pipeline, nil)
	}
}
