package renderer

import (
	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

const (
	samplerBinding = 0
	textureBinding = 1
)

// PipelineData holds the graphics pipeline and every descriptor object it
// samples through. It is never modified after Build.
type PipelineData struct {
	SamplerLayout  hal.DescriptorSetLayout
	TextureLayout  hal.DescriptorSetLayout
	Pool           hal.DescriptorPool
	Sampler        hal.Sampler
	SamplerSet     hal.DescriptorSet
	TextureSets    []hal.DescriptorSet
	VertexShader   hal.ShaderModule
	FragmentShader hal.ShaderModule
	RenderPass     hal.RenderPass
	Layout         hal.PipelineLayout
	Pipeline       hal.Pipeline
}

type PipelineBuilder struct {
	Device         hal.Device
	Format         hal.Format
	Extent         hal.Extent2D
	Textures       []*Texture
	VertexShader   []byte
	FragmentShader []byte
}

// Build creates the pipeline. On failure everything created so far is
// destroyed before returning.
func (b *PipelineBuilder) Build() (data *PipelineData, err error) {
	dev := b.Device
	data = &PipelineData{}
	defer func() {
		if err != nil {
			data.Destroy(dev)
			data = nil
			err = core.Wrapf(err, core.ErrCreation, "building pipeline")
		}
	}()

	if data.SamplerLayout, err = dev.CreateDescriptorSetLayout([]hal.DescriptorSetLayoutBinding{{
		Binding: samplerBinding,
		Type:    hal.DescriptorTypeSampler,
		Count:   1,
		Stages:  hal.ShaderStageFragment,
	}}); err != nil {
		return
	}
	if data.TextureLayout, err = dev.CreateDescriptorSetLayout([]hal.DescriptorSetLayoutBinding{{
		Binding: textureBinding,
		Type:    hal.DescriptorTypeSampledImage,
		Count:   1,
		Stages:  hal.ShaderStageFragment,
	}}); err != nil {
		return
	}

	if data.Pool, err = dev.CreateDescriptorPool(hal.DescriptorPoolInfo{
		MaxSets: uint32(len(b.Textures) + 1),
		Sizes: []hal.DescriptorPoolSize{
			{Type: hal.DescriptorTypeSampler, Count: 1},
			{Type: hal.DescriptorTypeSampledImage, Count: uint32(len(b.Textures))},
		},
	}); err != nil {
		return
	}

	if data.Sampler, err = dev.CreateSampler(hal.SamplerInfo{
		MagFilter:   hal.FilterNearest,
		MinFilter:   hal.FilterNearest,
		AddressMode: hal.SamplerAddressModeRepeat,
	}); err != nil {
		return
	}
	if err = b.writeDescriptorSets(data); err != nil {
		return
	}

	if data.Layout, err = dev.CreatePipelineLayout([]hal.DescriptorSetLayout{data.SamplerLayout, data.TextureLayout}); err != nil {
		return
	}

	if data.VertexShader, err = dev.CreateShaderModule(b.VertexShader); err != nil {
		return
	}
	if data.FragmentShader, err = dev.CreateShaderModule(b.FragmentShader); err != nil {
		return
	}

	if data.RenderPass, err = dev.CreateRenderPass(hal.RenderPassInfo{
		Color: hal.AttachmentInfo{
			Format:        b.Format,
			Load:          hal.AttachmentLoadOpClear,
			Store:         hal.AttachmentStoreOpStore,
			InitialLayout: hal.ImageLayoutUndefined,
			FinalLayout:   hal.ImageLayoutPresentSrc,
		},
		ColorRefLayout: hal.ImageLayoutColorAttachmentOptimal,
		Dependency: hal.SubpassDependency{
			SrcSubpass: hal.SubpassExternal,
			DstSubpass: 0,
			SrcStages:  hal.PipelineStageColorAttachmentOutput,
			DstStages:  hal.PipelineStageColorAttachmentOutput,
			SrcAccess:  0,
			DstAccess:  hal.AccessColorAttachmentRead | hal.AccessColorAttachmentWrite,
		},
	}); err != nil {
		return
	}

	data.Pipeline, err = dev.CreateGraphicsPipeline(hal.GraphicsPipelineInfo{
		Layout:         data.Layout,
		RenderPass:     data.RenderPass,
		VertexShader:   data.VertexShader,
		FragmentShader: data.FragmentShader,
		Topology:       hal.PrimitiveTopologyTriangleList,
		PolygonMode:    hal.PolygonModeFill,
		VertexStride:   VertexSize,
		Attributes:     vertexAttributes(),
		Blend: hal.BlendInfo{
			Enable:   true,
			SrcColor: hal.BlendFactorSrcAlpha,
			DstColor: hal.BlendFactorOneMinusSrcAlpha,
			SrcAlpha: hal.BlendFactorOne,
			DstAlpha: hal.BlendFactorZero,
		},
		Extent: b.Extent,
	})
	return
}

func (b *PipelineBuilder) writeDescriptorSets(data *PipelineData) error {
	dev := b.Device

	layouts := make([]hal.DescriptorSetLayout, 0, len(b.Textures)+1)
	layouts = append(layouts, data.SamplerLayout)
	for range b.Textures {
		layouts = append(layouts, data.TextureLayout)
	}
	sets, err := dev.AllocateDescriptorSets(data.Pool, layouts)
	if err != nil {
		return err
	}
	data.SamplerSet = sets[0]
	data.TextureSets = sets[1:]

	writes := make([]hal.DescriptorWrite, 0, len(sets))
	writes = append(writes, hal.DescriptorWrite{
		Set:     data.SamplerSet,
		Binding: samplerBinding,
		Type:    hal.DescriptorTypeSampler,
		Sampler: data.Sampler,
	})
	for i, t := range b.Textures {
		if t.View.IsNil() {
			return core.Errorf(core.ErrLogic, "texture %d has no view", t.Index)
		}
		writes = append(writes, hal.DescriptorWrite{
			Set:     data.TextureSets[i],
			Binding: textureBinding,
			Type:    hal.DescriptorTypeSampledImage,
			View:    t.View,
			Layout:  hal.ImageLayoutShaderReadOnlyOptimal,
		})
	}
	dev.UpdateDescriptorSets(writes)
	return nil
}

func (p *PipelineData) Destroy(dev hal.Device) {
	if p == nil {
		return
	}
	if !p.Pool.IsNil() {
		sets := make([]hal.DescriptorSet, 0, len(p.TextureSets)+1)
		if !p.SamplerSet.IsNil() {
			sets = append(sets, p.SamplerSet)
		}
		sets = append(sets, p.TextureSets...)
		if len(sets) > 0 {
			if err := dev.FreeDescriptorSets(p.Pool, sets); err != nil {
				core.LogWarn("failed to free descriptor sets: %s", err)
			}
		}
		dev.DestroyDescriptorPool(p.Pool)
	}
	if !p.SamplerLayout.IsNil() {
		dev.DestroyDescriptorSetLayout(p.SamplerLayout)
	}
	if !p.TextureLayout.IsNil() {
		dev.DestroyDescriptorSetLayout(p.TextureLayout)
	}
	if !p.RenderPass.IsNil() {
		dev.DestroyRenderPass(p.RenderPass)
	}
	if !p.Pipeline.IsNil() {
		dev.DestroyPipeline(p.Pipeline)
	}
	if !p.VertexShader.IsNil() {
		dev.DestroyShaderModule(p.VertexShader)
	}
	if !p.FragmentShader.IsNil() {
		dev.DestroyShaderModule(p.FragmentShader)
	}
	if !p.Layout.IsNil() {
		dev.DestroyPipelineLayout(p.Layout)
	}
	if !p.Sampler.IsNil() {
		dev.DestroySampler(p.Sampler)
	}
	*p = PipelineData{}
}
