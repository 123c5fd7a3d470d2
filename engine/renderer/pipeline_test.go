package renderer

import (
	"image/color"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal/haltest"
)

var testShader = []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0}

func texturesWithViews(t *testing.T, dev hal.Device, n int) []*Texture {
	t.Helper()
	var out []*Texture
	for i := 0; i < n; i++ {
		tex := solidTexture(i, 2, 2, color.RGBA{})
		v, err := dev.CreateImageView(hal.ImageViewInfo{Format: TextureFormat})
		require.NoError(t, err)
		tex.View = v
		out = append(out, tex)
	}
	return out
}

func TestPipelineBuild(t *testing.T) {
	dev := haltest.NewDevice()
	textures := texturesWithViews(t, dev, 2)
	extent := hal.Extent2D{Width: 640, Height: 480}

	data, err := (&PipelineBuilder{
		Device:         dev,
		Format:         hal.FormatB8G8R8A8Srgb,
		Extent:         extent,
		Textures:       textures,
		VertexShader:   testShader,
		FragmentShader: testShader,
	}).Build()
	require.NoError(t, err)

	pool := dev.Info(data.Pool.Handle).(hal.DescriptorPoolInfo)
	assert.Equal(t, uint32(3), pool.MaxSets)
	assert.Equal(t, []hal.DescriptorPoolSize{
		{Type: hal.DescriptorTypeSampler, Count: 1},
		{Type: hal.DescriptorTypeSampledImage, Count: 2},
	}, pool.Sizes)

	samplerLayout := dev.Info(data.SamplerLayout.Handle).([]hal.DescriptorSetLayoutBinding)
	assert.Equal(t, hal.DescriptorTypeSampler, samplerLayout[0].Type)
	assert.Equal(t, uint32(0), samplerLayout[0].Binding)
	assert.Equal(t, hal.ShaderStageFragment, samplerLayout[0].Stages)
	textureLayout := dev.Info(data.TextureLayout.Handle).([]hal.DescriptorSetLayoutBinding)
	assert.Equal(t, hal.DescriptorTypeSampledImage, textureLayout[0].Type)
	assert.Equal(t, uint32(1), textureLayout[0].Binding)

	require.Len(t, data.TextureSets, 2)
	require.Len(t, dev.Writes, 3)
	assert.Equal(t, data.Sampler, dev.Writes[0].Sampler)
	for i, w := range dev.Writes[1:] {
		assert.Equal(t, data.TextureSets[i], w.Set)
		assert.Equal(t, textures[i].View, w.View)
		assert.Equal(t, hal.ImageLayoutShaderReadOnlyOptimal, w.Layout)
	}

	rp := dev.Info(data.RenderPass.Handle).(hal.RenderPassInfo)
	assert.Equal(t, hal.FormatB8G8R8A8Srgb, rp.Color.Format)
	assert.Equal(t, hal.ImageLayoutPresentSrc, rp.Color.FinalLayout)
	assert.Equal(t, hal.SubpassExternal, rp.Dependency.SrcSubpass)
	assert.Equal(t, hal.AccessColorAttachmentRead|hal.AccessColorAttachmentWrite, rp.Dependency.DstAccess)

	gp := dev.Info(data.Pipeline.Handle).(hal.GraphicsPipelineInfo)
	assert.Equal(t, uint32(36), gp.VertexStride)
	assert.Equal(t, extent, gp.Extent)
	assert.True(t, gp.Blend.Enable)
	assert.Equal(t, hal.BlendFactorSrcAlpha, gp.Blend.SrcColor)
	assert.Equal(t, hal.BlendFactorOneMinusSrcAlpha, gp.Blend.DstColor)
	assert.Equal(t, []hal.Format{hal.FormatR32G32B32Sfloat, hal.FormatR32G32B32A32Sfloat, hal.FormatR32G32Sfloat},
		[]hal.Format{gp.Attributes[0].Format, gp.Attributes[1].Format, gp.Attributes[2].Format})

	before := len(dev.Ops)
	data.Destroy(dev)
	assert.Equal(t, []string{
		"FreeDescriptorSets",
		"DestroyDescriptorPool",
		"DestroyDescriptorSetLayout",
		"DestroyDescriptorSetLayout",
		"DestroyRenderPass",
		"DestroyPipeline",
		"DestroyShaderModule",
		"DestroyShaderModule",
		"DestroyPipelineLayout",
		"DestroySampler",
	}, dev.Ops[before:])
	// only the test's own views are left
	assert.Equal(t, 2, dev.Live(""))
}

func TestPipelineBuildFailureReleasesEverything(t *testing.T) {
	for _, op := range []string{"CreateDescriptorPool", "AllocateDescriptorSets", "CreateShaderModule", "CreateRenderPass", "CreateGraphicsPipeline"} {
		t.Run(op, func(t *testing.T) {
			dev := haltest.NewDevice()
			textures := texturesWithViews(t, dev, 1)
			dev.Fail[op] = errors.New("boom")

			data, err := (&PipelineBuilder{
				Device:         dev,
				Format:         hal.FormatB8G8R8A8Srgb,
				Textures:       textures,
				VertexShader:   testShader,
				FragmentShader: testShader,
			}).Build()
			assert.Nil(t, data)
			assert.True(t, errors.Is(err, core.ErrCreation))
			assert.Equal(t, 1, dev.Live(""))
		})
	}
}
