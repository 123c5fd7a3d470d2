package vulkan

import (
	"encoding/binary"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

// spirvWords reinterprets little-endian SPIR-V bytes as the word slice
// vkCreateShaderModule takes.
func spirvWords(code []byte) ([]uint32, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, core.Errorf(core.ErrCreation, "SPIR-V length %d is not a positive multiple of 4", len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return words, nil
}

func (d *Device) CreateShaderModule(code []byte) (hal.ShaderModule, error) {
	words, err := spirvWords(code)
	if err != nil {
		return hal.ShaderModule{}, err
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    words,
	}

	var module vk.ShaderModule
	if err := check(vk.CreateShaderModule(d.logical, &createInfo, nil, &module), core.ErrCreation, "vkCreateShaderModule"); err != nil {
		return hal.ShaderModule{}, err
	}
	return hal.ShaderModule{Handle: track(d.locks, PipelineManagement, d.objects.shaders, module)}, nil
}

func (d *Device) DestroyShaderModule(m hal.ShaderModule) {
	if module, ok := untrack(d.locks, PipelineManagement, d.objects.shaders, m.Handle); ok {
		vk.DestroyShaderModule(d.logical, module, nil)
	}
}

func shaderStage(stage vk.ShaderStageFlagBits, module vk.ShaderModule) vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: module,
		PName:  VulkanSafeString("main"),
	}
}
