package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

var colorSubresourceRange = vk.ImageSubresourceRange{
	AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
	BaseMipLevel:   0,
	LevelCount:     1,
	BaseArrayLayer: 0,
	LayerCount:     1,
}

func (d *Device) CreateImage(info hal.ImageInfo) (hal.Image, error) {
	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    vk.Format(info.Format),
		Extent: vk.Extent3D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(info.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	var handle vk.Image
	if err := check(vk.CreateImage(d.logical, &createInfo, nil, &handle), core.ErrCreation, "vkCreateImage"); err != nil {
		return hal.Image{}, err
	}

	return hal.Image{Handle: track(d.locks, ResourceManagement, d.objects.images, image{handle: handle, owned: true})}, nil
}

func (d *Device) DestroyImage(img hal.Image) {
	_ = d.locks.SafeCall(ResourceManagement, func() error {
		i, ok := d.objects.images.Get(img.Handle)
		if !ok || !i.owned {
			return nil
		}
		d.objects.images.Remove(img.Handle)
		vk.DestroyImage(d.logical, i.handle, nil)
		return nil
	})
}

func (d *Device) ImageRequirements(img hal.Image) hal.MemoryRequirements {
	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.logical, lookup(d.objects.images, img.Handle).handle, &reqs)
	reqs.Deref()
	return memoryRequirements(reqs)
}

func (d *Device) BindImageMemory(img hal.Image, mem hal.Memory, offset uint64) error {
	i, ok := d.objects.images.Get(img.Handle)
	if !ok {
		return core.Errorf(core.ErrBind, "unknown image %v", img)
	}
	memory, ok := d.objects.memory.Get(mem.Handle)
	if !ok {
		return core.Errorf(core.ErrBind, "unknown memory %v", mem)
	}
	return check(vk.BindImageMemory(d.logical, i.handle, memory, vk.DeviceSize(offset)), core.ErrBind, "vkBindImageMemory")
}

func (d *Device) CreateImageView(info hal.ImageViewInfo) (hal.ImageView, error) {
	i, ok := d.objects.images.Get(info.Image.Handle)
	if !ok {
		return hal.ImageView{}, core.Errorf(core.ErrCreation, "unknown image %v", info.Image)
	}

	viewInfo := vk.ImageViewCreateInfo{
		SType:            vk.StructureTypeImageViewCreateInfo,
		Image:            i.handle,
		ViewType:         vk.ImageViewType2d,
		Format:           vk.Format(info.Format),
		SubresourceRange: colorSubresourceRange,
	}

	var view vk.ImageView
	if err := check(vk.CreateImageView(d.logical, &viewInfo, nil, &view), core.ErrCreation, "vkCreateImageView"); err != nil {
		return hal.ImageView{}, err
	}

	return hal.ImageView{Handle: track(d.locks, ResourceManagement, d.objects.views, view)}, nil
}

func (d *Device) DestroyImageView(v hal.ImageView) {
	if view, ok := untrack(d.locks, ResourceManagement, d.objects.views, v.Handle); ok {
		vk.DestroyImageView(d.logical, view, nil)
	}
}

func (d *Device) CreateSampler(info hal.SamplerInfo) (hal.Sampler, error) {
	address := vk.SamplerAddressMode(info.AddressMode)
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.Filter(info.MagFilter),
		MinFilter:               vk.Filter(info.MinFilter),
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            address,
		AddressModeV:            address,
		AddressModeW:            address,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1.0,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
	}

	var sampler vk.Sampler
	if err := check(vk.CreateSampler(d.logical, &samplerInfo, nil, &sampler), core.ErrCreation, "vkCreateSampler"); err != nil {
		return hal.Sampler{}, err
	}

	return hal.Sampler{Handle: track(d.locks, ResourceManagement, d.objects.samplers, sampler)}, nil
}

func (d *Device) DestroySampler(s hal.Sampler) {
	if sampler, ok := untrack(d.locks, ResourceManagement, d.objects.samplers, s.Handle); ok {
		vk.DestroySampler(d.logical, sampler, nil)
	}
}
