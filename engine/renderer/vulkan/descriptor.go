package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendermatic/engine/containers"
	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

func (d *Device) CreateDescriptorSetLayout(bindings []hal.DescriptorSetLayoutBinding) (hal.DescriptorSetLayout, error) {
	vkBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		vkBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  vk.DescriptorType(b.Type),
			DescriptorCount: b.Count,
			StageFlags:      vk.ShaderStageFlags(b.Stages),
		}
	}

	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(vkBindings)),
		PBindings:    vkBindings,
	}

	var layout vk.DescriptorSetLayout
	if err := check(vk.CreateDescriptorSetLayout(d.logical, &layoutInfo, nil, &layout), core.ErrCreation, "vkCreateDescriptorSetLayout"); err != nil {
		return hal.DescriptorSetLayout{}, err
	}
	return hal.DescriptorSetLayout{Handle: track(d.locks, DescriptorManagement, d.objects.setLayouts, layout)}, nil
}

func (d *Device) DestroyDescriptorSetLayout(l hal.DescriptorSetLayout) {
	if layout, ok := untrack(d.locks, DescriptorManagement, d.objects.setLayouts, l.Handle); ok {
		vk.DestroyDescriptorSetLayout(d.logical, layout, nil)
	}
}

// CreateDescriptorPool creates a pool whose sets can be freed individually.
// Sizes with a zero count are dropped since Vulkan rejects them.
func (d *Device) CreateDescriptorPool(info hal.DescriptorPoolInfo) (hal.DescriptorPool, error) {
	sizes := make([]vk.DescriptorPoolSize, 0, len(info.Sizes))
	for _, s := range info.Sizes {
		if s.Count == 0 {
			continue
		}
		sizes = append(sizes, vk.DescriptorPoolSize{
			Type:            vk.DescriptorType(s.Type),
			DescriptorCount: s.Count,
		})
	}

	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       info.MaxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}

	var pool vk.DescriptorPool
	if err := check(vk.CreateDescriptorPool(d.logical, &poolInfo, nil, &pool), core.ErrCreation, "vkCreateDescriptorPool"); err != nil {
		return hal.DescriptorPool{}, err
	}
	return hal.DescriptorPool{Handle: track(d.locks, DescriptorManagement, d.objects.descriptorPools, pool)}, nil
}

// DestroyDescriptorPool also forgets every set still allocated from it.
func (d *Device) DestroyDescriptorPool(p hal.DescriptorPool) {
	_ = d.locks.SafeCall(DescriptorManagement, func() error {
		pool, ok := d.objects.descriptorPools.Remove(p.Handle)
		if !ok {
			return nil
		}
		var orphans []hal.DescriptorSet
		d.objects.descriptorSets.Each(func(h containers.Handle, s descriptorSet) bool {
			if s.pool == p {
				orphans = append(orphans, hal.DescriptorSet{Handle: h})
			}
			return true
		})
		for _, s := range orphans {
			d.objects.descriptorSets.Remove(s.Handle)
		}
		vk.DestroyDescriptorPool(d.logical, pool, nil)
		return nil
	})
}

func (d *Device) AllocateDescriptorSets(pool hal.DescriptorPool, layouts []hal.DescriptorSetLayout) ([]hal.DescriptorSet, error) {
	if len(layouts) == 0 {
		return nil, nil
	}
	vkPool, ok := d.objects.descriptorPools.Get(pool.Handle)
	if !ok {
		return nil, core.Errorf(core.ErrCreation, "unknown descriptor pool %v", pool)
	}

	vkLayouts := make([]vk.DescriptorSetLayout, len(layouts))
	for i, l := range layouts {
		vkLayouts[i] = lookup(d.objects.setLayouts, l.Handle)
	}

	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     vkPool,
		DescriptorSetCount: uint32(len(vkLayouts)),
		PSetLayouts:        vkLayouts,
	}

	sets := make([]vk.DescriptorSet, len(vkLayouts))
	if err := check(vk.AllocateDescriptorSets(d.logical, &allocateInfo, &sets[0]), core.ErrCreation, "vkAllocateDescriptorSets"); err != nil {
		return nil, err
	}

	out := make([]hal.DescriptorSet, len(sets))
	for i, s := range sets {
		out[i] = hal.DescriptorSet{Handle: track(d.locks, DescriptorManagement, d.objects.descriptorSets, descriptorSet{handle: s, pool: pool})}
	}
	return out, nil
}

func (d *Device) FreeDescriptorSets(pool hal.DescriptorPool, sets []hal.DescriptorSet) error {
	vkPool, ok := d.objects.descriptorPools.Get(pool.Handle)
	if !ok {
		return core.Errorf(core.ErrLogic, "unknown descriptor pool %v", pool)
	}

	vkSets := make([]vk.DescriptorSet, 0, len(sets))
	for _, s := range sets {
		if set, ok := untrack(d.locks, DescriptorManagement, d.objects.descriptorSets, s.Handle); ok {
			vkSets = append(vkSets, set.handle)
		}
	}
	if len(vkSets) == 0 {
		return nil
	}
	return check(vk.FreeDescriptorSets(d.logical, vkPool, uint32(len(vkSets)), &vkSets[0]), core.ErrLogic, "vkFreeDescriptorSets")
}

func (d *Device) UpdateDescriptorSets(writes []hal.DescriptorWrite) {
	if len(writes) == 0 {
		return
	}

	vkWrites := make([]vk.WriteDescriptorSet, len(writes))
	for i, w := range writes {
		vkWrites[i] = vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          lookup(d.objects.descriptorSets, w.Set.Handle).handle,
			DstBinding:      w.Binding,
			DstArrayElement: 0,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorType(w.Type),
			PImageInfo: []vk.DescriptorImageInfo{{
				Sampler:     lookup(d.objects.samplers, w.Sampler.Handle),
				ImageView:   lookup(d.objects.views, w.View.Handle),
				ImageLayout: vk.ImageLayout(w.Layout),
			}},
		}
	}
	vk.UpdateDescriptorSets(d.logical, uint32(len(vkWrites)), vkWrites, 0, nil)
}
