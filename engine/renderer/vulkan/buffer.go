package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

func (d *Device) CreateBuffer(info hal.BufferInfo) (hal.Buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(info.Size),
		Usage:       vk.BufferUsageFlags(info.Usage),
		SharingMode: vk.SharingModeExclusive,
	}

	var buffer vk.Buffer
	if err := check(vk.CreateBuffer(d.logical, &createInfo, nil, &buffer), core.ErrCreation, "vkCreateBuffer"); err != nil {
		return hal.Buffer{}, err
	}

	return hal.Buffer{Handle: track(d.locks, ResourceManagement, d.objects.buffers, buffer)}, nil
}

func (d *Device) DestroyBuffer(b hal.Buffer) {
	if buffer, ok := untrack(d.locks, ResourceManagement, d.objects.buffers, b.Handle); ok {
		vk.DestroyBuffer(d.logical, buffer, nil)
	}
}

func (d *Device) BufferRequirements(b hal.Buffer) hal.MemoryRequirements {
	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.logical, lookup(d.objects.buffers, b.Handle), &reqs)
	reqs.Deref()
	return memoryRequirements(reqs)
}

func (d *Device) BindBufferMemory(b hal.Buffer, mem hal.Memory, offset uint64) error {
	buffer, ok := d.objects.buffers.Get(b.Handle)
	if !ok {
		return core.Errorf(core.ErrBind, "unknown buffer %v", b)
	}
	memory, ok := d.objects.memory.Get(mem.Handle)
	if !ok {
		return core.Errorf(core.ErrBind, "unknown memory %v", mem)
	}
	return check(vk.BindBufferMemory(d.logical, buffer, memory, vk.DeviceSize(offset)), core.ErrBind, "vkBindBufferMemory")
}

func (d *Device) AllocateMemory(size uint64, typeIndex uint32) (hal.Memory, error) {
	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: typeIndex,
	}

	var memory vk.DeviceMemory
	if err := check(vk.AllocateMemory(d.logical, &allocateInfo, nil, &memory), core.ErrOutOfMemory, "vkAllocateMemory"); err != nil {
		return hal.Memory{}, err
	}

	return hal.Memory{Handle: track(d.locks, MemoryManagement, d.objects.memory, memory)}, nil
}

func (d *Device) FreeMemory(mem hal.Memory) {
	if memory, ok := untrack(d.locks, MemoryManagement, d.objects.memory, mem.Handle); ok {
		vk.FreeMemory(d.logical, memory, nil)
	}
}

func (d *Device) MapMemory(mem hal.Memory, offset, size uint64) ([]byte, error) {
	memory, ok := d.objects.memory.Get(mem.Handle)
	if !ok {
		return nil, core.Errorf(core.ErrMapping, "unknown memory %v", mem)
	}

	var data unsafe.Pointer
	if err := check(vk.MapMemory(d.logical, memory, vk.DeviceSize(offset), vk.DeviceSize(size), 0, &data), core.ErrMapping, "vkMapMemory"); err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(data), size), nil
}

func (d *Device) UnmapMemory(mem hal.Memory) {
	if memory, ok := d.objects.memory.Get(mem.Handle); ok {
		vk.UnmapMemory(d.logical, memory)
	}
}

func memoryRequirements(reqs vk.MemoryRequirements) hal.MemoryRequirements {
	return hal.MemoryRequirements{
		Size:      uint64(reqs.Size),
		Alignment: uint64(reqs.Alignment),
		TypeBits:  reqs.MemoryTypeBits,
	}
}
