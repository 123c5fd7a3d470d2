package renderer

import (
	"github.com/spaghettifunk/rendermatic/engine/containers"
	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

// MemoryBlock is one device allocation shared by several buffers or images.
// Resources are bound back to back without overlap.
type MemoryBlock struct {
	Memory     hal.Memory
	Size       uint64
	TypeIndex  uint32
	Properties hal.MemoryPropertyFlags
}

// SelectMemoryType returns the first memory type usable by every requirement
// whose property flags include props.
func SelectMemoryType(reqs []hal.MemoryRequirements, types []hal.MemoryType, props hal.MemoryPropertyFlags) (uint32, error) {
	mask := ^uint32(0)
	for _, r := range reqs {
		mask &= r.TypeBits
	}
	for i, t := range types {
		if i >= 32 {
			break
		}
		if mask&(1<<uint(i)) != 0 && t.PropertyFlags.Has(props) {
			return uint32(i), nil
		}
	}
	return 0, core.Errorf(core.ErrNoSuitableMemory, "no memory type in mask %#b with properties %#x", mask, props)
}

type MemoryAllocator struct {
	dev hal.Device
}

func NewMemoryAllocator(dev hal.Device) *MemoryAllocator {
	return &MemoryAllocator{dev: dev}
}

// AllocateBuffers backs every buffer with one allocation, in order. Each
// buffer's Offset is the end of the previous one rounded up to the buffer's
// required alignment.
func (a *MemoryAllocator) AllocateBuffers(buffers []*BufferObject, props hal.MemoryPropertyFlags) (*MemoryBlock, error) {
	reqs := make([]hal.MemoryRequirements, len(buffers))
	for i, b := range buffers {
		reqs[i] = b.Requirements
	}
	return a.allocate(reqs, props, func(i int, block *MemoryBlock, offset uint64) error {
		buffers[i].Offset = offset
		if err := a.dev.BindBufferMemory(buffers[i].Handle, block.Memory, offset); err != nil {
			return core.Wrapf(err, core.ErrBind, "binding buffer %d at offset %d", i, offset)
		}
		return nil
	})
}

// AllocateImages backs every texture image with one device local allocation.
func (a *MemoryAllocator) AllocateImages(textures []*Texture) (*MemoryBlock, error) {
	reqs := make([]hal.MemoryRequirements, len(textures))
	for i, t := range textures {
		if t.state != TextureImageCreated {
			return nil, core.Errorf(core.ErrLogic, "texture %d is %s, expected %s", t.Index, t.state, TextureImageCreated)
		}
		reqs[i] = t.Requirements
	}
	return a.allocate(reqs, hal.MemoryPropertyDeviceLocal, func(i int, block *MemoryBlock, offset uint64) error {
		t := textures[i]
		t.Offset = offset
		if err := a.dev.BindImageMemory(t.Image, block.Memory, offset); err != nil {
			return core.Wrapf(err, core.ErrBind, "binding texture %d at offset %d", t.Index, offset)
		}
		t.state = TextureBound
		return nil
	})
}

func (a *MemoryAllocator) allocate(reqs []hal.MemoryRequirements, props hal.MemoryPropertyFlags, bind func(i int, block *MemoryBlock, offset uint64) error) (*MemoryBlock, error) {
	typeIndex, err := SelectMemoryType(reqs, a.dev.MemoryTypes(), props)
	if err != nil {
		return nil, err
	}

	offsets, total := layout(reqs)

	mem, err := a.dev.AllocateMemory(total, typeIndex)
	if err != nil {
		return nil, core.Wrapf(err, core.ErrOutOfMemory, "allocating %d bytes from memory type %d", total, typeIndex)
	}
	block := &MemoryBlock{
		Memory:     mem,
		Size:       total,
		TypeIndex:  typeIndex,
		Properties: a.dev.MemoryTypes()[typeIndex].PropertyFlags,
	}

	var running uint64
	for i, r := range reqs {
		if err := bind(i, block, offsets[i]); err != nil {
			a.Free(block)
			return nil, err
		}
		running = offsets[i] + r.Size
	}
	if running != total {
		a.Free(block)
		return nil, core.Errorf(core.ErrLogic, "bound %d bytes of a %d byte block", running, total)
	}

	core.LogDebug("allocated %d bytes (type %d) for %d resources", total, typeIndex, len(reqs))
	return block, nil
}

// layout places the resources back to back, each at the next multiple of its
// alignment, and returns their offsets and the block size.
func layout(reqs []hal.MemoryRequirements) ([]uint64, uint64) {
	offsets := make([]uint64, len(reqs))
	var end uint64
	for i, r := range reqs {
		offsets[i] = containers.AlignUp(end, r.Alignment)
		end = offsets[i] + r.Size
	}
	return offsets, end
}

func (a *MemoryAllocator) Free(block *MemoryBlock) {
	if block == nil || block.Memory.IsNil() {
		return
	}
	a.dev.FreeMemory(block.Memory)
	block.Memory = hal.Memory{}
}
