package renderer

import (
	"unsafe"

	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/engine/renderer/hal"
)

type BufferObject struct {
	Handle       hal.Buffer
	Requirements hal.MemoryRequirements
	// Offset inside the MemoryBlock the buffer is bound to.
	Offset uint64
	Usage  hal.BufferUsageFlags
}

func NewBufferObject(dev hal.Device, size uint64, usage hal.BufferUsageFlags) (*BufferObject, error) {
	h, err := dev.CreateBuffer(hal.BufferInfo{Size: size, Usage: usage})
	if err != nil {
		return nil, core.Wrapf(err, core.ErrCreation, "creating %d byte buffer", size)
	}
	return &BufferObject{
		Handle:       h,
		Requirements: dev.BufferRequirements(h),
		Usage:        usage,
	}, nil
}

func (b *BufferObject) Destroy(dev hal.Device) {
	if b == nil || b.Handle.IsNil() {
		return
	}
	dev.DestroyBuffer(b.Handle)
	b.Handle = hal.Buffer{}
}

// CopyDataToBuffer writes data at the start of buf. The memory is unmapped
// before returning, whatever the outcome.
func CopyDataToBuffer[T any](dev hal.Device, block *MemoryBlock, buf *BufferObject, data []T) error {
	if len(data) == 0 {
		return nil
	}
	size := uint64(len(data)) * uint64(unsafe.Sizeof(data[0]))
	if size > buf.Requirements.Size {
		return core.Errorf(core.ErrCapacity, "%d bytes do not fit in a %d byte buffer", size, buf.Requirements.Size)
	}

	dst, err := dev.MapMemory(block.Memory, buf.Offset, buf.Requirements.Size)
	if err != nil {
		return core.Wrapf(err, core.ErrMapping, "mapping buffer at offset %d", buf.Offset)
	}
	defer dev.UnmapMemory(block.Memory)

	copy(dst, unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), size))
	return nil
}
