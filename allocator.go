package learnvk

import (
	"unsafe"

	"go.uber.org/zap"
)

const defaultAlignment = 16

// Allocator is a caller supplied host allocator. If any function is nil the
// whole default allocator is used instead; partial overrides are not honored.
type Allocator struct {
	Alloc        func(userData unsafe.Pointer, size uintptr) unsafe.Pointer
	AllocAligned func(userData unsafe.Pointer, size, alignment uintptr) unsafe.Pointer
	Realloc      func(userData unsafe.Pointer, p unsafe.Pointer, size uintptr) unsafe.Pointer
	Free         func(userData unsafe.Pointer, p unsafe.Pointer)
	FreeAligned  func(userData unsafe.Pointer, p unsafe.Pointer)
	UserData     unsafe.Pointer
}

func (a Allocator) complete() bool {
	return a.Alloc != nil && a.AllocAligned != nil && a.Realloc != nil &&
		a.Free != nil && a.FreeAligned != nil
}

// DefaultAllocator returns an allocator backed by the Go heap. Blocks stay
// reachable until freed.
func DefaultAllocator() Allocator {
	h := &heapAllocator{blocks: make(map[unsafe.Pointer]heapBlock)}
	return Allocator{
		Alloc: func(_ unsafe.Pointer, size uintptr) unsafe.Pointer {
			return h.alloc(size, defaultAlignment)
		},
		AllocAligned: func(_ unsafe.Pointer, size, alignment uintptr) unsafe.Pointer {
			return h.alloc(size, alignment)
		},
		Realloc: func(_ unsafe.Pointer, p unsafe.Pointer, size uintptr) unsafe.Pointer {
			return h.realloc(p, size)
		},
		Free: func(_ unsafe.Pointer, p unsafe.Pointer) {
			h.free(p)
		},
		FreeAligned: func(_ unsafe.Pointer, p unsafe.Pointer) {
			h.free(p)
		},
	}
}

type heapBlock struct {
	buf       []byte
	size      uintptr
	alignment uintptr
}

type heapAllocator struct {
	blocks map[unsafe.Pointer]heapBlock
}

func (h *heapAllocator) alloc(size, alignment uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	if alignment == 0 {
		alignment = 1
	}
	buf := make([]byte, size+alignment-1)
	base := uintptr(unsafe.Pointer(&buf[0]))
	pad := (alignment - base%alignment) % alignment
	p := unsafe.Pointer(&buf[pad])
	h.blocks[p] = heapBlock{buf: buf, size: size, alignment: alignment}
	return p
}

func (h *heapAllocator) realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	if p == nil {
		return h.alloc(size, defaultAlignment)
	}
	old, ok := h.blocks[p]
	if !ok {
		return nil
	}
	if size == 0 {
		h.free(p)
		return nil
	}
	np := h.alloc(size, old.alignment)
	copy(unsafe.Slice((*byte)(np), size), unsafe.Slice((*byte)(p), min(size, old.size)))
	h.free(p)
	return np
}

func (h *heapAllocator) free(p unsafe.Pointer) {
	delete(h.blocks, p)
}

// AllocationScope mirrors VkSystemAllocationScope.
type AllocationScope uint32

const (
	ScopeCommand AllocationScope = iota
	ScopeObject
	ScopeCache
	ScopeDevice
	ScopeInstance
)

type allocationHeader struct {
	size      uintptr
	alignment uintptr
}

const headerSize = unsafe.Sizeof(allocationHeader{})

// headerOffset is the distance from the start of the underlying block to the
// user pointer: the larger of alignment and headerSize, rounded up to alignment.
func headerOffset(alignment uintptr) uintptr {
	off := max(alignment, headerSize)
	return (off + alignment - 1) &^ (alignment - 1)
}

// HostAllocator exposes an Allocator in the shape of the backing API's
// allocation callbacks. Each live block is prefixed with a header recording
// its size and alignment so Free and Reallocate can recover them.
type HostAllocator struct {
	alloc Allocator
}

// NewHostAllocator wraps a. An incomplete allocator is replaced by
// DefaultAllocator.
func NewHostAllocator(a Allocator) *HostAllocator {
	if !a.complete() {
		if a.Alloc != nil || a.AllocAligned != nil || a.Realloc != nil || a.Free != nil || a.FreeAligned != nil {
			Logger().Warn("incomplete allocator supplied, using default allocator")
		}
		a = DefaultAllocator()
	}
	return &HostAllocator{alloc: a}
}

func normalizeAlignment(alignment uintptr) uintptr {
	if alignment == 0 {
		return 1
	}
	return alignment
}

func header(p unsafe.Pointer) *allocationHeader {
	return (*allocationHeader)(unsafe.Add(p, -int(headerSize)))
}

func (h *HostAllocator) Allocate(size, alignment uintptr, scope AllocationScope) unsafe.Pointer {
	alignment = normalizeAlignment(alignment)
	off := headerOffset(alignment)
	var base unsafe.Pointer
	if alignment <= defaultAlignment {
		base = h.alloc.Alloc(h.alloc.UserData, off+size)
	} else {
		base = h.alloc.AllocAligned(h.alloc.UserData, off+size, alignment)
	}
	if base == nil {
		Logger().Error("host allocation failed",
			zap.Uintptr("size", size), zap.Uintptr("alignment", alignment), zap.Uint32("scope", uint32(scope)))
		return nil
	}
	p := unsafe.Add(base, off)
	*header(p) = allocationHeader{size: size, alignment: alignment}
	return p
}

func (h *HostAllocator) Reallocate(p unsafe.Pointer, size, alignment uintptr, scope AllocationScope) unsafe.Pointer {
	if p == nil {
		return h.Allocate(size, alignment, scope)
	}
	if size == 0 {
		h.Free(p)
		return nil
	}
	alignment = normalizeAlignment(alignment)
	old := *header(p)
	if old.alignment == alignment && alignment <= defaultAlignment {
		off := headerOffset(alignment)
		base := h.alloc.Realloc(h.alloc.UserData, unsafe.Add(p, -int(off)), off+size)
		if base == nil {
			return nil
		}
		np := unsafe.Add(base, off)
		header(np).size = size
		return np
	}
	np := h.Allocate(size, alignment, scope)
	if np == nil {
		return nil
	}
	copy(unsafe.Slice((*byte)(np), size), unsafe.Slice((*byte)(p), min(size, old.size)))
	h.Free(p)
	return np
}

func (h *HostAllocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	hdr := *header(p)
	base := unsafe.Add(p, -int(headerOffset(hdr.alignment)))
	if hdr.alignment <= defaultAlignment {
		h.alloc.Free(h.alloc.UserData, base)
	} else {
		h.alloc.FreeAligned(h.alloc.UserData, base)
	}
}

// recordBlock charges a native record of the given size to the allocator.
// The block is returned through releaseBlock when the record is released.
func (h *HostAllocator) recordBlock(op string, size uintptr) (unsafe.Pointer, error) {
	p := h.Allocate(size, unsafe.Alignof(uintptr(0)), ScopeObject)
	if p == nil {
		return nil, newErr(op, KindAllocation)
	}
	return p, nil
}

func (h *HostAllocator) releaseBlock(p unsafe.Pointer) {
	h.Free(p)
}
