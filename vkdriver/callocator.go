package vkdriver

// #include <stdlib.h>
import "C"

import (
	"unsafe"

	"github.com/andewx/learnvk"
)

const ptrSize = unsafe.Sizeof(uintptr(0))

// CAllocator returns a learnvk.Allocator on the C heap. Memory handed to the
// API through allocation callbacks must not live on the Go heap, so pass
// this allocator to learnvk.InitGraphicsLibrary when using Driver.
func CAllocator() learnvk.Allocator {
	return learnvk.Allocator{
		Alloc: func(_ unsafe.Pointer, size uintptr) unsafe.Pointer {
			return C.malloc(C.size_t(size))
		},
		AllocAligned: cAllocAligned,
		Realloc: func(_ unsafe.Pointer, p unsafe.Pointer, size uintptr) unsafe.Pointer {
			return C.realloc(p, C.size_t(size))
		},
		Free: func(_ unsafe.Pointer, p unsafe.Pointer) {
			C.free(p)
		},
		FreeAligned: func(_ unsafe.Pointer, p unsafe.Pointer) {
			if p != nil {
				C.free(*(*unsafe.Pointer)(unsafe.Add(p, -int(ptrSize))))
			}
		},
	}
}

// cAllocAligned over-allocates and stores the malloc pointer in the word
// just below the aligned block. alignment is a power of two.
func cAllocAligned(_ unsafe.Pointer, size, alignment uintptr) unsafe.Pointer {
	raw := C.malloc(C.size_t(size + alignment + ptrSize))
	if raw == nil {
		return nil
	}
	first := uintptr(raw) + ptrSize
	off := ptrSize + (alignment-first%alignment)%alignment
	p := unsafe.Add(raw, off)
	*(*unsafe.Pointer)(unsafe.Add(p, -int(ptrSize))) = raw
	return p
}
