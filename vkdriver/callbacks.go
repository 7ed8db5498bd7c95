package vkdriver

import (
	"sync"
	"unsafe"

	"github.com/andewx/learnvk"
	"github.com/ebitengine/purego"
	vk "github.com/vulkan-go/vulkan"
	"go.uber.org/zap"
)

// allocationCallbacks mirrors the layout of VkAllocationCallbacks. The
// internal allocation notifications are left null.
type allocationCallbacks struct {
	userData           uintptr
	allocation         uintptr
	reallocation       uintptr
	free               uintptr
	internalAllocation uintptr
	internalFree       uintptr
}

// trampolines are created once per process; purego never releases callbacks.
var (
	trampolinesOnce sync.Once
	trampolines     struct {
		allocation, reallocation, free uintptr
	}

	// hostsMu guards hosts and serializes calls into the host allocators,
	// which the API may invoke from its own threads.
	hostsMu  sync.Mutex
	hosts    = make(map[uintptr]*learnvk.HostAllocator)
	nextHost uintptr
)

func initTrampolines() bool {
	trampolinesOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				learnvk.Logger().Warn("allocation callbacks unavailable on this platform", zap.Any("reason", r))
				trampolines.allocation = 0
			}
		}()
		trampolines.allocation = purego.NewCallback(allocationTrampoline)
		trampolines.reallocation = purego.NewCallback(reallocationTrampoline)
		trampolines.free = purego.NewCallback(freeTrampoline)
	})
	return trampolines.allocation != 0
}

func registerHost(h *learnvk.HostAllocator) uintptr {
	hostsMu.Lock()
	defer hostsMu.Unlock()
	nextHost++
	hosts[nextHost] = h
	return nextHost
}

func unregisterHost(key uintptr) {
	hostsMu.Lock()
	defer hostsMu.Unlock()
	delete(hosts, key)
}

func allocationTrampoline(userData, size, alignment uintptr, scope uint32) unsafe.Pointer {
	hostsMu.Lock()
	defer hostsMu.Unlock()
	h := hosts[userData]
	if h == nil {
		return nil
	}
	return h.Allocate(size, alignment, learnvk.AllocationScope(scope))
}

func reallocationTrampoline(userData uintptr, original unsafe.Pointer, size, alignment uintptr, scope uint32) unsafe.Pointer {
	hostsMu.Lock()
	defer hostsMu.Unlock()
	h := hosts[userData]
	if h == nil {
		return nil
	}
	return h.Reallocate(original, size, alignment, learnvk.AllocationScope(scope))
}

func freeTrampoline(userData uintptr, memory unsafe.Pointer) {
	hostsMu.Lock()
	defer hostsMu.Unlock()
	if h := hosts[userData]; h != nil {
		h.Free(memory)
	}
}

type hostCallbacks struct {
	key       uintptr
	callbacks *vk.AllocationCallbacks
}

// callbacks returns the allocation callbacks routed to h, building them on
// first use. A nil h, or a platform without callback support, yields nil and
// the API falls back to its own allocator.
func (d *Driver) callbacks(h *learnvk.HostAllocator) *vk.AllocationCallbacks {
	if h == nil || !initTrampolines() {
		return nil
	}
	if hc, ok := d.hosts[h]; ok {
		return hc.callbacks
	}
	cb := vk.NewAllocationCallbacks()
	key := registerHost(h)
	*(*allocationCallbacks)(unsafe.Pointer(cb)) = allocationCallbacks{
		userData:     key,
		allocation:   trampolines.allocation,
		reallocation: trampolines.reallocation,
		free:         trampolines.free,
	}
	d.hosts[h] = hostCallbacks{key: key, callbacks: cb}
	return cb
}

// Close releases the allocation callbacks built for the driver's host
// allocators. Call it after every API object has been destroyed.
func (d *Driver) Close() {
	for h, hc := range d.hosts {
		unregisterHost(hc.key)
		hc.callbacks.Free()
		delete(d.hosts, h)
	}
}
