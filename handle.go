package learnvk

// Handle addresses a native record in a slotTable. The low 32 bits hold the
// slot index plus one, the high 32 bits the slot generation at insert time.
// The zero Handle never resolves.
type Handle uint64

const InvalidHandle Handle = 0

func makeHandle(slot int, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(uint32(slot+1)))
}

func (h Handle) slot() int {
	return int(uint32(h)) - 1
}

func (h Handle) generation() uint32 {
	return uint32(h >> 32)
}

type slotEntry[R any] struct {
	gen uint32
	rec *R
}

// slotTable stores records of one type. Removing a record bumps the slot
// generation so older handles to the slot stop resolving.
type slotTable[R any] struct {
	slots []slotEntry[R]
	free  []int
	live  int
}

func (t *slotTable[R]) insert(rec *R) Handle {
	t.live++
	if n := len(t.free); n > 0 {
		i := t.free[n-1]
		t.free = t.free[:n-1]
		t.slots[i].rec = rec
		return makeHandle(i, t.slots[i].gen)
	}
	t.slots = append(t.slots, slotEntry[R]{rec: rec})
	return makeHandle(len(t.slots)-1, 0)
}

func (t *slotTable[R]) get(h Handle) *R {
	i := h.slot()
	if i < 0 || i >= len(t.slots) {
		return nil
	}
	e := &t.slots[i]
	if e.gen != h.generation() {
		return nil
	}
	return e.rec
}

func (t *slotTable[R]) remove(h Handle) *R {
	rec := t.get(h)
	if rec == nil {
		return nil
	}
	i := h.slot()
	t.slots[i].rec = nil
	t.slots[i].gen++
	t.free = append(t.free, i)
	t.live--
	return rec
}

func (t *slotTable[R]) len() int {
	return t.live
}

// registry owns every record created under one GraphicsLibrary.
type registry struct {
	driver Driver
	host   *HostAllocator

	libraries       slotTable[libraryRecord]
	instances       slotTable[instanceRecord]
	surfaces        slotTable[surfaceRecord]
	physicalDevices slotTable[physicalDeviceRecord]
	devices         slotTable[renderDeviceRecord]
	queues          slotTable[queueRecord]
	pools           slotTable[commandPoolRecord]
	buffers         slotTable[commandBufferRecord]
}

// liveRecords counts the native records currently held by the registry.
func (r *registry) liveRecords() int {
	return r.libraries.len() + r.instances.len() + r.surfaces.len() +
		r.physicalDevices.len() + r.devices.len() + r.queues.len() +
		r.pools.len() + r.buffers.len()
}
