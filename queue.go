package learnvk

import "unsafe"

type queueRecord struct {
	device   Handle
	native   NativeQueue
	block    unsafe.Pointer
	index    uint32
	priority QueuePriority
	family   QueueFamilyRecord
}

// Queue is one device queue. Queues are retrieved, not created, so releasing
// one only drops its record.
type Queue struct {
	reg *registry
	h   Handle
}

func (d RenderDevice) newQueue(op string, slot queueSlot, fam QueueFamilyRecord) (Queue, error) {
	rec := d.record()
	native := d.reg.driver.GetDeviceQueue(rec.native, uint32(slot.familyIndex), slot.queueIndex)
	if native == 0 {
		return Queue{}, backingErr(op, ErrorInitializationFailed)
	}
	block, err := d.reg.host.recordBlock(op, unsafe.Sizeof(queueRecord{}))
	if err != nil {
		return Queue{}, err
	}
	h := d.reg.queues.insert(&queueRecord{
		device:   d.h,
		native:   native,
		block:    block,
		index:    slot.queueIndex,
		priority: slot.priority,
		family:   fam,
	})
	return Queue{reg: d.reg, h: h}, nil
}

func (q Queue) record() *queueRecord {
	if q.reg == nil {
		return nil
	}
	return q.reg.queues.get(q.h)
}

func (q Queue) Valid() bool {
	rec := q.record()
	return rec != nil && rec.native != 0
}

func (q Queue) Native() NativeQueue {
	if rec := q.record(); rec != nil {
		return rec.native
	}
	return 0
}

// Index is the queue's index within its family.
func (q Queue) Index() uint32 {
	if rec := q.record(); rec != nil {
		return rec.index
	}
	return 0
}

func (q Queue) FamilyIndex() int {
	if rec := q.record(); rec != nil {
		return rec.family.Index
	}
	return NoFamily
}

func (q Queue) Priority() QueuePriority {
	if rec := q.record(); rec != nil {
		return rec.priority
	}
	return PriorityNormal
}

// Family is the catalog record of the queue's family at device creation.
func (q Queue) Family() QueueFamilyRecord {
	if rec := q.record(); rec != nil {
		return rec.family
	}
	return QueueFamilyRecord{Index: NoFamily}
}

func (q Queue) RenderDevice() RenderDevice {
	if rec := q.record(); rec != nil {
		return RenderDevice{reg: q.reg, h: rec.device}
	}
	return RenderDevice{}
}

func (q *Queue) Release() {
	rec := q.record()
	if rec == nil {
		*q = Queue{}
		return
	}
	q.reg.queues.remove(q.h)
	q.reg.host.releaseBlock(rec.block)
	*q = Queue{}
}
