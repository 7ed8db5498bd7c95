package learnvk

import (
	"unsafe"

	"go.uber.org/zap"
)

// PoolKind selects how a command pool grows and how returned buffers are reset.
type PoolKind uint8

const (
	// PoolPersistent pools double their capacity when empty and reset each
	// buffer individually when it is returned.
	PoolPersistent PoolKind = iota
	// PoolTransient pools grow by one buffer at a time and only reset all
	// buffers at once through Reset.
	PoolTransient
)

func (k PoolKind) String() string {
	if k == PoolTransient {
		return "transient"
	}
	return "persistent"
}

const noSlot = -1

// poolLevel is the slab of command buffers of one level. Unused slots form an
// intrusive singly linked list starting at lastUnused and chained through
// nextUnused. lastUnused is a valid slot whenever unusedCount > 0.
type poolLevel struct {
	buffers     []CommandBuffer
	nextUnused  []int
	lastUnused  int
	unusedCount int
}

func (l *poolLevel) push(slot int) {
	l.nextUnused[slot] = l.lastUnused
	l.lastUnused = slot
	l.unusedCount++
}

func (l *poolLevel) pop() int {
	slot := l.lastUnused
	l.lastUnused = l.nextUnused[slot]
	l.nextUnused[slot] = noSlot
	l.unusedCount--
	return slot
}

type commandPoolRecord struct {
	device    Handle
	queue     Handle
	native    NativeCommandPool
	block     unsafe.Pointer
	kind      PoolKind
	protected bool
	levels    [levelCount]poolLevel
}

// CommandPool hands out command buffers for one queue family. It is not
// thread-safe; callers using one pool from several goroutines must serialize
// access themselves.
type CommandPool struct {
	reg *registry
	h   Handle
}

func (q Queue) CreatePersistentCommandPool(protected bool) (CommandPool, error) {
	return q.createCommandPool(PoolPersistent, protected)
}

func (q Queue) CreateTransientCommandPool(protected bool) (CommandPool, error) {
	return q.createCommandPool(PoolTransient, protected)
}

func (q Queue) createCommandPool(kind PoolKind, protected bool) (CommandPool, error) {
	const op = "create command pool"
	qrec := q.record()
	if qrec == nil {
		return CommandPool{}, newErr(op, KindInvalidHandle)
	}
	drec := q.reg.devices.get(qrec.device)
	if drec == nil || drec.native == 0 {
		return CommandPool{}, newErr(op, KindInvalidHandle)
	}
	block, err := q.reg.host.recordBlock(op, unsafe.Sizeof(commandPoolRecord{}))
	if err != nil {
		return CommandPool{}, err
	}
	native, ret := q.reg.driver.CreateCommandPool(drec.native, CommandPoolCreateInfo{
		FamilyIndex:     uint32(qrec.family.Index),
		Transient:       kind == PoolTransient,
		ResetIndividual: kind == PoolPersistent,
		Protected:       protected,
	}, q.reg.host)
	if isError(ret) || native == 0 {
		q.reg.host.releaseBlock(block)
		Logger().Error("command pool creation failed", zap.Stringer("kind", kind), zap.Stringer("result", ret))
		return CommandPool{}, backingErr(op, ret)
	}
	rec := &commandPoolRecord{
		device:    qrec.device,
		queue:     q.h,
		native:    native,
		block:     block,
		kind:      kind,
		protected: protected,
	}
	for i := range rec.levels {
		rec.levels[i].lastUnused = noSlot
	}
	pool := CommandPool{reg: q.reg, h: q.reg.pools.insert(rec)}
	drec.pools = append(drec.pools, pool)
	return pool, nil
}

func (p CommandPool) record() *commandPoolRecord {
	if p.reg == nil {
		return nil
	}
	return p.reg.pools.get(p.h)
}

func (p CommandPool) Valid() bool {
	rec := p.record()
	return rec != nil && rec.native != 0
}

func (p CommandPool) Native() NativeCommandPool {
	if rec := p.record(); rec != nil {
		return rec.native
	}
	return 0
}

func (p CommandPool) Kind() PoolKind {
	if rec := p.record(); rec != nil {
		return rec.kind
	}
	return PoolPersistent
}

func (p CommandPool) Protected() bool {
	rec := p.record()
	return rec != nil && rec.protected
}

func (p CommandPool) Queue() Queue {
	if rec := p.record(); rec != nil {
		return Queue{reg: p.reg, h: rec.queue}
	}
	return Queue{}
}

func (p CommandPool) level(level CommandBufferLevel) *poolLevel {
	rec := p.record()
	if rec == nil || int(level) >= levelCount {
		return nil
	}
	return &rec.levels[level]
}

// Capacity is the number of buffers of level allocated by the pool.
func (p CommandPool) Capacity(level CommandBufferLevel) int {
	if l := p.level(level); l != nil {
		return len(l.buffers)
	}
	return 0
}

// UnusedCount is the number of buffers of level ready to be handed out.
func (p CommandPool) UnusedCount(level CommandBufferLevel) int {
	if l := p.level(level); l != nil {
		return l.unusedCount
	}
	return 0
}

// Reserve grows the pool to at least count buffers of level. New buffers go
// on the free list so the lowest new slot is handed out first.
func (p CommandPool) Reserve(count int, level CommandBufferLevel) error {
	const op = "reserve command buffers"
	rec := p.record()
	l := p.level(level)
	if rec == nil || l == nil {
		return newErr(op, KindInvalidHandle)
	}
	capacity := len(l.buffers)
	if count <= capacity {
		return nil
	}
	drec := p.reg.devices.get(rec.device)
	if drec == nil {
		return newErr(op, KindInvalidHandle)
	}
	natives, ret := p.reg.driver.AllocateCommandBuffers(drec.native, rec.native, level, uint32(count-capacity))
	if isError(ret) || len(natives) != count-capacity {
		Logger().Error("command buffer allocation failed",
			zap.Int("count", count-capacity), zap.Stringer("level", level), zap.Stringer("result", ret))
		if len(natives) > 0 {
			p.reg.driver.FreeCommandBuffers(drec.native, rec.native, natives)
		}
		return backingErr(op, ret)
	}

	blocks := make([]unsafe.Pointer, 0, len(natives))
	for range natives {
		block, err := p.reg.host.recordBlock(op, unsafe.Sizeof(commandBufferRecord{}))
		if err != nil {
			for _, b := range blocks {
				p.reg.host.releaseBlock(b)
			}
			p.reg.driver.FreeCommandBuffers(drec.native, rec.native, natives)
			return err
		}
		blocks = append(blocks, block)
	}
	for i, native := range natives {
		slot := capacity + i
		h := p.reg.buffers.insert(&commandBufferRecord{
			pool:   p.h,
			native: native,
			block:  blocks[i],
			level:  level,
			slot:   slot,
		})
		l.buffers = append(l.buffers, CommandBuffer{reg: p.reg, h: h})
		l.nextUnused = append(l.nextUnused, noSlot)
	}
	for slot := count - 1; slot >= capacity; slot-- {
		l.push(slot)
	}
	return nil
}

// CommandBuffer takes an unused buffer of level off the free list, growing
// the pool when none is left. The caller owns the buffer until it is returned.
func (p CommandPool) CommandBuffer(level CommandBufferLevel) (CommandBuffer, error) {
	const op = "get command buffer"
	rec := p.record()
	l := p.level(level)
	if rec == nil || l == nil {
		return CommandBuffer{}, newErr(op, KindInvalidHandle)
	}
	if l.unusedCount == 0 {
		capacity := len(l.buffers)
		grow := capacity + 1
		if rec.kind == PoolPersistent {
			grow = max(capacity*2, 1)
		}
		if err := p.Reserve(grow, level); err != nil {
			return CommandBuffer{}, err
		}
	}
	cb := l.buffers[l.pop()]
	p.reg.buffers.get(cb.h).inUse = true
	return cb, nil
}

// ReturnCommandBuffer puts cb back on the free list and invalidates the
// caller's copy. Persistent pools reset the buffer right away; transient
// pools leave it to Reset.
func (p CommandPool) ReturnCommandBuffer(cb *CommandBuffer) error {
	const op = "return command buffer"
	rec := p.record()
	brec := cb.record()
	if rec == nil || brec == nil || brec.pool != p.h || cb.reg != p.reg {
		return newErr(op, KindInvalidHandle)
	}
	if !brec.inUse {
		*cb = CommandBuffer{}
		return nil
	}
	if rec.kind == PoolPersistent {
		if ret := p.reg.driver.ResetCommandBuffer(brec.native); isError(ret) {
			Logger().Warn("command buffer reset failed", zap.Stringer("result", ret))
		}
	}
	brec.inUse = false
	rec.levels[brec.level].push(brec.slot)
	*cb = CommandBuffer{}
	return nil
}

// Reset resets every buffer of the pool at once.
func (p CommandPool) Reset() error {
	const op = "reset command pool"
	rec := p.record()
	if rec == nil {
		return newErr(op, KindInvalidHandle)
	}
	drec := p.reg.devices.get(rec.device)
	if drec == nil {
		return newErr(op, KindInvalidHandle)
	}
	if ret := p.reg.driver.ResetCommandPool(drec.native, rec.native); isError(ret) {
		return backingErr(op, ret)
	}
	return nil
}

// Release frees every buffer of the pool and destroys it.
func (p *CommandPool) Release() {
	rec := p.record()
	if rec == nil {
		*p = CommandPool{}
		return
	}
	drec := p.reg.devices.get(rec.device)
	for i := range rec.levels {
		l := &rec.levels[i]
		natives := make([]NativeCommandBuffer, 0, len(l.buffers))
		for _, cb := range l.buffers {
			if brec := p.reg.buffers.remove(cb.h); brec != nil {
				natives = append(natives, brec.native)
				p.reg.host.releaseBlock(brec.block)
			}
		}
		if drec != nil && len(natives) > 0 {
			p.reg.driver.FreeCommandBuffers(drec.native, rec.native, natives)
		}
		*l = poolLevel{lastUnused: noSlot}
	}
	if drec != nil && rec.native != 0 {
		p.reg.driver.DestroyCommandPool(drec.native, rec.native, p.reg.host)
	}
	p.reg.pools.remove(p.h)
	p.reg.host.releaseBlock(rec.block)
	*p = CommandPool{}
}

type commandBufferRecord struct {
	pool   Handle
	native NativeCommandBuffer
	block  unsafe.Pointer
	level  CommandBufferLevel
	slot   int
	inUse  bool
}

// CommandBuffer is a slot in a CommandPool. Its record belongs to the pool.
type CommandBuffer struct {
	reg *registry
	h   Handle
}

func (c CommandBuffer) record() *commandBufferRecord {
	if c.reg == nil {
		return nil
	}
	return c.reg.buffers.get(c.h)
}

func (c CommandBuffer) Valid() bool {
	rec := c.record()
	return rec != nil && rec.native != 0
}

func (c CommandBuffer) Native() NativeCommandBuffer {
	if rec := c.record(); rec != nil {
		return rec.native
	}
	return 0
}

func (c CommandBuffer) Level() CommandBufferLevel {
	if rec := c.record(); rec != nil {
		return rec.level
	}
	return LevelPrimary
}

func (c CommandBuffer) Pool() CommandPool {
	if rec := c.record(); rec != nil {
		return CommandPool{reg: c.reg, h: rec.pool}
	}
	return CommandPool{}
}

// ReturnToPool hands the buffer back to the pool it came from.
func (c *CommandBuffer) ReturnToPool() error {
	return c.Pool().ReturnCommandBuffer(c)
}

// Release returns the buffer to its pool. The pool frees the backing buffer
// when it is released itself.
func (c *CommandBuffer) Release() {
	if c.record() == nil {
		*c = CommandBuffer{}
		return
	}
	if err := c.ReturnToPool(); err != nil {
		Logger().Warn("command buffer release failed", zap.Error(err))
		*c = CommandBuffer{}
	}
}
