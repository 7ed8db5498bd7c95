package learnvk

import (
	"unsafe"

	"go.uber.org/zap"
)

type renderDeviceRecord struct {
	origin     Handle
	physical   PhysicalDevice
	native     NativeDevice
	block      unsafe.Pointer
	extensions []string
	features   FeatureSet

	queues []Queue
	pools  []CommandPool
}

// RenderDevice is a logical device with the queues it was created for.
type RenderDevice struct {
	reg *registry
	h   Handle
}

// RenderDeviceInfo configures CreateRenderDevice. Surface is used for present
// probing; when it is invalid a throwaway surface is used if the instance
// has a window.
type RenderDeviceInfo struct {
	Requests       []QueueRequest
	Surface        Surface
	Extensions     ExtensionSet
	Features       FeatureSet
	OverridePolicy OverridePolicy
}

func (d RenderDevice) record() *renderDeviceRecord {
	if d.reg == nil {
		return nil
	}
	return d.reg.devices.get(d.h)
}

func (d RenderDevice) Valid() bool {
	rec := d.record()
	return rec != nil && rec.native != 0
}

func (d RenderDevice) Native() NativeDevice {
	if rec := d.record(); rec != nil {
		return rec.native
	}
	return 0
}

// PhysicalDevice returns the device's own copy of the physical device it was
// created from.
func (d RenderDevice) PhysicalDevice() PhysicalDevice {
	if rec := d.record(); rec != nil {
		return rec.physical
	}
	return PhysicalDevice{}
}

// Queues lists one queue per request, in request order.
func (d RenderDevice) Queues() []Queue {
	if rec := d.record(); rec != nil {
		return rec.queues
	}
	return nil
}

func (d RenderDevice) EnabledExtensions() []string {
	if rec := d.record(); rec != nil {
		return rec.extensions
	}
	return nil
}

func (d RenderDevice) EnabledFeatures() FeatureSet {
	if rec := d.record(); rec != nil {
		return rec.features
	}
	return 0
}

// Release releases the device's pools and queues, destroys the backing
// device and only then releases its physical device copy.
func (d *RenderDevice) Release() {
	rec := d.record()
	if rec == nil {
		*d = RenderDevice{}
		return
	}
	for _, pool := range rec.pools {
		pool.Release()
	}
	for _, q := range rec.queues {
		q.Release()
	}
	if rec.native != 0 {
		d.reg.driver.DestroyDevice(rec.native, d.reg.host)
	}
	rec.physical.Release()
	if origin := d.reg.physicalDevices.get(rec.origin); origin != nil && origin.renderDevice == d.h {
		origin.renderDevice = InvalidHandle
	}
	d.reg.devices.remove(d.h)
	d.reg.host.releaseBlock(rec.block)
	Logger().Debug("render device released", zap.Uint64("native", uint64(rec.native)))
	*d = RenderDevice{}
}

// CreateRenderDevice selects queue families for the requests, creates the
// logical device and retrieves one queue per request. Only one render device
// can be alive per physical device handle.
func (p PhysicalDevice) CreateRenderDevice(info RenderDeviceInfo) (RenderDevice, error) {
	const op = "create render device"
	rec := p.record()
	if rec == nil || rec.native == 0 {
		return RenderDevice{}, newErr(op, KindInvalidHandle)
	}
	log := Logger().With(zap.Uint64("physical_device", uint64(rec.native)))
	if p.InUse() {
		log.Error("physical device already backs a render device")
		return RenderDevice{}, newErr(op, KindInUse)
	}

	extensions, err := info.Extensions.resolve(op, KindMissingExtension, extensionNames(p.AvailableExtensions(false)))
	if err != nil {
		return RenderDevice{}, err
	}
	if missing := p.Features(false).Missing(info.Features); len(missing) > 0 {
		log.Error("required feature not supported", zap.Stringer("feature", missing[0]))
		e := newErr(op, KindMissingFeature)
		e.Name = missing[0].String()
		return RenderDevice{}, e
	}

	families := p.AvailableQueueFamilies(info.Surface, false)
	if len(families) == 0 {
		return RenderDevice{}, newErr(op, KindCapabilitiesUnknown)
	}
	selections, err := SelectQueueFamilies(info.Requests, families, info.OverridePolicy)
	if err != nil {
		return RenderDevice{}, err
	}
	slots, queueInfos := planQueues(info.Requests, selections, families)

	block, err := p.reg.host.recordBlock(op, unsafe.Sizeof(renderDeviceRecord{}))
	if err != nil {
		return RenderDevice{}, err
	}
	physical, err := p.Copy()
	if err != nil {
		p.reg.host.releaseBlock(block)
		return RenderDevice{}, err
	}
	native, ret := p.reg.driver.CreateDevice(rec.native, DeviceCreateInfo{
		Queues:     queueInfos,
		Extensions: extensions,
		Features:   info.Features,
	}, p.reg.host)
	if isError(ret) || native == 0 {
		physical.Release()
		p.reg.host.releaseBlock(block)
		log.Error("device creation failed", zap.Stringer("result", ret))
		return RenderDevice{}, backingErr(op, ret)
	}

	drec := &renderDeviceRecord{
		origin:     p.h,
		physical:   physical,
		native:     native,
		block:      block,
		extensions: extensions,
		features:   info.Features,
	}
	d := RenderDevice{reg: p.reg, h: p.reg.devices.insert(drec)}
	for i, slot := range slots {
		fam, _ := families.Family(slot.familyIndex)
		q, err := d.newQueue(op, slot, fam)
		if err != nil {
			log.Error("queue retrieval failed", zap.Int("request", i), zap.Error(err))
			d.Release()
			return RenderDevice{}, err
		}
		drec.queues = append(drec.queues, q)
		log.Info("queue created",
			zap.Int("request", i),
			zap.Int("family", slot.familyIndex),
			zap.Uint32("index", slot.queueIndex),
			zap.Stringer("priority", slot.priority),
			zap.Uint64("score", selections[i].Score))
	}
	rec.renderDevice = d.h
	return d, nil
}
