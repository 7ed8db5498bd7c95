package learnvk

import (
	"unsafe"

	"go.uber.org/zap"
)

type physicalDeviceRecord struct {
	instance     Handle
	native       NativePhysicalDevice
	block        unsafe.Pointer
	renderDevice Handle

	families        QueueFamilySlice
	familiesCached  bool
	familiesSurface NativeSurface

	surfaceCaps map[NativeSurface]SurfaceCapabilities

	properties       PhysicalDeviceProperties
	propertiesCached bool
	features         FeatureSet
	featuresCached   bool
	extensions       []ExtensionProperties
	extensionsCached bool
}

// clone copies the record with its caches. The clone is not in use.
func (r *physicalDeviceRecord) clone() *physicalDeviceRecord {
	c := *r
	c.block = nil
	c.renderDevice = InvalidHandle
	c.families = append(QueueFamilySlice(nil), r.families...)
	c.extensions = append([]ExtensionProperties(nil), r.extensions...)
	if r.surfaceCaps != nil {
		c.surfaceCaps = make(map[NativeSurface]SurfaceCapabilities, len(r.surfaceCaps))
		for k, v := range r.surfaceCaps {
			c.surfaceCaps[k] = v
		}
	}
	return &c
}

// PhysicalDevice is a GPU reported by an instance. Its queries are cached per
// handle until forced to refresh.
type PhysicalDevice struct {
	reg *registry
	h   Handle
}

func (p PhysicalDevice) record() *physicalDeviceRecord {
	if p.reg == nil {
		return nil
	}
	return p.reg.physicalDevices.get(p.h)
}

func (p PhysicalDevice) Valid() bool {
	rec := p.record()
	return rec != nil && rec.native != 0
}

func (p PhysicalDevice) Native() NativePhysicalDevice {
	if rec := p.record(); rec != nil {
		return rec.native
	}
	return 0
}

func (p PhysicalDevice) Instance() Instance {
	if rec := p.record(); rec != nil {
		return Instance{reg: p.reg, h: rec.instance}
	}
	return Instance{}
}

// InUse reports whether a live render device was created from p.
func (p PhysicalDevice) InUse() bool {
	rec := p.record()
	return rec != nil && p.reg.devices.get(rec.renderDevice) != nil
}

// RenderDevice returns the render device created from p, if any.
func (p PhysicalDevice) RenderDevice() RenderDevice {
	if rec := p.record(); rec != nil && p.reg.devices.get(rec.renderDevice) != nil {
		return RenderDevice{reg: p.reg, h: rec.renderDevice}
	}
	return RenderDevice{}
}

// Copy duplicates p into an independent handle. Caches are copied and
// diverge afterwards. The copy is released with the owning instance at the
// latest.
func (p PhysicalDevice) Copy() (PhysicalDevice, error) {
	const op = "copy physical device"
	rec := p.record()
	if rec == nil {
		return PhysicalDevice{}, newErr(op, KindInvalidHandle)
	}
	block, err := p.reg.host.recordBlock(op, unsafe.Sizeof(physicalDeviceRecord{}))
	if err != nil {
		return PhysicalDevice{}, err
	}
	c := rec.clone()
	c.block = block
	cp := PhysicalDevice{reg: p.reg, h: p.reg.physicalDevices.insert(c)}
	if irec := p.reg.instances.get(rec.instance); irec != nil {
		live := irec.copies[:0]
		for _, pd := range irec.copies {
			if pd.record() != nil {
				live = append(live, pd)
			}
		}
		irec.copies = append(live, cp)
	}
	return cp, nil
}

// Release releases the render device created from p first, if one is alive.
// It never touches the owning instance.
func (p *PhysicalDevice) Release() {
	rec := p.record()
	if rec == nil {
		*p = PhysicalDevice{}
		return
	}
	if rd := p.RenderDevice(); rd.Valid() {
		rd.Release()
	}
	p.reg.physicalDevices.remove(p.h)
	p.reg.host.releaseBlock(rec.block)
	*p = PhysicalDevice{}
}

// AvailableQueueFamilies returns the queue families in driver order. When a
// valid surface is passed, or the instance can create a throwaway one, the
// present bit is probed per family. The result is cached per surface; an
// empty result means the capabilities are unknown.
func (p PhysicalDevice) AvailableQueueFamilies(surface Surface, forceRefresh bool) QueueFamilySlice {
	rec := p.record()
	if rec == nil {
		return nil
	}
	if rec.familiesCached && !forceRefresh &&
		(!surface.Valid() || rec.familiesSurface == surface.Native()) {
		return rec.families
	}
	rec.families, rec.familiesCached, rec.familiesSurface = nil, false, 0

	log := Logger().With(zap.Uint64("physical_device", uint64(rec.native)))
	drv := p.reg.driver

	count := drv.QueueFamilyCount(rec.native)
	if count == 0 {
		log.Error("queue family count query returned zero")
		return nil
	}
	props := drv.QueueFamilyProperties(rec.native, count)
	if len(props) == 0 {
		log.Error("queue family properties query returned nothing", zap.Uint32("count", count))
		return nil
	}

	probe := surface
	if !probe.Valid() {
		probe = Surface{}
		if inst := p.Instance(); inst.SurfaceCapable() {
			s, err := inst.createSurface(nil)
			if err != nil {
				log.Error("throwaway surface creation failed", zap.Error(err))
				return nil
			}
			probe = s
			defer s.Release()
		}
	}

	families := make(QueueFamilySlice, len(props))
	for i, fp := range props {
		families[i] = QueueFamilyRecord{
			Index:                       i,
			Features:                    fp.Flags &^ QueuePresent,
			QueueCount:                  fp.QueueCount,
			TimestampValidBits:          fp.TimestampValidBits,
			MinImageTransferGranularity: fp.MinImageTransferGranularity,
		}
		if !probe.Valid() {
			continue
		}
		supported, ret := drv.SurfaceSupport(rec.native, uint32(i), probe.Native())
		if isError(ret) {
			log.Error("present support query failed", zap.Int("family", i), zap.Stringer("result", ret))
			return nil
		}
		if supported {
			families[i].Features |= QueuePresent
		}
	}

	rec.families, rec.familiesCached = families, true
	if surface.Valid() {
		rec.familiesSurface = surface.Native()
	}
	return families
}

// QueueFamilySelection runs the selector over the catalog for surface.
func (p PhysicalDevice) QueueFamilySelection(requests []QueueRequest, surface Surface, policy OverridePolicy) ([]QueueFamilySelection, error) {
	const op = "queue family selection"
	if !p.Valid() {
		return nil, newErr(op, KindInvalidHandle)
	}
	families := p.AvailableQueueFamilies(surface, false)
	if len(families) == 0 {
		return nil, newErr(op, KindCapabilitiesUnknown)
	}
	return SelectQueueFamilies(requests, families, policy)
}

func (p PhysicalDevice) SurfaceCapabilities(surface Surface, forceRefresh bool) (SurfaceCapabilities, error) {
	const op = "surface capabilities"
	rec := p.record()
	if rec == nil || !surface.Valid() {
		return SurfaceCapabilities{}, newErr(op, KindInvalidHandle)
	}
	key := surface.Native()
	if caps, ok := rec.surfaceCaps[key]; ok && !forceRefresh {
		return caps, nil
	}
	caps, ret := p.reg.driver.SurfaceCapabilities(rec.native, key)
	if isError(ret) {
		delete(rec.surfaceCaps, key)
		Logger().Error("surface capabilities query failed", zap.Stringer("result", ret))
		return SurfaceCapabilities{}, backingErr(op, ret)
	}
	if rec.surfaceCaps == nil {
		rec.surfaceCaps = make(map[NativeSurface]SurfaceCapabilities)
	}
	rec.surfaceCaps[key] = caps
	return caps, nil
}

func (p PhysicalDevice) Properties(forceRefresh bool) PhysicalDeviceProperties {
	rec := p.record()
	if rec == nil {
		return PhysicalDeviceProperties{}
	}
	if !rec.propertiesCached || forceRefresh {
		rec.properties = p.reg.driver.Properties(rec.native)
		rec.propertiesCached = true
	}
	return rec.properties
}

func (p PhysicalDevice) Features(forceRefresh bool) FeatureSet {
	rec := p.record()
	if rec == nil {
		return 0
	}
	if !rec.featuresCached || forceRefresh {
		rec.features = p.reg.driver.Features(rec.native)
		rec.featuresCached = true
	}
	return rec.features
}

func (p PhysicalDevice) AvailableExtensions(forceRefresh bool) []ExtensionProperties {
	rec := p.record()
	if rec == nil {
		return nil
	}
	if rec.extensionsCached && !forceRefresh {
		return rec.extensions
	}
	exts, ret := p.reg.driver.EnumerateDeviceExtensions(rec.native)
	if isError(ret) {
		Logger().Error("enumerate device extensions failed", zap.Stringer("result", ret))
		rec.extensions, rec.extensionsCached = nil, false
		return nil
	}
	rec.extensions, rec.extensionsCached = exts, true
	return exts
}

func (p PhysicalDevice) IsExtensionAvailable(name string) bool {
	return contains(extensionNames(p.AvailableExtensions(false)), name)
}
