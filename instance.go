package learnvk

import (
	"unsafe"

	"github.com/coreos/go-semver/semver"
	"go.uber.org/zap"
)

type instanceRecord struct {
	library    Handle
	native     NativeInstance
	block      unsafe.Pointer
	app        ApplicationInfo
	layers     []string
	extensions []string
	window     WindowHandle

	surfaces        []Surface
	physicalDevices []PhysicalDevice
	devicesCached   bool
	// copies holds every PhysicalDevice.Copy made from this instance's devices.
	copies []PhysicalDevice
}

type Instance struct {
	reg *registry
	h   Handle
}

func (i Instance) record() *instanceRecord {
	if i.reg == nil {
		return nil
	}
	return i.reg.instances.get(i.h)
}

func (i Instance) Valid() bool {
	rec := i.record()
	return rec != nil && rec.native != 0
}

func (i Instance) Native() NativeInstance {
	if rec := i.record(); rec != nil {
		return rec.native
	}
	return 0
}

func (i Instance) ApplicationInfo() ApplicationInfo {
	if rec := i.record(); rec != nil {
		return rec.app
	}
	return ApplicationInfo{}
}

func (i Instance) APIVersion() semver.Version {
	return i.ApplicationInfo().APIVersion
}

func (i Instance) EnabledLayers() []string {
	if rec := i.record(); rec != nil {
		return rec.layers
	}
	return nil
}

func (i Instance) EnabledExtensions() []string {
	if rec := i.record(); rec != nil {
		return rec.extensions
	}
	return nil
}

// SurfaceCapable reports whether the instance was created with a window and
// can create surfaces on its own.
func (i Instance) SurfaceCapable() bool {
	rec := i.record()
	return rec != nil && rec.window != nil
}

// Release releases the physical devices created from the instance, copies
// included, together with their render devices, then the surfaces, and
// destroys the instance last.
func (i *Instance) Release() {
	rec := i.record()
	if rec == nil {
		*i = Instance{}
		return
	}
	for _, pd := range rec.physicalDevices {
		pd.Release()
	}
	for _, pd := range rec.copies {
		pd.Release()
	}
	rec.copies = nil
	for _, s := range rec.surfaces {
		s.Release()
	}
	if rec.native != 0 {
		i.reg.driver.DestroyInstance(rec.native, i.reg.host)
	}
	i.reg.instances.remove(i.h)
	i.reg.host.releaseBlock(rec.block)
	Logger().Debug("instance released", zap.Uint64("native", uint64(rec.native)))
	*i = Instance{}
}

// PhysicalDevices enumerates the physical devices once and caches the list.
// A forced refresh releases the devices that are not in use and keeps the
// ones backing a live render device.
func (i Instance) PhysicalDevices(forceRefresh bool) []PhysicalDevice {
	const op = "enumerate physical devices"
	rec := i.record()
	if rec == nil {
		return nil
	}
	if rec.devicesCached && !forceRefresh {
		return rec.physicalDevices
	}

	natives, ret := i.reg.driver.EnumeratePhysicalDevices(rec.native)
	if isError(ret) || len(natives) == 0 {
		Logger().Error("no physical devices found", zap.Stringer("result", ret))
		return nil
	}

	kept := make(map[NativePhysicalDevice]PhysicalDevice)
	for _, pd := range rec.physicalDevices {
		if pd.InUse() {
			kept[pd.Native()] = pd
			continue
		}
		pd.Release()
	}

	list := make([]PhysicalDevice, 0, len(natives))
	for _, native := range natives {
		if pd, ok := kept[native]; ok {
			list = append(list, pd)
			delete(kept, native)
			continue
		}
		pd, err := i.newPhysicalDevice(op, native)
		if err != nil {
			Logger().Error("physical device record allocation failed", zap.Error(err))
			continue
		}
		list = append(list, pd)
	}
	// In use but no longer reported; still owned by the instance.
	for _, pd := range rec.physicalDevices {
		if _, ok := kept[pd.Native()]; ok {
			list = append(list, pd)
		}
	}
	rec.physicalDevices = list
	rec.devicesCached = true
	return list
}

func (i Instance) newPhysicalDevice(op string, native NativePhysicalDevice) (PhysicalDevice, error) {
	block, err := i.reg.host.recordBlock(op, unsafe.Sizeof(physicalDeviceRecord{}))
	if err != nil {
		return PhysicalDevice{}, err
	}
	h := i.reg.physicalDevices.insert(&physicalDeviceRecord{
		instance: i.h,
		native:   native,
		block:    block,
	})
	return PhysicalDevice{reg: i.reg, h: h}, nil
}

// ReleaseUnusedPhysicalDevices releases every listed physical device that
// does not back a render device.
func (i Instance) ReleaseUnusedPhysicalDevices() {
	rec := i.record()
	if rec == nil {
		return
	}
	kept := rec.physicalDevices[:0]
	for _, pd := range rec.physicalDevices {
		if pd.InUse() {
			kept = append(kept, pd)
			continue
		}
		pd.Release()
	}
	if len(kept) != len(rec.physicalDevices) {
		rec.devicesCached = false
	}
	rec.physicalDevices = kept
}

// CreateSurface creates a presentation surface for window, or for the
// instance's own window when window is nil.
func (i Instance) CreateSurface(window WindowHandle) (Surface, error) {
	s, err := i.createSurface(window)
	if err != nil {
		return Surface{}, err
	}
	rec := i.record()
	rec.surfaces = append(rec.surfaces, s)
	return s, nil
}

// createSurface creates a surface the instance does not track.
func (i Instance) createSurface(window WindowHandle) (Surface, error) {
	const op = "create surface"
	rec := i.record()
	if rec == nil {
		return Surface{}, newErr(op, KindInvalidHandle)
	}
	if window == nil {
		window = rec.window
	}
	if window == nil {
		Logger().Error("no window to create a surface for")
		return Surface{}, newErr(op, KindInvalidHandle)
	}
	block, err := i.reg.host.recordBlock(op, unsafe.Sizeof(surfaceRecord{}))
	if err != nil {
		return Surface{}, err
	}
	native, ret := i.reg.driver.CreateSurface(rec.native, window, i.reg.host)
	if isError(ret) || native == 0 {
		i.reg.host.releaseBlock(block)
		Logger().Error("surface creation failed", zap.Stringer("result", ret))
		return Surface{}, backingErr(op, ret)
	}
	return Surface{reg: i.reg, h: i.reg.surfaces.insert(&surfaceRecord{
		instance: i.h,
		native:   native,
		block:    block,
	})}, nil
}
