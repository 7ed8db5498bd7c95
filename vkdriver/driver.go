// Package vkdriver implements learnvk.Driver on top of github.com/vulkan-go/vulkan.
package vkdriver

import (
	"unsafe"

	"github.com/andewx/learnvk"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"go.uber.org/zap"
)

// Driver binds the process wide vulkan-go function table. API objects are
// exposed to learnvk as small integer ids. Create and destroy calls route
// the API's host allocations through the learnvk.HostAllocator they are
// given.
type Driver struct {
	next  uint64
	hosts map[*learnvk.HostAllocator]hostCallbacks

	instances       handleMap[learnvk.NativeInstance, vk.Instance]
	physicalDevices handleMap[learnvk.NativePhysicalDevice, vk.PhysicalDevice]
	surfaces        handleMap[learnvk.NativeSurface, vk.Surface]
	devices         handleMap[learnvk.NativeDevice, vk.Device]
	queues          handleMap[learnvk.NativeQueue, vk.Queue]
	pools           handleMap[learnvk.NativeCommandPool, vk.CommandPool]
	buffers         handleMap[learnvk.NativeCommandBuffer, vk.CommandBuffer]
}

var _ learnvk.Driver = (*Driver)(nil)

// New initializes vulkan-go from getInstanceProcAddr, a pointer to the
// loader's vkGetInstanceProcAddr. A nil pointer falls back to the library's
// default loader lookup.
func New(getInstanceProcAddr unsafe.Pointer) (d *Driver, err error) {
	defer checkErr(&err)
	if getInstanceProcAddr != nil {
		vk.SetGetInstanceProcAddr(getInstanceProcAddr)
	} else if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return nil, err
	}
	if err := vk.Init(); err != nil {
		return nil, err
	}
	d = &Driver{hosts: make(map[*learnvk.HostAllocator]hostCallbacks)}
	d.instances = newHandleMap[learnvk.NativeInstance, vk.Instance](&d.next)
	d.physicalDevices = newHandleMap[learnvk.NativePhysicalDevice, vk.PhysicalDevice](&d.next)
	d.surfaces = newHandleMap[learnvk.NativeSurface, vk.Surface](&d.next)
	d.devices = newHandleMap[learnvk.NativeDevice, vk.Device](&d.next)
	d.queues = newHandleMap[learnvk.NativeQueue, vk.Queue](&d.next)
	d.pools = newHandleMap[learnvk.NativeCommandPool, vk.CommandPool](&d.next)
	d.buffers = newHandleMap[learnvk.NativeCommandBuffer, vk.CommandBuffer](&d.next)
	return d, nil
}

//----------------Instance--------------------//

func (d *Driver) EnumerateInstanceLayers() ([]learnvk.LayerProperties, learnvk.Result) {
	var count uint32
	if ret := vk.EnumerateInstanceLayerProperties(&count, nil); ret != vk.Success {
		return nil, result(ret)
	}
	list := make([]vk.LayerProperties, count)
	if ret := vk.EnumerateInstanceLayerProperties(&count, list); ret != vk.Success {
		return nil, result(ret)
	}
	layers := make([]learnvk.LayerProperties, 0, count)
	for _, layer := range list[:count] {
		layer.Deref()
		layers = append(layers, learnvk.LayerProperties{
			Name:                  vk.ToString(layer.LayerName[:]),
			Description:           vk.ToString(layer.Description[:]),
			SpecVersion:           learnvk.VersionFromPacked(layer.SpecVersion),
			ImplementationVersion: layer.ImplementationVersion,
		})
	}
	return layers, learnvk.Success
}

func extensions(list []vk.ExtensionProperties) []learnvk.ExtensionProperties {
	exts := make([]learnvk.ExtensionProperties, 0, len(list))
	for _, ext := range list {
		ext.Deref()
		exts = append(exts, learnvk.ExtensionProperties{
			Name:        vk.ToString(ext.ExtensionName[:]),
			SpecVersion: ext.SpecVersion,
		})
	}
	return exts
}

func (d *Driver) EnumerateInstanceExtensions(layer string) ([]learnvk.ExtensionProperties, learnvk.Result) {
	var count uint32
	if ret := vk.EnumerateInstanceExtensionProperties(layer, &count, nil); ret != vk.Success {
		return nil, result(ret)
	}
	list := make([]vk.ExtensionProperties, count)
	if ret := vk.EnumerateInstanceExtensionProperties(layer, &count, list); ret != vk.Success {
		return nil, result(ret)
	}
	return extensions(list[:count]), learnvk.Success
}

func (d *Driver) CreateInstance(info learnvk.InstanceCreateInfo, alloc *learnvk.HostAllocator) (learnvk.NativeInstance, learnvk.Result) {
	app := info.Application
	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			PApplicationName:   safeString(app.ApplicationName),
			ApplicationVersion: learnvk.PackVersion(app.ApplicationVersion),
			PEngineName:        safeString(app.EngineName),
			EngineVersion:      learnvk.PackVersion(app.EngineVersion),
			ApiVersion:         learnvk.PackVersion(app.APIVersion),
		},
		EnabledExtensionCount:   uint32(len(info.Extensions)),
		PpEnabledExtensionNames: safeStrings(info.Extensions),
		EnabledLayerCount:       uint32(len(info.Layers)),
		PpEnabledLayerNames:     safeStrings(info.Layers),
	}, d.callbacks(alloc), &instance)
	if ret != vk.Success {
		return 0, result(ret)
	}
	if err := vk.InitInstance(instance); err != nil {
		learnvk.Logger().Error("instance function table init failed", zap.Error(err))
		vk.DestroyInstance(instance, d.callbacks(alloc))
		return 0, learnvk.ErrorInitializationFailed
	}
	return d.instances.add(instance), learnvk.Success
}

func (d *Driver) DestroyInstance(id learnvk.NativeInstance, alloc *learnvk.HostAllocator) {
	if instance, ok := d.instances.drop(id); ok {
		vk.DestroyInstance(instance, d.callbacks(alloc))
	}
}

func (d *Driver) EnumeratePhysicalDevices(id learnvk.NativeInstance) ([]learnvk.NativePhysicalDevice, learnvk.Result) {
	instance, ok := d.instances.get(id)
	if !ok {
		return nil, learnvk.ErrorInitializationFailed
	}
	var count uint32
	if ret := vk.EnumeratePhysicalDevices(instance, &count, nil); ret != vk.Success {
		return nil, result(ret)
	}
	gpus := make([]vk.PhysicalDevice, count)
	if ret := vk.EnumeratePhysicalDevices(instance, &count, gpus); ret != vk.Success {
		return nil, result(ret)
	}
	ids := make([]learnvk.NativePhysicalDevice, 0, count)
	for _, gpu := range gpus[:count] {
		ids = append(ids, d.physicalDevices.add(gpu))
	}
	return ids, learnvk.Success
}

// checkErr turns a panic in a binding call into an error.
func checkErr(err *error) {
	if v := recover(); v != nil {
		*err = errors.Errorf("%+v", v)
	}
}

// createWindowSurface guards the window binding, which panics on an
// instance it does not recognize.
func createWindowSurface(window learnvk.WindowHandle, instance vk.Instance, callbacks unsafe.Pointer) (ptr uintptr, err error) {
	defer checkErr(&err)
	return window.CreateWindowSurface(instance, callbacks)
}

func (d *Driver) CreateSurface(id learnvk.NativeInstance, window learnvk.WindowHandle, alloc *learnvk.HostAllocator) (learnvk.NativeSurface, learnvk.Result) {
	instance, ok := d.instances.get(id)
	if !ok || window == nil {
		return 0, learnvk.ErrorInitializationFailed
	}
	ptr, err := createWindowSurface(window, instance, unsafe.Pointer(d.callbacks(alloc)))
	if err != nil {
		learnvk.Logger().Error("window surface creation failed", zap.Error(err))
		return 0, learnvk.ErrorSurfaceLost
	}
	surface := vk.SurfaceFromPointer(ptr)
	if surface == vk.NullSurface {
		return 0, learnvk.ErrorInitializationFailed
	}
	return d.surfaces.add(surface), learnvk.Success
}

func (d *Driver) DestroySurface(instanceID learnvk.NativeInstance, id learnvk.NativeSurface, alloc *learnvk.HostAllocator) {
	instance, ok := d.instances.get(instanceID)
	if !ok {
		return
	}
	if surface, ok := d.surfaces.drop(id); ok {
		vk.DestroySurface(instance, surface, d.callbacks(alloc))
	}
}

//----------------Physical Devices--------------------//

func (d *Driver) QueueFamilyCount(id learnvk.NativePhysicalDevice) uint32 {
	gpu, ok := d.physicalDevices.get(id)
	if !ok {
		return 0
	}
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	return count
}

func (d *Driver) QueueFamilyProperties(id learnvk.NativePhysicalDevice, count uint32) []learnvk.QueueFamilyProperties {
	gpu, ok := d.physicalDevices.get(id)
	if !ok || count == 0 {
		return nil
	}
	list := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, list)
	families := make([]learnvk.QueueFamilyProperties, 0, count)
	for i := range list[:count] {
		families = append(families, queueFamily(&list[i]))
	}
	return families
}

func (d *Driver) SurfaceSupport(id learnvk.NativePhysicalDevice, family uint32, surfaceID learnvk.NativeSurface) (bool, learnvk.Result) {
	gpu, ok := d.physicalDevices.get(id)
	surface, sok := d.surfaces.get(surfaceID)
	if !ok || !sok {
		return false, learnvk.ErrorSurfaceLost
	}
	var supported vk.Bool32
	if ret := vk.GetPhysicalDeviceSurfaceSupport(gpu, family, surface, &supported); ret != vk.Success {
		return false, result(ret)
	}
	return supported == vk.Bool32(vk.True), learnvk.Success
}

func (d *Driver) SurfaceCapabilities(id learnvk.NativePhysicalDevice, surfaceID learnvk.NativeSurface) (learnvk.SurfaceCapabilities, learnvk.Result) {
	gpu, ok := d.physicalDevices.get(id)
	surface, sok := d.surfaces.get(surfaceID)
	if !ok || !sok {
		return learnvk.SurfaceCapabilities{}, learnvk.ErrorSurfaceLost
	}
	var caps vk.SurfaceCapabilities
	if ret := vk.GetPhysicalDeviceSurfaceCapabilities(gpu, surface, &caps); ret != vk.Success {
		return learnvk.SurfaceCapabilities{}, result(ret)
	}
	return surfaceCapabilities(&caps), learnvk.Success
}

func (d *Driver) Properties(id learnvk.NativePhysicalDevice) learnvk.PhysicalDeviceProperties {
	gpu, ok := d.physicalDevices.get(id)
	if !ok {
		return learnvk.PhysicalDeviceProperties{}
	}
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gpu, &props)
	return properties(&props)
}

func (d *Driver) Features(id learnvk.NativePhysicalDevice) learnvk.FeatureSet {
	gpu, ok := d.physicalDevices.get(id)
	if !ok {
		return 0
	}
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(gpu, &features)
	features.Deref()
	return featureSet(&features)
}

func (d *Driver) EnumerateDeviceExtensions(id learnvk.NativePhysicalDevice) ([]learnvk.ExtensionProperties, learnvk.Result) {
	gpu, ok := d.physicalDevices.get(id)
	if !ok {
		return nil, learnvk.ErrorInitializationFailed
	}
	var count uint32
	if ret := vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil); ret != vk.Success {
		return nil, result(ret)
	}
	list := make([]vk.ExtensionProperties, count)
	if ret := vk.EnumerateDeviceExtensionProperties(gpu, "", &count, list); ret != vk.Success {
		return nil, result(ret)
	}
	return extensions(list[:count]), learnvk.Success
}

//----------------Devices--------------------//

func (d *Driver) CreateDevice(id learnvk.NativePhysicalDevice, info learnvk.DeviceCreateInfo, alloc *learnvk.HostAllocator) (learnvk.NativeDevice, learnvk.Result) {
	gpu, ok := d.physicalDevices.get(id)
	if !ok {
		return 0, learnvk.ErrorInitializationFailed
	}
	queueInfos := make([]vk.DeviceQueueCreateInfo, len(info.Queues))
	for i, q := range info.Queues {
		queueInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: q.FamilyIndex,
			QueueCount:       uint32(len(q.Priorities)),
			PQueuePriorities: q.Priorities,
		}
	}
	var device vk.Device
	ret := vk.CreateDevice(gpu, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(info.Extensions)),
		PpEnabledExtensionNames: safeStrings(info.Extensions),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{deviceFeatures(info.Features)},
	}, d.callbacks(alloc), &device)
	if ret != vk.Success {
		return 0, result(ret)
	}
	return d.devices.add(device), learnvk.Success
}

func (d *Driver) DestroyDevice(id learnvk.NativeDevice, alloc *learnvk.HostAllocator) {
	if device, ok := d.devices.drop(id); ok {
		vk.DeviceWaitIdle(device)
		vk.DestroyDevice(device, d.callbacks(alloc))
	}
}

func (d *Driver) GetDeviceQueue(id learnvk.NativeDevice, family, index uint32) learnvk.NativeQueue {
	device, ok := d.devices.get(id)
	if !ok {
		return 0
	}
	var queue vk.Queue
	vk.GetDeviceQueue(device, family, index, &queue)
	if queue == nil {
		return 0
	}
	return d.queues.add(queue)
}

//----------------Command Pools--------------------//

func (d *Driver) CreateCommandPool(id learnvk.NativeDevice, info learnvk.CommandPoolCreateInfo, alloc *learnvk.HostAllocator) (learnvk.NativeCommandPool, learnvk.Result) {
	device, ok := d.devices.get(id)
	if !ok {
		return 0, learnvk.ErrorInitializationFailed
	}
	var flags vk.CommandPoolCreateFlagBits
	if info.Transient {
		flags |= vk.CommandPoolCreateTransientBit
	}
	if info.ResetIndividual {
		flags |= vk.CommandPoolCreateResetCommandBufferBit
	}
	if info.Protected {
		flags |= commandPoolCreateProtectedBit
	}
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: info.FamilyIndex,
		Flags:            vk.CommandPoolCreateFlags(flags),
	}, d.callbacks(alloc), &pool)
	if ret != vk.Success {
		return 0, result(ret)
	}
	return d.pools.add(pool), learnvk.Success
}

func (d *Driver) DestroyCommandPool(id learnvk.NativeDevice, poolID learnvk.NativeCommandPool, alloc *learnvk.HostAllocator) {
	device, ok := d.devices.get(id)
	if !ok {
		return
	}
	if pool, ok := d.pools.drop(poolID); ok {
		vk.DestroyCommandPool(device, pool, d.callbacks(alloc))
	}
}

func (d *Driver) ResetCommandPool(id learnvk.NativeDevice, poolID learnvk.NativeCommandPool) learnvk.Result {
	device, ok := d.devices.get(id)
	pool, pok := d.pools.get(poolID)
	if !ok || !pok {
		return learnvk.ErrorInitializationFailed
	}
	return result(vk.ResetCommandPool(device, pool, 0))
}

func (d *Driver) AllocateCommandBuffers(id learnvk.NativeDevice, poolID learnvk.NativeCommandPool, level learnvk.CommandBufferLevel, count uint32) ([]learnvk.NativeCommandBuffer, learnvk.Result) {
	device, ok := d.devices.get(id)
	pool, pok := d.pools.get(poolID)
	if !ok || !pok {
		return nil, learnvk.ErrorInitializationFailed
	}
	vkLevel := vk.CommandBufferLevelPrimary
	if level == learnvk.LevelSecondary {
		vkLevel = vk.CommandBufferLevelSecondary
	}
	buffers := make([]vk.CommandBuffer, count)
	ret := vk.AllocateCommandBuffers(device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vkLevel,
		CommandBufferCount: count,
	}, buffers)
	if ret != vk.Success {
		return nil, result(ret)
	}
	ids := make([]learnvk.NativeCommandBuffer, count)
	for i, b := range buffers {
		ids[i] = d.buffers.add(b)
	}
	return ids, learnvk.Success
}

func (d *Driver) FreeCommandBuffers(id learnvk.NativeDevice, poolID learnvk.NativeCommandPool, ids []learnvk.NativeCommandBuffer) {
	device, ok := d.devices.get(id)
	pool, pok := d.pools.get(poolID)
	if !ok || !pok {
		return
	}
	buffers := make([]vk.CommandBuffer, 0, len(ids))
	for _, bid := range ids {
		if b, ok := d.buffers.drop(bid); ok {
			buffers = append(buffers, b)
		}
	}
	if len(buffers) > 0 {
		vk.FreeCommandBuffers(device, pool, uint32(len(buffers)), buffers)
	}
}

func (d *Driver) ResetCommandBuffer(id learnvk.NativeCommandBuffer) learnvk.Result {
	buffer, ok := d.buffers.get(id)
	if !ok {
		return learnvk.ErrorInitializationFailed
	}
	return result(vk.ResetCommandBuffer(buffer, 0))
}

// Live counts the API objects the driver still tracks.
func (d *Driver) Live() int {
	return d.instances.len() + d.surfaces.len() + d.devices.len() +
		d.pools.len() + d.buffers.len()
}

// RawInstance returns the API handle behind id as an address, for resolving
// entry points with the loader package.
func (d *Driver) RawInstance(id learnvk.NativeInstance) uintptr {
	instance, ok := d.instances.get(id)
	if !ok {
		return 0
	}
	return uintptr(unsafe.Pointer(instance))
}

func (d *Driver) RawDevice(id learnvk.NativeDevice) uintptr {
	device, ok := d.devices.get(id)
	if !ok {
		return 0
	}
	return uintptr(unsafe.Pointer(device))
}
