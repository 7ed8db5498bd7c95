package learnvk

import (
	"unsafe"
)

type fakeWindow struct {
	extensions []string
}

func (w *fakeWindow) CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error) {
	return 1, nil
}

func (w *fakeWindow) GetRequiredInstanceExtensions() []string {
	return w.extensions
}

type fakeGPU struct {
	families   []QueueFamilyProperties
	present    map[uint32]bool
	props      PhysicalDeviceProperties
	features   FeatureSet
	extensions []ExtensionProperties
}

// fakeDriver is a counting stub. Every call is tallied by method name and
// any method can be made to fail through fail.
type fakeDriver struct {
	calls map[string]int
	fail  map[string]Result

	layers     []LayerProperties
	extensions []ExtensionProperties
	gpus       []*fakeGPU

	next      uint64
	instances map[NativeInstance]bool
	surfaces  map[NativeSurface]bool
	devices   map[NativeDevice]DeviceCreateInfo
	pools     map[NativeCommandPool]CommandPoolCreateInfo
	buffers   map[NativeCommandBuffer]bool
	physical  map[NativePhysicalDevice]*fakeGPU

	lastInstance InstanceCreateInfo
	queueGets    [][2]uint32
	bufferResets int
	poolResets   int
	// lateDevices counts devices destroyed after every instance was gone.
	lateDevices int
}

func newFakeDriver(gpus ...*fakeGPU) *fakeDriver {
	return &fakeDriver{
		calls: make(map[string]int),
		fail:  make(map[string]Result),
		layers: []LayerProperties{
			{Name: "VK_LAYER_KHRONOS_validation", SpecVersion: APIVersion13, ImplementationVersion: 1},
		},
		extensions: []ExtensionProperties{
			{Name: "VK_KHR_surface", SpecVersion: 25},
			{Name: "VK_KHR_xcb_surface", SpecVersion: 6},
			{Name: "VK_EXT_debug_utils", SpecVersion: 2},
		},
		gpus:      gpus,
		instances: make(map[NativeInstance]bool),
		surfaces:  make(map[NativeSurface]bool),
		devices:   make(map[NativeDevice]DeviceCreateInfo),
		pools:     make(map[NativeCommandPool]CommandPoolCreateInfo),
		buffers:   make(map[NativeCommandBuffer]bool),
		physical:  make(map[NativePhysicalDevice]*fakeGPU),
	}
}

// standardGPU has the three families used across the selector tests, all
// able to present, and one swapchain extension.
func standardGPU(name string, t DeviceType) *fakeGPU {
	return &fakeGPU{
		families: []QueueFamilyProperties{
			{Flags: QueueGraphics, QueueCount: 4, TimestampValidBits: 32},
			{Flags: QueueCompute, QueueCount: 2},
			{Flags: QueueGraphics | QueueCompute | QueueTransfer, QueueCount: 8, TimestampValidBits: 64,
				MinImageTransferGranularity: Extent3D{Width: 4, Height: 4, Depth: 4}},
		},
		present: map[uint32]bool{0: true, 1: true, 2: true},
		props: PhysicalDeviceProperties{
			APIVersion:    APIVersion12,
			DriverVersion: APIVersion10,
			VendorID:      0x10de,
			DeviceID:      1,
			DeviceType:    t,
			DeviceName:    name,
			Limits:        PhysicalDeviceLimits{MaxPerStageDescriptorSampledImages: 1 << 20},
		},
		features:   NewFeatureSet(FeatureSamplerAnisotropy, FeatureGeometryShader),
		extensions: []ExtensionProperties{{Name: "VK_KHR_swapchain", SpecVersion: 70}},
	}
}

func (d *fakeDriver) call(name string) Result {
	d.calls[name]++
	if ret, ok := d.fail[name]; ok {
		return ret
	}
	return Success
}

func (d *fakeDriver) id() uint64 {
	d.next++
	return d.next
}

// live counts backing objects that were created and not destroyed.
func (d *fakeDriver) live() int {
	return len(d.instances) + len(d.surfaces) + len(d.devices) + len(d.pools) + len(d.buffers)
}

func (d *fakeDriver) EnumerateInstanceLayers() ([]LayerProperties, Result) {
	if ret := d.call("EnumerateInstanceLayers"); ret != Success {
		return nil, ret
	}
	return d.layers, Success
}

func (d *fakeDriver) EnumerateInstanceExtensions(layer string) ([]ExtensionProperties, Result) {
	if ret := d.call("EnumerateInstanceExtensions"); ret != Success {
		return nil, ret
	}
	return d.extensions, Success
}

func (d *fakeDriver) CreateInstance(info InstanceCreateInfo, alloc *HostAllocator) (NativeInstance, Result) {
	if ret := d.call("CreateInstance"); ret != Success {
		return 0, ret
	}
	d.lastInstance = info
	id := NativeInstance(d.id())
	d.instances[id] = true
	return id, Success
}

func (d *fakeDriver) DestroyInstance(instance NativeInstance, alloc *HostAllocator) {
	d.call("DestroyInstance")
	delete(d.instances, instance)
}

func (d *fakeDriver) EnumeratePhysicalDevices(instance NativeInstance) ([]NativePhysicalDevice, Result) {
	if ret := d.call("EnumeratePhysicalDevices"); ret != Success {
		return nil, ret
	}
	list := make([]NativePhysicalDevice, len(d.gpus))
	for i, gpu := range d.gpus {
		id := NativePhysicalDevice(1000 + i)
		d.physical[id] = gpu
		list[i] = id
	}
	return list, Success
}

func (d *fakeDriver) CreateSurface(instance NativeInstance, window WindowHandle, alloc *HostAllocator) (NativeSurface, Result) {
	if ret := d.call("CreateSurface"); ret != Success {
		return 0, ret
	}
	id := NativeSurface(d.id())
	d.surfaces[id] = true
	return id, Success
}

func (d *fakeDriver) DestroySurface(instance NativeInstance, surface NativeSurface, alloc *HostAllocator) {
	d.call("DestroySurface")
	delete(d.surfaces, surface)
}

func (d *fakeDriver) QueueFamilyCount(pd NativePhysicalDevice) uint32 {
	if d.call("QueueFamilyCount") != Success {
		return 0
	}
	return uint32(len(d.physical[pd].families))
}

func (d *fakeDriver) QueueFamilyProperties(pd NativePhysicalDevice, count uint32) []QueueFamilyProperties {
	if d.call("QueueFamilyProperties") != Success {
		return nil
	}
	return d.physical[pd].families[:count]
}

func (d *fakeDriver) SurfaceSupport(pd NativePhysicalDevice, family uint32, surface NativeSurface) (bool, Result) {
	if ret := d.call("SurfaceSupport"); ret != Success {
		return false, ret
	}
	if !d.surfaces[surface] {
		return false, ErrorSurfaceLost
	}
	return d.physical[pd].present[family], Success
}

func (d *fakeDriver) SurfaceCapabilities(pd NativePhysicalDevice, surface NativeSurface) (SurfaceCapabilities, Result) {
	if ret := d.call("SurfaceCapabilities"); ret != Success {
		return SurfaceCapabilities{}, ret
	}
	return SurfaceCapabilities{
		MinImageCount:  2,
		MaxImageCount:  8,
		CurrentExtent:  Extent2D{Width: 640, Height: 480},
		MaxImageExtent: Extent2D{Width: 4096, Height: 4096},
	}, Success
}

func (d *fakeDriver) Properties(pd NativePhysicalDevice) PhysicalDeviceProperties {
	d.call("Properties")
	return d.physical[pd].props
}

func (d *fakeDriver) Features(pd NativePhysicalDevice) FeatureSet {
	d.call("Features")
	return d.physical[pd].features
}

func (d *fakeDriver) EnumerateDeviceExtensions(pd NativePhysicalDevice) ([]ExtensionProperties, Result) {
	if ret := d.call("EnumerateDeviceExtensions"); ret != Success {
		return nil, ret
	}
	return d.physical[pd].extensions, Success
}

func (d *fakeDriver) CreateDevice(pd NativePhysicalDevice, info DeviceCreateInfo, alloc *HostAllocator) (NativeDevice, Result) {
	if ret := d.call("CreateDevice"); ret != Success {
		return 0, ret
	}
	id := NativeDevice(d.id())
	d.devices[id] = info
	return id, Success
}

func (d *fakeDriver) DestroyDevice(device NativeDevice, alloc *HostAllocator) {
	d.call("DestroyDevice")
	if len(d.instances) == 0 {
		d.lateDevices++
	}
	delete(d.devices, device)
}

func (d *fakeDriver) GetDeviceQueue(device NativeDevice, family, index uint32) NativeQueue {
	if d.call("GetDeviceQueue") != Success {
		return 0
	}
	d.queueGets = append(d.queueGets, [2]uint32{family, index})
	return NativeQueue(uint64(device)<<16 | uint64(family)<<8 | uint64(index) | 1<<40)
}

func (d *fakeDriver) CreateCommandPool(device NativeDevice, info CommandPoolCreateInfo, alloc *HostAllocator) (NativeCommandPool, Result) {
	if ret := d.call("CreateCommandPool"); ret != Success {
		return 0, ret
	}
	id := NativeCommandPool(d.id())
	d.pools[id] = info
	return id, Success
}

func (d *fakeDriver) DestroyCommandPool(device NativeDevice, pool NativeCommandPool, alloc *HostAllocator) {
	d.call("DestroyCommandPool")
	delete(d.pools, pool)
}

func (d *fakeDriver) ResetCommandPool(device NativeDevice, pool NativeCommandPool) Result {
	ret := d.call("ResetCommandPool")
	if ret == Success {
		d.poolResets++
	}
	return ret
}

func (d *fakeDriver) AllocateCommandBuffers(device NativeDevice, pool NativeCommandPool, level CommandBufferLevel, count uint32) ([]NativeCommandBuffer, Result) {
	if ret := d.call("AllocateCommandBuffers"); ret != Success {
		return nil, ret
	}
	list := make([]NativeCommandBuffer, count)
	for i := range list {
		list[i] = NativeCommandBuffer(d.id())
		d.buffers[list[i]] = true
	}
	return list, Success
}

func (d *fakeDriver) FreeCommandBuffers(device NativeDevice, pool NativeCommandPool, buffers []NativeCommandBuffer) {
	d.call("FreeCommandBuffers")
	for _, b := range buffers {
		delete(d.buffers, b)
	}
}

func (d *fakeDriver) ResetCommandBuffer(buffer NativeCommandBuffer) Result {
	ret := d.call("ResetCommandBuffer")
	if ret == Success {
		d.bufferResets++
	}
	return ret
}

// countingAllocator wraps the default allocator and tracks live blocks.
type countingAllocator struct {
	live    int
	aligned int
	total   int
}

func (c *countingAllocator) allocator() Allocator {
	def := DefaultAllocator()
	return Allocator{
		Alloc: func(ud unsafe.Pointer, size uintptr) unsafe.Pointer {
			c.live++
			c.total++
			return def.Alloc(ud, size)
		},
		AllocAligned: func(ud unsafe.Pointer, size, alignment uintptr) unsafe.Pointer {
			c.live++
			c.total++
			c.aligned++
			return def.AllocAligned(ud, size, alignment)
		},
		Realloc: func(ud, p unsafe.Pointer, size uintptr) unsafe.Pointer {
			return def.Realloc(ud, p, size)
		},
		Free: func(ud, p unsafe.Pointer) {
			c.live--
			def.Free(ud, p)
		},
		FreeAligned: func(ud, p unsafe.Pointer) {
			c.live--
			c.aligned--
			def.FreeAligned(ud, p)
		},
	}
}

// newTestLibrary sets up a library over drv with a counting allocator.
func newTestLibrary(drv *fakeDriver) (GraphicsLibrary, *countingAllocator) {
	counter := &countingAllocator{}
	gl, err := InitGraphicsLibrary(drv, counter.allocator())
	if err != nil {
		panic(err)
	}
	return gl, counter
}

func testApp() ApplicationInfo {
	return ApplicationInfo{
		ApplicationName: "test",
		EngineName:      "learnvk",
		APIVersion:      APIVersion12,
	}
}

// newTestInstance creates an instance with a window so throwaway surfaces
// are possible.
func newTestInstance(gl GraphicsLibrary) Instance {
	inst, err := gl.CreateInstance(testApp(), ExtensionSet{}, ExtensionSet{},
		&fakeWindow{extensions: []string{"VK_KHR_surface"}})
	if err != nil {
		panic(err)
	}
	return inst
}
