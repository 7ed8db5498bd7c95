package learnvk

import (
	"unsafe"

	"github.com/coreos/go-semver/semver"
)

// Native handles are the backing API's object handles as opaque integers.
// Zero is the null handle for every type.
type (
	NativeInstance       uint64
	NativePhysicalDevice uint64
	NativeSurface        uint64
	NativeDevice         uint64
	NativeQueue          uint64
	NativeCommandPool    uint64
	NativeCommandBuffer  uint64
)

// WindowHandle is a host window able to back a presentation surface.
// *glfw.Window satisfies it.
type WindowHandle interface {
	CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error)
	GetRequiredInstanceExtensions() []string
}

type ApplicationInfo struct {
	ApplicationName    string
	ApplicationVersion semver.Version
	EngineName         string
	EngineVersion      semver.Version
	APIVersion         semver.Version
}

type InstanceCreateInfo struct {
	Application ApplicationInfo
	Layers      []string
	Extensions  []string
}

// QueueFamilyProperties is what the driver reports for one family. Present
// support is probed separately.
type QueueFamilyProperties struct {
	Flags                       QueueFeatureFlags
	QueueCount                  uint32
	TimestampValidBits          uint32
	MinImageTransferGranularity Extent3D
}

type DeviceQueueCreateInfo struct {
	FamilyIndex uint32
	Priorities  []float32
}

type DeviceCreateInfo struct {
	Queues     []DeviceQueueCreateInfo
	Extensions []string
	Features   FeatureSet
}

type CommandPoolCreateInfo struct {
	FamilyIndex     uint32
	Transient       bool
	ResetIndividual bool
	Protected       bool
}

// Driver is the boundary to the backing graphics API. Every method maps onto
// one (or one pair of) API entry points. Implementations report the API
// status as a Result; count queries report zero on failure.
type Driver interface {
	EnumerateInstanceLayers() ([]LayerProperties, Result)
	EnumerateInstanceExtensions(layer string) ([]ExtensionProperties, Result)
	CreateInstance(info InstanceCreateInfo, alloc *HostAllocator) (NativeInstance, Result)
	DestroyInstance(instance NativeInstance, alloc *HostAllocator)
	EnumeratePhysicalDevices(instance NativeInstance) ([]NativePhysicalDevice, Result)

	CreateSurface(instance NativeInstance, window WindowHandle, alloc *HostAllocator) (NativeSurface, Result)
	DestroySurface(instance NativeInstance, surface NativeSurface, alloc *HostAllocator)

	QueueFamilyCount(pd NativePhysicalDevice) uint32
	QueueFamilyProperties(pd NativePhysicalDevice, count uint32) []QueueFamilyProperties
	SurfaceSupport(pd NativePhysicalDevice, family uint32, surface NativeSurface) (bool, Result)
	SurfaceCapabilities(pd NativePhysicalDevice, surface NativeSurface) (SurfaceCapabilities, Result)
	Properties(pd NativePhysicalDevice) PhysicalDeviceProperties
	Features(pd NativePhysicalDevice) FeatureSet
	EnumerateDeviceExtensions(pd NativePhysicalDevice) ([]ExtensionProperties, Result)

	CreateDevice(pd NativePhysicalDevice, info DeviceCreateInfo, alloc *HostAllocator) (NativeDevice, Result)
	DestroyDevice(device NativeDevice, alloc *HostAllocator)
	GetDeviceQueue(device NativeDevice, family, index uint32) NativeQueue

	CreateCommandPool(device NativeDevice, info CommandPoolCreateInfo, alloc *HostAllocator) (NativeCommandPool, Result)
	DestroyCommandPool(device NativeDevice, pool NativeCommandPool, alloc *HostAllocator)
	ResetCommandPool(device NativeDevice, pool NativeCommandPool) Result
	AllocateCommandBuffers(device NativeDevice, pool NativeCommandPool, level CommandBufferLevel, count uint32) ([]NativeCommandBuffer, Result)
	FreeCommandBuffers(device NativeDevice, pool NativeCommandPool, buffers []NativeCommandBuffer)
	ResetCommandBuffer(buffer NativeCommandBuffer) Result
}
