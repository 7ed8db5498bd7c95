// Package loader resolves Vulkan entry points tier by tier from the
// platform loader library.
package loader

// Tier is the point in an object's life at which an entry point can be
// resolved.
type Tier uint8

const (
	// TierExported symbols are exported directly by the loader library.
	TierExported Tier = iota
	// TierGlobal entry points resolve through vkGetInstanceProcAddr with a
	// null instance.
	TierGlobal
	// TierInstance entry points need a live instance.
	TierInstance
	// TierDevice entry points need a live device.
	TierDevice
)

func (t Tier) String() string {
	switch t {
	case TierExported:
		return "exported"
	case TierGlobal:
		return "global"
	case TierInstance:
		return "instance"
	case TierDevice:
		return "device"
	}
	return "unknown"
}

// Entry names one entry point. A non-empty Extension makes the entry
// conditional: it is only loaded when that extension was enabled on the owner.
type Entry struct {
	Name      string
	Tier      Tier
	Extension string
}

const (
	extSurface   = "VK_KHR_surface"
	extSwapchain = "VK_KHR_swapchain"
	extDebug     = "VK_EXT_debug_utils"
)

// Entries lists every entry point learnvk and vkdriver call.
var Entries = []Entry{
	{Name: "vkGetInstanceProcAddr", Tier: TierExported},

	{Name: "vkCreateInstance", Tier: TierGlobal},
	{Name: "vkEnumerateInstanceExtensionProperties", Tier: TierGlobal},
	{Name: "vkEnumerateInstanceLayerProperties", Tier: TierGlobal},

	{Name: "vkDestroyInstance", Tier: TierInstance},
	{Name: "vkEnumeratePhysicalDevices", Tier: TierInstance},
	{Name: "vkGetPhysicalDeviceProperties", Tier: TierInstance},
	{Name: "vkGetPhysicalDeviceFeatures", Tier: TierInstance},
	{Name: "vkGetPhysicalDeviceQueueFamilyProperties", Tier: TierInstance},
	{Name: "vkGetPhysicalDeviceMemoryProperties", Tier: TierInstance},
	{Name: "vkEnumerateDeviceExtensionProperties", Tier: TierInstance},
	{Name: "vkCreateDevice", Tier: TierInstance},
	{Name: "vkGetDeviceProcAddr", Tier: TierInstance},
	{Name: "vkDestroySurfaceKHR", Tier: TierInstance, Extension: extSurface},
	{Name: "vkGetPhysicalDeviceSurfaceSupportKHR", Tier: TierInstance, Extension: extSurface},
	{Name: "vkGetPhysicalDeviceSurfaceCapabilitiesKHR", Tier: TierInstance, Extension: extSurface},
	{Name: "vkGetPhysicalDeviceSurfaceFormatsKHR", Tier: TierInstance, Extension: extSurface},
	{Name: "vkGetPhysicalDeviceSurfacePresentModesKHR", Tier: TierInstance, Extension: extSurface},
	{Name: "vkCreateDebugUtilsMessengerEXT", Tier: TierInstance, Extension: extDebug},
	{Name: "vkDestroyDebugUtilsMessengerEXT", Tier: TierInstance, Extension: extDebug},

	{Name: "vkDestroyDevice", Tier: TierDevice},
	{Name: "vkDeviceWaitIdle", Tier: TierDevice},
	{Name: "vkGetDeviceQueue", Tier: TierDevice},
	{Name: "vkCreateCommandPool", Tier: TierDevice},
	{Name: "vkDestroyCommandPool", Tier: TierDevice},
	{Name: "vkResetCommandPool", Tier: TierDevice},
	{Name: "vkAllocateCommandBuffers", Tier: TierDevice},
	{Name: "vkFreeCommandBuffers", Tier: TierDevice},
	{Name: "vkResetCommandBuffer", Tier: TierDevice},
	{Name: "vkCreateSwapchainKHR", Tier: TierDevice, Extension: extSwapchain},
	{Name: "vkDestroySwapchainKHR", Tier: TierDevice, Extension: extSwapchain},
	{Name: "vkGetSwapchainImagesKHR", Tier: TierDevice, Extension: extSwapchain},
	{Name: "vkAcquireNextImageKHR", Tier: TierDevice, Extension: extSwapchain},
	{Name: "vkQueuePresentKHR", Tier: TierDevice, Extension: extSwapchain},
}
