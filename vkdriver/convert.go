package vkdriver

import (
	"github.com/andewx/learnvk"
	vk "github.com/vulkan-go/vulkan"
)

// Queue flag bits newer than the bound headers.
const (
	queueProtectedBit   vk.QueueFlagBits = 0x00000010
	queueVideoDecodeBit vk.QueueFlagBits = 0x00000020
	queueVideoEncodeBit vk.QueueFlagBits = 0x00000040
	queueOpticalFlowBit vk.QueueFlagBits = 0x00000100

	commandPoolCreateProtectedBit vk.CommandPoolCreateFlagBits = 0x00000004
)

// queueFlagTable maps API queue bits onto QueueFeatureFlags one by one; the
// two bit layouts differ, so no bit is ever cast across.
var queueFlagTable = []struct {
	bit  vk.QueueFlagBits
	flag learnvk.QueueFeatureFlags
}{
	{vk.QueueGraphicsBit, learnvk.QueueGraphics},
	{vk.QueueComputeBit, learnvk.QueueCompute},
	{vk.QueueTransferBit, learnvk.QueueTransfer},
	{vk.QueueSparseBindingBit, learnvk.QueueSparseBinding},
	{queueProtectedBit, learnvk.QueueProtectedMemory},
	{queueVideoDecodeBit, learnvk.QueueVideoDecode},
	{queueVideoEncodeBit, learnvk.QueueVideoEncode},
	{queueOpticalFlowBit, learnvk.QueueOpticalFlow},
}

func queueFeatures(flags vk.QueueFlags) learnvk.QueueFeatureFlags {
	var f learnvk.QueueFeatureFlags
	for _, e := range queueFlagTable {
		if flags&vk.QueueFlags(e.bit) != 0 {
			f |= e.flag
		}
	}
	return f
}

// featureFields lists the VkPhysicalDeviceFeatures members in Feature order.
var featureFields = [learnvk.FeatureCount]func(f *vk.PhysicalDeviceFeatures) *vk.Bool32{
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.RobustBufferAccess },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.FullDrawIndexUint32 },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ImageCubeArray },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.IndependentBlend },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.GeometryShader },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.TessellationShader },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SampleRateShading },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.DualSrcBlend },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.LogicOp },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.MultiDrawIndirect },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.DrawIndirectFirstInstance },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.DepthClamp },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.DepthBiasClamp },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.FillModeNonSolid },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.DepthBounds },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.WideLines },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.LargePoints },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.AlphaToOne },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.MultiViewport },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SamplerAnisotropy },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.TextureCompressionETC2 },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.TextureCompressionASTC_LDR },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.TextureCompressionBC },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.OcclusionQueryPrecise },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.PipelineStatisticsQuery },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.VertexPipelineStoresAndAtomics },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.FragmentStoresAndAtomics },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderTessellationAndGeometryPointSize },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderImageGatherExtended },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderStorageImageExtendedFormats },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderStorageImageMultisample },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderStorageImageReadWithoutFormat },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderStorageImageWriteWithoutFormat },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderUniformBufferArrayDynamicIndexing },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderSampledImageArrayDynamicIndexing },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderStorageBufferArrayDynamicIndexing },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderStorageImageArrayDynamicIndexing },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderClipDistance },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderCullDistance },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderFloat64 },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderInt64 },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderInt16 },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderResourceResidency },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderResourceMinLod },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseBinding },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseResidencyBuffer },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseResidencyImage2D },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseResidencyImage3D },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseResidency2Samples },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseResidency4Samples },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseResidency8Samples },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseResidency16Samples },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseResidencyAliased },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.VariableMultisampleRate },
	func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.InheritedQueries },
}

func featureSet(f *vk.PhysicalDeviceFeatures) learnvk.FeatureSet {
	var set learnvk.FeatureSet
	for i, field := range featureFields {
		if *field(f) == vk.Bool32(vk.True) {
			set = set.With(learnvk.Feature(i))
		}
	}
	return set
}

func deviceFeatures(set learnvk.FeatureSet) vk.PhysicalDeviceFeatures {
	var f vk.PhysicalDeviceFeatures
	for i, field := range featureFields {
		if set.Has(learnvk.Feature(i)) {
			*field(&f) = vk.Bool32(vk.True)
		}
	}
	return f
}

func deviceType(t vk.PhysicalDeviceType) learnvk.DeviceType {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return learnvk.DeviceTypeIntegratedGPU
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return learnvk.DeviceTypeDiscreteGPU
	case vk.PhysicalDeviceTypeVirtualGpu:
		return learnvk.DeviceTypeVirtualGPU
	case vk.PhysicalDeviceTypeCpu:
		return learnvk.DeviceTypeCPU
	}
	return learnvk.DeviceTypeOther
}

func properties(p *vk.PhysicalDeviceProperties) learnvk.PhysicalDeviceProperties {
	p.Deref()
	p.Limits.Deref()
	l := p.Limits
	return learnvk.PhysicalDeviceProperties{
		APIVersion:    learnvk.VersionFromPacked(p.ApiVersion),
		DriverVersion: learnvk.VersionFromPacked(p.DriverVersion),
		VendorID:      p.VendorID,
		DeviceID:      p.DeviceID,
		DeviceType:    deviceType(p.DeviceType),
		DeviceName:    vk.ToString(p.DeviceName[:]),
		Limits: learnvk.PhysicalDeviceLimits{
			MaxImageDimension2D:                l.MaxImageDimension2D,
			MaxPerStageDescriptorSamplers:      l.MaxPerStageDescriptorSamplers,
			MaxPerStageDescriptorSampledImages: l.MaxPerStageDescriptorSampledImages,
			MaxBoundDescriptorSets:             l.MaxBoundDescriptorSets,
			MaxMemoryAllocationCount:           l.MaxMemoryAllocationCount,
			MaxComputeWorkGroupInvocations:     l.MaxComputeWorkGroupInvocations,
			MaxViewports:                       l.MaxViewports,
			TimestampPeriod:                    l.TimestampPeriod,
			NonCoherentAtomSize:                uint64(l.NonCoherentAtomSize),
		},
	}
}

func surfaceCapabilities(c *vk.SurfaceCapabilities) learnvk.SurfaceCapabilities {
	c.Deref()
	c.CurrentExtent.Deref()
	c.MinImageExtent.Deref()
	c.MaxImageExtent.Deref()
	return learnvk.SurfaceCapabilities{
		MinImageCount:           c.MinImageCount,
		MaxImageCount:           c.MaxImageCount,
		CurrentExtent:           learnvk.Extent2D{Width: c.CurrentExtent.Width, Height: c.CurrentExtent.Height},
		MinImageExtent:          learnvk.Extent2D{Width: c.MinImageExtent.Width, Height: c.MinImageExtent.Height},
		MaxImageExtent:          learnvk.Extent2D{Width: c.MaxImageExtent.Width, Height: c.MaxImageExtent.Height},
		MaxImageArrayLayers:     c.MaxImageArrayLayers,
		SupportedTransforms:     uint32(c.SupportedTransforms),
		CurrentTransform:        uint32(c.CurrentTransform),
		SupportedCompositeAlpha: uint32(c.SupportedCompositeAlpha),
		SupportedUsageFlags:     uint32(c.SupportedUsageFlags),
	}
}

func queueFamily(q *vk.QueueFamilyProperties) learnvk.QueueFamilyProperties {
	q.Deref()
	q.MinImageTransferGranularity.Deref()
	g := q.MinImageTransferGranularity
	return learnvk.QueueFamilyProperties{
		Flags:              queueFeatures(q.QueueFlags),
		QueueCount:         q.QueueCount,
		TimestampValidBits: q.TimestampValidBits,
		MinImageTransferGranularity: learnvk.Extent3D{
			Width:  g.Width,
			Height: g.Height,
			Depth:  g.Depth,
		},
	}
}

func result(ret vk.Result) learnvk.Result {
	return learnvk.Result(int32(ret))
}

func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != 0 {
		return s + "\x00"
	}
	return s
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = safeString(list[i])
	}
	return out
}
