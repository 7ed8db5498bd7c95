package learnvk

import (
	"github.com/coreos/go-semver/semver"
	"go.uber.org/zap"
)

// DeviceDescription states what a physical device must offer to be picked by
// AutoSelectAndCreateDevice and how device types are ranked.
type DeviceDescription struct {
	DeviceTypeImportance          [deviceTypeCount]uint64
	APIVersion                    semver.Version
	RequiredFeatures              FeatureSet
	RequiredPerStageSampledImages uint32
}

func NewDeviceDescription() DeviceDescription {
	var d DeviceDescription
	d.DeviceTypeImportance[DeviceTypeIntegratedGPU] = 100
	d.DeviceTypeImportance[DeviceTypeDiscreteGPU] = 1000
	d.APIVersion = APIVersion10
	d.RequiredPerStageSampledImages = 4096
	return d
}

// rateDevice returns the device's score, or false with the reason it was
// rejected.
func rateDevice(pd PhysicalDevice, desc DeviceDescription, info RenderDeviceInfo) (uint64, string, bool) {
	props := pd.Properties(false)
	if props.APIVersion.LessThan(desc.APIVersion) {
		return 0, "api version too low", false
	}
	if missing := pd.Features(false).Missing(desc.RequiredFeatures | info.Features); len(missing) > 0 {
		return 0, "missing feature " + missing[0].String(), false
	}
	if props.Limits.MaxPerStageDescriptorSampledImages < desc.RequiredPerStageSampledImages {
		return 0, "too few sampled images per stage", false
	}
	available := extensionNames(pd.AvailableExtensions(false))
	if missing := missingFrom(info.Extensions.Required, available); len(missing) > 0 {
		return 0, "missing extension " + missing[0], false
	}
	if _, err := pd.QueueFamilySelection(info.Requests, info.Surface, info.OverridePolicy); err != nil {
		return 0, "queue selection failed", false
	}
	return desc.DeviceTypeImportance[props.DeviceType], "", true
}

// AutoSelectAndCreateDevice ranks the instance's physical devices against
// desc and creates a render device on the best one. Ties go to the device
// enumerated first.
func (i Instance) AutoSelectAndCreateDevice(desc DeviceDescription, info RenderDeviceInfo) (RenderDevice, error) {
	const op = "auto select device"
	if !i.Valid() {
		return RenderDevice{}, newErr(op, KindInvalidHandle)
	}
	info.Features |= desc.RequiredFeatures

	var best PhysicalDevice
	var bestScore uint64
	found := false
	for _, pd := range i.PhysicalDevices(false) {
		if pd.InUse() {
			continue
		}
		props := pd.Properties(false)
		score, reason, ok := rateDevice(pd, desc, info)
		if !ok {
			Logger().Info("physical device rejected", zap.String("device", props.DeviceName), zap.String("reason", reason))
			continue
		}
		Logger().Debug("physical device rated", zap.String("device", props.DeviceName), zap.Uint64("score", score))
		if !found || score > bestScore {
			best, bestScore, found = pd, score, true
		}
	}
	if !found {
		Logger().Error("no suitable physical device")
		return RenderDevice{}, newErr(op, KindNoSuitableDevice)
	}
	Logger().Info("physical device selected", zap.String("device", best.Properties(false).DeviceName), zap.Uint64("score", bestScore))
	return best.CreateRenderDevice(info)
}
