package learnvk

import "strings"

// QueueFeatureFlags describes what work a queue family accepts. Present is not
// reported by the driver; it is probed per (family, surface) and merged in.
type QueueFeatureFlags uint32

const (
	QueueGraphics QueueFeatureFlags = 1 << iota
	QueueCompute
	QueueTransfer
	QueueSparseBinding
	QueueProtectedMemory
	QueueVideoDecode
	QueueVideoEncode
	QueueOpticalFlow
	QueuePresent

	QueueNone QueueFeatureFlags = 0
)

var queueFeatureNames = []struct {
	flag QueueFeatureFlags
	name string
}{
	{QueueGraphics, "graphics"},
	{QueueCompute, "compute"},
	{QueueTransfer, "transfer"},
	{QueueSparseBinding, "sparse binding"},
	{QueueProtectedMemory, "protected memory"},
	{QueueVideoDecode, "video decode"},
	{QueueVideoEncode, "video encode"},
	{QueueOpticalFlow, "optical flow"},
	{QueuePresent, "present"},
}

// Has reports whether every bit of other is set in f.
func (f QueueFeatureFlags) Has(other QueueFeatureFlags) bool {
	return f&other == other
}

// Names lists the set features in bit order.
func (f QueueFeatureFlags) Names() []string {
	var names []string
	for _, n := range queueFeatureNames {
		if f&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	return names
}

func (f QueueFeatureFlags) String() string {
	if f == QueueNone {
		return "none"
	}
	return strings.Join(f.Names(), "|")
}

// ParseQueueFeature maps a feature name as printed by String back to its flag.
func ParseQueueFeature(name string) (QueueFeatureFlags, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, n := range queueFeatureNames {
		if n.name == name || strings.ReplaceAll(n.name, " ", "") == name {
			return n.flag, true
		}
	}
	return QueueNone, false
}

type QueuePriority uint8

const (
	PriorityNormal QueuePriority = iota
	PriorityHigh
)

// Value is the priority handed to the driver when the queue is created.
func (p QueuePriority) Value() float32 {
	if p == PriorityHigh {
		return 1.0
	}
	return 0.5
}

func (p QueuePriority) String() string {
	switch p {
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	}
	return "unknown"
}

type CommandBufferLevel uint8

const (
	LevelPrimary CommandBufferLevel = iota
	LevelSecondary

	levelCount = 2
)

func (l CommandBufferLevel) String() string {
	if l == LevelSecondary {
		return "secondary"
	}
	return "primary"
}

type DeviceType uint8

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegratedGPU
	DeviceTypeDiscreteGPU
	DeviceTypeVirtualGPU
	DeviceTypeCPU

	deviceTypeCount = 5
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeOther:
		return "Other"
	case DeviceTypeIntegratedGPU:
		return "Integrated GPU"
	case DeviceTypeDiscreteGPU:
		return "Discrete GPU"
	case DeviceTypeVirtualGPU:
		return "Virtual GPU"
	case DeviceTypeCPU:
		return "CPU"
	}
	return "unknown"
}

type Extent2D struct {
	Width, Height uint32
}

type Extent3D struct {
	Width, Height, Depth uint32
}
