package learnvk

import "fmt"

// QueueFamilyRecord is an immutable snapshot of one queue family. Index is the
// driver's family index and identifies the family.
type QueueFamilyRecord struct {
	Index                       int
	Features                    QueueFeatureFlags
	QueueCount                  uint32
	TimestampValidBits          uint32
	MinImageTransferGranularity Extent3D
}

func (q QueueFamilyRecord) IsGraphics() bool { return q.Features.Has(QueueGraphics) }
func (q QueueFamilyRecord) IsCompute() bool  { return q.Features.Has(QueueCompute) }
func (q QueueFamilyRecord) IsTransfer() bool { return q.Features.Has(QueueTransfer) }
func (q QueueFamilyRecord) IsPresent() bool  { return q.Features.Has(QueuePresent) }

func (q QueueFamilyRecord) String() string {
	g := q.MinImageTransferGranularity
	return fmt.Sprintf("{ Index: %d Features: %s Count: %d Timestamp: %d Granularity: (%d,%d,%d) }",
		q.Index, q.Features, q.QueueCount, q.TimestampValidBits, g.Width, g.Height, g.Depth)
}

// QueueFamilySlice is ordered by family index. An empty slice from the
// catalog means the capabilities are unknown, not that there are no queues.
type QueueFamilySlice []QueueFamilyRecord

func (ql QueueFamilySlice) Filter(f func(q QueueFamilyRecord) bool) QueueFamilySlice {
	ret := make(QueueFamilySlice, 0)
	for _, q := range ql {
		if f(q) {
			ret = append(ret, q)
		}
	}
	return ret
}

// FilterFeatures keeps the families supporting every bit of flags.
func (ql QueueFamilySlice) FilterFeatures(flags QueueFeatureFlags) QueueFamilySlice {
	return ql.Filter(func(q QueueFamilyRecord) bool {
		return q.Features.Has(flags)
	})
}

func (ql QueueFamilySlice) FilterPresent() QueueFamilySlice {
	return ql.Filter(func(q QueueFamilyRecord) bool {
		return q.IsPresent()
	})
}

// Family returns the record with the given index.
func (ql QueueFamilySlice) Family(index int) (QueueFamilyRecord, bool) {
	if index < 0 || index >= len(ql) || ql[index].Index != index {
		for _, q := range ql {
			if q.Index == index {
				return q, true
			}
		}
		return QueueFamilyRecord{}, false
	}
	return ql[index], true
}
