package learnvk

import (
	"go.uber.org/zap"
)

// NoFamily marks an unset family override or a request without a selected
// family.
const NoFamily = -1

// QueueRequest describes the queue a caller needs. The weights tune how much
// queue count, timestamp precision and a fine transfer granularity count
// towards a family's score.
type QueueRequest struct {
	FamilyOverride    int
	Priority          QueuePriority
	RequiredFeatures  QueueFeatureFlags
	QueueCountWeight  uint64
	TimestampWeight   uint64
	GranularityWeight uint64
}

func NewQueueRequest(required QueueFeatureFlags) QueueRequest {
	return QueueRequest{
		FamilyOverride:    NoFamily,
		Priority:          PriorityNormal,
		RequiredFeatures:  required,
		QueueCountWeight:  8,
		TimestampWeight:   2,
		GranularityWeight: 1,
	}
}

type QueueFamilySelection struct {
	FamilyIndex int
	Score       uint64
}

func (s QueueFamilySelection) Found() bool {
	return s.FamilyIndex != NoFamily
}

// OverridePolicy decides what happens to requests that name a family.
type OverridePolicy uint8

const (
	// OverrideAccept validates the named family and selects it without a search.
	OverrideAccept OverridePolicy = iota
	// OverrideSkip never scores overridden requests, so they fail the batch.
	OverrideSkip
)

// DefaultOverridePolicy is the zero OverridePolicy.
const DefaultOverridePolicy = OverrideAccept

const granularityCeiling = 128

func eligible(req QueueRequest, fam QueueFamilyRecord) bool {
	return fam.QueueCount != 0 && fam.Features.Has(req.RequiredFeatures)
}

// scoreFamily rates fam for req. Smaller average transfer granularity scores
// higher; that term never exceeds 128*GranularityWeight and never goes below zero.
func scoreFamily(req QueueRequest, fam QueueFamilyRecord) uint64 {
	score := uint64(1)
	score += uint64(fam.QueueCount) * req.QueueCountWeight
	score += uint64(fam.TimestampValidBits) * req.TimestampWeight
	if req.GranularityWeight != 0 {
		g := fam.MinImageTransferGranularity
		avg := (uint64(g.Width) + uint64(g.Height) + uint64(g.Depth)) / 3
		ceiling := granularityCeiling * req.GranularityWeight
		score += ceiling - min(ceiling, avg*req.GranularityWeight)
	}
	return score
}

// SelectQueueFamilies maps each request onto the best scoring family. Requests
// are scored independently, so several may land on the same family. If any
// request cannot be satisfied the whole batch fails and no selections are
// returned.
func SelectQueueFamilies(requests []QueueRequest, families QueueFamilySlice, policy OverridePolicy) ([]QueueFamilySelection, error) {
	const op = "select queue families"
	log := Logger()

	selections := make([]QueueFamilySelection, len(requests))
	var firstErr *Error
	for i, req := range requests {
		sel := QueueFamilySelection{FamilyIndex: NoFamily}

		if req.FamilyOverride != NoFamily {
			if policy == OverrideSkip {
				log.Error("queue family override is not supported", zap.Int("request", i), zap.Int("family", req.FamilyOverride))
				if firstErr == nil {
					firstErr = newErr(op, KindOverrideUnsupported)
					firstErr.Index = i
				}
				continue
			}
			fam, ok := families.Family(req.FamilyOverride)
			if !ok || !eligible(req, fam) {
				log.Error("queue family override does not satisfy request", zap.Int("request", i), zap.Int("family", req.FamilyOverride))
				if firstErr == nil {
					firstErr = newErr(op, KindUnsatisfiable)
					firstErr.Index = i
				}
				continue
			}
			selections[i] = QueueFamilySelection{FamilyIndex: fam.Index, Score: scoreFamily(req, fam)}
			continue
		}

		for _, fam := range families {
			if !eligible(req, fam) {
				continue
			}
			if score := scoreFamily(req, fam); score > sel.Score {
				sel = QueueFamilySelection{FamilyIndex: fam.Index, Score: score}
			}
		}
		if !sel.Found() {
			log.Error("no queue family satisfies request", zap.Int("request", i), zap.Stringer("required", req.RequiredFeatures))
			if firstErr == nil {
				firstErr = newErr(op, KindUnsatisfiable)
				firstErr.Index = i
			}
			continue
		}
		log.Debug("selected queue family", zap.Int("request", i), zap.Int("family", sel.FamilyIndex), zap.Uint64("score", sel.Score))
		selections[i] = sel
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return selections, nil
}

// queueSlot places one request on a queue of a family.
type queueSlot struct {
	familyIndex int
	queueIndex  uint32
	priority    QueuePriority
}

// planQueues assigns every selected request a queue index within its family,
// in request order, wrapping when a family has fewer queues than requests.
// It returns the slots and the per-family create infos in family order of
// first use.
func planQueues(requests []QueueRequest, selections []QueueFamilySelection, families QueueFamilySlice) ([]queueSlot, []DeviceQueueCreateInfo) {
	slots := make([]queueSlot, len(selections))
	used := make(map[int]int)
	var infos []DeviceQueueCreateInfo
	infoIndex := make(map[int]int)

	for i, sel := range selections {
		fam, _ := families.Family(sel.FamilyIndex)
		count := max(fam.QueueCount, 1)
		n := used[sel.FamilyIndex]
		used[sel.FamilyIndex] = n + 1
		queue := uint32(n) % count
		slots[i] = queueSlot{familyIndex: sel.FamilyIndex, queueIndex: queue, priority: requests[i].Priority}

		j, ok := infoIndex[sel.FamilyIndex]
		if !ok {
			j = len(infos)
			infoIndex[sel.FamilyIndex] = j
			infos = append(infos, DeviceQueueCreateInfo{FamilyIndex: uint32(sel.FamilyIndex)})
		}
		if int(queue) == len(infos[j].Priorities) {
			infos[j].Priorities = append(infos[j].Priorities, requests[i].Priority.Value())
		} else if requests[i].Priority.Value() > infos[j].Priorities[queue] {
			infos[j].Priorities[queue] = requests[i].Priority.Value()
		}
	}
	return slots, infos
}
