package learnvk

import (
	"errors"
	"testing"
)

func family(index int, flags QueueFeatureFlags, count, ts uint32, g uint32) QueueFamilyRecord {
	return QueueFamilyRecord{
		Index:                       index,
		Features:                    flags,
		QueueCount:                  count,
		TimestampValidBits:          ts,
		MinImageTransferGranularity: Extent3D{Width: g, Height: g, Depth: g},
	}
}

// threeFamilies is the graphics / compute / combined layout most tests use.
func threeFamilies() QueueFamilySlice {
	return QueueFamilySlice{
		family(0, QueueGraphics, 4, 32, 0),
		family(1, QueueCompute, 2, 0, 0),
		family(2, QueueGraphics|QueueCompute, 8, 64, 4),
	}
}

func TestEligibleSubsetRule(t *testing.T) {
	req := NewQueueRequest(QueueGraphics | QueueTransfer)
	tests := []struct {
		name string
		fam  QueueFamilyRecord
		want bool
	}{
		{"exact", family(0, QueueGraphics|QueueTransfer, 1, 0, 0), true},
		{"superset", family(0, QueueGraphics|QueueTransfer|QueueCompute, 1, 0, 0), true},
		{"missing one bit", family(0, QueueGraphics, 1, 0, 0), false},
		{"zero queues", family(0, QueueGraphics|QueueTransfer, 0, 0, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eligible(req, tt.fam); got != tt.want {
				t.Errorf("eligible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectRejectsIneligible(t *testing.T) {
	families := QueueFamilySlice{
		family(0, QueueGraphics, 16, 64, 0),
		family(1, QueueGraphics|QueueTransfer, 0, 64, 0),
		family(2, QueueGraphics|QueueTransfer, 1, 0, 0),
	}
	sel, err := SelectQueueFamilies([]QueueRequest{NewQueueRequest(QueueGraphics | QueueTransfer)}, families, DefaultOverridePolicy)
	if err != nil {
		t.Fatal(err)
	}
	if sel[0].FamilyIndex != 2 {
		t.Errorf("selected family %d, want 2", sel[0].FamilyIndex)
	}
}

func TestScoreFormula(t *testing.T) {
	req := NewQueueRequest(QueueGraphics)
	fam := family(0, QueueGraphics, 4, 32, 0)
	// 1 + 4*8 + 32*2 + (128 - 0)
	if got := scoreFamily(req, fam); got != 1+32+64+128 {
		t.Errorf("score = %d", got)
	}
	req.GranularityWeight = 0
	if got := scoreFamily(req, fam); got != 1+32+64 {
		t.Errorf("score without granularity = %d", got)
	}
}

func TestSelectTieGoesToFirst(t *testing.T) {
	families := QueueFamilySlice{
		family(0, QueueCompute, 1, 0, 0),
		family(1, QueueGraphics|QueueCompute, 2, 16, 1),
		family(2, QueueGraphics|QueueCompute, 2, 16, 1),
	}
	sel, err := SelectQueueFamilies([]QueueRequest{NewQueueRequest(QueueGraphics)}, families, DefaultOverridePolicy)
	if err != nil {
		t.Fatal(err)
	}
	if sel[0].FamilyIndex != 1 {
		t.Errorf("selected family %d, want 1", sel[0].FamilyIndex)
	}
}

func TestGranularityMonotonic(t *testing.T) {
	for _, weight := range []uint64{1, 3, 100} {
		req := NewQueueRequest(QueueTransfer)
		req.GranularityWeight = weight
		prev := scoreFamily(req, family(0, QueueTransfer, 1, 0, 0))
		for _, g := range []uint32{1, 2, 8, 64, 127, 128, 129, 1 << 20, ^uint32(0)} {
			s := scoreFamily(req, family(0, QueueTransfer, 1, 0, g))
			if s > prev {
				t.Errorf("weight %d: granularity %d scored %d, more than finer %d", weight, g, s, prev)
			}
			// Granularity never pulls the score below the base terms.
			if base := 1 + req.QueueCountWeight; s < base {
				t.Errorf("weight %d: granularity %d scored %d, below base %d", weight, g, s, base)
			}
			prev = s
		}
	}
}

func TestSelectFailsAtomically(t *testing.T) {
	requests := []QueueRequest{
		NewQueueRequest(QueueGraphics),
		NewQueueRequest(QueueVideoDecode),
		NewQueueRequest(QueueCompute),
	}
	sel, err := SelectQueueFamilies(requests, threeFamilies(), DefaultOverridePolicy)
	if sel != nil {
		t.Errorf("partial selection returned: %v", sel)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if e.Kind != KindUnsatisfiable || e.Index != 1 {
		t.Errorf("got kind %s index %d, want unsatisfiable at 1", e.Kind, e.Index)
	}
}

func TestSelectCoSelection(t *testing.T) {
	requests := []QueueRequest{NewQueueRequest(QueueGraphics), NewQueueRequest(QueueCompute)}
	sel, err := SelectQueueFamilies(requests, threeFamilies(), DefaultOverridePolicy)
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range sel {
		if s.FamilyIndex != 2 {
			t.Errorf("request %d selected family %d, want 2", i, s.FamilyIndex)
		}
	}
	// 1 + 8*8 + 64*2 + (128 - 4)
	if want := uint64(1 + 64 + 128 + 124); sel[0].Score != want {
		t.Errorf("score = %d, want %d", sel[0].Score, want)
	}
}

func TestSelectOverride(t *testing.T) {
	req := NewQueueRequest(QueueGraphics)
	req.FamilyOverride = 0

	t.Run("skip", func(t *testing.T) {
		_, err := SelectQueueFamilies([]QueueRequest{req}, threeFamilies(), OverrideSkip)
		if !IsKind(err, KindOverrideUnsupported) {
			t.Errorf("err = %v, want override unsupported", err)
		}
	})
	t.Run("accept", func(t *testing.T) {
		sel, err := SelectQueueFamilies([]QueueRequest{req}, threeFamilies(), OverrideAccept)
		if err != nil {
			t.Fatal(err)
		}
		if sel[0].FamilyIndex != 0 {
			t.Errorf("selected family %d, want the override 0", sel[0].FamilyIndex)
		}
		if want := scoreFamily(req, threeFamilies()[0]); sel[0].Score != want {
			t.Errorf("score = %d, want %d", sel[0].Score, want)
		}
	})
	t.Run("accept ineligible", func(t *testing.T) {
		bad := req
		bad.FamilyOverride = 1
		if _, err := SelectQueueFamilies([]QueueRequest{bad}, threeFamilies(), OverrideAccept); !IsKind(err, KindUnsatisfiable) {
			t.Errorf("err = %v, want unsatisfiable", err)
		}
	})
	t.Run("accept out of range", func(t *testing.T) {
		bad := req
		bad.FamilyOverride = 7
		if _, err := SelectQueueFamilies([]QueueRequest{bad}, threeFamilies(), OverrideAccept); !IsKind(err, KindUnsatisfiable) {
			t.Errorf("err = %v, want unsatisfiable", err)
		}
	})
}

func TestPlanQueues(t *testing.T) {
	families := QueueFamilySlice{
		family(0, QueueGraphics, 2, 0, 0),
		family(1, QueueTransfer, 1, 0, 0),
	}
	requests := []QueueRequest{
		NewQueueRequest(QueueGraphics),
		NewQueueRequest(QueueTransfer),
		NewQueueRequest(QueueGraphics),
		NewQueueRequest(QueueGraphics),
	}
	requests[3].Priority = PriorityHigh
	selections := []QueueFamilySelection{{FamilyIndex: 0}, {FamilyIndex: 1}, {FamilyIndex: 0}, {FamilyIndex: 0}}

	slots, infos := planQueues(requests, selections, families)
	want := []queueSlot{
		{familyIndex: 0, queueIndex: 0, priority: PriorityNormal},
		{familyIndex: 1, queueIndex: 0, priority: PriorityNormal},
		{familyIndex: 0, queueIndex: 1, priority: PriorityNormal},
		{familyIndex: 0, queueIndex: 0, priority: PriorityHigh},
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("slot %d = %+v, want %+v", i, slots[i], want[i])
		}
	}
	if len(infos) != 2 || infos[0].FamilyIndex != 0 || infos[1].FamilyIndex != 1 {
		t.Fatalf("infos = %+v", infos)
	}
	// The wrapped high priority request raises queue 0 of family 0.
	if p := infos[0].Priorities; len(p) != 2 || p[0] != 1.0 || p[1] != 0.5 {
		t.Errorf("family 0 priorities = %v", p)
	}
	if p := infos[1].Priorities; len(p) != 1 || p[0] != 0.5 {
		t.Errorf("family 1 priorities = %v", p)
	}
}

func TestQueueFamilySliceFilters(t *testing.T) {
	families := threeFamilies()
	families[1].Features |= QueuePresent
	if got := families.FilterFeatures(QueueGraphics); len(got) != 2 || got[0].Index != 0 || got[1].Index != 2 {
		t.Errorf("FilterFeatures(graphics) = %v", got)
	}
	if got := families.FilterPresent(); len(got) != 1 || got[0].Index != 1 {
		t.Errorf("FilterPresent = %v", got)
	}
	if _, ok := families.Family(3); ok {
		t.Error("Family(3) found")
	}
}
