package vkdriver

import (
	"testing"

	"github.com/andewx/learnvk"
	vk "github.com/vulkan-go/vulkan"
)

func TestFeatureFieldsRoundTrip(t *testing.T) {
	for i := range featureFields {
		want := learnvk.NewFeatureSet(learnvk.Feature(i))
		f := deviceFeatures(want)
		if got := featureSet(&f); got != want {
			t.Errorf("%s: round trip gave %v", learnvk.Feature(i), got.Features())
		}
	}
}

func TestFeatureFieldsDistinct(t *testing.T) {
	var f vk.PhysicalDeviceFeatures
	seen := make(map[*vk.Bool32]int)
	for i, field := range featureFields {
		p := field(&f)
		if j, ok := seen[p]; ok {
			t.Errorf("%s and %s share a field", learnvk.Feature(j), learnvk.Feature(i))
		}
		seen[p] = i
	}
}

func TestQueueFeatures(t *testing.T) {
	tests := []struct {
		name  string
		flags vk.QueueFlagBits
		want  learnvk.QueueFeatureFlags
	}{
		{"graphics compute", vk.QueueGraphicsBit | vk.QueueComputeBit, learnvk.QueueGraphics | learnvk.QueueCompute},
		{"transfer", vk.QueueTransferBit, learnvk.QueueTransfer},
		{"protected", queueProtectedBit, learnvk.QueueProtectedMemory},
		{"optical flow is not present", queueOpticalFlowBit, learnvk.QueueOpticalFlow},
		{"none", 0, learnvk.QueueNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := queueFeatures(vk.QueueFlags(tt.flags))
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
			if got.Has(learnvk.QueuePresent) {
				t.Error("present bit set from API queue flags")
			}
		})
	}
}

func TestHandleMapStableIDs(t *testing.T) {
	var next uint64
	a := newHandleMap[learnvk.NativeQueue, string](&next)
	b := newHandleMap[learnvk.NativeCommandPool, string](&next)
	q1 := a.add("q")
	if a.add("q") != q1 {
		t.Error("same object got two ids")
	}
	p1 := b.add("p")
	if uint64(p1) == uint64(q1) {
		t.Error("ids collide across maps")
	}
	if v, ok := a.drop(q1); !ok || v != "q" {
		t.Errorf("drop = %q %v", v, ok)
	}
	if _, ok := a.get(q1); ok {
		t.Error("dropped id still resolves")
	}
	if a.add("q") == q1 {
		t.Error("id reused after drop")
	}
}

func TestSafeString(t *testing.T) {
	if got := safeString("VK_KHR_surface"); got != "VK_KHR_surface\x00" {
		t.Errorf("got %q", got)
	}
	if got := safeString("x\x00"); got != "x\x00" {
		t.Errorf("got %q", got)
	}
}
