package learnvk

import "testing"

func TestInitGraphicsLibraryNilDriver(t *testing.T) {
	gl, err := InitGraphicsLibrary(nil, Allocator{})
	if gl.Valid() || !IsKind(err, KindInvalidHandle) {
		t.Errorf("valid %v err %v", gl.Valid(), err)
	}
}

func TestInstanceCatalogCached(t *testing.T) {
	drv := newFakeDriver()
	gl, _ := newTestLibrary(drv)
	defer gl.Release()

	if !gl.IsInstanceLayerAvailable("VK_LAYER_KHRONOS_validation") || gl.IsInstanceLayerAvailable("VK_LAYER_missing") {
		t.Error("layer availability wrong")
	}
	if !gl.IsInstanceExtensionAvailable("VK_KHR_surface") {
		t.Error("surface extension not reported")
	}
	gl.AvailableInstanceLayers(false)
	gl.AvailableInstanceExtensions(false)
	if drv.calls["EnumerateInstanceLayers"] != 1 || drv.calls["EnumerateInstanceExtensions"] != 1 {
		t.Errorf("cached catalog queried again: %v", drv.calls)
	}
	gl.AvailableInstanceLayers(true)
	if drv.calls["EnumerateInstanceLayers"] != 2 {
		t.Error("forced refresh did not query")
	}

	drv.fail["EnumerateInstanceExtensions"] = ErrorOutOfHostMemory
	if got := gl.AvailableInstanceExtensions(true); got != nil {
		t.Errorf("failed query returned %v", got)
	}
	delete(drv.fail, "EnumerateInstanceExtensions")
	if got := gl.AvailableInstanceExtensions(false); len(got) != 3 {
		t.Error("failed query was cached")
	}
}

func TestCreateInstanceNegotiates(t *testing.T) {
	drv := newFakeDriver()
	gl, _ := newTestLibrary(drv)
	defer gl.Release()

	window := &fakeWindow{extensions: []string{"VK_KHR_surface", "VK_KHR_xcb_surface"}}
	inst, err := gl.CreateInstance(testApp(),
		NewExtensionSet(nil, []string{"VK_LAYER_KHRONOS_validation", "VK_LAYER_missing"}),
		NewExtensionSet(nil, []string{"VK_EXT_debug_utils", "VK_EXT_missing"}),
		window)
	if err != nil {
		t.Fatal(err)
	}
	if got := drv.lastInstance.Layers; len(got) != 1 || got[0] != "VK_LAYER_KHRONOS_validation" {
		t.Errorf("layers = %v", got)
	}
	want := []string{"VK_KHR_surface", "VK_KHR_xcb_surface", "VK_EXT_debug_utils"}
	got := inst.EnabledExtensions()
	if len(got) != len(want) {
		t.Fatalf("extensions = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("extension %d = %s, want %s", i, got[i], want[i])
		}
	}
	if !inst.SurfaceCapable() || inst.APIVersion() != APIVersion12 {
		t.Error("instance lost its window or version")
	}
}

func TestCreateInstanceFailures(t *testing.T) {
	tests := []struct {
		name       string
		layers     ExtensionSet
		extensions ExtensionSet
		fail       bool
		kind       Kind
	}{
		{"missing layer", NewExtensionSet([]string{"VK_LAYER_missing"}, nil), ExtensionSet{}, false, KindMissingLayer},
		{"missing extension", ExtensionSet{}, NewExtensionSet([]string{"VK_KHR_missing"}, nil), false, KindMissingExtension},
		{"backing call", ExtensionSet{}, ExtensionSet{}, true, KindBackingCall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := newFakeDriver()
			gl, counter := newTestLibrary(drv)
			defer gl.Release()
			if tt.fail {
				drv.fail["CreateInstance"] = ErrorIncompatibleDriver
			}
			inst, err := gl.CreateInstance(testApp(), tt.layers, tt.extensions, nil)
			if inst.Valid() || !IsKind(err, tt.kind) {
				t.Fatalf("valid %v err %v", inst.Valid(), err)
			}
			if counter.live != 1 {
				t.Errorf("%d blocks live, want only the library", counter.live)
			}
		})
	}
}

func TestCreateSurfaceNeedsWindow(t *testing.T) {
	drv := newFakeDriver()
	gl, _ := newTestLibrary(drv)
	defer gl.Release()
	inst, _ := gl.CreateInstance(testApp(), ExtensionSet{}, ExtensionSet{}, nil)
	if _, err := inst.CreateSurface(nil); !IsKind(err, KindInvalidHandle) {
		t.Errorf("err = %v", err)
	}
	s, err := inst.CreateSurface(&fakeWindow{})
	if err != nil || !s.Valid() || s.Instance() != inst {
		t.Fatalf("surface %v err %v", s, err)
	}
}
