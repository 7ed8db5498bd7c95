package learnvk

import "testing"

func setupPhysicalDevice(t *testing.T, gpus ...*fakeGPU) (*fakeDriver, GraphicsLibrary, Instance, PhysicalDevice) {
	t.Helper()
	if len(gpus) == 0 {
		gpus = []*fakeGPU{standardGPU("gpu", DeviceTypeDiscreteGPU)}
	}
	drv := newFakeDriver(gpus...)
	gl, _ := newTestLibrary(drv)
	inst := newTestInstance(gl)
	pds := inst.PhysicalDevices(false)
	if len(pds) != len(gpus) {
		t.Fatalf("got %d physical devices, want %d", len(pds), len(gpus))
	}
	t.Cleanup(func() { gl.Release() })
	return drv, gl, inst, pds[0]
}

func TestQueueFamiliesCached(t *testing.T) {
	drv, _, inst, pd := setupPhysicalDevice(t)
	surface, err := inst.CreateSurface(nil)
	if err != nil {
		t.Fatal(err)
	}

	first := pd.AvailableQueueFamilies(surface, false)
	if len(first) != 3 {
		t.Fatalf("got %d families", len(first))
	}
	for i, f := range first {
		if f.Index != i || !f.IsPresent() {
			t.Errorf("family %d: %s", i, f)
		}
	}
	pd.AvailableQueueFamilies(surface, false)
	pd.AvailableQueueFamilies(Surface{}, false)
	if drv.calls["QueueFamilyCount"] != 1 || drv.calls["SurfaceSupport"] != 3 {
		t.Errorf("cached query hit the driver: %v", drv.calls)
	}

	pd.AvailableQueueFamilies(surface, true)
	if drv.calls["QueueFamilyCount"] != 2 || drv.calls["SurfaceSupport"] != 6 {
		t.Errorf("forced refresh did not query: %v", drv.calls)
	}

	other, err := inst.CreateSurface(nil)
	if err != nil {
		t.Fatal(err)
	}
	pd.AvailableQueueFamilies(other, false)
	if drv.calls["QueueFamilyCount"] != 3 {
		t.Errorf("different surface served from cache: %v", drv.calls)
	}
}

func TestQueueFamiliesThrowawaySurface(t *testing.T) {
	gpu := standardGPU("gpu", DeviceTypeDiscreteGPU)
	gpu.present = map[uint32]bool{1: true}
	drv, _, _, pd := setupPhysicalDevice(t, gpu)

	families := pd.AvailableQueueFamilies(Surface{}, false)
	if len(families) != 3 {
		t.Fatalf("got %d families", len(families))
	}
	if got := families.FilterPresent(); len(got) != 1 || got[0].Index != 1 {
		t.Errorf("present families = %v", got)
	}
	if drv.calls["CreateSurface"] != 1 || drv.calls["DestroySurface"] != 1 {
		t.Errorf("throwaway surface not created and destroyed: %v", drv.calls)
	}
	if len(drv.surfaces) != 0 {
		t.Errorf("%d surfaces left", len(drv.surfaces))
	}
}

func TestQueueFamiliesWithoutWindow(t *testing.T) {
	drv := newFakeDriver(standardGPU("gpu", DeviceTypeDiscreteGPU))
	gl, _ := newTestLibrary(drv)
	defer gl.Release()
	inst, err := gl.CreateInstance(testApp(), ExtensionSet{}, ExtensionSet{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	families := inst.PhysicalDevices(false)[0].AvailableQueueFamilies(Surface{}, false)
	if len(families) != 3 || len(families.FilterPresent()) != 0 {
		t.Errorf("families = %v", families)
	}
	if drv.calls["SurfaceSupport"] != 0 {
		t.Error("present probed without a surface")
	}
}

func TestQueueFamiliesUnknown(t *testing.T) {
	tests := []struct {
		name   string
		fail   string
		result Result
	}{
		{"zero count", "QueueFamilyCount", ErrorInitializationFailed},
		{"no properties", "QueueFamilyProperties", ErrorInitializationFailed},
		{"present probe fails", "SurfaceSupport", ErrorSurfaceLost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv, _, _, pd := setupPhysicalDevice(t)
			drv.fail[tt.fail] = tt.result
			if got := pd.AvailableQueueFamilies(Surface{}, false); len(got) != 0 {
				t.Errorf("got %v, want empty", got)
			}
			if _, err := pd.QueueFamilySelection([]QueueRequest{NewQueueRequest(QueueGraphics)}, Surface{}, DefaultOverridePolicy); !IsKind(err, KindCapabilitiesUnknown) {
				t.Errorf("err = %v, want capabilities unknown", err)
			}
			// A failed query is not cached.
			delete(drv.fail, tt.fail)
			if got := pd.AvailableQueueFamilies(Surface{}, false); len(got) != 3 {
				t.Errorf("recovered query returned %d families", len(got))
			}
		})
	}
}

func TestCopyIndependence(t *testing.T) {
	drv, _, _, pd := setupPhysicalDevice(t)
	want := pd.Properties(false)
	pd.Features(false)
	pd.AvailableQueueFamilies(Surface{}, false)

	cp, err := pd.Copy()
	if err != nil {
		t.Fatal(err)
	}
	defer cp.Release()
	if cp.h == pd.h || cp.Native() != pd.Native() {
		t.Fatal("copy shares the record or lost the native handle")
	}

	pd.Properties(true)
	pd.AvailableQueueFamilies(Surface{}, true)
	props := drv.calls["Properties"]
	counts := drv.calls["QueueFamilyCount"]

	if got := cp.Properties(false); got != want {
		t.Errorf("copy properties = %+v", got)
	}
	cp.Features(false)
	cp.AvailableQueueFamilies(Surface{}, false)
	if drv.calls["Properties"] != props || drv.calls["QueueFamilyCount"] != counts || drv.calls["Features"] != 1 {
		t.Errorf("copy re-queried the driver: %v", drv.calls)
	}

	cp.Properties(true)
	if drv.calls["Properties"] != props+1 {
		t.Error("forced refresh on the copy did not query")
	}
	pd.Properties(false)
	if drv.calls["Properties"] != props+1 {
		t.Error("refresh on the copy invalidated the original")
	}
}

func TestSurfaceCapabilitiesCachedPerSurface(t *testing.T) {
	drv, _, inst, pd := setupPhysicalDevice(t)
	a, _ := inst.CreateSurface(nil)
	b, _ := inst.CreateSurface(nil)

	caps, err := pd.SurfaceCapabilities(a, false)
	if err != nil {
		t.Fatal(err)
	}
	if caps.CurrentExtent != (Extent2D{Width: 640, Height: 480}) {
		t.Errorf("extent = %+v", caps.CurrentExtent)
	}
	pd.SurfaceCapabilities(a, false)
	pd.SurfaceCapabilities(b, false)
	pd.SurfaceCapabilities(a, true)
	if drv.calls["SurfaceCapabilities"] != 3 {
		t.Errorf("SurfaceCapabilities called %d times, want 3", drv.calls["SurfaceCapabilities"])
	}
	if _, err := pd.SurfaceCapabilities(Surface{}, false); !IsKind(err, KindInvalidHandle) {
		t.Errorf("err = %v", err)
	}
}

func TestExtensionCatalog(t *testing.T) {
	drv, _, _, pd := setupPhysicalDevice(t)
	if !pd.IsExtensionAvailable("VK_KHR_swapchain") || pd.IsExtensionAvailable("VK_KHR_ray_query") {
		t.Error("extension availability wrong")
	}
	pd.AvailableExtensions(false)
	if drv.calls["EnumerateDeviceExtensions"] != 1 {
		t.Errorf("extensions queried %d times", drv.calls["EnumerateDeviceExtensions"])
	}
	pd.AvailableExtensions(true)
	if drv.calls["EnumerateDeviceExtensions"] != 2 {
		t.Error("forced refresh did not query")
	}
}

func TestPhysicalDevicesRefreshKeepsInUse(t *testing.T) {
	drv, _, inst, pd := setupPhysicalDevice(t,
		standardGPU("a", DeviceTypeDiscreteGPU), standardGPU("b", DeviceTypeIntegratedGPU))
	others := inst.PhysicalDevices(false)[1]
	dev, err := pd.CreateRenderDevice(RenderDeviceInfo{Requests: []QueueRequest{NewQueueRequest(QueueGraphics)}})
	if err != nil {
		t.Fatal(err)
	}
	if !pd.InUse() || others.InUse() {
		t.Fatal("InUse wrong")
	}

	refreshed := inst.PhysicalDevices(true)
	if drv.calls["EnumeratePhysicalDevices"] != 2 {
		t.Errorf("enumerated %d times", drv.calls["EnumeratePhysicalDevices"])
	}
	if len(refreshed) != 2 || refreshed[0] != pd {
		t.Errorf("in use device not kept in place: %v", refreshed)
	}
	if others.Valid() {
		t.Error("unused device survived the refresh")
	}
	if !dev.Valid() {
		t.Error("render device lost on refresh")
	}

	inst.ReleaseUnusedPhysicalDevices()
	if got := inst.PhysicalDevices(false); len(got) != 2 {
		t.Errorf("list after releasing unused = %d devices", len(got))
	}
}
