// Command learnvk stands up a Vulkan render device for a window and prints
// what it found along the way.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/andewx/learnvk"
	"github.com/andewx/learnvk/loader"
	"github.com/andewx/learnvk/vkdriver"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	"github.com/xlab/closer"
	"go.uber.org/zap"
)

var (
	usagePath = flag.String("usage", "", "usage file (JSON); the built-in four queue usage when empty")
	logDir    = flag.String("logs", "", "write info, warn and error logs to this directory")
	useLoader = flag.Bool("loader", true, "open the Vulkan loader directly instead of going through GLFW")
	width     = flag.Int("width", 640, "window width")
	height    = flag.Int("height", 480, "window height")
)

func init() {
	runtime.LockOSThread()
}

func main() {
	flag.Parse()
	closer.Bind(func() { zap.L().Sync() })
	defer closer.Close()

	log, err := newLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		closer.Exit(1)
	}
	learnvk.SetLogger(log)
	zap.ReplaceGlobals(log)

	if err := run(); err != nil {
		log.Error("learnvk failed", zap.Error(err))
		closer.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if *logDir == "" {
		return zap.NewDevelopment()
	}
	log, sync, err := learnvk.NewFileLogger(*logDir)
	if err != nil {
		return nil, err
	}
	closer.Bind(sync)
	return log, nil
}

func loadUsage() (*learnvk.Usage, error) {
	if *usagePath == "" {
		return learnvk.DefaultUsage("learnvk"), nil
	}
	return learnvk.LoadUsage(*usagePath)
}

func run() error {
	usage, err := loadUsage()
	if err != nil {
		return err
	}
	app, err := usage.ApplicationInfo()
	if err != nil {
		return err
	}
	desc, err := usage.DeviceDescription()
	if err != nil {
		return err
	}
	requests, err := usage.QueueRequests()
	if err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "glfw init")
	}
	closer.Bind(glfw.Terminate)

	var lib *loader.Library
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if *useLoader {
		if lib, err = loader.Open(); err != nil {
			return err
		}
		if _, err := lib.Global(); err != nil {
			return err
		}
		procAddr = lib.GetInstanceProcAddr()
	}
	driver, err := vkdriver.New(procAddr)
	if err != nil {
		return errors.Wrap(err, "vulkan init")
	}
	closer.Bind(driver.Close)

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(*width, *height, app.ApplicationName, nil, nil)
	if err != nil {
		return errors.Wrap(err, "create window")
	}
	closer.Bind(window.Destroy)

	gl, err := learnvk.InitGraphicsLibrary(driver, vkdriver.CAllocator())
	if err != nil {
		return err
	}
	defer gl.Release()
	printNames("Instance layers", layerNames(gl.AvailableInstanceLayers(false)))
	printNames("Instance extensions", extensionNames(gl.AvailableInstanceExtensions(false)))

	instance, err := gl.CreateInstance(app, usage.InstanceLayers(), usage.InstanceExtensions(), window)
	if err != nil {
		return err
	}
	defer instance.Release()
	if lib != nil {
		table, err := lib.Instance(driver.RawInstance(instance.Native()), instance.EnabledExtensions())
		if err != nil {
			return err
		}
		zap.L().Info("instance entry points loaded", zap.Int("count", len(table)))
	}

	surface, err := instance.CreateSurface(window)
	if err != nil {
		return err
	}
	defer surface.Release()

	device, err := instance.AutoSelectAndCreateDevice(desc, learnvk.RenderDeviceInfo{
		Requests:       requests,
		Surface:        surface,
		Extensions:     usage.DeviceExtensions(),
		Features:       desc.RequiredFeatures,
		OverridePolicy: usage.OverridePolicy(),
	})
	if err != nil {
		return err
	}
	defer device.Release()
	if lib != nil {
		table, err := lib.Device(driver.RawDevice(device.Native()), device.EnabledExtensions())
		if err != nil {
			return err
		}
		// The device tier must be callable, not just present.
		ret, err := table.Call("vkDeviceWaitIdle", driver.RawDevice(device.Native()))
		if err != nil {
			return err
		}
		if err := learnvk.NewError(learnvk.Result(int32(ret))); err != nil {
			return errors.Wrap(err, "vkDeviceWaitIdle through the loader")
		}
		zap.L().Info("device entry points loaded", zap.Int("count", len(table)))
	}

	printReport(device, surface)
	return exercisePool(device)
}

// exercisePool takes one primary command buffer from a persistent pool on the
// last queue, which the default usage asks to support presentation, and
// hands it back.
func exercisePool(device learnvk.RenderDevice) error {
	queues := device.Queues()
	if len(queues) == 0 {
		return errors.New("render device has no queues")
	}
	queue := queues[len(queues)-1]
	pool, err := queue.CreatePersistentCommandPool(false)
	if err != nil {
		return err
	}
	defer pool.Release()
	cb, err := pool.CommandBuffer(learnvk.LevelPrimary)
	if err != nil {
		return err
	}
	zap.L().Info("command buffer ready",
		zap.Int("family", queue.FamilyIndex()),
		zap.Uint32("queue", queue.Index()),
		zap.Uint64("native", uint64(cb.Native())),
		zap.Int("capacity", pool.Capacity(learnvk.LevelPrimary)))
	return cb.ReturnToPool()
}

func layerNames(list []learnvk.LayerProperties) []string {
	names := make([]string, len(list))
	for i, l := range list {
		names[i] = fmt.Sprintf("%s (%s)", l.Name, l.SpecVersion)
	}
	return names
}

func extensionNames(list []learnvk.ExtensionProperties) []string {
	names := make([]string, len(list))
	for i, e := range list {
		names[i] = e.Name
	}
	return names
}

func printNames(title string, names []string) {
	fmt.Printf("%s (%d):\n", title, len(names))
	for _, n := range names {
		fmt.Printf("  %s\n", n)
	}
}

var _ learnvk.WindowHandle = (*glfw.Window)(nil)
