package learnvk

import (
	"unsafe"

	"go.uber.org/zap"
)

type libraryRecord struct {
	block unsafe.Pointer

	layers           []LayerProperties
	layersCached     bool
	extensions       []ExtensionProperties
	extensionsCached bool
}

// GraphicsLibrary is the root context. Every other handle is created under
// one and is released with it at the latest.
type GraphicsLibrary struct {
	reg *registry
	h   Handle
}

// InitGraphicsLibrary binds a driver. An incomplete alloc is replaced by the
// default allocator.
func InitGraphicsLibrary(driver Driver, alloc Allocator) (GraphicsLibrary, error) {
	const op = "init graphics library"
	if driver == nil {
		Logger().Error("no driver supplied")
		return GraphicsLibrary{}, newErr(op, KindInvalidHandle)
	}
	reg := &registry{driver: driver, host: NewHostAllocator(alloc)}
	block, err := reg.host.recordBlock(op, unsafe.Sizeof(libraryRecord{}))
	if err != nil {
		return GraphicsLibrary{}, err
	}
	h := reg.libraries.insert(&libraryRecord{block: block})
	Logger().Info("graphics library initialized")
	return GraphicsLibrary{reg: reg, h: h}, nil
}

func (l GraphicsLibrary) record() *libraryRecord {
	if l.reg == nil {
		return nil
	}
	return l.reg.libraries.get(l.h)
}

func (l GraphicsLibrary) Valid() bool {
	return l.record() != nil && l.reg.driver != nil
}

func (l GraphicsLibrary) Driver() Driver {
	if !l.Valid() {
		return nil
	}
	return l.reg.driver
}

// Release releases every instance still alive under the library, then the
// library itself.
func (l *GraphicsLibrary) Release() {
	rec := l.record()
	if rec == nil {
		*l = GraphicsLibrary{}
		return
	}
	for i := range l.reg.instances.slots {
		e := l.reg.instances.slots[i]
		if e.rec != nil {
			inst := Instance{reg: l.reg, h: makeHandle(i, e.gen)}
			inst.Release()
		}
	}
	l.reg.libraries.remove(l.h)
	l.reg.host.releaseBlock(rec.block)
	Logger().Info("graphics library released")
	*l = GraphicsLibrary{}
}

// AvailableInstanceLayers returns the cached layer list, querying the driver
// on first use or when forceRefresh is set.
func (l GraphicsLibrary) AvailableInstanceLayers(forceRefresh bool) []LayerProperties {
	rec := l.record()
	if rec == nil {
		return nil
	}
	if rec.layersCached && !forceRefresh {
		return rec.layers
	}
	layers, ret := l.reg.driver.EnumerateInstanceLayers()
	if isError(ret) {
		Logger().Error("enumerate instance layers failed", zap.Stringer("result", ret))
		rec.layers, rec.layersCached = nil, false
		return nil
	}
	rec.layers, rec.layersCached = layers, true
	return layers
}

func (l GraphicsLibrary) AvailableInstanceExtensions(forceRefresh bool) []ExtensionProperties {
	rec := l.record()
	if rec == nil {
		return nil
	}
	if rec.extensionsCached && !forceRefresh {
		return rec.extensions
	}
	exts, ret := l.reg.driver.EnumerateInstanceExtensions("")
	if isError(ret) {
		Logger().Error("enumerate instance extensions failed", zap.Stringer("result", ret))
		rec.extensions, rec.extensionsCached = nil, false
		return nil
	}
	rec.extensions, rec.extensionsCached = exts, true
	return exts
}

func (l GraphicsLibrary) IsInstanceLayerAvailable(name string) bool {
	return contains(layerNames(l.AvailableInstanceLayers(false)), name)
}

func (l GraphicsLibrary) IsInstanceExtensionAvailable(name string) bool {
	return contains(extensionNames(l.AvailableInstanceExtensions(false)), name)
}

// CreateInstance negotiates layers and extensions and creates an instance.
// When window is set the extensions it needs are required and the instance
// can create throwaway surfaces for present probing.
func (l GraphicsLibrary) CreateInstance(app ApplicationInfo, layers, extensions ExtensionSet, window WindowHandle) (Instance, error) {
	const op = "create instance"
	if !l.Valid() {
		return Instance{}, newErr(op, KindInvalidHandle)
	}
	if window != nil {
		extensions.Required = append(append([]string(nil), extensions.Required...), window.GetRequiredInstanceExtensions()...)
	}
	enabledLayers, err := layers.resolve(op, KindMissingLayer, layerNames(l.AvailableInstanceLayers(false)))
	if err != nil {
		return Instance{}, err
	}
	enabledExtensions, err := extensions.resolve(op, KindMissingExtension, extensionNames(l.AvailableInstanceExtensions(false)))
	if err != nil {
		return Instance{}, err
	}

	block, err := l.reg.host.recordBlock(op, unsafe.Sizeof(instanceRecord{}))
	if err != nil {
		return Instance{}, err
	}
	info := InstanceCreateInfo{Application: app, Layers: enabledLayers, Extensions: enabledExtensions}
	native, ret := l.reg.driver.CreateInstance(info, l.reg.host)
	if isError(ret) || native == 0 {
		l.reg.host.releaseBlock(block)
		Logger().Error("instance creation failed", zap.Stringer("result", ret))
		return Instance{}, backingErr(op, ret)
	}
	rec := &instanceRecord{
		library:    l.h,
		native:     native,
		block:      block,
		app:        app,
		layers:     enabledLayers,
		extensions: enabledExtensions,
		window:     window,
	}
	h := l.reg.instances.insert(rec)
	Logger().Info("instance created",
		zap.String("application", app.ApplicationName),
		zap.Stringer("api", app.APIVersion),
		zap.Strings("layers", enabledLayers),
		zap.Strings("extensions", enabledExtensions))
	return Instance{reg: l.reg, h: h}, nil
}
