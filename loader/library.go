package loader

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
)

// Library is an opened platform loader. The zero value is not usable; call
// Open.
type Library struct {
	handle              uintptr
	getInstanceProcAddr uintptr
	getDeviceProcAddr   uintptr
	exported            Table
}

// Open finds and loads the platform Vulkan loader and resolves the exported
// tier.
func Open() (*Library, error) {
	handle, err := openLibrary()
	if err != nil {
		return nil, err
	}
	l := &Library{handle: handle}
	if l.exported, err = Load(l, TierExported, 0, nil); err != nil {
		return nil, errors.Wrap(err, "open vulkan loader")
	}
	l.getInstanceProcAddr = l.exported["vkGetInstanceProcAddr"]
	return l, nil
}

// GetInstanceProcAddr returns the loader's vkGetInstanceProcAddr, suitable for
// vulkan.SetGetInstanceProcAddr.
func (l *Library) GetInstanceProcAddr() unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(&l.getInstanceProcAddr))
}

func cstring(name string) []byte {
	return append([]byte(name), 0)
}

func (l *Library) procAddr(fn, owner uintptr, name string) uintptr {
	if fn == 0 {
		return 0
	}
	cname := cstring(name)
	addr, _, _ := purego.SyscallN(fn, owner, uintptr(unsafe.Pointer(&cname[0])))
	runtime.KeepAlive(cname)
	return addr
}

func (l *Library) Resolve(tier Tier, owner uintptr, name string) uintptr {
	switch tier {
	case TierExported:
		return lookupSymbol(l.handle, name)
	case TierGlobal:
		return l.procAddr(l.getInstanceProcAddr, 0, name)
	case TierInstance:
		return l.procAddr(l.getInstanceProcAddr, owner, name)
	case TierDevice:
		return l.procAddr(l.getDeviceProcAddr, owner, name)
	}
	return 0
}

// Global resolves the global tier.
func (l *Library) Global() (Table, error) {
	return Load(l, TierGlobal, 0, nil)
}

// Instance resolves the instance tier for instance and remembers its
// vkGetDeviceProcAddr for later Device calls.
func (l *Library) Instance(instance uintptr, enabled []string) (Table, error) {
	t, err := Load(l, TierInstance, instance, enabled)
	if err != nil {
		return nil, err
	}
	l.getDeviceProcAddr = t["vkGetDeviceProcAddr"]
	return t, nil
}

// Device resolves the device tier. Instance must have been loaded first.
func (l *Library) Device(device uintptr, enabled []string) (Table, error) {
	if l.getDeviceProcAddr == 0 {
		return nil, errors.New("loader: instance tier not loaded")
	}
	return Load(l, TierDevice, device, enabled)
}
