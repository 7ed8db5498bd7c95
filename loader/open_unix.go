//go:build linux || darwin || freebsd

package loader

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
)

func libraryPaths() ([]string, []string) {
	var names, dirs []string
	switch runtime.GOOS {
	case "darwin":
		names = []string{"libvulkan.1.dylib", "libvulkan.dylib", "libMoltenVK.dylib"}
		dirs = []string{"/usr/local/lib", "/opt/homebrew/lib"}
	default:
		names = []string{"libvulkan.so.1", "libvulkan.so"}
		dirs = []string{"/usr/lib/x86_64-linux-gnu", "/usr/lib64", "/usr/lib", "/usr/local/lib"}
	}
	if sdk := os.Getenv("VULKAN_SDK"); sdk != "" {
		dirs = append([]string{filepath.Join(sdk, "lib")}, dirs...)
	}
	return names, dirs
}

func openLibrary() (uintptr, error) {
	names, dirs := libraryPaths()
	for _, name := range names {
		if lib, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL); err == nil {
			return lib, nil
		}
		for _, dir := range dirs {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL); err == nil {
				return lib, nil
			}
		}
	}
	return 0, errors.Errorf("vulkan loader not found (tried %v in %v)", names, dirs)
}

func lookupSymbol(lib uintptr, name string) uintptr {
	addr, err := purego.Dlsym(lib, name)
	if err != nil {
		return 0
	}
	return addr
}
