//go:build windows

package loader

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
)

const libraryName = "vulkan-1.dll"

func openLibrary() (uintptr, error) {
	if lib, err := syscall.LoadDLL(libraryName); err == nil {
		return uintptr(lib.Handle), nil
	}
	for _, dir := range []string{
		filepath.Join(os.Getenv("VULKAN_SDK"), "Bin"),
		filepath.Join(os.Getenv("SystemRoot"), "System32"),
	} {
		path := filepath.Join(dir, libraryName)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if lib, err := syscall.LoadDLL(path); err == nil {
			return uintptr(lib.Handle), nil
		}
	}
	return 0, errors.Errorf("vulkan loader %s not found", libraryName)
}

func lookupSymbol(lib uintptr, name string) uintptr {
	dll := &syscall.DLL{Handle: syscall.Handle(lib)}
	proc, err := dll.FindProc(name)
	if err != nil {
		return 0
	}
	return proc.Addr()
}
