//go:build windows

package fs

import (
	"os"
	"syscall"
)

const (
	fileAttributeHidden       = 0x02
	fileAttributeSystem       = 0x04
	fileAttributeReparsePoint = 0x0400
)

// getFileAttributes reads the attribute word of fullPath, falling back to
// name when no full path is known. Attributes of a symlink are its own.
func getFileAttributes(fullPath, name string) (uint32, error) {
	target := fullPath
	if target == "" {
		target = name
	}
	if target == "" {
		return 0, os.ErrInvalid
	}
	ptr, err := syscall.UTF16PtrFromString(target)
	if err != nil {
		return 0, err
	}
	return syscall.GetFileAttributes(ptr)
}
