//go:build windows

package fs

// IsHidden reports dot entries and entries carrying the hidden attribute.
func IsHidden(fullPath string, name string) bool {
	if isDotName(name) {
		return true
	}
	attrs, err := getFileAttributes(fullPath, name)
	if err != nil {
		return false
	}
	return attrs&fileAttributeHidden != 0
}

// IsProtected reports system reparse points (compatibility junctions such as
// "Application Data"), which are pruned even when hidden entries are shown.
func IsProtected(fullPath, name string) bool {
	if fullPath == "" && name == "" {
		return false
	}
	attrs, err := getFileAttributes(fullPath, name)
	if err != nil {
		return false
	}
	const protectedMask = fileAttributeSystem | fileAttributeReparsePoint
	return attrs&protectedMask == protectedMask
}
