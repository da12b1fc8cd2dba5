//go:build !windows

package fs

// IsHidden reports whether the walk treats the entry as hidden.
func IsHidden(_ string, name string) bool {
	return isDotName(name)
}

// IsProtected never applies outside Windows.
func IsProtected(_, _ string) bool {
	return false
}
