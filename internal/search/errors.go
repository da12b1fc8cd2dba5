package search

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRoot reports a root that is missing, not a directory, or unreadable.
	ErrInvalidRoot = errors.New("invalid search root")
	// ErrDirectoryAccessDenied marks a subdirectory the walk had to skip.
	ErrDirectoryAccessDenied = errors.New("directory access denied")
	// ErrFileUnreadable marks a candidate the content scan could not read.
	ErrFileUnreadable = errors.New("file unreadable")
	// ErrNonTextFile marks a candidate skipped because it looks binary.
	ErrNonTextFile = errors.New("non-text file")
)

// RootError carries the rejected root path and the underlying cause.
// errors.Is matches both ErrInvalidRoot and the cause.
type RootError struct {
	Path string
	Err  error
}

func (e *RootError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", ErrInvalidRoot, e.Path)
	}
	return fmt.Sprintf("%v: %s: %v", ErrInvalidRoot, e.Path, e.Err)
}

func (e *RootError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidRoot}
	}
	return []error{ErrInvalidRoot, e.Err}
}
