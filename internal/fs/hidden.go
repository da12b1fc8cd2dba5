package fs

import "strings"

// isDotName is the Unix convention for hidden entries, honored on every platform.
func isDotName(name string) bool {
	return strings.HasPrefix(name, ".")
}
