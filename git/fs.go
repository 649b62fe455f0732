package git

import (
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// underlyingFS is implemented by billy wrappers such as the chroot helper.
type underlyingFS interface {
	Underlying() billy.Basic
}

// isMemoryFilesystem checks if the given filesystem is memory-based.
// Memory-based filesystems (like memfs) cannot be used with git CLI operations
// since the CLI operates on the real filesystem. Chroot wrappers are
// unwrapped before the check.
func isMemoryFilesystem(fs billy.Basic) bool {
	for fs != nil {
		typeName := fmt.Sprintf("%T", fs)
		if strings.Contains(strings.ToLower(typeName), "mem") {
			return true
		}

		wrapper, ok := fs.(underlyingFS)
		if !ok {
			return false
		}
		next := wrapper.Underlying()
		if next == fs {
			return false
		}
		fs = next
	}
	return false
}
