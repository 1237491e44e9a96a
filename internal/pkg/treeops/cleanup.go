package treeops

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/kirbyfan64/flatpod/internal/pkg/flatpoderr"
)

// GarbageEntries lists the entries the cleanup pass removes if present.
var GarbageEntries = []string{
	"dev", "home", "media", "mnt", "proc", "root", "run", "sys", "tmp",
	"var/cache", "var/mail", "var/tmp", "var/run",
	"content", "manifest.json",
}

// Cleanup removes every entry in GarbageEntries from root, deleting files
// directly and falling back to a recursive delete for non-empty
// directories. Running it twice has the same effect as running it once:
// a missing entry is simply skipped.
func Cleanup(root string) error {
	for _, rel := range GarbageEntries {
		path := filepath.Join(root, rel)

		if _, err := os.Lstat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return &flatpoderr.FSError{Path: path, Err: err}
		}

		if err := os.Remove(path); err != nil {
			if !isDirNotEmpty(err) {
				return &flatpoderr.FSError{Path: path, Err: err}
			}
			if _, err := RecursiveDelete(path, DeleteOptions{}); err != nil {
				return &flatpoderr.FSError{Path: path, Err: err}
			}
		}
	}
	return nil
}

func isDirNotEmpty(err error) bool {
	if errors.Is(err, syscall.ENOTEMPTY) {
		return true
	}
	return strings.Contains(err.Error(), "directory not empty")
}
