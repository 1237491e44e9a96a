// Package treeops implements the pure filesystem surgery the runtime
// layout builder performs on a working directory: walking, deletion,
// symlink-aware merging, the /usr-merge, and the cleanup pass.
package treeops

import (
	"io/fs"
	"path/filepath"
)

// WalkFunc is called once per entry under a walked root, not including
// the root itself.
type WalkFunc func(path string, info fs.FileInfo) error

// Walk produces (child, file_info) pairs for every entry under root,
// without following symlinks: filepath.WalkDir classifies directory
// entries from Lstat, so a symlink to a directory is never recursed
// into.
func Walk(root string, fn WalkFunc) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return fn(path, info)
	})
}
