package treeops

import (
	"os"
	"path/filepath"
)

// MergeOptions configures MergeTo.
type MergeOptions struct {
	// Root is the path an absolute symlink target is resolved against,
	// rather than the host's actual root.
	Root string
	// KeepRoot, if set, leaves src on disk (otherwise empty) after
	// merging instead of removing it.
	KeepRoot bool
}

// MergeTo merges every entry of src into dst, the way a later OCI layer
// merges onto an earlier one: for each entry, if the destination already
// has a same-named entry that is a symlink equivalent to the source (or
// vice versa), the alias is dropped first so the ordering below preserves
// whichever side holds the real data; directories recurse; everything
// else is renamed into place. By the end, src is empty and is removed
// unless KeepRoot is set.
func MergeTo(src, dst string, opts MergeOptions) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, e := range entries {
		name := e.Name()
		srcChild := filepath.Join(src, name)
		dstChild := filepath.Join(dst, name)

		if sameFile(srcChild, dst) {
			// Merging a directory into a child of itself: skip this entry.
			continue
		}

		if _, err := os.Lstat(dstChild); err == nil {
			if resolved, err := resolveIfSymlink(srcChild, opts.Root); err == nil && sameFile(resolved, dstChild) {
				if err := os.Remove(srcChild); err != nil {
					return err
				}
				continue
			}
			if resolved, err := resolveIfSymlink(dstChild, opts.Root); err == nil && sameFile(resolved, srcChild) {
				if err := os.Remove(dstChild); err != nil {
					return err
				}
			}
		}

		srcInfo, err := os.Lstat(srcChild)
		if err != nil {
			return err
		}

		if srcInfo.IsDir() {
			if err := MergeTo(srcChild, dstChild, MergeOptions{Root: opts.Root}); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(dst, 0o755); err != nil {
			return err
		}
		if err := os.Rename(srcChild, dstChild); err != nil {
			return err
		}
	}

	if opts.KeepRoot {
		return nil
	}
	return os.Remove(src)
}

// resolveIfSymlink reads path's symlink target and resolves it to an
// absolute path: relative to path's parent directory, or to root if the
// target is itself absolute. Returns an error if path is not a symlink.
func resolveIfSymlink(path, root string) (string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(filepath.Join(root, target)), nil
	}
	return filepath.Clean(filepath.Join(filepath.Dir(path), target)), nil
}

func sameFile(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
