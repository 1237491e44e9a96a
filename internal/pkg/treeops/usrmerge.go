package treeops

import (
	"fmt"
	"os"
	"path/filepath"
)

// UsrMerge flattens /usr/* up into root: /usr/local/* is absorbed into
// /usr/* first (so a later /usr/bin also picks up /usr/local/bin), then
// /usr/* is absorbed into root. root/usr must exist.
func UsrMerge(root string) error {
	usr := filepath.Join(root, "usr")
	if _, err := os.Lstat(usr); err != nil {
		return fmt.Errorf("usr-merge: %s: %w", usr, err)
	}

	local := filepath.Join(usr, "local")
	if _, err := os.Lstat(local); err == nil {
		if err := MergeTo(local, usr, MergeOptions{Root: root}); err != nil {
			return fmt.Errorf("usr-merge: merging %s into %s: %w", local, usr, err)
		}
	}

	if err := MergeTo(usr, root, MergeOptions{Root: root}); err != nil {
		return fmt.Errorf("usr-merge: merging %s into %s: %w", usr, root, err)
	}
	return nil
}
