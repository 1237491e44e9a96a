package treeops

import (
	"os"
	"path/filepath"
)

// DeleteOptions configures RecursiveDelete.
type DeleteOptions struct {
	// CountBytes accumulates the apparent size of every deleted file into
	// the returned byte count.
	CountBytes bool
	// OnEntry, if set, is called once per deleted entry (file or
	// directory), for progress reporting.
	OnEntry func()
}

// RecursiveDelete deletes the subtree rooted at root, children before
// their parent directory, without following symlinks.
func RecursiveDelete(root string, opts DeleteOptions) (int64, error) {
	var total int64

	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, err
	}

	for _, e := range entries {
		path := filepath.Join(root, e.Name())

		if e.IsDir() {
			n, err := RecursiveDelete(path, opts)
			total += n
			if err != nil {
				return total, err
			}
		} else {
			if opts.CountBytes {
				if info, err := e.Info(); err == nil {
					total += info.Size()
				}
			}
			if err := os.Remove(path); err != nil {
				return total, err
			}
		}

		if opts.OnEntry != nil {
			opts.OnEntry()
		}
	}

	if err := os.Remove(root); err != nil {
		return total, err
	}
	return total, nil
}
