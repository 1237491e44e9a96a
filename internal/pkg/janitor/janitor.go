// Package janitor implements the independent repository cleanup
// pipeline: clearing stale build directories, removing unreferenced
// object-store refs, and pruning unreachable objects.
package janitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kirbyfan64/flatpod/internal/pkg/ostree"
	"github.com/kirbyfan64/flatpod/internal/pkg/treeops"
	"github.com/kirbyfan64/flatpod/pkg/flatpodfs"
	"github.com/kirbyfan64/flatpod/pkg/sylog"
)

// Mode selects which refs a cleanup pass removes.
type Mode string

const (
	// ModePrune only reclaims unreachable objects; no ref is touched.
	ModePrune Mode = "prune"
	// ModeOCI removes every ociimage/* ref, regardless of liveness.
	ModeOCI Mode = "oci"
	// ModeUnused removes runtime refs not backing an installed runtime.
	ModeUnused Mode = "unused"
	// ModeAll combines ModeUnused and ModeOCI, and first purges the
	// uncompressed-object cache.
	ModeAll Mode = "all"
)

// Result reports what a Clean call reclaimed.
type Result struct {
	RefsRemoved int
	BuildBytes  int64
	PrunedBytes int64
}

// Clean runs the cleanup pipeline in the given mode against store.
func Clean(ctx context.Context, store *ostree.Store, mode Mode) (Result, error) {
	var result Result

	buildBytes, err := clearBuildDirs()
	if err != nil {
		return result, err
	}
	result.BuildBytes = buildBytes

	if mode == ModeAll {
		if err := clearUncompressedCache(store); err != nil {
			return result, err
		}
	}

	if mode != ModePrune {
		removed, err := nullUnusedRefs(ctx, store, mode)
		if err != nil {
			return result, err
		}
		result.RefsRemoved = removed
	}

	pruneResult, err := store.Prune(ctx, 0)
	if err != nil {
		return result, err
	}
	result.PrunedBytes = pruneResult.BytesDeleted

	sylog.Infof("%.2fmb deleted", float64(result.PrunedBytes)/(1024*1024))
	return result, nil
}

// clearBuildDirs permission-fixes and recursively deletes everything
// under the per-run build directory parent, accumulating bytes freed.
func clearBuildDirs() (int64, error) {
	dir := flatpodfs.BuildsDir()
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	if err := fixPermissions(dir); err != nil {
		return 0, fmt.Errorf("fixing permissions under %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", dir, err)
	}

	var total int64
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		n, err := treeops.RecursiveDelete(path, treeops.DeleteOptions{CountBytes: true})
		total += n
		if err != nil {
			return total, fmt.Errorf("deleting %s: %w", path, err)
		}
	}
	return total, nil
}

// fixPermissions makes every entry under root at least user-writable, so
// a build dir populated from a read-only image layer can still be
// deleted.
func fixPermissions(root string) error {
	return treeops.Walk(root, func(path string, info os.FileInfo) error {
		mode := info.Mode()
		if mode&os.ModeSymlink != 0 {
			return nil
		}
		const writable = 0o200
		if mode.Perm()&writable != 0 {
			return nil
		}
		return os.Chmod(path, mode.Perm()|writable)
	})
}

func clearUncompressedCache(store *ostree.Store) error {
	dir := filepath.Join(store.Path, flatpodfs.UncompressedObjectsCache)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	if _, err := treeops.RecursiveDelete(dir, treeops.DeleteOptions{}); err != nil {
		return fmt.Errorf("clearing uncompressed-object cache %s: %w", dir, err)
	}
	return nil
}

// nullUnusedRefs computes the unused-ref set for mode and nulls every
// member in one transaction.
func nullUnusedRefs(ctx context.Context, store *ostree.Store, mode Mode) (int, error) {
	unused := make(map[string]bool)

	if mode == ModeUnused || mode == ModeAll {
		computed, err := computeUnused(ctx, store, mode == ModeAll)
		if err != nil {
			return 0, err
		}
		for ref := range computed {
			unused[ref] = true
		}
	}

	if mode == ModeOCI || mode == ModeAll {
		ociRefs, err := store.ListRefs(ctx, "ociimage")
		if err != nil {
			return 0, err
		}
		for _, ref := range ociRefs {
			unused[ref] = true
		}
	}

	if len(unused) == 0 {
		return 0, nil
	}

	txn := store.BeginTransaction()
	for ref := range unused {
		txn.SetRef(ref, "")
	}
	if err := txn.Commit(ctx); err != nil {
		return 0, err
	}
	return len(unused), nil
}
