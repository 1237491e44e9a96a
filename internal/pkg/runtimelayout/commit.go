package runtimelayout

import (
	"context"
	"fmt"
	"time"

	"github.com/kirbyfan64/flatpod/internal/pkg/flatpoderr"
	"github.com/kirbyfan64/flatpod/internal/pkg/imageref"
	"github.com/kirbyfan64/flatpod/internal/pkg/ostree"
)

// Commit writes buildDir as a new commit on runtime/<fullName>, publishing
// the ref update atomically via a transaction, then refreshes the
// repository summary.
//
// Content-addressing already gives ostree's commit the hardlink
// deduplication the spec's scan_hardlinks hint asks for: identical file
// content across the tree collapses onto the same backing object, so
// there is no separate adapter call to make here beyond WriteCommit
// itself.
func Commit(ctx context.Context, store *ostree.Store, buildDir string, info imageref.RuntimeInfo) (string, error) {
	ref := fmt.Sprintf("runtime/%s", info.FullName())

	parent, err := store.Resolve(ctx, ref)
	if err != nil {
		var nf *flatpoderr.NotFound
		if !flatpoderrAsNotFound(err, &nf) {
			return "", err
		}
		parent = ""
	}

	subject := fmt.Sprintf("flatpod update on %s", time.Now().UTC().Format(time.RFC3339))
	commit, err := store.WriteCommit(ctx, buildDir, parent, subject)
	if err != nil {
		return "", err
	}

	txn := store.BeginTransaction()
	txn.SetRef(ref, commit)
	if err := txn.Commit(ctx); err != nil {
		return "", err
	}

	if err := store.RegenerateSummary(ctx); err != nil {
		return "", err
	}

	return commit, nil
}

func flatpoderrAsNotFound(err error, target **flatpoderr.NotFound) bool {
	nf, ok := err.(*flatpoderr.NotFound)
	if ok {
		*target = nf
	}
	return ok
}
