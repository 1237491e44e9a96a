package ostree

import (
	"context"

	"github.com/kirbyfan64/flatpod/internal/pkg/flatpoderr"
)

// refChange is one staged ref mutation: Commit == "" means delete.
type refChange struct {
	ref    string
	commit string
}

// Transaction batches ref mutations so they become visible atomically:
// Commit applies every staged change, rolling back whatever already
// applied if one fails partway through. The ostree CLI has no literal
// multi-ref transaction primitive, so this is the adapter's substitute.
type Transaction struct {
	store   *Store
	changes []refChange
	prior   map[string]string // ref -> previous commit, for rollback
}

// BeginTransaction starts a new batch of ref changes against the store.
func (s *Store) BeginTransaction() *Transaction {
	return &Transaction{store: s, prior: make(map[string]string)}
}

// SetRef stages ref to point at commit, or to be deleted if commit == "".
func (t *Transaction) SetRef(ref, commit string) {
	t.changes = append(t.changes, refChange{ref: ref, commit: commit})
}

// Commit applies every staged ref change. If any application fails, every
// change applied so far in this transaction is rolled back to its prior
// value and the error is returned.
func (t *Transaction) Commit(ctx context.Context) error {
	applied := make([]refChange, 0, len(t.changes))
	for _, c := range t.changes {
		prev, err := t.store.Resolve(ctx, c.ref)
		if err != nil {
			var nf *flatpoderr.NotFound
			if !isNotFound(err, &nf) {
				t.rollback(ctx, applied)
				return &flatpoderr.RepoError{Op: "resolve " + c.ref + " before set", Err: err}
			}
			prev = ""
		}
		t.prior[c.ref] = prev

		if err := t.applyRef(ctx, c); err != nil {
			t.rollback(ctx, applied)
			return err
		}
		applied = append(applied, c)
	}
	return nil
}

func (t *Transaction) applyRef(ctx context.Context, c refChange) error {
	var args []string
	if c.commit == "" {
		args = []string{"refs", "--delete", c.ref}
	} else {
		args = []string{"refs", "--create=" + c.ref, c.commit, "--force"}
	}
	if _, err := t.store.run(ctx, args...); err != nil {
		return &flatpoderr.RepoError{Op: "set ref " + c.ref, Err: err}
	}
	return nil
}

func (t *Transaction) rollback(ctx context.Context, applied []refChange) {
	for i := len(applied) - 1; i >= 0; i-- {
		c := applied[i]
		prev := t.prior[c.ref]
		_ = t.applyRef(ctx, refChange{ref: c.ref, commit: prev})
	}
}

func isNotFound(err error, target **flatpoderr.NotFound) bool {
	nf, ok := err.(*flatpoderr.NotFound)
	if ok {
		*target = nf
	}
	return ok
}
