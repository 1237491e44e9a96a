// Package ostree wraps the external `ostree` CLI binary as the
// content-addressed object store the conversion pipeline and janitor
// operate against. There is no usable Go binding for ostree in the
// ecosystem, so every operation shells out, the way the teacher's
// packer.Squashfs wraps mksquashfs/unsquashfs.
package ostree

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/blang/semver/v4"

	"github.com/kirbyfan64/flatpod/internal/pkg/flatpoderr"
	"github.com/kirbyfan64/flatpod/pkg/sylog"
)

// canonicalPermissionsVersion is the minimum ostree release known to
// support `ostree commit --canonical-permissions`. Below it, the adapter
// still issues the flag and lets ostree itself fail loudly rather than
// silently skip the canonicalization invariant.
var canonicalPermissionsVersion = semver.MustParse("2018.6.0")

// Store wraps one ostree repository at Path, invoked through Bin.
type Store struct {
	Path string
	Bin  string

	version *semver.Version
}

// New returns a Store bound to an existing or to-be-initialized
// repository at path.
func New(path, bin string) *Store {
	return &Store{Path: path, Bin: bin}
}

// EnsureInitialized creates a bare-user ostree repository at s.Path if one
// does not already exist.
func (s *Store) EnsureInitialized(ctx context.Context) error {
	if _, err := os.Stat(s.Path + "/config"); err == nil {
		return nil
	}
	if err := os.MkdirAll(s.Path, 0o755); err != nil {
		return &flatpoderr.FSError{Path: s.Path, Err: err}
	}
	if _, err := s.run(ctx, "init", "--mode=bare-user"); err != nil {
		return &flatpoderr.RepoError{Op: "init", Err: err}
	}
	return nil
}

func (s *Store) repoArg() string {
	return fmt.Sprintf("--repo=%s", s.Path)
}

func (s *Store) run(ctx context.Context, args ...string) (string, error) {
	full := append([]string{s.repoArg()}, args...)
	cmd := exec.CommandContext(ctx, s.Bin, full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	sylog.Debugf("ostree %s", strings.Join(full, " "))
	err := cmd.Run()
	if err != nil {
		return stdout.String(), fmt.Errorf("%s: %w (stderr: %s)", s.Bin, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Version runs `ostree --version` once and caches the parsed release.
func (s *Store) Version(ctx context.Context) (semver.Version, error) {
	if s.version != nil {
		return *s.version, nil
	}
	cmd := exec.CommandContext(ctx, s.Bin, "--version")
	out, err := cmd.Output()
	if err != nil {
		return semver.Version{}, fmt.Errorf("ostree --version: %w", err)
	}
	v, err := parseVersionOutput(string(out))
	if err != nil {
		return semver.Version{}, err
	}
	s.version = &v
	return v, nil
}

func parseVersionOutput(out string) (semver.Version, error) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		fields := strings.Fields(line)
		for _, f := range fields {
			if v, err := semver.ParseTolerant(f); err == nil {
				return v, nil
			}
		}
	}
	return semver.Version{}, fmt.Errorf("could not find a version number in %q", out)
}

// SupportsCanonicalPermissions reports whether this ostree build accepts
// `commit --canonical-permissions`.
func (s *Store) SupportsCanonicalPermissions(ctx context.Context) bool {
	v, err := s.Version(ctx)
	if err != nil {
		sylog.Warningf("could not determine ostree version (%s), assuming canonical-permissions is supported", err)
		return true
	}
	return v.GE(canonicalPermissionsVersion)
}

// Resolve resolves ref to a commit checksum, returning a *flatpoderr.NotFound
// if the ref does not exist.
func (s *Store) Resolve(ctx context.Context, ref string) (string, error) {
	out, err := s.run(ctx, "rev-parse", ref)
	if err != nil {
		if strings.Contains(err.Error(), "Can't find") || strings.Contains(err.Error(), "No such") || strings.Contains(err.Error(), "not found") {
			return "", &flatpoderr.NotFound{Ref: ref}
		}
		return "", &flatpoderr.RepoError{Op: "rev-parse " + ref, Err: err}
	}
	return strings.TrimSpace(out), nil
}

// ListRefs enumerates refs under prefix (or all refs if prefix is empty),
// restoring the prefix ostree strips when one is given.
func (s *Store) ListRefs(ctx context.Context, prefix string) ([]string, error) {
	args := []string{"refs"}
	if prefix != "" {
		args = append(args, prefix)
	}
	out, err := s.run(ctx, args...)
	if err != nil {
		return nil, &flatpoderr.RepoError{Op: "refs", Err: err}
	}
	var refs []string
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if prefix != "" {
			line = prefix + "/" + line
		}
		refs = append(refs, line)
	}
	return refs, nil
}

// ReadFile dumps the content of path inside refOrCommit's tree without a
// full checkout, via `ostree cat`.
func (s *Store) ReadFile(ctx context.Context, refOrCommit, path string) (string, error) {
	out, err := s.run(ctx, "cat", refOrCommit, path)
	if err != nil {
		if strings.Contains(err.Error(), "Couldn't find file") || strings.Contains(err.Error(), "No such") || strings.Contains(err.Error(), "not found") {
			return "", &flatpoderr.NotFound{Ref: refOrCommit + ":" + path}
		}
		return "", &flatpoderr.RepoError{Op: "cat " + refOrCommit + ":" + path, Err: err}
	}
	return out, nil
}

// CheckoutMode controls how Checkout overlays a commit onto target.
type CheckoutMode int

const (
	// CheckoutUnionFiles overlays new content, overwriting siblings.
	CheckoutUnionFiles CheckoutMode = iota
)

// Checkout overlays refOrCommit's tree onto target, creating target if
// needed. Repeated calls with CheckoutUnionFiles union file content,
// implementing OCI layer stacking.
func (s *Store) Checkout(ctx context.Context, refOrCommit, target string, mode CheckoutMode) error {
	if err := os.MkdirAll(target, 0o755); err != nil {
		return &flatpoderr.FSError{Path: target, Err: err}
	}
	args := []string{"checkout", "--union", "--no-xattrs", refOrCommit, target}
	if _, err := s.run(ctx, args...); err != nil {
		return &flatpoderr.RepoError{Op: "checkout " + refOrCommit, Err: err}
	}
	return nil
}

// WriteCommit commits buildDir as a new ostree commit with the given
// parent (empty for none) and subject, canonicalizing permissions.
func (s *Store) WriteCommit(ctx context.Context, buildDir, parent, subject string) (string, error) {
	args := []string{"commit", fmt.Sprintf("--tree=dir=%s", buildDir), "--subject=" + subject}
	if !s.SupportsCanonicalPermissions(ctx) {
		sylog.Warningf("ostree is older than %s and may reject --canonical-permissions", canonicalPermissionsVersion)
	}
	args = append(args, "--canonical-permissions")
	if parent != "" {
		args = append(args, "--parent="+parent)
	} else {
		args = append(args, "--orphan")
	}
	out, err := s.run(ctx, args...)
	if err != nil {
		return "", &flatpoderr.RepoError{Op: "commit", Err: err}
	}
	return strings.TrimSpace(out), nil
}

// RegenerateSummary refreshes the repository's summary file.
func (s *Store) RegenerateSummary(ctx context.Context) error {
	if _, err := s.run(ctx, "summary", "--update"); err != nil {
		return &flatpoderr.RepoError{Op: "summary --update", Err: err}
	}
	return nil
}

// PruneResult reports the objects a prune pass inspected, deleted, and
// the bytes reclaimed.
type PruneResult struct {
	ObjectsFound   int
	ObjectsDeleted int
	BytesDeleted   int64
}

// Prune deletes objects unreachable from any ref, limited to depth
// generations back from each ref tip (0 = only the tip commit).
func (s *Store) Prune(ctx context.Context, depth int) (PruneResult, error) {
	out, err := s.run(ctx, "prune", "--refs-only", fmt.Sprintf("--depth=%d", depth))
	if err != nil {
		return PruneResult{}, &flatpoderr.RepoError{Op: "prune", Err: err}
	}
	return parsePruneOutput(out), nil
}

func parsePruneOutput(out string) PruneResult {
	var r PruneResult
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Total objects:"):
			fmt.Sscanf(strings.TrimPrefix(line, "Total objects:"), "%d", &r.ObjectsFound)
		case strings.HasPrefix(line, "Deleted"):
			fmt.Sscanf(line, "Deleted %d objects, %d bytes freed", &r.ObjectsDeleted, &r.BytesDeleted)
		}
	}
	return r
}
