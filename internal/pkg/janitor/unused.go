package janitor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	imgspecv1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/kirbyfan64/flatpod/internal/pkg/flatpoderr"
	"github.com/kirbyfan64/flatpod/internal/pkg/imageref"
	"github.com/kirbyfan64/flatpod/internal/pkg/manifest"
	"github.com/kirbyfan64/flatpod/internal/pkg/ostree"
	"github.com/kirbyfan64/flatpod/internal/pkg/remote"
)

const runtimePrefix = "runtime"

// computeUnused implements the unused-refs computation from the spec:
// the candidate set, minus everything reachable from an installed
// runtime.
func computeUnused(ctx context.Context, store *ostree.Store, includeOCIBranches bool) (map[string]bool, error) {
	var candidates []string
	var err error
	if includeOCIBranches {
		candidates, err = store.ListRefs(ctx, "")
	} else {
		candidates, err = store.ListRefs(ctx, runtimePrefix)
	}
	if err != nil {
		return nil, err
	}

	unused := make(map[string]bool, len(candidates))
	for _, ref := range candidates {
		unused[ref] = true
	}

	installed, err := remote.Installed(ctx)
	if err != nil {
		return nil, err
	}

	for _, info := range installed {
		runtimeRef := fmt.Sprintf("%s/%s", runtimePrefix, info.FullName())
		delete(unused, runtimeRef)

		if !includeOCIBranches {
			continue
		}

		if err := removeLiveImageRefs(ctx, store, runtimeRef, unused); err != nil {
			return nil, err
		}
	}

	return unused, nil
}

// removeLiveImageRefs reads the runtime commit's provenance stamp and
// removes the image ref (and its layer/config digest refs) it
// originated from out of unused. A missing intermediate ref (already
// garbage-collected) is not an error.
func removeLiveImageRefs(ctx context.Context, store *ostree.Store, runtimeRef string, unused map[string]bool) error {
	content, err := store.ReadFile(ctx, runtimeRef, "files/.flatpod-info")
	if err != nil {
		var nf *flatpoderr.NotFound
		if isNotFound(err, &nf) {
			return nil
		}
		return err
	}

	image, err := parseFlatpodInfo(content)
	if err != nil {
		return err
	}

	imageRef := fmt.Sprintf("ociimage/%s", imageref.Escape(image))
	delete(unused, imageRef)

	m, err := readManifestFromStore(ctx, store, imageRef)
	if err != nil {
		var nf *flatpoderr.NotFound
		if isNotFound(err, &nf) {
			return nil
		}
		return err
	}

	digests := manifest.LayerDigests(m)
	digests = append(digests, manifest.ConfigDigest(m))
	for _, d := range digests {
		token, err := manifest.DigestToken(d)
		if err != nil {
			return err
		}
		delete(unused, fmt.Sprintf("ociimage/%s", token))
	}
	return nil
}

// readManifestFromStore fetches manifest.json straight out of imageRef's
// tree via `ostree cat`, without a checkout, and parses it.
func readManifestFromStore(ctx context.Context, store *ostree.Store, imageRef string) (*imgspecv1.Manifest, error) {
	raw, err := store.ReadFile(ctx, imageRef, manifest.ManifestFile)
	if err != nil {
		return nil, err
	}
	var m imgspecv1.Manifest
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("parsing manifest for %s: %w", imageRef, err)
	}
	return &m, nil
}

func isNotFound(err error, target **flatpoderr.NotFound) bool {
	nf, ok := err.(*flatpoderr.NotFound)
	if ok {
		*target = nf
	}
	return ok
}

func parseFlatpodInfo(content string) (string, error) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "name=") {
			return strings.TrimPrefix(line, "name="), nil
		}
	}
	return "", fmt.Errorf("flatpod-info: no name= entry found")
}
