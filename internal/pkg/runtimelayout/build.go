// Package runtimelayout builds a runtime-format tree out of a checked
// out OCI image layer stack: relocating it under files/, synthesizing
// metadata and the init-script machinery, and committing the result.
package runtimelayout

import (
	"context"
	"fmt"

	imgspecv1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/kirbyfan64/flatpod/internal/pkg/imageref"
	"github.com/kirbyfan64/flatpod/internal/pkg/manifest"
	"github.com/kirbyfan64/flatpod/internal/pkg/ostree"
	"github.com/kirbyfan64/flatpod/internal/pkg/progress"
	"github.com/kirbyfan64/flatpod/pkg/sylog"
)

// CheckoutImage performs the checkout sequence: the image's own ref
// (yielding manifest.json and content), then every layer followed by the
// config, each overlaid with union-overwrite semantics so later layers
// win over earlier ones.
func CheckoutImage(ctx context.Context, store *ostree.Store, image, buildDir string) (*imgspecv1.Manifest, *imgspecv1.Image, error) {
	imageRef := fmt.Sprintf("ociimage/%s", imageref.Escape(image))
	if err := store.Checkout(ctx, imageRef, buildDir, ostree.CheckoutUnionFiles); err != nil {
		return nil, nil, fmt.Errorf("checking out %s: %w", imageRef, err)
	}

	m, cfg, err := manifest.Read(buildDir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading manifest: %w", err)
	}

	digests := manifest.LayerDigests(m)
	digests = append(digests, manifest.ConfigDigest(m))

	bar := progress.NewStepBar(ctx, "Checking out layers", len(digests))
	for _, d := range digests {
		token, err := manifest.DigestToken(d)
		if err != nil {
			return nil, nil, err
		}
		ref := fmt.Sprintf("ociimage/%s", token)
		sylog.Debugf("Checking out layer %s", ref)
		if err := store.Checkout(ctx, ref, buildDir, ostree.CheckoutUnionFiles); err != nil {
			return nil, nil, fmt.Errorf("checking out layer %s: %w", ref, err)
		}
		bar.Increment()
	}
	bar.Done()

	return m, cfg, nil
}
