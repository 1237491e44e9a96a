// Package pipeline orchestrates the end-to-end conversion of one OCI
// image reference into an installed runtime: pull, checkout, tree
// surgery, layout synthesis, commit, install.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/kirbyfan64/flatpod/internal/pkg/flatpoderr"
	"github.com/kirbyfan64/flatpod/internal/pkg/imagepuller"
	"github.com/kirbyfan64/flatpod/internal/pkg/imageref"
	"github.com/kirbyfan64/flatpod/internal/pkg/manifest"
	"github.com/kirbyfan64/flatpod/internal/pkg/ostree"
	"github.com/kirbyfan64/flatpod/internal/pkg/remote"
	"github.com/kirbyfan64/flatpod/internal/pkg/runtimelayout"
	"github.com/kirbyfan64/flatpod/pkg/flatpodfs"
	"github.com/kirbyfan64/flatpod/pkg/sylog"
)

// Overrides lets the caller (the CLI) force the derived runtime id/branch.
type Overrides struct {
	RuntimeID     string
	RuntimeBranch string
}

// Options configures one Convert call.
type Options struct {
	Image        string
	Overrides    Overrides
	KeepBuildDir bool
	RemoteConfig string // path to the local remote bookkeeping YAML
}

// Convert runs the full pipeline for one image reference: pull into the
// object store, build a runtime tree, commit it, and install it.
func Convert(ctx context.Context, store *ostree.Store, opts Options) (imageref.RuntimeInfo, error) {
	ref, err := imageref.Parse(opts.Image)
	if err != nil {
		return imageref.RuntimeInfo{}, &flatpoderr.BadArgument{Msg: err.Error()}
	}

	info := imageref.Derive(ref)
	if opts.Overrides.RuntimeID != "" {
		info.ID = opts.Overrides.RuntimeID
	}
	if opts.Overrides.RuntimeBranch != "" {
		info.Branch = opts.Overrides.RuntimeBranch
	}

	if err := store.EnsureInitialized(ctx); err != nil {
		return imageref.RuntimeInfo{}, err
	}

	sylog.Infof("Converting %s", ref.String())
	if err := imagepuller.Push(ctx, opts.Image, store.Path); err != nil {
		return imageref.RuntimeInfo{}, err
	}

	buildDir, err := os.MkdirTemp(flatpodfs.BuildsDir(), imageref.Escape(opts.Image)+".")
	if err != nil {
		return imageref.RuntimeInfo{}, &flatpoderr.FSError{Path: flatpodfs.BuildsDir(), Err: err}
	}

	_, cfg, err := runtimelayout.CheckoutImage(ctx, store, opts.Image, buildDir)
	if err != nil {
		return imageref.RuntimeInfo{}, fail(buildDir, err)
	}

	info.Arch = imageref.ConvertArch(cfg.Architecture)

	if err := runtimelayout.PrepareTree(buildDir); err != nil {
		return imageref.RuntimeInfo{}, fail(buildDir, err)
	}

	env := manifest.EnvMap(cfg)
	if err := runtimelayout.WriteMetadata(buildDir, info, env); err != nil {
		return imageref.RuntimeInfo{}, fail(buildDir, err)
	}
	if err := runtimelayout.WriteFlatpodInfo(buildDir, opts.Image); err != nil {
		return imageref.RuntimeInfo{}, fail(buildDir, err)
	}
	if err := runtimelayout.WriteAppData(ctx, buildDir, info.ID, info.FullName()); err != nil {
		return imageref.RuntimeInfo{}, fail(buildDir, err)
	}
	if err := runtimelayout.WriteOCIRun(buildDir, manifest.Cmd(cfg)); err != nil {
		return imageref.RuntimeInfo{}, fail(buildDir, err)
	}
	if err := runtimelayout.WriteOCIInit(buildDir); err != nil {
		return imageref.RuntimeInfo{}, fail(buildDir, err)
	}
	if err := runtimelayout.WriteLinkOpt(buildDir); err != nil {
		return imageref.RuntimeInfo{}, fail(buildDir, err)
	}

	if _, err := runtimelayout.Commit(ctx, store, buildDir, info); err != nil {
		return imageref.RuntimeInfo{}, fail(buildDir, err)
	}

	repoURI := "file://" + store.Path
	if err := remote.EnsureOrigin(ctx, opts.RemoteConfig, repoURI); err != nil {
		return imageref.RuntimeInfo{}, fail(buildDir, err)
	}
	if err := remote.Install(ctx, info); err != nil {
		return imageref.RuntimeInfo{}, fail(buildDir, err)
	}

	if !opts.KeepBuildDir {
		if err := os.RemoveAll(buildDir); err != nil {
			sylog.Warningf("could not remove build directory %s: %s", buildDir, err)
		}
	} else {
		sylog.Infof("Keeping build directory at %s", buildDir)
	}

	return info, nil
}

// fail surfaces the build directory path on any conversion failure, per
// the spec's "inspect the partial tree" error-handling policy, without
// deleting it.
func fail(buildDir string, err error) error {
	return fmt.Errorf("conversion failed, build directory left at %s: %w", buildDir, err)
}
