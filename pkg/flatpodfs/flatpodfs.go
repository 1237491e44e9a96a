// Copyright (c) 2020, Control Command Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package flatpodfs provides access to flatpod's on-disk layout: the
// user-data directory holding the object store repository and the
// per-run build directories.
package flatpodfs

import (
	"os"
	"os/user"
	"path/filepath"
	"sync"

	"github.com/kirbyfan64/flatpod/pkg/sylog"
)

const (
	appDir  = "flatpod"
	repoDir = "repo"
	builds  = "builds"

	// UncompressedObjectsCache is the object store's internal
	// uncompressed-object cache subdirectory. The store exposes no API to
	// purge it, so the name is kept here as a single well-known constant
	// (see the janitor's "all" mode).
	UncompressedObjectsCache = "uncompressed-objects-cache"
)

var cache struct {
	sync.Once
	dataDir string
}

// DataDir returns the standard user-data directory under which flatpod
// keeps its state: $XDG_DATA_HOME, or ~/.local/share if unset.
func DataDir() string {
	cache.Do(func() {
		cache.dataDir = dataDir()
		sylog.Debugf("Using data directory %q", cache.dataDir)
	})
	return cache.dataDir
}

func dataDir() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return d
	}

	homedir := os.Getenv("HOME")
	if homedir == "" {
		u, err := user.Current()
		if err != nil {
			sylog.Warningf("Could not look up the current user's information: %s", err)
			cwd, err := os.Getwd()
			if err != nil {
				sylog.Warningf("Could not get current working directory: %s", err)
				return ".local/share"
			}
			return cwd
		}
		homedir = u.HomeDir
	}

	return filepath.Join(homedir, ".local", "share")
}

// RepoDir returns <data>/flatpod/repo, the object store location.
func RepoDir() string {
	return filepath.Join(DataDir(), appDir, repoDir)
}

// BuildsDir returns <data>/flatpod/builds, the per-run temp build dir
// parent (and the directory TMPDIR is pointed at).
func BuildsDir() string {
	return filepath.Join(DataDir(), appDir, builds)
}

// EnsureLayout creates <data>/flatpod/{repo,builds} on demand.
func EnsureLayout() error {
	for _, dir := range []string{RepoDir(), BuildsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
