// Copyright (c) 2019-2021, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package bin provides access to the external binaries the conversion
// pipeline and janitor shell out to.
package bin

import (
	"fmt"
	"os/exec"

	"github.com/kirbyfan64/flatpod/pkg/flatpodconf"
	"github.com/kirbyfan64/flatpod/pkg/sylog"
)

// Name identifies one of the external tools flatpod depends on.
type Name string

const (
	Ostree           Name = "ostree"
	Skopeo           Name = "skopeo"
	AppstreamCompose Name = "appstream-compose"
	Install          Name = "flatpak"
)

// Find resolves the path to the named external binary: flatpod.conf's
// configured override if set, otherwise a $PATH lookup on the bare name.
func Find(name Name) (string, error) {
	cfg := flatpodconf.GetCurrentConfig()

	var configured string
	switch name {
	case Ostree:
		configured = cfg.OstreeBinary
	case Skopeo:
		configured = cfg.SkopeoBinary
	case AppstreamCompose:
		configured = cfg.AppstreamComposeBinary
	case Install:
		configured = cfg.InstallBinary
	default:
		return "", fmt.Errorf("unknown executable name %q", name)
	}

	if configured != "" {
		path, err := exec.LookPath(configured)
		if err != nil {
			return "", fmt.Errorf("%s (configured as %q in flatpod.conf): %w", name, configured, err)
		}
		sylog.Debugf("Using %q at %q (from flatpod.conf)", name, path)
		return path, nil
	}

	path, err := exec.LookPath(string(name))
	if err != nil {
		return "", fmt.Errorf("%s: not found on PATH: %w", name, err)
	}
	sylog.Debugf("Found %q at %q", name, path)
	return path, nil
}
