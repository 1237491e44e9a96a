// Copyright (c) 2019-2021, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package flatpodconf holds the flatpod.conf file format: the paths to the
// external binaries the core shells out to.
package flatpodconf

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/kirbyfan64/flatpod/pkg/sylog"
)

// File describes flatpod.conf's options. An empty string for any binary
// path means "search $PATH for the bare name".
type File struct {
	OstreeBinary           string `toml:"OstreeBinary"`
	SkopeoBinary           string `toml:"SkopeoBinary"`
	AppstreamComposeBinary string `toml:"AppstreamComposeBinary"`
	InstallBinary          string `toml:"InstallBinary"`
}

// currentConfig corresponds to the current configuration, may be useful
// for packages requiring to share the same configuration.
var currentConfig *File

// SetCurrentConfig sets the provided configuration as the current one.
func SetCurrentConfig(config *File) {
	currentConfig = config
}

// GetCurrentConfig returns the current configuration, or an empty File if
// none has been set yet.
func GetCurrentConfig() *File {
	if currentConfig == nil {
		return &File{}
	}
	return currentConfig
}

// Parse reads and unmarshals a flatpod.conf file. A missing file is not an
// error: it yields a zero-value File, matching flatpod.conf being
// entirely optional.
func Parse(path string) (*File, error) {
	f := &File{}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			sylog.Debugf("No flatpod.conf at %q, using binary path defaults", path)
			return f, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(b, f); err != nil {
		return nil, err
	}
	return f, nil
}
