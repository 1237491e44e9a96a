// Copyright (c) 2020, Control Command Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package remote tracks the local remotes flatpod has registered with the
// target package system, and registers/updates the `flatpod-origin`
// remote that Commit & Install points at the object store.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"gopkg.in/yaml.v3"

	"github.com/kirbyfan64/flatpod/internal/pkg/flatpoderr"
	"github.com/kirbyfan64/flatpod/internal/pkg/util/bin"
	"github.com/kirbyfan64/flatpod/pkg/sylog"
)

// OriginName is the remote flatpod registers against its own object
// store.
const OriginName = "flatpod-origin"

// Endpoint describes one registered remote.
type Endpoint struct {
	URI         string `yaml:"URI"`
	NoGPGVerify bool   `yaml:"NoGPGVerify"`
}

// Config is the on-disk bookkeeping of remotes flatpod has registered,
// kept separately from the target package system's own remote config so
// EnsureOrigin can tell idempotently whether a remote-add is still
// needed without shelling out just to query state.
type Config struct {
	Remotes map[string]*Endpoint `yaml:"Remotes"`
}

// ReadFrom reads a Config from r. A Config with no entries is returned
// for an empty reader, matching a first-run machine with no remote.yaml
// yet.
func ReadFrom(r io.Reader) (*Config, error) {
	c := &Config{Remotes: make(map[string]*Endpoint)}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read remote config: %w", err)
	}
	if len(b) == 0 {
		return c, nil
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("failed to decode remote config: %w", err)
	}
	if c.Remotes == nil {
		c.Remotes = make(map[string]*Endpoint)
	}
	return c, nil
}

// WriteTo writes the configuration to w.
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal remote config: %w", err)
	}
	n, err := w.Write(b)
	return int64(n), err
}

// Add registers a new endpoint, returning an error if the name is
// already taken.
func (c *Config) Add(name string, e *Endpoint) error {
	if _, ok := c.Remotes[name]; ok {
		return fmt.Errorf("%s is already a remote", name)
	}
	c.Remotes[name] = e
	return nil
}

// GetRemote returns a previously registered endpoint.
func (c *Config) GetRemote(name string) (*Endpoint, error) {
	e, ok := c.Remotes[name]
	if !ok {
		return nil, fmt.Errorf("%s is not a remote", name)
	}
	return e, nil
}

func load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Remotes: make(map[string]*Endpoint)}, nil
		}
		return nil, err
	}
	defer f.Close()
	return ReadFrom(f)
}

func save(path string, c *Config) error {
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// EnsureOrigin registers or updates OriginName pointing at repoURI
// (a `file://` URI for the object store) with GPG verification
// disabled, persisting the bookkeeping at configPath and invoking the
// target package system's remote-add/remote-modify accordingly.
func EnsureOrigin(ctx context.Context, configPath, repoURI string) error {
	cfg, err := load(configPath)
	if err != nil {
		return &flatpoderr.RepoError{Op: "load remote config", Err: err}
	}

	installBin, err := bin.Find(bin.Install)
	if err != nil {
		return err
	}

	existing, err := cfg.GetRemote(OriginName)
	if err != nil {
		sylog.Debugf("Registering new remote %s -> %s", OriginName, repoURI)
		if err := runInstaller(ctx, installBin, "remote-add", "--no-gpg-verify", "--if-not-exists", OriginName, repoURI); err != nil {
			return &flatpoderr.RepoError{Op: "remote-add " + OriginName, Err: err}
		}
		if err := cfg.Add(OriginName, &Endpoint{URI: repoURI, NoGPGVerify: true}); err != nil {
			return err
		}
		return save(configPath, cfg)
	}

	if existing.URI != repoURI {
		sylog.Debugf("Updating remote %s -> %s", OriginName, repoURI)
		if err := runInstaller(ctx, installBin, "remote-modify", "--url="+repoURI, OriginName); err != nil {
			return &flatpoderr.RepoError{Op: "remote-modify " + OriginName, Err: err}
		}
		existing.URI = repoURI
		return save(configPath, cfg)
	}

	return nil
}

func runInstaller(ctx context.Context, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w (%s)", bin, args, err, stderr.String())
	}
	return nil
}
