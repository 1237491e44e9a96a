// Package manifest reads the OCI manifest and image config JSON blobs
// that the image puller stages into the object store, off of a checked
// out tree on disk.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	digest "github.com/opencontainers/go-digest"
	imgspecv1 "github.com/opencontainers/image-spec/specs-go/v1"
)

// ManifestFile and ConfigFile are the well-known names the puller writes
// inside an `ociimage/<escape(image)>` checkout.
const (
	ManifestFile = "manifest.json"
	ConfigFile   = "content"
)

// Read loads manifest.json and content from the checked-out directory
// root.
func Read(root string) (*imgspecv1.Manifest, *imgspecv1.Image, error) {
	m, err := readManifest(filepath.Join(root, ManifestFile))
	if err != nil {
		return nil, nil, err
	}
	cfg, err := readConfig(filepath.Join(root, ConfigFile))
	if err != nil {
		return nil, nil, err
	}
	return m, cfg, nil
}

func readManifest(path string) (*imgspecv1.Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m imgspecv1.Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

func readConfig(path string) (*imgspecv1.Image, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image config: %w", err)
	}
	var cfg imgspecv1.Image
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing image config: %w", err)
	}
	return &cfg, nil
}

// LayerDigests returns the ordered (oldest-first) layer digests, as they
// appear in the manifest. Callers that need the checkout order append
// ConfigDigest themselves (see runtimelayout's checkout sequence).
func LayerDigests(m *imgspecv1.Manifest) []string {
	digests := make([]string, 0, len(m.Layers))
	for _, l := range m.Layers {
		digests = append(digests, string(l.Digest))
	}
	return digests
}

// ConfigDigest returns the manifest's config blob digest.
func ConfigDigest(m *imgspecv1.Manifest) string {
	return string(m.Config.Digest)
}

// DigestToken validates a `sha256:<hex>` digest and returns the bare hex
// token used as an `ociimage/<token>` ref name.
func DigestToken(d string) (string, error) {
	parsed, err := digest.Parse(d)
	if err != nil {
		return "", fmt.Errorf("invalid digest %q: %w", d, err)
	}
	return parsed.Encoded(), nil
}

// EnvMap splits the image config's Env entries (`NAME=VALUE`, split on
// the first `=`) into a map.
func EnvMap(cfg *imgspecv1.Image) map[string]string {
	out := make(map[string]string, len(cfg.Config.Env))
	for _, kv := range cfg.Config.Env {
		name, value, found := strings.Cut(kv, "=")
		if !found {
			continue
		}
		out[name] = value
	}
	return out
}

// Cmd returns the image config's default command, or nil if unset.
func Cmd(cfg *imgspecv1.Image) []string {
	return cfg.Config.Cmd
}
