package manifest

import (
	"os"
	"path/filepath"
	"testing"

	imgspecv1 "github.com/opencontainers/image-spec/specs-go/v1"
)

const testManifest = `{
  "schemaVersion": 2,
  "config": {"mediaType": "application/vnd.oci.image.config.v1+json",
    "digest": "sha256:` + testConfigHex + `", "size": 10},
  "layers": [
    {"mediaType": "application/vnd.oci.image.layer.v1.tar+gzip",
      "digest": "sha256:1111111111111111111111111111111111111111111111111111111111aaaa", "size": 100},
    {"mediaType": "application/vnd.oci.image.layer.v1.tar+gzip",
      "digest": "sha256:2222222222222222222222222222222222222222222222222222222222bbbb", "size": 200}
  ]
}`

const testConfigHex = "333333333333333333333333333333333333333333333333333333333333cccc"

const testConfig = `{
  "architecture": "amd64",
  "os": "linux",
  "config": {
    "Env": ["PATH=/usr/bin", "BROKEN", "EMPTY="],
    "Cmd": ["/bin/sh", "-c", "echo hi"]
  }
}`

func writeTestTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(testManifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(testConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRead(t *testing.T) {
	dir := writeTestTree(t)

	m, cfg, err := Read(dir)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if len(m.Layers) != 2 {
		t.Fatalf("len(Layers) = %d, want 2", len(m.Layers))
	}
	if cfg.Architecture != "amd64" {
		t.Errorf("Architecture = %q, want amd64", cfg.Architecture)
	}
}

func TestLayerDigests(t *testing.T) {
	dir := writeTestTree(t)
	m, _, err := Read(dir)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"sha256:1111111111111111111111111111111111111111111111111111111111aaaa",
		"sha256:2222222222222222222222222222222222222222222222222222222222bbbb",
	}
	got := LayerDigests(m)
	if len(got) != len(want) {
		t.Fatalf("LayerDigests() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("LayerDigests()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestConfigDigestAndToken(t *testing.T) {
	dir := writeTestTree(t)
	m, _, err := Read(dir)
	if err != nil {
		t.Fatal(err)
	}

	wantDigest := "sha256:" + testConfigHex
	if got := ConfigDigest(m); got != wantDigest {
		t.Errorf("ConfigDigest() = %q, want %q", got, wantDigest)
	}

	token, err := DigestToken(wantDigest)
	if err != nil {
		t.Fatalf("DigestToken: %v", err)
	}
	if token != testConfigHex {
		t.Errorf("DigestToken() = %q, want %q", token, testConfigHex)
	}
}

func TestDigestTokenInvalid(t *testing.T) {
	if _, err := DigestToken("not-a-digest"); err == nil {
		t.Error("expected error for invalid digest")
	}
}

func TestEnvMap(t *testing.T) {
	cfg := &imgspecv1.Image{}
	cfg.Config.Env = []string{"PATH=/usr/bin", "BROKEN", "EMPTY="}

	m := EnvMap(cfg)
	if m["PATH"] != "/usr/bin" {
		t.Errorf("PATH = %q, want /usr/bin", m["PATH"])
	}
	if v, ok := m["EMPTY"]; !ok || v != "" {
		t.Errorf("EMPTY = %q, ok=%v, want empty string present", v, ok)
	}
	if _, ok := m["BROKEN"]; ok {
		t.Errorf("entries with no '=' should be skipped")
	}
}

func TestCmd(t *testing.T) {
	dir := writeTestTree(t)
	_, cfg, err := Read(dir)
	if err != nil {
		t.Fatal(err)
	}
	got := Cmd(cfg)
	want := []string{"/bin/sh", "-c", "echo hi"}
	if len(got) != len(want) {
		t.Fatalf("Cmd() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Cmd()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReadMissingManifest(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := Read(dir); err == nil {
		t.Error("expected error for missing manifest.json")
	}
}
