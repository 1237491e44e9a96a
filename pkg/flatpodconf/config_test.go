package flatpodconf

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.conf")
	f, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if *f != (File{}) {
		t.Errorf("Parse(missing) = %+v, want zero value", f)
	}
}

func TestParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flatpod.conf")
	content := "OstreeBinary = \"/opt/bin/ostree\"\nSkopeoBinary = \"/opt/bin/skopeo\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.OstreeBinary != "/opt/bin/ostree" {
		t.Errorf("OstreeBinary = %q, want /opt/bin/ostree", f.OstreeBinary)
	}
	if f.SkopeoBinary != "/opt/bin/skopeo" {
		t.Errorf("SkopeoBinary = %q, want /opt/bin/skopeo", f.SkopeoBinary)
	}
	if f.AppstreamComposeBinary != "" {
		t.Errorf("AppstreamComposeBinary = %q, want empty", f.AppstreamComposeBinary)
	}
}

func TestCurrentConfig(t *testing.T) {
	SetCurrentConfig(nil)
	if got := GetCurrentConfig(); *got != (File{}) {
		t.Errorf("GetCurrentConfig() with nothing set = %+v, want zero value", got)
	}

	want := &File{OstreeBinary: "ostree-custom"}
	SetCurrentConfig(want)
	if got := GetCurrentConfig(); got != want {
		t.Errorf("GetCurrentConfig() = %p, want %p", got, want)
	}
	SetCurrentConfig(nil)
}
