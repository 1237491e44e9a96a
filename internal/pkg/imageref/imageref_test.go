package imageref

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Ref
	}{
		{"alpine", Ref{DefaultServer, "alpine", DefaultTag}},
		{"alpine:3.18", Ref{DefaultServer, "alpine", "3.18"}},
		{"quay.io/a/b:c", Ref{"quay.io", "a/b", "c"}},
		{"quay.io/foo/bar:3", Ref{"quay.io", "foo/bar", "3"}},
		{"localpath/name", Ref{DefaultServer, "localpath/name", DefaultTag}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseRoundTripDottedServer(t *testing.T) {
	r := Ref{Server: "quay.io", Name: "a/b", Tag: "c"}
	got, err := Parse(r.String())
	if err != nil {
		t.Fatal(err)
	}
	if got != r {
		t.Errorf("round trip: got %+v, want %+v", got, r)
	}
}

func TestDeriveID(t *testing.T) {
	tests := []struct {
		ref        string
		wantID     string
		wantBranch string
	}{
		{"quay.io/foo/bar:3", "io.quay.foo.bar", "3"},
		{"alpine:latest", "com.docker.io.library.alpine", "master"},
		{"alpine:3.18", "com.docker.io.library.alpine", "3.18"},
	}
	for _, tt := range tests {
		r, err := Parse(tt.ref)
		if err != nil {
			t.Fatal(err)
		}
		info := Derive(r)
		if info.ID != tt.wantID {
			t.Errorf("DeriveID(%q) = %q, want %q", tt.ref, info.ID, tt.wantID)
		}
		if info.Branch != tt.wantBranch {
			t.Errorf("DeriveBranch(%q) = %q, want %q", tt.ref, info.Branch, tt.wantBranch)
		}
	}
}

func TestEscapeCharset(t *testing.T) {
	allowed := func(c byte) bool {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			return true
		case c == '.' || c == '_' || c == '~' || c == '-':
			return true
		}
		return false
	}
	inputs := []string{"alpine:latest", "quay.io/foo/bar:3", "docker.io/library/nginx:1.25"}
	for _, in := range inputs {
		out := Escape(in)
		for i := 0; i < len(out); i++ {
			if !allowed(out[i]) {
				t.Fatalf("Escape(%q) = %q contains disallowed byte %q", in, out, out[i])
			}
		}
	}
}

func TestEscapeInjective(t *testing.T) {
	inputs := []string{"alpine:latest", "alpine:3.18", "quay.io/foo/bar:3", "quay.io/foo/baz:3"}
	seen := make(map[string]string)
	for _, in := range inputs {
		out := Escape(in)
		if other, ok := seen[out]; ok && other != in {
			t.Fatalf("Escape collision: %q and %q both escape to %q", in, other, out)
		}
		seen[out] = in
	}
}

func TestConvertArchExhaustive(t *testing.T) {
	want := map[string]string{
		"386":      "i386",
		"amd64":    "x86_64",
		"arm":      "arm",
		"arm64":    "aarch64",
		"mips":     "mips",
		"mipsle":   "mipsel",
		"mips64":   "mips64",
		"mips64le": "mips64el",
	}
	for oci, runtimeArch := range want {
		if got := ConvertArch(oci); got != runtimeArch {
			t.Errorf("ConvertArch(%q) = %q, want %q", oci, got, runtimeArch)
		}
	}
	if got := ConvertArch("riscv64"); got != UndefinedArch {
		t.Errorf("ConvertArch(unknown) = %q, want %q", got, UndefinedArch)
	}
}

func TestFullName(t *testing.T) {
	info := RuntimeInfo{ID: "org.example.base", Arch: "x86_64", Branch: "stable"}
	if got, want := info.FullName(), "org.example.base/x86_64/stable"; got != want {
		t.Errorf("FullName() = %q, want %q", got, want)
	}
}
