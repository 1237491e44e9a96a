package ostree

import "testing"

func TestParseVersionOutput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ostree version 2022.6\n", "2022.6.0"},
		{"2023.4\n", "2023.4.0"},
	}
	for _, tt := range tests {
		v, err := parseVersionOutput(tt.in)
		if err != nil {
			t.Fatalf("parseVersionOutput(%q): %v", tt.in, err)
		}
		if v.String() != tt.want {
			t.Errorf("parseVersionOutput(%q) = %s, want %s", tt.in, v.String(), tt.want)
		}
	}
}

func TestParsePruneOutput(t *testing.T) {
	out := "Enumerating objects...\nTotal objects: 120\nDeleted 5 objects, 4096 bytes freed\n"
	r := parsePruneOutput(out)
	if r.ObjectsFound != 120 || r.ObjectsDeleted != 5 || r.BytesDeleted != 4096 {
		t.Errorf("parsePruneOutput = %+v, want {120 5 4096}", r)
	}
}
