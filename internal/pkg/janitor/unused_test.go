package janitor

import "testing"

func TestParseFlatpodInfo(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{
			name:    "simple",
			content: "[Image]\nname=alpine:3.18\n",
			want:    "alpine:3.18",
		},
		{
			name:    "leading/trailing whitespace",
			content: "[Image]\n  name=quay.io/a/b:c  \n",
			want:    "quay.io/a/b:c",
		},
		{
			name:    "missing name",
			content: "[Image]\n",
			wantErr: true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := parseFlatpodInfo(c.content)
			if c.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Errorf("parseFlatpodInfo() = %q, want %q", got, c.want)
			}
		})
	}
}
