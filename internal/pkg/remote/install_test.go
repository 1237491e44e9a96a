package remote

import (
	"reflect"
	"testing"

	"github.com/kirbyfan64/flatpod/internal/pkg/imageref"
)

func TestParseInstalledOutput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []imageref.RuntimeInfo
	}{
		{
			name: "matches only flatpod-origin rows",
			in: "com.docker.io.library.alpine\tx86_64\tlatest\tflatpod-origin\n" +
				"org.gnome.Platform\tx86_64\t44\tflathub\n",
			want: []imageref.RuntimeInfo{
				{ID: "com.docker.io.library.alpine", Arch: "x86_64", Branch: "latest"},
			},
		},
		{
			name: "no rows",
			in:   "",
			want: nil,
		},
		{
			name: "skips malformed rows",
			in:   "too\tfew\tcolumns\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseInstalledOutput(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseInstalledOutput(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
