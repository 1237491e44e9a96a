package cli

import (
	"fmt"
	"testing"

	"github.com/kirbyfan64/flatpod/internal/pkg/flatpoderr"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "pull failure propagates the external tool's exit code",
			err:  &flatpoderr.PullFailed{Image: "alpine", ExitCode: 42, Err: fmt.Errorf("boom")},
			want: 42,
		},
		{
			name: "wrapped pull failure is still recognized",
			err:  fmt.Errorf("conversion failed: %w", &flatpoderr.PullFailed{Image: "alpine", ExitCode: 7, Err: fmt.Errorf("boom")}),
			want: 7,
		},
		{
			name: "bad argument falls back to 1",
			err:  &flatpoderr.BadArgument{Msg: "nope"},
			want: 1,
		},
		{
			name: "uncaught error falls back to 1",
			err:  fmt.Errorf("something else"),
			want: 1,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := exitCode(c.err); got != c.want {
				t.Errorf("exitCode() = %d, want %d", got, c.want)
			}
		})
	}
}
