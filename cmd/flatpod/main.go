// Command flatpod converts a remote OCI container image into a
// sandboxed application runtime and installs it.
package main

import (
	"github.com/kirbyfan64/flatpod/cmd/internal/cli"
)

func main() {
	cli.Execute()
}
