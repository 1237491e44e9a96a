package runtimelayout

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kirbyfan64/flatpod/internal/pkg/imageref"
)

// defaultPS1Recompute is the expression oci-init substitutes for PS1 so a
// login shell spawned inside the sandbox re-derives its prompt.
const defaultPS1Recompute = `$(__OCI_INIT_PS1=1 . /usr/bin/oci-init)`

// WriteMetadata synthesizes the INI-style `metadata` file at the root of
// buildDir, naming the runtime and carrying the image's environment
// through to the sandboxed shell via oci-init.
func WriteMetadata(buildDir string, info imageref.RuntimeInfo, env map[string]string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "[Runtime]\n")
	fmt.Fprintf(&b, "name=%s\n", info.ID)
	fmt.Fprintf(&b, "runtime=%s\n", info.FullName())
	fmt.Fprintf(&b, "sdk=%s\n", info.FullName())
	fmt.Fprintf(&b, "\n[Environment]\n")

	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "%s=%s\n", name, env[name])
	}

	ps1 := env["PS1"]
	if ps1 == "" {
		ps1 = `\s-\v\$ `
	}
	fmt.Fprintf(&b, "PS1=%s%s\n", defaultPS1Recompute, ps1)
	fmt.Fprintf(&b, "__OCI_INIT_ENV=%s\n", env["ENV"])
	fmt.Fprintf(&b, "__OCI_INIT_BASH_ENV=%s\n", env["BASH_ENV"])
	fmt.Fprintf(&b, "ENV=/usr/bin/oci-init\n")
	fmt.Fprintf(&b, "BASH_ENV=/usr/bin/oci-init\n")

	return os.WriteFile(filepath.Join(buildDir, "metadata"), []byte(b.String()), 0o644)
}

// WriteFlatpodInfo writes files/.flatpod-info, recording the image
// reference the runtime was derived from so the Janitor can trace
// installed runtimes back to their originating ociimage/ ref.
func WriteFlatpodInfo(buildDir, image string) error {
	content := fmt.Sprintf("[Image]\nname=%s\n", image)
	path := filepath.Join(buildDir, FilesDir, ".flatpod-info")
	return os.WriteFile(path, []byte(content), 0o644)
}
