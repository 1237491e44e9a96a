package runtimelayout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirbyfan64/flatpod/internal/pkg/util/shell"
)

// ociInitScript is the fixed literal content of files/bin/oci-init.
const ociInitScript = `#!/bin/sh
if [ ! -e /var/run/.oci-init ] && [ -d /etc/oci-init.d ]; then
  . /etc/oci-init.d/*.sh
  touch /var/run/.oci-init
fi
if [ -z "$__OCI_INIT_PS1" ]; then
  unset PS1
  PS1="$($SHELL -c 'echo $PS1') "
  if [ -n "$BASH_VERSION" ]; then
    [ -z "$__OCI_INIT_BASH_ENV" ] || source "$__OCI_INIT_BASH_ENV"
  else
    [ -z "$__OCI_INIT_ENV" ] || source "$__OCI_INIT_ENV"
  fi
fi
`

// linkOptScript symlinks /opt to /usr/opt if nothing already occupies
// /opt, so packages that install into /opt at image-build time keep
// working once the runtime's `/opt` lives under `/usr/opt`.
const linkOptScript = "[ -e /opt ] || ln -s /usr/opt /opt\n"

// WriteOCIRun writes files/bin/oci-run, an executable script that execs
// cmd (shell-quoted) followed by "$@", iff cmd is non-empty.
func WriteOCIRun(buildDir string, cmd []string) error {
	if len(cmd) == 0 {
		return nil
	}

	quoted := make([]string, len(cmd))
	for i, arg := range cmd {
		quoted[i] = "'" + shell.EscapeSingleQuotes(arg) + "'"
	}

	script := fmt.Sprintf("#!/bin/sh\nexec %s \"$@\"\n", strings.Join(quoted, " "))
	path := filepath.Join(buildDir, FilesDir, "bin", "oci-run")
	return writeExecutable(path, script)
}

// WriteOCIInit writes files/bin/oci-init with the fixed literal script
// content.
func WriteOCIInit(buildDir string) error {
	path := filepath.Join(buildDir, FilesDir, "bin", "oci-init")
	return writeExecutable(path, ociInitScript)
}

// WriteLinkOpt writes files/etc/oci-init.d/link-opt.sh iff files/opt
// exists.
func WriteLinkOpt(buildDir string) error {
	opt := filepath.Join(buildDir, FilesDir, "opt")
	if _, err := os.Lstat(opt); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	dir := filepath.Join(buildDir, FilesDir, "etc", "oci-init.d")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "link-opt.sh"), []byte(linkOptScript), 0o644)
}

func writeExecutable(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o755)
}
