package remote

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/kirbyfan64/flatpod/internal/pkg/flatpoderr"
	"github.com/kirbyfan64/flatpod/internal/pkg/imageref"
	"github.com/kirbyfan64/flatpod/internal/pkg/util/bin"
	"github.com/kirbyfan64/flatpod/pkg/sylog"
)

// Install installs (remote=OriginName, kind=runtime, id, arch, branch),
// falling back to an update if it is already installed.
func Install(ctx context.Context, info imageref.RuntimeInfo) error {
	installBin, err := bin.Find(bin.Install)
	if err != nil {
		return err
	}

	ref := fmt.Sprintf("runtime/%s", info.FullName())
	err = runInstaller(ctx, installBin, "install", "-y", OriginName, ref)
	if err == nil {
		return nil
	}
	if !looksAlreadyInstalled(err) {
		return &flatpoderr.RepoError{Op: "install " + ref, Err: err}
	}

	already := &flatpoderr.AlreadyInstalled{ID: info.ID, Arch: info.Arch, Branch: info.Branch}
	sylog.Debugf("%s, falling back to update", already)
	if err := runInstaller(ctx, installBin, "update", "-y", OriginName, ref); err != nil {
		return &flatpoderr.RepoError{Op: "update " + ref, Err: err}
	}
	return nil
}

func looksAlreadyInstalled(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already installed") || strings.Contains(msg, "already exists")
}

// Installed returns the id/arch/branch of every runtime currently
// installed whose origin is OriginName.
func Installed(ctx context.Context) ([]imageref.RuntimeInfo, error) {
	installBin, err := bin.Find(bin.Install)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, installBin, "list", "--runtime", "--columns=application,arch,branch,origin")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s list: %w (%s)", installBin, err, stderr.String())
	}

	return parseInstalledOutput(stdout.String()), nil
}

// parseInstalledOutput parses the tab-separated
// application/arch/branch/origin rows produced by `flatpak list --runtime
// --columns=application,arch,branch,origin`, keeping only rows whose origin
// is OriginName. Split out of Installed so it can be unit tested without a
// real flatpak binary.
func parseInstalledOutput(output string) []imageref.RuntimeInfo {
	var out []imageref.RuntimeInfo
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			continue
		}
		if fields[3] != OriginName {
			continue
		}
		out = append(out, imageref.RuntimeInfo{ID: fields[0], Arch: fields[1], Branch: fields[2]})
	}
	return out
}
