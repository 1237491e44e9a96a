package runtimelayout

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/kirbyfan64/flatpod/internal/pkg/flatpoderr"
	"github.com/kirbyfan64/flatpod/internal/pkg/treeops"
	"github.com/kirbyfan64/flatpod/internal/pkg/util/bin"
)

const appdataTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<component type="runtime">
  <id>%s</id>
  <name>%s</name>
  <metadata_license>CC0-1.0</metadata_license>
  <summary>Flatpod-generated runtime</summary>
</component>
`

// WriteAppData synthesizes files/share/appdata/<id>.appdata.xml and
// invokes the external appstream compile tool over it.
//
// The directory is populated in a fresh share/appdata.tmp-<uuid>/
// subdirectory and renamed into place, rather than written directly
// into share/appdata/: if a prior run crashed mid-write, any stale
// appdata.tmp-* directory from that run is simply orphaned (and swept up
// by the next Janitor builds-dir cleanup) instead of leaving half-written
// files under the name later steps expect to be complete.
func WriteAppData(ctx context.Context, buildDir, id, fullName string) error {
	shareDir := filepath.Join(buildDir, FilesDir, "share")
	tmpDir := filepath.Join(shareDir, fmt.Sprintf("appdata.tmp-%s", uuid.NewString()))
	finalDir := filepath.Join(shareDir, "appdata")

	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return &flatpoderr.FSError{Path: tmpDir, Err: err}
	}

	xml := fmt.Sprintf(appdataTemplate, id, fullName)
	xmlPath := filepath.Join(tmpDir, id+".appdata.xml")
	if err := os.WriteFile(xmlPath, []byte(xml), 0o644); err != nil {
		return &flatpoderr.FSError{Path: xmlPath, Err: err}
	}

	if _, err := os.Lstat(finalDir); err == nil {
		if _, err := treeops.RecursiveDelete(finalDir, treeops.DeleteOptions{}); err != nil {
			return &flatpoderr.FSError{Path: finalDir, Err: err}
		}
	}
	if err := os.Rename(tmpDir, finalDir); err != nil {
		return &flatpoderr.FSError{Path: finalDir, Err: err}
	}

	composeBin, err := bin.Find(bin.AppstreamCompose)
	if err != nil {
		return err
	}

	filesDir := filepath.Join(buildDir, FilesDir)
	cmd := exec.CommandContext(ctx, composeBin,
		"--prefix="+filesDir,
		"--basename="+id,
		"--origin=flatpak",
		id,
	)
	cmd.Dir = filesDir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("appstream-compose: %w (%s)", err, out)
	}
	return nil
}
