package runtimelayout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kirbyfan64/flatpod/internal/pkg/treeops"
)

// FilesDir is the subtree everything from the image root is relocated
// under inside the build directory.
const FilesDir = "files"

// PrepareTree runs the cleanup pass, then /usr-merge, then relocates
// every remaining top-level entry of buildDir into buildDir/files,
// leaving buildDir itself in place for the synthesized files that
// follow.
func PrepareTree(buildDir string) error {
	if err := treeops.Cleanup(buildDir); err != nil {
		return fmt.Errorf("cleaning up build tree: %w", err)
	}

	if err := treeops.UsrMerge(buildDir); err != nil {
		return fmt.Errorf("usr-merging build tree: %w", err)
	}

	files := filepath.Join(buildDir, FilesDir)
	if err := os.MkdirAll(files, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", files, err)
	}
	if err := treeops.MergeTo(buildDir, files, treeops.MergeOptions{Root: buildDir, KeepRoot: true}); err != nil {
		return fmt.Errorf("relocating build tree into %s: %w", files, err)
	}
	return nil
}
