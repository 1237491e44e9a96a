// Package imagepuller invokes the external container-image tool that
// materializes a remote image reference directly into the object store.
package imagepuller

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/kirbyfan64/flatpod/internal/pkg/flatpoderr"
	"github.com/kirbyfan64/flatpod/internal/pkg/imageref"
	"github.com/kirbyfan64/flatpod/internal/pkg/util/bin"
	"github.com/kirbyfan64/flatpod/pkg/sylog"
)

// Push shells out to skopeo, asking it to copy image into the ostree
// repo at storePath as `ociimage/<escape(image)>`.
//
// skopeo deposits a committed tree containing manifest.json and content
// under that ref, and one ociimage/<digest_token> commit per layer/config
// blob, which is exactly the shape the Manifest Reader and Runtime
// Layout Builder expect.
func Push(ctx context.Context, image string, storePath string) error {
	skopeoBin, err := bin.Find(bin.Skopeo)
	if err != nil {
		return err
	}

	ref, err := imageref.Parse(image)
	if err != nil {
		return &flatpoderr.BadArgument{Msg: err.Error()}
	}
	dstRef := fmt.Sprintf("ostree:%s@%s", imageref.Escape(image), storePath)
	srcRef := fmt.Sprintf("docker://%s", ref.String())

	sylog.Infof("Pulling %s", ref.String())
	cmd := exec.CommandContext(ctx, skopeoBin, "copy", srcRef, dstRef)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := 1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return &flatpoderr.PullFailed{
			Image:    ref.String(),
			ExitCode: exitCode,
			Err:      fmt.Errorf("%w: %s", err, stderr.String()),
		}
	}
	return nil
}
