// Package cli implements flatpod's command-line interface: a single
// positional image reference, a handful of flags, and the --cleanup
// escape hatch into the Janitor.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kirbyfan64/flatpod/internal/pkg/flatpoderr"
	"github.com/kirbyfan64/flatpod/internal/pkg/janitor"
	"github.com/kirbyfan64/flatpod/internal/pkg/ostree"
	"github.com/kirbyfan64/flatpod/internal/pkg/pipeline"
	"github.com/kirbyfan64/flatpod/internal/pkg/util/bin"
	"github.com/kirbyfan64/flatpod/internal/pkg/util/env"
	"github.com/kirbyfan64/flatpod/pkg/flatpodconf"
	"github.com/kirbyfan64/flatpod/pkg/flatpodfs"
	"github.com/kirbyfan64/flatpod/pkg/sylog"
)

// Version is flatpod's release string, printed by --version.
const Version = "0.1.0"

var (
	verbose       bool
	keepBuildDir  bool
	runtimeID     string
	runtimeBranch string
	cleanupMode   string
	showVersion   bool
)

var rootCmd = &cobra.Command{
	Use:          "flatpod IMAGE",
	Short:        "Convert an OCI container image into a sandboxed runtime",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVar(&showVersion, "version", false, "print a version string and exit")
	flags.BoolVar(&verbose, "verbose", false, "enable debug-level logging")
	flags.BoolVar(&keepBuildDir, "keep-build-dir", false, "do not delete the temp build directory on success")
	flags.StringVarP(&runtimeID, "runtime-id", "i", "", "override the derived runtime id")
	flags.StringVarP(&runtimeBranch, "runtime-branch", "b", "", "override the derived runtime branch")
	flags.StringVar(&cleanupMode, "cleanup", "", "run the Janitor in the given mode (all|oci|unused|prune) and exit")
}

func run(cmd *cobra.Command, args []string) error {
	setLogLevel()

	if showVersion {
		fmt.Println("flatpod version " + Version)
		return nil
	}

	if err := flatpodfs.EnsureLayout(); err != nil {
		return err
	}
	// TMPDIR must be set on the process itself, not just threaded through
	// context, because the external pull tool inherits the environment.
	if err := env.SetFromList([]string{"TMPDIR=" + flatpodfs.BuildsDir()}); err != nil {
		return err
	}

	cfgPath := flatpodfs.DataDir() + "/flatpod/flatpod.conf"
	cfg, err := flatpodconf.Parse(cfgPath)
	if err != nil {
		return err
	}
	flatpodconf.SetCurrentConfig(cfg)

	ostreeBin, err := bin.Find(bin.Ostree)
	if err != nil {
		return err
	}
	store := ostree.New(flatpodfs.RepoDir(), ostreeBin)

	ctx := cmd.Context()

	if cleanupMode != "" {
		return runCleanup(ctx, store)
	}

	if len(args) != 1 {
		return &flatpoderr.BadArgument{Msg: "exactly one image reference is required"}
	}

	remoteConfig := flatpodfs.DataDir() + "/flatpod/remote.yaml"
	_, err = pipeline.Convert(ctx, store, pipeline.Options{
		Image: args[0],
		Overrides: pipeline.Overrides{
			RuntimeID:     runtimeID,
			RuntimeBranch: runtimeBranch,
		},
		KeepBuildDir: keepBuildDir,
		RemoteConfig: remoteConfig,
	})
	if err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "[ERROR] "+err.Error())
	}
	return err
}

func runCleanup(ctx context.Context, store *ostree.Store) error {
	mode := janitor.Mode(cleanupMode)
	switch mode {
	case janitor.ModeAll, janitor.ModeOCI, janitor.ModeUnused, janitor.ModePrune:
	default:
		return &flatpoderr.BadArgument{Msg: fmt.Sprintf("unknown --cleanup mode %q", cleanupMode)}
	}

	result, err := janitor.Clean(ctx, store, mode)
	if err != nil {
		return err
	}
	fmt.Printf("%.2fmb deleted\n", float64(result.PrunedBytes)/(1024*1024))
	return nil
}

func setLogLevel() {
	level := 1
	if verbose {
		level = 5
	}
	sylog.SetLevel(level, term.IsTerminal(2))
}

// Execute runs the root command with a context cancelled on SIGINT.
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer func() {
		signal.Stop(c)
		cancel()
	}()
	go func() {
		select {
		case <-c:
			sylog.Debugf("user requested cancellation")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var pullErr *flatpoderr.PullFailed
	if errors.As(err, &pullErr) {
		return pullErr.ExitCode
	}
	return 1
}
