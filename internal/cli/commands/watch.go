package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tasty/internal/build"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild files as they change",
		Long: `Build the project once, then watch the source directory and
re-transpile files as they are created or edited. Outputs of deleted files
are removed. Press Ctrl+C to stop.`,
		Example: `  # Watch the project
  tasty watch

  # Wait longer for editors that save in several steps
  tasty watch --debounce 500ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", build.DefaultDebounce, "How long to wait for changes to settle")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	b, cleanup, err := cmdCtx.NewBuilder(true)
	defer cleanup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := b.Build(ctx)
	if err != nil {
		return err
	}
	if err := renderReport(cmdCtx, report, false); err != nil {
		return err
	}

	r.Println("")
	r.Println(r.Styles().Muted.Render("Watching " + cmdCtx.Cfg.SrcDir + " for changes..."))
	return b.Watch(ctx, build.WatchOptions{
		Debounce: opts.Debounce,
		OnBuild: func(report *build.Report) {
			if err := renderReport(cmdCtx, report, false); err != nil {
				cmdCtx.Logger.Error("failed to render report", "error", err)
			}
		},
	})
}
