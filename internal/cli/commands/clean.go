package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tasty/internal/cli/output"
)

// NewCleanCommand creates the clean command.
func NewCleanCommand() *cobra.Command {
	var resetCache bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove generated files",
		Long: `Remove the header and source generated for every file in the project
and forget their build cache entries. Files in the output directory that do
not belong to a current source file are left alone.`,
		Example: `  # Remove generated files
  tasty clean

  # Also drop every cache entry, including ones for deleted sources
  tasty clean --reset-cache`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClean(cmd, resetCache)
		},
	}

	cmd.Flags().BoolVar(&resetCache, "reset-cache", false, "Forget every entry in the build cache")

	return cmd
}

func runClean(cmd *cobra.Command, resetCache bool) error {
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

	n, err := b.Clean()
	if err != nil {
		return err
	}
	if resetCache && !cmdCtx.Cfg.NoCache {
		store, err := cmdCtx.OpenCache()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if err := store.Clear(); err != nil {
			return err
		}
	}

	if r.Mode() == output.ModeJSON {
		return r.JSON(map[string]int{"cleaned": n})
	}
	r.Success(fmt.Sprintf("Removed outputs of %d files from %s", n, cmdCtx.Cfg.OutDir))
	return nil
}
