package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tasty/internal/cli/output"
	"github.com/leapstack-labs/tasty/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new tasty project",
		Long: `Initialize a new tasty project with a configuration file and a small
example program.

This creates:
  - tasty.yaml configuration file
  - src/ with two example .tasty files
  - .gitignore ignoring generated output and the build cache`,
		Example: `  # Initialize in current directory
  tasty init

  # Initialize in a new directory
  tasty init my-project

  # Force overwrite existing files
  tasty init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeAuto)
			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileName)
	}

	if err := copyTemplate("minimal", dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	files, _ := listTemplateFiles("minimal")
	for _, f := range files {
		r.Println(r.Styles().Success.Render("+ ") + f)
	}

	r.Println("")
	r.Success("tasty project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Write .tasty files in src/")
	r.Println("  2. Run 'tasty build' to generate C++ into build/")
	r.Println("  3. Run 'tasty watch' to rebuild as you edit")
	return nil
}
