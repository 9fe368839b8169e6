package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tasty/internal/build"
	"github.com/leapstack-labs/tasty/internal/cli/output"
	"github.com/leapstack-labs/tasty/internal/config"
	"github.com/leapstack-labs/tasty/internal/state"
	"github.com/leapstack-labs/tasty/pkg/builtin"
	"github.com/leapstack-labs/tasty/pkg/transpiler"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the config and logger stored by the root
// command and builds a renderer for the configured output mode. Commands
// run outside the root (tests, mostly) load config from the environment.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		var err error
		if cfg, err = config.Load("", nil); err != nil {
			return nil, err
		}
	}

	mode, err := output.ParseMode(cfg.Output)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}, nil
}

// Table loads the built-in table with the configured overlays.
func (c *CommandContext) Table() (*builtin.Table, error) {
	if len(c.Cfg.Builtins) == 0 {
		return builtin.Default(), nil
	}
	table, err := builtin.Load(builtin.LoadOptions{Overlays: c.Cfg.Builtins, Logger: c.Logger})
	if err != nil {
		return nil, fmt.Errorf("failed to load builtins: %w", err)
	}
	return table, nil
}

// TranspileOptions returns pipeline options for single-file commands.
func (c *CommandContext) TranspileOptions() (transpiler.Options, error) {
	table, err := c.Table()
	if err != nil {
		return transpiler.Options{}, err
	}
	return transpiler.Options{
		Table:      table,
		HeaderExt:  c.Cfg.HeaderExt,
		PragmaOnce: c.Cfg.PragmaOnce,
		Logger:     c.Logger,
	}, nil
}

// NewBuilder creates a builder over the configured tree. With useCache, and
// unless caching is disabled, it opens and migrates the cache; the returned
// cleanup closes it and must always be called.
func (c *CommandContext) NewBuilder(useCache bool) (*build.Builder, func(), error) {
	noop := func() {}
	if err := c.Cfg.ValidateDirectories(); err != nil {
		return nil, noop, err
	}
	table, err := c.Table()
	if err != nil {
		return nil, noop, err
	}

	opts := build.Options{
		SrcDir:     c.Cfg.SrcDir,
		OutDir:     c.Cfg.OutDir,
		Include:    c.Cfg.Include,
		Exclude:    c.Cfg.Exclude,
		HeaderExt:  c.Cfg.HeaderExt,
		PragmaOnce: c.Cfg.PragmaOnce,
		Table:      table,
		Jobs:       c.Cfg.Jobs,
		Logger:     c.Logger,
	}

	cleanup := noop
	if useCache && !c.Cfg.NoCache {
		store, err := c.OpenCache()
		if err != nil {
			return nil, noop, err
		}
		opts.Cache = store
		cleanup = func() { _ = store.Close() }
	}

	b, err := build.New(opts)
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	return b, cleanup, nil
}

// OpenCache opens the build cache and applies pending migrations.
func (c *CommandContext) OpenCache() (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(c.Cfg.CachePath); err != nil {
		return nil, fmt.Errorf("failed to open build cache: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate build cache: %w", err)
	}
	return store, nil
}

// unitName names a file given on the command line: its path relative to
// the source directory when it lies inside it, otherwise its base name.
func unitName(cfg *config.Config, path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Base(path)
	}
	src, err := filepath.Abs(cfg.SrcDir)
	if err == nil {
		if rel, err := filepath.Rel(src, abs); err == nil && filepath.IsLocal(rel) {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.Base(path)
}

// readSource reads a file named on the command line.
func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
