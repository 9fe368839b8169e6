package commands

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tasty/internal/build"
	"github.com/leapstack-labs/tasty/internal/cli/output"
	"github.com/leapstack-labs/tasty/internal/diag"
)

// BuildOptions holds options for the build command.
type BuildOptions struct {
	ShowAll bool
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	opts := &BuildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Transpile every source file in the project",
		Long: `Transpile every .tasty file under the source directory into a
header/source pair under the output directory, mirroring the source tree.

Files are translated in parallel. A file that fails to translate does not
stop the others; its diagnostics are printed and the command exits non-zero.
Unchanged files are skipped using the build cache unless --no-cache is set.`,
		Example: `  # Build the project
  tasty build

  # Build with plain #pragma once headers named .h
  tasty build --header-ext .h --pragma-once

  # Build a different tree, ignoring the cache
  tasty build --src-dir lib --out-dir gen --no-cache`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "List cached files in the summary too")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *BuildOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	b, cleanup, err := cmdCtx.NewBuilder(true)
	defer cleanup()
	if err != nil {
		return err
	}

	report, err := b.Build(cmd.Context())
	if err != nil {
		return err
	}
	if err := renderReport(cmdCtx, report, opts.ShowAll); err != nil {
		return err
	}
	return failureError(report)
}

// BuildOutput is the JSON form of a build report.
type BuildOutput struct {
	RunID   string       `json:"run_id,omitempty"`
	Files   int          `json:"files"`
	Built   int          `json:"built"`
	Cached  int          `json:"cached"`
	Failed  int          `json:"failed"`
	Elapsed string       `json:"elapsed"`
	Results []FileOutput `json:"results"`
}

// FileOutput is one file of a build report.
type FileOutput struct {
	File   string `json:"file"`
	Status string `json:"status"`
	Header string `json:"header,omitempty"`
	Source string `json:"source,omitempty"`
	Error  *Issue `json:"error,omitempty"`
}

// Issue is a diagnostic in JSON output.
type Issue struct {
	Code    string `json:"code,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
}

func newIssue(d diag.Diagnostic) *Issue {
	return &Issue{Code: d.Code, Line: d.Pos.Line, Column: d.Pos.Column, Message: d.Message}
}

func buildOutput(report *build.Report) BuildOutput {
	out := BuildOutput{
		RunID:   report.RunID,
		Files:   report.Stats.Files,
		Built:   report.Stats.Built,
		Cached:  report.Stats.Cached,
		Failed:  report.Stats.Failed,
		Elapsed: report.Elapsed.Round(time.Millisecond).String(),
		Results: make([]FileOutput, 0, len(report.Results)),
	}
	for _, res := range report.Results {
		f := FileOutput{File: res.Rel, Status: res.Status.String()}
		if res.Err != nil {
			f.Error = newIssue(diag.New(res.Rel, res.Err))
		} else {
			f.Header = filepath.ToSlash(res.HeaderPath)
			f.Source = filepath.ToSlash(res.SourcePath)
		}
		out.Results = append(out.Results, f)
	}
	return out
}

// renderReport prints diagnostics for failed files followed by a summary.
func renderReport(cmdCtx *CommandContext, report *build.Report, showAll bool) error {
	r := cmdCtx.Renderer
	if r.Mode() == output.ModeJSON {
		return r.JSON(buildOutput(report))
	}

	printer := diag.NewPrinter(r.ErrWriter())
	for _, res := range report.Results {
		if res.Err != nil {
			printer.Print(diag.New(res.Rel, res.Err).WithSource(res.Source))
		}
	}

	var rows [][]string
	for _, res := range report.Results {
		if res.Status == build.Cached && !showAll {
			continue
		}
		target := ""
		if res.Err == nil {
			target = relTo(cmdCtx.Cfg.OutDir, res.HeaderPath)
		}
		rows = append(rows, []string{res.Rel, res.Status.String(), target})
	}

	r.Header(1, "Build")
	if len(rows) > 0 {
		r.Table([]string{"File", "Status", "Header"}, rows)
		r.Println("")
	}
	r.KeyValue("Files", strconv.Itoa(report.Stats.Files))
	r.KeyValue("Built", strconv.Itoa(report.Stats.Built))
	r.KeyValue("Cached", strconv.Itoa(report.Stats.Cached))
	r.KeyValue("Failed", strconv.Itoa(report.Stats.Failed))
	r.KeyValue("Elapsed", report.Elapsed.Round(time.Millisecond).String())
	return nil
}

func failureError(report *build.Report) error {
	if report.Stats.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d files failed to transpile", report.Stats.Failed, report.Stats.Files)
}

func relTo(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
