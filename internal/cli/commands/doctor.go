package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tasty/internal/cli/output"
	"github.com/leapstack-labs/tasty/internal/dag"
	"github.com/leapstack-labs/tasty/internal/diag"
	"github.com/leapstack-labs/tasty/internal/state"
)

// Health check statuses.
const (
	statusPass  = "pass"
	statusWarn  = "warn"
	statusError = "error"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the project for problems",
		Long: `Check the project configuration and sources without writing output.

The doctor command reports:
- which configuration file is in effect
- whether the source directory exists and what it contains
- whether the built-in table and its overlays load
- files that fail to parse or resolve
- import cycles and modules imported from outside the project
- the state of the build cache

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  tasty doctor

  # Output as JSON
  tasty doctor -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd)
		},
	}
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Checks []HealthCheck `json:"checks"`
	Errors int           `json:"errors"`
	Warns  int           `json:"warnings"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string   `json:"name"`
	Status  string   `json:"status"`
	Summary string   `json:"summary"`
	Details []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	out := &DoctorOutput{Checks: doctorChecks(cmdCtx)}
	for _, c := range out.Checks {
		switch c.Status {
		case statusError:
			out.Errors++
		case statusWarn:
			out.Warns++
		}
	}

	switch r.Mode() {
	case output.ModeJSON:
		if err := r.JSON(out); err != nil {
			return err
		}
	case output.ModeMarkdown:
		renderDoctorMarkdown(r, out)
	default:
		renderDoctorText(r, out)
	}

	if out.Errors > 0 {
		return fmt.Errorf("%d checks failed", out.Errors)
	}
	return nil
}

func doctorChecks(cmdCtx *CommandContext) []HealthCheck {
	cfg := cmdCtx.Cfg
	var checks []HealthCheck

	if cfg.File != "" {
		checks = append(checks, HealthCheck{Name: "config", Status: statusPass, Summary: cfg.File})
	} else {
		checks = append(checks, HealthCheck{Name: "config", Status: statusWarn, Summary: "no tasty.yaml found, using defaults"})
	}

	table, err := cmdCtx.Table()
	if err != nil {
		checks = append(checks, HealthCheck{Name: "builtins", Status: statusError, Summary: err.Error()})
		return checks
	}
	checks = append(checks, HealthCheck{
		Name:    "builtins",
		Status:  statusPass,
		Summary: fmt.Sprintf("%d overlays, %d namespaces", len(cfg.Builtins), len(table.Namespaces())),
	})

	b, cleanup, err := cmdCtx.NewBuilder(false)
	defer cleanup()
	if err != nil {
		checks = append(checks, HealthCheck{Name: "sources", Status: statusError, Summary: err.Error()})
		return checks
	}

	graph, failed, err := b.Graph()
	if err != nil {
		checks = append(checks, HealthCheck{Name: "sources", Status: statusError, Summary: err.Error()})
		return checks
	}
	sources := HealthCheck{Name: "sources", Status: statusPass, Summary: fmt.Sprintf("%d files in %s", graph.NodeCount(), cfg.SrcDir)}
	if graph.NodeCount() == 0 {
		sources.Status = statusWarn
	}
	checks = append(checks, sources)

	analysis := HealthCheck{Name: "analysis", Status: statusPass, Summary: "all files parse and resolve"}
	if len(failed) > 0 {
		analysis.Status = statusError
		analysis.Summary = fmt.Sprintf("%d files have errors", len(failed))
		for _, res := range failed {
			analysis.Details = append(analysis.Details, diag.New(res.Rel, res.Err).String())
		}
	}
	checks = append(checks, analysis)
	checks = append(checks, importsCheck(graph))
	checks = append(checks, cacheCheck(cmdCtx))
	return checks
}

func importsCheck(graph *dag.Graph) HealthCheck {
	check := HealthCheck{Name: "imports", Status: statusPass}
	if _, err := graph.Order(); err != nil {
		var cycle *dag.CycleError
		if errors.As(err, &cycle) {
			check.Status = statusError
			check.Summary = cycle.Error()
			return check
		}
	}

	external := make(map[string]bool)
	for _, n := range graph.Nodes() {
		for _, ext := range graph.External(n.ID) {
			external[ext] = true
		}
	}
	check.Summary = fmt.Sprintf("%d project imports, %d external modules", graph.EdgeCount(), len(external))
	for _, n := range graph.Nodes() {
		if ext := graph.External(n.ID); len(ext) > 0 {
			check.Details = append(check.Details, n.ID+" imports "+strings.Join(ext, ", "))
		}
	}
	return check
}

func cacheCheck(cmdCtx *CommandContext) HealthCheck {
	check := HealthCheck{Name: "cache", Status: statusPass}
	if cmdCtx.Cfg.NoCache {
		check.Status = statusWarn
		check.Summary = "disabled"
		return check
	}

	store, err := cmdCtx.OpenCache()
	if err != nil {
		check.Status = statusError
		check.Summary = err.Error()
		return check
	}
	defer func() { _ = store.Close() }()

	version, err := store.GetMigrationVersion()
	if err != nil {
		check.Status = statusError
		check.Summary = err.Error()
		return check
	}
	hashes, err := store.ListContentHashes()
	if err != nil {
		check.Status = statusError
		check.Summary = err.Error()
		return check
	}
	check.Summary = fmt.Sprintf("schema v%d, %d files cached", version, len(hashes))

	runs, err := store.ListRuns(5)
	if err != nil {
		check.Status = statusError
		check.Summary = err.Error()
		return check
	}
	for _, run := range runs {
		check.Details = append(check.Details, fmt.Sprintf("%s %s: %d built, %d cached, %d failed",
			run.StartedAt.Format("2006-01-02 15:04:05"), run.Status, run.Stats.Built, run.Stats.Cached, run.Stats.Failed))
	}
	if len(runs) > 0 && runs[0].Status != state.RunStatusCompleted {
		check.Status = statusWarn
	}
	return check
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) {
	styles := r.Styles()
	title := cases.Title(language.English)

	r.Header(1, "Project Health")
	rows := make([][]string, 0, len(out.Checks))
	for _, c := range out.Checks {
		rows = append(rows, []string{title.String(c.Name), statusStyle(styles, c.Status).Render(title.String(c.Status)), c.Summary})
	}
	r.Table([]string{"Check", "Status", "Summary"}, rows)

	for _, c := range out.Checks {
		if len(c.Details) == 0 {
			continue
		}
		r.Println("")
		r.Println(styles.Header.Render(title.String(c.Name)))
		for _, d := range c.Details {
			r.Println(styles.Muted.Render("  " + d))
		}
	}
	r.Println("")
	r.Println(styles.Muted.Render(fmt.Sprintf("%d errors, %d warnings", out.Errors, out.Warns)))
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) {
	title := cases.Title(language.English)

	r.Println(output.FormatHeader(1, "Project Health"))
	r.Println("")
	for _, c := range out.Checks {
		r.Println(output.FormatHeader(2, title.String(c.Name)))
		r.Println("")
		r.Println(output.FormatKeyValue("Status", c.Status))
		r.Println(output.FormatKeyValue("Summary", c.Summary))
		for _, d := range c.Details {
			r.Printf("  - %s\n", d)
		}
		r.Println("")
	}
	r.Println(output.FormatHeader(2, "Summary"))
	r.Println("")
	r.Println(output.FormatKeyValue("Errors", strconv.Itoa(out.Errors)))
	r.Println(output.FormatKeyValue("Warnings", strconv.Itoa(out.Warns)))
}

func statusStyle(styles *output.Styles, status string) lipgloss.Style {
	switch status {
	case statusError:
		return styles.Error
	case statusWarn:
		return styles.Warning
	}
	return styles.Success
}
