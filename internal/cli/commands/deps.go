package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tasty/internal/build"
	"github.com/leapstack-labs/tasty/internal/cli/output"
	"github.com/leapstack-labs/tasty/internal/dag"
	"github.com/leapstack-labs/tasty/internal/diag"
	"github.com/leapstack-labs/tasty/pkg/transpiler"
)

// DepsOptions holds options for the deps command.
type DepsOptions struct {
	Affected []string
}

// NewDepsCommand creates the deps command.
func NewDepsCommand() *cobra.Command {
	opts := &DepsOptions{}

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Show the module dependency graph",
		Long: `Display how the project's files depend on each other through import
and derive declarations.

Files are grouped by level: level 0 depends on nothing in the project, and
each later level only on earlier ones. Modules imported from outside the
source tree are listed per file. Import cycles are reported as errors.

With --affected, print the given modules plus every file that depends on
them, in dependency order.`,
		Example: `  # Show levels
  tasty deps

  # What needs rebuilding when util/math.tasty changes
  tasty deps --affected util.math

  # Machine-readable
  tasty deps -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeps(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Affected, "affected", nil, "Modules or files whose dependents to list")

	return cmd
}

// DepsOutput is the JSON form of the deps command.
type DepsOutput struct {
	Levels   [][]string          `json:"levels,omitempty"`
	Affected []string            `json:"affected,omitempty"`
	External map[string][]string `json:"external,omitempty"`
	Modules  int                 `json:"modules"`
	Edges    int                 `json:"edges"`
	Failed   []FileOutput        `json:"failed,omitempty"`
}

func runDeps(cmd *cobra.Command, opts *DepsOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	b, cleanup, err := cmdCtx.NewBuilder(false)
	defer cleanup()
	if err != nil {
		return err
	}

	graph, failed, err := b.Graph()
	if err != nil {
		return err
	}
	out := DepsOutput{
		External: make(map[string][]string),
		Modules:  graph.NodeCount(),
		Edges:    graph.EdgeCount(),
	}
	for _, n := range graph.Nodes() {
		if ext := graph.External(n.ID); len(ext) > 0 {
			out.External[n.ID] = ext
		}
	}
	for _, res := range failed {
		out.Failed = append(out.Failed, FileOutput{File: res.Rel, Status: res.Status.String(), Error: newIssue(diag.New(res.Rel, res.Err))})
	}

	if len(opts.Affected) > 0 {
		out.Affected, err = affectedInOrder(graph, opts.Affected)
	} else {
		out.Levels, err = graph.Levels()
	}
	if err != nil {
		var cycle *dag.CycleError
		if errors.As(err, &cycle) && r.Mode() != output.ModeJSON {
			r.Warning(cycle.Error())
		}
		return err
	}

	if r.Mode() == output.ModeJSON {
		return r.JSON(out)
	}
	printFailures(r, failed)
	if out.Affected != nil {
		depsAffected(r, out)
		return nil
	}
	depsLevels(r, graph, out)
	return nil
}

// affectedInOrder expands the changed modules to their dependents and
// sorts the result so every module follows what it imports.
func affectedInOrder(graph *dag.Graph, changed []string) ([]string, error) {
	ids := make([]string, 0, len(changed))
	for _, c := range changed {
		c = strings.TrimSpace(c)
		if strings.HasSuffix(c, transpiler.SourceExt) {
			c = dag.ModulePath(c)
		}
		if _, ok := graph.Node(c); !ok {
			return nil, fmt.Errorf("unknown module %q", c)
		}
		ids = append(ids, c)
	}

	affected := make(map[string]bool)
	for _, id := range graph.Affected(ids) {
		affected[id] = true
	}
	order, err := graph.Order()
	if err != nil {
		return nil, err
	}
	result := []string{}
	for _, n := range order {
		if affected[n.ID] {
			result = append(result, n.ID)
		}
	}
	return result, nil
}

func printFailures(r *output.Renderer, failed []build.FileResult) {
	printer := diag.NewPrinter(r.ErrWriter())
	for _, res := range failed {
		printer.Print(diag.New(res.Rel, res.Err).WithSource(res.Source))
	}
}

func depsAffected(r *output.Renderer, out DepsOutput) {
	r.Header(1, "Affected Modules")
	for i, id := range out.Affected {
		r.Printf("%d. %s\n", i+1, id)
	}
}

func depsLevels(r *output.Renderer, graph *dag.Graph, out DepsOutput) {
	styles := r.Styles()
	markdown := r.Mode() == output.ModeMarkdown

	r.Header(1, "Module Graph")
	for i, level := range out.Levels {
		title := fmt.Sprintf("Level %d", i)
		if markdown {
			r.Println(output.FormatHeader(2, title))
			r.Println("")
		} else {
			r.Println(styles.Header.Render(title + ":"))
		}

		for _, id := range level {
			file := ""
			if n, ok := graph.Node(id); ok {
				file = n.File
			}
			r.Printf("- %s (%s)\n", id, file)
			if imports := graph.Imports(id); len(imports) > 0 {
				r.Printf("  - imports: %s\n", strings.Join(imports, ", "))
			}
			if ext := out.External[id]; len(ext) > 0 {
				r.Printf("  - external: %s\n", strings.Join(ext, ", "))
			}
		}
		r.Println("")
	}

	if markdown {
		r.Println(output.FormatHeader(2, "Summary"))
		r.Println("")
	}
	r.KeyValue("Modules", strconv.Itoa(out.Modules))
	r.KeyValue("Dependencies", strconv.Itoa(out.Edges))
}
