package commands

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tasty/internal/cli/output"
	"github.com/leapstack-labs/tasty/internal/diag"
	"github.com/leapstack-labs/tasty/pkg/resolve"
	"github.com/leapstack-labs/tasty/pkg/transpiler"
)

// SymbolsOptions holds options for the symbols command.
type SymbolsOptions struct {
	Kind    string
	Unknown bool
}

// NewSymbolsCommand creates the symbols command.
func NewSymbolsCommand() *cobra.Command {
	opts := &SymbolsOptions{}

	cmd := &cobra.Command{
		Use:   "symbols <file>",
		Short: "List the symbols a file declares",
		Long: `Parse and resolve one .tasty file and list every symbol it declares:
namespaces, classes, enums, functions, variables and attributes, with their
resolved types and source lines.

Names the file uses but nothing declares are passed through to C++ as-is;
--unknown lists those too.`,
		Example: `  # List declarations
  tasty symbols src/main.tasty

  # Only functions
  tasty symbols src/main.tasty --kind function

  # As JSON
  tasty symbols src/main.tasty -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSymbols(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Kind, "kind", "k", "", "Only list symbols of this kind")
	cmd.Flags().BoolVar(&opts.Unknown, "unknown", false, "Include undeclared pass-through names")
	_ = cmd.RegisterFlagCompletionFunc("kind", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"namespace", "class", "abstract", "enum", "enumerator", "function", "variable", "parameter", "attribute"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// SymbolOutput is one symbol in JSON output.
type SymbolOutput struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Type    string `json:"type,omitempty"`
	Line    int    `json:"line,omitempty"`
	Unknown bool   `json:"unknown,omitempty"`
}

func runSymbols(cmd *cobra.Command, file string, opts *SymbolsOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	src, err := readSource(file)
	if err != nil {
		return err
	}
	topts, err := cmdCtx.TranspileOptions()
	if err != nil {
		return err
	}

	name := unitName(cmdCtx.Cfg, file)
	unit, err := transpiler.Analyze(name, src, topts)
	if err != nil {
		diag.NewPrinter(r.ErrWriter()).Print(diag.New(name, err).WithSource(src))
		return errors.New("analysis failed")
	}

	symbols := filterSymbols(unit.Info.Listing(), opts)

	switch r.Mode() {
	case output.ModeJSON:
		out := make([]SymbolOutput, 0, len(symbols))
		for _, s := range symbols {
			out = append(out, SymbolOutput{Name: s.Name, Kind: s.Kind.String(), Type: s.Type, Line: s.Line, Unknown: s.Unknown})
		}
		return r.JSON(out)
	default:
		if len(symbols) == 0 {
			r.Warning("no symbols found in " + name)
			return nil
		}
		rows := make([][]string, 0, len(symbols))
		for _, s := range symbols {
			line := ""
			if s.Line > 0 {
				line = strconv.Itoa(s.Line)
			}
			rows = append(rows, []string{line, s.Name, s.Kind.String(), s.Type})
		}
		r.Header(1, "Symbols in "+name)
		r.Table([]string{"Line", "Name", "Kind", "Type"}, rows)
	}
	return nil
}

func filterSymbols(all []resolve.SymbolEntry, opts *SymbolsOptions) []resolve.SymbolEntry {
	var out []resolve.SymbolEntry
	for _, s := range all {
		if s.Unknown && !opts.Unknown {
			continue
		}
		if opts.Kind != "" && s.Kind.String() != opts.Kind {
			continue
		}
		out = append(out, s)
	}
	return out
}
