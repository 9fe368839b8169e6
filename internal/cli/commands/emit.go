package commands

import (
	"errors"
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tasty/internal/cli/output"
	"github.com/leapstack-labs/tasty/internal/diag"
	"github.com/leapstack-labs/tasty/pkg/include"
	"github.com/leapstack-labs/tasty/pkg/transpiler"
)

// EmitOptions holds options for the emit command.
type EmitOptions struct {
	HeaderOnly bool
	SourceOnly bool
}

// NewEmitCommand creates the emit command.
func NewEmitCommand() *cobra.Command {
	opts := &EmitOptions{}

	cmd := &cobra.Command{
		Use:   "emit <file>",
		Short: "Print the C++ generated for one file",
		Long: `Transpile a single .tasty file and print the generated header and
source to stdout without writing anything to disk.

The file is named by its path relative to the source directory when it lies
inside it, which is what its header guard and include line are based on.`,
		Example: `  # Show both outputs
  tasty emit src/main.tasty

  # Only the header
  tasty emit src/widgets/line_edit.tasty --header`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.HeaderOnly, "header", false, "Print only the header")
	cmd.Flags().BoolVar(&opts.SourceOnly, "source", false, "Print only the source")
	cmd.MarkFlagsMutuallyExclusive("header", "source")

	return cmd
}

// EmitOutput is the JSON form of the emit command.
type EmitOutput struct {
	File       string `json:"file"`
	HeaderName string `json:"header_name"`
	SourceName string `json:"source_name"`
	Header     string `json:"header,omitempty"`
	Source     string `json:"source,omitempty"`
	Error      *Issue `json:"error,omitempty"`
}

func runEmit(cmd *cobra.Command, file string, opts *EmitOptions) error {
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
	base := path.Base(transpiler.UnitName(name))
	out := EmitOutput{
		File:       name,
		HeaderName: base + cmdCtx.Cfg.HeaderExt,
		SourceName: base + include.SourceExt,
	}

	res, err := transpiler.Transpile(name, src, topts)
	if err != nil {
		d := diag.New(name, err).WithSource(src)
		if r.Mode() == output.ModeJSON {
			out.Error = newIssue(d)
			if jerr := r.JSON(out); jerr != nil {
				return jerr
			}
		} else {
			diag.NewPrinter(r.ErrWriter()).Print(d)
		}
		return errors.New("transpilation failed")
	}

	if !opts.SourceOnly {
		out.Header = res.Header
	}
	if !opts.HeaderOnly {
		out.Source = res.Source
	}

	switch r.Mode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		emitMarkdown(r, out)
	default:
		emitText(r, out, opts)
	}
	return nil
}

// emitText prints raw code; with both outputs each is preceded by a
// comment naming the file.
func emitText(r *output.Renderer, out EmitOutput, opts *EmitOptions) {
	both := !opts.HeaderOnly && !opts.SourceOnly
	if !opts.SourceOnly {
		if both {
			r.Printf("// %s\n", out.HeaderName)
		}
		r.Printf("%s", out.Header)
	}
	if both {
		r.Println("")
	}
	if !opts.HeaderOnly {
		if both {
			r.Printf("// %s\n", out.SourceName)
		}
		r.Printf("%s", out.Source)
	}
}

func emitMarkdown(r *output.Renderer, out EmitOutput) {
	for _, part := range []struct{ name, code string }{
		{out.HeaderName, out.Header},
		{out.SourceName, out.Source},
	} {
		if part.code == "" {
			continue
		}
		r.Println(output.FormatHeader(2, part.name))
		r.Println("")
		r.Println("```cpp")
		r.Printf("%s", part.code)
		r.Println("```")
		r.Println("")
	}
	if out.Header == "" && out.Source == "" {
		r.Println(fmt.Sprintf("_%s produced no output_", out.File))
	}
}
