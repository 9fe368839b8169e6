// Package transpiler runs the whole pipeline for one .tasty file: parse,
// resolve, expand attributes and generate the header/source pair.
//
// Each call owns its tree, scopes and buffers. The only shared input is the
// built-in table, which is read-only, so files may be transpiled
// concurrently with the same Options.
package transpiler

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/tasty/pkg/attribute"
	"github.com/leapstack-labs/tasty/pkg/builtin"
	"github.com/leapstack-labs/tasty/pkg/codegen"
	"github.com/leapstack-labs/tasty/pkg/core"
	"github.com/leapstack-labs/tasty/pkg/include"
	"github.com/leapstack-labs/tasty/pkg/parser"
	"github.com/leapstack-labs/tasty/pkg/resolve"
)

// SourceExt is the extension of input files.
const SourceExt = ".tasty"

// Options configures a transpilation.
type Options struct {
	// Table is the built-in table. Defaults to builtin.Default().
	Table *builtin.Table
	// HeaderExt defaults to ".hpp".
	HeaderExt  string
	PragmaOnce bool
	// Logger is optional; nil discards.
	Logger *slog.Logger
}

// Unit is a parsed, resolved and expanded file.
type Unit struct {
	Name string
	File *core.File
	Info *resolve.Info
}

// Result is the output of Transpile.
type Result struct {
	Unit
	Header   string
	Source   string
	Includes include.Lists
}

func (o *Options) defaults() {
	if o.Table == nil {
		o.Table = builtin.Default()
	}
	if o.HeaderExt == "" {
		o.HeaderExt = include.DefaultHeaderExt
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

// UnitName strips the source extension: src/main.tasty becomes src/main.
func UnitName(path string) string {
	if filepath.Ext(path) == SourceExt {
		return strings.TrimSuffix(path, SourceExt)
	}
	return path
}

// Analyze runs every stage before code generation. The returned error is
// the first stage error, wrapped with the file name.
func Analyze(name, src string, opts Options) (*Unit, error) {
	opts.defaults()
	logger := opts.Logger.With(slog.String("file", name))

	file, err := parser.ParseFile(name, src, opts.Table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	logger.Debug("parsed", slog.Int("decls", len(file.Decls)))

	info, err := resolve.Resolve(file, opts.Table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	logger.Debug("resolved", slog.Int("uses", len(info.Uses)), slog.Int("extensions", len(info.Extensions)))

	if err := attribute.Expand(file, info); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Unit{Name: UnitName(name), File: file, Info: info}, nil
}

// Transpile translates one file. name is the path of the input; its base
// without extension names the generated pair.
func Transpile(name, src string, opts Options) (*Result, error) {
	opts.defaults()
	start := time.Now()

	unit, err := Analyze(name, src, opts)
	if err != nil {
		return nil, err
	}
	out, err := codegen.Generate(unit.File, unit.Info, codegen.Options{
		Name:       unit.Name,
		HeaderExt:  opts.HeaderExt,
		PragmaOnce: opts.PragmaOnce,
		Table:      opts.Table,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	opts.Logger.Debug("transpiled",
		slog.String("file", name),
		slog.Duration("elapsed", time.Since(start)),
	)
	return &Result{
		Unit:     *unit,
		Header:   out.Header,
		Source:   out.Source,
		Includes: out.Includes,
	}, nil
}

// Imports returns the module paths a file imports or derives, in order.
// Build tools use them to order compilation units.
func Imports(file *core.File) []string {
	var mods []string
	seen := make(map[string]bool)
	core.Inspect(file, func(n core.Node) bool {
		d, ok := n.(*core.IncludeDecl)
		if ok && d.Kind.IsModule() && !seen[d.Path] {
			seen[d.Path] = true
			mods = append(mods, d.Path)
		}
		return true
	})
	return mods
}
