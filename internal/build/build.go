// Package build drives transpilation of a source tree: discovery, parallel
// translation, output writing and the incremental cache.
package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/tasty/internal/dag"
	"github.com/leapstack-labs/tasty/internal/state"
	"github.com/leapstack-labs/tasty/pkg/builtin"
	"github.com/leapstack-labs/tasty/pkg/include"
	"github.com/leapstack-labs/tasty/pkg/transpiler"
)

// cacheVersion is mixed into every content hash; bump it when generated
// output changes for unchanged input.
const cacheVersion = "tasty-1"

// Options configures a Builder.
type Options struct {
	SrcDir string
	OutDir string
	// Include defaults to every .tasty file.
	Include    []string
	Exclude    []string
	HeaderExt  string
	PragmaOnce bool
	// Table defaults to builtin.Default().
	Table *builtin.Table
	// Cache is optional; nil rebuilds everything.
	Cache state.Cache
	// Jobs bounds concurrent files; zero means GOMAXPROCS.
	Jobs   int
	Logger *slog.Logger
}

// Status is what happened to one file.
type Status int

// Status values.
const (
	Built Status = iota
	Cached
	Failed
)

func (s Status) String() string {
	switch s {
	case Built:
		return "built"
	case Cached:
		return "cached"
	case Failed:
		return "failed"
	}
	return "Status(" + strconv.Itoa(int(s)) + ")"
}

// FileResult reports one unit.
type FileResult struct {
	Unit
	Status     Status
	HeaderPath string
	SourcePath string
	// Source is the input text, kept for diagnostics when Err is set.
	Source string
	Err    error
}

// Report summarizes a build.
type Report struct {
	RunID   string
	Results []FileResult
	Stats   state.RunStats
	Elapsed time.Duration
}

// Err joins the errors of every failed file, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}

// Builder transpiles the units of a source tree.
type Builder struct {
	opts    Options
	matcher *Matcher
	logger  *slog.Logger
}

// New validates opts and returns a Builder.
func New(opts Options) (*Builder, error) {
	if opts.SrcDir == "" || opts.OutDir == "" {
		return nil, fmt.Errorf("source and output directories are required")
	}
	if len(opts.Include) == 0 {
		opts.Include = []string{"**" + transpiler.SourceExt}
	}
	if opts.HeaderExt == "" {
		opts.HeaderExt = include.DefaultHeaderExt
	}
	if opts.Table == nil {
		opts.Table = builtin.Default()
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	m, err := NewMatcher(opts.Include, opts.Exclude)
	if err != nil {
		return nil, err
	}
	return &Builder{opts: opts, matcher: m, logger: opts.Logger}, nil
}

// Discover lists the units the builder would translate.
func (b *Builder) Discover() ([]Unit, error) {
	return Discover(b.opts.SrcDir, b.matcher)
}

// Build translates every discovered unit.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	units, err := b.Discover()
	if err != nil {
		return nil, err
	}
	return b.BuildUnits(ctx, units)
}

// BuildUnits translates units concurrently, writing each header/source
// pair under OutDir at the unit's relative location. A failing file does
// not stop the others; its error is in the report. The returned error is
// for cancellation and cache failures only.
func (b *Builder) BuildUnits(ctx context.Context, units []Unit) (*Report, error) {
	start := time.Now()
	report := &Report{Results: make([]FileResult, len(units))}

	if b.opts.Cache != nil {
		run, err := b.opts.Cache.CreateRun()
		if err != nil {
			return nil, err
		}
		report.RunID = run.ID
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Jobs)

	var cacheMu sync.Mutex
	for i, unit := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := b.buildUnit(unit, report.RunID, &cacheMu)
			report.Results[i] = res
			return err
		})
	}
	waitErr := g.Wait()

	for _, res := range report.Results {
		report.Stats.Files++
		switch {
		case res.Err != nil:
			report.Stats.Failed++
		case res.Status == Cached:
			report.Stats.Cached++
		default:
			report.Stats.Built++
		}
	}
	report.Elapsed = time.Since(start)

	if b.opts.Cache != nil {
		status := state.RunStatusCompleted
		var msg string
		if err := errors.Join(waitErr, report.Err()); err != nil {
			status = state.RunStatusFailed
			msg = err.Error()
		}
		if err := b.opts.Cache.CompleteRun(report.RunID, status, report.Stats, msg); err != nil {
			return report, err
		}
	}

	b.logger.Info("build finished",
		slog.Int("files", report.Stats.Files),
		slog.Int("built", report.Stats.Built),
		slog.Int("cached", report.Stats.Cached),
		slog.Int("failed", report.Stats.Failed),
		slog.Duration("elapsed", report.Elapsed),
	)
	return report, waitErr
}

// buildUnit handles one file. Translation failures are recorded in the
// result; only cache errors are returned.
func (b *Builder) buildUnit(unit Unit, runID string, cacheMu *sync.Mutex) (FileResult, error) {
	res := FileResult{Unit: unit}
	res.HeaderPath, res.SourcePath = b.OutputPaths(unit)

	data, err := os.ReadFile(unit.Path)
	if err != nil {
		res.Status, res.Err = Failed, fmt.Errorf("%s: %w", unit.Rel, err)
		return res, nil
	}
	res.Source = string(data)
	hash := b.hash(unit, data)

	if b.opts.Cache != nil {
		cacheMu.Lock()
		prev, err := b.opts.Cache.GetContentHash(unit.Rel)
		cacheMu.Unlock()
		if err != nil {
			return res, err
		}
		if prev == hash && exists(res.HeaderPath) && exists(res.SourcePath) {
			b.logger.Debug("unchanged", slog.String("file", unit.Rel))
			res.Status = Cached
			return res, nil
		}
	}

	out, err := transpiler.Transpile(unit.Rel, res.Source, transpiler.Options{
		Table:      b.opts.Table,
		HeaderExt:  b.opts.HeaderExt,
		PragmaOnce: b.opts.PragmaOnce,
		Logger:     b.logger,
	})
	if err == nil {
		err = writeOutputs(res.HeaderPath, out.Header, res.SourcePath, out.Source)
	}
	if err != nil {
		b.logger.Debug("failed", slog.String("file", unit.Rel), slog.Any("error", err))
		res.Status, res.Err = Failed, err
		if b.opts.Cache != nil {
			cacheMu.Lock()
			defer cacheMu.Unlock()
			return res, b.opts.Cache.DeleteContentHash(unit.Rel)
		}
		return res, nil
	}

	res.Status = Built
	if b.opts.Cache != nil {
		cacheMu.Lock()
		defer cacheMu.Unlock()
		return res, b.opts.Cache.SetContentHash(unit.Rel, hash, runID)
	}
	return res, nil
}

// OutputPaths returns where unit's header and source are written.
func (b *Builder) OutputPaths(unit Unit) (header, source string) {
	base := filepath.Join(b.opts.OutDir, filepath.FromSlash(transpiler.UnitName(unit.Rel)))
	return base + b.opts.HeaderExt, base + include.SourceExt
}

// Remove deletes the outputs and cache entry of a unit whose source is gone.
func (b *Builder) Remove(unit Unit) error {
	hdr, src := b.OutputPaths(unit)
	for _, path := range []string{hdr, src} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if b.opts.Cache != nil {
		return b.opts.Cache.DeleteContentHash(unit.Rel)
	}
	return nil
}

// Clean removes the outputs of every discovered unit and their cache
// entries. It returns the number of units cleaned.
func (b *Builder) Clean() (int, error) {
	units, err := b.Discover()
	if err != nil {
		return 0, err
	}
	for _, unit := range units {
		if err := b.Remove(unit); err != nil {
			return 0, err
		}
	}
	return len(units), nil
}

// Graph parses every unit and links import and derive edges between them.
// Units that fail to parse are returned alongside the graph.
func (b *Builder) Graph() (*dag.Graph, []FileResult, error) {
	units, err := b.Discover()
	if err != nil {
		return nil, nil, err
	}

	graph := dag.NewGraph()
	imports := make(map[string][]string, len(units))
	var failed []FileResult
	for _, unit := range units {
		graph.AddNode(unit.Module, unit.Rel)

		data, err := os.ReadFile(unit.Path)
		if err != nil {
			failed = append(failed, FileResult{Unit: unit, Status: Failed, Err: err})
			continue
		}
		analyzed, err := transpiler.Analyze(unit.Rel, string(data), transpiler.Options{
			Table:     b.opts.Table,
			HeaderExt: b.opts.HeaderExt,
			Logger:    b.logger,
		})
		if err != nil {
			failed = append(failed, FileResult{Unit: unit, Status: Failed, Source: string(data), Err: err})
			continue
		}
		imports[unit.Module] = transpiler.Imports(analyzed.File)
	}

	for _, unit := range units {
		for _, imp := range imports[unit.Module] {
			if err := graph.AddImport(unit.Module, imp); err != nil {
				return graph, failed, err
			}
		}
	}
	return graph, failed, nil
}

func (b *Builder) hash(unit Unit, src []byte) string {
	h := sha256.New()
	for _, part := range []string{
		cacheVersion,
		b.opts.Table.Fingerprint(),
		b.opts.HeaderExt,
		strconv.FormatBool(b.opts.PragmaOnce),
		unit.Rel,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(src)
	return hex.EncodeToString(h.Sum(nil))
}

func writeOutputs(headerPath, header, sourcePath, source string) error {
	if err := os.MkdirAll(filepath.Dir(headerPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(headerPath, []byte(header), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", headerPath, err)
	}
	if err := os.WriteFile(sourcePath, []byte(source), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", sourcePath, err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
