package build

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"

	"github.com/leapstack-labs/tasty/internal/dag"
)

// Unit is one discovered source file.
type Unit struct {
	// Path is the file on disk.
	Path string
	// Rel is Path relative to the source root, slash-separated.
	Rel string
	// Module is the dotted import path, e.g. util.math.
	Module string
}

// Matcher selects source files by glob patterns over slash-separated
// relative paths. A file matches when some include pattern matches and no
// exclude pattern does.
type Matcher struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewMatcher compiles include and exclude patterns with '/' as separator,
// so * stays within a directory and ** crosses them.
func NewMatcher(include, exclude []string) (*Matcher, error) {
	m := &Matcher{}
	var err error
	if m.include, err = compileGlobs(include, "include"); err != nil {
		return nil, err
	}
	if m.exclude, err = compileGlobs(exclude, "exclude"); err != nil {
		return nil, err
	}
	return m, nil
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// Match reports whether rel is selected.
func (m *Matcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, g := range m.exclude {
		if g.Match(rel) {
			return false
		}
	}
	for _, g := range m.include {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Discover walks srcDir and returns the matching units sorted by path.
// Hidden directories are skipped.
func Discover(srcDir string, m *Matcher) ([]Unit, error) {
	var units []Unit
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != srcDir && len(d.Name()) > 1 && d.Name()[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		unit, ok := newUnit(srcDir, path, m)
		if ok {
			units = append(units, unit)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", srcDir, err)
	}

	sort.Slice(units, func(i, j int) bool { return units[i].Rel < units[j].Rel })
	return units, nil
}

// newUnit returns the unit for path if it lies under srcDir and matches.
func newUnit(srcDir, path string, m *Matcher) (Unit, bool) {
	rel, err := filepath.Rel(srcDir, path)
	if err != nil || rel == ".." || filepath.IsAbs(rel) || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator) {
		return Unit{}, false
	}
	rel = filepath.ToSlash(rel)
	if !m.Match(rel) {
		return Unit{}, false
	}
	return Unit{Path: path, Rel: rel, Module: dag.ModulePath(rel)}, true
}
