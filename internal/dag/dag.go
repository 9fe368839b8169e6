// Package dag models import and derive edges between the units of a project.
// It reports cycles, dependency levels and the units affected by a change.
package dag

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// Node is one compilation unit.
type Node struct {
	// ID is the module path, e.g. util.math for util/math.tasty.
	ID string
	// File is the source path the unit was read from.
	File string
}

// CycleError reports an import cycle as the module path walked, with the
// first module repeated at the end.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("import cycle: %s", strings.Join(e.Path, " -> "))
}

// Graph is a directed graph where an edge runs from an imported unit to the
// unit importing it.
type Graph struct {
	nodes    map[string]*Node
	edges    map[string][]string // imported -> importers
	parents  map[string][]string // importer -> imported
	external map[string][]string // importer -> imports with no unit in the project
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		edges:    make(map[string][]string),
		parents:  make(map[string][]string),
		external: make(map[string][]string),
	}
}

// ModulePath converts a source path relative to the source root into the
// dotted module path used by import: util/math.tasty becomes util.math.
func ModulePath(rel string) string {
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".tasty")
	return strings.ReplaceAll(rel, "/", ".")
}

// AddNode adds a unit. Adding an existing ID updates its file.
func (g *Graph) AddNode(id, file string) {
	if n, exists := g.nodes[id]; exists {
		n.File = file
		return
	}
	g.nodes[id] = &Node{ID: id, File: file}
	g.edges[id] = []string{}
	g.parents[id] = []string{}
}

// AddImport records that importer imports (or derives) imported. Imports
// of modules outside the graph are kept as external references.
func (g *Graph) AddImport(importer, imported string) error {
	if _, exists := g.nodes[importer]; !exists {
		return fmt.Errorf("unit %q does not exist", importer)
	}
	if _, exists := g.nodes[imported]; !exists {
		if !slices.Contains(g.external[importer], imported) {
			g.external[importer] = append(g.external[importer], imported)
		}
		return nil
	}
	if importer == imported {
		return &CycleError{Path: []string{importer, importer}}
	}

	if !slices.Contains(g.edges[imported], importer) {
		g.edges[imported] = append(g.edges[imported], importer)
	}
	if !slices.Contains(g.parents[importer], imported) {
		g.parents[importer] = append(g.parents[importer], imported)
	}
	return nil
}

// Node returns a unit by ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Imports returns the in-project units id imports, sorted.
func (g *Graph) Imports(id string) []string {
	return sortedCopy(g.parents[id])
}

// Importers returns the units importing id, sorted.
func (g *Graph) Importers(id string) []string {
	return sortedCopy(g.edges[id])
}

// External returns the imports of id that name no unit in the project.
func (g *Graph) External(id string) []string {
	return sortedCopy(g.external[id])
}

// Nodes returns all units sorted by ID.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// NodeCount returns the number of units.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of in-project import edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, importers := range g.edges {
		count += len(importers)
	}
	return count
}

// Cycle returns the first import cycle found, or nil. IDs are visited in
// sorted order so the reported cycle is stable.
func (g *Graph) Cycle() []string {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var stack []string
	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		onStack[id] = true
		stack = append(stack, id)

		for _, next := range g.Imports(id) {
			if onStack[next] {
				start := slices.Index(stack, next)
				cycle = append(slices.Clone(stack[start:]), next)
				return true
			}
			if !visited[next] && dfs(next) {
				return true
			}
		}

		stack = stack[:len(stack)-1]
		onStack[id] = false
		return false
	}

	for _, n := range g.Nodes() {
		if !visited[n.ID] && dfs(n.ID) {
			return cycle
		}
	}
	return nil
}

// Order returns units with every import before its importers.
func (g *Graph) Order() ([]*Node, error) {
	if cycle := g.Cycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}

	visited := make(map[string]bool)
	var result []*Node

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, parent := range g.Imports(id) {
			visit(parent)
		}
		result = append(result, g.nodes[id])
	}

	for _, n := range g.Nodes() {
		visit(n.ID)
	}
	return result, nil
}

// Levels groups units by depth. Level 0 imports nothing in the project;
// level N imports only units of lower levels.
func (g *Graph) Levels() ([][]string, error) {
	if cycle := g.Cycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}

	assigned := make(map[string]int)
	var level func(id string) int
	level = func(id string) int {
		if l, ok := assigned[id]; ok {
			return l
		}
		l := 0
		for _, parent := range g.parents[id] {
			if pl := level(parent) + 1; pl > l {
				l = pl
			}
		}
		assigned[id] = l
		return l
	}

	var levels [][]string
	for id := range g.nodes {
		l := level(id)
		for len(levels) <= l {
			levels = append(levels, []string{})
		}
	}
	for id, l := range assigned {
		levels[l] = append(levels[l], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Affected returns the changed units plus everything importing them,
// directly or transitively.
func (g *Graph) Affected(changed []string) []string {
	affected := make(map[string]bool)

	var mark func(id string)
	mark = func(id string) {
		if affected[id] {
			return
		}
		affected[id] = true
		for _, importer := range g.edges[id] {
			mark(importer)
		}
	}

	for _, id := range changed {
		if _, exists := g.nodes[id]; exists {
			mark(id)
		}
	}

	result := make([]string, 0, len(affected))
	for id := range affected {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

func sortedCopy(s []string) []string {
	out := slices.Clone(s)
	sort.Strings(out)
	return out
}
