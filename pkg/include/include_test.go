package include_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tasty/pkg/attribute"
	"github.com/leapstack-labs/tasty/pkg/include"
	"github.com/leapstack-labs/tasty/pkg/parser"
	"github.com/leapstack-labs/tasty/pkg/resolve"
)

func collect(t *testing.T, src string, opts include.Options) include.Lists {
	t.Helper()
	file, err := parser.ParseFile("test.tasty", src, nil)
	require.NoError(t, err)
	info, err := resolve.Resolve(file, nil)
	require.NoError(t, err)
	require.NoError(t, attribute.Expand(file, info))
	return include.Collect(file, info, nil, opts)
}

func directives(es []include.Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Directive()
	}
	return out
}

func TestCollect_Explicit(t *testing.T) {
	src := `include iostream;
include local "widget.h";
contain system cstdio;
import util.math;
derive util.impl;`
	lists := collect(t, src, include.Options{})
	assert.Equal(t, []string{
		"#include <iostream>",
		`#include "widget.h"`,
		`#include "util/math.hpp"`,
	}, directives(lists.Header))
	assert.Equal(t, []string{
		"#include <cstdio>",
		`#include "util/impl.hpp"`,
	}, directives(lists.Source))
}

func TestCollect_HeaderExt(t *testing.T) {
	lists := collect(t, "import util.math;", include.Options{HeaderExt: ".h"})
	assert.Equal(t, []string{`#include "util/math.h"`}, directives(lists.Header))
}

func TestCollect_Implied(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		header []string
		source []string
	}{
		{
			name:   "name in body goes to source",
			src:    `fn main() { std.cout << "hi"; }`,
			source: []string{"#include <iostream>"},
		},
		{
			name:   "tuple literal in body",
			src:    `fn main() { copy t = (1, 2); }`,
			source: []string{"#include <tuple>"},
		},
		{
			name:   "tuple parameter is header visible",
			src:    `fn show(borrow t: (int, text)) { }`,
			header: []string{"#include <tuple>"},
		},
		{
			name:   "smart storage",
			src:    `fn main() { autoptr l = new std.list(2, 4); uniqueptr u = new Widget(); }`,
			source: []string{"#include <memory>", "#include <list>"},
		},
		{
			name:   "nested pointer uses shared_ptr",
			src:    `fn main() { ptr2 p = new Widget(); }`,
			source: []string{"#include <memory>"},
		},
		{
			name:   "move parameter",
			src:    `fn take(move v: std.vector<int>);`,
			header: []string{"#include <utility>", "#include <vector>"},
		},
		{
			name:   "function type field",
			src:    `class Button { copy onClick: fn(int) -> bool; }`,
			header: []string{"#include <functional>"},
		},
		{
			name:   "primitive with header",
			src:    `fn count() -> size_t { return 0; }`,
			header: []string{"#include <cstddef>"},
		},
		{
			name:   "nested namespace prefix",
			src:    `fn main() { std.this_thread.sleep_for(std.chrono.seconds(1)); }`,
			source: []string{"#include <chrono>"},
		},
		{
			name:   "global initializer is source only",
			src:    "copy names: std.vector<std.string>;\ncopy greeting = std.to_string(1);",
			header: []string{"#include <vector>", "#include <string>"},
		},
		{
			name:   "header use wins over earlier source use",
			src:    "fn a() { copy s = std.string(); }\nfn b(copy s: std.string);",
			header: []string{"#include <string>"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lists := collect(t, tt.src, include.Options{})
			assert.Equal(t, tt.header, nilIfEmpty(directives(lists.Header)), "header")
			assert.Equal(t, tt.source, nilIfEmpty(directives(lists.Source)), "source")
		})
	}
}

func TestCollect_LocalNamesDoNotImply(t *testing.T) {
	src := `namespace std2 { fn cout() { } }
class vector { }
fn main() { copy v = vector(); std2.cout(); }`
	lists := collect(t, src, include.Options{})
	assert.Empty(t, lists.Header)
	assert.Empty(t, lists.Source)
}

func TestCollect_AttributeIncludes(t *testing.T) {
	src := `attribute Qt() { @RequireInclude("QObject", local); }
attribute Hidden() { @NoHeader; @RequireInclude(vector); }
@Qt class A { }
@Hidden fn helper() { }`
	lists := collect(t, src, include.Options{})
	assert.Equal(t, []string{`#include "QObject"`}, directives(lists.Header))
	assert.Equal(t, []string{"#include <vector>"}, directives(lists.Source))
}

func TestManager_Dedupe(t *testing.T) {
	m := include.NewManager()
	m.Add(include.Entry{Path: "vector"}, false)
	m.Add(include.Entry{Path: "string"}, true)
	m.Add(include.Entry{Path: "vector"}, false)
	m.Add(include.Entry{Path: "map"}, false)
	m.Add(include.Entry{Path: "vector"}, true)
	m.Add(include.Entry{Path: "string"}, false)
	m.Add(include.Entry{Path: ""}, true)

	lists := m.Lists()
	assert.Equal(t, []include.Entry{{Path: "string"}, {Path: "vector"}}, lists.Header)
	assert.Equal(t, []include.Entry{{Path: "map"}}, lists.Source)
}

func TestModuleHeader(t *testing.T) {
	assert.Equal(t, "util/math.hpp", include.ModuleHeader("util.math", ""))
	assert.Equal(t, "gfx.h", include.ModuleHeader("gfx", ".h"))
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
