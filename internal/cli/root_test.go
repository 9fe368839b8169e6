package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tasty/internal/cli/commands"
	"github.com/leapstack-labs/tasty/internal/cli/testutil"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCmd_Flags(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{
		"config", "project-dir", "src-dir", "out-dir", "header-ext", "pragma-once",
		"include", "exclude", "builtins", "cache", "no-cache", "jobs", "verbose", "output",
	} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "flag %q should exist", name)
	}

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"build", "emit", "symbols", "deps", "watch", "clean", "init", "doctor", "version", "completion"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_Build(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	out := filepath.Join(t.TempDir(), "gen")

	stdout, _, err := run(t, "--project-dir", dir, "--out-dir", out, "--header-ext", ".h", "--no-cache", "-o", "json", "build")
	require.NoError(t, err)

	var report commands.BuildOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, 2, report.Built)
	assert.Empty(t, report.RunID)
	assert.FileExists(t, filepath.Join(out, "util", "math.h"))
	assert.NoFileExists(t, filepath.Join(dir, ".tasty", "cache.db"))
}

func TestRootCmd_EnvOverrides(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Setenv("TASTY_PRAGMA_ONCE", "true")
	t.Setenv("TASTY_OUTPUT", "text")

	stdout, _, err := run(t, "--project-dir", dir, "emit", filepath.Join(dir, "src", "util", "math.tasty"), "--header")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "#pragma once\n"), stdout)
	assert.Contains(t, stdout, "int twice(int n);")
	assert.NotContains(t, stdout, "#ifndef")
}

func TestRootCmd_Errors(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad output", []string{"--project-dir", dir, "-o", "yaml", "build"}, "unknown output format"},
		{"bad header ext", []string{"--project-dir", dir, "--header-ext", "hpp", "build"}, "header_ext must start with a dot"},
		{"missing config", []string{"--config", filepath.Join(dir, "nope.yaml"), "build"}, "nope.yaml"},
		{"missing src", []string{"--project-dir", dir, "--src-dir", filepath.Join(dir, "absent"), "build"}, "source directory does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestCompletionCommand(t *testing.T) {
	stdout, _, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "tasty")

	_, _, err = run(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestVersionFlag(t *testing.T) {
	stdout, _, err := run(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "tasty "+Version+"\nTasty to C++ transpiler built with Go\n", stdout)
}
