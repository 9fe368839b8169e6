package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("project-dir", "", "")
	flags.String("src-dir", "", "")
	flags.String("out-dir", "", "")
	flags.String("cache", "", "")
	flags.StringSlice("include", nil, "")
	flags.Bool("pragma-once", false, "")
	flags.IntP("jobs", "j", 0, "")
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	flags := testFlags()
	require.NoError(t, flags.Set("project-dir", dir))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	root, _ := filepath.Abs(dir)
	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Empty(t, cfg.File)
	assert.Equal(t, filepath.Join(root, DefaultSrcDir), cfg.SrcDir)
	assert.Equal(t, filepath.Join(root, DefaultOutDir), cfg.OutDir)
	assert.Equal(t, filepath.Join(root, DefaultCachePath), cfg.CachePath)
	assert.Equal(t, DefaultHeaderExt, cfg.HeaderExt)
	assert.Equal(t, []string{DefaultInclude}, cfg.Include)
	assert.Empty(t, cfg.Exclude)
	assert.False(t, cfg.PragmaOnce)
	assert.Zero(t, cfg.Jobs)
	assert.Equal(t, DefaultOutput, cfg.Output)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `src_dir: lib
out_dir: gen
header_ext: .h
pragma_once: true
include:
  - "app/**.tasty"
exclude:
  - "**_test.tasty"
builtins:
  - qt.yaml
jobs: 3
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	root := filepath.Dir(path)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, filepath.Join(root, "lib"), cfg.SrcDir)
	assert.Equal(t, filepath.Join(root, "gen"), cfg.OutDir)
	assert.Equal(t, ".h", cfg.HeaderExt)
	assert.True(t, cfg.PragmaOnce)
	assert.Equal(t, []string{"app/**.tasty"}, cfg.Include)
	assert.Equal(t, []string{"**_test.tasty"}, cfg.Exclude)
	assert.Equal(t, []string{filepath.Join(root, "qt.yaml")}, cfg.Builtins)
	assert.Equal(t, 3, cfg.Jobs)
}

func TestLoad_FoundInProjectDir(t *testing.T) {
	path := writeConfig(t, "out_dir: gen\n")
	flags := testFlags()
	require.NoError(t, flags.Set("project-dir", filepath.Dir(path)))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "gen"), cfg.OutDir)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, "header_ext: .hh\njobs: 2\ninclude: [\"a/**.tasty\"]\n")

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("TASTY_JOBS", "5")
		t.Setenv("TASTY_INCLUDE", "x/**.tasty,y/**.tasty")

		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Jobs)
		assert.Equal(t, []string{"x/**.tasty", "y/**.tasty"}, cfg.Include)
		assert.Equal(t, ".hh", cfg.HeaderExt)
	})

	t.Run("flag overrides env", func(t *testing.T) {
		t.Setenv("TASTY_JOBS", "5")
		flags := testFlags()
		require.NoError(t, flags.Set("jobs", "7"))

		cfg, err := Load(path, flags)
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.Jobs)
	})

	t.Run("unset flag falls back to env", func(t *testing.T) {
		t.Setenv("TASTY_JOBS", "5")

		cfg, err := Load(path, testFlags())
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Jobs)
	})
}

func TestLoad_PathFlagsResolveAgainstWorkingDir(t *testing.T) {
	path := writeConfig(t, "src_dir: lib\n")
	flags := testFlags()
	require.NoError(t, flags.Set("out-dir", "out"))
	require.NoError(t, flags.Set("cache", "cache.db"))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "out"), cfg.OutDir)
	assert.Equal(t, filepath.Join(cwd, "cache.db"), cfg.CachePath)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "lib"), cfg.SrcDir)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"bad header ext", "header_ext: hpp\n", "header_ext"},
		{"negative jobs", "jobs: -1\n", "jobs"},
		{"bad pattern", "include: [\"src/[a\"]\n", "invalid pattern"},
		{"bad yaml", "src_dir: [\n", "error reading config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
		require.Error(t, err)
	})
}

func TestFindProjectRoot(t *testing.T) {
	path := writeConfig(t, "")
	root := filepath.Dir(path)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, root, FindProjectRoot(nested))
	assert.Equal(t, root, FindProjectRoot(root))
	assert.Empty(t, FindProjectRoot(t.TempDir()))
}

func TestValidateDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{SrcDir: dir}
	assert.NoError(t, cfg.ValidateDirectories())

	cfg.SrcDir = filepath.Join(dir, "missing")
	err := cfg.ValidateDirectories()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--src-dir")
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := GetLogger(WithLogger(context.Background(), nil))
	assert.NotNil(t, logger, "nil logger falls back to discard")
}

func TestFromContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	cfg := &Config{SrcDir: "src"}
	assert.Same(t, cfg, FromContext(WithConfig(context.Background(), cfg)))
}
