// Package config provides project configuration for the tasty command.
//
// Settings are layered, lowest to highest priority: built-in defaults,
// tasty.yaml, TASTY_ environment variables and explicitly set flags.
package config

// Config holds every setting the build driver and commands read.
type Config struct {
	// SrcDir is the tree scanned for .tasty files.
	SrcDir string `koanf:"src_dir"`
	// OutDir receives the generated header/source pairs, mirroring SrcDir.
	OutDir     string `koanf:"out_dir"`
	HeaderExt  string `koanf:"header_ext"`
	PragmaOnce bool   `koanf:"pragma_once"`

	// Include and Exclude are glob patterns matched against paths
	// relative to SrcDir.
	Include []string `koanf:"include"`
	Exclude []string `koanf:"exclude"`

	// Builtins lists overlay files (.yaml or .star) for the built-in table.
	Builtins []string `koanf:"builtins"`

	CachePath string `koanf:"cache_path"`
	NoCache   bool   `koanf:"no_cache"`

	// Jobs bounds parallel transpilation. Zero means GOMAXPROCS.
	Jobs    int  `koanf:"jobs"`
	Verbose bool `koanf:"verbose"`
	// Output is the report format: auto, text, markdown or json.
	Output string `koanf:"output"`

	// ProjectRoot is where relative paths are anchored. Not read from config.
	ProjectRoot string `koanf:"-"`
	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultSrcDir    = "src"
	DefaultOutDir    = "build"
	DefaultHeaderExt = ".hpp"
	DefaultCachePath = ".tasty/cache.db"
	DefaultInclude   = "**.tasty"
	DefaultOutput    = "auto"
)
