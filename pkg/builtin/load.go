package builtin

import (
	_ "embed"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

//go:embed builtins.yaml
var defaultYAML []byte

// keyDelim separates koanf key paths. Table keys contain dots (std.vector),
// so the dot cannot be the delimiter.
const keyDelim = "/"

// LoadOptions configures Load.
type LoadOptions struct {
	// Overlays are merged over the embedded table in order. Files ending in
	// .star are executed as Starlark; anything else is parsed as YAML.
	Overlays []string
	Logger   *slog.Logger
}

var defaultTable = sync.OnceValues(func() (*Table, error) {
	return Load(LoadOptions{})
})

// Default returns the embedded table. It is built on first use and shared.
func Default() *Table {
	t, err := defaultTable()
	if err != nil {
		panic(fmt.Sprintf("builtin: embedded table is invalid: %v", err))
	}
	return t
}

// Load builds a table from the embedded defaults plus any overlays.
func Load(opts LoadOptions) (*Table, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	k := koanf.New(keyDelim)

	var base map[string]any
	if err := yaml.Unmarshal(defaultYAML, &base); err != nil {
		return nil, fmt.Errorf("failed to decode embedded builtins: %w", err)
	}
	if err := k.Load(confmap.Provider(base, keyDelim), nil); err != nil {
		return nil, fmt.Errorf("failed to load embedded builtins: %w", err)
	}

	for _, path := range opts.Overlays {
		logger.Debug("loading builtin overlay", "path", path)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".star":
			overlay, err := execStarlark(path)
			if err != nil {
				return nil, err
			}
			if err := k.Load(confmap.Provider(overlay, keyDelim), nil); err != nil {
				return nil, fmt.Errorf("failed to merge %s: %w", path, err)
			}
		default:
			if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to read builtin overlay %s: %w", path, err)
			}
		}
	}

	var spec tableSpec
	if err := k.UnmarshalWithConf("", &spec, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unable to decode builtin table: %w", err)
	}
	return newTable(&spec)
}
