package builtin

import (
	"fmt"
	"os"

	"go.starlark.net/starlark"
)

// overlayGlobals are the Starlark globals read from an overlay script.
var overlayGlobals = []string{"primitives", "namespaces", "includes", "features", "operators"}

// execStarlark runs a .star overlay and returns its table sections.
//
// A script may compute its entries, e.g.
//
//	_qt = ["QLineEdit", "QWidget", "QString"]
//	includes = {name: name for name in _qt}
//	namespaces = ["Qt"]
func execStarlark(path string) (map[string]any, error) {
	content, err := os.ReadFile(path) //nolint:gosec // overlay paths come from project config
	if err != nil {
		return nil, &TableError{Source: path, Key: "-", Message: fmt.Sprintf("failed to read file: %v", err)}
	}

	thread := &starlark.Thread{
		Name:  "builtin:" + path,
		Print: func(_ *starlark.Thread, _ string) {},
	}
	globals, err := starlark.ExecFile(thread, path, content, nil) //nolint:staticcheck // SA1019: ExecFileOptions migration pending upstream
	if err != nil {
		return nil, &TableError{Source: path, Key: "-", Message: fmt.Sprintf("starlark execution error: %v", err)}
	}

	out := make(map[string]any)
	for _, name := range overlayGlobals {
		v, ok := globals[name]
		if !ok {
			continue
		}
		gv, err := toGo(v)
		if err != nil {
			return nil, &TableError{Source: path, Key: name, Message: err.Error()}
		}
		// namespaces may be written as a list of names
		if list, isList := gv.([]any); isList && name == "namespaces" {
			set := make(map[string]any, len(list))
			for _, item := range list {
				s, isStr := item.(string)
				if !isStr {
					return nil, &TableError{Source: path, Key: name, Message: fmt.Sprintf("namespace must be a string, got %T", item)}
				}
				set[s] = true
			}
			gv = set
		}
		if _, isMap := gv.(map[string]any); !isMap {
			return nil, &TableError{Source: path, Key: name, Message: fmt.Sprintf("expected a dict, got %s", v.Type())}
		}
		out[name] = gv
	}
	return out, nil
}

// toGo converts a Starlark value to plain Go values.
func toGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.String:
		return string(val), nil
	case starlark.Int:
		i64, ok := val.Int64()
		if !ok {
			return nil, fmt.Errorf("integer out of range: %s", val.String())
		}
		return i64, nil
	case starlark.Bool:
		return bool(val), nil
	case *starlark.List:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := toGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil
	case starlark.Tuple:
		result := make([]any, len(val))
		for i, item := range val {
			gv, err := toGo(item)
			if err != nil {
				return nil, fmt.Errorf("tuple index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil
	case *starlark.Dict:
		result := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be string, got %s", item[0].Type())
			}
			gv, err := toGo(item[1])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", string(key), err)
			}
			result[string(key)] = gv
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %s", v.Type())
	}
}
