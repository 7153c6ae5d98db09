package logging

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"proposal-autofill/internal/logging/adapters"
	"proposal-autofill/internal/logging/types"
)

// AdapterSpec is one entry of the `logging.adapters` config list
type AdapterSpec struct {
	Name    string
	Type    string
	Options map[string]interface{}
}

type adapterBuilder func(spec AdapterSpec) (types.LogAdapter, error)

var builders = map[string]adapterBuilder{
	"stdout": func(spec AdapterSpec) (types.LogAdapter, error) {
		return adapters.NewStdoutAdapter(spec.Name, adapters.StdoutConfig{
			Format:    stringOpt(spec.Options, "format", "json"),
			Colorized: boolOpt(spec.Options, "colorized", false),
		}), nil
	},
	"stderr": func(spec AdapterSpec) (types.LogAdapter, error) {
		return adapters.NewWriterAdapter(spec.Name, os.Stderr, stringOpt(spec.Options, "format", "text")), nil
	},
	"file": func(spec AdapterSpec) (types.LogAdapter, error) {
		path := stringOpt(spec.Options, "file_path", "")
		if path == "" {
			return nil, fmt.Errorf("file_path is required for file adapter")
		}
		return adapters.NewFileAdapter(spec.Name, adapters.FileConfig{
			FilePath:   path,
			Format:     stringOpt(spec.Options, "format", "json"),
			CreateDirs: boolOpt(spec.Options, "create_dirs", true),
		})
	},
}

// BuildAdapter creates the adapter a spec names. An optional "level"
// option restricts the adapter to entries at or above that level.
func BuildAdapter(spec AdapterSpec) (types.LogAdapter, error) {
	build, ok := builders[spec.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported adapter type: %s", spec.Type)
	}
	adapter, err := build(spec)
	if err != nil {
		return nil, err
	}
	if lvl := stringOpt(spec.Options, "level", ""); lvl != "" {
		return &leveled{LogAdapter: adapter, min: ParseLogLevel(lvl)}, nil
	}
	return adapter, nil
}

type leveled struct {
	types.LogAdapter
	min logrus.Level
}

func (l *leveled) Levels() []logrus.Level {
	var out []logrus.Level
	for _, lvl := range logrus.AllLevels {
		if lvl <= l.min {
			out = append(out, lvl)
		}
	}
	return out
}

func stringOpt(options map[string]interface{}, key, def string) string {
	if s, ok := options[key].(string); ok {
		return s
	}
	return def
}

func boolOpt(options map[string]interface{}, key string, def bool) bool {
	if b, ok := options[key].(bool); ok {
		return b
	}
	return def
}
