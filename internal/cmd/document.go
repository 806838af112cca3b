package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"

	"github.com/summit58/camunda-spin"
	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/format"
	"github.com/summit58/camunda-spin/source/fs"
)

// document is a loaded input file.
type document struct {
	src    *fs.Source
	node   dataformat.Node
	format string
	opts   []spin.Option
}

// load reads path in the format named by --format, its extension or its
// content, in that order.
func (a *app) load(ctx context.Context, path string) (*document, error) {
	src := fs.New(path)
	raw, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}

	name := a.formatOf(path)
	if name == "" {
		f, err := dataformat.Default().ForInput(raw)
		if err != nil {
			return nil, err
		}
		name = f.Name()
	}
	opts, err := a.options(name)
	if err != nil {
		return nil, err
	}
	n, err := spin.FromBytes(raw, opts...)
	if err != nil {
		return nil, err
	}

	a.log().WithField("path", path).WithField("format", n.Format().Name()).Debug("loaded document")
	return &document{src: src, node: n, format: n.Format().Name(), opts: opts}, nil
}

func (a *app) formatOf(path string) string {
	if name := a.v.GetString(keyFormat); name != "" {
		return name
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return ""
	}
	if _, err := dataformat.Default().ByName(ext); err != nil {
		return ""
	}
	return ext
}

// options selects format name with a configuration built from the registry
// defaults, the formats section of the config file and --pretty.
func (a *app) options(name string) ([]spin.Option, error) {
	cfg, err := a.config(name)
	if err != nil {
		return nil, err
	}
	return []spin.Option{spin.WithFormat(name), spin.WithConfig(cfg)}, nil
}

func (a *app) config(name string) (dataformat.Config, error) {
	f, err := dataformat.Default().ByName(name)
	if err != nil {
		return nil, err
	}
	defaults, err := dataformat.Default().Defaults(f.Name())
	if err != nil {
		return nil, err
	}
	b, err := spin.Configure(f.Name())
	if err != nil {
		return nil, err
	}

	// Config file keys are case-insensitive.
	known := make(map[string]string)
	for option := range defaults.Options() {
		known[strings.ToLower(option)] = option
	}
	for key, value := range a.formatSettings(f.Name()) {
		option, ok := known[strings.ToLower(key)]
		if !ok {
			return nil, &dataformat.ConfigurationError{Format: f.Name(), Option: key, Reason: "unrecognized option"}
		}
		def, _ := defaults.Get(option)
		v, err := convertSetting(value, def)
		if err != nil {
			return nil, &dataformat.ConfigurationError{Format: f.Name(), Option: option, Reason: err.Error()}
		}
		b.Set(option, v)
	}

	if a.v.GetBool(keyPretty) {
		if _, ok := defaults.Get(format.OptPrettyPrint); ok {
			b.Set(format.OptPrettyPrint, true)
		}
	}
	return b.Done()
}

// formatSettings merges the config file entries for the name and aliases of
// the format.
func (a *app) formatSettings(name string) map[string]any {
	settings := make(map[string]any)
	for _, info := range spin.Formats() {
		if info.Name != name {
			continue
		}
		for _, key := range append([]string{info.Name}, info.Aliases...) {
			for k, v := range a.v.GetStringMap(keyFormats + "." + key) {
				settings[k] = v
			}
		}
	}
	return settings
}

// convertSetting coerces a config file value to the type of the option
// default. Values of other option types pass through unchanged.
func convertSetting(value, def any) (any, error) {
	switch def.(type) {
	case bool:
		return cast.ToBoolE(value)
	case int:
		return cast.ToIntE(value)
	case string:
		return cast.ToStringE(value)
	}
	return value, nil
}

// render returns the text shown for n: scalars print their plain value,
// containers their serialization.
func render(n dataformat.Node) (string, error) {
	switch {
	case n.IsNull():
		return "null", nil
	case n.IsValue():
		return fmt.Sprint(n.Value()), nil
	}
	raw, err := n.Marshal()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
