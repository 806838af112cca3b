// Package yaml provides the YAML data format, backed by gopkg.in/yaml.v3.
//
// Documents are decoded into generic trees and share the mapdoc node
// implementation with JSON. The format is selected by name ("yaml",
// "application/yaml") or by input starting with a "---" document marker.
package yaml

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/format"
	"github.com/summit58/camunda-spin/mapdoc"
)

// Name is the format identifier.
const Name = "application/yaml"

var schema = format.NewSchema(Name, append(format.MappingOptions(),
	format.Int(format.OptIndent, 2, 1),
)...)

// Format is the YAML data format.
var Format = format.NewTreeFormat(format.TreeConfig{
	Schema:       schema,
	Parse:        parse,
	Marshal:      marshal,
	MatchesInput: matchesInput,
})

func init() {
	dataformat.MustRegister(Format, dataformat.WithAlias("yaml", "yml"))
}

func parse(raw []byte, _ *format.Config) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	var root any
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, err
	}
	return root, nil
}

func marshal(w io.Writer, tree any, cfg *format.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(cfg.Int(format.OptIndent))
	if err := enc.Encode(tree); err != nil {
		return err
	}
	return enc.Close()
}

func matchesInput(raw []byte) bool {
	return format.HasPrefixWord(raw, "---") || format.HasPrefixWord(raw, "%YAML")
}

// Builder is the typed configuration builder of the YAML format.
type Builder struct {
	*format.Builder
}

// Configure returns a builder seeded with the built-in defaults.
func Configure() *Builder {
	return &Builder{Builder: schema.NewBuilder(nil)}
}

// Indent sets the number of spaces per nesting level.
func (b *Builder) Indent(spaces int) *Builder {
	b.Put(format.OptIndent, spaces)
	return b
}

// DateFormat sets the time.Time layout used when mapping.
func (b *Builder) DateFormat(layout string) *Builder {
	b.Put(format.OptDateFormat, layout)
	return b
}

// FailOnUnknownProperties rejects mapping keys without a matching field.
func (b *Builder) FailOnUnknownProperties(enabled bool) *Builder {
	b.Put(format.OptFailOnUnknownProperties, enabled)
	return b
}

// Parse reads YAML text with cfg, or the format defaults when cfg is nil.
func Parse(raw []byte, cfg dataformat.Config) (*mapdoc.Node, error) {
	n, err := Format.Parse(raw, cfg)
	if err != nil {
		return nil, err
	}
	return n.(*mapdoc.Node), nil
}
