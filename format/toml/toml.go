// Package toml provides the TOML data format, backed by
// github.com/pelletier/go-toml/v2.
//
// TOML documents are always tables and have no null value. Date and time
// values are converted to text when a document is read. The format is only
// selected by name ("toml", "application/toml").
package toml

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"

	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/format"
	"github.com/summit58/camunda-spin/mapdoc"
)

// Name is the format identifier.
const Name = "application/toml"

// OptIndentTables indents the contents of nested tables.
const OptIndentTables = "indentTables"

var schema = format.NewSchema(Name, append(format.MappingOptions(),
	format.Bool(OptIndentTables, false),
)...)

// Format is the TOML data format.
var Format = format.NewTreeFormat(format.TreeConfig{
	Schema:  schema,
	Parse:   parse,
	Marshal: marshal,
})

func init() {
	dataformat.MustRegister(Format, dataformat.WithAlias("toml"), dataformat.WithPriority(-10))
}

func parse(raw []byte, _ *format.Config) (any, error) {
	root := map[string]any{}
	if err := toml.Unmarshal(raw, &root); err != nil {
		return nil, err
	}
	return root, nil
}

func marshal(w io.Writer, tree any, cfg *format.Config) error {
	if _, ok := tree.(map[string]any); !ok {
		return fmt.Errorf("document root must be a table, got %s", mapdoc.KindOf(tree))
	}
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(cfg.Bool(OptIndentTables))
	return enc.Encode(tree)
}

// Builder is the typed configuration builder of the TOML format.
type Builder struct {
	*format.Builder
}

// Configure returns a builder seeded with the built-in defaults.
func Configure() *Builder {
	return &Builder{Builder: schema.NewBuilder(nil)}
}

// IndentTables indents the contents of nested tables.
func (b *Builder) IndentTables(enabled bool) *Builder {
	b.Put(OptIndentTables, enabled)
	return b
}

// DateFormat sets the time.Time layout used when mapping.
func (b *Builder) DateFormat(layout string) *Builder {
	b.Put(format.OptDateFormat, layout)
	return b
}

// Parse reads TOML text with cfg, or the format defaults when cfg is nil.
func Parse(raw []byte, cfg dataformat.Config) (*mapdoc.Node, error) {
	n, err := Format.Parse(raw, cfg)
	if err != nil {
		return nil, err
	}
	return n.(*mapdoc.Node), nil
}
