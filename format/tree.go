package format

import (
	"bytes"
	"fmt"
	"io"
	"reflect"

	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/mapdoc"
	"github.com/summit58/camunda-spin/mapper"
)

// ParseFunc parses raw input into a generic tree. The result is normalized
// by the caller, so parsers may return whatever their library produces.
type ParseFunc func(raw []byte, cfg *Config) (any, error)

// MarshalFunc writes a normalized generic tree.
type MarshalFunc func(w io.Writer, tree any, cfg *Config) error

// TreeConfig describes a format whose documents are generic trees.
type TreeConfig struct {
	// Schema declares the recognized options. Required.
	Schema *Schema

	// Parse and Marshal read and write the format. Required.
	Parse   ParseFunc
	Marshal MarshalFunc

	// MatchesInput probes raw input. Default: never matches.
	MatchesInput func(raw []byte) bool

	// MatchesType probes native types. Default: never matches.
	MatchesType func(t reflect.Type) bool

	// Wrap converts nodes into the format's own node type. Optional.
	Wrap func(*mapdoc.Node) dataformat.Node
}

// TreeFormat implements dataformat.DataFormat on top of mapdoc nodes.
type TreeFormat struct {
	cfg TreeConfig
}

// Ensure TreeFormat implements the dataformat.DataFormat interface.
var _ dataformat.DataFormat = (*TreeFormat)(nil)

// NewTreeFormat creates a generic tree format.
//
// Example:
//
//	f := format.NewTreeFormat(format.TreeConfig{
//	    Schema:  format.NewSchema("application/yaml", format.MappingOptions()...),
//	    Parse:   parseYAML,
//	    Marshal: marshalYAML,
//	})
func NewTreeFormat(cfg TreeConfig) *TreeFormat {
	if cfg.Schema == nil || cfg.Parse == nil || cfg.Marshal == nil {
		panic("format: TreeConfig requires Schema, Parse and Marshal")
	}
	return &TreeFormat{cfg: cfg}
}

// Name implements dataformat.DataFormat.
func (f *TreeFormat) Name() string {
	return f.cfg.Schema.Format()
}

// Schema returns the option schema of the format.
func (f *TreeFormat) Schema() *Schema {
	return f.cfg.Schema
}

// DefaultConfig implements dataformat.DataFormat.
func (f *TreeFormat) DefaultConfig() dataformat.Config {
	return f.cfg.Schema.Defaults()
}

// NewBuilder implements dataformat.DataFormat.
func (f *TreeFormat) NewBuilder(base dataformat.Config) dataformat.Builder {
	return f.cfg.Schema.NewBuilder(base)
}

// MatchesInput implements dataformat.DataFormat.
func (f *TreeFormat) MatchesInput(raw []byte) bool {
	return f.cfg.MatchesInput != nil && f.cfg.MatchesInput(raw)
}

// MatchesType implements dataformat.DataFormat.
func (f *TreeFormat) MatchesType(t reflect.Type) bool {
	return f.cfg.MatchesType != nil && f.cfg.MatchesType(t)
}

// Parse implements dataformat.DataFormat.
func (f *TreeFormat) Parse(raw []byte, cfg dataformat.Config) (dataformat.Node, error) {
	c, err := f.cfg.Schema.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	tree, err := f.cfg.Parse(raw, c)
	if err != nil {
		return nil, dataformat.NewParseError(f.Name(), raw, err)
	}
	return f.newNode(tree, c)
}

// CreateEmpty implements dataformat.DataFormat.
func (f *TreeFormat) CreateEmpty(cfg dataformat.Config) (dataformat.Node, error) {
	c, err := f.cfg.Schema.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	return f.newNode(map[string]any{}, c)
}

// Serialize implements dataformat.DataFormat. Nodes of other formats are
// written from their Value with this format's defaults.
func (f *TreeFormat) Serialize(n dataformat.Node, w io.Writer) error {
	c := f.configOf(n)
	var tree any
	if t, ok := n.(interface{ Tree() any }); ok && n.Format() == f {
		tree = t.Tree()
	} else {
		tree = n.Value()
	}
	if err := f.cfg.Marshal(w, tree, c); err != nil {
		return fmt.Errorf("%s: serialize: %w", f.Name(), err)
	}
	return nil
}

// MapToNative implements dataformat.DataFormat.
func (f *TreeFormat) MapToNative(n dataformat.Node, target any) error {
	var tree any
	if t, ok := n.(interface{ Tree() any }); ok {
		tree = t.Tree()
	} else {
		tree = n.Value()
	}
	if err := mapper.Decode(tree, target, f.configOf(n).Mapping()); err != nil {
		return &dataformat.MappingError{Format: f.Name(), Type: fmt.Sprintf("%T", target), Err: err}
	}
	return nil
}

// MapFromNative implements dataformat.DataFormat.
func (f *TreeFormat) MapFromNative(v any, cfg dataformat.Config) (dataformat.Node, error) {
	c, err := f.cfg.Schema.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	tree, err := mapper.Encode(v, c.Mapping())
	if err != nil {
		return nil, &dataformat.MappingError{Format: f.Name(), Type: fmt.Sprintf("%T", v), Err: err}
	}
	return f.wrap(mapdoc.New(f, c, tree, mapdoc.WithMapping(c.Mapping()), mapdoc.WithWrap(f.cfg.Wrap))), nil
}

// CanonicalTypeName implements dataformat.DataFormat using the default
// type registry.
func (f *TreeFormat) CanonicalTypeName(v any) string {
	return f.cfg.Schema.Defaults().Types().CanonicalNameOf(v)
}

// Marshal writes tree with cfg. It is a convenience for formats that need
// serialized bytes outside of a node.
func (f *TreeFormat) Marshal(tree any, cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.cfg.Marshal(&buf, tree, cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *TreeFormat) newNode(tree any, c *Config) (dataformat.Node, error) {
	normalized, err := mapper.Encode(tree, c.Mapping())
	if err != nil {
		return nil, &dataformat.MappingError{Format: f.Name(), Err: err}
	}
	return f.wrap(mapdoc.New(f, c, normalized, mapdoc.WithMapping(c.Mapping()), mapdoc.WithWrap(f.cfg.Wrap))), nil
}

func (f *TreeFormat) wrap(n *mapdoc.Node) dataformat.Node {
	if f.cfg.Wrap != nil {
		return f.cfg.Wrap(n)
	}
	return n
}

// configOf returns n's configuration when it belongs to this format, and
// the defaults otherwise.
func (f *TreeFormat) configOf(n dataformat.Node) *Config {
	if c, err := f.cfg.Schema.Resolve(n.Config()); err == nil && n.Config() != nil {
		return c
	}
	return f.cfg.Schema.Defaults()
}
