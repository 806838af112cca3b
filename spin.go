// Package spin is the entry point for reading, writing and mapping
// structured data in any registered data format.
//
// Importing spin registers the built-in formats (JSON, XML, YAML and TOML)
// with the default registry. Input is routed to a format either by name
// (WithFormat) or by probing: raw text goes to the highest-priority format
// whose MatchesInput accepts it, and native values go to the first format
// whose MatchesType accepts their type.
//
//	n, err := spin.FromText(`{"customer":{"name":"Ada"}}`)
//	name, err := n.At("/customer/name")
//
// Text and native values have separate entry points. The overloaded S,
// JSON and XML helpers treat strings, []byte and io.Reader values as raw
// text in the target format and everything else as a native value, so
//
//	spin.JSON(true)        // the JSON literal true
//	spin.JSON("a String")  // *dataformat.ParseError: not JSON text
//
// Use FromNative to wrap a string as a value.
package spin

import (
	"fmt"
	"io"
	"reflect"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/format/json"
	_ "github.com/summit58/camunda-spin/format/toml"
	"github.com/summit58/camunda-spin/format/xml"
	_ "github.com/summit58/camunda-spin/format/yaml"
	"github.com/summit58/camunda-spin/internal/logging"
)

// Option configures a single facade call.
type Option func(*options)

type options struct {
	format   string
	config   dataformat.Config
	registry *dataformat.Registry
}

// WithFormat selects the format by name or alias instead of probing.
func WithFormat(name string) Option {
	return func(o *options) {
		o.format = name
	}
}

// WithConfig applies cfg to this call and to every node derived from its
// result. When no format is named, the format of cfg is used.
func WithConfig(cfg dataformat.Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithRegistry resolves formats in r instead of the default registry.
func WithRegistry(r *dataformat.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

func newOptions(opts []Option) *options {
	o := &options{registry: dataformat.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) named() string {
	if o.format != "" {
		return o.format
	}
	if o.config != nil {
		return o.config.Format()
	}
	return ""
}

// resolve picks the format with probe when no format is named, and the
// configuration to apply.
func (o *options) resolve(probe func(*dataformat.Registry) (dataformat.DataFormat, error)) (dataformat.DataFormat, dataformat.Config, error) {
	var (
		f   dataformat.DataFormat
		err error
	)
	if name := o.named(); name != "" {
		f, err = o.registry.ByName(name)
	} else {
		f, err = probe(o.registry)
	}
	if err != nil {
		return nil, nil, err
	}

	if o.config != nil {
		if o.config.Format() != f.Name() {
			return nil, nil, &dataformat.ConfigurationError{
				Format: f.Name(),
				Reason: fmt.Sprintf("configuration belongs to format %s", o.config.Format()),
			}
		}
		return f, o.config, nil
	}
	cfg, err := o.registry.Defaults(f.Name())
	if err != nil {
		return nil, nil, err
	}
	return f, cfg, nil
}

func log() *logrus.Entry {
	return logging.For("spin")
}

// FromText parses text.
func FromText(text string, opts ...Option) (dataformat.Node, error) {
	return FromBytes([]byte(text), opts...)
}

// FromBytes parses raw.
func FromBytes(raw []byte, opts ...Option) (dataformat.Node, error) {
	o := newOptions(opts)
	f, cfg, err := o.resolve(func(r *dataformat.Registry) (dataformat.DataFormat, error) {
		return r.ForInput(raw)
	})
	if err != nil {
		return nil, err
	}
	log().WithFields(logrus.Fields{"format": f.Name(), "bytes": len(raw)}).Debug("parsing input")
	return f.Parse(raw, cfg)
}

// FromReader reads r to the end and parses the result.
func FromReader(r io.Reader, opts ...Option) (dataformat.Node, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return FromBytes(raw, opts...)
}

// FromNative converts v into a tree. Strings are wrapped as values, never
// parsed.
func FromNative(v any, opts ...Option) (dataformat.Node, error) {
	o := newOptions(opts)
	f, cfg, err := o.resolve(func(r *dataformat.Registry) (dataformat.DataFormat, error) {
		return r.ForType(reflect.TypeOf(v))
	})
	if err != nil {
		return nil, err
	}
	log().WithFields(logrus.Fields{"format": f.Name(), "type": fmt.Sprintf("%T", v)}).Debug("mapping native value")
	return f.MapFromNative(v, cfg)
}

// S reads input in the format selected by opts. Strings, []byte and
// io.Reader values are parsed as text; other values are mapped as native
// values. A node is returned unchanged when no format is named, and
// converted otherwise.
func S(input any, opts ...Option) (dataformat.Node, error) {
	switch in := input.(type) {
	case string:
		return FromText(in, opts...)
	case []byte:
		return FromBytes(in, opts...)
	case io.Reader:
		return FromReader(in, opts...)
	case dataformat.Node:
		if newOptions(opts).named() == "" {
			return in, nil
		}
		return Convert(in, opts...)
	}
	return FromNative(input, opts...)
}

// JSON is S restricted to the JSON format.
func JSON(input any, opts ...Option) (*json.Node, error) {
	n, err := S(input, slices.Concat(opts, []Option{WithFormat(json.Name)})...)
	if err != nil {
		return nil, err
	}
	return json.AsNode(n)
}

// XML is S restricted to the XML format. It returns the document element.
func XML(input any, opts ...Option) (*xml.Element, error) {
	n, err := S(input, slices.Concat(opts, []Option{WithFormat(xml.Name)})...)
	if err != nil {
		return nil, err
	}
	e, ok := n.(*xml.Element)
	if !ok {
		return nil, fmt.Errorf("%s: node of format %s is not an XML element", xml.Name, n.Format().Name())
	}
	return e, nil
}

// Convert rewrites n in the format selected by opts. XML elements keep
// their name as the single top-level key of the converted tree. A node
// already in the target format is returned unchanged, or re-read with the
// configuration given by WithConfig.
func Convert(n dataformat.Node, opts ...Option) (dataformat.Node, error) {
	o := newOptions(opts)
	if o.named() == "" {
		return nil, &dataformat.ConfigurationError{Reason: "no target format given"}
	}
	f, cfg, err := o.resolve(nil)
	if err != nil {
		return nil, err
	}
	if n.Format().Name() == f.Name() {
		if o.config == nil {
			return n, nil
		}
		raw, err := n.Marshal()
		if err != nil {
			return nil, err
		}
		return f.Parse(raw, cfg)
	}
	var v any
	if e, ok := n.(*xml.Element); ok && f.Name() != xml.Name {
		v = e.ToTree()
	} else {
		v = n.Value()
	}
	log().WithFields(logrus.Fields{"from": n.Format().Name(), "to": f.Name()}).Debug("converting node")
	return f.MapFromNative(v, cfg)
}

// Configure returns a builder for format seeded with the registry's current
// defaults for it.
func Configure(format string, opts ...Option) (dataformat.Builder, error) {
	o := newOptions(opts)
	f, err := o.registry.ByName(format)
	if err != nil {
		return nil, err
	}
	defaults, err := o.registry.Defaults(f.Name())
	if err != nil {
		return nil, err
	}
	return f.NewBuilder(defaults), nil
}

// MapTo maps n into a new value of type T.
//
// Example:
//
//	customers, err := spin.MapTo[[]Customer](n)
func MapTo[T any](n dataformat.Node) (T, error) {
	var v T
	if err := n.MapTo(&v); err != nil {
		return v, err
	}
	return v, nil
}

// Formats lists the registered formats in resolution order.
func Formats(opts ...Option) []dataformat.Info {
	return newOptions(opts).registry.Formats()
}

// SetLogger replaces the logger used by spin packages. A nil logger
// silences all output.
func SetLogger(l *logrus.Logger) {
	logging.SetLogger(l)
}
