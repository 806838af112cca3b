// Package format provides shared building blocks for data format
// implementations: an option schema backing each format's configuration
// builder, and helpers for probing raw input.
package format

import (
	"fmt"
	"maps"
	"reflect"
	"sort"

	"github.com/summit58/camunda-spin/dataformat"
)

// CheckFunc validates an option value and returns its normalized form.
type CheckFunc func(v any) (any, error)

// Option declares one recognized configuration option of a format.
type Option struct {
	Name    string
	Default any
	// Check validates values assigned by builders. A nil Check accepts any
	// value assignable to the type of Default.
	Check CheckFunc
}

// Schema is the set of options a format recognizes.
// Options not in the schema are rejected with *dataformat.ConfigurationError.
type Schema struct {
	format  string
	options map[string]Option
}

// NewSchema creates the option schema of a format.
//
// Example:
//
//	schema := format.NewSchema("application/json",
//	    format.Bool("prettyPrint", false),
//	    format.String("dateFormat", time.RFC3339),
//	)
func NewSchema(formatName string, opts ...Option) *Schema {
	s := &Schema{
		format:  formatName,
		options: make(map[string]Option, len(opts)),
	}
	for _, opt := range opts {
		s.options[opt.Name] = opt
	}
	return s
}

// Format returns the name of the format the schema belongs to.
func (s *Schema) Format() string {
	return s.format
}

// Names returns the recognized option names in sorted order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.options))
	for name := range s.options {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults returns a configuration holding every option's default value.
func (s *Schema) Defaults() *Config {
	values := make(map[string]any, len(s.options))
	for name, opt := range s.options {
		values[name] = opt.Default
	}
	return &Config{format: s.format, values: values}
}

// NewBuilder returns a builder seeded with base, or with the defaults when
// base is nil.
func (s *Schema) NewBuilder(base dataformat.Config) *Builder {
	b := &Builder{schema: s, values: s.Defaults().values}
	if base == nil {
		return b
	}
	if base.Format() != s.format {
		b.err = &dataformat.ConfigurationError{
			Format: s.format,
			Reason: fmt.Sprintf("cannot seed from %s configuration", base.Format()),
		}
		return b
	}
	for name, value := range base.Options() {
		b.Put(name, value)
	}
	return b
}

// Resolve returns cfg as a *Config of this schema. A nil cfg yields the
// defaults; a configuration built elsewhere is revalidated.
func (s *Schema) Resolve(cfg dataformat.Config) (*Config, error) {
	if cfg == nil {
		return s.Defaults(), nil
	}
	if c, ok := cfg.(*Config); ok && c.format == s.format {
		return c, nil
	}
	return s.NewBuilder(cfg).Build()
}

// Config is an immutable option snapshot. It implements dataformat.Config.
type Config struct {
	format string
	values map[string]any
}

var _ dataformat.Config = (*Config)(nil)

// Format implements dataformat.Config.
func (c *Config) Format() string {
	return c.format
}

// Get implements dataformat.Config.
func (c *Config) Get(option string) (any, bool) {
	v, ok := c.values[option]
	return v, ok
}

// Options implements dataformat.Config.
func (c *Config) Options() map[string]any {
	return maps.Clone(c.values)
}

// Bool returns a boolean option, or false if it is unset.
func (c *Config) Bool(option string) bool {
	v, _ := c.values[option].(bool)
	return v
}

// Int returns an integer option, or 0 if it is unset.
func (c *Config) Int(option string) int {
	v, _ := c.values[option].(int)
	return v
}

// String returns a string option, or "" if it is unset.
func (c *Config) String(option string) string {
	v, _ := c.values[option].(string)
	return v
}

// Value returns an option of any type.
func (c *Config) Value(option string) any {
	return c.values[option]
}

// Builder assembles a Config against a Schema. It implements
// dataformat.Builder and is meant to be embedded by typed builders.
type Builder struct {
	schema *Schema
	values map[string]any
	err    error
	done   bool
}

var _ dataformat.Builder = (*Builder)(nil)

// Put validates and stores an option value. The first error is kept and
// reported by Done.
func (b *Builder) Put(option string, value any) {
	if b.done {
		b.err = &dataformat.ConfigurationError{
			Format: b.schema.format,
			Option: option,
			Reason: "builder already finalized",
		}
		return
	}
	if b.err != nil {
		return
	}

	opt, ok := b.schema.options[option]
	if !ok {
		b.err = &dataformat.ConfigurationError{
			Format: b.schema.format,
			Option: option,
			Reason: "unrecognized option",
		}
		return
	}

	normalized, err := checkValue(opt, value)
	if err != nil {
		b.err = &dataformat.ConfigurationError{
			Format: b.schema.format,
			Option: option,
			Reason: err.Error(),
		}
		return
	}
	b.values[option] = normalized
}

// Set implements dataformat.Builder.
func (b *Builder) Set(option string, value any) dataformat.Builder {
	b.Put(option, value)
	return b
}

// Build finalizes the builder and returns the typed configuration.
func (b *Builder) Build() (*Config, error) {
	if b.done {
		return nil, &dataformat.ConfigurationError{
			Format: b.schema.format,
			Reason: "builder already finalized",
		}
	}
	b.done = true
	if b.err != nil {
		return nil, b.err
	}
	return &Config{format: b.schema.format, values: maps.Clone(b.values)}, nil
}

// Done implements dataformat.Builder.
func (b *Builder) Done() (dataformat.Config, error) {
	cfg, err := b.Build()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func checkValue(opt Option, value any) (any, error) {
	if value == nil {
		return opt.Default, nil
	}
	if opt.Check != nil {
		return opt.Check(value)
	}
	if opt.Default == nil {
		return value, nil
	}
	want := reflect.TypeOf(opt.Default)
	if !reflect.TypeOf(value).AssignableTo(want) {
		return nil, fmt.Errorf("expected %s, got %T", want, value)
	}
	return value, nil
}

// Bool declares a boolean option.
func Bool(name string, def bool) Option {
	return Option{Name: name, Default: def}
}

// String declares a string option.
func String(name string, def string) Option {
	return Option{Name: name, Default: def}
}

// Int declares an integer option with an inclusive lower bound.
func Int(name string, def, lowest int) Option {
	return Option{
		Name:    name,
		Default: def,
		Check: func(v any) (any, error) {
			n, ok := v.(int)
			if !ok {
				return nil, fmt.Errorf("expected int, got %T", v)
			}
			if n < lowest {
				return nil, fmt.Errorf("must be at least %d, got %d", lowest, n)
			}
			return n, nil
		},
	}
}

// NonEmptyString declares a string option that rejects "".
func NonEmptyString(name string, def string) Option {
	return Option{
		Name:    name,
		Default: def,
		Check: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", v)
			}
			if s == "" {
				return nil, fmt.Errorf("must not be empty")
			}
			return s, nil
		},
	}
}
