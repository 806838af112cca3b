package json

import (
	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/format"
	"github.com/summit58/camunda-spin/types"
)

// Builder is the typed configuration builder of the JSON format.
type Builder struct {
	*format.Builder
}

// Configure returns a builder seeded with the built-in defaults.
//
// Example:
//
//	cfg, err := json.Configure().
//	    DateFormat("2006-01-02").
//	    PrettyPrint(true).
//	    Done()
func Configure() *Builder {
	return NewBuilder(nil)
}

// NewBuilder returns a builder seeded with base. A nil base seeds it with
// the built-in defaults.
func NewBuilder(base dataformat.Config) *Builder {
	return &Builder{Builder: schema.NewBuilder(base)}
}

// SetDefaults adjusts the JSON defaults of the default registry. It fails
// with dataformat.ErrRegistrySealed once the registry serves lookups.
func SetDefaults(fn func(*Builder)) error {
	return dataformat.Configure(Name, func(b dataformat.Builder) error {
		fn(&Builder{Builder: b.(*format.Builder)})
		return nil
	})
}

// DateFormat sets the time.Time layout used when mapping.
func (b *Builder) DateFormat(layout string) *Builder {
	b.Put(format.OptDateFormat, layout)
	return b
}

// PrettyPrint enables indented output.
func (b *Builder) PrettyPrint(enabled bool) *Builder {
	b.Put(format.OptPrettyPrint, enabled)
	return b
}

// Indent sets the number of spaces per level of pretty-printed output.
func (b *Builder) Indent(spaces int) *Builder {
	b.Put(format.OptIndent, spaces)
	return b
}

// DefaultTyping enables type discriminators for interface-typed values.
func (b *Builder) DefaultTyping(enabled bool) *Builder {
	b.Put(format.OptDefaultTyping, enabled)
	return b
}

// TypeKey sets the discriminator key.
func (b *Builder) TypeKey(key string) *Builder {
	b.Put(format.OptTypeKey, key)
	return b
}

// Types sets the registry resolving type descriptors and discriminators.
func (b *Builder) Types(r *types.Registry) *Builder {
	b.Put(format.OptTypes, r)
	return b
}

// AllowComments accepts comments and trailing commas in input.
func (b *Builder) AllowComments(enabled bool) *Builder {
	b.Put(OptAllowComments, enabled)
	return b
}

// EscapeHTML escapes <, > and & in string output.
func (b *Builder) EscapeHTML(enabled bool) *Builder {
	b.Put(OptEscapeHTML, enabled)
	return b
}

// FailOnUnknownProperties rejects object keys without a matching field.
func (b *Builder) FailOnUnknownProperties(enabled bool) *Builder {
	b.Put(format.OptFailOnUnknownProperties, enabled)
	return b
}
