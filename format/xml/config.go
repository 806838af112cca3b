package xml

import (
	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/format"
	"github.com/summit58/camunda-spin/types"
)

// Builder is the typed configuration builder of the XML format.
type Builder struct {
	*format.Builder
}

// Configure returns a builder seeded with the built-in defaults.
//
// Example:
//
//	cfg, err := xml.Configure().
//	    PrettyPrint(true).
//	    XMLDeclaration(true).
//	    Done()
func Configure() *Builder {
	return NewBuilder(nil)
}

// NewBuilder returns a builder seeded with base. A nil base seeds it with
// the built-in defaults.
func NewBuilder(base dataformat.Config) *Builder {
	return &Builder{Builder: schema.NewBuilder(base)}
}

// SetDefaults adjusts the XML defaults of the default registry. It fails
// with dataformat.ErrRegistrySealed once the registry serves lookups.
func SetDefaults(fn func(*Builder)) error {
	return dataformat.Configure(Name, func(b dataformat.Builder) error {
		fn(&Builder{Builder: b.(*format.Builder)})
		return nil
	})
}

// NamespaceAware enables namespace processing. When disabled, names are
// reported as written, including their prefix.
func (b *Builder) NamespaceAware(enabled bool) *Builder {
	b.Put(OptNamespaceAware, enabled)
	return b
}

// Validating makes the parser check well-formedness of the whole input and
// reject undeclared namespace prefixes.
func (b *Builder) Validating(enabled bool) *Builder {
	b.Put(OptValidating, enabled)
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

// XMLDeclaration writes an <?xml ...?> declaration before the document
// element.
func (b *Builder) XMLDeclaration(enabled bool) *Builder {
	b.Put(OptXMLDeclaration, enabled)
	return b
}

// Types sets the registry used to resolve type descriptors.
func (b *Builder) Types(r *types.Registry) *Builder {
	b.Put(format.OptTypes, r)
	return b
}
