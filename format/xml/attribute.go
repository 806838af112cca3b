package xml

import (
	"io"

	"github.com/beevik/etree"

	"github.com/summit58/camunda-spin/dataformat"
)

// Attribute is a node naming one attribute of an element. It reads the
// owning element on every access; an attribute removed from the document
// reports KindNull.
type Attribute struct {
	owner *Element
	space string
	key   string
}

// Ensure Attribute implements dataformat.Node interface.
var _ dataformat.Node = (*Attribute)(nil)

func (a *Attribute) fullKey() string {
	if a.space == "" {
		return a.key
	}
	return a.space + ":" + a.key
}

func (a *Attribute) attr() (*etree.Attr, error) {
	x := a.owner.elem.SelectAttr(a.fullKey())
	if x == nil {
		return nil, &dataformat.NoSuchFieldError{Path: a.owner.Path(), Field: "@" + a.fullKey()}
	}
	return x, nil
}

// Owner returns the element carrying the attribute.
func (a *Attribute) Owner() *Element {
	return a.owner
}

// Name returns the local name of the attribute, or the qualified name as
// written when namespace processing is disabled.
func (a *Attribute) Name() string {
	if a.owner.namespaceAware() {
		return a.key
	}
	return a.fullKey()
}

// Prefix returns the namespace prefix as written in the document.
func (a *Attribute) Prefix() string {
	return a.space
}

// Namespace returns the namespace URI of the attribute. Unprefixed
// attributes have no namespace.
func (a *Attribute) Namespace() string {
	if a.space == "" || !a.owner.namespaceAware() {
		return ""
	}
	return lookupNamespace(a.owner.elem, a.space)
}

// HasNamespace reports whether the attribute belongs to namespace uri.
func (a *Attribute) HasNamespace(uri string) bool {
	return a.Namespace() == uri
}

// StringValue returns the attribute value.
func (a *Attribute) StringValue() (string, error) {
	x, err := a.attr()
	if err != nil {
		return "", err
	}
	return x.Value, nil
}

// SetValue replaces the attribute value.
func (a *Attribute) SetValue(value string) error {
	x, err := a.attr()
	if err != nil {
		return err
	}
	x.Value = value
	return nil
}

// Remove deletes the attribute from its element.
func (a *Attribute) Remove() error {
	return a.owner.RemoveAttr(a.fullKey())
}

// Format implements dataformat.Node.
func (a *Attribute) Format() dataformat.DataFormat {
	return Format
}

// Config implements dataformat.Node.
func (a *Attribute) Config() dataformat.Config {
	return a.owner.config
}

// Path implements dataformat.Node.
func (a *Attribute) Path() string {
	return a.owner.pointer().Append("@" + a.fullKey()).String()
}

// Kind implements dataformat.Node.
func (a *Attribute) Kind() dataformat.Kind {
	if _, err := a.attr(); err != nil {
		return dataformat.KindNull
	}
	return dataformat.KindString
}

func (a *Attribute) IsObject() bool  { return false }
func (a *Attribute) IsArray() bool   { return false }
func (a *Attribute) IsString() bool  { return a.Kind() == dataformat.KindString }
func (a *Attribute) IsNumber() bool  { return false }
func (a *Attribute) IsBoolean() bool { return false }
func (a *Attribute) IsNull() bool    { return a.Kind() == dataformat.KindNull }
func (a *Attribute) IsValue() bool   { return true }

func (a *Attribute) mismatch() error {
	return &dataformat.TypeMismatchError{Path: a.Path(), Expected: "element", Actual: "attribute"}
}

// Field implements dataformat.Node. Attributes have no children.
func (a *Attribute) Field(string) (dataformat.Node, error) {
	return nil, a.mismatch()
}

// ElementAt implements dataformat.Node. Attributes have no children.
func (a *Attribute) ElementAt(int) (dataformat.Node, error) {
	return nil, a.mismatch()
}

// At implements dataformat.Node. Only the empty pointer resolves.
func (a *Attribute) At(pointer string) (dataformat.Node, error) {
	if pointer == "" {
		return a, nil
	}
	return nil, a.mismatch()
}

// Lookup implements dataformat.Node.
func (a *Attribute) Lookup(pointer string) (dataformat.Node, bool) {
	n, err := a.At(pointer)
	return n, err == nil
}

func (a *Attribute) HasProp(string) bool   { return false }
func (a *Attribute) IndexOf(any) int       { return -1 }
func (a *Attribute) LastIndexOf(any) int   { return -1 }
func (a *Attribute) Len() int              { return 0 }
func (a *Attribute) FieldNames() []string { return nil }

// Value implements dataformat.Node. It returns the attribute value, or nil
// when the attribute no longer exists.
func (a *Attribute) Value() any {
	v, err := a.StringValue()
	if err != nil {
		return nil
	}
	return v
}

// MapTo implements dataformat.Node. The value is decoded like the character
// data of an element.
func (a *Attribute) MapTo(target any) error {
	return Format.MapToNative(a, target)
}

// MapToType implements dataformat.Node.
func (a *Attribute) MapToType(descriptor string) (any, error) {
	return mapToType(a, a.owner.config, descriptor)
}

// Marshal implements dataformat.Node. The result is the escaped value.
func (a *Attribute) Marshal() ([]byte, error) {
	return marshalNode(a)
}

// WriteTo implements dataformat.Node.
func (a *Attribute) WriteTo(w io.Writer) (int64, error) {
	return writeNode(a, w)
}

// String implements dataformat.Node.
func (a *Attribute) String() string {
	return stringNode(a)
}
