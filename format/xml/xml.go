// Package xml provides the XML data format.
//
// Documents are parsed into a github.com/beevik/etree DOM. Nodes are
// pointers into that DOM: an *Element wraps one element and an *Attribute
// names one attribute of an element, so mutations made through any node are
// visible through every other node of the same document. Native values are
// mapped with encoding/xml. Importing the package registers the format with
// the default registry under "application/xml" and the alias "xml".
package xml

import (
	"bytes"
	encxml "encoding/xml"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/beevik/etree"

	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/format"
)

// Name is the format identifier.
const Name = "application/xml"

// Alias is the short name accepted by the registry.
const Alias = "xml"

// Option names specific to XML.
const (
	OptNamespaceAware = "namespaceAware"
	OptValidating     = "validating"
	OptXMLDeclaration = "xmlDeclaration"
)

const declaration = `version="1.0" encoding="UTF-8"`

var schema = format.NewSchema(Name,
	format.Bool(OptNamespaceAware, true),
	format.Bool(OptValidating, false),
	format.Bool(format.OptPrettyPrint, false),
	format.Int(format.OptIndent, 2, 0),
	format.Bool(OptXMLDeclaration, false),
	format.TypesOption(),
)

// DataFormat is the XML implementation of dataformat.DataFormat.
type DataFormat struct{}

// Format is the XML data format.
var Format = &DataFormat{}

// Ensure DataFormat implements the dataformat.DataFormat interface.
var _ dataformat.DataFormat = (*DataFormat)(nil)

func init() {
	dataformat.MustRegister(Format, dataformat.WithAlias(Alias), dataformat.WithPriority(10))
}

// Name implements dataformat.DataFormat.
func (f *DataFormat) Name() string {
	return Name
}

// DefaultConfig implements dataformat.DataFormat.
func (f *DataFormat) DefaultConfig() dataformat.Config {
	return schema.Defaults()
}

// NewBuilder implements dataformat.DataFormat.
func (f *DataFormat) NewBuilder(base dataformat.Config) dataformat.Builder {
	return schema.NewBuilder(base)
}

// MatchesInput implements dataformat.DataFormat.
func (f *DataFormat) MatchesInput(raw []byte) bool {
	r, ok := format.FirstRune(raw)
	return ok && r == '<'
}

var (
	marshalerType = reflect.TypeOf((*encxml.Marshaler)(nil)).Elem()
	nameType      = reflect.TypeOf(encxml.Name{})
	elementType   = reflect.TypeOf((*etree.Element)(nil))
	documentType  = reflect.TypeOf((*etree.Document)(nil))
)

// MatchesType implements dataformat.DataFormat. It claims etree values,
// xml.Marshaler implementations and structs carrying an XMLName field.
func (f *DataFormat) MatchesType(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t == elementType || t == documentType || t.Implements(marshalerType) {
		return true
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	field, ok := t.FieldByName("XMLName")
	return ok && field.Type == nameType
}

// Parse implements dataformat.DataFormat.
func (f *DataFormat) Parse(raw []byte, cfg dataformat.Config) (dataformat.Node, error) {
	c, err := schema.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	root, err := parse(raw, c)
	if err != nil {
		return nil, dataformat.NewParseError(Name, raw, err)
	}
	return newElement(root, c), nil
}

func parse(raw []byte, c *format.Config) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.ValidateInput = c.Bool(OptValidating)
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("document has no root element")
	}
	if c.Bool(OptValidating) {
		if err := checkPrefixes(root); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// CreateEmpty implements dataformat.DataFormat. The empty document holds a
// single <root/> element.
func (f *DataFormat) CreateEmpty(cfg dataformat.Config) (dataformat.Node, error) {
	c, err := schema.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	return newElement(doc.CreateElement(defaultRoot), c), nil
}

// Serialize implements dataformat.DataFormat. Nodes of other formats are
// converted from their Value.
func (f *DataFormat) Serialize(n dataformat.Node, w io.Writer) error {
	c := configOf(n)
	switch node := n.(type) {
	case *Element:
		return write(w, node.detach(), c)
	case *Attribute:
		v, err := node.StringValue()
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := encxml.EscapeText(&buf, []byte(v)); err != nil {
			return err
		}
		_, err = w.Write(buf.Bytes())
		return err
	}
	root, err := FromTree(n.Value())
	if err != nil {
		return fmt.Errorf("%s: serialize: %w", Name, err)
	}
	return write(w, root, c)
}

func write(w io.Writer, root *etree.Element, c *format.Config) error {
	doc := etree.NewDocument()
	if c.Bool(OptXMLDeclaration) {
		doc.CreateProcInst("xml", declaration)
	}
	doc.SetRoot(root)
	if c.Bool(format.OptPrettyPrint) {
		doc.Indent(c.Int(format.OptIndent))
	}
	_, err := doc.WriteTo(w)
	return err
}

// MapToNative implements dataformat.DataFormat using encoding/xml.
func (f *DataFormat) MapToNative(n dataformat.Node, target any) error {
	var (
		raw []byte
		err error
	)
	switch node := n.(type) {
	case *Element:
		doc := etree.NewDocument()
		doc.SetRoot(node.detach())
		raw, err = doc.WriteToBytes()
	case *Attribute:
		var v string
		if v, err = node.StringValue(); err == nil {
			doc := etree.NewDocument()
			doc.CreateElement(node.key).SetText(v)
			raw, err = doc.WriteToBytes()
		}
	default:
		raw, err = n.Marshal()
	}
	if err == nil {
		err = encxml.Unmarshal(raw, target)
	}
	if err != nil {
		return &dataformat.MappingError{Format: Name, Type: fmt.Sprintf("%T", target), Err: err}
	}
	return nil
}

// MapFromNative implements dataformat.DataFormat. etree values are copied,
// generic trees go through FromTree and everything else is marshaled with
// encoding/xml.
func (f *DataFormat) MapFromNative(v any, cfg dataformat.Config) (dataformat.Node, error) {
	c, err := schema.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	root, err := fromNative(v)
	if err != nil {
		return nil, &dataformat.MappingError{Format: Name, Type: fmt.Sprintf("%T", v), Err: err}
	}
	doc := etree.NewDocument()
	doc.SetRoot(root)
	return newElement(root, c), nil
}

func fromNative(v any) (*etree.Element, error) {
	switch typed := v.(type) {
	case *Element:
		return typed.detach(), nil
	case *etree.Element:
		return typed.Copy(), nil
	case *etree.Document:
		if typed.Root() == nil {
			return nil, errors.New("document has no root element")
		}
		return typed.Root().Copy(), nil
	case dataformat.Node:
		return FromTree(typed.Value())
	case map[string]any, []any:
		return FromTree(typed)
	}
	raw, err := encxml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return parse(raw, schema.Defaults())
}

// CanonicalTypeName implements dataformat.DataFormat using the default
// type registry.
func (f *DataFormat) CanonicalTypeName(v any) string {
	return schema.Defaults().Types().CanonicalNameOf(v)
}

// configOf returns n's configuration when it belongs to this format, and
// the defaults otherwise.
func configOf(n dataformat.Node) *format.Config {
	if n.Config() != nil {
		if c, err := schema.Resolve(n.Config()); err == nil {
			return c
		}
	}
	return schema.Defaults()
}

// Parse reads XML text with cfg, or the format defaults when cfg is nil,
// and returns the document element.
func Parse(raw []byte, cfg dataformat.Config) (*Element, error) {
	n, err := Format.Parse(raw, cfg)
	if err != nil {
		return nil, err
	}
	return n.(*Element), nil
}

// FromNative maps v into an XML document and returns its root element.
func FromNative(v any, cfg dataformat.Config) (*Element, error) {
	n, err := Format.MapFromNative(v, cfg)
	if err != nil {
		return nil, err
	}
	return n.(*Element), nil
}

// NewElement creates a detached element. It can be inserted into a
// document with Append and friends.
func NewElement(name string, cfg dataformat.Config) (*Element, error) {
	c, err := schema.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	return newElement(etree.NewElement(name), c), nil
}
