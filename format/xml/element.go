package xml

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/format"
	"github.com/summit58/camunda-spin/internal/coerce"
	"github.com/summit58/camunda-spin/jsonptr"
)

// Element is a node referencing one element of an XML document.
//
// An element is object-like when it has child elements or attributes and
// string-like otherwise. Field resolves the first child element with the
// given name, or an attribute when the name starts with "@". ElementAt
// indexes the child elements.
type Element struct {
	elem   *etree.Element
	config *format.Config
}

// Ensure Element implements dataformat.Node interface.
var _ dataformat.Node = (*Element)(nil)

func newElement(e *etree.Element, c *format.Config) *Element {
	return &Element{elem: e, config: c}
}

func (e *Element) wrap(x *etree.Element) *Element {
	return &Element{elem: x, config: e.config}
}

// Etree returns the underlying etree element. Changes made to it are
// visible through e.
func (e *Element) Etree() *etree.Element {
	return e.elem
}

// Format implements dataformat.Node.
func (e *Element) Format() dataformat.DataFormat {
	return Format
}

// Config implements dataformat.Node.
func (e *Element) Config() dataformat.Config {
	return e.config
}

func (e *Element) namespaceAware() bool {
	return e.config.Bool(OptNamespaceAware)
}

// Name returns the local name of the element, or the qualified name as
// written when namespace processing is disabled.
func (e *Element) Name() string {
	if e.namespaceAware() {
		return e.elem.Tag
	}
	return e.elem.FullTag()
}

// Prefix returns the namespace prefix as written in the document.
func (e *Element) Prefix() string {
	return e.elem.Space
}

// Namespace returns the namespace URI of the element. It is empty when the
// element has no namespace or namespace processing is disabled.
func (e *Element) Namespace() string {
	if !e.namespaceAware() {
		return ""
	}
	return lookupNamespace(e.elem, e.elem.Space)
}

// HasNamespace reports whether the element belongs to namespace uri.
func (e *Element) HasNamespace(uri string) bool {
	return e.Namespace() == uri
}

// pointer returns the position of e relative to its document element.
func (e *Element) pointer() jsonptr.Pointer {
	var steps []string
	for x := e.elem; ; {
		parent := parentOf(x)
		if parent == nil {
			break
		}
		steps = append(steps, stepOf(parent, x))
		x = parent
	}
	p := make(jsonptr.Pointer, 0, len(steps))
	for i := len(steps) - 1; i >= 0; i-- {
		p = append(p, steps[i])
	}
	return p
}

// Path implements dataformat.Node. A child is addressed by name when it is
// the first child with that name and by index otherwise.
func (e *Element) Path() string {
	return e.pointer().String()
}

// stepOf returns the pointer token addressing child within parent.
func stepOf(parent, child *etree.Element) string {
	if parent.SelectElement(child.FullTag()) == child {
		return child.FullTag()
	}
	for i, c := range parent.ChildElements() {
		if c == child {
			return strconv.Itoa(i)
		}
	}
	return child.FullTag()
}

// parentOf returns the parent element of x, or nil at the document element
// and for detached elements.
func parentOf(x *etree.Element) *etree.Element {
	p := x.Parent()
	if p == nil || isDocument(p) {
		return nil
	}
	return p
}

// isDocument reports whether x is the element embedded in an
// etree.Document.
func isDocument(x *etree.Element) bool {
	return x.Parent() == nil && x.Tag == "" && x.Space == ""
}

// Kind implements dataformat.Node.
func (e *Element) Kind() dataformat.Kind {
	if len(e.elem.ChildElements()) > 0 || len(attributes(e.elem)) > 0 {
		return dataformat.KindObject
	}
	return dataformat.KindString
}

func (e *Element) IsObject() bool  { return e.Kind() == dataformat.KindObject }
func (e *Element) IsArray() bool   { return false }
func (e *Element) IsString() bool  { return e.Kind() == dataformat.KindString }
func (e *Element) IsNumber() bool  { return false }
func (e *Element) IsBoolean() bool { return false }
func (e *Element) IsNull() bool    { return false }
func (e *Element) IsValue() bool   { return e.Kind() != dataformat.KindObject }

// Field implements dataformat.Node. Names starting with "@" address
// attributes. Elements holding only text have no fields.
func (e *Element) Field(name string) (dataformat.Node, error) {
	if k := e.Kind(); k != dataformat.KindObject {
		return nil, &dataformat.TypeMismatchError{Path: e.Path(), Expected: "object", Actual: k.String()}
	}
	if attr, ok := strings.CutPrefix(name, "@"); ok {
		a, err := e.Attr(attr)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	c, err := e.ChildElement(name)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ElementAt implements dataformat.Node by indexing the child elements.
func (e *Element) ElementAt(i int) (dataformat.Node, error) {
	children := e.elem.ChildElements()
	if i < 0 || i >= len(children) {
		return nil, &dataformat.IndexOutOfBoundsError{Path: e.Path(), Index: i, Len: len(children)}
	}
	return e.wrap(children[i]), nil
}

// At implements dataformat.Node. Numeric tokens index child elements,
// "@name" tokens address attributes and other tokens name child elements.
func (e *Element) At(pointer string) (dataformat.Node, error) {
	p, err := jsonptr.Parse(pointer)
	if err != nil {
		return nil, fmt.Errorf("invalid pointer %q: %w", pointer, err)
	}
	var current dataformat.Node = e
	for _, token := range p {
		if el, ok := current.(*Element); ok {
			if i, err := strconv.Atoi(token); err == nil && i >= 0 {
				current, err = el.ElementAt(i)
				if err != nil {
					return nil, err
				}
				continue
			}
		}
		current, err = current.Field(token)
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}

// Lookup implements dataformat.Node.
func (e *Element) Lookup(pointer string) (dataformat.Node, bool) {
	n, err := e.At(pointer)
	return n, err == nil
}

// HasProp implements dataformat.Node.
func (e *Element) HasProp(name string) bool {
	if attr, ok := strings.CutPrefix(name, "@"); ok {
		return e.HasAttr(attr)
	}
	return e.elem.SelectElement(name) != nil
}

// IndexOf implements dataformat.Node. v matches a child element when it is
// that element, or when it renders to the child's text content.
func (e *Element) IndexOf(v any) int {
	for i, c := range e.elem.ChildElements() {
		if matches(c, v) {
			return i
		}
	}
	return -1
}

// LastIndexOf implements dataformat.Node.
func (e *Element) LastIndexOf(v any) int {
	children := e.elem.ChildElements()
	for i := len(children) - 1; i >= 0; i-- {
		if matches(children[i], v) {
			return i
		}
	}
	return -1
}

func matches(c *etree.Element, v any) bool {
	switch typed := v.(type) {
	case *Element:
		return typed != nil && c == typed.elem
	case *etree.Element:
		return c == typed
	}
	s, err := coerce.String(v)
	return err == nil && textContent(c) == s
}

// Len implements dataformat.Node and returns the number of child elements.
func (e *Element) Len() int {
	return len(e.elem.ChildElements())
}

// FieldNames implements dataformat.Node. Names of child elements are
// returned once each, in document order.
func (e *Element) FieldNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, c := range e.elem.ChildElements() {
		if name := c.FullTag(); !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Value implements dataformat.Node. Object-like elements become maps with
// attributes under "@name" keys and repeated children as lists; other
// elements yield their text content.
func (e *Element) Value() any {
	return elementValue(e.elem)
}

// ToTree returns the element as a generic tree keyed by its name. FromTree
// reverses the conversion.
func (e *Element) ToTree() map[string]any {
	return map[string]any{e.elem.FullTag(): e.Value()}
}

// MapTo implements dataformat.Node.
func (e *Element) MapTo(target any) error {
	return Format.MapToNative(e, target)
}

// MapToType implements dataformat.Node.
func (e *Element) MapToType(descriptor string) (any, error) {
	return mapToType(e, e.config, descriptor)
}

func mapToType(n dataformat.Node, c *format.Config, descriptor string) (any, error) {
	t, err := c.Types().Resolve(descriptor)
	if err != nil {
		return nil, &dataformat.MappingError{Format: Name, Type: descriptor, Err: err}
	}
	ptr := reflect.New(t)
	if err := n.MapTo(ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

// Marshal implements dataformat.Node.
func (e *Element) Marshal() ([]byte, error) {
	return marshalNode(e)
}

// WriteTo implements dataformat.Node.
func (e *Element) WriteTo(w io.Writer) (int64, error) {
	return writeNode(e, w)
}

// String implements dataformat.Node.
func (e *Element) String() string {
	return stringNode(e)
}

func marshalNode(n dataformat.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := Format.Serialize(n, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNode(n dataformat.Node, w io.Writer) (int64, error) {
	b, err := marshalNode(n)
	if err != nil {
		return 0, err
	}
	written, err := w.Write(b)
	return int64(written), err
}

func stringNode(n dataformat.Node) string {
	b, err := marshalNode(n)
	if err != nil {
		return fmt.Sprintf("!(%s: %v)", Name, err)
	}
	return string(b)
}

// detach returns a copy of the element that carries the namespace
// declarations in scope at its position.
func (e *Element) detach() *etree.Element {
	c := e.elem.Copy()
	declared := make(map[string]bool)
	for _, a := range c.Attr {
		if isNamespaceDecl(a) {
			declared[a.FullKey()] = true
		}
	}
	for x := e.elem.Parent(); x != nil; x = x.Parent() {
		for _, a := range x.Attr {
			if isNamespaceDecl(a) && !declared[a.FullKey()] {
				declared[a.FullKey()] = true
				c.CreateAttr(a.FullKey(), a.Value)
			}
		}
	}
	return c
}

// contains reports whether x is e or one of its descendants.
func (e *Element) contains(x *etree.Element) bool {
	for ; x != nil; x = x.Parent() {
		if x == e.elem {
			return true
		}
	}
	return false
}

// Attr returns the attribute name, which may carry a prefix as written.
func (e *Element) Attr(name string) (*Attribute, error) {
	a := e.elem.SelectAttr(name)
	if a == nil || isNamespaceDecl(*a) {
		return nil, &dataformat.NoSuchFieldError{Path: e.Path(), Field: "@" + name}
	}
	return &Attribute{owner: e, space: a.Space, key: a.Key}, nil
}

// AttrNS returns the attribute with local name name in namespace uri.
func (e *Element) AttrNS(uri, name string) (*Attribute, error) {
	if uri == "" {
		return e.Attr(name)
	}
	for _, a := range attributes(e.elem) {
		if a.Key == name && e.namespaceAware() && a.Space != "" && lookupNamespace(e.elem, a.Space) == uri {
			return &Attribute{owner: e, space: a.Space, key: a.Key}, nil
		}
	}
	return nil, &dataformat.NoSuchFieldError{Path: e.Path(), Field: "@{" + uri + "}" + name}
}

// HasAttr reports whether the attribute name exists.
func (e *Element) HasAttr(name string) bool {
	_, err := e.Attr(name)
	return err == nil
}

// HasAttrNS reports whether the attribute name exists in namespace uri.
func (e *Element) HasAttrNS(uri, name string) bool {
	_, err := e.AttrNS(uri, name)
	return err == nil
}

// Attrs returns the attributes of the element in document order.
// Namespace declarations are not attributes.
func (e *Element) Attrs() []*Attribute {
	attrs := attributes(e.elem)
	out := make([]*Attribute, len(attrs))
	for i, a := range attrs {
		out[i] = &Attribute{owner: e, space: a.Space, key: a.Key}
	}
	return out
}

// AttrNames returns the qualified attribute names in document order.
func (e *Element) AttrNames() []string {
	attrs := attributes(e.elem)
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = a.FullKey()
	}
	return out
}

// SetAttr adds or replaces the attribute name.
func (e *Element) SetAttr(name, value string) *Element {
	e.elem.CreateAttr(name, value)
	return e
}

// SetAttrNS adds or replaces the attribute name in namespace uri. A prefix
// is declared on the element when none is in scope for uri.
func (e *Element) SetAttrNS(uri, name, value string) *Element {
	if uri == "" {
		return e.SetAttr(name, value)
	}
	prefix, ok := prefixFor(e.elem, uri)
	if !ok {
		prefix = freePrefix(e.elem)
		e.elem.CreateAttr("xmlns:"+prefix, uri)
	}
	e.elem.CreateAttr(prefix+":"+name, value)
	return e
}

// RemoveAttr removes the attribute name.
func (e *Element) RemoveAttr(name string) error {
	if !e.HasAttr(name) {
		return &dataformat.NoSuchFieldError{Path: e.Path(), Field: "@" + name}
	}
	e.elem.RemoveAttr(name)
	return nil
}

// ChildElement returns the first child element named name.
func (e *Element) ChildElement(name string) (*Element, error) {
	c := e.elem.SelectElement(name)
	if c == nil {
		return nil, &dataformat.NoSuchFieldError{Path: e.Path(), Field: name}
	}
	return e.wrap(c), nil
}

// ChildElements returns the child elements named name, or all child
// elements when name is empty.
func (e *Element) ChildElements(name string) []*Element {
	var children []*etree.Element
	if name == "" {
		children = e.elem.ChildElements()
	} else {
		children = e.elem.SelectElements(name)
	}
	out := make([]*Element, len(children))
	for i, c := range children {
		out[i] = e.wrap(c)
	}
	return out
}

// checkInsert validates that child can be moved under e.
func (e *Element) checkInsert(child *Element) error {
	if child == nil {
		return fmt.Errorf("%s: cannot insert a nil element", Name)
	}
	if child.contains(e.elem) {
		return fmt.Errorf("%s: cannot insert <%s> into itself or a descendant", Name, child.elem.FullTag())
	}
	return nil
}

// take removes x from its current parent.
func take(x *etree.Element) {
	if p := x.Parent(); p != nil {
		p.RemoveChild(x)
	}
}

func (e *Element) notChild(child *Element) error {
	return &dataformat.NoSuchFieldError{Path: e.Path(), Field: child.elem.FullTag()}
}

// Append moves children to the end of e. Elements that belong to another
// position or document are removed from there first.
func (e *Element) Append(children ...*Element) error {
	for _, c := range children {
		if err := e.checkInsert(c); err != nil {
			return err
		}
		take(c.elem)
		e.elem.AddChild(c.elem)
	}
	return nil
}

// AppendBefore moves child in front of existing, which must be a child of e.
func (e *Element) AppendBefore(child, existing *Element) error {
	return e.insertNear(child, existing, 0)
}

// AppendAfter moves child behind existing, which must be a child of e.
func (e *Element) AppendAfter(child, existing *Element) error {
	return e.insertNear(child, existing, 1)
}

func (e *Element) insertNear(child, existing *Element, offset int) error {
	if err := e.checkInsert(child); err != nil {
		return err
	}
	if existing == nil || existing.elem.Parent() != e.elem {
		return fmt.Errorf("%s: reference element is not a child of <%s>", Name, e.elem.FullTag())
	}
	if child.elem == existing.elem {
		return nil
	}
	take(child.elem)
	e.elem.InsertChildAt(existing.elem.Index()+offset, child.elem)
	return nil
}

// Remove detaches children, which must all be children of e.
func (e *Element) Remove(children ...*Element) error {
	for _, c := range children {
		if c == nil || c.elem.Parent() != e.elem {
			if c == nil {
				return fmt.Errorf("%s: cannot remove a nil element", Name)
			}
			return e.notChild(c)
		}
	}
	for _, c := range children {
		e.elem.RemoveChild(c.elem)
	}
	return nil
}

// Replace puts replacement at the position of e. Afterwards e is detached.
func (e *Element) Replace(replacement *Element) error {
	parent := e.elem.Parent()
	if parent == nil {
		return fmt.Errorf("%s: cannot replace detached element <%s>", Name, e.elem.FullTag())
	}
	if replacement == nil {
		return fmt.Errorf("%s: cannot insert a nil element", Name)
	}
	if replacement.elem == e.elem {
		return nil
	}
	if replacement.contains(e.elem) {
		return fmt.Errorf("%s: cannot replace <%s> with an ancestor", Name, e.elem.FullTag())
	}
	take(replacement.elem)
	parent.InsertChildAt(e.elem.Index(), replacement.elem)
	parent.RemoveChild(e.elem)
	return nil
}

// ReplaceChild puts replacement at the position of existing, which must be
// a child of e.
func (e *Element) ReplaceChild(existing, replacement *Element) error {
	if existing == nil || existing.elem.Parent() != e.elem {
		return fmt.Errorf("%s: element to replace is not a child of <%s>", Name, e.elem.FullTag())
	}
	return existing.Replace(replacement)
}

// TextContent returns the concatenated character data of e and all its
// descendants.
func (e *Element) TextContent() string {
	return textContent(e.elem)
}

// SetTextContent replaces all content of e with text.
func (e *Element) SetTextContent(text string) *Element {
	for len(e.elem.Child) > 0 {
		e.elem.RemoveChildAt(0)
	}
	e.elem.SetText(text)
	return e
}

func textContent(x *etree.Element) string {
	var sb strings.Builder
	var walk func(*etree.Element)
	walk = func(x *etree.Element) {
		for _, t := range x.Child {
			switch tok := t.(type) {
			case *etree.CharData:
				sb.WriteString(tok.Data)
			case *etree.Element:
				walk(tok)
			}
		}
	}
	walk(x)
	return sb.String()
}
