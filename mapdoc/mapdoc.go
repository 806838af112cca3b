// Package mapdoc provides a dataformat.Node implementation backed by generic
// trees of map[string]any, []any and scalar values.
//
// It is shared by the formats whose parsers naturally produce such trees
// (JSON, YAML, TOML). A Node is a view: it holds the document root and a
// JSON Pointer, and resolves the pointer on every access. Nodes obtained by
// navigation share the root with their parent, so a mutation made through
// one is visible through all of them. Trees hold only map[string]any, []any,
// string, bool, int64, float64 and nil; values entering a tree are converted
// with the mapper.
package mapdoc

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"

	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/internal/coerce"
	"github.com/summit58/camunda-spin/jsonptr"
	"github.com/summit58/camunda-spin/mapper"
)

// document is the holder shared by all views of one tree.
type document struct {
	root any
}

// WrapFunc lets a format return its own node type from navigation.
type WrapFunc func(*Node) dataformat.Node

// Option configures a Node created by New.
type Option func(*Node)

// WithMapping sets the mapper options used for MapToType and for converting
// values inserted into the tree.
func WithMapping(opts mapper.Options) Option {
	return func(n *Node) {
		n.mapping = opts
	}
}

// WithWrap sets the function that wraps nodes returned by navigation.
func WithWrap(fn WrapFunc) Option {
	return func(n *Node) {
		n.wrap = fn
	}
}

// Node is a view of one position in a generic tree.
type Node struct {
	doc     *document
	path    jsonptr.Pointer
	format  dataformat.DataFormat
	config  dataformat.Config
	mapping mapper.Options
	wrap    WrapFunc
}

// Ensure Node implements dataformat.Node interface.
var _ dataformat.Node = (*Node)(nil)

// New creates the root node of tree. tree must already be normalized.
func New(format dataformat.DataFormat, cfg dataformat.Config, tree any, opts ...Option) *Node {
	n := &Node{
		doc:    &document{root: tree},
		format: format,
		config: cfg,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// View returns a node at p relative to n, sharing n's tree. The position is
// not validated; accessing a missing position reports an error.
func (n *Node) View(p jsonptr.Pointer) *Node {
	return &Node{
		doc:     n.doc,
		path:    n.path.Append(p...),
		format:  n.format,
		config:  n.config,
		mapping: n.mapping,
		wrap:    n.wrap,
	}
}

// Root returns the node at the root of n's tree.
func (n *Node) Root() *Node {
	return n.at(nil)
}

func (n *Node) at(p jsonptr.Pointer) *Node {
	c := *n
	c.path = p
	return &c
}

func (n *Node) wrapped(c *Node) dataformat.Node {
	if n.wrap != nil {
		return n.wrap(c)
	}
	return c
}

// Pointer returns the position of n as a parsed pointer.
func (n *Node) Pointer() jsonptr.Pointer {
	return n.path.Append()
}

// Tree returns the raw tree under n without copying it. Callers must not
// modify the result.
func (n *Node) Tree() any {
	v, _ := n.resolve()
	return v
}

// RootTree returns the whole raw tree n belongs to.
func (n *Node) RootTree() any {
	return n.doc.root
}

// Mapping returns the mapper options of n.
func (n *Node) Mapping() mapper.Options {
	return n.mapping
}

// Format implements dataformat.Node.
func (n *Node) Format() dataformat.DataFormat {
	return n.format
}

// Config implements dataformat.Node.
func (n *Node) Config() dataformat.Config {
	return n.config
}

// Path implements dataformat.Node.
func (n *Node) Path() string {
	return n.path.String()
}

// resolve walks the pointer from the root.
func (n *Node) resolve() (any, error) {
	current := n.doc.root
	for i, token := range n.path {
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[token]
			if !ok {
				return nil, &dataformat.NoSuchFieldError{Path: n.path[:i].String(), Field: token}
			}
			current = next
		case []any:
			index, err := jsonptr.Index(token, len(typed))
			if err != nil || index >= len(typed) {
				return nil, &dataformat.IndexOutOfBoundsError{Path: n.path[:i].String(), Index: index, Len: len(typed)}
			}
			current = typed[index]
		default:
			return nil, &dataformat.TypeMismatchError{
				Path:     n.path[:i].String(),
				Expected: "object or array",
				Actual:   KindOf(current).String(),
			}
		}
	}
	return current, nil
}

// KindOf classifies a tree value.
func KindOf(v any) dataformat.Kind {
	switch v.(type) {
	case nil:
		return dataformat.KindNull
	case map[string]any:
		return dataformat.KindObject
	case []any:
		return dataformat.KindArray
	case string:
		return dataformat.KindString
	case bool:
		return dataformat.KindBoolean
	}
	if coerce.IsNumber(v) {
		return dataformat.KindNumber
	}
	return dataformat.KindNull
}

// Kind implements dataformat.Node. A node whose position no longer exists
// reports KindNull.
func (n *Node) Kind() dataformat.Kind {
	v, err := n.resolve()
	if err != nil {
		return dataformat.KindNull
	}
	return KindOf(v)
}

func (n *Node) IsObject() bool  { return n.Kind() == dataformat.KindObject }
func (n *Node) IsArray() bool   { return n.Kind() == dataformat.KindArray }
func (n *Node) IsString() bool  { return n.Kind() == dataformat.KindString }
func (n *Node) IsNumber() bool  { return n.Kind() == dataformat.KindNumber }
func (n *Node) IsBoolean() bool { return n.Kind() == dataformat.KindBoolean }
func (n *Node) IsNull() bool    { return n.Kind() == dataformat.KindNull }

// IsValue implements dataformat.Node.
func (n *Node) IsValue() bool {
	k := n.Kind()
	return k != dataformat.KindObject && k != dataformat.KindArray
}

func (n *Node) mismatch(expected string, actual any) error {
	return &dataformat.TypeMismatchError{Path: n.Path(), Expected: expected, Actual: KindOf(actual).String()}
}

func (n *Node) object() (map[string]any, error) {
	v, err := n.resolve()
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, n.mismatch("object", v)
	}
	return m, nil
}

func (n *Node) array() ([]any, error) {
	v, err := n.resolve()
	if err != nil {
		return nil, err
	}
	a, ok := v.([]any)
	if !ok {
		return nil, n.mismatch("array", v)
	}
	return a, nil
}

// Child returns the view of field name, validating that it exists.
func (n *Node) Child(name string) (*Node, error) {
	m, err := n.object()
	if err != nil {
		return nil, err
	}
	if _, ok := m[name]; !ok {
		return nil, &dataformat.NoSuchFieldError{Path: n.Path(), Field: name}
	}
	return n.at(n.path.Append(name)), nil
}

// Element returns the view of element i, validating the index.
func (n *Node) Element(i int) (*Node, error) {
	a, err := n.array()
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(a) {
		return nil, &dataformat.IndexOutOfBoundsError{Path: n.Path(), Index: i, Len: len(a)}
	}
	return n.at(n.path.AppendIndex(i)), nil
}

// Field implements dataformat.Node.
func (n *Node) Field(name string) (dataformat.Node, error) {
	c, err := n.Child(name)
	if err != nil {
		return nil, err
	}
	return n.wrapped(c), nil
}

// ElementAt implements dataformat.Node.
func (n *Node) ElementAt(i int) (dataformat.Node, error) {
	c, err := n.Element(i)
	if err != nil {
		return nil, err
	}
	return n.wrapped(c), nil
}

// Descend navigates a JSON Pointer relative to n.
func (n *Node) Descend(pointer string) (*Node, error) {
	p, err := jsonptr.Parse(pointer)
	if err != nil {
		return nil, fmt.Errorf("invalid pointer %q: %w", pointer, err)
	}
	current := n
	for _, token := range p {
		v, err := current.resolve()
		if err != nil {
			return nil, err
		}
		switch typed := v.(type) {
		case map[string]any:
			current, err = current.Child(token)
		case []any:
			index, ierr := jsonptr.Index(token, len(typed))
			if ierr != nil {
				return nil, &dataformat.TypeMismatchError{Path: current.Path(), Expected: "array index", Actual: strconv.Quote(token)}
			}
			current, err = current.Element(index)
		default:
			return nil, current.mismatch("object or array", v)
		}
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}

// At implements dataformat.Node.
func (n *Node) At(pointer string) (dataformat.Node, error) {
	c, err := n.Descend(pointer)
	if err != nil {
		return nil, err
	}
	return n.wrapped(c), nil
}

// Lookup implements dataformat.Node.
func (n *Node) Lookup(pointer string) (dataformat.Node, bool) {
	c, err := n.At(pointer)
	return c, err == nil
}

// HasProp implements dataformat.Node.
func (n *Node) HasProp(name string) bool {
	m, err := n.object()
	if err != nil {
		return false
	}
	_, ok := m[name]
	return ok
}

// IndexOf implements dataformat.Node.
func (n *Node) IndexOf(v any) int {
	a, want, ok := n.search(v)
	if !ok {
		return -1
	}
	for i, elem := range a {
		if Equal(elem, want) {
			return i
		}
	}
	return -1
}

// LastIndexOf implements dataformat.Node.
func (n *Node) LastIndexOf(v any) int {
	a, want, ok := n.search(v)
	if !ok {
		return -1
	}
	for i := len(a) - 1; i >= 0; i-- {
		if Equal(a[i], want) {
			return i
		}
	}
	return -1
}

func (n *Node) search(v any) ([]any, any, bool) {
	a, err := n.array()
	if err != nil {
		return nil, nil, false
	}
	want, err := mapper.Encode(v, n.mapping)
	if err != nil {
		return nil, nil, false
	}
	return a, want, true
}

// Equal compares two tree values. Numbers compare by value regardless of
// their Go type.
func Equal(a, b any) bool {
	if coerce.IsNumber(a) && coerce.IsNumber(b) {
		x, _ := coerce.Float(a)
		y, _ := coerce.Float(b)
		return x == y
	}
	switch x := a.(type) {
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// Len implements dataformat.Node.
func (n *Node) Len() int {
	v, err := n.resolve()
	if err != nil {
		return 0
	}
	switch typed := v.(type) {
	case map[string]any:
		return len(typed)
	case []any:
		return len(typed)
	}
	return 0
}

// FieldNames implements dataformat.Node. Names are sorted.
func (n *Node) FieldNames() []string {
	m, err := n.object()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Value implements dataformat.Node. Containers are deep-copied.
func (n *Node) Value() any {
	v, err := n.resolve()
	if err != nil {
		return nil
	}
	return DeepCopy(v)
}

// MapTo implements dataformat.Node.
func (n *Node) MapTo(target any) error {
	return n.format.MapToNative(n, target)
}

// MapToType implements dataformat.Node.
func (n *Node) MapToType(descriptor string) (any, error) {
	t, err := n.mapping.Types.Resolve(descriptor)
	if err != nil {
		return nil, &dataformat.MappingError{Format: n.format.Name(), Type: descriptor, Err: err}
	}
	ptr := reflect.New(t)
	if err := n.MapTo(ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

// Marshal implements dataformat.Node.
func (n *Node) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.format.Serialize(n, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo implements dataformat.Node.
func (n *Node) WriteTo(w io.Writer) (int64, error) {
	b, err := n.Marshal()
	if err != nil {
		return 0, err
	}
	written, err := w.Write(b)
	return int64(written), err
}

// String implements dataformat.Node.
func (n *Node) String() string {
	b, err := n.Marshal()
	if err != nil {
		return fmt.Sprintf("!(%s: %v)", n.format.Name(), err)
	}
	return string(b)
}

// DeepCopy copies maps and slices of a tree value.
func DeepCopy(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		dst := make(map[string]any, len(typed))
		for k, elem := range typed {
			dst[k] = DeepCopy(elem)
		}
		return dst
	case []any:
		dst := make([]any, len(typed))
		for i, elem := range typed {
			dst[i] = DeepCopy(elem)
		}
		return dst
	default:
		return v
	}
}
