// Package dataformat defines the plugin contract shared by every data format
// (JSON, XML, ...) and the registry that dispatches between them.
//
// A DataFormat reads raw input into a tree, writes trees back to text and
// maps trees to and from native Go values. Callers never touch the tree
// directly; they work through the Node interface, which every format
// implements on top of its own tree representation.
//
// Nodes have view semantics: a node returned by navigation (Field, ElementAt,
// At, ...) references the same underlying tree as its parent, so a mutation
// made through the child is visible through the parent. Nodes are safe for
// concurrent reads. Concurrent writers on nodes that share a tree must be
// synchronized by the caller.
package dataformat

import (
	"io"
	"reflect"
)

// DataFormat is implemented by each concrete format plugin.
//
// Implementations are immutable once registered and safe for concurrent use.
type DataFormat interface {
	// Name returns the unique format identifier, e.g. "application/json".
	Name() string

	// DefaultConfig returns the built-in default configuration.
	DefaultConfig() Config

	// NewBuilder returns a configuration builder seeded with base.
	// A nil base seeds the builder with DefaultConfig.
	NewBuilder(base Config) Builder

	// MatchesInput reports whether raw looks like input of this format.
	MatchesInput(raw []byte) bool

	// MatchesType reports whether values of type t should be mapped into
	// this format when no format is named explicitly.
	MatchesType(t reflect.Type) bool

	// Parse reads raw into a tree and returns its root node.
	// Malformed input yields a *ParseError.
	Parse(raw []byte, cfg Config) (Node, error)

	// CreateEmpty returns a writable node holding an empty tree.
	CreateEmpty(cfg Config) (Node, error)

	// Serialize writes the tree under n in this format's text representation,
	// honoring n's configuration.
	Serialize(n Node, w io.Writer) error

	// MapToNative maps the tree under n into target, which must be a
	// non-nil pointer. Failures yield a *MappingError.
	MapToNative(n Node, target any) error

	// MapFromNative converts a native value into a tree of this format.
	MapFromNative(v any, cfg Config) (Node, error)

	// CanonicalTypeName returns the canonical type descriptor of v, which
	// MapToType can resolve back to v's type.
	CanonicalTypeName(v any) string
}

// Kind classifies a node.
type Kind int

const (
	KindNull Kind = iota
	KindObject
	KindArray
	KindString
	KindNumber
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// Node is the format-agnostic view of a position in a parsed tree.
type Node interface {
	// Format returns the data format that produced this node.
	Format() DataFormat

	// Config returns the configuration in effect for this node.
	Config() Config

	// Path returns the JSON Pointer of this node relative to its root.
	Path() string

	Kind() Kind
	IsObject() bool
	IsArray() bool
	IsString() bool
	IsNumber() bool
	IsBoolean() bool
	IsNull() bool
	// IsValue reports whether the node is a scalar (string, number, boolean or null).
	IsValue() bool

	// Field returns the named child of an object-like node.
	// It fails with *NoSuchFieldError when the child is absent and with
	// *TypeMismatchError when the node is not object-like.
	Field(name string) (Node, error)

	// ElementAt returns the i-th element of an array-like node.
	// It fails with *IndexOutOfBoundsError or *TypeMismatchError.
	ElementAt(i int) (Node, error)

	// At navigates a JSON Pointer relative to this node.
	At(pointer string) (Node, error)

	// Lookup is the soft form of At: structural absence and kind mismatches
	// both report false instead of failing.
	Lookup(pointer string) (Node, bool)

	// HasProp reports whether the node has a direct child named name.
	HasProp(name string) bool

	// IndexOf returns the index of the first element equal to v, or -1.
	IndexOf(v any) int

	// LastIndexOf returns the index of the last element equal to v, or -1.
	LastIndexOf(v any) int

	// Len returns the number of children of an object or array node, and 0
	// for scalars.
	Len() int

	// FieldNames returns the names of an object node's children.
	FieldNames() []string

	// Value returns the node content as a plain Go value.
	Value() any

	// MapTo maps the node into target, which must be a non-nil pointer.
	MapTo(target any) error

	// MapToType maps the node into a new value of the type named by a
	// canonical type descriptor such as "List<Customer>".
	MapToType(descriptor string) (any, error)

	// Marshal serializes the node with its configuration.
	Marshal() ([]byte, error)

	// WriteTo serializes the node into w.
	WriteTo(w io.Writer) (int64, error)

	// String returns the serialized node. Serialization errors are rendered
	// inline; use Marshal to observe them.
	String() string
}
