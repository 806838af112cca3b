package mapdoc

import (
	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/jsonptr"
	"github.com/summit58/camunda-spin/mapper"
)

// encode converts a native value for insertion into the tree. Nodes are
// deep-copied through their Value.
func (n *Node) encode(v any) (any, error) {
	tree, err := mapper.Encode(v, n.mapping)
	if err != nil {
		return nil, &dataformat.MappingError{Format: n.format.Name(), Err: err}
	}
	return tree, nil
}

// replace stores v at p, which must address an existing position or the
// root.
func (n *Node) replace(p jsonptr.Pointer, v any) error {
	if len(p) == 0 {
		n.doc.root = v
		return nil
	}
	parent, err := n.at(p.Parent()).resolve()
	if err != nil {
		return err
	}
	switch typed := parent.(type) {
	case map[string]any:
		typed[p.Last()] = v
	case []any:
		index, err := jsonptr.Index(p.Last(), len(typed))
		if err != nil || index >= len(typed) {
			return &dataformat.IndexOutOfBoundsError{Path: p.Parent().String(), Index: index, Len: len(typed)}
		}
		typed[index] = v
	default:
		return &dataformat.TypeMismatchError{Path: p.Parent().String(), Expected: "object or array", Actual: KindOf(parent).String()}
	}
	return nil
}

// Set replaces the value at n's position.
func (n *Node) Set(v any) error {
	if _, err := n.resolve(); err != nil {
		return err
	}
	tree, err := n.encode(v)
	if err != nil {
		return err
	}
	return n.replace(n.path, tree)
}

// SetField adds or replaces the field name of an object node.
func (n *Node) SetField(name string, v any) error {
	m, err := n.object()
	if err != nil {
		return err
	}
	tree, err := n.encode(v)
	if err != nil {
		return err
	}
	m[name] = tree
	return nil
}

// DeleteField removes the field name of an object node.
func (n *Node) DeleteField(name string) error {
	m, err := n.object()
	if err != nil {
		return err
	}
	if _, ok := m[name]; !ok {
		return &dataformat.NoSuchFieldError{Path: n.Path(), Field: name}
	}
	delete(m, name)
	return nil
}

// Append adds values to the end of an array node.
func (n *Node) Append(values ...any) error {
	a, err := n.array()
	if err != nil {
		return err
	}
	out := make([]any, len(a), len(a)+len(values))
	copy(out, a)
	for _, v := range values {
		tree, err := n.encode(v)
		if err != nil {
			return err
		}
		out = append(out, tree)
	}
	return n.replace(n.path, out)
}

// InsertAt inserts v before element i of an array node. i may equal the
// length of the array.
func (n *Node) InsertAt(i int, v any) error {
	a, err := n.array()
	if err != nil {
		return err
	}
	if i < 0 || i > len(a) {
		return &dataformat.IndexOutOfBoundsError{Path: n.Path(), Index: i, Len: len(a)}
	}
	tree, err := n.encode(v)
	if err != nil {
		return err
	}
	out := make([]any, 0, len(a)+1)
	out = append(out, a[:i]...)
	out = append(out, tree)
	out = append(out, a[i:]...)
	return n.replace(n.path, out)
}

// RemoveAt removes element i of an array node.
func (n *Node) RemoveAt(i int) error {
	a, err := n.array()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(a) {
		return &dataformat.IndexOutOfBoundsError{Path: n.Path(), Index: i, Len: len(a)}
	}
	out := make([]any, 0, len(a)-1)
	out = append(out, a[:i]...)
	out = append(out, a[i+1:]...)
	return n.replace(n.path, out)
}

// Elements returns views of all elements of an array node.
func (n *Node) Elements() ([]dataformat.Node, error) {
	a, err := n.array()
	if err != nil {
		return nil, err
	}
	out := make([]dataformat.Node, len(a))
	for i := range a {
		out[i] = n.wrapped(n.at(n.path.AppendIndex(i)))
	}
	return out, nil
}

// Fields returns views of all fields of an object node, keyed by name.
func (n *Node) Fields() (map[string]dataformat.Node, error) {
	m, err := n.object()
	if err != nil {
		return nil, err
	}
	out := make(map[string]dataformat.Node, len(m))
	for k := range m {
		out[k] = n.wrapped(n.at(n.path.Append(k)))
	}
	return out, nil
}
