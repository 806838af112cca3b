package json

import (
	"fmt"

	"github.com/ohler55/ojg/jp"

	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/jsonptr"
	"github.com/summit58/camunda-spin/mapdoc"
)

// Node is a JSON node. Navigation methods return *Node values typed as
// dataformat.Node.
type Node struct {
	*mapdoc.Node
}

// Ensure Node implements dataformat.Node interface.
var _ dataformat.Node = (*Node)(nil)

// Get is Field with the result typed as *Node.
func (n *Node) Get(name string) (*Node, error) {
	c, err := n.Child(name)
	if err != nil {
		return nil, err
	}
	return &Node{Node: c}, nil
}

// Index is ElementAt with the result typed as *Node.
func (n *Node) Index(i int) (*Node, error) {
	c, err := n.Element(i)
	if err != nil {
		return nil, err
	}
	return &Node{Node: c}, nil
}

// JSONPath compiles expr and evaluates it against n. Results are views
// into n's tree.
func (n *Node) JSONPath(expr string) (*Query, error) {
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, &dataformat.QueryError{Format: Name, Expr: expr, Reason: "invalid JSONPath", Err: err}
	}

	locations := x.Locate(n.Tree(), 0)
	q := &Query{expr: expr, nodes: make([]*Node, 0, len(locations))}
	for _, loc := range locations {
		p, err := pointerOf(loc)
		if err != nil {
			return nil, &dataformat.QueryError{Format: Name, Expr: expr, Reason: "unsupported result location", Err: err}
		}
		q.nodes = append(q.nodes, &Node{Node: n.View(p)})
	}
	return q, nil
}

// pointerOf converts a normalized location returned by jp.Expr.Locate.
func pointerOf(loc jp.Expr) (jsonptr.Pointer, error) {
	var p jsonptr.Pointer
	for _, frag := range loc {
		switch f := frag.(type) {
		case jp.Root, jp.At, jp.Bracket:
		case jp.Child:
			p = p.Append(string(f))
		case jp.Nth:
			p = p.AppendIndex(int(f))
		default:
			return nil, fmt.Errorf("fragment %T", frag)
		}
	}
	return p, nil
}

// Query holds the matches of a JSONPath expression.
type Query struct {
	expr  string
	nodes []*Node
}

func (q *Query) fail(reason string) error {
	return &dataformat.QueryError{Format: Name, Expr: q.expr, Reason: reason}
}

// Exists reports whether the expression matched anything.
func (q *Query) Exists() bool {
	return len(q.nodes) > 0
}

// Len returns the number of matches.
func (q *Query) Len() int {
	return len(q.nodes)
}

// Element returns the single match.
func (q *Query) Element() (*Node, error) {
	switch len(q.nodes) {
	case 0:
		return nil, q.fail("no match")
	case 1:
		return q.nodes[0], nil
	}
	return nil, q.fail(fmt.Sprintf("expected a single match, got %d", len(q.nodes)))
}

// Elements returns all matches. A single array match yields its elements.
func (q *Query) Elements() ([]*Node, error) {
	if len(q.nodes) == 0 {
		return nil, q.fail("no match")
	}
	if len(q.nodes) == 1 && q.nodes[0].IsArray() {
		elems, err := q.nodes[0].Elements()
		if err != nil {
			return nil, err
		}
		out := make([]*Node, len(elems))
		for i, e := range elems {
			out[i] = e.(*Node)
		}
		return out, nil
	}
	return append([]*Node(nil), q.nodes...), nil
}

// String returns the single match as a string.
func (q *Query) String() (string, error) {
	e, err := q.Element()
	if err != nil {
		return "", err
	}
	return e.StringValue()
}

// Number returns the single match as a number.
func (q *Query) Number() (float64, error) {
	e, err := q.Element()
	if err != nil {
		return 0, err
	}
	return e.NumberValue()
}

// Bool returns the single match as a boolean.
func (q *Query) Bool() (bool, error) {
	e, err := q.Element()
	if err != nil {
		return false, err
	}
	return e.BoolValue()
}
