package xml

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/summit58/camunda-spin/dataformat"
)

// XPath evaluates an etree path expression relative to e. Paths starting
// with "/" are evaluated from the document root. A trailing "/@name" step
// (or "/@*") selects attributes of the matched elements, and an expression
// of the form "@name" selects an attribute of e itself. Results are views
// into e's document.
//
// Example:
//
//	q, err := root.XPath("./order[@status='open']/item/@sku")
func (e *Element) XPath(expr string) (*Query, error) {
	path, attr, hasAttr := splitAttribute(expr)
	q := &Query{expr: expr}

	var matched []*etree.Element
	switch {
	case path == "" && hasAttr && strings.HasPrefix(expr, "/"):
		// The document node carries no attributes.
	case path == "":
		matched = []*etree.Element{e.elem}
	default:
		p, err := etree.CompilePath(path)
		if err != nil {
			return nil, &dataformat.QueryError{Format: Name, Expr: expr, Reason: "invalid path", Err: err}
		}
		matched = e.elem.FindElementsPath(p)
	}

	if !hasAttr {
		for _, m := range matched {
			q.elems = append(q.elems, e.wrap(m))
		}
		return q, nil
	}
	for _, m := range matched {
		owner := e.wrap(m)
		if attr == "*" {
			q.attrs = append(q.attrs, owner.Attrs()...)
			continue
		}
		if a, err := owner.Attr(attr); err == nil {
			q.attrs = append(q.attrs, a)
		}
	}
	return q, nil
}

// splitAttribute separates a trailing attribute step from expr.
func splitAttribute(expr string) (path, attr string, ok bool) {
	if rest, found := strings.CutPrefix(expr, "@"); found {
		return "", rest, true
	}
	i := strings.LastIndex(expr, "/@")
	if i < 0 || strings.ContainsAny(expr[i+2:], "[]/") {
		return expr, "", false
	}
	path, attr = expr[:i], expr[i+2:]
	if strings.HasSuffix(path, "/") {
		path += "*"
	}
	return path, attr, true
}

// Query holds the matches of a path expression. A query selects either
// elements or attributes.
type Query struct {
	expr  string
	elems []*Element
	attrs []*Attribute
}

func (q *Query) fail(reason string) error {
	return &dataformat.QueryError{Format: Name, Expr: q.expr, Reason: reason}
}

// Exists reports whether the expression matched anything.
func (q *Query) Exists() bool {
	return q.Len() > 0
}

// Len returns the number of matches.
func (q *Query) Len() int {
	return len(q.elems) + len(q.attrs)
}

func single[T any](q *Query, matches []T, kind string) (T, error) {
	var zero T
	switch len(matches) {
	case 0:
		return zero, q.fail("no " + kind + " matched")
	case 1:
		return matches[0], nil
	}
	return zero, q.fail(fmt.Sprintf("expected a single %s, got %d", kind, len(matches)))
}

// Element returns the single matched element.
func (q *Query) Element() (*Element, error) {
	return single(q, q.elems, "element")
}

// Elements returns all matched elements.
func (q *Query) Elements() ([]*Element, error) {
	if len(q.elems) == 0 {
		return nil, q.fail("no element matched")
	}
	return append([]*Element(nil), q.elems...), nil
}

// Attribute returns the single matched attribute.
func (q *Query) Attribute() (*Attribute, error) {
	return single(q, q.attrs, "attribute")
}

// Attributes returns all matched attributes.
func (q *Query) Attributes() ([]*Attribute, error) {
	if len(q.attrs) == 0 {
		return nil, q.fail("no attribute matched")
	}
	return append([]*Attribute(nil), q.attrs...), nil
}

// String returns the value of the single matched attribute, or the text
// content of the single matched element.
func (q *Query) String() (string, error) {
	if len(q.attrs) > 0 {
		a, err := q.Attribute()
		if err != nil {
			return "", err
		}
		return a.StringValue()
	}
	e, err := q.Element()
	if err != nil {
		return "", err
	}
	return e.TextContent(), nil
}
