package mapdoc

import (
	"math"

	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/internal/coerce"
)

// StringValue returns the value of a string node.
func (n *Node) StringValue() (string, error) {
	v, err := n.resolve()
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", n.mismatch("string", v)
	}
	return s, nil
}

// NumberValue returns the value of a number node.
func (n *Node) NumberValue() (float64, error) {
	v, err := n.resolve()
	if err != nil {
		return 0, err
	}
	if !coerce.IsNumber(v) {
		return 0, n.mismatch("number", v)
	}
	return coerce.Float(v)
}

// IntValue returns the value of a number node holding an integer.
func (n *Node) IntValue() (int64, error) {
	v, err := n.resolve()
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case int64:
		return x, nil
	case float64:
		if x != math.Trunc(x) {
			return 0, &dataformat.TypeMismatchError{Path: n.Path(), Expected: "integer", Actual: "fractional number"}
		}
		// float64(math.MaxInt64) rounds up to 2^63.
		if x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, &dataformat.TypeMismatchError{Path: n.Path(), Expected: "integer", Actual: "number out of int64 range"}
		}
		return int64(x), nil
	}
	return 0, n.mismatch("number", v)
}

// BoolValue returns the value of a boolean node.
func (n *Node) BoolValue() (bool, error) {
	v, err := n.resolve()
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, n.mismatch("boolean", v)
	}
	return b, nil
}

// scalar resolves n and rejects containers.
func (n *Node) scalar(expected string) (any, error) {
	v, err := n.resolve()
	if err != nil {
		return nil, err
	}
	switch v.(type) {
	case map[string]any, []any:
		return nil, n.mismatch(expected, v)
	}
	return v, nil
}

// AsString renders any scalar node as text.
func (n *Node) AsString() (string, error) {
	v, err := n.scalar("string")
	if err != nil {
		return "", err
	}
	s, err := coerce.String(v)
	if err != nil {
		return "", n.mismatch("string", v)
	}
	return s, nil
}

// AsInt converts a scalar node to an integer, parsing strings.
func (n *Node) AsInt() (int64, error) {
	v, err := n.scalar("number")
	if err != nil {
		return 0, err
	}
	i, err := coerce.Int(v)
	if err != nil {
		return 0, n.mismatch("number", v)
	}
	return i, nil
}

// AsFloat converts a scalar node to a float, parsing strings.
func (n *Node) AsFloat() (float64, error) {
	v, err := n.scalar("number")
	if err != nil {
		return 0, err
	}
	f, err := coerce.Float(v)
	if err != nil {
		return 0, n.mismatch("number", v)
	}
	return f, nil
}

// AsBool converts a scalar node to a boolean, parsing strings.
func (n *Node) AsBool() (bool, error) {
	v, err := n.scalar("boolean")
	if err != nil {
		return false, err
	}
	b, err := coerce.Bool(v)
	if err != nil {
		return false, n.mismatch("boolean", v)
	}
	return b, nil
}
