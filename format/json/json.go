// Package json provides the JSON data format.
//
// Documents are parsed with github.com/ohler55/ojg into generic trees and
// written with github.com/goccy/go-json. Nodes are mapdoc views extended
// with JSONPath queries. Importing the package registers the format with
// the default registry under "application/json" and the alias "json".
package json

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strings"
	"unicode"

	gojson "github.com/goccy/go-json"
	"github.com/ohler55/ojg/oj"
	"github.com/tailscale/hujson"

	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/format"
	"github.com/summit58/camunda-spin/mapdoc"
)

// Name is the format identifier.
const Name = "application/json"

// Alias is the short name accepted by the registry.
const Alias = "json"

// Option names specific to JSON.
const (
	OptAllowComments = "allowComments"
	OptEscapeHTML    = "escapeHTML"
)

var schema = format.NewSchema(Name, append(format.MappingOptions(),
	format.Bool(format.OptPrettyPrint, false),
	format.Int(format.OptIndent, 2, 0),
	format.Bool(OptAllowComments, false),
	format.Bool(OptEscapeHTML, false),
)...)

// Format is the JSON data format.
var Format = format.NewTreeFormat(format.TreeConfig{
	Schema:       schema,
	Parse:        parse,
	Marshal:      marshal,
	MatchesInput: matchesInput,
	MatchesType:  matchesType,
	Wrap:         wrap,
})

func init() {
	dataformat.MustRegister(Format, dataformat.WithAlias(Alias))
}

func parse(raw []byte, cfg *format.Config) (any, error) {
	if cfg.Bool(OptAllowComments) {
		standard, err := hujson.Standardize(raw)
		if err != nil {
			return nil, err
		}
		raw = standard
	}
	var p oj.Parser
	return p.Parse(raw)
}

func marshal(w io.Writer, tree any, cfg *format.Config) error {
	var buf bytes.Buffer
	enc := gojson.NewEncoder(&buf)
	enc.SetEscapeHTML(cfg.Bool(OptEscapeHTML))
	if cfg.Bool(format.OptPrettyPrint) {
		enc.SetIndent("", strings.Repeat(" ", cfg.Int(format.OptIndent)))
	}
	if err := enc.Encode(tree); err != nil {
		return err
	}
	// Encode terminates the document with a newline.
	_, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}))
	return err
}

// matchesInput accepts anything that starts like a JSON value.
func matchesInput(raw []byte) bool {
	r, ok := format.FirstRune(raw)
	if !ok {
		return false
	}
	switch {
	case r == '{', r == '[', r == '"', unicode.IsDigit(r):
		return true
	case r == '-':
		// "---" opens a YAML document.
		rest := format.TrimLeft(raw)
		return len(rest) > 1 && rest[1] >= '0' && rest[1] <= '9'
	}
	return format.HasPrefixWord(raw, "true") ||
		format.HasPrefixWord(raw, "false") ||
		format.HasPrefixWord(raw, "null")
}

// matchesType accepts every type the mapper can encode.
func matchesType(t reflect.Type) bool {
	if t == nil {
		return true
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return false
	}
	return true
}

// Parse reads JSON text with cfg, or the format defaults when cfg is nil.
func Parse(raw []byte, cfg dataformat.Config) (*Node, error) {
	n, err := Format.Parse(raw, cfg)
	if err != nil {
		return nil, err
	}
	return n.(*Node), nil
}

// FromNative maps v into a JSON tree.
func FromNative(v any, cfg dataformat.Config) (*Node, error) {
	n, err := Format.MapFromNative(v, cfg)
	if err != nil {
		return nil, err
	}
	return n.(*Node), nil
}

// Empty returns a node holding an empty JSON object.
func Empty(cfg dataformat.Config) (*Node, error) {
	n, err := Format.CreateEmpty(cfg)
	if err != nil {
		return nil, err
	}
	return n.(*Node), nil
}

// AsNode converts any node of this format into a *Node.
func AsNode(n dataformat.Node) (*Node, error) {
	jn, ok := n.(*Node)
	if !ok {
		return nil, fmt.Errorf("%s: node of format %s is not a JSON node", Name, n.Format().Name())
	}
	return jn, nil
}

func wrap(n *mapdoc.Node) dataformat.Node {
	return &Node{Node: n}
}
