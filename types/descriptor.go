// Package types implements canonical type descriptors: strings naming a
// possibly parameterized target type for mapping operations.
//
// Descriptors use generic notation, with Go notation accepted as input and
// normalized:
//
//	Customer                  a registered type
//	List<Customer>            []Customer        (also written []Customer)
//	Map<string,List<int>>     map[string][]int  (also written map[string][]int)
//	Ptr<Customer>             *Customer         (also written *Customer)
//
// Built-in names are string, bool, int, int8, int16, int32, int64, uint,
// uint8, uint16, uint32, uint64, float32, float64, number (float64), bytes
// ([]byte), time (time.Time), duration (time.Duration) and any.
package types

import (
	"fmt"
	"strings"
	"unicode"
)

// Generic type constructors.
const (
	List = "List"
	Map  = "Map"
	Ptr  = "Ptr"
)

// Descriptor is a parsed canonical type descriptor.
type Descriptor struct {
	Name   string
	Params []*Descriptor
}

// String renders the descriptor in canonical generic notation.
func (d *Descriptor) String() string {
	if len(d.Params) == 0 {
		return d.Name
	}
	params := make([]string, len(d.Params))
	for i, p := range d.Params {
		params[i] = p.String()
	}
	return d.Name + "<" + strings.Join(params, ",") + ">"
}

// Parse parses a descriptor in generic or Go notation.
func Parse(s string) (*Descriptor, error) {
	p := &descParser{src: s}
	d, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("invalid type descriptor %q: %w", s, err)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("invalid type descriptor %q: unexpected %q at offset %d", s, p.src[p.pos:], p.pos)
	}
	return d, nil
}

// Canonical parses s and renders it in canonical generic notation.
func Canonical(s string) (string, error) {
	d, err := Parse(s)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

type descParser struct {
	src string
	pos int
}

func (p *descParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *descParser) consume(prefix string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], prefix) {
		p.pos += len(prefix)
		return true
	}
	return false
}

func (p *descParser) parse() (*Descriptor, error) {
	switch {
	case p.consume("[]"):
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		return &Descriptor{Name: List, Params: []*Descriptor{elem}}, nil

	case p.consume("*"):
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		return &Descriptor{Name: Ptr, Params: []*Descriptor{elem}}, nil

	case p.consume("map["):
		key, err := p.parse()
		if err != nil {
			return nil, err
		}
		if !p.consume("]") {
			return nil, fmt.Errorf("expected ']' at offset %d", p.pos)
		}
		val, err := p.parse()
		if err != nil {
			return nil, err
		}
		return &Descriptor{Name: Map, Params: []*Descriptor{key, val}}, nil
	}

	name := p.ident()
	if name == "" {
		return nil, fmt.Errorf("expected type name at offset %d", p.pos)
	}
	d := &Descriptor{Name: name}
	if !p.consume("<") {
		return d, nil
	}
	for {
		param, err := p.parse()
		if err != nil {
			return nil, err
		}
		d.Params = append(d.Params, param)
		if p.consume(",") {
			continue
		}
		if p.consume(">") {
			return d, nil
		}
		return nil, fmt.Errorf("expected ',' or '>' at offset %d", p.pos)
	}
}

func (p *descParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := rune(p.src[p.pos])
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '.' || c == '/' || c == '$' || c == '-' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}
