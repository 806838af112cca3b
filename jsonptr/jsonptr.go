// Package jsonptr implements JSON Pointer (RFC 6901), the path syntax nodes
// use for navigation relative to their position in a tree.
//
// Reference: https://tools.ietf.org/html/rfc6901
package jsonptr

import (
	"fmt"
	"strconv"
	"strings"
)

// Pointer is a parsed JSON Pointer: the sequence of unescaped reference
// tokens. The empty Pointer refers to the whole document.
type Pointer []string

// Escape escapes a reference token:
//   - "~" is encoded as "~0"
//   - "/" is encoded as "~1"
func Escape(token string) string {
	// ~ first, so the ~ introduced for / is not escaped again
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

// Unescape reverses Escape.
func Unescape(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}

// Parse splits a pointer into its reference tokens.
//
// Examples:
//
//	Parse("")                   -> [], nil
//	Parse("/customers/0/name")  -> ["customers", "0", "name"], nil
//	Parse("/a~1b")              -> ["a/b"], nil
//	Parse("customers")          -> nil, error
func Parse(s string) (Pointer, error) {
	if s == "" {
		return Pointer{}, nil
	}
	if s[0] != '/' {
		return nil, fmt.Errorf("invalid JSON Pointer %q: must be empty or start with '/'", s)
	}
	parts := strings.Split(s[1:], "/")
	for i, part := range parts {
		if strings.Contains(strings.ReplaceAll(strings.ReplaceAll(part, "~0", ""), "~1", ""), "~") {
			return nil, fmt.Errorf("invalid JSON Pointer %q: bad escape in %q", s, part)
		}
		parts[i] = Unescape(part)
	}
	return Pointer(parts), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Pointer {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the pointer with escaping.
func (p Pointer) String() string {
	if len(p) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, token := range p {
		sb.WriteByte('/')
		sb.WriteString(Escape(token))
	}
	return sb.String()
}

// Append returns a new pointer extended by tokens. p is never modified.
func (p Pointer) Append(tokens ...string) Pointer {
	out := make(Pointer, 0, len(p)+len(tokens))
	out = append(out, p...)
	return append(out, tokens...)
}

// AppendIndex returns a new pointer extended by an array index.
func (p Pointer) AppendIndex(i int) Pointer {
	return p.Append(strconv.Itoa(i))
}

// Parent returns the pointer without its last token. The parent of the
// empty pointer is the empty pointer.
func (p Pointer) Parent() Pointer {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1:len(p)-1]
}

// Last returns the final token, or "" for the empty pointer.
func (p Pointer) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Build constructs a pointer string from keys. Integer keys become array
// indices.
//
// Examples:
//
//	Build("server", "port")   -> "/server/port"
//	Build("servers", 0)       -> "/servers/0"
//	Build("paths", "/api")    -> "/paths/~1api"
func Build(keys ...any) string {
	p := make(Pointer, 0, len(keys))
	for _, key := range keys {
		switch v := key.(type) {
		case string:
			p = append(p, v)
		case int:
			p = append(p, strconv.Itoa(v))
		case int64:
			p = append(p, strconv.FormatInt(v, 10))
		default:
			p = append(p, fmt.Sprint(v))
		}
	}
	return p.String()
}

// Join appends a relative or absolute pointer to base.
//
//	Join("/server", "port")   -> "/server/port"
//	Join("/server", "/port")  -> "/server/port"
//	Join("", "")              -> ""
func Join(base, path string) string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return base
	}
	return base + "/" + path
}

// Index parses an array index token. Per RFC 6901 indices are decimal
// without leading zeros. The token "-" refers to the position after the
// last element and yields length.
func Index(token string, length int) (int, error) {
	if token == "-" {
		return length, nil
	}
	if token == "" || (len(token) > 1 && token[0] == '0') {
		return 0, fmt.Errorf("invalid array index %q", token)
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid array index %q", token)
		}
	}
	i, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("invalid array index %q: %w", token, err)
	}
	return i, nil
}
