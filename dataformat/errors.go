package dataformat

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrRegistrySealed is returned when a format is registered or configured
// after the registry has started serving lookups.
var ErrRegistrySealed = errors.New("data format registry is sealed")

// snippetLen bounds the amount of raw input quoted in error messages.
const snippetLen = 40

// Snippet returns a short, single-line excerpt of raw input suitable for
// error messages.
func Snippet(raw []byte) string {
	s := raw
	if len(s) > snippetLen {
		end := snippetLen
		for end > 0 && !utf8.RuneStart(s[end]) {
			end--
		}
		s = s[:end]
	}
	out := make([]rune, 0, len(s))
	for _, r := range string(s) {
		if r == '\n' || r == '\r' || r == '\t' {
			r = ' '
		}
		out = append(out, r)
	}
	if len(raw) > snippetLen {
		return string(out) + "..."
	}
	return string(out)
}

// UnknownFormatError is returned when a format is requested by a name that
// is not registered.
type UnknownFormatError struct {
	Name string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown data format %q", e.Name)
}

// NoMatchingFormatError is returned when no registered format accepts the
// given input or native type.
type NoMatchingFormatError struct {
	// Input is a snippet of the probed raw input (empty for type probes).
	Input string
	// Type is the probed native type name (empty for input probes).
	Type string
}

func (e *NoMatchingFormatError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("no data format can map values of type %s", e.Type)
	}
	return fmt.Sprintf("no data format can read input %q", e.Input)
}

// DuplicateFormatError is returned when a format name or alias is already
// taken.
type DuplicateFormatError struct {
	Name string
}

func (e *DuplicateFormatError) Error() string {
	return fmt.Sprintf("data format %q is already registered", e.Name)
}

// ParseError is returned when raw input is not valid for the format that
// was asked to read it.
type ParseError struct {
	Format  string
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: cannot parse %q: %v", e.Format, e.Snippet, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError builds a ParseError quoting the start of raw.
func NewParseError(format string, raw []byte, err error) *ParseError {
	return &ParseError{Format: format, Snippet: Snippet(raw), Err: err}
}

// TypeMismatchError is returned when a structural operation is applied to a
// node of the wrong kind, such as reading a field of an array.
type TypeMismatchError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch at %q: expected %s, got %s", displayPath(e.Path), e.Expected, e.Actual)
}

// NoSuchFieldError is returned when an object-like node has no child with
// the requested name.
type NoSuchFieldError struct {
	Path  string
	Field string
}

func (e *NoSuchFieldError) Error() string {
	return fmt.Sprintf("no field %q at %q", e.Field, displayPath(e.Path))
}

// IndexOutOfBoundsError is returned when an array-like node has no element
// at the requested index.
type IndexOutOfBoundsError struct {
	Path  string
	Index int
	Len   int
}

func (e *IndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("index %d out of bounds at %q (length %d)", e.Index, displayPath(e.Path), e.Len)
}

// MappingError is returned when a tree cannot be mapped to or from a native
// value.
type MappingError struct {
	Format string
	Type   string
	Err    error
}

func (e *MappingError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("%s: mapping failed: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("%s: cannot map %s: %v", e.Format, e.Type, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

// ConfigurationError is returned for unrecognized or ill-typed options and
// for misuse of a configuration builder.
type ConfigurationError struct {
	Format string
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Option == "" {
		return fmt.Sprintf("%s: configuration error: %s", e.Format, e.Reason)
	}
	return fmt.Sprintf("%s: option %q: %s", e.Format, e.Option, e.Reason)
}

func displayPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

// QueryError is returned when a path expression (JSONPath, XPath) is
// malformed or does not select what the caller asked for.
type QueryError struct {
	Format string
	Expr   string
	Reason string
	Err    error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: query %q: %s: %v", e.Format, e.Expr, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: query %q: %s", e.Format, e.Expr, e.Reason)
}

func (e *QueryError) Unwrap() error { return e.Err }
