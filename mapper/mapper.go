// Package mapper converts between native Go values and the generic trees
// (map[string]any, []any, string, bool, int64, float64, nil) that back the
// JSON, YAML and TOML formats.
//
// Tree to native mapping is delegated to mapstructure, extended with decode
// hooks for the configured date layout and for polymorphic values: when
// default typing is enabled, objects stored in interface-typed positions
// carry a discriminator key naming their concrete type, resolved through a
// types.Registry.
package mapper

import (
	"time"

	"github.com/summit58/camunda-spin/internal/tag"
	"github.com/summit58/camunda-spin/types"
)

// DefaultTypeKey is the discriminator key written and read for polymorphic
// values.
const DefaultTypeKey = "@type"

// maxDepth bounds recursion when encoding self-referencing values.
const maxDepth = 512

// Options configures a single mapping operation.
type Options struct {
	// DateFormat is the time.Time layout. Default: time.RFC3339.
	DateFormat string

	// DefaultTyping enables discriminators for interface-typed positions.
	DefaultTyping bool

	// TypeKey is the discriminator key. Default: DefaultTypeKey.
	TypeKey string

	// Types names the concrete types that discriminators refer to.
	Types *types.Registry

	// FailOnUnknown rejects tree keys with no matching struct field.
	FailOnUnknown bool

	// TagName is the struct tag consulted for keys. Default: "json".
	TagName string
}

func (o Options) withDefaults() Options {
	if o.DateFormat == "" {
		o.DateFormat = time.RFC3339
	}
	if o.TypeKey == "" {
		o.TypeKey = DefaultTypeKey
	}
	if o.TagName == "" {
		o.TagName = tag.DefaultTagName
	}
	return o
}
