package format

import (
	"fmt"
	"time"

	"github.com/summit58/camunda-spin/mapper"
	"github.com/summit58/camunda-spin/types"
)

// Option names shared by the formats that map native values.
const (
	OptDateFormat              = "dateFormat"
	OptDefaultTyping           = "defaultTyping"
	OptTypeKey                 = "typeKey"
	OptTypes                   = "types"
	OptFailOnUnknownProperties = "failOnUnknownProperties"
	OptPrettyPrint             = "prettyPrint"
	OptIndent                  = "indent"
)

// MappingOptions declares the options consumed by the mapper.
func MappingOptions() []Option {
	return []Option{
		NonEmptyString(OptDateFormat, time.RFC3339),
		Bool(OptDefaultTyping, false),
		NonEmptyString(OptTypeKey, mapper.DefaultTypeKey),
		TypesOption(),
		Bool(OptFailOnUnknownProperties, false),
	}
}

// TypesOption declares the "types" option holding a *types.Registry.
func TypesOption() Option {
	return Option{
		Name:    OptTypes,
		Default: (*types.Registry)(nil),
		Check: func(v any) (any, error) {
			r, ok := v.(*types.Registry)
			if !ok {
				return nil, fmt.Errorf("expected *types.Registry, got %T", v)
			}
			return r, nil
		},
	}
}

// Types returns the type registry option, or nil.
func (c *Config) Types() *types.Registry {
	r, _ := c.values[OptTypes].(*types.Registry)
	return r
}

// Mapping returns the mapper options encoded in c. Options the format does
// not declare keep the mapper's defaults.
func (c *Config) Mapping() mapper.Options {
	return mapper.Options{
		DateFormat:    c.String(OptDateFormat),
		DefaultTyping: c.Bool(OptDefaultTyping),
		TypeKey:       c.String(OptTypeKey),
		Types:         c.Types(),
		FailOnUnknown: c.Bool(OptFailOnUnknownProperties),
	}
}
