// Package coerce implements the weak scalar conversions behind the nodes'
// As* accessors: strings holding numbers or booleans convert to numbers and
// booleans, and every scalar renders as a string.
package coerce

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Bool converts v to a boolean. Besides the forms strconv.ParseBool accepts,
// strings may read "yes", "on", "y" and their negations; numbers are true
// when non-zero.
func Bool(v any) (bool, error) {
	if s, ok := v.(string); ok {
		s = strings.ToLower(strings.TrimSpace(s))
		switch s {
		case "yes", "on", "y":
			return true, nil
		case "no", "off", "n", "":
			return false, nil
		}
		v = s
	}
	return cast.ToBoolE(v)
}

// Int converts v to an int64. Fractions are truncated.
func Int(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return cast.ToInt64E(v)
	}
	s = strings.TrimSpace(s)
	if i, err := cast.ToInt64E(s); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %q to int: %w", s, err)
	}
	return int64(f), nil
}

// Float converts v to a float64.
func Float(v any) (float64, error) {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	return cast.ToFloat64E(v)
}

// String renders a scalar as text. Containers are rejected.
func String(v any) (string, error) {
	return cast.ToStringE(v)
}

// IsNumber reports whether v holds a Go numeric value.
func IsNumber(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
