package mapper

import (
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/internal/tag"
)

var (
	timeType          = reflect.TypeOf(time.Time{})
	durationType      = reflect.TypeOf(time.Duration(0))
	numberType        = reflect.TypeOf(json.Number(""))
	nodeType          = reflect.TypeOf((*dataformat.Node)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// Encode converts a native value into a generic tree.
//
// Struct fields are keyed by their json tags (omitempty and "-" are honored,
// embedded structs are inlined), time.Time values are formatted with the
// configured date layout, durations and encoding.TextMarshaler values become
// strings, []byte becomes base64 text, and a dataformat.Node contributes its
// Value. A json.Number becomes an int64 when it fits and a float64 otherwise. Channels, functions and complex numbers are rejected.
func Encode(v any, opts Options) (any, error) {
	e := &encoder{opts: opts.withDefaults()}
	return e.encode(reflect.ValueOf(v), false, 0)
}

type encoder struct {
	opts Options
}

// encode converts v. typed is true when v sits in an interface-typed
// position and may therefore need a type discriminator.
func (e *encoder) encode(v reflect.Value, typed bool, depth int) (any, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("value nesting exceeds %d levels", maxDepth)
	}
	if !v.IsValid() {
		return nil, nil
	}

	t := v.Type()
	switch {
	case !v.CanInterface():
	case t == timeType:
		return v.Interface().(time.Time).Format(e.opts.DateFormat), nil
	case t == durationType:
		return time.Duration(v.Int()).String(), nil
	case t == numberType:
		return number(json.Number(v.String()))
	case t.Kind() == reflect.Interface:
	case t.Implements(nodeType) && !(t.Kind() == reflect.Ptr && v.IsNil()):
		return v.Interface().(dataformat.Node).Value(), nil
	case t.Implements(textMarshalerType) && !(t.Kind() == reflect.Ptr && (v.IsNil() || t.Elem() == timeType)):
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return nil, fmt.Errorf("marshal %s as text: %w", t, err)
		}
		return string(text), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return float64(u), nil
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.String:
		return v.String(), nil

	case reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return e.encode(v.Elem(), true, depth+1)

	case reflect.Ptr:
		if v.IsNil() {
			return nil, nil
		}
		return e.encode(v.Elem(), typed, depth+1)

	case reflect.Slice:
		if v.IsNil() {
			return nil, nil
		}
		if t.Elem().Kind() == reflect.Uint8 {
			return base64.StdEncoding.EncodeToString(v.Bytes()), nil
		}
		return e.encodeList(v, depth)

	case reflect.Array:
		return e.encodeList(v, depth)

	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		return e.encodeMap(v, depth)

	case reflect.Struct:
		m, err := e.encodeStruct(v, depth)
		if err != nil {
			return nil, err
		}
		if typed && e.opts.DefaultTyping {
			m[e.opts.TypeKey] = e.opts.Types.CanonicalName(t)
		}
		return m, nil
	}

	return nil, fmt.Errorf("unsupported type %s", t)
}

func (e *encoder) encodeList(v reflect.Value, depth int) (any, error) {
	typed := v.Type().Elem().Kind() == reflect.Interface
	out := make([]any, v.Len())
	for i := range out {
		elem, err := e.encode(v.Index(i), typed, depth+1)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = elem
	}
	return out, nil
}

func (e *encoder) encodeMap(v reflect.Value, depth int) (any, error) {
	typed := v.Type().Elem().Kind() == reflect.Interface
	out := make(map[string]any, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key, err := mapKey(iter.Key())
		if err != nil {
			return nil, err
		}
		val, err := e.encode(iter.Value(), typed, depth+1)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = val
	}
	return out, nil
}

func mapKey(k reflect.Value) (string, error) {
	if k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	if k.Kind() == reflect.String {
		return k.String(), nil
	}
	if k.CanInterface() {
		if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
			text, err := tm.MarshalText()
			if err != nil {
				return "", err
			}
			return string(text), nil
		}
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	return "", fmt.Errorf("unsupported map key type %s", k.Type())
}

func (e *encoder) encodeStruct(v reflect.Value, depth int) (map[string]any, error) {
	t := v.Type()
	out := make(map[string]any, t.NumField())
	explicit := make(map[string]bool, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		info := tag.Parse(field, e.opts.TagName)
		if info.Skip {
			continue
		}
		fv := v.Field(i)

		if info.Inline {
			if fv.Kind() == reflect.Ptr {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			promoted, err := e.encodeStruct(fv, depth+1)
			if err != nil {
				return nil, err
			}
			for k, val := range promoted {
				if !explicit[k] {
					out[k] = val
				}
			}
			continue
		}

		if info.OmitEmpty && isEmptyValue(fv) {
			continue
		}
		val, err := e.encode(fv, field.Type.Kind() == reflect.Interface, depth+1)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name(), field.Name, err)
		}
		out[info.Key] = val
		explicit[info.Key] = true
	}
	return out, nil
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	}
	return false
}

func number(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("number %s: %w", n, err)
	}
	return f, nil
}
