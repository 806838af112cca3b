package mapper

import (
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

var bytesType = reflect.TypeOf([]byte(nil))

// Decode maps a generic tree onto target, which must be a non-nil pointer.
func Decode(tree any, target any, opts Options) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer, got %T", target)
	}
	d := &decoder{opts: opts.withDefaults()}
	return d.decode(tree, target)
}

// DecodeType maps a generic tree onto a fresh value of type t and returns it.
func DecodeType(tree any, t reflect.Type, opts Options) (any, error) {
	if t == nil {
		return nil, errors.New("nil target type")
	}
	ptr := reflect.New(t)
	if err := Decode(tree, ptr.Interface(), opts); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

type decoder struct {
	opts Options
}

func (d *decoder) decode(input, result any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      result,
		TagName:     d.opts.TagName,
		Squash:      true,
		ErrorUnused: d.opts.FailOnUnknown,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			d.typedHook,
			mapstructure.StringToTimeHookFunc(d.opts.DateFormat),
			mapstructure.StringToTimeDurationHookFunc(),
			base64Hook,
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// typedHook resolves type discriminators. Objects headed for an interface
// are decoded into the concrete type their discriminator names; objects
// headed for a concrete struct lose the discriminator key so that it does
// not count as an unknown property.
func (d *decoder) typedHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	m, ok := data.(map[string]any)
	if !ok {
		return data, nil
	}

	switch to.Kind() {
	case reflect.Interface:
		name, hasName := m[d.opts.TypeKey].(string)
		if !d.opts.DefaultTyping || !hasName {
			if to.NumMethod() == 0 {
				return data, nil
			}
			if !d.opts.DefaultTyping {
				return nil, fmt.Errorf("cannot map object to interface %s: polymorphic typing is disabled", to)
			}
			return nil, fmt.Errorf("cannot map object to interface %s: missing type discriminator %q", to, d.opts.TypeKey)
		}
		return d.decodeTyped(name, to, withoutKey(m, d.opts.TypeKey))

	case reflect.Struct:
		if d.opts.DefaultTyping {
			if _, has := m[d.opts.TypeKey]; has {
				return withoutKey(m, d.opts.TypeKey), nil
			}
		}
	}
	return data, nil
}

func (d *decoder) decodeTyped(name string, to reflect.Type, m map[string]any) (any, error) {
	t, err := d.opts.Types.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("resolve type discriminator %q: %w", name, err)
	}

	ptr := reflect.New(t)
	if err := d.decode(m, ptr.Interface()); err != nil {
		return nil, err
	}
	switch {
	case t.Implements(to):
		return ptr.Elem().Interface(), nil
	case ptr.Type().Implements(to):
		return ptr.Interface(), nil
	}
	return nil, fmt.Errorf("type %q (%s) does not implement %s", name, t, to)
}

func withoutKey(m map[string]any, key string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return out
}

func base64Hook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != bytesType {
		return data, nil
	}
	b, err := base64.StdEncoding.DecodeString(reflect.ValueOf(data).String())
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return b, nil
}
