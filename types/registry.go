package types

import (
	"fmt"
	"reflect"
	"sync"
	"time"
)

var builtins = map[string]reflect.Type{
	"string":   reflect.TypeOf(""),
	"bool":     reflect.TypeOf(false),
	"int":      reflect.TypeOf(int(0)),
	"int8":     reflect.TypeOf(int8(0)),
	"int16":    reflect.TypeOf(int16(0)),
	"int32":    reflect.TypeOf(int32(0)),
	"int64":    reflect.TypeOf(int64(0)),
	"uint":     reflect.TypeOf(uint(0)),
	"uint8":    reflect.TypeOf(uint8(0)),
	"uint16":   reflect.TypeOf(uint16(0)),
	"uint32":   reflect.TypeOf(uint32(0)),
	"uint64":   reflect.TypeOf(uint64(0)),
	"float32":  reflect.TypeOf(float32(0)),
	"float64":  reflect.TypeOf(float64(0)),
	"number":   reflect.TypeOf(float64(0)),
	"bytes":    reflect.TypeOf([]byte(nil)),
	"time":     reflect.TypeOf(time.Time{}),
	"duration": reflect.TypeOf(time.Duration(0)),
	"any":      reflect.TypeOf((*any)(nil)).Elem(),
}

// builtinNames maps built-in types back to their canonical names. "number"
// is an input alias of float64 and is not listed.
var builtinNames = func() map[reflect.Type]string {
	names := make(map[reflect.Type]string, len(builtins))
	for name, t := range builtins {
		if name == "number" {
			continue
		}
		names[t] = name
	}
	return names
}()

// Registry names user types so that descriptors and polymorphic type
// discriminators can refer to them. A nil *Registry knows only the built-in
// names. Registry is safe for concurrent use.
type Registry struct {
	byName map[string]reflect.Type
	byType map[reflect.Type]string
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
}

// Register names the type of sample. Pointer samples register their element
// type, so Register("Cat", &Cat{}) and Register("Cat", Cat{}) are equivalent.
// A reflect.Type may be passed directly.
func (r *Registry) Register(name string, sample any) error {
	if name == "" {
		return fmt.Errorf("register type: empty name")
	}
	if _, ok := builtins[name]; ok || name == List || name == Map || name == Ptr {
		return fmt.Errorf("register type %q: name is reserved", name)
	}

	t, ok := sample.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(sample)
	}
	if t == nil {
		return fmt.Errorf("register type %q: nil sample", name)
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byName[name]; ok && existing != t {
		return fmt.Errorf("register type %q: already bound to %s", name, existing)
	}
	if existing, ok := r.byType[t]; ok && existing != name {
		return fmt.Errorf("register type %s: already named %q", t, existing)
	}
	r.byName[name] = t
	r.byType[t] = name
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, sample any) *Registry {
	if err := r.Register(name, sample); err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the type bound to a plain (unparameterized) name.
func (r *Registry) Lookup(name string) (reflect.Type, bool) {
	if r != nil {
		r.mu.RLock()
		t, ok := r.byName[name]
		r.mu.RUnlock()
		if ok {
			return t, true
		}
	}
	t, ok := builtins[name]
	return t, ok
}

// NameOf returns the registered or built-in name of t.
func (r *Registry) NameOf(t reflect.Type) (string, bool) {
	if r != nil {
		r.mu.RLock()
		name, ok := r.byType[t]
		r.mu.RUnlock()
		if ok {
			return name, true
		}
	}
	name, ok := builtinNames[t]
	return name, ok
}

// Resolve parses a descriptor and returns the type it denotes.
func (r *Registry) Resolve(descriptor string) (reflect.Type, error) {
	d, err := Parse(descriptor)
	if err != nil {
		return nil, err
	}
	return r.ResolveDescriptor(d)
}

// ResolveDescriptor returns the type a parsed descriptor denotes.
func (r *Registry) ResolveDescriptor(d *Descriptor) (reflect.Type, error) {
	params := make([]reflect.Type, len(d.Params))
	for i, p := range d.Params {
		t, err := r.ResolveDescriptor(p)
		if err != nil {
			return nil, err
		}
		params[i] = t
	}

	switch d.Name {
	case List:
		if len(params) != 1 {
			return nil, fmt.Errorf("%s takes 1 type parameter, got %d", List, len(params))
		}
		return reflect.SliceOf(params[0]), nil
	case Ptr:
		if len(params) != 1 {
			return nil, fmt.Errorf("%s takes 1 type parameter, got %d", Ptr, len(params))
		}
		return reflect.PointerTo(params[0]), nil
	case Map:
		if len(params) != 2 {
			return nil, fmt.Errorf("%s takes 2 type parameters, got %d", Map, len(params))
		}
		if !params[0].Comparable() {
			return nil, fmt.Errorf("map key type %s is not comparable", params[0])
		}
		return reflect.MapOf(params[0], params[1]), nil
	}

	if len(params) != 0 {
		return nil, fmt.Errorf("type %q is not generic", d.Name)
	}
	t, ok := r.Lookup(d.Name)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", d.Name)
	}
	return t, nil
}

// CanonicalName returns the descriptor of t. Registered and built-in types
// use their names; slices, maps and pointers are rendered generically; any
// other type falls back to its Go name, which is not resolvable until the
// type is registered.
func (r *Registry) CanonicalName(t reflect.Type) string {
	return r.describe(t).String()
}

// CanonicalNameOf returns the descriptor of v's dynamic type.
func (r *Registry) CanonicalNameOf(v any) string {
	if v == nil {
		return "any"
	}
	return r.CanonicalName(reflect.TypeOf(v))
}

func (r *Registry) describe(t reflect.Type) *Descriptor {
	if name, ok := r.NameOf(t); ok {
		return &Descriptor{Name: name}
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return &Descriptor{Name: List, Params: []*Descriptor{r.describe(t.Elem())}}
	case reflect.Map:
		return &Descriptor{Name: Map, Params: []*Descriptor{r.describe(t.Key()), r.describe(t.Elem())}}
	case reflect.Ptr:
		return &Descriptor{Name: Ptr, Params: []*Descriptor{r.describe(t.Elem())}}
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return &Descriptor{Name: "any"}
		}
	}
	return &Descriptor{Name: t.String()}
}
