package dataformat_test

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summit58/camunda-spin/dataformat"
)

// stubConfig is a minimal Config with a single "level" option.
type stubConfig struct {
	format string
	level  int
}

func (c *stubConfig) Format() string { return c.format }

func (c *stubConfig) Get(option string) (any, bool) {
	if option == "level" {
		return c.level, true
	}
	return nil, false
}

func (c *stubConfig) Options() map[string]any { return map[string]any{"level": c.level} }

type stubBuilder struct {
	cfg  stubConfig
	err  error
	done bool
}

func (b *stubBuilder) Set(option string, value any) dataformat.Builder {
	level, ok := value.(int)
	if option != "level" || !ok {
		b.err = &dataformat.ConfigurationError{Format: b.cfg.format, Option: option, Reason: "unrecognized option"}
		return b
	}
	b.cfg.level = level
	return b
}

func (b *stubBuilder) Done() (dataformat.Config, error) {
	if b.done {
		return nil, &dataformat.ConfigurationError{Format: b.cfg.format, Reason: "builder already finalized"}
	}
	b.done = true
	if b.err != nil {
		return nil, b.err
	}
	cfg := b.cfg
	return &cfg, nil
}

// stub is a DataFormat that accepts input starting with prefix and values
// of kind.
type stub struct {
	name   string
	prefix string
	kind   reflect.Kind
}

func (s *stub) Name() string { return s.name }

func (s *stub) DefaultConfig() dataformat.Config { return &stubConfig{format: s.name} }

func (s *stub) NewBuilder(base dataformat.Config) dataformat.Builder {
	b := &stubBuilder{cfg: stubConfig{format: s.name}}
	if c, ok := base.(*stubConfig); ok {
		b.cfg = *c
	}
	return b
}

func (s *stub) MatchesInput(raw []byte) bool {
	return s.prefix != "" && bytes.HasPrefix(raw, []byte(s.prefix))
}

func (s *stub) MatchesType(t reflect.Type) bool { return t != nil && t.Kind() == s.kind }

func (s *stub) Parse([]byte, dataformat.Config) (dataformat.Node, error) { return nil, nil }

func (s *stub) CreateEmpty(dataformat.Config) (dataformat.Node, error) { return nil, nil }

func (s *stub) Serialize(dataformat.Node, io.Writer) error { return nil }

func (s *stub) MapToNative(dataformat.Node, any) error { return nil }

func (s *stub) MapFromNative(any, dataformat.Config) (dataformat.Node, error) { return nil, nil }

func (s *stub) CanonicalTypeName(any) string { return "" }

func TestRegistry_ByName(t *testing.T) {
	r := dataformat.NewRegistry()
	a := &stub{name: "application/a"}
	require.NoError(t, r.Register(a, dataformat.WithAlias("a", "alpha")))

	for _, name := range []string{"application/a", "a", "alpha"} {
		f, err := r.ByName(name)
		require.NoError(t, err, name)
		assert.Same(t, a, f)
	}

	_, err := r.ByName("b")
	var unknown *dataformat.UnknownFormatError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "b", unknown.Name)
}

func TestRegistry_Duplicate(t *testing.T) {
	tests := []struct {
		name   string
		format *stub
		opts   []dataformat.RegisterOption
		taken  string
	}{
		{"same name", &stub{name: "application/a"}, nil, "application/a"},
		{"name taken by alias", &stub{name: "a"}, nil, "a"},
		{"alias taken by name", &stub{name: "application/b"}, []dataformat.RegisterOption{dataformat.WithAlias("application/a")}, "application/a"},
		{"repeated alias", &stub{name: "application/c"}, []dataformat.RegisterOption{dataformat.WithAlias("c", "c")}, "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := dataformat.NewRegistry()
			require.NoError(t, r.Register(&stub{name: "application/a"}, dataformat.WithAlias("a")))

			err := r.Register(tt.format, tt.opts...)
			var dup *dataformat.DuplicateFormatError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, tt.taken, dup.Name)
			assert.Len(t, r.Formats(), 1, "failed registration leaves the registry unchanged")
		})
	}
}

func TestRegistry_ResolutionOrder(t *testing.T) {
	r := dataformat.NewRegistry()
	low := &stub{name: "low", prefix: "<", kind: reflect.String}
	first := &stub{name: "first", prefix: "<", kind: reflect.Bool}
	second := &stub{name: "second", prefix: "<", kind: reflect.Bool}
	high := &stub{name: "high", prefix: "<<", kind: reflect.Int}
	require.NoError(t, r.Register(low, dataformat.WithPriority(-1)))
	require.NoError(t, r.Register(first))
	require.NoError(t, r.Register(second))
	require.NoError(t, r.Register(high, dataformat.WithPriority(5)))

	names := make([]string, 0, 4)
	for _, info := range r.Formats() {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"high", "first", "second", "low"}, names)

	for range 3 {
		f, err := r.ForInput([]byte("<a/>"))
		require.NoError(t, err)
		assert.Same(t, first, f, "equal priority resolves in registration order")

		f, err = r.ForInput([]byte("<<a"))
		require.NoError(t, err)
		assert.Same(t, high, f)

		f, err = r.ForType(reflect.TypeOf(true))
		require.NoError(t, err)
		assert.Same(t, first, f)

		f, err = r.ForType(reflect.TypeOf(""))
		require.NoError(t, err)
		assert.Same(t, low, f)
	}
}

func TestRegistry_NoMatch(t *testing.T) {
	r := dataformat.NewRegistry()
	require.NoError(t, r.Register(&stub{name: "x", prefix: "<"}))

	_, err := r.ForInput([]byte("a String\nwith more text than fits into a snippet"))
	var noMatch *dataformat.NoMatchingFormatError
	require.ErrorAs(t, err, &noMatch)
	assert.True(t, strings.HasPrefix(noMatch.Input, "a String with"), noMatch.Input)
	assert.True(t, strings.HasSuffix(noMatch.Input, "..."), noMatch.Input)

	_, err = r.ForType(reflect.TypeOf(1.5))
	require.ErrorAs(t, err, &noMatch)
	assert.Equal(t, "float64", noMatch.Type)

	_, err = r.ForType(nil)
	require.ErrorAs(t, err, &noMatch)
	assert.Equal(t, "<nil>", noMatch.Type)
}

func TestRegistry_Sealed(t *testing.T) {
	r := dataformat.NewRegistry()
	require.NoError(t, r.Register(&stub{name: "a"}))
	assert.False(t, r.Sealed())

	_, err := r.ByName("a")
	require.NoError(t, err)
	assert.True(t, r.Sealed())

	err = r.Register(&stub{name: "b"})
	assert.ErrorIs(t, err, dataformat.ErrRegistrySealed)

	err = r.Configure("a", func(b dataformat.Builder) error { return nil })
	assert.ErrorIs(t, err, dataformat.ErrRegistrySealed)

	r2 := dataformat.NewRegistry()
	r2.Seal()
	r2.Seal()
	assert.ErrorIs(t, r2.Register(&stub{name: "a"}), dataformat.ErrRegistrySealed)
}

func TestRegistry_Configure(t *testing.T) {
	r := dataformat.NewRegistry()
	require.NoError(t, r.Register(&stub{name: "a"}))

	require.NoError(t, r.Configure("a", func(b dataformat.Builder) error {
		b.Set("level", 3)
		return nil
	}))
	require.NoError(t, r.Configure("a", func(b dataformat.Builder) error {
		level, _ := b.(*stubBuilder).cfg.Get("level")
		assert.Equal(t, 3, level, "configurators see the current defaults")
		return nil
	}))

	boom := errors.New("boom")
	assert.ErrorIs(t, r.Configure("a", func(dataformat.Builder) error { return boom }), boom)

	err := r.Configure("a", func(b dataformat.Builder) error {
		b.Set("unknown", true)
		return nil
	})
	var cfgErr *dataformat.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	var unknown *dataformat.UnknownFormatError
	assert.ErrorAs(t, r.Configure("b", func(dataformat.Builder) error { return nil }), &unknown)

	cfg, err := r.Defaults("a")
	require.NoError(t, err)
	level, _ := cfg.Get("level")
	assert.Equal(t, 3, level, "failed configurators keep the previous defaults")
}

func TestRegistry_ConcurrentLookups(t *testing.T) {
	r := dataformat.NewRegistry()
	a := &stub{name: "a", prefix: "{"}
	require.NoError(t, r.Register(a))

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				f, err := r.ForInput([]byte("{}"))
				if err != nil || f != a {
					t.Errorf("ForInput() = %v, %v", f, err)
					return
				}
			}
		}()
	}
	wg.Wait()
	assert.True(t, r.Sealed())
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	assert.ErrorIs(t, dataformat.NewParseError("f", []byte("x"), cause), cause)
	assert.ErrorIs(t, &dataformat.MappingError{Format: "f", Err: cause}, cause)
	assert.ErrorIs(t, &dataformat.QueryError{Format: "f", Expr: "$", Reason: "r", Err: cause}, cause)

	assert.Equal(t, `type mismatch at "/": expected object, got array`,
		(&dataformat.TypeMismatchError{Expected: "object", Actual: "array"}).Error())
	assert.Equal(t, "a b", dataformat.Snippet([]byte("a\tb")))

	// The 40-byte cut falls inside the 20th "é".
	long := "a" + strings.Repeat("é", 30)
	snippet := dataformat.Snippet([]byte(long))
	assert.Equal(t, "a"+strings.Repeat("é", 19)+"...", snippet)
	assert.True(t, utf8.ValidString(snippet))
	assert.NotContains(t, snippet, string(utf8.RuneError))
}
