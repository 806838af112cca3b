package types

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customer struct {
	Name string `json:"name"`
}

type order struct {
	ID int `json:"id"`
}

func TestParse_Canonical(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Customer", "Customer"},
		{"List<Customer>", "List<Customer>"},
		{"List< Customer >", "List<Customer>"},
		{"[]Customer", "List<Customer>"},
		{"map[string][]int", "Map<string,List<int>>"},
		{"Map<string, List<int>>", "Map<string,List<int>>"},
		{"*Customer", "Ptr<Customer>"},
		{"[]*Customer", "List<Ptr<Customer>>"},
		{"com.acme.Customer", "com.acme.Customer"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Canonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{"", "List<", "List<int", "map[string", "List<int>>", "<int>"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry().MustRegister("Customer", &customer{})

	tests := []struct {
		descriptor string
		want       reflect.Type
	}{
		{"Customer", reflect.TypeOf(customer{})},
		{"List<Customer>", reflect.TypeOf([]customer{})},
		{"[]Customer", reflect.TypeOf([]customer{})},
		{"Map<string,Ptr<Customer>>", reflect.TypeOf(map[string]*customer{})},
		{"time", reflect.TypeOf(time.Time{})},
		{"number", reflect.TypeOf(float64(0))},
		{"List<any>", reflect.TypeOf([]any{})},
	}

	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			got, err := r.Resolve(tt.descriptor)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_ResolveErrors(t *testing.T) {
	r := NewRegistry()

	_, err := r.Resolve("Customer")
	assert.ErrorContains(t, err, `unknown type "Customer"`)

	_, err = r.Resolve("List<int,int>")
	assert.Error(t, err)

	_, err = r.Resolve("Map<List<int>,int>")
	assert.ErrorContains(t, err, "not comparable")

	_, err = r.Resolve("string<int>")
	assert.ErrorContains(t, err, "not generic")
}

func TestRegistry_NilKnowsBuiltins(t *testing.T) {
	var r *Registry
	got, err := r.Resolve("List<string>")
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf([]string{}), got)
	assert.Equal(t, "Map<string,List<int64>>", r.CanonicalNameOf(map[string][]int64{}))
}

func TestRegistry_RegisterConflicts(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("Customer", customer{}))
	require.NoError(t, r.Register("Customer", &customer{}), "re-registering the same binding is allowed")

	assert.Error(t, r.Register("Customer", order{}))
	assert.Error(t, r.Register("Client", customer{}))
	assert.Error(t, r.Register("string", order{}))
	assert.Error(t, r.Register("List", order{}))
	assert.Error(t, r.Register("", order{}))
}

func TestRegistry_CanonicalNameRoundTrip(t *testing.T) {
	r := NewRegistry().MustRegister("Customer", customer{})

	values := []any{
		[]customer{{Name: "a"}},
		map[string][]*customer{},
		"text",
		[]byte("raw"),
		time.Now(),
		[]any{1, "x"},
	}
	for _, v := range values {
		name := r.CanonicalNameOf(v)
		got, err := r.Resolve(name)
		require.NoError(t, err, name)
		assert.Equal(t, reflect.TypeOf(v), got, name)
	}

	assert.Equal(t, "types.order", r.CanonicalNameOf(order{}))
	assert.Equal(t, "any", r.CanonicalNameOf(nil))
}
