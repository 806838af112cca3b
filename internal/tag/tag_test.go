package tag

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type inner struct {
	Zone string `json:"zone"`
}

type sample struct {
	inner
	Name     string `json:"name"`
	Nick     string `json:"nick,omitempty"`
	Ignored  string `json:"-"`
	Plain    int
	Named    inner `json:"named"`
	internal string
}

func TestParse(t *testing.T) {
	typ := reflect.TypeOf(sample{})
	field := func(name string) reflect.StructField {
		f, ok := typ.FieldByName(name)
		if !ok {
			t.Fatalf("no field %s", name)
		}
		return f
	}

	assert.Equal(t, FieldInfo{Inline: true}, Parse(field("inner"), ""))
	assert.Equal(t, FieldInfo{Key: "name"}, Parse(field("Name"), "json"))
	assert.Equal(t, FieldInfo{Key: "nick", OmitEmpty: true}, Parse(field("Nick"), "json"))
	assert.Equal(t, FieldInfo{Skip: true}, Parse(field("Ignored"), "json"))
	assert.Equal(t, FieldInfo{Key: "Plain"}, Parse(field("Plain"), "json"))
	assert.Equal(t, FieldInfo{Key: "named"}, Parse(field("Named"), "json"))
	assert.Equal(t, FieldInfo{Skip: true}, Parse(field("internal"), "json"))
	assert.Equal(t, "name", ParseKey(field("Name"), "json"))
}
