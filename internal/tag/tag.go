// Package tag parses the struct tags that drive native value mapping.
package tag

import (
	"reflect"
	"strings"
)

// DefaultTagName is the struct tag consulted for field names.
const DefaultTagName = "json"

// FieldInfo describes how a struct field is mapped.
type FieldInfo struct {
	// Key is the tree key (from the tag, or the Go field name).
	Key string

	// Skip is true for `json:"-"` and unexported fields.
	Skip bool

	// OmitEmpty is true when the tag carries the omitempty option.
	OmitEmpty bool

	// Inline is true for embedded structs without an explicit key; their
	// fields are promoted into the parent object.
	Inline bool
}

// Parse returns the mapping information of a struct field.
func Parse(field reflect.StructField, tagName string) FieldInfo {
	if tagName == "" {
		tagName = DefaultTagName
	}

	tag, hasTag := field.Tag.Lookup(tagName)
	if tag == "-" {
		return FieldInfo{Skip: true}
	}

	key, opts := splitTag(tag)
	info := FieldInfo{Key: key}
	for _, opt := range opts {
		if opt == "omitempty" {
			info.OmitEmpty = true
		}
	}

	if field.Anonymous && (!hasTag || key == "") {
		t := field.Type
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if t.Kind() == reflect.Struct {
			info.Inline = true
			return info
		}
	}

	if !field.IsExported() {
		return FieldInfo{Skip: true}
	}
	if info.Key == "" {
		info.Key = field.Name
	}
	return info
}

// ParseKey returns only the tree key of a field.
func ParseKey(field reflect.StructField, tagName string) string {
	return Parse(field, tagName).Key
}

func splitTag(tag string) (string, []string) {
	if tag == "" {
		return "", nil
	}
	parts := strings.Split(tag, ",")
	return parts[0], parts[1:]
}
