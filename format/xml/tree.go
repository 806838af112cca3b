package xml

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/beevik/etree"

	"github.com/summit58/camunda-spin/internal/coerce"
)

// Keys used when elements are converted to generic trees.
const (
	textKey    = "#text"
	attrPrefix = "@"
	itemName   = "item"

	defaultRoot = "root"
)

// elementValue converts x into a generic tree.
func elementValue(x *etree.Element) any {
	children := x.ChildElements()
	attrs := attributes(x)
	if len(children) == 0 && len(attrs) == 0 {
		return textContent(x)
	}

	m := make(map[string]any, len(attrs)+len(children))
	for _, a := range attrs {
		m[attrPrefix+a.FullKey()] = a.Value
	}
	for _, c := range children {
		name, v := c.FullTag(), elementValue(c)
		prev, ok := m[name]
		switch {
		case !ok:
			m[name] = v
		default:
			if list, isList := prev.([]any); isList {
				m[name] = append(list, v)
			} else {
				m[name] = []any{prev, v}
			}
		}
	}
	if len(children) == 0 {
		if text := strings.TrimSpace(textContent(x)); text != "" {
			m[textKey] = text
		}
	}
	return m
}

// FromTree builds a detached element from a generic tree. A map with a
// single non-list entry names the root element; any other tree is placed
// under <root>. Keys starting with "@" become attributes, "#text" becomes
// character data and lists become repeated elements.
func FromTree(tree any) (*etree.Element, error) {
	if m, ok := tree.(map[string]any); ok && len(m) == 1 {
		for name, v := range m {
			if _, isList := v.([]any); !isList && validName(name) {
				root := etree.NewElement(name)
				return root, fill(root, v)
			}
		}
	}
	root := etree.NewElement(defaultRoot)
	return root, fill(root, tree)
}

func fill(x *etree.Element, v any) error {
	switch typed := v.(type) {
	case nil:
		return nil
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for k := range typed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := fillKey(x, k, typed[k]); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for _, item := range typed {
			if err := fill(x.CreateElement(itemName), item); err != nil {
				return err
			}
		}
		return nil
	}
	s, err := coerce.String(v)
	if err != nil {
		return fmt.Errorf("unsupported value of type %T", v)
	}
	setText(x, s)
	return nil
}

func fillKey(x *etree.Element, key string, v any) error {
	switch {
	case key == textKey:
		s, err := coerce.String(v)
		if err != nil {
			return fmt.Errorf("%s: unsupported value of type %T", textKey, v)
		}
		setText(x, s)
		return nil
	case strings.HasPrefix(key, attrPrefix):
		name := key[len(attrPrefix):]
		if !validName(name) {
			return fmt.Errorf("%q is not a valid attribute name", name)
		}
		s, err := coerce.String(v)
		if err != nil {
			return fmt.Errorf("attribute %s: unsupported value of type %T", name, v)
		}
		x.CreateAttr(name, s)
		return nil
	}
	if !validName(key) {
		return fmt.Errorf("%q is not a valid element name", key)
	}
	if list, ok := v.([]any); ok {
		for _, item := range list {
			if err := fill(x.CreateElement(key), item); err != nil {
				return err
			}
		}
		return nil
	}
	return fill(x.CreateElement(key), v)
}

// setText leaves x empty for blank text so it is written as <x/>.
func setText(x *etree.Element, s string) {
	if s != "" {
		x.SetText(s)
	}
}

// validName reports whether s can be used as an element or attribute name.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == ':' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return true
}
