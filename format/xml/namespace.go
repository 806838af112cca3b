package xml

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

func isNamespaceDecl(a etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}

// attributes returns the attributes of x without namespace declarations.
func attributes(x *etree.Element) []etree.Attr {
	out := make([]etree.Attr, 0, len(x.Attr))
	for _, a := range x.Attr {
		if !isNamespaceDecl(a) {
			out = append(out, a)
		}
	}
	return out
}

// lookupNamespace resolves prefix in the scope of x. The empty prefix
// resolves the default namespace.
func lookupNamespace(x *etree.Element, prefix string) string {
	if prefix == "xml" {
		return xmlNamespace
	}
	for ; x != nil; x = x.Parent() {
		for _, a := range x.Attr {
			if prefix == "" && a.Space == "" && a.Key == "xmlns" {
				return a.Value
			}
			if prefix != "" && a.Space == "xmlns" && a.Key == prefix {
				return a.Value
			}
		}
	}
	return ""
}

// prefixFor returns a prefix bound to uri in the scope of x.
func prefixFor(x *etree.Element, uri string) (string, bool) {
	for p := x; p != nil; p = p.Parent() {
		for _, a := range p.Attr {
			if a.Space == "xmlns" && a.Value == uri && lookupNamespace(x, a.Key) == uri {
				return a.Key, true
			}
		}
	}
	return "", false
}

// freePrefix returns a generated prefix that is unbound in the scope of x.
func freePrefix(x *etree.Element) string {
	for i := 0; ; i++ {
		p := "ns" + strconv.Itoa(i)
		if lookupNamespace(x, p) == "" {
			return p
		}
	}
}

// checkPrefixes fails when an element or attribute under root uses an
// undeclared prefix.
func checkPrefixes(root *etree.Element) error {
	if root.Space != "" && lookupNamespace(root, root.Space) == "" {
		return fmt.Errorf("element <%s>: undeclared namespace prefix %q", root.FullTag(), root.Space)
	}
	for _, a := range attributes(root) {
		if a.Space != "" && lookupNamespace(root, a.Space) == "" {
			return fmt.Errorf("attribute %s of <%s>: undeclared namespace prefix %q", a.FullKey(), root.FullTag(), a.Space)
		}
	}
	for _, c := range root.ChildElements() {
		if err := checkPrefixes(c); err != nil {
			return err
		}
	}
	return nil
}
