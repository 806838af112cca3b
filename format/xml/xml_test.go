package xml

import (
	"bytes"
	encxml "encoding/xml"
	"reflect"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/mapdoc"
	"github.com/summit58/camunda-spin/spintest"
	"github.com/summit58/camunda-spin/types"
)

const orderXML = `<order xmlns="urn:shop" xmlns:x="urn:ext" id="42" x:channel="web">` +
	`<item sku="a1">Apple</item>` +
	`<item sku="b2">Banana</item>` +
	`<note>fast</note>` +
	`</order>`

func parseOrder(t *testing.T) *Element {
	t.Helper()
	root, err := Parse([]byte(orderXML), nil)
	require.NoError(t, err)
	return root
}

// TestFormat_Compliance runs the standard spintest compliance tests.
func TestFormat_Compliance(t *testing.T) {
	spintest.NewFormatTester(t, Format,
		spintest.SkipTreeTest("XML documents are element trees"),
	).TestAll()
}

func TestFormat_Registered(t *testing.T) {
	byName, err := dataformat.Default().ByName(Name)
	require.NoError(t, err)
	byAlias, err := dataformat.Default().ByName(Alias)
	require.NoError(t, err)
	assert.Same(t, Format, byName)
	assert.Same(t, Format, byAlias)
}

func TestMatchesInput(t *testing.T) {
	assert.True(t, Format.MatchesInput([]byte("  <a/>")))
	assert.True(t, Format.MatchesInput([]byte("\xEF\xBB\xBF<?xml version=\"1.0\"?><a/>")))
	assert.False(t, Format.MatchesInput([]byte(`{"a":1}`)))
	assert.False(t, Format.MatchesInput(nil))
}

type tagged struct {
	XMLName encxml.Name `xml:"tagged"`
}

type custom struct{}

func (custom) MarshalXML(*encxml.Encoder, encxml.StartElement) error { return nil }

func TestMatchesType(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{tagged{}, true},
		{&tagged{}, true},
		{custom{}, true},
		{etree.NewElement("a"), true},
		{etree.NewDocument(), true},
		{struct{ Name string }{}, false},
		{map[string]any{}, false},
		{"text", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format.MatchesType(reflect.TypeOf(tt.v)), "%T", tt.v)
	}
	assert.False(t, Format.MatchesType(nil))
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "   ", "<a><b></a>", "just text"} {
		_, err := Parse([]byte(in), nil)
		var parseErr *dataformat.ParseError
		require.ErrorAs(t, err, &parseErr, "%q", in)
		assert.Equal(t, Name, parseErr.Format)
	}
}

func TestParse_Validating(t *testing.T) {
	in := []byte(`<x:a><b/></x:a>`)

	_, err := Parse(in, nil)
	require.NoError(t, err)

	cfg, err := Configure().Validating(true).Done()
	require.NoError(t, err)
	_, err = Parse(in, cfg)
	var parseErr *dataformat.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "undeclared namespace prefix")

	_, err = Parse([]byte(`<x:a xmlns:x="urn:x"><b/></x:a>`), cfg)
	assert.NoError(t, err)
}

func TestElement_Names(t *testing.T) {
	root := parseOrder(t)
	assert.Equal(t, "order", root.Name())
	assert.Equal(t, "urn:shop", root.Namespace())
	assert.True(t, root.HasNamespace("urn:shop"))

	item, err := root.ChildElement("item")
	require.NoError(t, err)
	assert.Equal(t, "urn:shop", item.Namespace(), "default namespace is inherited")

	channel, err := root.AttrNS("urn:ext", "channel")
	require.NoError(t, err)
	assert.Equal(t, "channel", channel.Name())
	assert.Equal(t, "x", channel.Prefix())
	assert.Equal(t, "urn:ext", channel.Namespace())
	assert.Equal(t, "web", channel.Value())

	id, err := root.Attr("id")
	require.NoError(t, err)
	assert.Equal(t, "", id.Namespace())

	cfg, err := Configure().NamespaceAware(false).Done()
	require.NoError(t, err)
	plain, err := Parse([]byte(`<x:a xmlns:x="urn:x" x:k="v"/>`), cfg)
	require.NoError(t, err)
	assert.Equal(t, "x:a", plain.Name())
	assert.Equal(t, "", plain.Namespace())
	assert.False(t, plain.HasAttrNS("urn:x", "k"))
	assert.True(t, plain.HasAttr("x:k"))
}

func TestElement_Navigation(t *testing.T) {
	root := parseOrder(t)

	assert.Equal(t, dataformat.KindObject, root.Kind())
	assert.Equal(t, 3, root.Len())
	assert.Equal(t, []string{"item", "note"}, root.FieldNames())
	assert.Equal(t, []string{"id", "x:channel"}, root.AttrNames())
	assert.Len(t, root.ChildElements("item"), 2)
	assert.Len(t, root.ChildElements(""), 3)
	assert.True(t, root.HasProp("note"))
	assert.True(t, root.HasProp("@id"))
	assert.False(t, root.HasProp("@xmlns"))

	note, err := root.Field("note")
	require.NoError(t, err)
	assert.True(t, note.IsString())
	assert.Equal(t, "fast", note.Value())
	assert.Equal(t, "/note", note.Path())

	second, err := root.At("/1")
	require.NoError(t, err)
	assert.Equal(t, "Banana", second.Value().(map[string]any)["#text"])
	assert.Equal(t, "/1", second.Path())

	sku, err := root.At("/1/@sku")
	require.NoError(t, err)
	assert.Equal(t, "b2", sku.Value())
	assert.Equal(t, "/1/@sku", sku.Path())

	again, err := root.At(sku.Path())
	require.NoError(t, err)
	assert.Equal(t, "b2", again.Value())

	assert.Equal(t, 1, root.IndexOf("Banana"))
	assert.Equal(t, 2, root.LastIndexOf("fast"))
	assert.Equal(t, -1, root.IndexOf("Cherry"))
	assert.Equal(t, 2, root.IndexOf(note))

	_, ok := root.Lookup("/note/missing")
	assert.False(t, ok)
}

func TestElement_NavigationErrors(t *testing.T) {
	root := parseOrder(t)

	_, err := root.Field("missing")
	var noField *dataformat.NoSuchFieldError
	require.ErrorAs(t, err, &noField)
	assert.Equal(t, "missing", noField.Field)

	_, err = root.Field("@missing")
	require.ErrorAs(t, err, &noField)

	_, err = root.ElementAt(3)
	var oob *dataformat.IndexOutOfBoundsError
	require.ErrorAs(t, err, &oob)
	assert.Equal(t, 3, oob.Len)

	id, err := root.Field("@id")
	require.NoError(t, err)
	_, err = id.Field("x")
	var mismatch *dataformat.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "/@id", mismatch.Path)

	_, err = root.At("/@id/more")
	assert.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "42", id.Value(), "failed calls leave the node usable")

	doc, err := Parse([]byte(`<order><id>42</id></order>`), nil)
	require.NoError(t, err)
	leaf, err := doc.ChildElement("id")
	require.NoError(t, err)
	require.True(t, leaf.IsString())
	for _, name := range []string{"x", "@x"} {
		_, err = leaf.Field(name)
		require.ErrorAs(t, err, &mismatch, name)
		assert.Equal(t, "/id", mismatch.Path)
		assert.Equal(t, "object", mismatch.Expected)
		assert.Equal(t, "string", mismatch.Actual)
	}
	_, err = doc.At("/id/x")
	assert.ErrorAs(t, err, &mismatch)
	assert.Equal(t, `<order><id>42</id></order>`, doc.String())
}

func TestElement_Value(t *testing.T) {
	root, err := Parse([]byte(`<a x="1"><b>1</b><b>2</b><c/><d y="2">t</d></a>`), nil)
	require.NoError(t, err)

	want := map[string]any{
		"@x": "1",
		"b":  []any{"1", "2"},
		"c":  "",
		"d":  map[string]any{"@y": "2", "#text": "t"},
	}
	if diff := cmp.Diff(want, root.Value()); diff != "" {
		t.Errorf("Value() mismatch (-want +got):\n%s", diff)
	}

	rebuilt, err := FromTree(root.ToTree())
	require.NoError(t, err)
	doc := etree.NewDocument()
	doc.SetRoot(rebuilt)
	s, err := doc.WriteToString()
	require.NoError(t, err)
	assert.Equal(t, `<a x="1"><b>1</b><b>2</b><c/><d y="2">t</d></a>`, s)
}

func TestFromTree(t *testing.T) {
	root, err := FromTree([]any{"x", map[string]any{"k": int64(1)}})
	require.NoError(t, err)
	doc := etree.NewDocument()
	doc.SetRoot(root)
	s, err := doc.WriteToString()
	require.NoError(t, err)
	assert.Equal(t, `<root><item>x</item><item><k>1</k></item></root>`, s)

	_, err = FromTree(map[string]any{"bad name": "x", "ok": "y"})
	assert.Error(t, err)
}

func TestMutation(t *testing.T) {
	list, err := Parse([]byte(`<list><a/><c/></list>`), nil)
	require.NoError(t, err)
	a, err := list.ChildElement("a")
	require.NoError(t, err)
	c, err := list.ChildElement("c")
	require.NoError(t, err)

	newElem := func(name string) *Element {
		e, err := NewElement(name, nil)
		require.NoError(t, err)
		return e
	}

	require.NoError(t, list.AppendBefore(newElem("b"), c))
	assert.Equal(t, `<list><a/><b/><c/></list>`, list.String())

	d := newElem("d")
	require.NoError(t, list.AppendAfter(d, c))
	assert.Equal(t, `<list><a/><b/><c/><d/></list>`, list.String())

	require.NoError(t, list.Remove(a))
	assert.Equal(t, `<list><b/><c/><d/></list>`, list.String())

	require.NoError(t, c.Replace(newElem("e")))
	assert.Equal(t, `<list><b/><e/><d/></list>`, list.String())

	require.NoError(t, list.ReplaceChild(d, newElem("f")))
	assert.Equal(t, `<list><b/><e/><f/></list>`, list.String())

	b, err := list.ChildElement("b")
	require.NoError(t, err)
	b.SetTextContent("x").SetAttr("k", "v")
	assert.Equal(t, `<list><b k="v">x</b><e/><f/></list>`, list.String())
	require.NoError(t, b.RemoveAttr("k"))
	assert.Equal(t, `<list><b>x</b><e/><f/></list>`, list.String())

	assert.Error(t, list.Append(list), "element cannot contain itself")
	assert.Error(t, b.Append(list), "element cannot contain its ancestor")
	assert.Error(t, list.Remove(a), "a is no longer a child")
	assert.Error(t, list.AppendBefore(newElem("g"), a))
	assert.Error(t, a.Replace(newElem("h")), "detached elements have no position")
	var noField *dataformat.NoSuchFieldError
	assert.ErrorAs(t, b.RemoveAttr("missing"), &noField)
}

func TestMutation_AppendMovesElement(t *testing.T) {
	src, err := Parse([]byte(`<src><moved>1</moved></src>`), nil)
	require.NoError(t, err)
	dst, err := Parse([]byte(`<dst/>`), nil)
	require.NoError(t, err)

	moved, err := src.ChildElement("moved")
	require.NoError(t, err)
	require.NoError(t, dst.Append(moved))

	assert.Equal(t, `<src/>`, src.String())
	assert.Equal(t, `<dst><moved>1</moved></dst>`, dst.String())
	assert.Equal(t, "/moved", moved.Path())
}

func TestMutation_Attributes(t *testing.T) {
	root, err := Parse([]byte(`<a/>`), nil)
	require.NoError(t, err)

	root.SetAttrNS("urn:n", "k", "v").SetAttrNS("urn:n", "l", "w")
	assert.Equal(t, `<a xmlns:ns0="urn:n" ns0:k="v" ns0:l="w"/>`, root.String())

	k, err := root.AttrNS("urn:n", "k")
	require.NoError(t, err)
	require.NoError(t, k.SetValue("changed"))
	assert.Equal(t, "changed", k.Value())

	require.NoError(t, k.Remove())
	assert.True(t, k.IsNull(), "removed attribute reads as null")
	assert.Equal(t, []string{"ns0:l"}, root.AttrNames())
	assert.Len(t, root.Attrs(), 1)
}

func TestViewSemantics(t *testing.T) {
	root := parseOrder(t)
	note, err := root.ChildElement("note")
	require.NoError(t, err)
	note.SetTextContent("slow")

	q, err := root.XPath("note")
	require.NoError(t, err)
	s, err := q.String()
	require.NoError(t, err)
	assert.Equal(t, "slow", s)
	assert.Contains(t, root.String(), "<note>slow</note>")
}

func TestXPath(t *testing.T) {
	root := parseOrder(t)

	q, err := root.XPath("item")
	require.NoError(t, err)
	assert.Equal(t, 2, q.Len())
	_, err = q.Element()
	var queryErr *dataformat.QueryError
	require.ErrorAs(t, err, &queryErr, "two matches are not a single element")

	q, err = root.XPath("./item[@sku='b2']")
	require.NoError(t, err)
	item, err := q.Element()
	require.NoError(t, err)
	assert.Equal(t, "Banana", item.TextContent())

	q, err = root.XPath("item/@sku")
	require.NoError(t, err)
	attrs, err := q.Attributes()
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	assert.Equal(t, "a1", attrs[0].Value())
	assert.Equal(t, "b2", attrs[1].Value())
	_, err = q.Elements()
	assert.ErrorAs(t, err, &queryErr)

	q, err = root.XPath("@id")
	require.NoError(t, err)
	s, err := q.String()
	require.NoError(t, err)
	assert.Equal(t, "42", s)

	q, err = root.XPath("item[1]/@*")
	require.NoError(t, err)
	assert.Equal(t, 1, q.Len())

	q, err = root.XPath("//note")
	require.NoError(t, err)
	s, err = q.String()
	require.NoError(t, err)
	assert.Equal(t, "fast", s)

	q, err = root.XPath("missing")
	require.NoError(t, err)
	assert.False(t, q.Exists())
	_, err = q.Element()
	assert.ErrorAs(t, err, &queryErr)

	_, err = root.XPath("item[")
	require.ErrorAs(t, err, &queryErr)
	assert.Equal(t, "item[", queryErr.Expr)
}

type Order struct {
	XMLName encxml.Name `xml:"order"`
	ID      string      `xml:"id,attr"`
	Items   []Item      `xml:"item"`
}

type Item struct {
	SKU  string `xml:"sku,attr"`
	Name string `xml:",chardata"`
}

func TestMapping(t *testing.T) {
	root := parseOrder(t)

	var order Order
	require.NoError(t, root.MapTo(&order))
	want := Order{
		XMLName: encxml.Name{Space: "urn:shop", Local: "order"},
		ID:      "42",
		Items:   []Item{{SKU: "a1", Name: "Apple"}, {SKU: "b2", Name: "Banana"}},
	}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("MapTo() mismatch (-want +got):\n%s", diff)
	}

	id, err := root.Field("@id")
	require.NoError(t, err)
	var n int
	require.NoError(t, id.MapTo(&n))
	assert.Equal(t, 42, n)

	var wrong struct {
		ID int `xml:"note"`
	}
	var mappingErr *dataformat.MappingError
	assert.ErrorAs(t, root.MapTo(&wrong), &mappingErr)

	out, err := FromNative(Order{ID: "7", Items: []Item{{SKU: "s", Name: "A&B"}}}, nil)
	require.NoError(t, err)
	assert.Equal(t, `<order id="7"><item sku="s">A&amp;B</item></order>`, out.String())
}

func TestMapToType(t *testing.T) {
	reg := types.NewRegistry().MustRegister("Order", Order{})
	cfg, err := Configure().Types(reg).Done()
	require.NoError(t, err)
	root, err := Parse([]byte(orderXML), cfg)
	require.NoError(t, err)

	v, err := root.MapToType("Order")
	require.NoError(t, err)
	order, ok := v.(Order)
	require.True(t, ok, "MapToType returned %T", v)
	assert.Len(t, order.Items, 2)

	_, err = root.MapToType("Customer")
	var mappingErr *dataformat.MappingError
	require.ErrorAs(t, err, &mappingErr)
	assert.Equal(t, "Customer", mappingErr.Type)
}

func TestSerialize(t *testing.T) {
	cfg, err := Configure().PrettyPrint(true).Indent(4).XMLDeclaration(true).Done()
	require.NoError(t, err)
	root, err := Parse([]byte(`<a><b>x</b></a>`), cfg)
	require.NoError(t, err)

	got := root.String()
	assert.True(t, strings.HasPrefix(got, `<?xml version="1.0" encoding="UTF-8"?>`), got)
	assert.Contains(t, got, "<a>\n    <b>x</b>\n</a>")

	// A child carries the namespace declarations in scope.
	item, err := parseOrder(t).ChildElement("item")
	require.NoError(t, err)
	assert.Equal(t, `<item sku="a1" xmlns="urn:shop" xmlns:x="urn:ext">Apple</item>`, item.String())

	var buf bytes.Buffer
	written, err := item.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), written)

	sku, err := item.Attr("sku")
	require.NoError(t, err)
	assert.Equal(t, "a1", sku.String())
}

func TestSerialize_ForeignNode(t *testing.T) {
	n := mapdoc.New(nil, nil, map[string]any{"a": map[string]any{"@id": "1", "b": "x"}})
	var buf bytes.Buffer
	require.NoError(t, Format.Serialize(n, &buf))
	assert.Equal(t, `<a id="1"><b>x</b></a>`, buf.String())
}

func TestConfigure(t *testing.T) {
	_, err := Configure().Indent(-1).Done()
	var cfgErr *dataformat.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "indent", cfgErr.Option)

	b := Configure()
	_, err = b.Done()
	require.NoError(t, err)
	_, err = b.PrettyPrint(true).Done()
	assert.ErrorAs(t, err, &cfgErr, "builder cannot be reused")

	cfg, err := Configure().PrettyPrint(true).Done()
	require.NoError(t, err)
	pretty, err := Parse([]byte(`<a><b/></a>`), cfg)
	require.NoError(t, err)
	plain, err := Parse([]byte(`<a><b/></a>`), nil)
	require.NoError(t, err)
	assert.NotEqual(t, pretty.String(), plain.String())
	assert.Equal(t, `<a><b/></a>`, plain.String(), "per-call configuration leaves defaults alone")

	b2, err := pretty.ChildElement("b")
	require.NoError(t, err)
	assert.Same(t, pretty.Config(), b2.Config(), "derived nodes share the configuration")
}
