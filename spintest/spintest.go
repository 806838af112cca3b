// Package spintest provides compliance tests for dataformat.DataFormat
// implementations.
//
// Example usage:
//
//	func TestFormat_Compliance(t *testing.T) {
//	    spintest.NewFormatTester(t, yaml.Format).TestAll()
//	}
//
// Formats that cannot represent some documents opt out of the affected
// tests with a documented reason:
//
//	spintest.NewFormatTester(t, toml.Format,
//	    spintest.SkipNullTest("TOML has no null value"),
//	).TestAll()
package spintest

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/summit58/camunda-spin/dataformat"
)

// testT is the minimal testing interface used by spintest utilities.
type testT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
}

func require(t testT, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func requireNoError(t testT, err error, format string, args ...any) {
	t.Helper()
	if err != nil {
		t.Fatalf(format, args...)
	}
}

func check(t testT, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Errorf(format, args...)
	}
}

// FormatTesterOption configures FormatTester behavior.
type FormatTesterOption func(*FormatTester)

// SkipNullTest skips tests that store null values.
// The reason parameter is required to document why the test is skipped.
func SkipNullTest(reason string) FormatTesterOption {
	return func(ft *FormatTester) {
		ft.skipNullReason = reason
	}
}

// SkipRootArrayTest skips tests whose document root is an array.
// The reason parameter is required to document why the test is skipped.
func SkipRootArrayTest(reason string) FormatTesterOption {
	return func(ft *FormatTester) {
		ft.skipRootArrayReason = reason
	}
}

// SkipProbeTest skips the check that MatchesInput accepts the format's own
// output. Use this for formats that are only selected by name.
// The reason parameter is required to document why the test is skipped.
func SkipProbeTest(reason string) FormatTesterOption {
	return func(ft *FormatTester) {
		ft.skipProbeReason = reason
	}
}

// SkipTreeTest skips tests that assume documents are generic trees of
// objects, arrays and scalars: navigation, kind checks, null values and
// array roots. Use this for element-based formats such as XML.
// The reason parameter is required to document why the test is skipped.
func SkipTreeTest(reason string) FormatTesterOption {
	return func(ft *FormatTester) {
		ft.skipTreeReason = reason
	}
}

// FormatTester verifies the generic contract of a data format: parsing and
// serializing round-trip, navigation failures are typed, mapping round-trips
// and configurations are validated.
type FormatTester struct {
	t      *testing.T
	format dataformat.DataFormat

	skipNullReason      string
	skipRootArrayReason string
	skipProbeReason     string
	skipTreeReason      string
}

// NewFormatTester creates a FormatTester for f.
func NewFormatTester(t *testing.T, f dataformat.DataFormat, opts ...FormatTesterOption) *FormatTester {
	ft := &FormatTester{t: t, format: f}
	for _, opt := range opts {
		opt(ft)
	}
	return ft
}

// TestAll runs all standard compliance tests.
func (ft *FormatTester) TestAll() {
	ft.t.Run("RoundTrip", ft.testRoundTrip)
	ft.t.Run("CreateEmpty", ft.testCreateEmpty)
	ft.t.Run("Navigation", ft.testNavigation)
	ft.t.Run("TypeMismatch", ft.testTypeMismatch)
	ft.t.Run("NullValues", ft.testNullValues)
	ft.t.Run("RootArray", ft.testRootArray)
	ft.t.Run("MappingRoundTrip", ft.testMappingRoundTrip)
	ft.t.Run("ProbeOwnOutput", ft.testProbeOwnOutput)
	ft.t.Run("Configuration", ft.testConfiguration)
	ft.t.Run("MalformedInput", ft.testMalformedInput)
}

// sample is the document most tests start from.
func sample() map[string]any {
	return map[string]any{
		"name":   "spin",
		"count":  int64(3),
		"ratio":  0.5,
		"active": true,
		"tags":   []any{"a", "b", "a"},
		"nested": map[string]any{"key": "value"},
	}
}

// Record is mapped to and from trees in the mapping tests.
type Record struct {
	Name    string         `json:"name" xml:"name"`
	Count   int            `json:"count" xml:"count"`
	Tags    []string       `json:"tags" xml:"tags"`
	Created time.Time      `json:"created" xml:"created"`
	Labels  map[string]int `json:"labels,omitempty" xml:"-"`
}

// fromTree builds a node holding tree through the format's own text form.
func (ft *FormatTester) fromTree(t *testing.T, tree any) dataformat.Node {
	t.Helper()
	n, err := ft.format.MapFromNative(tree, nil)
	requireNoError(t, err, "MapFromNative error = %v", err)
	raw, err := n.Marshal()
	requireNoError(t, err, "Marshal error = %v", err)
	parsed, err := ft.format.Parse(raw, nil)
	requireNoError(t, err, "Parse(%q) error = %v", raw, err)
	return parsed
}

func (ft *FormatTester) testRoundTrip(t *testing.T) {
	n := ft.fromTree(t, sample())

	first, err := n.Marshal()
	requireNoError(t, err, "Marshal error = %v", err)
	again, err := ft.format.Parse(first, nil)
	requireNoError(t, err, "Parse(Marshal) error = %v", err)
	second, err := again.Marshal()
	requireNoError(t, err, "second Marshal error = %v", err)

	check(t, string(first) == string(second), "serialization not stable:\nfirst:  %s\nsecond: %s", first, second)
	check(t, valuesEqual(n.Value(), again.Value()), "round trip changed value: %v != %v", n.Value(), again.Value())
}

func (ft *FormatTester) testCreateEmpty(t *testing.T) {
	n, err := ft.format.CreateEmpty(nil)
	requireNoError(t, err, "CreateEmpty error = %v", err)
	if ft.skipTreeReason == "" {
		check(t, n.IsObject(), "CreateEmpty kind = %v, want object", n.Kind())
	}
	check(t, n.Len() == 0, "CreateEmpty Len = %d, want 0", n.Len())
	check(t, n.Format().Name() == ft.format.Name(), "Format = %q, want %q", n.Format().Name(), ft.format.Name())
}

func (ft *FormatTester) testNavigation(t *testing.T) {
	if ft.skipTreeReason != "" {
		t.Skip(ft.skipTreeReason)
	}
	n := ft.fromTree(t, sample())

	name, err := n.Field("name")
	requireNoError(t, err, "Field(name) error = %v", err)
	check(t, name.IsString(), "name kind = %v, want string", name.Kind())
	check(t, valuesEqual(name.Value(), "spin"), "name = %v, want spin", name.Value())

	tags, err := n.Field("tags")
	requireNoError(t, err, "Field(tags) error = %v", err)
	require(t, tags.IsArray(), "tags kind = %v, want array", tags.Kind())
	check(t, tags.Len() == 3, "tags Len = %d, want 3", tags.Len())
	check(t, tags.IndexOf("a") == 0, "IndexOf(a) = %d, want 0", tags.IndexOf("a"))
	check(t, tags.LastIndexOf("a") == 2, "LastIndexOf(a) = %d, want 2", tags.LastIndexOf("a"))
	check(t, tags.IndexOf("zzz") == -1, "IndexOf(zzz) = %d, want -1", tags.IndexOf("zzz"))

	second, err := tags.ElementAt(1)
	requireNoError(t, err, "ElementAt(1) error = %v", err)
	check(t, valuesEqual(second.Value(), "b"), "tags[1] = %v, want b", second.Value())

	key, err := n.At("/nested/key")
	requireNoError(t, err, "At(/nested/key) error = %v", err)
	check(t, valuesEqual(key.Value(), "value"), "/nested/key = %v, want value", key.Value())

	_, ok := n.Lookup("/nested/missing")
	check(t, !ok, "Lookup(/nested/missing) = true, want false")
	check(t, n.HasProp("nested"), "HasProp(nested) = false, want true")
	check(t, !n.HasProp("missing"), "HasProp(missing) = true, want false")

	_, err = n.Field("missing")
	var noField *dataformat.NoSuchFieldError
	check(t, errors.As(err, &noField), "Field(missing) error = %v, want NoSuchFieldError", err)

	_, err = tags.ElementAt(3)
	var oob *dataformat.IndexOutOfBoundsError
	check(t, errors.As(err, &oob), "ElementAt(3) error = %v, want IndexOutOfBoundsError", err)
}

func (ft *FormatTester) testTypeMismatch(t *testing.T) {
	if ft.skipTreeReason != "" {
		t.Skip(ft.skipTreeReason)
	}
	n := ft.fromTree(t, sample())
	var mismatch *dataformat.TypeMismatchError

	tags, err := n.Field("tags")
	requireNoError(t, err, "Field(tags) error = %v", err)
	_, err = tags.Field("x")
	check(t, errors.As(err, &mismatch), "array.Field error = %v, want TypeMismatchError", err)

	_, err = n.ElementAt(0)
	check(t, errors.As(err, &mismatch), "object.ElementAt error = %v, want TypeMismatchError", err)

	name, err := n.Field("name")
	requireNoError(t, err, "Field(name) error = %v", err)
	_, err = name.Field("x")
	check(t, errors.As(err, &mismatch), "string.Field error = %v, want TypeMismatchError", err)
	check(t, name.IndexOf("s") == -1, "string.IndexOf = %d, want -1", name.IndexOf("s"))
	check(t, !name.HasProp("x"), "string.HasProp = true, want false")

	// The failed calls leave the node usable.
	check(t, valuesEqual(name.Value(), "spin"), "name after failures = %v, want spin", name.Value())
}

func (ft *FormatTester) testNullValues(t *testing.T) {
	if ft.skipNullReason != "" {
		t.Skip(ft.skipNullReason)
	}
	if ft.skipTreeReason != "" {
		t.Skip(ft.skipTreeReason)
	}
	n := ft.fromTree(t, map[string]any{"none": nil})
	none, err := n.Field("none")
	requireNoError(t, err, "Field(none) error = %v", err)
	check(t, none.IsNull(), "none kind = %v, want null", none.Kind())
	check(t, none.IsValue(), "none IsValue = false, want true")
}

func (ft *FormatTester) testRootArray(t *testing.T) {
	if ft.skipRootArrayReason != "" {
		t.Skip(ft.skipRootArrayReason)
	}
	if ft.skipTreeReason != "" {
		t.Skip(ft.skipTreeReason)
	}
	n := ft.fromTree(t, []any{int64(1), "two", map[string]any{"three": int64(3)}})
	require(t, n.IsArray(), "root kind = %v, want array", n.Kind())
	check(t, n.Len() == 3, "root Len = %d, want 3", n.Len())
	three, err := n.At("/2/three")
	requireNoError(t, err, "At(/2/three) error = %v", err)
	check(t, valuesEqual(three.Value(), 3), "/2/three = %v, want 3", three.Value())
}

func (ft *FormatTester) testMappingRoundTrip(t *testing.T) {
	in := Record{
		Name:    "spin",
		Count:   7,
		Tags:    []string{"x", "y"},
		Created: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	n, err := ft.format.MapFromNative(in, nil)
	requireNoError(t, err, "MapFromNative error = %v", err)

	raw, err := n.Marshal()
	requireNoError(t, err, "Marshal error = %v", err)
	parsed, err := ft.format.Parse(raw, nil)
	requireNoError(t, err, "Parse(%q) error = %v", raw, err)

	var out Record
	err = parsed.MapTo(&out)
	requireNoError(t, err, "MapTo error = %v", err)
	check(t, out.Name == in.Name && out.Count == in.Count, "MapTo = %+v, want %+v", out, in)
	check(t, reflect.DeepEqual(out.Tags, in.Tags), "Tags = %v, want %v", out.Tags, in.Tags)
	check(t, out.Created.Equal(in.Created), "Created = %v, want %v", out.Created, in.Created)

	var wrong struct {
		Name []int `json:"name" xml:"name"`
	}
	err = parsed.MapTo(&wrong)
	var mapping *dataformat.MappingError
	check(t, errors.As(err, &mapping), "MapTo(conflicting) error = %v, want MappingError", err)
}

func (ft *FormatTester) testProbeOwnOutput(t *testing.T) {
	if ft.skipProbeReason != "" {
		t.Skip(ft.skipProbeReason)
	}
	n := ft.fromTree(t, sample())
	raw, err := n.Marshal()
	requireNoError(t, err, "Marshal error = %v", err)
	check(t, ft.format.MatchesInput(raw), "MatchesInput(own output) = false for %q", raw)
}

func (ft *FormatTester) testConfiguration(t *testing.T) {
	b := ft.format.NewBuilder(nil)
	_, err := b.Set("noSuchOption", true).Done()
	var cfgErr *dataformat.ConfigurationError
	check(t, errors.As(err, &cfgErr), "unknown option error = %v, want ConfigurationError", err)

	b = ft.format.NewBuilder(nil)
	cfg, err := b.Done()
	requireNoError(t, err, "Done error = %v", err)
	check(t, cfg.Format() == ft.format.Name(), "cfg.Format = %q, want %q", cfg.Format(), ft.format.Name())

	_, err = b.Done()
	check(t, errors.As(err, &cfgErr), "second Done error = %v, want ConfigurationError", err)

	defaults := ft.format.DefaultConfig()
	n, err := ft.format.CreateEmpty(cfg)
	requireNoError(t, err, "CreateEmpty(cfg) error = %v", err)
	check(t, valuesEqual(n.Config().Options(), defaults.Options()), "node config = %v, want %v", n.Config().Options(), defaults.Options())
}

func (ft *FormatTester) testMalformedInput(t *testing.T) {
	_, err := ft.format.Parse([]byte("{[<\x00"), nil)
	var parseErr *dataformat.ParseError
	require(t, errors.As(err, &parseErr), "Parse(malformed) error = %v, want ParseError", err)
	check(t, parseErr.Format == ft.format.Name(), "ParseError.Format = %q, want %q", parseErr.Format, ft.format.Name())
}

// valuesEqual compares two values for equality, handling numeric type
// conversions.
func valuesEqual(got, want any) bool {
	if got == nil && want == nil {
		return true
	}
	if got == nil || want == nil {
		return false
	}

	gotNum, gotIsNum := toFloat64(got)
	wantNum, wantIsNum := toFloat64(want)
	if gotIsNum && wantIsNum {
		return gotNum == wantNum
	}

	switch g := got.(type) {
	case map[string]any:
		w, ok := want.(map[string]any)
		if !ok || len(g) != len(w) {
			return false
		}
		for k, gv := range g {
			if !valuesEqual(gv, w[k]) {
				return false
			}
		}
		return true
	case []any:
		w, ok := want.([]any)
		if !ok || len(g) != len(w) {
			return false
		}
		for i := range g {
			if !valuesEqual(g[i], w[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(got, want) || fmt.Sprint(got) == fmt.Sprint(want)
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
