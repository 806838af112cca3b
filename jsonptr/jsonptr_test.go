package jsonptr

import (
	"reflect"
	"testing"
)

func TestEscapeUnescape(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		escaped string
	}{
		{name: "plain", token: "simple", escaped: "simple"},
		{name: "tilde", token: "~", escaped: "~0"},
		{name: "slash", token: "/", escaped: "~1"},
		{name: "tilde then slash", token: "~/", escaped: "~0~1"},
		{name: "path-like key", token: "/api/users", escaped: "~1api~1users"},
		{name: "literal ~1 text", token: "~1", escaped: "~01"},
		{name: "empty", token: "", escaped: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Escape(tt.token); got != tt.escaped {
				t.Errorf("Escape(%q) = %q, want %q", tt.token, got, tt.escaped)
			}
			if got := Unescape(tt.escaped); got != tt.token {
				t.Errorf("Unescape(%q) = %q, want %q", tt.escaped, got, tt.token)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Pointer
		wantErr bool
	}{
		{name: "root", input: "", want: Pointer{}},
		{name: "empty key", input: "/", want: Pointer{""}},
		{name: "nested", input: "/customers/0/name", want: Pointer{"customers", "0", "name"}},
		{name: "escaped", input: "/a~1b/c~0d", want: Pointer{"a/b", "c~d"}},
		{name: "missing slash", input: "customers", wantErr: true},
		{name: "bad escape", input: "/a~2", wantErr: true},
		{name: "dangling tilde", input: "/a~", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
			if s := got.String(); s != tt.input {
				t.Errorf("Parse(%q).String() = %q", tt.input, s)
			}
		})
	}
}

func TestPointer_AppendDoesNotAlias(t *testing.T) {
	base := MustParse("/a/b")
	left := base.Parent().Append("x")
	right := base.Parent().Append("y")

	if left.String() != "/a/x" || right.String() != "/a/y" {
		t.Fatalf("got %q and %q, want /a/x and /a/y", left, right)
	}
	if base.String() != "/a/b" {
		t.Errorf("base modified: %q", base)
	}
	if got := base.AppendIndex(3).String(); got != "/a/b/3" {
		t.Errorf("AppendIndex = %q", got)
	}
	if got := base.Last(); got != "b" {
		t.Errorf("Last = %q", got)
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		keys []any
		want string
	}{
		{keys: nil, want: ""},
		{keys: []any{"server", "port"}, want: "/server/port"},
		{keys: []any{"servers", 0, "name"}, want: "/servers/0/name"},
		{keys: []any{"paths", "/api"}, want: "/paths/~1api"},
		{keys: []any{"big", int64(42)}, want: "/big/42"},
	}

	for _, tt := range tests {
		if got := Build(tt.keys...); got != tt.want {
			t.Errorf("Build(%v) = %q, want %q", tt.keys, got, tt.want)
		}
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"/server", "port", "/server/port"},
		{"/server", "/port", "/server/port"},
		{"", "port", "/port"},
		{"/server", "", "/server"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := Join(tt.base, tt.path); got != tt.want {
			t.Errorf("Join(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestIndex(t *testing.T) {
	tests := []struct {
		token   string
		length  int
		want    int
		wantErr bool
	}{
		{token: "0", length: 3, want: 0},
		{token: "12", length: 3, want: 12},
		{token: "-", length: 3, want: 3},
		{token: "01", wantErr: true},
		{token: "", wantErr: true},
		{token: "-1", wantErr: true},
		{token: "x", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Index(tt.token, tt.length)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Index(%q) expected error, got %d", tt.token, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Index(%q, %d) = %d, %v; want %d", tt.token, tt.length, got, err, tt.want)
		}
	}
}
