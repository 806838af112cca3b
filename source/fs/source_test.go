package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/summit58/camunda-spin/source"
)

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"order.json", "order.json"},
		{"~", home},
		{"~/order.json", filepath.Join(home, "order.json")},
		{"~someone/order.json", "~someone/order.json"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := expandTilde(tt.in)
			if err != nil {
				t.Fatalf("expandTilde() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("expandTilde(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoad_SearchPaths(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "primary.json")
	alt := filepath.Join(dir, "alt.json")
	if err := os.WriteFile(alt, []byte(`{"alt":true}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s := New(primary, WithSearchPaths(alt))
	if got := s.Path(); got != primary {
		t.Fatalf("Path() = %q, want %q", got, primary)
	}
	if got := s.ResolvedPath(); got != primary {
		t.Fatalf("ResolvedPath() before Load = %q, want %q", got, primary)
	}

	data, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(data) != `{"alt":true}` {
		t.Fatalf("Load() = %q", data)
	}
	if got := s.ResolvedPath(); got != alt {
		t.Fatalf("ResolvedPath() after Load = %q, want %q", got, alt)
	}
}

func TestLoad_Missing(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing.json"))
	_, err := s.Load(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load() error = %v, want os.ErrNotExist", err)
	}
}

func TestSave_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "order.xml")
	s := New(path, WithFileMode(0o600))

	err := s.Save(context.Background(), func(current []byte) ([]byte, error) {
		if len(current) != 0 {
			t.Errorf("current = %q, want empty", current)
		}
		return []byte("<order/>"), nil
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "<order/>" {
		t.Fatalf("file = %q, want %q", data, "<order/>")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 && os.PathSeparator == '/' {
		t.Errorf("mode = %v, want 0600", perm)
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".spin-*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestSave_DetectsExternalChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.json")
	if err := os.WriteFile(path, []byte(`{"v":1}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s := New(path)
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := s.Save(context.Background(), source.Replace([]byte(`{"v":2}`))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := os.WriteFile(path, []byte(`{"v":3}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	err := s.Save(context.Background(), source.Replace([]byte(`{"v":4}`)))
	if !errors.Is(err, source.ErrSourceModified) {
		t.Fatalf("Save() error = %v, want ErrSourceModified", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != `{"v":3}` {
		t.Fatalf("file = %q, external change was overwritten", data)
	}
}

func TestSave_UpdateError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.json")
	boom := errors.New("boom")
	err := New(path).Save(context.Background(), func([]byte) ([]byte, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("Save() error = %v, want %v", err, boom)
	}
}

func TestSave_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(filepath.Join(t.TempDir(), "x")).Save(ctx, source.Replace(nil))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Save() error = %v, want context.Canceled", err)
	}
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 16)
	s := New(path)
	stop, err := s.Watch(ctx, func(err error) {
		if err == nil {
			changed <- struct{}{}
		}
	})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer stop()

	other := filepath.Join(filepath.Dir(path), "other.json")
	if err := os.WriteFile(other, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := s.Save(ctx, source.Replace([]byte(`{"a":1}`))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification within 5s")
	}
}
