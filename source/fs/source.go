// Package fs provides a file-backed document source.
package fs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/summit58/camunda-spin/internal/logging"
	"github.com/summit58/camunda-spin/source"
)

// Default permission modes.
const (
	DefaultFileMode = 0o644
	DefaultDirMode  = 0o755
)

// Source reads and writes a document file.
type Source struct {
	path        string
	searchPaths []string
	fileMode    os.FileMode
	dirMode     os.FileMode

	mu       sync.Mutex
	resolved string
	loaded   []byte
}

var (
	_ source.Source    = (*Source)(nil)
	_ source.Watchable = (*Source)(nil)
)

// Option configures a Source.
type Option func(*Source)

// WithFileMode sets the permission of written files.
func WithFileMode(mode os.FileMode) Option {
	return func(s *Source) {
		s.fileMode = mode
	}
}

// WithDirMode sets the permission of parent directories created by Save.
func WithDirMode(mode os.FileMode) Option {
	return func(s *Source) {
		s.dirMode = mode
	}
}

// WithSearchPaths adds fallback locations. Load uses the first existing
// file among the primary path and the search paths.
func WithSearchPaths(paths ...string) Option {
	return func(s *Source) {
		s.searchPaths = append(s.searchPaths, paths...)
	}
}

// New creates a source for path. A leading "~" expands to the home
// directory.
//
// Example:
//
//	src := fs.New("order.xml")
//	src := fs.New("~/.config/app/settings.yaml", fs.WithSearchPaths("/etc/app/settings.yaml"))
func New(path string, opts ...Option) *Source {
	s := &Source{
		path:     path,
		fileMode: DefaultFileMode,
		dirMode:  DefaultDirMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the primary path as given to New.
func (s *Source) Path() string {
	return s.path
}

// Load reads the file.
func (s *Source) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolved, original, err := s.resolvePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("read file %q: %w", original, err)
	}

	s.mu.Lock()
	s.resolved = resolved
	s.loaded = data
	s.mu.Unlock()
	return data, nil
}

// Save rewrites the file under an exclusive lock. The new contents are
// written to a temporary file which then replaces the target. When the file
// was loaded before and has changed on disk since, Save fails with
// source.ErrSourceModified.
func (s *Source) Save(ctx context.Context, update source.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := s.ResolvedPath()
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, s.dirMode); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}

	f, err := os.OpenFile(target, os.O_RDWR|os.O_CREATE, s.fileMode)
	if err != nil {
		return fmt.Errorf("open %q for locking: %w", target, err)
	}
	defer f.Close()

	unlock, err := fileLock(int(f.Fd()))
	if err != nil {
		return fmt.Errorf("lock %q: %w", target, err)
	}
	defer unlock()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %q: %w", target, err)
	}
	var current []byte
	if stat.Size() > 0 {
		current = make([]byte, stat.Size())
		if _, err := f.ReadAt(current, 0); err != nil {
			return fmt.Errorf("read %q: %w", target, err)
		}
	}

	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded != nil && !bytes.Equal(loaded, current) {
		return source.ErrSourceModified
	}

	next, err := update(current)
	if err != nil {
		return err
	}
	if err := writeAtomic(dir, target, next, s.fileMode); err != nil {
		return err
	}

	s.mu.Lock()
	s.resolved = target
	s.loaded = next
	s.mu.Unlock()
	logging.For("source").WithField("path", target).Debug("saved file")
	return nil
}

func writeAtomic(dir, target string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(dir, ".spin-*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temporary file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("set file permissions: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("rename temporary file to %q: %w", target, err)
	}
	success = true
	return nil
}

// CanSave returns true.
func (s *Source) CanSave() bool {
	return true
}

// ResolvedPath returns the file Load read from, or the expanded primary
// path before the first Load.
func (s *Source) ResolvedPath() string {
	s.mu.Lock()
	resolved := s.resolved
	s.mu.Unlock()
	if resolved != "" {
		return resolved
	}
	expanded, err := expandTilde(s.path)
	if err != nil {
		return s.path
	}
	return expanded
}

// resolvePath returns the first existing candidate, or the primary path
// when none exists.
func (s *Source) resolvePath() (expanded, original string, err error) {
	candidates := append([]string{s.path}, s.searchPaths...)
	for _, p := range candidates {
		e, err := expandTilde(p)
		if err != nil {
			continue
		}
		if _, err := os.Stat(e); err == nil {
			return e, p, nil
		}
	}

	expanded, err = expandTilde(s.path)
	if err != nil {
		return "", s.path, fmt.Errorf("expand path %q: %w", s.path, err)
	}
	return expanded, s.path, nil
}

func expandTilde(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand home directory: %w", err)
	}
	if len(path) == 1 {
		return home, nil
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(home, path[2:]), nil
	}
	// "~user" is left alone.
	return path, nil
}

// Watch notifies on writes, creations and renames of the file. The parent
// directory is watched so that atomic replacements are seen.
func (s *Source) Watch(ctx context.Context, notify source.NotifyFunc) (source.StopFunc, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	path := s.ResolvedPath()
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch directory %q: %w", dir, err)
	}
	name := filepath.Base(path)
	log := logging.For("source").WithField("path", path)

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					log.WithField("op", event.Op.String()).Trace("file changed")
					notify(nil)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				notify(err)
			case <-ctx.Done():
				w.Close()
				return
			}
		}
	}()

	var once sync.Once
	return func() error {
		var err error
		once.Do(func() { err = w.Close() })
		return err
	}, nil
}
