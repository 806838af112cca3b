// Package bytes provides an in-memory document source.
package bytes

import (
	"context"
	"sync"

	"github.com/summit58/camunda-spin/source"
)

// Source holds a document in memory. Save replaces the held bytes and
// notifies watchers.
type Source struct {
	mu       sync.RWMutex
	data     []byte
	readOnly bool
	watchers map[int]source.NotifyFunc
	nextID   int
}

var (
	_ source.Source    = (*Source)(nil)
	_ source.Watchable = (*Source)(nil)
)

// Option configures a Source.
type Option func(*Source)

// ReadOnly makes Save fail with source.ErrSaveNotSupported.
func ReadOnly() Option {
	return func(s *Source) {
		s.readOnly = true
	}
}

// New creates a source holding a copy of data.
//
// Example:
//
//	src := bytes.New([]byte(`{"customer":"Kermit"}`))
func New(data []byte, opts ...Option) *Source {
	s := &Source{
		data:     clone(data),
		watchers: make(map[int]source.NotifyFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromString creates a source holding data.
func FromString(data string, opts ...Option) *Source {
	return New([]byte(data), opts...)
}

// Load returns a copy of the held bytes.
func (s *Source) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.data), nil
}

// Save replaces the held bytes with the result of update.
func (s *Source) Save(ctx context.Context, update source.UpdateFunc) error {
	if s.readOnly {
		return source.ErrSaveNotSupported
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	next, err := update(clone(s.data))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.data = clone(next)
	notify := make([]source.NotifyFunc, 0, len(s.watchers))
	for _, fn := range s.watchers {
		notify = append(notify, fn)
	}
	s.mu.Unlock()

	for _, fn := range notify {
		fn(nil)
	}
	return nil
}

// CanSave reports whether the source accepts Save.
func (s *Source) CanSave() bool {
	return !s.readOnly
}

// Watch calls notify after every successful Save.
func (s *Source) Watch(ctx context.Context, notify source.NotifyFunc) (source.StopFunc, error) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = notify
	s.mu.Unlock()

	var once sync.Once
	stop := func() error {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
		})
		return nil
	}
	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			_ = stop()
		}()
	}
	return stop, nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
