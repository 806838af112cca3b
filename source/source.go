// Package source abstracts where raw documents come from and where they are
// written back. Sources only move bytes; parsing is left to the data format
// chosen by the caller (see spin.Load).
package source

import (
	"context"
	"errors"
)

// ErrSaveNotSupported is returned when Save is called on a read-only source.
var ErrSaveNotSupported = errors.New("save not supported for this source")

// ErrSourceModified is returned when Save detects that the underlying data
// changed between reading the current contents and writing the new ones.
var ErrSourceModified = errors.New("source has been modified since last load")

// UpdateFunc receives the current bytes of a source and returns the bytes to
// write in their place.
type UpdateFunc func(current []byte) ([]byte, error)

// Source loads and optionally saves raw document bytes.
type Source interface {
	// Load reads the raw document.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the document with the result of update, which is
	// called with the current contents while the source is held exclusively.
	// Read-only sources return ErrSaveNotSupported.
	Save(ctx context.Context, update UpdateFunc) error

	// CanSave reports whether Save is supported.
	CanSave() bool
}

// NotifyFunc is called when a watched source may have changed. err is set
// when watching itself failed; the watch keeps running.
type NotifyFunc func(err error)

// StopFunc ends a watch and releases its resources.
type StopFunc func() error

// Watchable is implemented by sources that can report changes.
type Watchable interface {
	// Watch calls notify on every change until ctx is done or the returned
	// StopFunc is called.
	Watch(ctx context.Context, notify NotifyFunc) (StopFunc, error)
}

// WatchableSource is a Source that reports changes.
type WatchableSource interface {
	Source
	Watchable
}

// Replace returns an UpdateFunc that ignores the current contents and
// writes data.
func Replace(data []byte) UpdateFunc {
	return func([]byte) ([]byte, error) {
		return data, nil
	}
}
