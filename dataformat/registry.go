package dataformat

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/summit58/camunda-spin/internal/logging"
)

// RegisterOption is a functional option for Register.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	priority int
	aliases  []string
}

// WithPriority sets the probing priority of a format. Formats with a higher
// priority are probed first by ForInput and ForType; formats with equal
// priority are probed in registration order. The default priority is 0.
func WithPriority(p int) RegisterOption {
	return func(o *registerOptions) {
		o.priority = p
	}
}

// WithAlias registers additional names that resolve to the format, e.g. "json"
// for "application/json". Aliases share the namespace of format names.
func WithAlias(aliases ...string) RegisterOption {
	return func(o *registerOptions) {
		o.aliases = append(o.aliases, aliases...)
	}
}

// Info describes a registered format.
type Info struct {
	Name     string
	Aliases  []string
	Priority int
}

type registryEntry struct {
	format   DataFormat
	priority int
	seq      int
	aliases  []string
	defaults Config
}

// Registry maps format names to DataFormat plugins.
//
// A registry has two phases. While it is being initialized, formats are
// added with Register and their defaults adjusted with Configure; these calls
// are serialized by the registry. The first lookup (or an explicit Seal) ends
// initialization: from then on the registry is read-only and lookups run
// concurrently, while Register and Configure fail with ErrRegistrySealed.
type Registry struct {
	// entries is kept sorted by descending priority, then registration order.
	entries []*registryEntry

	// byName indexes entries by format name and alias.
	byName map[string]*registryEntry

	nextSeq  int
	sealed   bool
	sealOnce sync.Once

	mu sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make([]*registryEntry, 0),
		byName:  make(map[string]*registryEntry),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry. Format packages add themselves
// to it from their init functions, so importing a format package (for side
// effects if necessary) makes it available to every caller in the process.
func Default() *Registry {
	return defaultRegistry
}

// Register adds f to the process-wide registry.
func Register(f DataFormat, opts ...RegisterOption) error {
	return defaultRegistry.Register(f, opts...)
}

// MustRegister is like Register but panics on error. It is intended for
// format package init functions.
func MustRegister(f DataFormat, opts ...RegisterOption) {
	if err := defaultRegistry.Register(f, opts...); err != nil {
		panic(err)
	}
}

// Configure adjusts the defaults of a format in the process-wide registry.
func Configure(name string, fn func(Builder) error) error {
	return defaultRegistry.Configure(name, fn)
}

// Register adds a format under its name and any aliases.
// It fails with *DuplicateFormatError when a name or alias is taken, and with
// ErrRegistrySealed once the registry serves lookups.
func (r *Registry) Register(f DataFormat, opts ...RegisterOption) error {
	if f == nil {
		return fmt.Errorf("register data format: nil format")
	}

	var options registerOptions
	for _, opt := range opts {
		opt(&options)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register %q: %w", f.Name(), ErrRegistrySealed)
	}

	names := append([]string{f.Name()}, options.aliases...)
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" {
			return fmt.Errorf("register data format: empty name")
		}
		if _, exists := r.byName[name]; exists || seen[name] {
			return &DuplicateFormatError{Name: name}
		}
		seen[name] = true
	}

	entry := &registryEntry{
		format:   f,
		priority: options.priority,
		seq:      r.nextSeq,
		aliases:  options.aliases,
		defaults: f.DefaultConfig(),
	}
	r.nextSeq++

	r.entries = append(r.entries, entry)
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].priority > r.entries[j].priority
	})
	for _, name := range names {
		r.byName[name] = entry
	}

	logging.For("registry").WithFields(logrus.Fields{
		"format":   f.Name(),
		"aliases":  options.aliases,
		"priority": options.priority,
	}).Debug("registered data format")

	return nil
}

// Configure replaces the default configuration of a registered format with
// the result of fn applied to a builder seeded with the current defaults.
// Like Register, it is only allowed before the registry is sealed.
func (r *Registry) Configure(name string, fn func(Builder) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("configure %q: %w", name, ErrRegistrySealed)
	}

	entry, ok := r.byName[name]
	if !ok {
		return &UnknownFormatError{Name: name}
	}

	b := entry.format.NewBuilder(entry.defaults)
	if err := fn(b); err != nil {
		return err
	}
	cfg, err := b.Done()
	if err != nil {
		return err
	}
	entry.defaults = cfg

	logging.For("registry").WithField("format", entry.format.Name()).Debug("applied configurator")
	return nil
}

// Seal ends the initialization phase. It is called implicitly by the first
// lookup and is idempotent.
func (r *Registry) Seal() {
	r.sealOnce.Do(func() {
		r.mu.Lock()
		r.sealed = true
		count := len(r.entries)
		r.mu.Unlock()
		logging.For("registry").WithField("formats", count).Debug("registry sealed")
	})
}

// Sealed reports whether the registry has left its initialization phase.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// ByName returns the format registered under name or alias.
func (r *Registry) ByName(name string) (DataFormat, error) {
	r.Seal()
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.byName[name]
	if !ok {
		return nil, &UnknownFormatError{Name: name}
	}
	return entry.format, nil
}

// ForInput returns the first format, in probing order, whose MatchesInput
// accepts raw.
func (r *Registry) ForInput(raw []byte) (DataFormat, error) {
	r.Seal()
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.entries {
		if entry.format.MatchesInput(raw) {
			logging.For("registry").WithField("format", entry.format.Name()).Trace("resolved format by input")
			return entry.format, nil
		}
	}
	return nil, &NoMatchingFormatError{Input: Snippet(raw)}
}

// ForType returns the first format, in probing order, whose MatchesType
// accepts t.
func (r *Registry) ForType(t reflect.Type) (DataFormat, error) {
	r.Seal()
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.entries {
		if entry.format.MatchesType(t) {
			logging.For("registry").WithField("format", entry.format.Name()).Trace("resolved format by type")
			return entry.format, nil
		}
	}
	name := "<nil>"
	if t != nil {
		name = t.String()
	}
	return nil, &NoMatchingFormatError{Type: name}
}

// Defaults returns the registry's default configuration for a format.
func (r *Registry) Defaults(name string) (Config, error) {
	r.Seal()
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.byName[name]
	if !ok {
		return nil, &UnknownFormatError{Name: name}
	}
	return entry.defaults, nil
}

// Formats lists the registered formats in probing order.
func (r *Registry) Formats() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.entries))
	for _, entry := range r.entries {
		infos = append(infos, Info{
			Name:     entry.format.Name(),
			Aliases:  append([]string(nil), entry.aliases...),
			Priority: entry.priority,
		})
	}
	return infos
}
