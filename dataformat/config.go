package dataformat

// Config is an immutable snapshot of a format's options.
//
// A Config passed to a single read, write or map call applies to that call
// (and to nodes derived from its result) only; it never changes the
// registry's defaults.
type Config interface {
	// Format returns the name of the format this configuration belongs to.
	Format() string

	// Get returns the value of a recognized option.
	Get(option string) (any, bool)

	// Options returns a copy of all option values.
	Options() map[string]any
}

// Builder assembles a Config. Errors (unknown option, ill-typed value) are
// recorded by Set and reported by Done.
//
// A builder is single use: after Done, further calls to Set or Done report a
// *ConfigurationError, so a finalized snapshot can never be changed through
// the builder that produced it.
type Builder interface {
	// Set assigns an option value.
	Set(option string, value any) Builder

	// Done finalizes and returns the immutable configuration.
	Done() (Config, error)
}
