package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given files or directories and
	// translates it into the format-agnostic model. Defaults are applied
	// but the model is not validated, so callers may apply overrides
	// first.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
