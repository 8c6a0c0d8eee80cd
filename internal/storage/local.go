package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local is the file system backend.
type Local struct{}

// Open implements Backend.
func (Local) Open(_ context.Context, loc Location) (io.ReadCloser, error) {
	f, err := os.Open(loc.Key)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to open '%s': %w", loc.Key, err)
	}
	return f, nil
}

// Write implements Backend. Parent directories are created as needed.
func (Local) Write(_ context.Context, loc Location, data []byte) error {
	if dir := filepath.Dir(loc.Key); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("storage: failed to create directory '%s': %w", dir, err)
		}
	}
	if err := os.WriteFile(loc.Key, data, 0o644); err != nil {
		return fmt.Errorf("storage: failed to write '%s': %w", loc.Key, err)
	}
	return nil
}
