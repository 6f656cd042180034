// Package blob reads raw photo bytes by storage key from a local
// directory tree. Upload handling owns writes; the matching worker only
// ever reads.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Store serves photo bytes from a root directory. Storage keys are
// slash-separated paths relative to the root.
type Store struct {
	root string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Fetch reads the object at key. Keys are confined to the root; a key
// that tries to traverse out of it resolves inside the root instead.
func (s *Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.root, filepath.Clean("/"+key))
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %q: %w", key, err)
	}
	return raw, nil
}
