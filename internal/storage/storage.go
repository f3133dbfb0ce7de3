package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Sentinel errors for storage operations.
var (
	ErrNotFound   = errors.New("key not found")
	ErrStorage    = errors.New("storage error")
	ErrValidation = errors.New("validation error")
)

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// KV is a flat key/value store. Put overwrites the previous value wholesale;
// there are no partial or append writes. Concurrent writers are last-write-wins.
type KV interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}

// ValidateKey checks that key is safe to use as a file name, row key or object name.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: invalid key %q", ErrValidation, key)
	}
	return nil
}
