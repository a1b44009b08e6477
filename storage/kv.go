package storage

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned when the backing store cannot be reached.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrCorrupt is returned when persisted data cannot be decoded or opened.
	ErrCorrupt = errors.New("storage data corrupt")
	// ErrEmptyKey is returned for operations on an empty key.
	ErrEmptyKey = errors.New("storage key is empty")
)

// KV is the persistent key-value store the credential lives in.
//
// Get reports found=false with a nil error when the key does not exist.
// Delete of a missing key is not an error.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
