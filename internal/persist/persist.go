// Package persist defines the key-value persistence port: named
// JSON-serializable blobs written on every successful mutation and read
// once at startup.
package persist

import "context"

// KV is the outbound persistence port.
type KV interface {
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
}
