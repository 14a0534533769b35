package kvstore

import (
	"context"
	"encoding/json"
)

// KV is the persistent key-value store the library and album collections
// round-trip through. Values are JSON-serialized strings; keys are scoped
// to this application.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes or replaces the value for key.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ReadCollection loads and decodes a JSON array stored under key.
// Missing keys, read failures and malformed payloads all degrade to an
// empty slice; stored data never blocks the caller.
func ReadCollection[T any](ctx context.Context, kv KV, key string) []T {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil || !ok || raw == "" {
		return nil
	}
	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// EncodeCollection serializes a collection for storage.
func EncodeCollection[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
