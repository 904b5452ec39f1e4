// Package store defines the two-tier key-value persistence used by all contexts.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Namespace names a durability tier.
type Namespace string

const (
	// NamespaceSync holds small settings values.
	NamespaceSync Namespace = "sync"
	// NamespaceLocal holds stats, logs, notes and summaries.
	NamespaceLocal Namespace = "local"
)

// Values is the result of a Get: raw JSON per present key. Absent keys are omitted.
type Values map[string]json.RawMessage

// KV is the contract shared by both tiers.
type KV interface {
	// Namespace reports which tier this is.
	Namespace() Namespace
	// Get returns the requested keys that exist. With no keys it returns every key.
	Get(ctx context.Context, keys ...string) (Values, error)
	// Set writes a partial record. Each value is JSON encoded.
	Set(ctx context.Context, values map[string]any) error
	// Remove deletes keys. Missing keys are ignored.
	Remove(ctx context.Context, keys ...string) error
	Close() error
}

// Decode unmarshals values[key] into dst. found is false when the key is absent.
func Decode[T any](values Values, key string, dst *T) (found bool, err error) {
	raw, ok := values[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

// Load reads a single key from kv into dst.
func Load[T any](ctx context.Context, kv KV, key string, dst *T) (bool, error) {
	values, err := kv.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return Decode(values, key, dst)
}

// EncodeAll marshals every value up front so a bad value fails the whole Set.
func EncodeAll(values map[string]any) (map[string][]byte, error) {
	out := make(map[string][]byte, len(values))
	for k, v := range values {
		if k == "" {
			return nil, fmt.Errorf("empty key")
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal %q: %w", k, err)
		}
		out[k] = data
	}
	return out, nil
}
