package app

import (
	"context"
	"time"
)

// Storage is the scoped key-value capability sessions are persisted in (in-memory, Redis, etc).
// Implementations must be safe for concurrent use.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Scoped isolates a user's records by prefixing every key with scope.
func Scoped(storage Storage, scope string) Storage {
	if scope == "" {
		return storage
	}
	return scopedStorage{inner: storage, prefix: scope + ":"}
}

type scopedStorage struct {
	inner  Storage
	prefix string
}

func (s scopedStorage) Get(ctx context.Context, key string) (string, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s scopedStorage) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s scopedStorage) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, s.prefix+key)
}

// Clock returns the current time. Tests swap it for deterministic timestamps.
type Clock func() time.Time
