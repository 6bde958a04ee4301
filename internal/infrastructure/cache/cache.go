// Package cache provides a small TTL cache with pluggable backends. It holds
// catalog stock and configuration feeds; cart and return state never live here.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or expired
var ErrMiss = errors.New("cache miss")

// Store is a byte-oriented TTL store
type Store interface {
	// Get returns the value and its expiry time, or ErrMiss
	Get(ctx context.Context, key string) ([]byte, time.Time, error)
	// Set stores value for ttl. A zero ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Typed wraps a Store with JSON encoding for one value type
type Typed[T any] struct {
	store Store
	ttl   time.Duration
}

func NewTyped[T any](store Store, ttl time.Duration) *Typed[T] {
	return &Typed[T]{store: store, ttl: ttl}
}

// Get decodes the cached value. ok is false on a miss.
func (c *Typed[T]) Get(ctx context.Context, key string) (value T, ok bool, err error) {
	raw, _, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, err
	}
	return value, true, nil
}

func (c *Typed[T]) Set(ctx context.Context, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, raw, c.ttl)
}

func (c *Typed[T]) Invalidate(ctx context.Context, keys ...string) error {
	return c.store.Invalidate(ctx, keys...)
}

// GetOrLoad returns the cached value or loads, stores and returns a fresh one.
// A failure to store the loaded value is not reported.
func (c *Typed[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok, err := c.Get(ctx, key); err == nil && ok {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	_ = c.Set(ctx, key, v)
	return v, nil
}
