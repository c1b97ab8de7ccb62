package query

import (
	"context"
	"fmt"
)

// Query is a typed handle on one cache key
type Query[T any] struct {
	cache *Cache
	key   Key
}

// Define registers key with a typed fetcher and returns its handle
func Define[T any](c *Cache, key Key, opts Options, fetch func(ctx context.Context) (T, error)) Query[T] {
	c.Register(key, opts, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	return Query[T]{cache: c, key: key}
}

// Key returns the underlying cache key
func (q Query[T]) Key() Key { return q.key }

// Get returns the cached value, see Cache.Get
func (q Query[T]) Get(ctx context.Context) (T, error) {
	v, err := q.cache.Get(ctx, q.key)
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](q.key, v)
}

// Fetch returns a value fetched after the last invalidation, see Cache.Fetch
func (q Query[T]) Fetch(ctx context.Context) (T, error) {
	v, err := q.cache.Fetch(ctx, q.key)
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](q.key, v)
}

// Peek returns the typed data, if any, and the raw state
func (q Query[T]) Peek() (T, State) {
	state := q.cache.Peek(q.key)
	data, _ := state.Data.(T)
	return data, state
}

// Invalidate marks the key stale and refetches it
func (q Query[T]) Invalidate() {
	q.cache.Invalidate(q.key)
}

// Subscribe registers a listener for the key
func (q Query[T]) Subscribe(fn Listener) func() {
	return q.cache.Subscribe(q.key, fn)
}

func cast[T any](key Key, v any) (T, error) {
	if v == nil {
		var zero T
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("query %s: cached %T, want %T", key, v, zero)
	}
	return t, nil
}
