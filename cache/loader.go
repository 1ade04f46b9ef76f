package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader implements cache-aside reads over a Store. Concurrent misses for the same
// key share a single fetch.
type Loader struct {
	store Store
	sf    singleflight.Group
}

func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

// Store exposes the underlying store, e.g. for invalidation.
func (l *Loader) Store() Store { return l.store }

// Load returns the cached T under key when it is fresh enough, otherwise calls
// fetch and caches its result. Errors from fetch are returned unchanged and
// nothing is cached.
func Load[T any](ctx context.Context, l *Loader, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := Get[T](l.store, key, ttl); ok {
		slog.Debug("cache hit", slog.String("key", key))
		return v, nil
	}

	slog.Debug("cache miss", slog.String("key", key))
	v, err, _ := l.sf.Do(key, func() (any, error) {
		res, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		l.store.Set(key, res)
		return res, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: key %q loaded as %T", key, v)
	}
	return typed, nil
}
