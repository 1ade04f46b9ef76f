package cache

import "time"

// Store represents a process-local cache whose entries are judged stale at read
// time: the caller passes the TTL it is willing to accept on every Get.
type Store interface {
	Get(key string, ttl time.Duration) (any, bool)
	Set(key string, value any)
	Clear(key string)
	ClearAll()
}

// Get returns the entry stored under key as a T. A missing, expired, or
// differently typed entry is reported as a miss.
func Get[T any](s Store, key string, ttl time.Duration) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	v, ok := s.Get(key, ttl)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
