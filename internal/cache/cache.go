// Package cache provides a bounded in-memory cache with per-entry expiry.
package cache

// Cache is a key-value store whose entries may disappear at any time.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Len() int
}
