// Package cache stores small looked-up values, such as conversion rates, between requests
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a namespaced cache key from its parts, e.g. Key("rates", "USD", "CAD", "2025-03-14")
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "itinera-" + namespace + "-v1-" + hex.EncodeToString(hash[:12])
}

// New returns a memory cache, layered over disk when dir is set
func New(dir string, ttl time.Duration) Cache {
	if dir == "" {
		return NewMemoryCache(ttl, 10*time.Minute)
	}
	return NewLayeredCache(ttl, dir, ttl)
}

// GetJSON decodes a cached JSON value. Undecodable entries count as misses.
func GetJSON[T any](c Cache, key string) (T, bool) {
	var v T
	data, ok := c.Get(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false
	}
	return v, true
}

// SetJSON encodes v as JSON and stores it
func SetJSON(c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(key, data, ttl)
}
