// Package cache stores retrieval results and model replies between runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/ppiankov/gapfinder/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

const keyPrefix = "gapfinder:v1:"

// Key builds a namespaced cache key. Parts are hashed so arbitrary prompt
// text and URLs produce fixed-length, filesystem-safe keys.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return keyPrefix + namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// GetJSON decodes a cached value into v. A corrupt entry is treated as a miss.
func GetJSON(c Cache, key string, v any) bool {
	data, ok := c.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// SetJSON encodes v and stores it
func SetJSON(c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(key, data, ttl)
}

// New returns the cache described by cfg, or a no-op cache when disabled
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return Nop{}
	}
	memTTL := cfg.MemoryTTL
	if memTTL <= 0 {
		memTTL = 30 * time.Minute
	}
	diskTTL := cfg.DiskTTL
	if diskTTL <= 0 {
		diskTTL = 7 * 24 * time.Hour
	}
	if cfg.Dir == "" {
		return NewMemoryCache(memTTL, 10*time.Minute)
	}
	return NewLayeredCache(memTTL, cfg.Dir, diskTTL)
}

// Nop never stores anything
type Nop struct{}

func (Nop) Get(string) ([]byte, bool)               { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error                     { return nil }
func (Nop) Clear() error                            { return nil }
