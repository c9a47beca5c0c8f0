package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// EmbeddingCache memoizes query vectors by normalized text.
// Expired entries are never returned; they are physically removed by Sweep.
type EmbeddingCache struct {
	store  *gocache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewEmbeddingCache creates a cache without a background janitor.
func NewEmbeddingCache(ttl time.Duration) *EmbeddingCache {
	return &EmbeddingCache{
		store: gocache.New(ttl, 0),
	}
}

// HashText returns the cache key for text: sha256 of the trimmed, lowercased input.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(text))))
	return hex.EncodeToString(sum[:])
}

func (c *EmbeddingCache) Get(text string) ([]float32, bool) {
	v, found := c.store.Get(HashText(text))
	if !found {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return v.([]float32), true
}

func (c *EmbeddingCache) Store(text string, vector []float32) {
	c.store.Set(HashText(text), vector, gocache.DefaultExpiration)
}

// Sweep drops expired entries.
func (c *EmbeddingCache) Sweep() {
	c.store.DeleteExpired()
}

func (c *EmbeddingCache) Len() int {
	return c.store.ItemCount()
}
