package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"course-buddy-be/pkg/store"
)

type semanticEntry struct {
	vector       []float32
	response     *store.RAGResponse
	lectureOrder int
	courseTitle  string
	createdAt    time.Time
}

// SemanticCache answers near-duplicate questions asked in the same lecture scope.
type SemanticCache struct {
	mu        sync.RWMutex
	entries   []semanticEntry
	ttl       time.Duration
	threshold float64
	now       func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

func NewSemanticCache(ttl time.Duration, threshold float64) *SemanticCache {
	return &SemanticCache{
		ttl:       ttl,
		threshold: threshold,
		now:       time.Now,
	}
}

// Match returns the first live entry in the same (course, lecture order)
// scope whose similarity to vector reaches the threshold.
// vector must be the embedding of the raw question.
func (c *SemanticCache) Match(vector []float32, lectureOrder int, courseTitle string) (*store.RAGResponse, bool) {
	c.mu.RLock()
	snapshot := c.entries
	c.mu.RUnlock()

	now := c.now()
	for _, e := range snapshot {
		if now.Sub(e.createdAt) > c.ttl {
			continue
		}
		if e.lectureOrder != lectureOrder || e.courseTitle != courseTitle {
			continue
		}
		if Dot(vector, e.vector) >= c.threshold {
			c.hits.Add(1)
			out := e.response.Clone()
			out.CacheHit = true
			return out, true
		}
	}
	c.misses.Add(1)
	return nil, false
}

func (c *SemanticCache) Store(vector []float32, response *store.RAGResponse, lectureOrder int, courseTitle string) {
	entry := semanticEntry{
		vector:       append([]float32(nil), vector...),
		response:     response.Clone(),
		lectureOrder: lectureOrder,
		courseTitle:  courseTitle,
		createdAt:    c.now(),
	}

	c.mu.Lock()
	c.entries = append(c.entries, entry)
	c.mu.Unlock()
}

// Sweep drops expired entries. The slice is rebuilt so readers holding an
// older snapshot are unaffected.
func (c *SemanticCache) Sweep() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	live := make([]semanticEntry, 0, len(c.entries))
	for _, e := range c.entries {
		if now.Sub(e.createdAt) <= c.ttl {
			live = append(live, e)
		}
	}
	c.entries = live
}

func (c *SemanticCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Dot is the similarity used for unit-length embeddings.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
