package cache

import (
	"testing"
	"time"

	"course-buddy-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unit(vals ...float32) []float32 { return vals }

func TestHashText_NormalizesCaseAndSpace(t *testing.T) {
	assert.Equal(t, HashText("What is a Pointer?"), HashText("  what is a pointer?\n"))
	assert.NotEqual(t, HashText("pointer"), HashText("pointers"))
}

func TestEmbeddingCache_HitAndExpiry(t *testing.T) {
	c := NewEmbeddingCache(50 * time.Millisecond)
	c.Store("Hello", unit(1, 0))

	v, ok := c.Get("hello ")
	require.True(t, ok)
	assert.Equal(t, unit(1, 0), v)

	time.Sleep(80 * time.Millisecond)
	_, ok = c.Get("hello")
	assert.False(t, ok, "expired entry must not be returned")

	c.Sweep()
	assert.Equal(t, 0, c.Len())
}

func TestSemanticCache_ScopeIsolation(t *testing.T) {
	c := NewSemanticCache(time.Hour, 0.95)
	resp := &store.RAGResponse{Message: "answer", ResponseType: store.ResponseInScope}
	vec := unit(1, 0)

	c.Store(vec, resp, 3, "Go Basics")

	_, ok := c.Match(vec, 4, "Go Basics")
	assert.False(t, ok, "different lecture order")
	_, ok = c.Match(vec, 3, "Rust Basics")
	assert.False(t, ok, "different course")

	got, ok := c.Match(vec, 3, "Go Basics")
	require.True(t, ok)
	assert.True(t, got.CacheHit)
	assert.Equal(t, "answer", got.Message)
	assert.False(t, resp.CacheHit, "stored response must not be mutated")
}

func TestSemanticCache_Threshold(t *testing.T) {
	c := NewSemanticCache(time.Hour, 0.95)
	c.Store(unit(1, 0), &store.RAGResponse{Message: "a"}, 1, "c")

	_, ok := c.Match(unit(0.9, 0.43589), 1, "c")
	assert.False(t, ok)
	_, ok = c.Match(unit(0.96, 0.28), 1, "c")
	assert.True(t, ok)
}

func TestSemanticCache_ExpiryAndSweep(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewSemanticCache(24*time.Hour, 0.95)
	c.now = func() time.Time { return now }

	c.Store(unit(1, 0), &store.RAGResponse{Message: "a"}, 1, "c")
	now = now.Add(25 * time.Hour)

	_, ok := c.Match(unit(1, 0), 1, "c")
	assert.False(t, ok)

	c.Sweep()
	assert.Equal(t, 0, c.Len())
}

func TestSemanticCache_ReferencesAreCopied(t *testing.T) {
	c := NewSemanticCache(time.Hour, 0.95)
	resp := &store.RAGResponse{References: []store.Reference{{LectureTitle: "Intro"}}}
	c.Store(unit(1, 0), resp, 1, "c")
	resp.References[0].LectureTitle = "changed"

	got, ok := c.Match(unit(1, 0), 1, "c")
	require.True(t, ok)
	assert.Equal(t, "Intro", got.References[0].LectureTitle)
}

func TestService_StatsAndPeriodicSweep(t *testing.T) {
	s := NewService(Config{EmbeddingTTL: time.Hour, SemanticTTL: time.Hour, SimilarityThreshold: 0.95}, nil)
	s.StoreEmbedding("q", unit(1, 0))

	_, ok := s.GetEmbedding("q")
	assert.True(t, ok)
	_, ok = s.GetEmbedding("other")
	assert.False(t, ok)
	_, ok = s.GetEmbedding("another")
	assert.False(t, ok)

	stats := s.Stats()
	assert.Equal(t, int64(1), stats.EmbeddingHits)
	assert.Equal(t, int64(2), stats.EmbeddingMisses)
	assert.Equal(t, 33.3, stats.EmbeddingHitRate)
	assert.Equal(t, 1, stats.EmbeddingCacheSize)
	assert.Equal(t, 0.0, stats.SemanticHitRate)
}
