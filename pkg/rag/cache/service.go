package cache

import (
	"math"
	"sync/atomic"
	"time"

	"course-buddy-be/pkg/rag"
)

// sweepEvery is the number of embedding lookups between opportunistic sweeps.
const sweepEvery = 100

type Config struct {
	EmbeddingTTL        time.Duration
	SemanticTTL         time.Duration
	SimilarityThreshold float64
}

func DefaultConfig() Config {
	return Config{
		EmbeddingTTL:        time.Hour,
		SemanticTTL:         24 * time.Hour,
		SimilarityThreshold: 0.95,
	}
}

// Service owns both cache tiers and the shared sweep counter.
type Service struct {
	Embeddings *EmbeddingCache
	Responses  *SemanticCache

	accesses atomic.Int64
	logger   rag.Logger
}

func NewService(cfg Config, logger rag.Logger) *Service {
	return &Service{
		Embeddings: NewEmbeddingCache(cfg.EmbeddingTTL),
		Responses:  NewSemanticCache(cfg.SemanticTTL, cfg.SimilarityThreshold),
		logger:     rag.OrNop(logger),
	}
}

// GetEmbedding looks up text and sweeps both tiers every 100th call.
func (s *Service) GetEmbedding(text string) ([]float32, bool) {
	if s.accesses.Add(1)%sweepEvery == 0 {
		s.Sweep()
	}
	return s.Embeddings.Get(text)
}

func (s *Service) StoreEmbedding(text string, vector []float32) {
	s.Embeddings.Store(text, vector)
}

func (s *Service) Sweep() {
	before := s.Embeddings.Len() + s.Responses.Len()
	s.Embeddings.Sweep()
	s.Responses.Sweep()
	after := s.Embeddings.Len() + s.Responses.Len()
	if before != after {
		s.logger.Debug("CACHE", "Swept expired entries", map[string]interface{}{
			"removed": before - after,
		})
	}
}

// Stats is the payload served by the cache-stats endpoint.
type Stats struct {
	EmbeddingCacheSize   int     `json:"embedding_cache_size"`
	SemanticCacheSize    int     `json:"semantic_cache_size"`
	EmbeddingHits        int64   `json:"embedding_hits"`
	EmbeddingMisses      int64   `json:"embedding_misses"`
	EmbeddingHitRate     float64 `json:"embedding_hit_rate"`
	SemanticHits         int64   `json:"semantic_hits"`
	SemanticMisses       int64   `json:"semantic_misses"`
	SemanticHitRate      float64 `json:"semantic_hit_rate"`
	PrecomputedCacheSize int     `json:"precomputed_cache_size"`
}

func (s *Service) Stats() Stats {
	eh, em := s.Embeddings.hits.Load(), s.Embeddings.misses.Load()
	sh, sm := s.Responses.hits.Load(), s.Responses.misses.Load()
	return Stats{
		EmbeddingCacheSize: s.Embeddings.Len(),
		SemanticCacheSize:  s.Responses.Len(),
		EmbeddingHits:      eh,
		EmbeddingMisses:    em,
		EmbeddingHitRate:   hitRate(eh, em),
		SemanticHits:       sh,
		SemanticMisses:     sm,
		SemanticHitRate:    hitRate(sh, sm),
	}
}

// hitRate is a percentage rounded to one decimal place.
func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return math.Round(float64(hits)/float64(total)*1000) / 10
}
