package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"course-buddy-be/pkg/embedding"
	"course-buddy-be/pkg/rag"
	"course-buddy-be/pkg/rag/cache"
)

// Enrich prefixes the question with its lecture context so the query vector
// lands closer to passages from that lecture.
func Enrich(question, chapterTitle, lectureTitle string) string {
	switch {
	case chapterTitle != "" && lectureTitle != "":
		return fmt.Sprintf("[%s - %s]: %s", chapterTitle, lectureTitle, question)
	case lectureTitle != "":
		return fmt.Sprintf("[%s]: %s", lectureTitle, question)
	default:
		return question
	}
}

// Embedder resolves text to vectors through the embedding cache.
type Embedder struct {
	provider embedding.EmbeddingProvider
	cache    *cache.Service
	logger   rag.Logger
}

func NewEmbedder(provider embedding.EmbeddingProvider, c *cache.Service, logger rag.Logger) *Embedder {
	return &Embedder{
		provider: provider,
		cache:    c,
		logger:   rag.OrNop(logger),
	}
}

// Embed returns the cached vector for text or computes and stores it.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.GetEmbedding(text); ok {
		return v, nil
	}

	res, err := e.provider.Generate(ctx, strings.TrimSpace(text))
	if err != nil {
		e.logger.Error("EMBEDDER", "Embedding generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: embedding: %v", rag.ErrUpstreamUnavailable, err)
	}

	vec := res.Embedding.Values
	e.cache.StoreEmbedding(text, vec)
	return vec, nil
}
