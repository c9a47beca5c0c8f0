package embedding

import (
	"context"
	"math"
)

// Dimensions is the vector size stored in the transcript index (all-MiniLM-L6-v2).
const Dimensions = 384

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// EmbeddingProvider turns text into a unit-length vector.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string) (*EmbeddingResponse, error)
}

// Normalize scales vec to unit length so that dot product equals cosine similarity.
func Normalize(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
