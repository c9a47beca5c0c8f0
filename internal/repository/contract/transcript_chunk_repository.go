package contract

import (
	"context"

	"course-buddy-be/internal/entity"
	"course-buddy-be/internal/repository/specification"
)

// ScoredTranscriptChunk wraps TranscriptChunk with its similarity score
type ScoredTranscriptChunk struct {
	Chunk      *entity.TranscriptChunk
	Similarity float64 // cosine similarity, 1.0 = identical
}

type TranscriptChunkRepository interface {
	// CreateBulk upserts by Id.
	CreateBulk(ctx context.Context, chunks []*entity.TranscriptChunk) error
	// Delete requires at least one spec.
	Delete(ctx context.Context, specs ...specification.Specification) (int64, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TranscriptChunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TranscriptChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore orders by cosine similarity after applying specs.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, specs ...specification.Specification) ([]*ScoredTranscriptChunk, error)
	ListCourses(ctx context.Context) ([]*entity.Course, error)
	Ping(ctx context.Context) error
}
