package mapper

import (
	"time"

	"course-buddy-be/internal/entity"
	"course-buddy-be/internal/model"
	"course-buddy-be/pkg/store"

	"github.com/pgvector/pgvector-go"
)

type TranscriptChunkMapper struct{}

func NewTranscriptChunkMapper() *TranscriptChunkMapper {
	return &TranscriptChunkMapper{}
}

func (m *TranscriptChunkMapper) ToEntity(c *model.TranscriptChunk) *entity.TranscriptChunk {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.TranscriptChunk{
		Id:              c.Id,
		Document:        c.Document,
		EmbeddingValue:  c.EmbeddingValue.Slice(),
		CourseTitle:     c.CourseTitle,
		ChapterTitle:    c.ChapterTitle,
		LectureTitle:    c.LectureTitle,
		LectureId:       c.LectureId,
		LectureOrder:    c.LectureOrder,
		ChunkIndex:      c.ChunkIndex,
		TimestampStart:  c.TimestampStart,
		TimestampEnd:    c.TimestampEnd,
		DurationSeconds: c.DurationSeconds,
		PlayerURL:       c.PlayerURL,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *TranscriptChunkMapper) ToModel(e *entity.TranscriptChunk) *model.TranscriptChunk {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.TranscriptChunk{
		Id:              e.Id,
		Document:        e.Document,
		EmbeddingValue:  pgvector.NewVector(e.EmbeddingValue),
		CourseTitle:     e.CourseTitle,
		ChapterTitle:    e.ChapterTitle,
		LectureTitle:    e.LectureTitle,
		LectureId:       e.LectureId,
		LectureOrder:    e.LectureOrder,
		ChunkIndex:      e.ChunkIndex,
		TimestampStart:  e.TimestampStart,
		TimestampEnd:    e.TimestampEnd,
		DurationSeconds: e.DurationSeconds,
		PlayerURL:       e.PlayerURL,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

// ToScoredChunk converts a search hit into the retrieval type.
func (m *TranscriptChunkMapper) ToScoredChunk(e *entity.TranscriptChunk, score float64) store.ScoredChunk {
	return store.ScoredChunk{
		Text:  e.Document,
		Score: score,
		Metadata: store.ChunkMetadata{
			CourseTitle:     e.CourseTitle,
			ChapterTitle:    e.ChapterTitle,
			LectureTitle:    e.LectureTitle,
			LectureID:       e.LectureId,
			LectureOrder:    e.LectureOrder,
			ChunkIndex:      e.ChunkIndex,
			TimestampStart:  e.TimestampStart,
			TimestampEnd:    e.TimestampEnd,
			DurationSeconds: e.DurationSeconds,
			PlayerURL:       e.PlayerURL,
		},
	}
}

func (m *TranscriptChunkMapper) ToEntities(chunks []*model.TranscriptChunk) []*entity.TranscriptChunk {
	entities := make([]*entity.TranscriptChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
