package entity

import (
	"time"

	"github.com/google/uuid"
)

type TranscriptChunk struct {
	Id              uuid.UUID
	Document        string
	EmbeddingValue  []float32
	CourseTitle     string
	ChapterTitle    string
	LectureTitle    string
	LectureId       string
	LectureOrder    int
	ChunkIndex      int
	TimestampStart  string
	TimestampEnd    string
	DurationSeconds float64
	PlayerURL       string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// Course is derived from the chunks that carry its title.
type Course struct {
	Title        string
	ChapterCount int
	LectureCount int
}

// Lecture groups the chunks of one lecture in chunk order.
type Lecture struct {
	LectureId    string
	CourseTitle  string
	ChapterTitle string
	LectureTitle string
	LectureOrder int
	PlayerURL    string
	Chunks       []*TranscriptChunk
}
