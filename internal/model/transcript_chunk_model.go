package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// TranscriptChunk is one embedded passage of a lecture transcript.
type TranscriptChunk struct {
	Id              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Document        string          `gorm:"type:text;not null"`
	EmbeddingValue  pgvector.Vector `gorm:"type:vector(384)"` // all-MiniLM-L6-v2
	CourseTitle     string          `gorm:"type:text;not null;index:idx_chunk_course_order,priority:1"`
	ChapterTitle    string          `gorm:"type:text"`
	LectureTitle    string          `gorm:"type:text"`
	LectureId       string          `gorm:"type:varchar(64);not null;index"`
	LectureOrder    int             `gorm:"not null;index:idx_chunk_course_order,priority:2"`
	ChunkIndex      int             `gorm:"default:0"`
	TimestampStart  string          `gorm:"type:varchar(16)"`
	TimestampEnd    string          `gorm:"type:varchar(16)"`
	DurationSeconds float64         `gorm:"default:0"`
	PlayerURL       string          `gorm:"column:player_url;type:text"`
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime"`
}

func (TranscriptChunk) TableName() string {
	return "transcript_chunks"
}
