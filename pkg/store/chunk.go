package store

import "fmt"

// ChunkMetadata describes where a transcript passage lives inside a course.
type ChunkMetadata struct {
	CourseTitle     string  `json:"course_title"`
	ChapterTitle    string  `json:"chapter_title"`
	LectureTitle    string  `json:"lecture_title"`
	LectureID       string  `json:"lecture_id"`
	LectureOrder    int     `json:"lecture_order"` // 1-based within the course
	ChunkIndex      int     `json:"chunk_index"`
	TimestampStart  string  `json:"timestamp_start"`
	TimestampEnd    string  `json:"timestamp_end"`
	DurationSeconds float64 `json:"duration_seconds"`
	PlayerURL       string  `json:"player_url"`
}

// ScoredChunk is a transcript passage returned from a similarity search.
type ScoredChunk struct {
	Text     string        `json:"text"`
	Score    float64       `json:"score"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Key identifies a chunk for de-duplication across searches.
func (c ScoredChunk) Key() string {
	return fmt.Sprintf("%s#%d", c.Metadata.LectureID, c.Metadata.ChunkIndex)
}

// BestScore returns the highest score in chunks, or 0 when empty.
func BestScore(chunks []ScoredChunk) float64 {
	best := 0.0
	for i, c := range chunks {
		if i == 0 || c.Score > best {
			best = c.Score
		}
	}
	return best
}
