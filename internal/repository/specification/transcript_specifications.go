package specification

import "gorm.io/gorm"

// ByCourseTitle scopes transcript chunks to one course.
type ByCourseTitle struct {
	CourseTitle string
}

func (s ByCourseTitle) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("transcript_chunks.course_title = ?", s.CourseTitle)
}

// MaxLectureOrder keeps lectures up to and including Order.
type MaxLectureOrder struct {
	Order int
}

func (s MaxLectureOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("transcript_chunks.lecture_order <= ?", s.Order)
}

type ByLectureID struct {
	LectureID string
}

func (s ByLectureID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("transcript_chunks.lecture_id = ?", s.LectureID)
}

type ByLectureOrder struct {
	Order int
}

func (s ByLectureOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("transcript_chunks.lecture_order = ?", s.Order)
}

// OmitEmbedding skips the vector column for catalog reads.
type OmitEmbedding struct{}

func (s OmitEmbedding) Apply(db *gorm.DB) *gorm.DB {
	return db.Omit("embedding_value")
}
