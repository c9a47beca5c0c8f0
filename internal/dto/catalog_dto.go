package dto

type CourseResponse struct {
	CourseID     string `json:"course_id"`
	CourseTitle  string `json:"course_title"`
	ChapterCount int    `json:"chapter_count"`
	LectureCount int    `json:"lecture_count"`
}

type LectureResponse struct {
	LectureID    string   `json:"lecture_id"`
	LectureTitle string   `json:"lecture_title"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Duration     *float64 `json:"duration,omitempty"`
	LectureOrder int      `json:"lecture_order"`
}

type ChapterResponse struct {
	ChapterTitle string            `json:"chapter_title"`
	Lectures     []LectureResponse `json:"lectures"`
}

type CourseDetailResponse struct {
	CourseResponse
	Chapters []ChapterResponse `json:"chapters"`
}

type LectureDetailResponse struct {
	LectureResponse
	CourseTitle  string `json:"course_title"`
	ChapterTitle string `json:"chapter_title"`
	Transcript   string `json:"transcript"`
}
