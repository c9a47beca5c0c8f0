package service

import (
	"context"
	"sort"
	"strings"

	"course-buddy-be/internal/dto"
	"course-buddy-be/internal/entity"
	"course-buddy-be/internal/repository/contract"
	"course-buddy-be/internal/repository/specification"

	"github.com/gofiber/fiber/v2"
)

// ICatalogService serves course structure straight from the indexed chunks.
type ICatalogService interface {
	ListCourses(ctx context.Context) ([]*dto.CourseResponse, error)
	GetCourse(ctx context.Context, courseID string) (*dto.CourseDetailResponse, error)
	GetLecture(ctx context.Context, lectureID string) (*dto.LectureDetailResponse, error)
}

type catalogService struct {
	repo contract.TranscriptChunkRepository
}

func NewCatalogService(repo contract.TranscriptChunkRepository) ICatalogService {
	return &catalogService{repo: repo}
}

// CourseSlug derives the public course id from its title.
func CourseSlug(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}

func toCourseResponse(c *entity.Course) *dto.CourseResponse {
	return &dto.CourseResponse{
		CourseID:     CourseSlug(c.Title),
		CourseTitle:  c.Title,
		ChapterCount: c.ChapterCount,
		LectureCount: c.LectureCount,
	}
}

func (s *catalogService) ListCourses(ctx context.Context) ([]*dto.CourseResponse, error) {
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.CourseResponse, 0, len(courses))
	for _, c := range courses {
		res = append(res, toCourseResponse(c))
	}
	return res, nil
}

func (s *catalogService) GetCourse(ctx context.Context, courseID string) (*dto.CourseDetailResponse, error) {
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	var course *entity.Course
	for _, c := range courses {
		if CourseSlug(c.Title) == courseID {
			course = c
			break
		}
	}
	if course == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Course not found")
	}

	chunks, err := s.repo.FindAll(ctx,
		specification.ByCourseTitle{CourseTitle: course.Title},
		specification.OmitEmbedding{},
		specification.OrderBy{Field: "lecture_order"},
		specification.OrderBy{Field: "chunk_index"},
	)
	if err != nil {
		return nil, err
	}

	type chapter struct {
		minOrder int
		lectures []dto.LectureResponse
		seen     map[string]struct{}
	}
	chapters := make(map[string]*chapter)
	for _, c := range chunks {
		ch, ok := chapters[c.ChapterTitle]
		if !ok {
			ch = &chapter{minOrder: c.LectureOrder, seen: make(map[string]struct{})}
			chapters[c.ChapterTitle] = ch
		}
		ch.minOrder = min(ch.minOrder, c.LectureOrder)
		if _, dup := ch.seen[c.LectureId]; dup {
			continue
		}
		ch.seen[c.LectureId] = struct{}{}
		ch.lectures = append(ch.lectures, lectureResponse(c))
	}

	res := &dto.CourseDetailResponse{CourseResponse: *toCourseResponse(course)}
	for title, ch := range chapters {
		sort.Slice(ch.lectures, func(i, j int) bool { return ch.lectures[i].LectureOrder < ch.lectures[j].LectureOrder })
		res.Chapters = append(res.Chapters, dto.ChapterResponse{ChapterTitle: title, Lectures: ch.lectures})
	}
	sort.Slice(res.Chapters, func(i, j int) bool {
		return chapters[res.Chapters[i].ChapterTitle].minOrder < chapters[res.Chapters[j].ChapterTitle].minOrder
	})
	return res, nil
}

func (s *catalogService) GetLecture(ctx context.Context, lectureID string) (*dto.LectureDetailResponse, error) {
	chunks, err := s.repo.FindAll(ctx,
		specification.ByLectureID{LectureID: lectureID},
		specification.OmitEmbedding{},
		specification.OrderBy{Field: "chunk_index"},
	)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fiber.NewError(fiber.StatusNotFound, "Lecture not found")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Document
	}
	first := chunks[0]
	return &dto.LectureDetailResponse{
		LectureResponse: lectureResponse(first),
		CourseTitle:     first.CourseTitle,
		ChapterTitle:    first.ChapterTitle,
		Transcript:      strings.Join(texts, " "),
	}, nil
}

func lectureResponse(c *entity.TranscriptChunk) dto.LectureResponse {
	var duration *float64
	if c.DurationSeconds > 0 {
		d := c.DurationSeconds
		duration = &d
	}
	return dto.LectureResponse{
		LectureID:    c.LectureId,
		LectureTitle: c.LectureTitle,
		ThumbnailURL: c.PlayerURL,
		Duration:     duration,
		LectureOrder: c.LectureOrder,
	}
}
