package service

import (
	"context"
	"errors"
	"testing"

	"course-buddy-be/internal/entity"
	"course-buddy-be/internal/repository/contract"
	"course-buddy-be/internal/repository/specification"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTranscriptRepo struct {
	mock.Mock
}

func (m *mockTranscriptRepo) CreateBulk(ctx context.Context, chunks []*entity.TranscriptChunk) error {
	return m.Called(ctx, chunks).Error(0)
}

func (m *mockTranscriptRepo) Delete(ctx context.Context, specs ...specification.Specification) (int64, error) {
	args := m.Called(ctx, specs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTranscriptRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TranscriptChunk, error) {
	args := m.Called(ctx, specs)
	c, _ := args.Get(0).(*entity.TranscriptChunk)
	return c, args.Error(1)
}

func (m *mockTranscriptRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TranscriptChunk, error) {
	args := m.Called(ctx, specs)
	c, _ := args.Get(0).([]*entity.TranscriptChunk)
	return c, args.Error(1)
}

func (m *mockTranscriptRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	args := m.Called(ctx, specs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTranscriptRepo) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, specs ...specification.Specification) ([]*contract.ScoredTranscriptChunk, error) {
	args := m.Called(ctx, embedding, limit, specs)
	c, _ := args.Get(0).([]*contract.ScoredTranscriptChunk)
	return c, args.Error(1)
}

func (m *mockTranscriptRepo) ListCourses(ctx context.Context) ([]*entity.Course, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).([]*entity.Course)
	return c, args.Error(1)
}

func (m *mockTranscriptRepo) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func transcriptChunk(lectureID, chapter, lecture string, order, idx int, doc string) *entity.TranscriptChunk {
	return &entity.TranscriptChunk{
		Document:        doc,
		CourseTitle:     "Deep Learning Basics",
		ChapterTitle:    chapter,
		LectureTitle:    lecture,
		LectureId:       lectureID,
		LectureOrder:    order,
		ChunkIndex:      idx,
		DurationSeconds: 600,
		PlayerURL:       "https://player.example/" + lectureID,
	}
}

func TestCourseSlug(t *testing.T) {
	assert.Equal(t, "deep-learning-basics", CourseSlug("Deep Learning Basics"))
	assert.Equal(t, "ml", CourseSlug("ML"))
}

func TestCatalogService_ListCourses(t *testing.T) {
	repo := new(mockTranscriptRepo)
	repo.On("ListCourses", mock.Anything).Return([]*entity.Course{
		{Title: "Deep Learning Basics", ChapterCount: 2, LectureCount: 5},
	}, nil)

	courses, err := NewCatalogService(repo).ListCourses(t.Context())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "deep-learning-basics", courses[0].CourseID)
	assert.Equal(t, 5, courses[0].LectureCount)
}

func TestCatalogService_GetCourse(t *testing.T) {
	t.Run("groups lectures by chapter in lecture order", func(t *testing.T) {
		repo := new(mockTranscriptRepo)
		repo.On("ListCourses", mock.Anything).Return([]*entity.Course{
			{Title: "Other Course"},
			{Title: "Deep Learning Basics", ChapterCount: 2, LectureCount: 3},
		}, nil)
		repo.On("FindAll", mock.Anything, mock.Anything).Return([]*entity.TranscriptChunk{
			transcriptChunk("l1", "Foundations", "Intro", 1, 0, "a"),
			transcriptChunk("l1", "Foundations", "Intro", 1, 1, "b"),
			transcriptChunk("l2", "Foundations", "Tensors", 2, 0, "c"),
			transcriptChunk("l3", "Training", "Backprop", 3, 0, "d"),
		}, nil)

		course, err := NewCatalogService(repo).GetCourse(t.Context(), "deep-learning-basics")
		require.NoError(t, err)

		assert.Equal(t, "Deep Learning Basics", course.CourseTitle)
		require.Len(t, course.Chapters, 2)
		assert.Equal(t, "Foundations", course.Chapters[0].ChapterTitle)
		require.Len(t, course.Chapters[0].Lectures, 2)
		assert.Equal(t, "l1", course.Chapters[0].Lectures[0].LectureID)
		assert.Equal(t, "l2", course.Chapters[0].Lectures[1].LectureID)
		assert.Equal(t, "Training", course.Chapters[1].ChapterTitle)
		require.NotNil(t, course.Chapters[1].Lectures[0].Duration)
		assert.Equal(t, 600.0, *course.Chapters[1].Lectures[0].Duration)
	})

	t.Run("unknown slug is 404", func(t *testing.T) {
		repo := new(mockTranscriptRepo)
		repo.On("ListCourses", mock.Anything).Return([]*entity.Course{{Title: "ML"}}, nil)

		_, err := NewCatalogService(repo).GetCourse(t.Context(), "nope")
		var fe *fiber.Error
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, fiber.StatusNotFound, fe.Code)
		repo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
	})
}

func TestCatalogService_GetLecture(t *testing.T) {
	t.Run("joins the transcript", func(t *testing.T) {
		repo := new(mockTranscriptRepo)
		repo.On("FindAll", mock.Anything, mock.Anything).Return([]*entity.TranscriptChunk{
			transcriptChunk("l2", "Foundations", "Tensors", 2, 0, "A tensor is"),
			transcriptChunk("l2", "Foundations", "Tensors", 2, 1, "an n-dimensional array."),
		}, nil)

		lecture, err := NewCatalogService(repo).GetLecture(t.Context(), "l2")
		require.NoError(t, err)
		assert.Equal(t, "A tensor is an n-dimensional array.", lecture.Transcript)
		assert.Equal(t, "Deep Learning Basics", lecture.CourseTitle)
		assert.Equal(t, "Foundations", lecture.ChapterTitle)
		assert.Equal(t, 2, lecture.LectureOrder)
	})

	t.Run("missing lecture is 404", func(t *testing.T) {
		repo := new(mockTranscriptRepo)
		repo.On("FindAll", mock.Anything, mock.Anything).Return([]*entity.TranscriptChunk{}, nil)

		_, err := NewCatalogService(repo).GetLecture(t.Context(), "ghost")
		var fe *fiber.Error
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, fiber.StatusNotFound, fe.Code)
	})

	t.Run("repository error passes through", func(t *testing.T) {
		repo := new(mockTranscriptRepo)
		repo.On("FindAll", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		_, err := NewCatalogService(repo).GetLecture(t.Context(), "l2")
		assert.EqualError(t, err, "db down")
	})
}
