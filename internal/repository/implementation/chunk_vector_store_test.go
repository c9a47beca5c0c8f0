package implementation

import (
	"context"
	"errors"
	"testing"
	"time"

	"course-buddy-be/internal/entity"
	"course-buddy-be/internal/repository/contract"
	"course-buddy-be/internal/repository/memory"
	"course-buddy-be/internal/repository/specification"
	"course-buddy-be/pkg/rag/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockChunkRepo struct {
	mock.Mock
}

func (m *mockChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.TranscriptChunk) error {
	return m.Called(ctx, chunks).Error(0)
}

func (m *mockChunkRepo) Delete(ctx context.Context, specs ...specification.Specification) (int64, error) {
	args := m.Called(ctx, specs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockChunkRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TranscriptChunk, error) {
	args := m.Called(ctx, specs)
	c, _ := args.Get(0).(*entity.TranscriptChunk)
	return c, args.Error(1)
}

func (m *mockChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TranscriptChunk, error) {
	args := m.Called(ctx, specs)
	c, _ := args.Get(0).([]*entity.TranscriptChunk)
	return c, args.Error(1)
}

func (m *mockChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	args := m.Called(ctx, specs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockChunkRepo) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, specs ...specification.Specification) ([]*contract.ScoredTranscriptChunk, error) {
	args := m.Called(ctx, embedding, limit, specs)
	c, _ := args.Get(0).([]*contract.ScoredTranscriptChunk)
	return c, args.Error(1)
}

func (m *mockChunkRepo) ListCourses(ctx context.Context) ([]*entity.Course, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).([]*entity.Course)
	return c, args.Error(1)
}

func (m *mockChunkRepo) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestChunkVectorStore_SearchAppliesCourseAndOrder(t *testing.T) {
	repo := new(mockChunkRepo)
	vs := NewChunkVectorStore(repo, memory.NewLectureRepository(time.Minute))
	vec := []float32{1, 0}

	repo.On("SearchSimilarWithScore", mock.Anything, vec, 5, []specification.Specification{
		specification.ByCourseTitle{CourseTitle: "ML"},
		specification.MaxLectureOrder{Order: 3},
	}).Return([]*contract.ScoredTranscriptChunk{
		{Chunk: &entity.TranscriptChunk{Document: "a", LectureId: "l2", LectureOrder: 2}, Similarity: 0.8},
	}, nil)

	out, err := vs.Search(t.Context(), vec, "ML", 3, 5)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 0.8, out[0].Score)
	assert.Equal(t, 2, out[0].Metadata.LectureOrder)
	repo.AssertExpectations(t)
}

func TestChunkVectorStore_SearchLecturePrefersID(t *testing.T) {
	repo := new(mockChunkRepo)
	vs := NewChunkVectorStore(repo, memory.NewLectureRepository(time.Minute))
	vec := []float32{1}

	repo.On("SearchSimilarWithScore", mock.Anything, vec, 5, []specification.Specification{
		specification.ByCourseTitle{CourseTitle: "ML"},
		specification.ByLectureID{LectureID: "l4"},
	}).Return(nil, nil).Once()
	repo.On("SearchSimilarWithScore", mock.Anything, vec, 5, []specification.Specification{
		specification.ByCourseTitle{CourseTitle: "ML"},
		specification.ByLectureOrder{Order: 3},
	}).Return(nil, nil).Once()

	_, err := vs.SearchLecture(t.Context(), vec, "ML", search.LectureScope{LectureID: "l4", LectureOrder: 9}, 5)
	require.NoError(t, err)
	_, err = vs.SearchLecture(t.Context(), vec, "ML", search.LectureScope{LectureOrder: 3}, 5)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestChunkVectorStore_LectureOrderByIDIsCached(t *testing.T) {
	repo := new(mockChunkRepo)
	vs := NewChunkVectorStore(repo, memory.NewLectureRepository(time.Minute))

	repo.On("FindOne", mock.Anything, []specification.Specification{specification.ByLectureID{LectureID: "l7"}}).
		Return(&entity.TranscriptChunk{LectureId: "l7", LectureOrder: 7}, nil).Once()

	for range 3 {
		order, found, err := vs.LectureOrderByID(t.Context(), "l7")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, 7, order)
	}
	repo.AssertExpectations(t)
}

func TestChunkVectorStore_LectureOrderByIDUnknownAndError(t *testing.T) {
	repo := new(mockChunkRepo)
	vs := NewChunkVectorStore(repo, memory.NewLectureRepository(time.Minute))

	repo.On("FindOne", mock.Anything, []specification.Specification{specification.ByLectureID{LectureID: "missing"}}).
		Return(nil, nil)
	repo.On("FindOne", mock.Anything, []specification.Specification{specification.ByLectureID{LectureID: "broken"}}).
		Return(nil, errors.New("db down"))

	_, found, err := vs.LectureOrderByID(t.Context(), "missing")
	assert.NoError(t, err)
	assert.False(t, found)

	_, _, err = vs.LectureOrderByID(t.Context(), "broken")
	assert.Error(t, err)
}
