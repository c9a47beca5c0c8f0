package implementation

import (
	"context"

	"course-buddy-be/internal/entity"
	"course-buddy-be/internal/mapper"
	"course-buddy-be/internal/repository/contract"
	"course-buddy-be/internal/repository/memory"
	"course-buddy-be/internal/repository/specification"
	"course-buddy-be/pkg/rag/search"
	"course-buddy-be/pkg/store"
)

// ChunkVectorStore adapts the transcript chunk repository to search.VectorStore.
type ChunkVectorStore struct {
	repo     contract.TranscriptChunkRepository
	lectures *memory.LectureRepository
	mapper   *mapper.TranscriptChunkMapper
}

var _ search.VectorStore = (*ChunkVectorStore)(nil)

func NewChunkVectorStore(repo contract.TranscriptChunkRepository, lectures *memory.LectureRepository) *ChunkVectorStore {
	return &ChunkVectorStore{
		repo:     repo,
		lectures: lectures,
		mapper:   mapper.NewTranscriptChunkMapper(),
	}
}

func (s *ChunkVectorStore) search(ctx context.Context, vector []float32, topK int, specs ...specification.Specification) ([]store.ScoredChunk, error) {
	hits, err := s.repo.SearchSimilarWithScore(ctx, vector, topK, specs...)
	if err != nil {
		return nil, err
	}
	out := make([]store.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		out = append(out, s.mapper.ToScoredChunk(h.Chunk, h.Similarity))
	}
	return out, nil
}

func (s *ChunkVectorStore) Search(ctx context.Context, vector []float32, courseTitle string, maxLectureOrder, topK int) ([]store.ScoredChunk, error) {
	return s.search(ctx, vector, topK,
		specification.ByCourseTitle{CourseTitle: courseTitle},
		specification.MaxLectureOrder{Order: maxLectureOrder},
	)
}

func (s *ChunkVectorStore) SearchLecture(ctx context.Context, vector []float32, courseTitle string, scope search.LectureScope, topK int) ([]store.ScoredChunk, error) {
	var lecture specification.Specification = specification.ByLectureOrder{Order: scope.LectureOrder}
	if scope.LectureID != "" {
		lecture = specification.ByLectureID{LectureID: scope.LectureID}
	}
	return s.search(ctx, vector, topK, specification.ByCourseTitle{CourseTitle: courseTitle}, lecture)
}

func (s *ChunkVectorStore) SearchCourse(ctx context.Context, vector []float32, courseTitle string, topK int) ([]store.ScoredChunk, error) {
	return s.search(ctx, vector, topK, specification.ByCourseTitle{CourseTitle: courseTitle})
}

func (s *ChunkVectorStore) LectureOrderByID(ctx context.Context, lectureID string) (int, bool, error) {
	lecture, found, err := s.Lecture(ctx, lectureID)
	if err != nil || !found {
		return 0, found, err
	}
	return lecture.LectureOrder, true, nil
}

// Lecture returns cached lecture metadata, loading it from the first chunk on a miss.
func (s *ChunkVectorStore) Lecture(ctx context.Context, lectureID string) (*entity.Lecture, bool, error) {
	if l, ok := s.lectures.Get(lectureID); ok {
		return l, true, nil
	}

	chunk, err := s.repo.FindOne(ctx, specification.ByLectureID{LectureID: lectureID})
	if err != nil {
		return nil, false, err
	}
	if chunk == nil {
		return nil, false, nil
	}

	l := &entity.Lecture{
		LectureId:    chunk.LectureId,
		CourseTitle:  chunk.CourseTitle,
		ChapterTitle: chunk.ChapterTitle,
		LectureTitle: chunk.LectureTitle,
		LectureOrder: chunk.LectureOrder,
		PlayerURL:    chunk.PlayerURL,
	}
	s.lectures.Save(l)
	return l, true, nil
}

func (s *ChunkVectorStore) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
