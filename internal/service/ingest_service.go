package service

import (
	"context"
	"fmt"
	"sort"

	"course-buddy-be/internal/entity"
	"course-buddy-be/internal/pkg/logger"
	"course-buddy-be/internal/repository/specification"
	"course-buddy-be/internal/repository/unitofwork"
	"course-buddy-be/pkg/embedding"
	"course-buddy-be/pkg/transcript"

	"github.com/google/uuid"
)

// chunkNamespace seeds deterministic chunk ids.
var chunkNamespace = uuid.MustParse("6f1c0b9e-4a55-4b8e-9a51-8d3c2f7e1a20")

// ChunkID is stable across re-ingestion of the same lecture.
func ChunkID(lectureID string, chunkIndex int) uuid.UUID {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s_%d", lectureID, chunkIndex)))
}

// LectureSource is one lecture row from the content export. Ordering
// columns are nil when the export does not carry them.
type LectureSource struct {
	LectureID    string
	CourseTitle  string
	ChapterTitle string
	LectureTitle string
	PlayerURL    string
	Transcript   string // WEBVTT

	ChapterOrder *int
	LectureOrder *int // position within the chapter
	ModuleID     *int

	// Order is the 1-based position in the course, set by OrderLectures.
	Order int
}

// OrderLectures assigns course-wide lecture order. It prefers explicit
// chapter and lecture positions, then the platform module id, then the
// export order.
func OrderLectures(rows []LectureSource) []LectureSource {
	out := append([]LectureSource(nil), rows...)

	all := func(has func(LectureSource) bool) bool {
		for _, r := range out {
			if !has(r) {
				return false
			}
		}
		return len(out) > 0
	}

	switch {
	case all(func(r LectureSource) bool { return r.ChapterOrder != nil && r.LectureOrder != nil }):
		sort.SliceStable(out, func(i, j int) bool {
			if *out[i].ChapterOrder != *out[j].ChapterOrder {
				return *out[i].ChapterOrder < *out[j].ChapterOrder
			}
			return *out[i].LectureOrder < *out[j].LectureOrder
		})
	case all(func(r LectureSource) bool { return r.ModuleID != nil }):
		sort.SliceStable(out, func(i, j int) bool { return *out[i].ModuleID < *out[j].ModuleID })
	}

	for i := range out {
		out[i].Order = i + 1
	}
	return out
}

type IngestOptions struct {
	WindowSeconds float64
	// Replace deletes the course's existing chunks first.
	Replace bool
}

type IngestResult struct {
	Lectures int `json:"lectures"`
	Skipped  int `json:"skipped"`
	Chunks   int `json:"chunks"`
}

type IIngestService interface {
	IngestCourse(ctx context.Context, courseTitle string, rows []LectureSource, opts IngestOptions) (*IngestResult, error)
}

type ingestService struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
	logger     logger.ILogger
}

func NewIngestService(uowFactory unitofwork.RepositoryFactory, embedder embedding.EmbeddingProvider, logger logger.ILogger) IIngestService {
	return &ingestService{
		uowFactory: uowFactory,
		embedder:   embedder,
		logger:     logger,
	}
}

// IngestCourse embeds every lecture first and then writes in one
// transaction, so a failed run leaves the previous index untouched.
func (s *ingestService) IngestCourse(ctx context.Context, courseTitle string, rows []LectureSource, opts IngestOptions) (*IngestResult, error) {
	if opts.WindowSeconds <= 0 {
		opts.WindowSeconds = 50
	}
	if opts.Replace && courseTitle == "" {
		return nil, fmt.Errorf("replace requires a course title")
	}

	var selected []LectureSource
	for _, r := range rows {
		if courseTitle == "" || r.CourseTitle == courseTitle {
			selected = append(selected, r)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no lectures found for course %q", courseTitle)
	}
	selected = OrderLectures(selected)

	result := &IngestResult{}
	var all []*entity.TranscriptChunk
	for _, lec := range selected {
		chunks, err := s.embedLecture(ctx, lec, opts.WindowSeconds)
		if err != nil {
			return nil, err
		}
		if len(chunks) == 0 {
			result.Skipped++
			s.logger.Warn("INGEST", "Lecture has no transcript", map[string]interface{}{
				"lecture_id":    lec.LectureID,
				"lecture_title": lec.LectureTitle,
			})
			continue
		}
		all = append(all, chunks...)
		result.Lectures++

		s.logger.Info("INGEST", "Lecture embedded", map[string]interface{}{
			"lecture_order": lec.Order,
			"lecture_title": lec.LectureTitle,
			"chunks":        len(chunks),
		})
	}
	result.Chunks = len(all)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = uow.Rollback()
			panic(r)
		}
	}()

	repo := uow.TranscriptChunkRepository()
	if opts.Replace {
		n, err := repo.Delete(ctx, specification.ByCourseTitle{CourseTitle: courseTitle})
		if err != nil {
			_ = uow.Rollback()
			return nil, fmt.Errorf("failed to clear course: %w", err)
		}
		s.logger.Info("INGEST", "Cleared existing chunks", map[string]interface{}{
			"course":  courseTitle,
			"deleted": n,
		})
	}
	if len(all) > 0 {
		if err := repo.CreateBulk(ctx, all); err != nil {
			_ = uow.Rollback()
			return nil, fmt.Errorf("failed to store chunks: %w", err)
		}
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ingestService) embedLecture(ctx context.Context, lec LectureSource, window float64) ([]*entity.TranscriptChunk, error) {
	chunks := transcript.ParseAndChunk(lec.Transcript, window)
	out := make([]*entity.TranscriptChunk, 0, len(chunks))
	for _, c := range chunks {
		res, err := s.embedder.Generate(ctx, c.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed lecture %s chunk %d: %w", lec.LectureID, c.Index, err)
		}
		out = append(out, &entity.TranscriptChunk{
			Id:              ChunkID(lec.LectureID, c.Index),
			Document:        c.Text,
			EmbeddingValue:  res.Embedding.Values,
			CourseTitle:     lec.CourseTitle,
			ChapterTitle:    lec.ChapterTitle,
			LectureTitle:    lec.LectureTitle,
			LectureId:       lec.LectureID,
			LectureOrder:    lec.Order,
			ChunkIndex:      c.Index,
			TimestampStart:  c.TimestampStart,
			TimestampEnd:    c.TimestampEnd,
			DurationSeconds: c.Duration,
			PlayerURL:       lec.PlayerURL,
		})
	}
	return out, nil
}
