package implementation

import (
	"context"
	"errors"

	"course-buddy-be/internal/entity"
	"course-buddy-be/internal/mapper"
	"course-buddy-be/internal/model"
	"course-buddy-be/internal/repository/contract"
	"course-buddy-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TranscriptChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TranscriptChunkMapper
}

func NewTranscriptChunkRepository(db *gorm.DB) contract.TranscriptChunkRepository {
	return &TranscriptChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewTranscriptChunkMapper(),
	}
}

func (r *TranscriptChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TranscriptChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.TranscriptChunk) error {
	models := make([]*model.TranscriptChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}

	// Ids are derived from (lecture id, chunk index), so re-ingesting a lecture overwrites it.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(models, 200).Error
	if err != nil {
		return err
	}

	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *TranscriptChunkRepositoryImpl) Delete(ctx context.Context, specs ...specification.Specification) (int64, error) {
	if len(specs) == 0 {
		return 0, errors.New("refusing to delete transcript chunks without a filter")
	}
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	res := query.Delete(&model.TranscriptChunk{})
	return res.RowsAffected, res.Error
}

func (r *TranscriptChunkRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TranscriptChunk, error) {
	var m model.TranscriptChunk
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.TranscriptChunk{}), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TranscriptChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TranscriptChunk, error) {
	var models []*model.TranscriptChunk
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.TranscriptChunk{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TranscriptChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.TranscriptChunk{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *TranscriptChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, specs ...specification.Specification) ([]*contract.ScoredTranscriptChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	// pgvector <=> is cosine distance, so similarity = 1 - distance
	type result struct {
		model.TranscriptChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("transcript_chunks").
		Select("transcript_chunks.*, 1 - (embedding_value <=> ?) as similarity", queryVector)
	query = r.applySpecifications(query, specs...)

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredTranscriptChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredTranscriptChunk{
			Chunk:      r.mapper.ToEntity(&res.TranscriptChunk),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *TranscriptChunkRepositoryImpl) ListCourses(ctx context.Context) ([]*entity.Course, error) {
	type row struct {
		CourseTitle  string
		ChapterCount int
		LectureCount int
	}
	var rows []row

	err := r.db.WithContext(ctx).
		Model(&model.TranscriptChunk{}).
		Select("course_title, COUNT(DISTINCT chapter_title) as chapter_count, COUNT(DISTINCT lecture_id) as lecture_count").
		Group("course_title").
		Order("course_title ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	courses := make([]*entity.Course, len(rows))
	for i, rw := range rows {
		courses[i] = &entity.Course{Title: rw.CourseTitle, ChapterCount: rw.ChapterCount, LectureCount: rw.LectureCount}
	}
	return courses, nil
}

func (r *TranscriptChunkRepositoryImpl) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
