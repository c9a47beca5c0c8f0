package memory

import (
	"time"

	"course-buddy-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// LectureRepository caches lecture metadata (no chunks) by lecture id.
// Lecture order and titles change only on re-ingestion.
type LectureRepository struct {
	cache *cache.Cache
}

func NewLectureRepository(ttl time.Duration) *LectureRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LectureRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *LectureRepository) Save(lecture *entity.Lecture) {
	r.cache.Set(lecture.LectureId, lecture, cache.DefaultExpiration)
}

func (r *LectureRepository) Get(lectureID string) (*entity.Lecture, bool) {
	if x, found := r.cache.Get(lectureID); found {
		return x.(*entity.Lecture), true
	}
	return nil, false
}

func (r *LectureRepository) Delete(lectureID string) {
	r.cache.Delete(lectureID)
}

func (r *LectureRepository) Flush() {
	r.cache.Flush()
}
