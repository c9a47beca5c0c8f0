package implementation

import (
	"log"
	"os"
	"testing"

	"course-buddy-be/internal/repository/specification"
	"course-buddy-be/pkg/database"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptChunkRepository_Integration(t *testing.T) {
	if err := godotenv.Load("../../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)

	repo := NewTranscriptChunkRepository(gormDB)
	require.NoError(t, repo.Ping(t.Context()))

	courses, err := repo.ListCourses(t.Context())
	require.NoError(t, err)
	if len(courses) == 0 {
		t.Skip("no transcript chunks ingested")
	}

	course := courses[0].Title
	count, err := repo.Count(t.Context(), specification.ByCourseTitle{CourseTitle: course})
	require.NoError(t, err)
	assert.Positive(t, count)

	probe, err := repo.FindOne(t.Context(), specification.ByCourseTitle{CourseTitle: course})
	require.NoError(t, err)
	require.NotNil(t, probe)

	hits, err := repo.SearchSimilarWithScore(t.Context(), probe.EmbeddingValue, 3,
		specification.ByCourseTitle{CourseTitle: course},
		specification.MaxLectureOrder{Order: probe.LectureOrder},
	)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.InDelta(t, 1.0, hits[0].Similarity, 0.01)
	for _, h := range hits {
		assert.LessOrEqual(t, h.Chunk.LectureOrder, probe.LectureOrder)
	}
}
