package memory

import (
	"testing"
	"time"

	"course-buddy-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLectureRepository(t *testing.T) {
	r := NewLectureRepository(time.Minute)
	r.Save(&entity.Lecture{LectureId: "lec-2", LectureOrder: 2})

	got, ok := r.Get("lec-2")
	require.True(t, ok)
	assert.Equal(t, 2, got.LectureOrder)

	r.Delete("lec-2")
	_, ok = r.Get("lec-2")
	assert.False(t, ok)
}

func TestLectureRepository_Expires(t *testing.T) {
	r := NewLectureRepository(20 * time.Millisecond)
	r.Save(&entity.Lecture{LectureId: "lec-1"})
	time.Sleep(40 * time.Millisecond)

	_, ok := r.Get("lec-1")
	assert.False(t, ok)
}
