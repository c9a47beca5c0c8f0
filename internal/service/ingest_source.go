package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadLectureCSV reads a content export with a header row. Recognised
// columns: id or lecture_id, course_title, chapter_title, lecture_title,
// transcript, player_embed_url, chapter_order, lecture_order (or
// lecture_order_in_chapter) and module_id. Other columns are ignored.
func ReadLectureCSV(r io.Reader) ([]LectureSource, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}

	get := func(rec []string, names ...string) string {
		for _, n := range names {
			if i, ok := col[n]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
		}
		return ""
	}
	getInt := func(rec []string, names ...string) *int {
		v, err := strconv.Atoi(get(rec, names...))
		if err != nil {
			return nil
		}
		return &v
	}

	var rows []LectureSource
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, LectureSource{
			LectureID:    get(rec, "lecture_id", "id"),
			CourseTitle:  get(rec, "course_title"),
			ChapterTitle: get(rec, "chapter_title"),
			LectureTitle: get(rec, "lecture_title"),
			PlayerURL:    get(rec, "player_embed_url", "player_url"),
			Transcript:   get(rec, "transcript"),
			ChapterOrder: getInt(rec, "chapter_order"),
			LectureOrder: getInt(rec, "lecture_order", "lecture_order_in_chapter"),
			ModuleID:     getInt(rec, "module_id"),
		})
	}
	return rows, nil
}
