package reference

import (
	"fmt"
	"strconv"
	"strings"

	"course-buddy-be/pkg/store"
)

// TimestampToSeconds parses "HH:MM:SS(.mmm)" or "MM:SS(.mmm)". Malformed input yields 0.
func TimestampToSeconds(ts string) int {
	parts := strings.Split(strings.TrimSpace(ts), ":")

	var h, m int
	var s float64
	var err error

	switch len(parts) {
	case 3:
		if h, err = strconv.Atoi(parts[0]); err != nil {
			return 0
		}
		if m, err = strconv.Atoi(parts[1]); err != nil {
			return 0
		}
		if s, err = strconv.ParseFloat(parts[2], 64); err != nil {
			return 0
		}
	case 2:
		if m, err = strconv.Atoi(parts[0]); err != nil {
			return 0
		}
		if s, err = strconv.ParseFloat(parts[1], 64); err != nil {
			return 0
		}
	default:
		return 0
	}
	return int(float64(h*3600+m*60) + s)
}

// DeepLink points the lecture player at a timestamp. Empty without a player URL.
func DeepLink(playerURL, timestamp string) string {
	if playerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s#t=%ds", playerURL, TimestampToSeconds(timestamp))
}

func displayTimestamp(ts string) string {
	return strings.TrimPrefix(ts, "00:")
}

// Build lists citations to lectures other than the one being watched,
// unique by (lecture title, start timestamp), in chunk order.
func Build(chunks []store.ScoredChunk, currentLectureID string) []store.Reference {
	refs := make([]store.Reference, 0, len(chunks))
	seen := make(map[[2]string]struct{})

	for _, c := range chunks {
		meta := c.Metadata
		if currentLectureID != "" && meta.LectureID == currentLectureID {
			continue
		}

		key := [2]string{meta.LectureTitle, meta.TimestampStart}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		start := meta.TimestampStart
		if start == "" {
			start = "00:00:00"
		}
		refs = append(refs, store.Reference{
			LectureTitle: meta.LectureTitle,
			ChapterTitle: meta.ChapterTitle,
			Timestamp:    displayTimestamp(start),
			URL:          DeepLink(meta.PlayerURL, start),
		})
	}
	return refs
}

// Linkify turns the first mention of each other-lecture title into a
// markdown link to the cited moment.
func Linkify(text string, chunks []store.ScoredChunk, currentLectureID string) string {
	for _, c := range chunks {
		meta := c.Metadata
		if currentLectureID != "" && meta.LectureID == currentLectureID {
			continue
		}
		if meta.LectureTitle == "" || meta.PlayerURL == "" {
			continue
		}
		if !strings.Contains(text, meta.LectureTitle) {
			continue
		}
		link := fmt.Sprintf("[%s](%s)", meta.LectureTitle, DeepLink(meta.PlayerURL, meta.TimestampStart))
		text = strings.Replace(text, meta.LectureTitle, link, 1)
	}
	return text
}

// ShouldDisplay reports whether the chunks span more than one lecture.
func ShouldDisplay(chunks []store.ScoredChunk) bool {
	ids := make(map[string]struct{})
	for _, c := range chunks {
		ids[c.Metadata.LectureID] = struct{}{}
		if len(ids) > 1 {
			return true
		}
	}
	return false
}
