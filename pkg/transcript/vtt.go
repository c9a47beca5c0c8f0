// Package transcript turns WEBVTT subtitles into time-windowed chunks
// suitable for embedding.
package transcript

import (
	"bufio"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	cueTiming = regexp.MustCompile(`^(\d{1,2}:\d{2}:\d{2}[.,]\d{1,3})\s*-->\s*(\d{1,2}:\d{2}:\d{2}[.,]\d{1,3})`)
	markup    = regexp.MustCompile(`<[^>]+>`)
)

// Cue is one subtitle entry.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// Chunk is a run of consecutive cues.
type Chunk struct {
	Index          int
	Text           string
	TimestampStart string // HH:MM:SS
	TimestampEnd   string
	StartSeconds   float64
	EndSeconds     float64
	Duration       float64
}

// ParseTimestamp reads "HH:MM:SS.mmm" or "MM:SS.mmm". Malformed input yields 0.
func ParseTimestamp(ts string) float64 {
	parts := strings.Split(strings.TrimSpace(strings.ReplaceAll(ts, ",", ".")), ":")
	var h, m int
	var s float64
	var err error
	switch len(parts) {
	case 3:
		if h, err = strconv.Atoi(parts[0]); err != nil {
			return 0
		}
		parts = parts[1:]
		fallthrough
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
	return float64(h*3600+m*60) + s
}

// FormatTimestamp renders whole seconds as HH:MM:SS.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// Parse extracts cues. Cue text runs until the next blank line; tags are
// stripped and whitespace collapsed. Cues with no text are dropped.
func Parse(raw string) []Cue {
	var (
		cues  []Cue
		cur   *Cue
		lines []string
	)
	flush := func() {
		if cur == nil {
			return
		}
		text := strings.Join(strings.Fields(markup.ReplaceAllString(strings.Join(lines, " "), "")), " ")
		if text != "" {
			cur.Text = text
			cues = append(cues, *cur)
		}
		cur, lines = nil, nil
	}

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if m := cueTiming.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			flush()
			cur = &Cue{Start: ParseTimestamp(m[1]), End: ParseTimestamp(m[2])}
			continue
		}
		if cur == nil {
			continue
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		lines = append(lines, line)
	}
	flush()
	return cues
}

// maxOverrun bounds how far a chunk may run past the window while looking
// for a sentence end.
const maxOverrun = 15.0

func sentenceEnd(text string) bool {
	text = strings.TrimRight(text, " ")
	return text != "" && strings.ContainsAny(text[len(text)-1:], ".!?")
}

// ChunkCues groups cues into windows of about windowSeconds, extending up
// to 15 seconds to finish a sentence.
func ChunkCues(cues []Cue, windowSeconds float64) []Chunk {
	var chunks []Chunk
	for i := 0; i < len(cues); {
		start := cues[i].Start
		end := start
		var texts []string

	collect:
		for i < len(cues) {
			cue := cues[i]
			elapsed := cue.End - start
			switch {
			case elapsed <= windowSeconds:
				texts = append(texts, cue.Text)
				end = cue.End
				i++
			case len(texts) > 0 && sentenceEnd(texts[len(texts)-1]):
				break collect
			case elapsed <= windowSeconds+maxOverrun:
				texts = append(texts, cue.Text)
				end = cue.End
				i++
				if sentenceEnd(cue.Text) {
					break collect
				}
			default:
				break collect
			}
		}

		if len(texts) == 0 {
			// A single cue longer than the hard cap still becomes a chunk.
			texts = append(texts, cues[i].Text)
			end = cues[i].End
			i++
		}
		chunks = append(chunks, Chunk{
			Index:          len(chunks),
			Text:           strings.Join(texts, " "),
			TimestampStart: FormatTimestamp(start),
			TimestampEnd:   FormatTimestamp(end),
			StartSeconds:   start,
			EndSeconds:     end,
			Duration:       math.Round((end-start)*10) / 10,
		})
	}
	return chunks
}

// ParseAndChunk is Parse followed by ChunkCues.
func ParseAndChunk(raw string, windowSeconds float64) []Chunk {
	return ChunkCues(Parse(raw), windowSeconds)
}
