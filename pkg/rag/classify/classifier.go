package classify

import (
	"context"
	"fmt"

	"course-buddy-be/pkg/rag"
	"course-buddy-be/pkg/rag/intent"
	"course-buddy-be/pkg/store"
)

// CourseSearcher searches every lecture of a course regardless of order.
type CourseSearcher interface {
	SearchCourse(ctx context.Context, vector []float32, courseTitle string, topK int) ([]store.ScoredChunk, error)
}

type Config struct {
	RelevanceThreshold     float64
	HighRelevanceThreshold float64
}

func DefaultConfig() Config {
	return Config{
		RelevanceThreshold:     0.35,
		HighRelevanceThreshold: 0.7,
	}
}

// Decision is the classifier verdict. Chunks is empty unless Type is in_scope.
type Decision struct {
	Type   store.ResponseType
	Chunks []store.ScoredChunk
	// FutureHint is the best whole-course match for a future topic, if any.
	FutureHint *store.ScoredChunk
}

type Classifier struct {
	searcher CourseSearcher
	config   Config
	logger   rag.Logger
}

func NewClassifier(searcher CourseSearcher, config Config, logger rag.Logger) *Classifier {
	return &Classifier{
		searcher: searcher,
		config:   config,
		logger:   rag.OrNop(logger),
	}
}

// Classify decides whether retrieved chunks can answer the question before
// any model call is made. chunks must be sorted by score, best first.
func (c *Classifier) Classify(ctx context.Context, chunks []store.ScoredChunk, vector []float32, courseTitle string, in intent.Intent) (*Decision, error) {
	if in == intent.Previous && len(chunks) > 0 {
		return &Decision{Type: store.ResponseInScope, Chunks: head(chunks, 5)}, nil
	}

	if len(chunks) == 0 || chunks[0].Score < c.config.RelevanceThreshold {
		all, err := c.searcher.SearchCourse(ctx, vector, courseTitle, 3)
		if err != nil {
			return nil, fmt.Errorf("%w: course search: %v", rag.ErrUpstreamUnavailable, err)
		}
		if len(all) > 0 && all[0].Score >= c.config.RelevanceThreshold {
			hint := all[0]
			c.logger.Info("CLASSIFIER", "Question matches a later lecture", map[string]interface{}{
				"lecture_title": hint.Metadata.LectureTitle,
				"score":         hint.Score,
			})
			return &Decision{Type: store.ResponseFutureTopic, FutureHint: &hint}, nil
		}
		return &Decision{Type: store.ResponseOffTopic}, nil
	}

	if chunks[0].Score >= c.config.HighRelevanceThreshold {
		return &Decision{Type: store.ResponseInScope, Chunks: head(chunks, 3)}, nil
	}
	return &Decision{Type: store.ResponseInScope, Chunks: head(chunks, 5)}, nil
}

func head(chunks []store.ScoredChunk, n int) []store.ScoredChunk {
	if len(chunks) > n {
		return chunks[:n]
	}
	return chunks
}
