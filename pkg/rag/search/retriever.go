package search

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"course-buddy-be/pkg/rag"
	"course-buddy-be/pkg/rag/intent"
	"course-buddy-be/pkg/store"
)

// LectureScope selects one lecture, by id when set and by order otherwise.
type LectureScope struct {
	LectureID    string
	LectureOrder int
}

// VectorStore is the similarity search backend over transcript chunks.
// Every query is scoped to a single course.
type VectorStore interface {
	// Search returns chunks with lecture_order <= maxLectureOrder.
	Search(ctx context.Context, vector []float32, courseTitle string, maxLectureOrder, topK int) ([]store.ScoredChunk, error)
	// SearchLecture returns chunks of exactly one lecture.
	SearchLecture(ctx context.Context, vector []float32, courseTitle string, scope LectureScope, topK int) ([]store.ScoredChunk, error)
	// SearchCourse ignores lecture order entirely.
	SearchCourse(ctx context.Context, vector []float32, courseTitle string, topK int) ([]store.ScoredChunk, error)
	// LectureOrderByID is a metadata-only lookup. found is false when no chunk carries the id.
	LectureOrderByID(ctx context.Context, lectureID string) (order int, found bool, err error)
}

// Embedder produces query vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config encapsulates retrieval parameters
type Config struct {
	TopK             int
	BroadTopKHigh    int // broad search size when the current lecture already matches well
	StrongCurrent    float64
	KeepCurrentAbove float64
	Boost            float64
	MinCurrent       int
}

func DefaultConfig() Config {
	return Config{
		TopK:             5,
		BroadTopKHigh:    3,
		StrongCurrent:    0.5,
		KeepCurrentAbove: 0.3,
		Boost:            1.3,
		MinCurrent:       2,
	}
}

// Path names the branch the retriever took, for logs and traces.
type Path string

const (
	PathPrevious     Path = "previous"
	PathCurrentOnly  Path = "current_only"
	PathCurrentBroad Path = "current_broad"
	PathBroad        Path = "broad"
)

type Request struct {
	Question      string
	QueryVector   []float32 // enriched query embedding
	CourseTitle   string
	LectureID     string
	FrontendOrder int // 0-based order sent by the client
	Intent        intent.Intent
	CorrelationID string
}

type Result struct {
	Chunks        []store.ScoredChunk
	ResolvedOrder int
	Path          Path
}

// Retriever runs the dual search: current lecture first, earlier lectures
// as supporting context.
type Retriever struct {
	store    VectorStore
	embedder Embedder
	config   Config
	logger   rag.Logger
}

func NewRetriever(vs VectorStore, embedder Embedder, config Config, logger rag.Logger) *Retriever {
	return &Retriever{
		store:    vs,
		embedder: embedder,
		config:   config,
		logger:   rag.OrNop(logger),
	}
}

// ResolveOrder maps a lecture id to its 1-based order in the index.
// Unknown ids fall back to frontendOrder+1. Lookup failures are retried once.
func (r *Retriever) ResolveOrder(ctx context.Context, lectureID string, frontendOrder int) (int, error) {
	if lectureID != "" {
		var (
			order int
			found bool
			err   error
		)
		for attempt := 0; attempt < 2; attempt++ {
			order, found, err = r.store.LectureOrderByID(ctx, lectureID)
			if err == nil {
				break
			}
			r.logger.Warn("RETRIEVER", "Lecture order lookup failed", map[string]interface{}{
				"lecture_id": lectureID,
				"attempt":    attempt + 1,
				"error":      err.Error(),
			})
		}
		if err != nil {
			return 0, fmt.Errorf("%w: lecture order lookup: %v", rag.ErrUpstreamUnavailable, err)
		}
		if found {
			return order, nil
		}
	}

	fallback := frontendOrder + 1
	r.logger.Warn("RETRIEVER", "Lecture order fallback", map[string]interface{}{
		"lecture_id":     lectureID,
		"frontend_order": frontendOrder,
		"resolved_order": fallback,
	})
	return fallback, nil
}

func (r *Retriever) Retrieve(ctx context.Context, req Request) (*Result, error) {
	order, err := r.ResolveOrder(ctx, req.LectureID, req.FrontendOrder)
	if err != nil {
		return nil, err
	}

	logDetails := map[string]interface{}{
		"correlation_id": req.CorrelationID,
		"intent":         string(req.Intent),
		"resolved_order": order,
		"frontend_order": req.FrontendOrder,
	}
	r.logger.Info("RETRIEVER", "Dual search started", logDetails)

	if req.Intent == intent.Previous && order > 1 {
		// The enriched vector is biased toward the current lecture, so the
		// previous lecture is searched with the raw question.
		rawVector, err := r.embedder.Embed(ctx, req.Question)
		if err != nil {
			return nil, err
		}
		prev, err := r.store.SearchLecture(ctx, rawVector, req.CourseTitle, LectureScope{LectureOrder: order - 1}, r.config.TopK)
		if err != nil {
			return nil, upstream(err)
		}
		if len(prev) > 0 {
			r.logPath(req.CorrelationID, PathPrevious, prev)
			return &Result{Chunks: prev, ResolvedOrder: order, Path: PathPrevious}, nil
		}
		r.logger.Warn("RETRIEVER", "Previous lecture has no chunks, falling through", map[string]interface{}{
			"correlation_id": req.CorrelationID,
			"lecture_order":  order - 1,
		})
	}

	scope := LectureScope{LectureID: req.LectureID}
	if req.LectureID == "" {
		scope.LectureOrder = order
	}
	current, err := r.store.SearchLecture(ctx, req.QueryVector, req.CourseTitle, scope, r.config.TopK)
	if err != nil {
		return nil, upstream(err)
	}

	if req.Intent == intent.Current && len(current) > 0 {
		r.logPath(req.CorrelationID, PathCurrentOnly, current)
		return &Result{Chunks: current, ResolvedOrder: order, Path: PathCurrentOnly}, nil
	}

	// Without an id the current lecture was searched by order, so it is
	// recognised by order too.
	isCurrent := func(c store.ScoredChunk) bool {
		if req.LectureID == "" {
			return c.Metadata.LectureOrder == order
		}
		return c.Metadata.LectureID == req.LectureID
	}

	if store.BestScore(current) > r.config.StrongCurrent {
		broad, err := r.store.Search(ctx, req.QueryVector, req.CourseTitle, order, r.config.BroadTopKHigh)
		if err != nil {
			return nil, upstream(err)
		}
		chunks := r.mergeStrong(current, broad, isCurrent)
		r.logPath(req.CorrelationID, PathCurrentBroad, chunks)
		return &Result{Chunks: chunks, ResolvedOrder: order, Path: PathCurrentBroad}, nil
	}

	broad, err := r.store.Search(ctx, req.QueryVector, req.CourseTitle, order, r.config.TopK)
	if err != nil {
		return nil, upstream(err)
	}
	chunks := r.mergeWeak(current, broad, isCurrent)
	r.logPath(req.CorrelationID, PathBroad, chunks)
	return &Result{Chunks: chunks, ResolvedOrder: order, Path: PathBroad}, nil
}

// mergeStrong keeps up to four current chunks plus one unseen broad chunk.
func (r *Retriever) mergeStrong(current, broad []store.ScoredChunk, isCurrent func(store.ScoredChunk) bool) []store.ScoredChunk {
	seen := keys(current)

	combined := make([]store.ScoredChunk, 0, 5)
	combined = append(combined, current[:min(len(current), 4)]...)
	for _, c := range broad {
		if _, dup := seen[c.Key()]; !dup {
			combined = append(combined, c)
			break
		}
	}

	r.boost(combined, isCurrent)
	sortByScore(combined)
	return combined
}

// mergeWeak blends relevant current chunks with broad results and then
// guarantees a minimum number of current-lecture chunks in the top five.
func (r *Retriever) mergeWeak(current, broad []store.ScoredChunk, isCurrent func(store.ScoredChunk) bool) []store.ScoredChunk {
	final := make([]store.ScoredChunk, 0, len(current)+len(broad))
	seen := make(map[string]struct{})

	for _, c := range current {
		if c.Score > r.config.KeepCurrentAbove {
			final = append(final, c)
			seen[c.Key()] = struct{}{}
		}
	}
	for _, c := range broad {
		if _, dup := seen[c.Key()]; !dup {
			final = append(final, c)
			seen[c.Key()] = struct{}{}
		}
	}

	r.boost(final, isCurrent)
	sortByScore(final)

	top := final[:min(len(final), r.config.TopK)]
	var currentInTop, otherInTop []store.ScoredChunk
	for _, c := range top {
		if isCurrent(c) {
			currentInTop = append(currentInTop, c)
		} else {
			otherInTop = append(otherInTop, c)
		}
	}

	if len(currentInTop) >= r.config.MinCurrent || len(current) == 0 {
		return top
	}

	inTop := keys(currentInTop)
	boosted := make(map[string]float64, len(final))
	for _, c := range final {
		boosted[c.Key()] = c.Score
	}

	var remaining []store.ScoredChunk
	for _, c := range current {
		if _, ok := inTop[c.Key()]; ok {
			continue
		}
		if s, ok := boosted[c.Key()]; ok {
			c.Score = s
		}
		remaining = append(remaining, c)
	}
	if len(remaining) == 0 {
		return top
	}

	need := r.config.MinCurrent - len(currentInTop)
	result := make([]store.ScoredChunk, 0, r.config.TopK)
	result = append(result, currentInTop...)
	result = append(result, remaining[:min(len(remaining), need)]...)
	result = append(result, otherInTop...)
	return result[:min(len(result), r.config.TopK)]
}

func (r *Retriever) boost(chunks []store.ScoredChunk, isCurrent func(store.ScoredChunk) bool) {
	for i := range chunks {
		if isCurrent(chunks[i]) {
			chunks[i].Score = min(chunks[i].Score*r.config.Boost, 1.0)
		}
	}
}

func (r *Retriever) logPath(correlationID string, path Path, chunks []store.ScoredChunk) {
	scores := make([]float64, 0, len(chunks))
	for _, c := range chunks {
		scores = append(scores, c.Score)
	}
	r.logger.Info("RETRIEVER", "Search path selected", map[string]interface{}{
		"correlation_id": correlationID,
		"path":           string(path),
		"chunks":         len(chunks),
		"scores":         scores,
	})
}

func keys(chunks []store.ScoredChunk) map[string]struct{} {
	m := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		m[c.Key()] = struct{}{}
	}
	return m
}

func sortByScore(chunks []store.ScoredChunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})
}

func upstream(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", rag.ErrUpstreamUnavailable, err)
}
