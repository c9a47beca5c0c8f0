package search

import (
	"context"
	"errors"
	"testing"

	"course-buddy-be/pkg/rag"
	"course-buddy-be/pkg/rag/intent"
	"course-buddy-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	orders      map[string]int
	lookupErrs  []error
	lookupCalls int

	byID    map[string][]store.ScoredChunk
	byOrder map[int][]store.ScoredChunk
	broad   []store.ScoredChunk
	course  []store.ScoredChunk

	lastScope   LectureScope
	broadTopK   int
	searchCalls int
}

func (f *fakeStore) Search(_ context.Context, _ []float32, _ string, _ int, topK int) ([]store.ScoredChunk, error) {
	f.searchCalls++
	f.broadTopK = topK
	return clip(f.broad, topK), nil
}

func (f *fakeStore) SearchLecture(_ context.Context, _ []float32, _ string, scope LectureScope, topK int) ([]store.ScoredChunk, error) {
	f.lastScope = scope
	if scope.LectureID != "" {
		return clip(f.byID[scope.LectureID], topK), nil
	}
	return clip(f.byOrder[scope.LectureOrder], topK), nil
}

func (f *fakeStore) SearchCourse(_ context.Context, _ []float32, _ string, topK int) ([]store.ScoredChunk, error) {
	return clip(f.course, topK), nil
}

func (f *fakeStore) LectureOrderByID(_ context.Context, id string) (int, bool, error) {
	f.lookupCalls++
	if len(f.lookupErrs) > 0 {
		err := f.lookupErrs[0]
		f.lookupErrs = f.lookupErrs[1:]
		if err != nil {
			return 0, false, err
		}
	}
	o, ok := f.orders[id]
	return o, ok, nil
}

func clip(c []store.ScoredChunk, n int) []store.ScoredChunk {
	out := append([]store.ScoredChunk(nil), c...)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	v, _ := args.Get(0).([]float32)
	return v, args.Error(1)
}

func chunk(lectureID string, order, idx int, score float64) store.ScoredChunk {
	return store.ScoredChunk{
		Text:  lectureID,
		Score: score,
		Metadata: store.ChunkMetadata{
			LectureID:    lectureID,
			LectureTitle: "Lecture " + lectureID,
			LectureOrder: order,
			ChunkIndex:   idx,
		},
	}
}

func newRetriever(fs *fakeStore, emb Embedder) *Retriever {
	return NewRetriever(fs, emb, DefaultConfig(), nil)
}

func TestResolveOrder(t *testing.T) {
	fs := &fakeStore{orders: map[string]int{"L7": 7}}
	r := newRetriever(fs, nil)

	order, err := r.ResolveOrder(context.Background(), "L7", 3)
	require.NoError(t, err)
	assert.Equal(t, 7, order)

	order, err = r.ResolveOrder(context.Background(), "unknown", 3)
	require.NoError(t, err)
	assert.Equal(t, 4, order, "heuristic fallback is frontend order + 1")

	order, err = r.ResolveOrder(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, order)
}

func TestResolveOrder_RetriesOnceThenFails(t *testing.T) {
	fs := &fakeStore{orders: map[string]int{"L2": 2}, lookupErrs: []error{errors.New("timeout"), nil}}
	r := newRetriever(fs, nil)

	order, err := r.ResolveOrder(context.Background(), "L2", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, order)
	assert.Equal(t, 2, fs.lookupCalls)

	fs = &fakeStore{lookupErrs: []error{errors.New("down"), errors.New("down")}}
	r = newRetriever(fs, nil)
	_, err = r.ResolveOrder(context.Background(), "L2", 0)
	assert.ErrorIs(t, err, rag.ErrUpstreamUnavailable)
}

func TestRetrieve_PreviousIntentReturnsPreviousLecture(t *testing.T) {
	fs := &fakeStore{
		orders:  map[string]int{"L3": 3},
		byOrder: map[int][]store.ScoredChunk{2: {chunk("L2", 2, 0, 0.12), chunk("L2", 2, 1, 0.08)}},
		byID:    map[string][]store.ScoredChunk{"L3": {chunk("L3", 3, 0, 0.9)}},
	}
	emb := new(mockEmbedder)
	emb.On("Embed", mock.Anything, "what was in the previous lecture?").Return([]float32{1}, nil)

	res, err := newRetriever(fs, emb).Retrieve(context.Background(), Request{
		Question:    "what was in the previous lecture?",
		QueryVector: []float32{0.5},
		CourseTitle: "Go",
		LectureID:   "L3",
		Intent:      intent.Previous,
	})
	require.NoError(t, err)

	assert.Equal(t, PathPrevious, res.Path)
	require.Len(t, res.Chunks, 2)
	for _, c := range res.Chunks {
		assert.Equal(t, 2, c.Metadata.LectureOrder)
	}
	assert.Equal(t, 0.12, res.Chunks[0].Score, "scores are not boosted or filtered")
	emb.AssertExpectations(t)
}

func TestRetrieve_PreviousIntentOnFirstLectureFallsThrough(t *testing.T) {
	fs := &fakeStore{
		orders: map[string]int{"L1": 1},
		byID:   map[string][]store.ScoredChunk{"L1": {chunk("L1", 1, 0, 0.4)}},
	}
	res, err := newRetriever(fs, new(mockEmbedder)).Retrieve(context.Background(), Request{
		Question: "in the previous lecture", LectureID: "L1", Intent: intent.Previous,
	})
	require.NoError(t, err)
	assert.NotEqual(t, PathPrevious, res.Path)
}

func TestRetrieve_CurrentIntentReturnsCurrentOnly(t *testing.T) {
	fs := &fakeStore{
		orders: map[string]int{"L3": 3},
		byID:   map[string][]store.ScoredChunk{"L3": {chunk("L3", 3, 0, 0.2)}},
		broad:  []store.ScoredChunk{chunk("L1", 1, 0, 0.9)},
	}
	res, err := newRetriever(fs, nil).Retrieve(context.Background(), Request{LectureID: "L3", Intent: intent.Current})
	require.NoError(t, err)
	assert.Equal(t, PathCurrentOnly, res.Path)
	assert.Len(t, res.Chunks, 1)
	assert.Equal(t, 0, fs.searchCalls)
}

func TestRetrieve_StrongCurrentBoostsAndClamps(t *testing.T) {
	fs := &fakeStore{
		orders: map[string]int{"L3": 3},
		byID: map[string][]store.ScoredChunk{"L3": {
			chunk("L3", 3, 0, 0.9),
			chunk("L3", 3, 1, 0.6),
			chunk("L3", 3, 2, 0.55),
			chunk("L3", 3, 3, 0.5),
			chunk("L3", 3, 4, 0.45),
		}},
		broad: []store.ScoredChunk{
			chunk("L3", 3, 0, 0.9),
			chunk("L1", 1, 7, 0.85),
			chunk("L2", 2, 1, 0.8),
		},
	}
	res, err := newRetriever(fs, nil).Retrieve(context.Background(), Request{LectureID: "L3", Intent: intent.Default})
	require.NoError(t, err)

	assert.Equal(t, PathCurrentBroad, res.Path)
	assert.Equal(t, 3, fs.broadTopK)
	require.Len(t, res.Chunks, 5)
	assert.Equal(t, 1.0, res.Chunks[0].Score, "0.9 * 1.3 clamps to 1.0")
	assert.Equal(t, "L1", res.Chunks[1].Metadata.LectureID)
	assert.InDelta(t, 0.78, res.Chunks[2].Score, 1e-9)

	var others int
	for _, c := range res.Chunks {
		assert.LessOrEqual(t, c.Score, 1.0)
		if c.Metadata.LectureID != "L3" {
			others++
			assert.Equal(t, "L1", c.Metadata.LectureID)
			assert.Equal(t, 0.85, c.Score)
		}
	}
	assert.Equal(t, 1, others)
}

func TestRetrieve_WeakCurrentGuaranteesTwoCurrentChunks(t *testing.T) {
	fs := &fakeStore{
		orders: map[string]int{"L5": 5},
		byID: map[string][]store.ScoredChunk{"L5": {
			chunk("L5", 5, 0, 0.35),
			chunk("L5", 5, 1, 0.2),
		}},
		broad: []store.ScoredChunk{
			chunk("L1", 1, 0, 0.48),
			chunk("L2", 2, 0, 0.47),
			chunk("L3", 3, 0, 0.46),
			chunk("L4", 4, 0, 0.46),
			chunk("L4", 4, 1, 0.45),
		},
	}
	res, err := newRetriever(fs, nil).Retrieve(context.Background(), Request{LectureID: "L5", Intent: intent.Default})
	require.NoError(t, err)

	assert.Equal(t, PathBroad, res.Path)
	assert.Equal(t, 5, fs.broadTopK)
	require.Len(t, res.Chunks, 5)

	var current []store.ScoredChunk
	for _, c := range res.Chunks {
		if c.Metadata.LectureID == "L5" {
			current = append(current, c)
		}
	}
	require.Len(t, current, 2)
	assert.InDelta(t, 0.455, current[0].Score, 1e-9)
	assert.Equal(t, 0.2, current[1].Score, "below-threshold chunk is spliced in unboosted")
	assert.Equal(t, "L5", res.Chunks[0].Metadata.LectureID)
	assert.Equal(t, "L5", res.Chunks[1].Metadata.LectureID)
}

func TestRetrieve_NoLectureIDSearchesByOrder(t *testing.T) {
	fs := &fakeStore{byOrder: map[int][]store.ScoredChunk{3: {chunk("L3", 3, 0, 0.2)}}}
	res, err := newRetriever(fs, nil).Retrieve(context.Background(), Request{FrontendOrder: 2, Intent: intent.Current})
	require.NoError(t, err)
	assert.Equal(t, 3, fs.lastScope.LectureOrder)
	assert.Equal(t, 3, res.ResolvedOrder)
}

func TestRetrieve_NoLectureIDRecognisesCurrentByOrder(t *testing.T) {
	t.Run("strong current is boosted", func(t *testing.T) {
		fs := &fakeStore{
			byOrder: map[int][]store.ScoredChunk{3: {
				chunk("L3", 3, 0, 0.9),
				chunk("L3", 3, 1, 0.6),
			}},
			broad: []store.ScoredChunk{chunk("L1", 1, 7, 0.85)},
		}
		res, err := newRetriever(fs, nil).Retrieve(context.Background(), Request{FrontendOrder: 2, Intent: intent.Default})
		require.NoError(t, err)

		assert.Equal(t, PathCurrentBroad, res.Path)
		require.Len(t, res.Chunks, 3)
		assert.Equal(t, 1.0, res.Chunks[0].Score)
		assert.InDelta(t, 0.78, res.Chunks[2].Score, 1e-9)
		assert.Equal(t, 0.85, res.Chunks[1].Score, "other lectures are not boosted")
	})

	t.Run("weak current still gets two slots", func(t *testing.T) {
		fs := &fakeStore{
			byOrder: map[int][]store.ScoredChunk{5: {
				chunk("L5", 5, 0, 0.35),
				chunk("L5", 5, 1, 0.2),
			}},
			broad: []store.ScoredChunk{
				chunk("L1", 1, 0, 0.48),
				chunk("L2", 2, 0, 0.47),
				chunk("L3", 3, 0, 0.46),
				chunk("L4", 4, 0, 0.46),
				chunk("L4", 4, 1, 0.45),
			},
		}
		res, err := newRetriever(fs, nil).Retrieve(context.Background(), Request{FrontendOrder: 4, Intent: intent.Default})
		require.NoError(t, err)

		assert.Equal(t, PathBroad, res.Path)
		require.Len(t, res.Chunks, 5)
		assert.Equal(t, 5, res.Chunks[0].Metadata.LectureOrder)
		assert.InDelta(t, 0.455, res.Chunks[0].Score, 1e-9)
		assert.Equal(t, 5, res.Chunks[1].Metadata.LectureOrder)
		assert.Equal(t, 0.2, res.Chunks[1].Score)
	})
}
