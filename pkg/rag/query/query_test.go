package query

import (
	"context"
	"errors"
	"testing"

	"course-buddy-be/pkg/embedding"
	"course-buddy-be/pkg/rag"
	"course-buddy-be/pkg/rag/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Generate(ctx context.Context, text string) (*embedding.EmbeddingResponse, error) {
	args := m.Called(ctx, text)
	if res := args.Get(0); res != nil {
		return res.(*embedding.EmbeddingResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestEnrich(t *testing.T) {
	assert.Equal(t, "[Basics - Variables]: what is var?", Enrich("what is var?", "Basics", "Variables"))
	assert.Equal(t, "[Variables]: what is var?", Enrich("what is var?", "", "Variables"))
	assert.Equal(t, "what is var?", Enrich("what is var?", "Basics", ""))
}

func TestEmbedder_UsesCache(t *testing.T) {
	p := new(mockProvider)
	p.On("Generate", mock.Anything, "hello").Return(&embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0}},
	}, nil).Once()

	e := NewEmbedder(p, cache.NewService(cache.DefaultConfig(), nil), nil)

	v1, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), "  HELLO ")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	p.AssertExpectations(t)
}

func TestEmbedder_ProviderError(t *testing.T) {
	p := new(mockProvider)
	p.On("Generate", mock.Anything, "boom").Return(nil, errors.New("down"))

	e := NewEmbedder(p, cache.NewService(cache.DefaultConfig(), nil), nil)
	_, err := e.Embed(context.Background(), "boom")
	assert.ErrorContains(t, err, "down")
	assert.ErrorIs(t, err, rag.ErrUpstreamUnavailable)
}

func TestEmbedder_CancellationIsNotAnOutage(t *testing.T) {
	p := new(mockProvider)
	p.On("Generate", mock.Anything, "slow").Return(nil, context.Canceled)

	e := NewEmbedder(p, cache.NewService(cache.DefaultConfig(), nil), nil)
	_, err := e.Embed(context.Background(), "slow")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, rag.ErrUpstreamUnavailable)
}
