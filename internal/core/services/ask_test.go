package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

// stubRetriever implements driving.RetrievalService.
type stubRetriever struct {
	results []domain.RetrievalResult
	err     error
	calls   int
	lastK   int
}

func (s *stubRetriever) Retrieve(_ context.Context, _ string, k int) ([]domain.RetrievalResult, error) {
	s.calls++
	s.lastK = k
	return s.results, s.err
}

func TestAskService_Ask(t *testing.T) {
	ctx := context.Background()

	t.Run("answers with sources", func(t *testing.T) {
		retriever := &stubRetriever{results: testPassages()}
		llm := &mockLLM{replies: []llmReply{{text: wellFormedAnswer}}}
		service := NewAskService(retriever, newTestGenerator(llm), 0)

		answer, err := service.Ask(ctx, "What does photosynthesis do?")

		require.NoError(t, err)
		assert.Equal(t, domain.DefaultTopK, retriever.lastK)
		assert.Equal(t, "Light becomes chemical energy.", answer.DirectAnswer)
		require.Len(t, answer.Sources, 2)
		assert.Equal(t, "biology.txt", answer.Sources[0].SourceID)
		assert.Equal(t, "biology.txt#0000", answer.Sources[0].ChunkID)
		assert.InDelta(t, 0.9, answer.Sources[0].Score, 1e-9)
	})

	t.Run("empty question is rejected before retrieval", func(t *testing.T) {
		retriever := &stubRetriever{}
		llm := &mockLLM{}
		service := NewAskService(retriever, newTestGenerator(llm), 3)

		_, err := service.Ask(ctx, "   ")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Zero(t, retriever.calls)
		assert.Zero(t, llm.callCount())
	})

	t.Run("no passages gives the canned answer", func(t *testing.T) {
		llm := &mockLLM{}
		service := NewAskService(&stubRetriever{}, newTestGenerator(llm), 3)

		answer, err := service.Ask(ctx, "What is quantum chromodynamics?")

		require.NoError(t, err)
		assert.Equal(t, domain.NoInformationAnswer(), *answer)
		assert.Zero(t, llm.callCount())
	})

	t.Run("index not ready escalates", func(t *testing.T) {
		service := NewAskService(&stubRetriever{err: domain.ErrIndexNotReady}, newTestGenerator(&mockLLM{}), 3)

		_, err := service.Ask(ctx, "gravity?")

		assert.ErrorIs(t, err, domain.ErrIndexNotReady)
	})

	t.Run("generation failure is typed", func(t *testing.T) {
		llm := &mockLLM{replies: []llmReply{{err: errors.New("429")}, {err: errors.New("429")}}}
		service := NewAskService(&stubRetriever{results: testPassages()}, newTestGenerator(llm), 3)

		answer, err := service.Ask(ctx, "gravity?")

		assert.Nil(t, answer)
		assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	})

	t.Run("degraded answer keeps its shape", func(t *testing.T) {
		llm := &mockLLM{replies: []llmReply{{text: "free-form rambling"}}}
		service := NewAskService(&stubRetriever{results: testPassages()}, newTestGenerator(llm), 3)

		answer, err := service.Ask(ctx, "photosynthesis?")

		require.NoError(t, err)
		assert.True(t, answer.IsComplete())
		assert.True(t, answer.Degraded)
		assert.NotEmpty(t, answer.Sources)
	})
}

func TestAskService_EndToEnd(t *testing.T) {
	f := newRetrieverFixture(t, RetrieverConfig{})
	_, err := f.retriever.Reindex(context.Background())
	require.NoError(t, err)

	llm := &mockLLM{replies: []llmReply{{text: wellFormedAnswer}}}
	service := NewAskService(f.retriever, newTestGenerator(llm), 1)

	answer, err := service.Ask(context.Background(), "Explain photosynthesis")

	require.NoError(t, err)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "biology.txt", answer.Sources[0].SourceID)
	assert.Contains(t, llm.lastUserPrompt(0), "From biology.txt:")
	assert.NotContains(t, llm.lastUserPrompt(0), "physics.txt")
}
