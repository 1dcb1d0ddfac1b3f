package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func norm(v []float32) float64 {
	return math.Sqrt(cosine(v, v))
}

func newService(t *testing.T) *EmbeddingService {
	t.Helper()
	svc, err := NewEmbeddingService(Config{})
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService(t *testing.T) {
	svc := newService(t)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())

	_, err := NewEmbeddingService(Config{Dimensions: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEmbed_Deterministic(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	a, err := svc.Embed(ctx, "Photosynthesis converts light energy into chemical energy.")
	require.NoError(t, err)
	b, err := svc.Embed(ctx, "Photosynthesis converts light energy into chemical energy.")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, DefaultDimensions)
	assert.InDelta(t, 1.0, norm(a), 1e-5)
}

func TestEmbed_RelatedTextScoresHigher(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	query, _ := svc.Embed(ctx, "What is photosynthesis?")
	related, _ := svc.Embed(ctx, "Photosynthesis happens in the chloroplasts of plant cells.")
	unrelated, _ := svc.Embed(ctx, "The French Revolution began in 1789.")

	assert.Greater(t, cosine(query, related), cosine(query, unrelated))
}

func TestEmbed_CaseInsensitive(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	a, _ := svc.Embed(ctx, "Mitochondria")
	b, _ := svc.Embed(ctx, "MITOCHONDRIA")
	assert.Equal(t, a, b)
}

func TestEmbed_NoTerms(t *testing.T) {
	svc := newService(t)

	vec, err := svc.Embed(context.Background(), "the of and ...")
	require.NoError(t, err)
	assert.Equal(t, 0.0, norm(vec))
}

func TestEmbed_CancelledContext(t *testing.T) {
	svc := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Embed(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbedBatch(t *testing.T) {
	svc, err := NewEmbeddingService(Config{Dimensions: 16})
	require.NoError(t, err)

	got, err := svc.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	single, _ := svc.Embed(context.Background(), "beta")
	assert.Equal(t, single, got[1])
	assert.Len(t, got[0], 16)
}
