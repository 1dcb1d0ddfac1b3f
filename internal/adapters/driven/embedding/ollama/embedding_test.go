package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
}

func TestEmbedBatch(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mini", req.Model)
		calls++
		if req.Prompt == "a" {
			_, _ = w.Write([]byte(`{"embedding":[1,0]}`))
			return
		}
		_, _ = w.Write([]byte(`{"embedding":[0,1]}`))
	}))
	defer srv.Close()

	svc := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "mini", Dimensions: 2})
	got, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, got)
}

func TestEmbed_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer srv.Close()

		svc := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 2})
		_, err := svc.Embed(context.Background(), "x")
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("dimensions", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"embedding":[1,2,3]}`))
		}))
		defer srv.Close()

		svc := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 2})
		_, err := svc.Embed(context.Background(), "x")
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})

	t.Run("unreachable", func(t *testing.T) {
		svc := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1", Dimensions: 2})
		_, err := svc.Embed(context.Background(), "x")
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

		assert.ErrorIs(t, svc.Ping(context.Background()), domain.ErrEmbeddingUnavailable)
	})
}

func TestPing_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	svc := NewEmbeddingService(Config{BaseURL: srv.URL})
	assert.NoError(t, svc.Ping(context.Background()))
}
