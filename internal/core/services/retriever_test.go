package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/edurag/internal/adapters/driven/storage/memory"
	vectormem "github.com/custodia-labs/edurag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driven"
	"github.com/custodia-labs/edurag/internal/postprocessors"
	"github.com/custodia-labs/edurag/internal/postprocessors/chunker"
)

type retrieverFixture struct {
	retriever *Retriever
	embedder  *mockEmbedder
	index     *vectormem.Index
	store     *memory.IndexStore
}

func newRetrieverFixture(t *testing.T, cfg RetrieverConfig) *retrieverFixture {
	t.Helper()
	f := &retrieverFixture{
		embedder: &mockEmbedder{},
		index:    vectormem.New(),
		store:    memory.NewIndexStore(),
	}
	f.retriever = newTestRetriever(f.embedder, f.index, f.store, &mockNoteSource{docs: testNotes()}, cfg)
	return f
}

func newTestRetriever(e driven.EmbeddingService, idx driven.VectorIndex, store driven.IndexStore,
	notes driven.NoteSource, cfg RetrieverConfig) *Retriever {
	pipeline := postprocessors.NewPipeline(chunker.New())
	r := NewRetriever(e, idx, pipeline, store, notes, cfg)
	r.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestNewRetriever_Defaults(t *testing.T) {
	r := NewRetriever(&mockEmbedder{}, vectormem.New(), postprocessors.NewPipeline(), nil, nil, RetrieverConfig{})

	assert.Equal(t, domain.DefaultTopK, r.topK)
	assert.Equal(t, DefaultBatchSize, r.batchSize)
	assert.Equal(t, DefaultEmbedTimeout, r.embedTimeout)
}

func TestRetriever_IndexAndRetrieve(t *testing.T) {
	f := newRetrieverFixture(t, RetrieverConfig{TopK: 2})
	ctx := context.Background()

	n, err := f.retriever.IndexCorpus(ctx, testNotes())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	results, err := f.retriever.Retrieve(ctx, "  What is photosynthesis?  ", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "biology.txt", results[0].Chunk.SourceID)
	assert.Greater(t, results[0].Score, results[1].Score)
	// Equal scores fall back to chunk id order.
	assert.Equal(t, "history.txt#0000", results[1].Chunk.ID)

	results, err = f.retriever.Retrieve(ctx, "gravity", 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, "physics.txt", results[0].Chunk.SourceID)
}

func TestRetriever_IndexCorpus_Snapshot(t *testing.T) {
	f := newRetrieverFixture(t, RetrieverConfig{BatchSize: 2})
	ctx := context.Background()

	_, err := f.retriever.IndexCorpus(ctx, testNotes())
	require.NoError(t, err)

	snap := f.index.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, "mock-embed", snap.Model)
	assert.Equal(t, 4, snap.Dimensions)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), snap.BuiltAt)
	assert.Equal(t, 1, f.store.Saves())
	// Three chunks in batches of two.
	assert.Equal(t, 2, f.embedder.callCount())

	_, err = f.retriever.IndexCorpus(ctx, testNotes()[:1])
	require.NoError(t, err)
	assert.Equal(t, uint64(2), f.index.Snapshot().Generation)
	assert.Equal(t, 1, f.index.Size())
}

func TestRetriever_IndexCorpus_Failures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		docs    []domain.Document
		setup   func(f *retrieverFixture)
		wantErr error
	}{
		{
			name:    "no documents",
			docs:    nil,
			wantErr: domain.ErrNoNotes,
		},
		{
			name:    "only blank documents",
			docs:    []domain.Document{{SourceID: "a.txt", Text: "   "}},
			wantErr: domain.ErrNoNotes,
		},
		{
			name: "duplicate source id",
			docs: []domain.Document{
				{SourceID: "a.txt", Text: "war"},
				{SourceID: "a.txt", Text: "gravity"},
			},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "missing source id",
			docs:    []domain.Document{{Text: "war"}},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "embedder down",
			docs:    testNotes(),
			setup:   func(f *retrieverFixture) { f.embedder.batchErr = errors.New("connection refused") },
			wantErr: domain.ErrEmbeddingUnavailable,
		},
		{
			name:    "embedder returns too few vectors",
			docs:    testNotes(),
			setup:   func(f *retrieverFixture) { f.embedder.short = true },
			wantErr: domain.ErrEmbeddingUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRetrieverFixture(t, RetrieverConfig{})
			_, err := f.retriever.IndexCorpus(ctx, []domain.Document{{SourceID: "seed.txt", Text: "cell"}})
			require.NoError(t, err)
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err = f.retriever.IndexCorpus(ctx, tt.docs)

			assert.ErrorIs(t, err, tt.wantErr)
			// The previous generation stays live and persisted.
			assert.Equal(t, uint64(1), f.index.Snapshot().Generation)
			assert.Equal(t, "seed.txt", f.index.Snapshot().Chunks[0].SourceID)
			assert.Equal(t, 1, f.store.Saves())
		})
	}
}

func TestRetriever_IndexCorpus_PersistFailureKeepsLiveIndex(t *testing.T) {
	index := vectormem.New()
	store := &failingIndexStore{saveErr: errors.New("disk full")}
	r := newTestRetriever(&mockEmbedder{}, index, store, nil, RetrieverConfig{})

	_, err := r.IndexCorpus(context.Background(), testNotes())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist index")
	assert.False(t, index.IsLoaded())
}

func TestRetriever_IndexCorpus_RejectedSnapshotIsNotPersisted(t *testing.T) {
	rebuild := []domain.Document{{SourceID: "b.txt", Text: "Gravity pulls the apple towards the earth."}}

	t.Run("non-finite vector", func(t *testing.T) {
		f := newRetrieverFixture(t, RetrieverConfig{})
		ctx := context.Background()
		_, err := f.retriever.IndexCorpus(ctx, testNotes())
		require.NoError(t, err)

		f.embedder.nan = true
		_, err = f.retriever.IndexCorpus(ctx, rebuild)

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Equal(t, 1, f.store.Saves())
		persisted, err := f.store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), persisted.Generation)
		assert.Equal(t, uint64(1), f.index.Snapshot().Generation)

		// A restart still finds the previous generation.
		f.embedder.nan = false
		restarted := vectormem.New()
		r := newTestRetriever(f.embedder, restarted, f.store, nil, RetrieverConfig{})
		require.NoError(t, r.LoadPersisted(ctx))
		assert.True(t, restarted.IsLoaded())
		assert.Equal(t, uint64(1), restarted.Snapshot().Generation)
		assert.Equal(t, "biology.txt", restarted.Snapshot().Chunks[0].SourceID)
	})

	t.Run("cancelled while embedding", func(t *testing.T) {
		f := newRetrieverFixture(t, RetrieverConfig{})
		_, err := f.retriever.IndexCorpus(context.Background(), testNotes())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		f.embedder.onBatch = cancel
		_, err = f.retriever.IndexCorpus(ctx, rebuild)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, f.store.Saves())
		persisted, err := f.store.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(1), persisted.Generation)
	})
}

func TestRetriever_Retrieve_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty query never reaches the embedder", func(t *testing.T) {
		f := newRetrieverFixture(t, RetrieverConfig{})

		_, err := f.retriever.Retrieve(ctx, " \n\t", 3)

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Zero(t, f.embedder.callCount())
	})

	t.Run("index not ready", func(t *testing.T) {
		f := newRetrieverFixture(t, RetrieverConfig{})

		_, err := f.retriever.Retrieve(ctx, "gravity", 3)

		assert.ErrorIs(t, err, domain.ErrIndexNotReady)
	})

	t.Run("embedder failure", func(t *testing.T) {
		f := newRetrieverFixture(t, RetrieverConfig{})
		_, err := f.retriever.IndexCorpus(ctx, testNotes())
		require.NoError(t, err)
		f.embedder.embedErr = errors.New("model not loaded")

		_, err = f.retriever.Retrieve(ctx, "gravity", 3)

		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.NotErrorIs(t, err, domain.ErrTimeout)
	})

	t.Run("embedder deadline is a timeout", func(t *testing.T) {
		f := newRetrieverFixture(t, RetrieverConfig{})
		_, err := f.retriever.IndexCorpus(ctx, testNotes())
		require.NoError(t, err)
		f.embedder.embedErr = context.DeadlineExceeded

		_, err = f.retriever.Retrieve(ctx, "gravity", 3)

		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.ErrorIs(t, err, domain.ErrTimeout)
	})
}

func TestRetriever_Reindex(t *testing.T) {
	t.Run("loads from note source", func(t *testing.T) {
		f := newRetrieverFixture(t, RetrieverConfig{})

		n, err := f.retriever.Reindex(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.True(t, f.index.IsLoaded())
	})

	t.Run("note source error", func(t *testing.T) {
		r := newTestRetriever(&mockEmbedder{}, vectormem.New(), nil,
			&mockNoteSource{err: domain.ErrNoNotes}, RetrieverConfig{})

		_, err := r.Reindex(context.Background())

		assert.ErrorIs(t, err, domain.ErrNoNotes)
	})

	t.Run("no note source", func(t *testing.T) {
		r := newTestRetriever(&mockEmbedder{}, vectormem.New(), nil, nil, RetrieverConfig{})

		_, err := r.Reindex(context.Background())

		assert.ErrorIs(t, err, domain.ErrNoNotes)
	})
}

func TestRetriever_LoadPersisted(t *testing.T) {
	ctx := context.Background()

	t.Run("restores the saved snapshot", func(t *testing.T) {
		f := newRetrieverFixture(t, RetrieverConfig{})
		_, err := f.retriever.IndexCorpus(ctx, testNotes())
		require.NoError(t, err)

		index := vectormem.New()
		restarted := newTestRetriever(&mockEmbedder{}, index, f.store, nil, RetrieverConfig{})
		require.NoError(t, restarted.LoadPersisted(ctx))

		assert.True(t, index.IsLoaded())
		assert.Equal(t, 3, index.Size())
		results, err := restarted.Retrieve(ctx, "photosynthesis", 1)
		require.NoError(t, err)
		assert.Equal(t, "biology.txt", results[0].Chunk.SourceID)
	})

	t.Run("nothing saved", func(t *testing.T) {
		f := newRetrieverFixture(t, RetrieverConfig{})

		err := f.retriever.LoadPersisted(ctx)

		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.False(t, f.index.IsLoaded())
	})

	t.Run("no store", func(t *testing.T) {
		r := newTestRetriever(&mockEmbedder{}, vectormem.New(), nil, nil, RetrieverConfig{})

		assert.ErrorIs(t, r.LoadPersisted(ctx), domain.ErrNotFound)
	})

	t.Run("different embedding model", func(t *testing.T) {
		f := newRetrieverFixture(t, RetrieverConfig{})
		_, err := f.retriever.IndexCorpus(ctx, testNotes())
		require.NoError(t, err)

		index := vectormem.New()
		other := newTestRetriever(&mockEmbedder{model: "other-model"}, index, f.store, nil, RetrieverConfig{})

		assert.ErrorIs(t, other.LoadPersisted(ctx), domain.ErrDimensionMismatch)
		assert.False(t, index.IsLoaded())
	})

	t.Run("different dimensions", func(t *testing.T) {
		f := newRetrieverFixture(t, RetrieverConfig{})
		_, err := f.retriever.IndexCorpus(ctx, testNotes())
		require.NoError(t, err)

		index := vectormem.New()
		other := newTestRetriever(&mockEmbedder{dims: 8}, index, f.store, nil, RetrieverConfig{})

		assert.ErrorIs(t, other.LoadPersisted(ctx), domain.ErrDimensionMismatch)
		assert.False(t, index.IsLoaded())
	})
}

func TestRetriever_Status(t *testing.T) {
	f := newRetrieverFixture(t, RetrieverConfig{})

	status := f.retriever.Status(context.Background())
	assert.Equal(t, domain.StatusHealthy, status.Status)
	assert.False(t, status.Loaded)
	assert.Zero(t, status.Chunks)

	_, err := f.retriever.IndexCorpus(context.Background(), testNotes())
	require.NoError(t, err)

	status = f.retriever.Status(context.Background())
	assert.True(t, status.Loaded)
	assert.Equal(t, 3, status.Chunks)
	assert.Equal(t, 3, status.Documents)
	assert.Equal(t, uint64(1), status.Generation)
	assert.Equal(t, "mock-embed", status.EmbeddingModel)
	assert.False(t, status.BuiltAt.IsZero())
}
