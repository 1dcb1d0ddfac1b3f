package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driven"
	"github.com/custodia-labs/edurag/internal/core/ports/driving"
	"github.com/custodia-labs/edurag/internal/logger"
)

// Ensure Retriever implements the interfaces.
var (
	_ driving.IndexService     = (*Retriever)(nil)
	_ driving.RetrievalService = (*Retriever)(nil)
	_ driving.StatusService    = (*Retriever)(nil)
)

// Default retriever configuration values.
const (
	DefaultBatchSize    = 32
	DefaultEmbedTimeout = 30 * time.Second
)

// RetrieverConfig tunes indexing and retrieval.
type RetrieverConfig struct {
	// TopK is used when Retrieve is called with k <= 0.
	TopK int

	// BatchSize is the number of chunks per EmbedBatch call.
	BatchSize int

	// EmbedTimeout bounds each embedding call.
	EmbedTimeout time.Duration
}

// Retriever runs chunk, embed and index on the way in, and embed and
// query on the way out.
type Retriever struct {
	// rebuild serialises reindexing; readers never take it.
	rebuild sync.Mutex

	embedder driven.EmbeddingService
	index    driven.VectorIndex
	pipeline driven.PostProcessorPipeline
	store    driven.IndexStore // optional
	notes    driven.NoteSource // optional, needed by Reindex

	topK         int
	batchSize    int
	embedTimeout time.Duration
	now          func() time.Time
}

// NewRetriever creates a retriever. store and notes may be nil: without a
// store snapshots are not persisted, without notes Reindex fails.
func NewRetriever(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	pipeline driven.PostProcessorPipeline,
	store driven.IndexStore,
	notes driven.NoteSource,
	cfg RetrieverConfig,
) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultTopK
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = DefaultEmbedTimeout
	}
	return &Retriever{
		embedder:     embedder,
		index:        index,
		pipeline:     pipeline,
		store:        store,
		notes:        notes,
		topK:         cfg.TopK,
		batchSize:    cfg.BatchSize,
		embedTimeout: cfg.EmbedTimeout,
		now:          time.Now,
	}
}

// IndexCorpus chunks and embeds docs into a new snapshot, persists it when
// a store is configured, and swaps it in. Any failure leaves the previous
// index live and the previously persisted snapshot intact.
func (r *Retriever) IndexCorpus(ctx context.Context, docs []domain.Document) (int, error) {
	defer logger.Timed("index corpus")()

	r.rebuild.Lock()
	defer r.rebuild.Unlock()

	chunks, err := r.chunkAll(ctx, docs)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: corpus produced no chunks", domain.ErrNoNotes)
	}

	vectors, err := r.embedChunks(ctx, chunks)
	if err != nil {
		return 0, err
	}

	var generation uint64 = 1
	if live := r.index.Snapshot(); live != nil {
		generation = live.Generation + 1
	}

	snapshot := &domain.IndexSnapshot{
		Generation: generation,
		Model:      r.embedder.ModelName(),
		Dimensions: r.embedder.Dimensions(),
		BuiltAt:    r.now().UTC(),
		Chunks:     chunks,
		Vectors:    vectors,
	}
	if err := snapshot.Validate(); err != nil {
		return 0, fmt.Errorf("build snapshot: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("build snapshot: %w", err)
	}

	if r.store != nil {
		if err := r.store.Save(ctx, snapshot); err != nil {
			return 0, fmt.Errorf("persist index: %w", err)
		}
	}
	if err := r.index.Build(ctx, snapshot); err != nil {
		return 0, fmt.Errorf("swap index: %w", err)
	}

	logger.Info("indexed %d chunks from %d notes (generation %d)", len(chunks), snapshot.DocumentCount(), generation)
	return len(chunks), nil
}

// Reindex loads the corpus from the note source and indexes it.
func (r *Retriever) Reindex(ctx context.Context) (int, error) {
	if r.notes == nil {
		return 0, fmt.Errorf("%w: no note source configured", domain.ErrNoNotes)
	}
	docs, err := r.notes.Load(ctx)
	if err != nil {
		return 0, err
	}
	return r.IndexCorpus(ctx, docs)
}

// LoadPersisted restores the saved snapshot into the live index. A
// snapshot from a different embedding model or dimension is refused, since
// its vectors are not comparable with new query vectors.
func (r *Retriever) LoadPersisted(ctx context.Context) error {
	if r.store == nil {
		return fmt.Errorf("%w: no index store configured", domain.ErrNotFound)
	}

	r.rebuild.Lock()
	defer r.rebuild.Unlock()

	snapshot, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	if snapshot.Size() > 0 {
		if snapshot.Model != r.embedder.ModelName() {
			return fmt.Errorf("%w: index built with model %q, embedder is %q",
				domain.ErrDimensionMismatch, snapshot.Model, r.embedder.ModelName())
		}
		if snapshot.Dimensions != r.embedder.Dimensions() {
			return fmt.Errorf("%w: index has %d dimensions, embedder has %d",
				domain.ErrDimensionMismatch, snapshot.Dimensions, r.embedder.Dimensions())
		}
	}

	if err := r.index.Build(ctx, snapshot); err != nil {
		return fmt.Errorf("load index: %w", err)
	}
	logger.Info("loaded index generation %d with %d chunks", snapshot.Generation, snapshot.Size())
	return nil
}

// Retrieve embeds query and returns at most k ranked passages from one
// snapshot. Blank queries are rejected before the embedder is called.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if !r.index.IsLoaded() {
		return nil, domain.ErrIndexNotReady
	}
	if k <= 0 {
		k = r.topK
	}

	embedCtx, cancel := context.WithTimeout(ctx, r.embedTimeout)
	defer cancel()

	vector, err := r.embedder.Embed(embedCtx, query)
	if err != nil {
		return nil, embedError(embedCtx, err)
	}

	results, err := r.index.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	logger.Debug("retrieved %d passages for %q", len(results), query)
	return results, nil
}

// Status describes the live index.
func (r *Retriever) Status(context.Context) domain.IndexStatus {
	status := domain.IndexStatus{
		Status: domain.StatusHealthy,
		Loaded: r.index.IsLoaded(),
	}
	if snapshot := r.index.Snapshot(); snapshot != nil {
		status.Chunks = snapshot.Size()
		status.Documents = snapshot.DocumentCount()
		status.Generation = snapshot.Generation
		status.BuiltAt = snapshot.BuiltAt
		status.EmbeddingModel = snapshot.Model
	}
	return status
}

func (r *Retriever) chunkAll(ctx context.Context, docs []domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	seen := make(map[string]struct{}, len(docs))

	for i := range docs {
		doc := &docs[i]
		if doc.SourceID == "" {
			return nil, fmt.Errorf("%w: document %d has no source id", domain.ErrInvalidInput, i)
		}
		if _, dup := seen[doc.SourceID]; dup {
			return nil, fmt.Errorf("%w: duplicate source id %q", domain.ErrInvalidInput, doc.SourceID)
		}
		seen[doc.SourceID] = struct{}{}

		docChunks, err := r.pipeline.Process(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", doc.SourceID, err)
		}
		chunks = append(chunks, docChunks...)
	}
	return chunks, nil
}

func (r *Retriever) embedChunks(ctx context.Context, chunks []domain.Chunk) ([]domain.EmbeddedChunk, error) {
	vectors := make([]domain.EmbeddedChunk, 0, len(chunks))

	for start := 0; start < len(chunks); start += r.batchSize {
		end := min(start+r.batchSize, len(chunks))

		texts := make([]string, end-start)
		for i := start; i < end; i++ {
			texts[i-start] = chunks[i].Text
		}

		batch, err := r.embedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("%w: embedder returned %d vectors for %d texts",
				domain.ErrEmbeddingUnavailable, len(batch), len(texts))
		}
		for i, vec := range batch {
			vectors = append(vectors, domain.EmbeddedChunk{
				ChunkID: chunks[start+i].ID,
				Vector:  vec,
			})
		}
	}
	return vectors, nil
}

func (r *Retriever) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embedCtx, cancel := context.WithTimeout(ctx, r.embedTimeout)
	defer cancel()

	batch, err := r.embedder.EmbedBatch(embedCtx, texts)
	if err != nil {
		return nil, embedError(embedCtx, err)
	}
	return batch, nil
}

// embedError tags a failed embedding call. A call that ran out of time
// is both unavailable and a timeout.
func embedError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w: %w", domain.ErrEmbeddingUnavailable, domain.ErrTimeout, err)
	}
	if errors.Is(err, domain.ErrEmbeddingUnavailable) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
}
