package driving

import (
	"context"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

// IndexService builds and restores the vector index.
type IndexService interface {
	// IndexCorpus chunks, embeds and indexes docs, replacing the live
	// index. Returns the number of chunks indexed.
	IndexCorpus(ctx context.Context, docs []domain.Document) (int, error)

	// Reindex loads the corpus from the configured note source and
	// indexes it.
	Reindex(ctx context.Context) (int, error)

	// LoadPersisted restores the last saved snapshot. A missing, corrupt
	// or incompatible snapshot leaves the index not loaded.
	LoadPersisted(ctx context.Context) error
}

// RetrievalService finds the passages most relevant to a query.
type RetrievalService interface {
	// Retrieve returns at most k ranked passages. k <= 0 uses the default.
	Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error)
}

// StatusService reports index health.
type StatusService interface {
	// Status describes the live index.
	Status(ctx context.Context) domain.IndexStatus
}
