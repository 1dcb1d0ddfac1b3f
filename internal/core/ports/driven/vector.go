package driven

import (
	"context"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

// VectorIndex is the live nearest-neighbour index over one snapshot.
// Readers never observe a partially built snapshot: Build validates the
// new snapshot fully before swapping it in.
type VectorIndex interface {
	// Build replaces the whole index with snapshot. On error the previous
	// snapshot, if any, stays live.
	Build(ctx context.Context, snapshot *domain.IndexSnapshot) error

	// Query returns at most k results ranked by descending cosine
	// similarity, ties broken by ascending chunk ID. All results come from
	// a single snapshot.
	Query(ctx context.Context, vector []float32, k int) ([]domain.RetrievalResult, error)

	// Snapshot returns the live snapshot, or nil when not loaded.
	Snapshot() *domain.IndexSnapshot

	// IsLoaded reports whether a snapshot has been built or loaded.
	IsLoaded() bool

	// Size returns the number of indexed chunks.
	Size() int

	// Close releases resources.
	Close() error
}
