package driven

import (
	"context"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

// IndexStore persists index snapshots. A snapshot is written and read as
// a unit; a failed Save leaves the previously saved snapshot intact.
type IndexStore interface {
	// Save replaces the persisted snapshot.
	Save(ctx context.Context, snapshot *domain.IndexSnapshot) error

	// Load returns the persisted snapshot.
	// Returns domain.ErrNotFound if nothing has been saved.
	Load(ctx context.Context) (*domain.IndexSnapshot, error)
}
