package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

// PaperStore keeps generated papers until they expire.
type PaperStore interface {
	// Save stores a paper. Papers are immutable, so saving an existing ID
	// is an error.
	Save(ctx context.Context, paper *domain.QuestionPaper) error

	// Get returns a paper that has not yet expired at now.
	// Returns domain.ErrNotFound for unknown or expired papers.
	Get(ctx context.Context, id string, now time.Time) (*domain.QuestionPaper, error)

	// DeleteExpired removes papers that expired at or before now and returns
	// the number removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
