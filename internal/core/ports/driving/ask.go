package driving

import (
	"context"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

// AskService answers questions from the indexed notes.
type AskService interface {
	// Ask returns a three-part answer. Empty questions are rejected with
	// domain.ErrInvalidInput before any external call.
	Ask(ctx context.Context, question string) (*domain.StructuredAnswer, error)
}
