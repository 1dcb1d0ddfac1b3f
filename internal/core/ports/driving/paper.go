package driving

import (
	"context"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

// PaperService assembles question papers.
type PaperService interface {
	// Generate assembles a paper. A paper with at least one generated
	// category is returned even when others fell short; only when every
	// category fails is domain.ErrPaperIncomplete returned.
	Generate(ctx context.Context, req domain.PaperRequest) (*domain.QuestionPaper, error)

	// Get returns a previously generated paper that has not expired.
	Get(ctx context.Context, id string) (*domain.QuestionPaper, error)
}
