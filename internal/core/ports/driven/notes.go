package driven

import (
	"context"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

// NoteSource loads the corpus of plain-text notes.
type NoteSource interface {
	// Load returns every usable note in a deterministic order.
	// Returns domain.ErrNoNotes when there is nothing to index.
	Load(ctx context.Context) ([]domain.Document, error)

	// Location describes where notes are read from, for display.
	Location() string
}

// NoteWatcher reports changes to a NoteSource's underlying files.
type NoteWatcher interface {
	// Watch blocks until ctx is cancelled, calling onChange after each
	// settled burst of changes.
	Watch(ctx context.Context, onChange func()) error
}
