package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driven"
)

// paperStore implements driven.PaperStore.
type paperStore struct {
	store *Store
}

var _ driven.PaperStore = (*paperStore)(nil)

// Save stores a paper as JSON. Saving an existing ID fails.
func (s *paperStore) Save(ctx context.Context, paper *domain.QuestionPaper) error {
	payload, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshalling paper: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO papers (id, subject, payload, generated_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, paper.ID, paper.Subject, string(payload),
		paper.GeneratedAt.UTC().UnixNano(), paper.ExpiresAt.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("inserting paper %s: %w", paper.ID, err)
	}
	return nil
}

// Get returns an unexpired paper.
func (s *paperStore) Get(ctx context.Context, id string, now time.Time) (*domain.QuestionPaper, error) {
	var payload string
	err := s.store.db.QueryRowContext(ctx, `
		SELECT payload FROM papers WHERE id = ? AND expires_at > ?
	`, id, now.UTC().UnixNano()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying paper %s: %w", id, err)
	}

	var paper domain.QuestionPaper
	if err := json.Unmarshal([]byte(payload), &paper); err != nil {
		return nil, fmt.Errorf("unmarshalling paper %s: %w", id, err)
	}
	return &paper, nil
}

// DeleteExpired removes papers that expired at or before now.
func (s *paperStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM papers WHERE expires_at <= ?", now.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("deleting expired papers: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted papers: %w", err)
	}
	return int(n), nil
}
