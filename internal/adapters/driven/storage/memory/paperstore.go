package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driven"
)

// Ensure PaperStore implements the interface.
var _ driven.PaperStore = (*PaperStore)(nil)

// PaperStore keeps papers in a map until they expire.
type PaperStore struct {
	mu     sync.RWMutex
	papers map[string]domain.QuestionPaper
}

// NewPaperStore creates an empty in-memory paper store.
func NewPaperStore() *PaperStore {
	return &PaperStore{
		papers: make(map[string]domain.QuestionPaper),
	}
}

// Save stores a copy of paper.
func (s *PaperStore) Save(_ context.Context, paper *domain.QuestionPaper) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.papers[paper.ID]; exists {
		return fmt.Errorf("paper %s already stored", paper.ID)
	}
	cp := *paper
	cp.Questions = append([]domain.Question(nil), paper.Questions...)
	cp.Status = append([]domain.CategoryStatus(nil), paper.Status...)
	s.papers[paper.ID] = cp
	return nil
}

// Get returns a copy of an unexpired paper.
func (s *PaperStore) Get(_ context.Context, id string, now time.Time) (*domain.QuestionPaper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paper, ok := s.papers[id]
	if !ok || !paper.ExpiresAt.After(now) {
		return nil, domain.ErrNotFound
	}
	return &paper, nil
}

// DeleteExpired removes papers that expired at or before now.
func (s *PaperStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, paper := range s.papers {
		if !paper.ExpiresAt.After(now) {
			delete(s.papers, id)
			removed++
		}
	}
	return removed, nil
}
