package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore keeps a deep copy of the last saved snapshot.
type IndexStore struct {
	mu       sync.RWMutex
	snapshot *domain.IndexSnapshot
	saves    int
}

// NewIndexStore creates an empty in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

// Save replaces the stored snapshot with a copy of snapshot.
func (s *IndexStore) Save(_ context.Context, snapshot *domain.IndexSnapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}
	cp := cloneSnapshot(snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = cp
	s.saves++
	return nil
}

// Load returns a copy of the stored snapshot.
func (s *IndexStore) Load(_ context.Context) (*domain.IndexSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, domain.ErrNotFound
	}
	return cloneSnapshot(s.snapshot), nil
}

// Saves returns how many snapshots have been saved.
func (s *IndexStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func cloneSnapshot(src *domain.IndexSnapshot) *domain.IndexSnapshot {
	dst := *src
	dst.Chunks = append([]domain.Chunk(nil), src.Chunks...)
	dst.Vectors = make([]domain.EmbeddedChunk, len(src.Vectors))
	for i, v := range src.Vectors {
		dst.Vectors[i] = domain.EmbeddedChunk{
			ChunkID: v.ChunkID,
			Vector:  append([]float32(nil), v.Vector...),
		}
	}
	return &dst
}
