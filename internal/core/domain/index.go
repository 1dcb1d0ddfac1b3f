package domain

import (
	"fmt"
	"math"
	"time"
)

// IndexSnapshot is one complete generation of the vector index.
// Chunks and Vectors are parallel slices: Vectors[i] embeds Chunks[i].
// A snapshot is built off to the side, persisted as a unit and then
// swapped in whole; it is never patched in place.
type IndexSnapshot struct {
	// Generation increases by one on every successful rebuild.
	Generation uint64

	// Model is the embedding model that produced the vectors.
	Model string

	// Dimensions is the vector length shared by every entry.
	Dimensions int

	// BuiltAt is when the snapshot was created.
	BuiltAt time.Time

	// Chunks holds chunk metadata in index order.
	Chunks []Chunk

	// Vectors holds one embedding per chunk, in the same order.
	Vectors []EmbeddedChunk
}

// Size returns the number of indexed chunks.
func (s *IndexSnapshot) Size() int {
	if s == nil {
		return 0
	}
	return len(s.Chunks)
}

// DocumentCount returns the number of distinct sources in the snapshot.
func (s *IndexSnapshot) DocumentCount() int {
	if s == nil {
		return 0
	}
	seen := make(map[string]struct{}, len(s.Chunks))
	for i := range s.Chunks {
		seen[s.Chunks[i].SourceID] = struct{}{}
	}
	return len(seen)
}

// Validate checks the structural invariants of the snapshot: parallel
// slices, matching identifiers, unique chunk IDs, a single dimension and
// finite vector components.
func (s *IndexSnapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidInput)
	}
	if len(s.Chunks) != len(s.Vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors", ErrInvalidInput, len(s.Chunks), len(s.Vectors))
	}
	if len(s.Chunks) > 0 && s.Dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(s.Chunks))
	for i := range s.Chunks {
		id := s.Chunks[i].ID
		if id != s.Vectors[i].ChunkID {
			return fmt.Errorf("%w: entry %d pairs chunk %q with vector %q",
				ErrInvalidInput, i, id, s.Vectors[i].ChunkID)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate chunk id %q", ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
		if len(s.Vectors[i].Vector) != s.Dimensions {
			return fmt.Errorf("%w: chunk %q has %d dimensions, want %d",
				ErrDimensionMismatch, id, len(s.Vectors[i].Vector), s.Dimensions)
		}
		for _, x := range s.Vectors[i].Vector {
			if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%w: chunk %q has non-finite vector values", ErrInvalidInput, id)
			}
		}
	}
	return nil
}

// IndexStatus is the health view of the live index.
type IndexStatus struct {
	// Status is "healthy" whenever the process can answer requests.
	Status string `json:"status" yaml:"status"`

	// Loaded reports whether an index has been built or loaded.
	Loaded bool `json:"index_loaded" yaml:"index_loaded"`

	// Chunks is the number of indexed chunks.
	Chunks int `json:"indexed_chunks" yaml:"indexed_chunks"`

	// Documents is the number of distinct indexed notes.
	Documents int `json:"indexed_documents" yaml:"indexed_documents"`

	// Generation of the live snapshot, zero if none.
	Generation uint64 `json:"generation" yaml:"generation"`

	// BuiltAt is when the live snapshot was built.
	BuiltAt time.Time `json:"built_at,omitempty" yaml:"built_at,omitempty"`

	// EmbeddingModel is the model that produced the live vectors.
	EmbeddingModel string `json:"embedding_model,omitempty" yaml:"embedding_model,omitempty"`
}

// StatusHealthy is the only status value the core reports.
const StatusHealthy = "healthy"
