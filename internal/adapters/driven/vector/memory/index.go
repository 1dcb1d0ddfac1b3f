// Package memory provides an exact, in-process cosine similarity index.
//
// The live snapshot is held behind an atomic pointer. Build prepares the
// replacement state completely before publishing it with a single store,
// so concurrent queries see either the old or the new snapshot and
// never a mixture.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a brute-force nearest-neighbour index over one snapshot.
type Index struct {
	live atomic.Pointer[state]
}

// state is an immutable published generation.
type state struct {
	snapshot *domain.IndexSnapshot

	// unit holds the L2-normalised vectors, parallel to snapshot.Chunks.
	unit [][]float32
}

// New creates an empty, not loaded index.
func New() *Index {
	return &Index{}
}

// Build validates and normalises snapshot, then swaps it in.
// On error the previous snapshot stays live.
func (i *Index) Build(ctx context.Context, snapshot *domain.IndexSnapshot) error {
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	next := &state{
		snapshot: snapshot,
		unit:     make([][]float32, len(snapshot.Vectors)),
	}
	for j := range snapshot.Vectors {
		if j%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("building index: %w", err)
			}
		}
		v, err := normalise(snapshot.Vectors[j].Vector)
		if err != nil {
			return fmt.Errorf("building index: chunk %q: %w", snapshot.Vectors[j].ChunkID, err)
		}
		next.unit[j] = v
	}

	i.live.Store(next)
	return nil
}

// Query returns the k chunks most similar to vector by cosine similarity.
// Ties are broken by ascending chunk ID. k <= 0 uses domain.DefaultTopK.
func (i *Index) Query(ctx context.Context, vector []float32, k int) ([]domain.RetrievalResult, error) {
	st := i.live.Load()
	if st == nil {
		return nil, domain.ErrIndexNotReady
	}
	if len(st.unit) == 0 {
		return nil, nil
	}
	if len(vector) != st.snapshot.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(vector), st.snapshot.Dimensions)
	}
	if k <= 0 {
		k = domain.DefaultTopK
	}

	q, err := normalise(vector)
	if err != nil {
		return nil, fmt.Errorf("query vector: %w", err)
	}

	type hit struct {
		pos   int
		score float64
	}
	hits := make([]hit, len(st.unit))
	for j, v := range st.unit {
		if j%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		hits[j] = hit{pos: j, score: dot(q, v)}
	}

	chunks := st.snapshot.Chunks
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].score != hits[b].score {
			return hits[a].score > hits[b].score
		}
		return chunks[hits[a].pos].ID < chunks[hits[b].pos].ID
	})

	if k > len(hits) {
		k = len(hits)
	}
	results := make([]domain.RetrievalResult, k)
	for j := 0; j < k; j++ {
		results[j] = domain.RetrievalResult{
			Chunk: chunks[hits[j].pos],
			Score: hits[j].score,
		}
	}
	return results, nil
}

// Snapshot returns the live snapshot, or nil when not loaded.
func (i *Index) Snapshot() *domain.IndexSnapshot {
	if st := i.live.Load(); st != nil {
		return st.snapshot
	}
	return nil
}

// IsLoaded reports whether a snapshot has been published.
func (i *Index) IsLoaded() bool {
	return i.live.Load() != nil
}

// Size returns the number of chunks in the live snapshot.
func (i *Index) Size() int {
	return i.Snapshot().Size()
}

// Close releases resources. The index holds none beyond memory.
func (i *Index) Close() error {
	return nil
}

// normalise returns v scaled to unit length as a new slice. The zero
// vector is returned unchanged and scores zero against everything.
func normalise(v []float32) ([]float32, error) {
	var sum float64
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: vector contains non-finite values", domain.ErrInvalidInput)
		}
		sum += f * f
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out, nil
	}
	inv := 1 / math.Sqrt(sum)
	for j, x := range v {
		out[j] = float32(float64(x) * inv)
	}
	return out, nil
}

func dot(a, b []float32) float64 {
	var s float64
	for j := range a {
		s += float64(a[j]) * float64(b[j])
	}
	return s
}
