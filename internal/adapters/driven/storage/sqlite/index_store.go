package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driven"
)

// indexStore implements driven.IndexStore.
type indexStore struct {
	store *Store
}

var _ driven.IndexStore = (*indexStore)(nil)

// Save replaces the persisted snapshot inside one transaction.
func (s *indexStore) Save(ctx context.Context, snapshot *domain.IndexSnapshot) error {
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM index_chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM index_meta"); err != nil {
		return fmt.Errorf("clearing metadata: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO index_meta (id, generation, model, dimensions, chunk_count, built_at)
		VALUES (1, ?, ?, ?, ?, ?)
	`, int64(snapshot.Generation), snapshot.Model, snapshot.Dimensions,
		len(snapshot.Chunks), snapshot.BuiltAt.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("inserting metadata: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_chunks (seq, chunk_id, source_id, position, byte_offset, content, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range snapshot.Chunks {
		c := snapshot.Chunks[i]
		if _, err := stmt.ExecContext(ctx, i, c.ID, c.SourceID, c.Position, c.Offset, c.Text,
			float32SliceToBytes(snapshot.Vectors[i].Vector)); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// Load reads the persisted snapshot. Returns domain.ErrNotFound when no
// snapshot has been saved, and an error wrapping errCorrupt when the rows
// fail structural checks.
func (s *indexStore) Load(ctx context.Context) (*domain.IndexSnapshot, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var (
		snap       domain.IndexSnapshot
		generation int64
		chunkCount int
		builtAt    int64
	)
	err = tx.QueryRowContext(ctx, `
		SELECT generation, model, dimensions, chunk_count, built_at FROM index_meta WHERE id = 1
	`).Scan(&generation, &snap.Model, &snap.Dimensions, &chunkCount, &builtAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	snap.Generation = uint64(generation)
	snap.BuiltAt = time.Unix(0, builtAt).UTC()

	rows, err := tx.QueryContext(ctx, `
		SELECT chunk_id, source_id, position, byte_offset, content, vector
		FROM index_chunks ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	snap.Chunks = make([]domain.Chunk, 0, chunkCount)
	snap.Vectors = make([]domain.EmbeddedChunk, 0, chunkCount)
	for rows.Next() {
		var (
			c    domain.Chunk
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.SourceID, &c.Position, &c.Offset, &c.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		vec, err := bytesToFloat32Slice(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		snap.Chunks = append(snap.Chunks, c)
		snap.Vectors = append(snap.Vectors, domain.EmbeddedChunk{ChunkID: c.ID, Vector: vec})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	if len(snap.Chunks) != chunkCount {
		return nil, fmt.Errorf("%w: metadata records %d chunks, found %d", errCorrupt, chunkCount, len(snap.Chunks))
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errCorrupt, err)
	}
	return &snap, nil
}
