// Package postgres provides a PostgreSQL IndexStore that keeps vectors in
// a pgvector column, for deployments that share one database between
// several edurag processes.
//
// The live index is still the in-process flat index; Postgres holds the
// persisted snapshot that every process loads at startup.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driven"
)

// schema is applied on connect. The vector column is left without a fixed
// dimension so a rebuild with a different embedder needs no migration.
var schema = []string{
	"CREATE EXTENSION IF NOT EXISTS vector",
	`CREATE TABLE IF NOT EXISTS edurag_index_meta (
		id          SMALLINT PRIMARY KEY CHECK (id = 1),
		generation  BIGINT      NOT NULL,
		model       TEXT        NOT NULL,
		dimensions  INT         NOT NULL,
		chunk_count INT         NOT NULL,
		built_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS edurag_index_chunks (
		seq         INT    PRIMARY KEY,
		chunk_id    TEXT   NOT NULL UNIQUE,
		source_id   TEXT   NOT NULL,
		position    INT    NOT NULL,
		byte_offset INT    NOT NULL,
		content     TEXT   NOT NULL,
		embedding   VECTOR NOT NULL
	)`,
}

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore persists snapshots in PostgreSQL.
type IndexStore struct {
	pool *pgxpool.Pool
}

// NewIndexStore connects to dsn and ensures the schema exists.
func NewIndexStore(ctx context.Context, dsn string) (*IndexStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", domain.ErrInvalidInput)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return &IndexStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *IndexStore) Close() error {
	s.pool.Close()
	return nil
}

// Save replaces the persisted snapshot in one transaction.
func (s *IndexStore) Save(ctx context.Context, snapshot *domain.IndexSnapshot) error {
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "DELETE FROM edurag_index_chunks"); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM edurag_index_meta"); err != nil {
		return fmt.Errorf("clear metadata: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO edurag_index_meta (id, generation, model, dimensions, chunk_count, built_at)
		VALUES (1, $1, $2, $3, $4, $5)
	`, int64(snapshot.Generation), snapshot.Model, snapshot.Dimensions,
		len(snapshot.Chunks), snapshot.BuiltAt.UTC()); err != nil {
		return fmt.Errorf("insert metadata: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range snapshot.Chunks {
		c := snapshot.Chunks[i]
		batch.Queue(`
			INSERT INTO edurag_index_chunks (seq, chunk_id, source_id, position, byte_offset, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7::vector)
		`, i, c.ID, c.SourceID, c.Position, c.Offset, c.Text, pgvector.NewVector(snapshot.Vectors[i].Vector))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Load reads the persisted snapshot.
func (s *IndexStore) Load(ctx context.Context) (*domain.IndexSnapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var (
		snap       domain.IndexSnapshot
		generation int64
		chunkCount int
		builtAt    time.Time
	)
	err = tx.QueryRow(ctx, `
		SELECT generation, model, dimensions, chunk_count, built_at FROM edurag_index_meta WHERE id = 1
	`).Scan(&generation, &snap.Model, &snap.Dimensions, &chunkCount, &builtAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	snap.Generation = uint64(generation)
	snap.BuiltAt = builtAt.UTC()

	rows, err := tx.Query(ctx, `
		SELECT chunk_id, source_id, position, byte_offset, content, embedding
		FROM edurag_index_chunks ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c   domain.Chunk
			vec pgvector.Vector
		)
		if err := rows.Scan(&c.ID, &c.SourceID, &c.Position, &c.Offset, &c.Text, &vec); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		snap.Chunks = append(snap.Chunks, c)
		snap.Vectors = append(snap.Vectors, domain.EmbeddedChunk{ChunkID: c.ID, Vector: vec.Slice()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	if len(snap.Chunks) != chunkCount {
		return nil, fmt.Errorf("metadata records %d chunks, found %d", chunkCount, len(snap.Chunks))
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("persisted index: %w", err)
	}
	return &snap, nil
}
