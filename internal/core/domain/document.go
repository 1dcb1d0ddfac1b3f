package domain

import (
	"fmt"
	"time"
)

// Document is a single plain-text note.
// It is immutable once loaded and is discarded on reindex.
type Document struct {
	// SourceID identifies where the note came from (its file name).
	SourceID string `json:"source_id"`

	// Text is the raw note content.
	Text string `json:"text"`

	// ModifiedAt is the note's last modification time, if known.
	ModifiedAt time.Time `json:"modified_at,omitempty"`
}

// Chunk is a bounded span of a Document and the unit of retrieval.
type Chunk struct {
	// ID is derived from SourceID and Position, see ChunkID.
	ID string `json:"chunk_id"`

	// SourceID links to the Document this chunk was cut from.
	SourceID string `json:"source_id"`

	// Text is the chunk content, a verbatim slice of the source text.
	Text string `json:"text"`

	// Position is the ordinal position within the source.
	Position int `json:"order_index"`

	// Offset is the byte offset of Text within the source text.
	Offset int `json:"offset"`
}

// End returns the byte offset just past the chunk within its source.
func (c Chunk) End() int {
	return c.Offset + len(c.Text)
}

// ChunkID builds the deterministic identifier for the chunk at position
// within sourceID. Zero padding keeps lexical order equal to position order
// for sources with fewer than ten thousand chunks.
func ChunkID(sourceID string, position int) string {
	return fmt.Sprintf("%s#%04d", sourceID, position)
}

// EmbeddedChunk pairs a chunk identifier with its embedding vector.
type EmbeddedChunk struct {
	ChunkID string    `json:"chunk_id"`
	Vector  []float32 `json:"vector"`
}
