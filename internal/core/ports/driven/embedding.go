package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// Implementations must be pure: equal input text yields equal vectors,
// and every vector has length Dimensions().
type EmbeddingService interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the model identifier recorded with each snapshot.
	ModelName() string

	// Ping checks the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
