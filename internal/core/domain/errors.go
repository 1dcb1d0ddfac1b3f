package domain

import "errors"

// Domain errors represent business logic failures.
// Callers classify them with errors.Is; adapters wrap them with context.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider, backend or processor.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmbeddingUnavailable indicates the embedding model could not be
	// reached or loaded. Fatal for the current call and never retried.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrDimensionMismatch indicates vectors of differing length were
	// offered to a single index generation.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexNotReady indicates no index has been built or loaded.
	// The caller must reindex first.
	ErrIndexNotReady = errors.New("index not ready")

	// ErrGenerationUnavailable indicates the completion service failed
	// on both the first attempt and the retry.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrParseDegraded indicates a completion succeeded but its structure
	// could not be fully extracted. Answer mode repairs this locally.
	ErrParseDegraded = errors.New("completion could not be fully parsed")

	// ErrPaperIncomplete indicates every requested category of a question
	// paper failed to produce questions.
	ErrPaperIncomplete = errors.New("question paper incomplete")

	// ErrTimeout indicates an external call exceeded its deadline.
	ErrTimeout = errors.New("timeout exceeded")

	// ErrNoNotes indicates the notes directory holds no usable notes.
	ErrNoNotes = errors.New("no notes found")
)
