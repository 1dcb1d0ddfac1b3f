// Package domain defines the core entities for edurag.
//
// This package is the innermost layer of the hexagonal architecture.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: a plain-text note loaded from the notes directory
//   - Chunk: a bounded span of a document, the unit of retrieval
//   - IndexSnapshot: one generation of embedded chunks, replaced as a unit
//   - StructuredAnswer: the three-part answer returned by ask
//   - QuestionPaper: a categorised exam paper built from generated questions
//
// The question category table (marks per question, default counts and
// display order) is compiled in and cannot be changed at runtime.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
