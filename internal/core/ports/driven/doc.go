// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: maps text to fixed-length vectors
//   - VectorIndex: the live, atomically swapped nearest-neighbour index
//   - PostProcessorPipeline: turns a document into chunks
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
// These can be nil and the application degrades gracefully:
//
//   - LLMService: completions. Without it ask and paper generation fail
//     with ErrGenerationUnavailable.
//   - IndexStore: snapshot persistence. Without it every process starts
//     with an empty index.
//   - PaperStore: short-lived paper persistence for later download.
//   - NoteSource: loads the corpus. Without it only IndexCorpus works.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
