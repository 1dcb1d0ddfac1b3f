package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies a service provider for embeddings or completions.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHashing is the built-in feature hashing embedder.
	// It needs no network and is the default for embeddings.
	AIProviderHashing AIProvider = "hashing"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGroq is the Groq cloud API.
	AIProviderGroq AIProvider = "groq"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHashing, AIProviderOllama, AIProviderOpenAI, AIProviderGroq:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderGroq
}

// IsLocal returns true if this provider runs on this machine.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing
}

// SupportsEmbeddings returns true if the provider can embed text.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderHashing || p == AIProviderOllama || p == AIProviderOpenAI
}

// SupportsCompletions returns true if the provider can generate text.
func (p AIProvider) SupportsCompletions() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderGroq
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHashing:
		return "Hashing (built-in, offline)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGroq:
		return "Groq (cloud)"
	default:
		return unknownDescription
	}
}

// StorageBackend selects where index snapshots and papers are persisted.
type StorageBackend string

// Available storage backends.
const (
	StorageSQLite   StorageBackend = "sqlite"
	StoragePostgres StorageBackend = "postgres"
	StorageMemory   StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StoragePostgres, StorageMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// NotesSettings locates the corpus.
type NotesSettings struct {
	// Dir holds the *.txt notes to index.
	Dir string
}

// IndexSettings controls chunking and retrieval.
type IndexSettings struct {
	// ChunkSize is the maximum chunk length in bytes.
	ChunkSize int

	// Overlap is the number of bytes adjacent chunks may share.
	Overlap int

	// TopK is the number of passages retrieved per question.
	TopK int

	// BatchSize is the number of chunks sent per embedding call.
	BatchSize int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or a compatible server).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector length for the hashing provider.
	Dimensions int

	// Timeout bounds each embedding call.
	Timeout time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds completion provider configuration.
type LLMSettings struct {
	// Provider is the completion service provider.
	Provider AIProvider

	// Model is the completion model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or a compatible server).
	BaseURL string

	// APIKey is the API key (for Groq/OpenAI).
	APIKey string

	// MaxTokens caps the completion length.
	MaxTokens int

	// Temperature is the sampling temperature.
	Temperature float64

	// Timeout bounds each completion attempt.
	Timeout time.Duration

	// RequestsPerSecond throttles completion calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the completion provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.SupportsCompletions() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// StorageSettings selects the persistence backend.
type StorageSettings struct {
	Backend StorageBackend

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string
}

// PaperSettings controls question paper generation.
type PaperSettings struct {
	// TTL is how long a generated paper stays downloadable.
	TTL time.Duration

	// ContextK is the number of passages retrieved for question generation.
	ContextK int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Notes     NotesSettings
	Index     IndexSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Storage   StorageSettings
	Paper     PaperSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Embeddings work offline out of the box; completions expect a Groq key.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Notes: NotesSettings{Dir: "notes"},
		Index: IndexSettings{
			ChunkSize: 800,
			Overlap:   120,
			TopK:      DefaultTopK,
			BatchSize: 32,
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderHashing,
			Model:      DefaultEmbeddingModels()[AIProviderHashing],
			Dimensions: 384,
			Timeout:    30 * time.Second,
		},
		LLM: LLMSettings{
			Provider:    AIProviderGroq,
			Model:       DefaultLLMModels()[AIProviderGroq],
			MaxTokens:   500,
			Temperature: 0.3,
			Timeout:     60 * time.Second,
		},
		Storage: StorageSettings{Backend: StorageSQLite},
		Paper: PaperSettings{
			TTL:      time.Hour,
			ContextK: 5,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashing,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support completions.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGroq,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHashing: "hashing-v1",
		AIProviderOllama:  "nomic-embed-text",
		AIProviderOpenAI:  "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each completion provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGroq:   "llama-3.1-8b-instant",
		AIProviderOllama: "llama3.2",
		AIProviderOpenAI: "gpt-4o-mini",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Per-processor configuration is a generic map so new processors can be
// added without changing this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration keyed by name.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfig derives the chunking pipeline from index settings.
func (s IndexSettings) PipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": s.ChunkSize,
				"overlap":    s.Overlap,
			},
		},
	}
}
