package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driven"
	"github.com/custodia-labs/edurag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyNotesDir          = "notes.dir"
	KeyChunkSize         = "index.chunk_size"
	KeyOverlap           = "index.overlap"
	KeyTopK              = "index.top_k"
	KeyBatchSize         = "index.batch_size"
	KeyEmbedProvider     = "embedding.provider"
	KeyEmbedModel        = "embedding.model"
	KeyEmbedBaseURL      = "embedding.base_url"
	KeyEmbedAPIKey       = "embedding.api_key"
	KeyEmbedDimensions   = "embedding.dimensions"
	KeyEmbedTimeout      = "embedding.timeout_seconds"
	KeyLLMProvider       = "llm.provider"
	KeyLLMModel          = "llm.model"
	KeyLLMBaseURL        = "llm.base_url"
	KeyLLMAPIKey         = "llm.api_key"
	KeyLLMMaxTokens      = "llm.max_tokens"
	KeyLLMTemperature    = "llm.temperature"
	KeyLLMTimeout        = "llm.timeout_seconds"
	KeyLLMRatePerSecond  = "llm.requests_per_second"
	KeyStorageBackend    = "storage.backend"
	KeyStoragePostgreDSN = "storage.postgres_dsn"
	KeyPaperTTL          = "paper.ttl_minutes"
	KeyPaperContextK     = "paper.context_k"
)

// localBaseURL is where local providers listen unless configured otherwise.
const localBaseURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings. Missing or invalid values
// fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Notes: domain.NotesSettings{
			Dir: s.getString(KeyNotesDir, defaults.Notes.Dir),
		},
		Index: domain.IndexSettings{
			ChunkSize: s.getInt(KeyChunkSize, defaults.Index.ChunkSize),
			Overlap:   s.getNonNegativeInt(KeyOverlap, defaults.Index.Overlap),
			TopK:      s.getInt(KeyTopK, defaults.Index.TopK),
			BatchSize: s.getInt(KeyBatchSize, defaults.Index.BatchSize),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(KeyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.getString(KeyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.configStore.GetString(KeyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.configStore.GetString(KeyEmbedAPIKey),
			Dimensions: s.getInt(KeyEmbedDimensions, defaults.Embedding.Dimensions),
			Timeout:    s.getSeconds(KeyEmbedTimeout, defaults.Embedding.Timeout),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(KeyLLMProvider, defaults.LLM.Provider),
			Model:             s.getString(KeyLLMModel, defaults.LLM.Model),
			BaseURL:           s.configStore.GetString(KeyLLMBaseURL),
			APIKey:            s.configStore.GetString(KeyLLMAPIKey),
			MaxTokens:         s.getInt(KeyLLMMaxTokens, defaults.LLM.MaxTokens),
			Temperature:       s.getFloat(KeyLLMTemperature, defaults.LLM.Temperature),
			Timeout:           s.getSeconds(KeyLLMTimeout, defaults.LLM.Timeout),
			RequestsPerSecond: s.getFloat(KeyLLMRatePerSecond, defaults.LLM.RequestsPerSecond),
		},
		Storage: domain.StorageSettings{
			Backend:     s.getBackend(defaults.Storage.Backend),
			PostgresDSN: s.configStore.GetString(KeyStoragePostgreDSN),
		},
		Paper: domain.PaperSettings{
			TTL:      s.getMinutes(KeyPaperTTL, defaults.Paper.TTL),
			ContextK: s.getInt(KeyPaperContextK, defaults.Paper.ContextK),
		},
	}

	// A model left over from another provider would never resolve.
	if _, set := s.configStore.Get(KeyEmbedModel); !set {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if _, set := s.configStore.Get(KeyLLMModel); !set {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}

	return settings, nil
}

// Save persists application settings. Empty API keys are not written so a
// key supplied through the environment is never blanked on disk.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []setting{
		{KeyNotesDir, settings.Notes.Dir},
		{KeyChunkSize, settings.Index.ChunkSize},
		{KeyOverlap, settings.Index.Overlap},
		{KeyTopK, settings.Index.TopK},
		{KeyBatchSize, settings.Index.BatchSize},
		{KeyEmbedProvider, settings.Embedding.Provider.String()},
		{KeyEmbedModel, settings.Embedding.Model},
		{KeyEmbedBaseURL, settings.Embedding.BaseURL},
		{KeyEmbedDimensions, settings.Embedding.Dimensions},
		{KeyEmbedTimeout, int(settings.Embedding.Timeout / time.Second)},
		{KeyLLMProvider, settings.LLM.Provider.String()},
		{KeyLLMModel, settings.LLM.Model},
		{KeyLLMBaseURL, settings.LLM.BaseURL},
		{KeyLLMMaxTokens, settings.LLM.MaxTokens},
		{KeyLLMTemperature, settings.LLM.Temperature},
		{KeyLLMTimeout, int(settings.LLM.Timeout / time.Second)},
		{KeyLLMRatePerSecond, settings.LLM.RequestsPerSecond},
		{KeyStorageBackend, settings.Storage.Backend.String()},
		{KeyPaperTTL, int(settings.Paper.TTL / time.Minute)},
		{KeyPaperContextK, settings.Paper.ContextK},
	}
	if settings.Embedding.APIKey != "" {
		values = append(values, setting{KeyEmbedAPIKey, settings.Embedding.APIKey})
	}
	if settings.LLM.APIKey != "" {
		values = append(values, setting{KeyLLMAPIKey, settings.LLM.APIKey})
	}
	if settings.Storage.PostgresDSN != "" {
		values = append(values, setting{KeyStoragePostgreDSN, settings.Storage.PostgresDSN})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = pickModel(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	} else if provider == domain.AIProviderHashing && settings.Embedding.Dimensions <= 0 {
		settings.Embedding.Dimensions = domain.DefaultAppSettings().Embedding.Dimensions
	}

	return s.Save(settings)
}

// SetLLMProvider configures the completion provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}
	if !provider.SupportsCompletions() {
		return fmt.Errorf("%w: provider %s does not support completions", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = pickModel(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// valueKind describes how a settable key is parsed.
type valueKind int

const (
	kindString valueKind = iota
	kindPositiveInt
	kindNonNegativeInt
	kindNonNegativeFloat
	kindProvider
	kindBackend
)

// settableKeys lists the keys Set accepts. API keys go through the
// provider setters so they are validated together with the provider.
var settableKeys = map[string]valueKind{
	KeyNotesDir:          kindString,
	KeyChunkSize:         kindPositiveInt,
	KeyOverlap:           kindNonNegativeInt,
	KeyTopK:              kindPositiveInt,
	KeyBatchSize:         kindPositiveInt,
	KeyEmbedProvider:     kindProvider,
	KeyEmbedModel:        kindString,
	KeyEmbedBaseURL:      kindString,
	KeyEmbedDimensions:   kindPositiveInt,
	KeyEmbedTimeout:      kindPositiveInt,
	KeyLLMProvider:       kindProvider,
	KeyLLMModel:          kindString,
	KeyLLMBaseURL:        kindString,
	KeyLLMMaxTokens:      kindPositiveInt,
	KeyLLMTemperature:    kindNonNegativeFloat,
	KeyLLMTimeout:        kindPositiveInt,
	KeyLLMRatePerSecond:  kindNonNegativeFloat,
	KeyStorageBackend:    kindBackend,
	KeyStoragePostgreDSN: kindString,
	KeyPaperTTL:          kindPositiveInt,
	KeyPaperContextK:     kindPositiveInt,
}

// SettableKeys returns the keys accepted by Set, sorted.
func SettableKeys() []string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Set parses value for key and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	var parsed any
	switch kind {
	case kindString:
		parsed = value
	case kindPositiveInt, kindNonNegativeInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || (kind == kindPositiveInt && n == 0) {
			return fmt.Errorf("%w: %s must be a %s integer", domain.ErrInvalidInput, key, intAdjective(kind))
		}
		parsed = n
	case kindNonNegativeFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindProvider:
		provider := domain.AIProvider(value)
		if key == KeyEmbedProvider && !provider.SupportsEmbeddings() {
			return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, value)
		}
		if key == KeyLLMProvider && !provider.SupportsCompletions() {
			return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, value)
		}
		parsed = value
	case kindBackend:
		if !domain.StorageBackend(value).IsValid() {
			return fmt.Errorf("%w: invalid storage backend: %s", domain.ErrInvalidInput, value)
		}
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func intAdjective(kind valueKind) string {
	if kind == kindPositiveInt {
		return "positive"
	}
	return "non-negative"
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

type setting struct {
	key   string
	value any
}

func pickModel(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a configured URL for local network providers and
// clears it for cloud providers.
func baseURLFor(provider domain.AIProvider, current string) string {
	switch {
	case provider == domain.AIProviderOllama && current == "":
		return localBaseURL
	case provider == domain.AIProviderOllama:
		return current
	default:
		return ""
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

// getNonNegativeInt allows an explicit zero.
func (s *SettingsService) getNonNegativeInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	val := s.configStore.GetInt(key)
	if val < 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	val := s.configStore.GetFloat(key)
	if val < 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Second
}

func (s *SettingsService) getMinutes(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Minute
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.configStore.GetString(KeyStorageBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
