package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driven"
)

// --- Mock implementations ---

// testKeywords are the axes of mockEmbedder's vector space.
var testKeywords = []string{"photosynthesis", "gravity", "cell", "war"}

// mockEmbedder implements driven.EmbeddingService. Each dimension counts
// one keyword, so related texts score high against each other.
type mockEmbedder struct {
	mu       sync.Mutex
	model    string
	dims     int
	embedErr error
	batchErr error
	short    bool // return one vector too few from EmbedBatch
	nan      bool // put a NaN in the first vector from EmbedBatch
	onBatch  func()
	calls    int
	texts    []string
}

func (m *mockEmbedder) vector(text string) []float32 {
	v := make([]float32, m.Dimensions())
	lower := strings.ToLower(text)
	for i, kw := range testKeywords {
		if i < len(v) {
			v[i] = float32(strings.Count(lower, kw))
		}
	}
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.texts = append(m.texts, text)
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.onBatch != nil {
		m.onBatch()
	}
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vector(text)
	}
	if m.nan && len(out) > 0 && len(out[0]) > 0 {
		out[0][0] = float32(math.NaN())
	}
	if m.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return len(testKeywords)
}

func (m *mockEmbedder) ModelName() string {
	if m.model != "" {
		return m.model
	}
	return "mock-embed"
}

func (m *mockEmbedder) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbedder) Close() error {
	return nil
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// llmReply is one scripted completion result.
type llmReply struct {
	text string
	err  error
}

// mockLLM implements driven.LLMService. Replies are consumed in order;
// when respond is set it decides instead. Safe for concurrent use.
type mockLLM struct {
	mu      sync.Mutex
	replies []llmReply
	respond func(messages []driven.ChatMessage) (string, error)
	calls   [][]driven.ChatMessage
	opts    []driven.ChatOptions
}

func (m *mockLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]driven.ChatMessage(nil), messages...))
	m.opts = append(m.opts, opts)
	respond := m.respond
	var next *llmReply
	if respond == nil && len(m.replies) > 0 {
		next = &m.replies[0]
		m.replies = m.replies[1:]
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if respond != nil {
		return respond(messages)
	}
	if next == nil {
		return "", errors.New("mock llm: no scripted reply")
	}
	return next.text, next.err
}

func (m *mockLLM) ModelName() string {
	return "mock-llm"
}

func (m *mockLLM) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLM) Close() error {
	return nil
}

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// lastUserPrompt returns the final user message of call i.
func (m *mockLLM) lastUserPrompt(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.calls[i]
	for j := len(msgs) - 1; j >= 0; j-- {
		if msgs[j].Role == driven.RoleUser {
			return msgs[j].Content
		}
	}
	return ""
}

// mockNoteSource implements driven.NoteSource.
type mockNoteSource struct {
	docs []domain.Document
	err  error
}

func (m *mockNoteSource) Load(_ context.Context) ([]domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.docs, nil
}

func (m *mockNoteSource) Location() string {
	return "mock://notes"
}

// failingIndexStore implements driven.IndexStore and fails on demand.
type failingIndexStore struct {
	saveErr error
	loadErr error
}

func (s *failingIndexStore) Save(_ context.Context, _ *domain.IndexSnapshot) error {
	return s.saveErr
}

func (s *failingIndexStore) Load(_ context.Context) (*domain.IndexSnapshot, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return nil, domain.ErrNotFound
}

// mockAIValidator implements driven.AIConfigValidator.
type mockAIValidator struct {
	embedErr      error
	llmErr        error
	lastEmbedding *domain.EmbeddingSettings
	lastLLM       *domain.LLMSettings
}

func (m *mockAIValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	m.lastEmbedding = config
	return m.embedErr
}

func (m *mockAIValidator) ValidateLLM(config *domain.LLMSettings) error {
	m.lastLLM = config
	return m.llmErr
}

// --- Fixtures ---

func testNotes() []domain.Document {
	return []domain.Document{
		{SourceID: "biology.txt", Text: "Photosynthesis converts light into chemical energy. The cell uses chlorophyll for photosynthesis."},
		{SourceID: "physics.txt", Text: "Gravity pulls objects toward each other. Newton described gravity as a force."},
		{SourceID: "history.txt", Text: "The war ended in 1945. Treaties followed the war."},
	}
}

func passage(source, text string, score float64) domain.RetrievalResult {
	return domain.RetrievalResult{
		Chunk: domain.Chunk{ID: domain.ChunkID(source, 0), SourceID: source, Text: text},
		Score: score,
	}
}

func noSleep(context.Context, time.Duration) error {
	return nil
}
