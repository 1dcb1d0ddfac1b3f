package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsShowCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.LLM.APIKey = "gsk-1234567890abcdef"
	ts.settings.settings.Storage.Backend = domain.StoragePostgres

	out, err := execute("settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[Notes]")
	assert.Contains(t, out, "Directory: notes")
	assert.Contains(t, out, "Top K: 3")
	assert.Contains(t, out, "Provider: Hashing (built-in, offline)")
	assert.Contains(t, out, "Dimensions: 384")
	assert.Contains(t, out, "Provider: Groq (cloud)")
	assert.Contains(t, out, "API Key: gsk-...cdef")
	assert.NotContains(t, out, "gsk-1234567890abcdef")
	assert.Contains(t, out, "Backend: postgres")
	assert.Contains(t, out, "DSN: (not set)")
	assert.Contains(t, out, "Kept for: 1h0m0s")
}

func TestSettingsSetCmd(t *testing.T) {
	t.Run("stores value", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		out, err := execute("settings", "set", "index.top_k", "5")

		require.NoError(t, err)
		assert.Equal(t, "5", ts.settings.set["index.top_k"])
		assert.Contains(t, out, "Set index.top_k = 5")
	})

	t.Run("rejected value", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.settings.setErr = domain.ErrInvalidInput

		_, err := execute("settings", "set", "index.top_k", "zero")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("requires key and value", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		_, err := execute("settings", "set", "index.top_k")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "accepts 2 arg(s)")
	})
}

func TestSettingsSetKeyCmd(t *testing.T) {
	t.Run("prompts for cloud key", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		out, err := executeWithInput("gsk-secret-key\n", "settings", "set-key", "llm", "groq")

		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderGroq, ts.settings.llmProvider)
		assert.Equal(t, "gsk-secret-key", ts.settings.apiKey)
		assert.Empty(t, ts.settings.model)
		assert.Contains(t, out, "Enter API key:")
		assert.Contains(t, out, "Validating configuration... OK")
		assert.NotContains(t, out, "gsk-secret-key")
	})

	t.Run("local provider needs no key", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		out, err := execute("settings", "set-key", "embedding", "ollama", "all-minilm")

		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderOllama, ts.settings.embedProvider)
		assert.Equal(t, "all-minilm", ts.settings.model)
		assert.NotContains(t, out, "Enter API key:")
	})

	t.Run("empty key", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		_, err := executeWithInput("\n", "settings", "set-key", "embedding", "openai")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key is required")
	})

	t.Run("validation failure", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.settings.validateErr = errors.New("401 unauthorized")

		out, err := executeWithInput("bad\n", "settings", "set-key", "llm", "openai")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "LLM configuration validation failed")
		assert.Contains(t, out, "FAILED: 401 unauthorized")
	})

	t.Run("unknown target", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		_, err := execute("settings", "set-key", "vectors", "ollama")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown target")
	})
}

func TestSettingsLLMCmd_Interactive(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	// Second provider, default model.
	out, err := executeWithInput("2\n\n", "settings", "llm")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, ts.settings.llmProvider)
	assert.Equal(t, "llama3.2", ts.settings.model)
	assert.Contains(t, out, "LLM provider configured: Ollama (local) (llama3.2)")
}

func TestSettingsWizardCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	// Notes dir, hashing embedder with default model, Groq with a key.
	input := "/srv/notes\n1\n\n1\n\ngsk-wizard-key\n"
	out, err := executeWithInput(input, "settings", "wizard")

	require.NoError(t, err)
	assert.Equal(t, "/srv/notes", ts.settings.set["notes.dir"])
	assert.Equal(t, domain.AIProviderHashing, ts.settings.embedProvider)
	assert.Equal(t, domain.AIProviderGroq, ts.settings.llmProvider)
	assert.Equal(t, "gsk-wizard-key", ts.settings.apiKey)
	assert.Contains(t, out, "Configuration Complete!")
}
