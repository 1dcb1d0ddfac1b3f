// Package hashing provides a deterministic, offline embedding service.
//
// Text is lowercased, split into letter and digit runs, stripped of
// stopwords, and each remaining term (plus each adjacent pair) is hashed
// into a fixed number of buckets with a signed FNV-1a feature hash. The
// bucket counts are log-scaled and L2-normalised, so cosine similarity
// behaves like a bag-of-words overlap score. No network access is needed,
// which makes it the default provider and the one used in tests.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "hashing-v1"
	DefaultDimensions = 384
)

// Config holds configuration for the hashing embedding service.
type Config struct {
	// Model names the embedding space; vectors from different names are
	// never compared (default: hashing-v1).
	Model string

	// Dimensions is the number of hash buckets (default: 384).
	Dimensions int
}

// EmbeddingService computes feature-hashed term vectors.
type EmbeddingService struct {
	model      string
	dimensions int
	tokens     *regexp.Regexp
	stopwords  map[string]struct{}
}

// NewEmbeddingService creates a hashing embedder.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Dimensions < 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d", domain.ErrInvalidInput, cfg.Dimensions)
	}
	return &EmbeddingService{
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		tokens:     regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords:  defaultStopwords(),
	}, nil
}

// Embed returns the unit vector for text. Text with no indexable terms
// yields the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make([]float64, s.dimensions)
	terms := s.tokenize(text)
	for i, term := range terms {
		s.add(counts, term)
		if i > 0 {
			s.add(counts, terms[i-1]+" "+term)
		}
	}

	var norm float64
	for i, c := range counts {
		if c == 0 {
			continue
		}
		// Sub-linear term frequency; the sign carries the hash sign.
		v := math.Copysign(1+math.Log(math.Abs(c)), c)
		counts[i] = v
		norm += v * v
	}

	vec := make([]float32, s.dimensions)
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i, c := range counts {
		vec[i] = float32(c / norm)
	}
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the configured model name.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) add(counts []float64, feature string) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(s.dimensions))
	if sum>>63 == 1 {
		counts[bucket]--
		return
	}
	counts[bucket]++
}

func (s *EmbeddingService) tokenize(text string) []string {
	raw := s.tokens.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := s.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of",
		"in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been",
		"being", "it", "its", "this", "that", "these", "those", "from", "up", "down",
		"over", "under", "again", "further", "than", "so", "such", "into", "about",
		"between", "through", "during", "before", "after", "above", "below", "out",
		"off", "own", "same", "too", "very", "can", "will", "just", "should", "now",
		"what", "which", "who", "whom", "how", "why", "when", "where", "do", "does",
		"did", "has", "have", "had",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
