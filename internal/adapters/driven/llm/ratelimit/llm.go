// Package ratelimit wraps an LLM service with a token-bucket throttle so
// bursts of generation calls stay under a provider's request quota.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/edurag/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// LLMService throttles Chat calls on an underlying service.
type LLMService struct {
	next   driven.LLMService
	bucket *rate.Limiter
}

// New wraps next so Chat runs at most perSecond times per second on
// average, with bursts of up to burst calls. A non-positive perSecond
// returns next unchanged.
func New(next driven.LLMService, perSecond float64, burst int) driven.LLMService {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &LLMService{
		next:   next,
		bucket: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Chat waits for a token and then delegates.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if err := s.bucket.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return s.next.Chat(ctx, messages, opts)
}

// ModelName returns the wrapped service's model.
func (s *LLMService) ModelName() string {
	return s.next.ModelName()
}

// Ping delegates without consuming a token.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close closes the wrapped service.
func (s *LLMService) Close() error {
	return s.next.Close()
}
