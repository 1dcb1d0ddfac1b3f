package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driven"
	"github.com/custodia-labs/edurag/internal/logger"
)

// Default generator configuration values.
const (
	DefaultMaxTokens      = 500
	DefaultTemperature    = 0.3
	DefaultLLMTimeout     = 60 * time.Second
	DefaultRetryBackoff   = time.Second
	completionAttempts    = 2
	degradedExcerptLength = 300
)

// Fallback text for sections missing from a completion.
const (
	missingExplanation = "No explanation provided."
	missingSummary     = "No summary provided."
)

// GeneratorConfig tunes completion calls.
type GeneratorConfig struct {
	MaxTokens   int
	Temperature float64

	// Timeout bounds each completion attempt.
	Timeout time.Duration

	// Backoff is the pause before the retry.
	Backoff time.Duration
}

// Generator turns retrieved passages into structured answers and exam
// questions. Each completion is attempted at most twice.
type Generator struct {
	llm         driven.LLMService // nil when no provider is configured
	maxTokens   int
	temperature float64
	timeout     time.Duration
	backoff     time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewGenerator creates a generator. llm may be nil, in which case every
// call fails with domain.ErrGenerationUnavailable.
func NewGenerator(llm driven.LLMService, cfg GeneratorConfig) *Generator {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultRetryBackoff
	}
	return &Generator{
		llm:         llm,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		backoff:     cfg.Backoff,
		sleep:       sleepContext,
	}
}

// Answer asks the model to answer question from passages and parses the
// reply into three sections. A reply that cannot be fully parsed is
// repaired locally and marked Degraded; only a failed completion is an
// error.
func (g *Generator) Answer(ctx context.Context, question string, passages []domain.RetrievalResult) (*domain.StructuredAnswer, error) {
	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: answerSystemPrompt},
		{Role: driven.RoleUser, Content: answerUserPrompt(question, passages)},
	}

	reply, err := g.complete(ctx, messages, g.maxTokens)
	if err != nil {
		return nil, err
	}

	sections := parseAnswer(reply)
	answer := &domain.StructuredAnswer{
		DirectAnswer: sections.direct,
		Explanation:  sections.explanation,
		Summary:      sections.summary,
	}
	if missing := sections.missing(); missing > 0 {
		repairAnswer(answer, passages)
		logger.Warn("%v: %d of 3 sections missing, answer repaired", domain.ErrParseDegraded, missing)
	}
	return answer, nil
}

// repairAnswer fills empty sections. The direct answer falls back to the
// best passage so the reply stays grounded in the notes.
func repairAnswer(a *domain.StructuredAnswer, passages []domain.RetrievalResult) {
	a.Degraded = true
	if a.DirectAnswer == "" {
		a.DirectAnswer = domain.NoInformationAnswer().DirectAnswer
		if len(passages) > 0 {
			a.DirectAnswer = excerpt(passages[0].Chunk.Text, degradedExcerptLength)
		}
	}
	if a.Explanation == "" {
		a.Explanation = missingExplanation
	}
	if a.Summary == "" {
		a.Summary = missingSummary
	}
}

// excerpt collapses whitespace and cuts s to at most n bytes on a word
// boundary.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	cut := strings.LastIndexByte(s[:n], ' ')
	if cut <= 0 {
		cut = n
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
	}
	return strings.TrimSpace(s[:cut]) + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// Questions generates up to req.Count questions of one category. When
// the first reply yields too few valid questions a single corrective
// prompt asks for the rest. The batch is never padded: a shortfall is
// reported through QuestionBatch.Shortfall.
func (g *Generator) Questions(ctx context.Context, req domain.QuestionRequest) (*domain.QuestionBatch, error) {
	if !req.Category.IsValid() {
		return nil, fmt.Errorf("%w: unknown question category %q", domain.ErrInvalidInput, req.Category)
	}
	if !req.Difficulty.IsValid() {
		return nil, fmt.Errorf("%w: unknown difficulty %q", domain.ErrInvalidInput, req.Difficulty)
	}
	batch := &domain.QuestionBatch{Category: req.Category, Requested: req.Count}
	if req.Count <= 0 {
		return batch, nil
	}

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: questionSystemPrompt},
		{Role: driven.RoleUser, Content: questionUserPrompt(req)},
	}
	tokens := questionTokens(req.Category, req.Count, g.maxTokens)

	reply, err := g.complete(ctx, messages, tokens)
	if err != nil {
		return nil, err
	}
	batch.Questions = appendUnique(nil, parseQuestions(reply, req.Category), req.Count)

	if missing := batch.Shortfall(); missing > 0 {
		batch.Retried = true
		logger.Debug("%s: %d of %d questions parsed, sending corrective prompt",
			req.Category, len(batch.Questions), req.Count)

		messages = append(messages,
			driven.ChatMessage{Role: driven.RoleAssistant, Content: reply},
			driven.ChatMessage{Role: driven.RoleUser,
				Content: correctivePrompt(len(batch.Questions), missing, batch.Questions)},
		)
		reply, err = g.complete(ctx, messages, questionTokens(req.Category, missing, g.maxTokens))
		if err != nil {
			logger.Warn("%s: corrective prompt failed: %v", req.Category, err)
			return batch, nil
		}
		batch.Questions = appendUnique(batch.Questions, parseQuestions(reply, req.Category), req.Count)
	}

	if n := batch.Shortfall(); n > 0 {
		logger.Warn("%s: %d of %d questions missing", req.Category, n, req.Count)
	}
	return batch, nil
}

// complete runs one completion with a single retry after backoff. Each
// attempt has its own deadline.
func (g *Generator) complete(ctx context.Context, messages []driven.ChatMessage, maxTokens int) (string, error) {
	if g.llm == nil {
		return "", fmt.Errorf("%w: no completion provider configured", domain.ErrGenerationUnavailable)
	}
	opts := driven.ChatOptions{MaxTokens: maxTokens, Temperature: g.temperature}

	var lastErr error
	timedOut := false
	for attempt := 1; attempt <= completionAttempts; attempt++ {
		if attempt > 1 {
			logger.Debug("completion attempt %d after: %v", attempt, lastErr)
			if err := g.sleep(ctx, g.backoff); err != nil {
				return "", err
			}
		}

		reply, err := g.attempt(ctx, messages, opts)
		if err == nil {
			return reply, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return "", fmt.Errorf("%w: %w: %w", domain.ErrGenerationUnavailable, domain.ErrTimeout, err)
			}
			return "", ctxErr
		}
		lastErr = err
		timedOut = errors.Is(err, context.DeadlineExceeded)
	}

	if timedOut {
		return "", fmt.Errorf("%w: %w: %w", domain.ErrGenerationUnavailable, domain.ErrTimeout, lastErr)
	}
	if errors.Is(lastErr, domain.ErrGenerationUnavailable) {
		return "", fmt.Errorf("after %d attempts: %w", completionAttempts, lastErr)
	}
	return "", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, lastErr)
}

func (g *Generator) attempt(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	defer logger.Timed("completion")()

	attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	reply, err := g.llm.Chat(attemptCtx, messages, opts)
	if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return reply, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
