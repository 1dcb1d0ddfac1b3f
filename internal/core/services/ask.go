package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driving"
	"github.com/custodia-labs/edurag/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// AskService answers questions from the indexed notes.
type AskService struct {
	retriever driving.RetrievalService
	generator *Generator
	topK      int
}

// NewAskService creates an ask service. topK <= 0 uses domain.DefaultTopK.
func NewAskService(retriever driving.RetrievalService, generator *Generator, topK int) *AskService {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &AskService{
		retriever: retriever,
		generator: generator,
		topK:      topK,
	}
}

// Ask retrieves passages for question and generates a three-part answer
// citing them. With no matching passages the canned no-information
// answer is returned and the completion service is not called.
func (s *AskService) Ask(ctx context.Context, question string) (*domain.StructuredAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	passages, err := s.retriever.Retrieve(ctx, question, s.topK)
	if err != nil {
		return nil, err
	}
	if len(passages) == 0 {
		logger.Debug("no passages for %q", question)
		answer := domain.NoInformationAnswer()
		return &answer, nil
	}
	logger.Debug("answering from %d passages, top score %.3f", len(passages), passages[0].Score)

	answer, err := s.generator.Answer(ctx, question, passages)
	if err != nil {
		return nil, fmt.Errorf("answer question: %w", err)
	}
	answer.Sources = domain.CitationsFor(passages)
	return answer, nil
}
