package mcp

import (
	"context"

	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driving"
)

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	answer   *domain.StructuredAnswer
	err      error
	question string
}

func (m *mockAskService) Ask(_ context.Context, question string) (*domain.StructuredAnswer, error) {
	m.question = question
	return m.answer, m.err
}

// mockStatusService is a mock implementation of driving.StatusService.
type mockStatusService struct {
	status domain.IndexStatus
}

func (m *mockStatusService) Status(_ context.Context) domain.IndexStatus {
	return m.status
}

// mockPaperService is a mock implementation of driving.PaperService.
type mockPaperService struct {
	paper   *domain.QuestionPaper
	err     error
	getErr  error
	lastReq domain.PaperRequest
	lastID  string
}

func (m *mockPaperService) Generate(_ context.Context, req domain.PaperRequest) (*domain.QuestionPaper, error) {
	m.lastReq = req
	return m.paper, m.err
}

func (m *mockPaperService) Get(_ context.Context, id string) (*domain.QuestionPaper, error) {
	m.lastID = id
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.paper, nil
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	chunks int
	err    error
	calls  int
}

func (m *mockIndexService) IndexCorpus(_ context.Context, _ []domain.Document) (int, error) {
	return m.chunks, m.err
}

func (m *mockIndexService) Reindex(_ context.Context) (int, error) {
	m.calls++
	return m.chunks, m.err
}

func (m *mockIndexService) LoadPersisted(_ context.Context) error {
	return m.err
}

// Verify mocks implement interfaces.
var (
	_ driving.AskService    = (*mockAskService)(nil)
	_ driving.StatusService = (*mockStatusService)(nil)
	_ driving.PaperService  = (*mockPaperService)(nil)
	_ driving.IndexService  = (*mockIndexService)(nil)
)

func requiredPorts() *Ports {
	return &Ports{
		Ask:    &mockAskService{},
		Status: &mockStatusService{},
	}
}
