package mcp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed notes"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	DirectAnswer string            `json:"direct_answer"`
	Explanation  string            `json:"explanation"`
	Summary      string            `json:"summary"`
	Sources      []domain.Citation `json:"sources,omitempty"`
}

// PaperInput is the input schema for the generate_paper tool.
type PaperInput struct {
	Subject         string `json:"subject" jsonschema:"subject of the paper"`
	Topic           string `json:"topic,omitempty" jsonschema:"optional topic to focus retrieval on"`
	DurationMinutes int    `json:"duration_minutes,omitempty" jsonschema:"exam duration in minutes (default 60)"`
	Difficulty      string `json:"difficulty,omitempty" jsonschema:"easy, medium or hard (default medium)"`
	MCQ             int    `json:"mcq,omitempty" jsonschema:"number of multiple choice questions"`
	TrueFalse       int    `json:"true_false,omitempty" jsonschema:"number of true or false questions"`
	ShortAnswer     int    `json:"short_answer,omitempty" jsonschema:"number of short answer questions"`
	LongAnswer      int    `json:"long_answer,omitempty" jsonschema:"number of long answer questions"`
}

// PaperOutput is the output schema for the generate_paper tool.
type PaperOutput struct {
	ID              string                  `json:"id"`
	Subject         string                  `json:"subject"`
	DurationMinutes int                     `json:"duration_minutes"`
	Difficulty      string                  `json:"difficulty"`
	TotalMarks      int                     `json:"total_marks"`
	Complete        bool                    `json:"complete"`
	Questions       []domain.Question       `json:"questions"`
	Status          []domain.CategoryStatus `json:"category_status"`
	ExpiresAt       string                  `json:"expires_at"`
}

// ReindexInput is the input schema for the reindex tool.
type ReindexInput struct{}

// ReindexOutput is the output schema for the reindex tool.
type ReindexOutput struct {
	Chunks int `json:"chunks"`
}

// StatusInput is the input schema for the status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the status tool.
type StatusOutput struct {
	Status           string `json:"status"`
	IndexLoaded      bool   `json:"index_loaded"`
	IndexedChunks    int    `json:"indexed_chunks"`
	IndexedDocuments int    `json:"indexed_documents"`
	Generation       uint64 `json:"generation"`
	BuiltAt          string `json:"built_at,omitempty"`
	EmbeddingModel   string `json:"embedding_model,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
// Paper and reindex tools are only offered when their ports are set.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed study notes with a direct answer, explanation and summary",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "status",
		Description: "Report whether the notes index is loaded and how many notes it holds",
	}, s.handleStatus)

	if s.ports.Paper != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "generate_paper",
			Description: "Generate an exam question paper from the indexed study notes",
		}, s.handleGeneratePaper)
	}

	if s.ports.Index != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "reindex",
			Description: "Rebuild the index from the notes directory",
		}, s.handleReindex)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Ask.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{
		DirectAnswer: answer.DirectAnswer,
		Explanation:  answer.Explanation,
		Summary:      answer.Summary,
		Sources:      answer.Sources,
	}, nil
}

// handleStatus handles the status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	st := s.ports.Status.Status(ctx)
	out := StatusOutput{
		Status:           st.Status,
		IndexLoaded:      st.Loaded,
		IndexedChunks:    st.Chunks,
		IndexedDocuments: st.Documents,
		Generation:       st.Generation,
		EmbeddingModel:   st.EmbeddingModel,
	}
	if !st.BuiltAt.IsZero() {
		out.BuiltAt = st.BuiltAt.Format(time.RFC3339)
	}
	return nil, out, nil
}

// handleGeneratePaper handles the generate_paper tool invocation.
func (s *Server) handleGeneratePaper(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PaperInput,
) (*mcp.CallToolResult, PaperOutput, error) {
	if s.ports.Paper == nil {
		return nil, PaperOutput{}, errors.New("paper generation is not configured")
	}
	req, err := input.toRequest()
	if err != nil {
		return nil, PaperOutput{}, err
	}
	paper, err := s.ports.Paper.Generate(ctx, req)
	if err != nil {
		return nil, PaperOutput{}, err
	}
	return nil, PaperOutput{
		ID:              paper.ID,
		Subject:         paper.Subject,
		DurationMinutes: paper.DurationMinutes,
		Difficulty:      paper.Difficulty.String(),
		TotalMarks:      paper.TotalMarks,
		Complete:        paper.Complete,
		Questions:       paper.Questions,
		Status:          paper.Status,
		ExpiresAt:       paper.ExpiresAt.Format(time.RFC3339),
	}, nil
}

// handleReindex handles the reindex tool invocation.
func (s *Server) handleReindex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ReindexInput,
) (*mcp.CallToolResult, ReindexOutput, error) {
	if s.ports.Index == nil {
		return nil, ReindexOutput{}, errors.New("indexing is not configured")
	}
	n, err := s.ports.Index.Reindex(ctx)
	if err != nil {
		return nil, ReindexOutput{}, err
	}
	return nil, ReindexOutput{Chunks: n}, nil
}

// toRequest applies defaults. When no counts are given the default count
// of every category is used.
func (in PaperInput) toRequest() (domain.PaperRequest, error) {
	req := domain.PaperRequest{
		Subject:         in.Subject,
		Topic:           in.Topic,
		DurationMinutes: in.DurationMinutes,
		Difficulty:      domain.DefaultDifficulty,
		Counts: map[domain.Category]int{
			domain.CategoryMCQ:         in.MCQ,
			domain.CategoryTrueFalse:   in.TrueFalse,
			domain.CategoryShortAnswer: in.ShortAnswer,
			domain.CategoryLongAnswer:  in.LongAnswer,
		},
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = domain.DefaultPaperDurationMinutes
	}
	if strings.TrimSpace(in.Difficulty) != "" {
		d, err := domain.ParseDifficulty(in.Difficulty)
		if err != nil {
			return domain.PaperRequest{}, err
		}
		req.Difficulty = d
	}
	if in.MCQ == 0 && in.TrueFalse == 0 && in.ShortAnswer == 0 && in.LongAnswer == 0 {
		req.Counts = domain.DefaultCategoryCounts()
	}
	return req, nil
}
