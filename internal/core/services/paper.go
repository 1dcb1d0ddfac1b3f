package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driven"
	"github.com/custodia-labs/edurag/internal/core/ports/driving"
	"github.com/custodia-labs/edurag/internal/logger"
)

// Ensure PaperAssembler implements the interface.
var _ driving.PaperService = (*PaperAssembler)(nil)

// Default paper configuration values.
const (
	DefaultPaperTTL      = time.Hour
	DefaultPaperContextK = 5
)

// PaperConfig tunes paper assembly.
type PaperConfig struct {
	// ContextK is the number of passages retrieved for the whole paper.
	ContextK int

	// TTL is how long a stored paper can be fetched again.
	TTL time.Duration
}

// PaperAssembler builds question papers one category at a time and keeps
// them in a PaperStore until they expire.
type PaperAssembler struct {
	retriever driving.RetrievalService
	generator *Generator
	store     driven.PaperStore // optional

	contextK int
	ttl      time.Duration
	now      func() time.Time
	newID    func() string
}

// NewPaperAssembler creates a paper assembler. store may be nil, in which
// case papers are returned but cannot be fetched again.
func NewPaperAssembler(
	retriever driving.RetrievalService,
	generator *Generator,
	store driven.PaperStore,
	cfg PaperConfig,
) *PaperAssembler {
	if cfg.ContextK <= 0 {
		cfg.ContextK = DefaultPaperContextK
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultPaperTTL
	}
	return &PaperAssembler{
		retriever: retriever,
		generator: generator,
		store:     store,
		contextK:  cfg.ContextK,
		ttl:       cfg.TTL,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// categoryResult is the outcome of one category's generation.
type categoryResult struct {
	batch *domain.QuestionBatch
	err   error
}

// Generate assembles a paper for req. Categories are generated
// concurrently from one shared retrieval and laid out in display order.
// Totals count only the questions actually produced.
func (a *PaperAssembler) Generate(ctx context.Context, req domain.PaperRequest) (*domain.QuestionPaper, error) {
	defer logger.Timed("generate paper")()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := strings.TrimSpace(req.Subject + " " + req.Topic)
	passages, err := a.retriever.Retrieve(ctx, query, a.contextK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	logger.Debug("paper context: %d passages for %q", len(passages), query)

	var requested []domain.Category
	for _, c := range domain.AllCategories() {
		if req.Counts[c] > 0 {
			requested = append(requested, c)
		}
	}

	results := make([]categoryResult, len(requested))
	var wg sync.WaitGroup
	wg.Add(len(requested))
	for i, c := range requested {
		go func() {
			defer wg.Done()
			batch, err := a.generator.Questions(ctx, domain.QuestionRequest{
				Subject:    req.Subject,
				Category:   c,
				Difficulty: req.Difficulty,
				Count:      req.Counts[c],
				Passages:   passages,
			})
			results[i] = categoryResult{batch: batch, err: err}
		}()
	}
	wg.Wait()

	now := a.now().UTC()
	paper := &domain.QuestionPaper{
		ID:              a.newID(),
		Subject:         strings.TrimSpace(req.Subject),
		DurationMinutes: req.DurationMinutes,
		Difficulty:      req.Difficulty,
		Complete:        true,
		GeneratedAt:     now,
	}

	var failures []error
	for i, c := range requested {
		status := domain.CategoryStatus{Category: c, Requested: req.Counts[c]}
		res := results[i]

		switch {
		case res.err != nil:
			status.State = domain.CategoryMissing
			status.Error = res.err.Error()
			failures = append(failures, fmt.Errorf("%s: %w", c, res.err))
		case len(res.batch.Questions) == 0:
			status.State = domain.CategoryMissing
			failures = append(failures, fmt.Errorf("%s: no valid questions generated", c))
		default:
			status.Generated = len(res.batch.Questions)
			status.State = domain.CategoryComplete
			if res.batch.Shortfall() > 0 {
				status.State = domain.CategoryShort
			}
			for _, q := range res.batch.Questions {
				q.ID = a.newID()
				q.Number = len(paper.Questions) + 1
				paper.Questions = append(paper.Questions, q)
			}
		}

		if status.State != domain.CategoryComplete {
			paper.Complete = false
		}
		paper.Status = append(paper.Status, status)
		logger.Info("paper %s: %s %d/%d (%s)", paper.ID, c, status.Generated, status.Requested, status.State)
	}

	if len(failures) == len(requested) {
		return nil, fmt.Errorf("%w: every category failed: %w", domain.ErrPaperIncomplete, errors.Join(failures...))
	}
	paper.TotalMarks = paper.SumMarks()
	paper.ExpiresAt = now.Add(a.ttl)

	a.persist(ctx, paper, now)
	return paper, nil
}

// persist stores paper and purges expired ones. A storage failure does not
// discard a paper that was generated successfully.
func (a *PaperAssembler) persist(ctx context.Context, paper *domain.QuestionPaper, now time.Time) {
	if a.store == nil {
		return
	}
	if n, err := a.store.DeleteExpired(ctx, now); err != nil {
		logger.Warn("purge expired papers: %v", err)
	} else if n > 0 {
		logger.Debug("purged %d expired papers", n)
	}
	if err := a.store.Save(ctx, paper); err != nil {
		logger.Warn("store paper %s: %v", paper.ID, err)
	}
}

// Get returns a stored paper that has not expired.
func (a *PaperAssembler) Get(ctx context.Context, id string) (*domain.QuestionPaper, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: paper id is empty", domain.ErrInvalidInput)
	}
	if a.store == nil {
		return nil, fmt.Errorf("%w: paper %s", domain.ErrNotFound, id)
	}
	return a.store.Get(ctx, id, a.now().UTC())
}
