package cli

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driven"
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
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

// mockPaperService is a mock implementation of driving.PaperService.
type mockPaperService struct {
	paper   *domain.QuestionPaper
	err     error
	lastReq domain.PaperRequest
	lastID  string
}

func (m *mockPaperService) Generate(_ context.Context, req domain.PaperRequest) (*domain.QuestionPaper, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.paper, nil
}

func (m *mockPaperService) Get(_ context.Context, id string) (*domain.QuestionPaper, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return m.paper, nil
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	chunks []int // returned by successive Reindex calls; the last repeats
	err    error
	calls  int
}

func (m *mockIndexService) IndexCorpus(_ context.Context, _ []domain.Document) (int, error) {
	return 0, m.err
}

func (m *mockIndexService) Reindex(_ context.Context) (int, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	i := min(m.calls, len(m.chunks)) - 1
	if i < 0 {
		return 0, nil
	}
	return m.chunks[i], nil
}

func (m *mockIndexService) LoadPersisted(_ context.Context) error {
	return m.err
}

// mockStatusService is a mock implementation of driving.StatusService.
type mockStatusService struct {
	status domain.IndexStatus
}

func (m *mockStatusService) Status(_ context.Context) domain.IndexStatus {
	return m.status
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    *domain.AppSettings
	setErr      error
	validateErr error
	set         map[string]string

	embedProvider domain.AIProvider
	llmProvider   domain.AIProvider
	model         string
	apiKey        string
}

func newMockSettingsService() *mockSettingsService {
	defaults := domain.DefaultAppSettings()
	return &mockSettingsService{settings: &defaults, set: make(map[string]string)}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	return m.settings, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.embedProvider, m.model, m.apiKey = provider, model, apiKey
	return m.setErr
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.llmProvider, m.model, m.apiKey = provider, model, apiKey
	return m.setErr
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	return m.validateErr
}

func (m *mockSettingsService) ValidateLLMConfig() error {
	return m.validateErr
}

// mockWatcher is a mock implementation of driven.NoteWatcher. It reports
// the given number of changes and then returns.
type mockWatcher struct {
	changes int
	err     error
}

func (m *mockWatcher) Watch(_ context.Context, onChange func()) error {
	for range m.changes {
		onChange()
	}
	return m.err
}

// Verify mocks implement interfaces.
var (
	_ driving.AskService      = (*mockAskService)(nil)
	_ driving.PaperService    = (*mockPaperService)(nil)
	_ driving.IndexService    = (*mockIndexService)(nil)
	_ driving.StatusService   = (*mockStatusService)(nil)
	_ driving.SettingsService = (*mockSettingsService)(nil)
	_ driven.NoteWatcher      = (*mockWatcher)(nil)
)

// testServices holds the mocks injected by setupTestServices.
type testServices struct {
	ask      *mockAskService
	paper    *mockPaperService
	index    *mockIndexService
	status   *mockStatusService
	settings *mockSettingsService
	watcher  *mockWatcher
}

// setupTestServices injects fresh mocks and returns them with a cleanup
// that restores the previous services.
func setupTestServices() (*testServices, func()) {
	prev := Services{
		Ask:      askService,
		Paper:    paperService,
		Index:    indexService,
		Status:   statusService,
		Settings: settingsService,
		Watcher:  noteWatcher,
	}

	ts := &testServices{
		ask: &mockAskService{answer: &domain.StructuredAnswer{
			DirectAnswer: "Plants turn light into chemical energy.",
			Explanation:  "Chlorophyll absorbs light to make glucose.",
			Summary:      "Light becomes sugar.",
			Sources: []domain.Citation{
				{SourceID: "biology.txt", ChunkID: "biology.txt#0000", Score: 0.912},
			},
		}},
		paper:    &mockPaperService{paper: testPaper()},
		index:    &mockIndexService{chunks: []int{12}},
		status:   &mockStatusService{status: domain.IndexStatus{Status: domain.StatusHealthy}},
		settings: newMockSettingsService(),
		watcher:  &mockWatcher{},
	}
	SetServices(Services{
		Ask:      ts.ask,
		Paper:    ts.paper,
		Index:    ts.index,
		Status:   ts.status,
		Settings: ts.settings,
		Watcher:  ts.watcher,
	})

	return ts, func() { SetServices(prev) }
}

func testPaper() *domain.QuestionPaper {
	return &domain.QuestionPaper{
		ID:              "paper-1",
		Subject:         "Biology",
		DurationMinutes: 60,
		Difficulty:      domain.DifficultyMedium,
		TotalMarks:      4,
		Complete:        true,
		Questions: []domain.Question{
			{
				ID: "q-1", Number: 1, Type: domain.CategoryMCQ, Marks: 1,
				Text: "Where does photosynthesis happen?",
				Options: []domain.Option{
					{Label: "A", Text: "Chloroplast"},
					{Label: "B", Text: "Nucleus"},
					{Label: "C", Text: "Ribosome"},
					{Label: "D", Text: "Vacuole"},
				},
				Answer: "A",
			},
			{ID: "q-2", Number: 2, Type: domain.CategoryShortAnswer, Marks: 3, Text: "Define osmosis."},
		},
		Status: []domain.CategoryStatus{
			{Category: domain.CategoryMCQ, Requested: 1, Generated: 1, State: domain.CategoryComplete},
			{Category: domain.CategoryShortAnswer, Requested: 1, Generated: 1, State: domain.CategoryComplete},
		},
		GeneratedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		ExpiresAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

// resetFlags restores every flag of cmd to its default, since package
// level commands keep parsed values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

// execute runs the root command with args and returns everything written
// to stdout and stderr.
func execute(args ...string) (string, error) {
	return executeWithInput("", args...)
}

func executeWithInput(input string, args ...string) (string, error) {
	for _, c := range []*cobra.Command{
		rootCmd, askCmd, indexCmd, statusCmd, paperGenerateCmd, paperShowCmd,
	} {
		resetFlags(c)
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
