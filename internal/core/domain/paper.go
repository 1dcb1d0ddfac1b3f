package domain

import (
	"fmt"
	"strings"
	"time"
)

// Category is a question type. The set is closed: every category has a
// compiled-in marks value, default count and display position.
type Category string

// Question categories in display order.
const (
	CategoryMCQ         Category = "mcq"
	CategoryTrueFalse   Category = "true_false"
	CategoryShortAnswer Category = "short_answer"
	CategoryLongAnswer  Category = "long_answer"
)

type categoryRule struct {
	label        string
	marks        int
	defaultCount int
	choice       bool
}

// categoryRules is the fixed marks table. It is not user configurable.
var categoryRules = map[Category]categoryRule{
	CategoryMCQ:         {label: "Multiple Choice Questions", marks: 1, defaultCount: 10, choice: true},
	CategoryTrueFalse:   {label: "True or False", marks: 1, defaultCount: 5},
	CategoryShortAnswer: {label: "Short Answer Questions", marks: 3, defaultCount: 5},
	CategoryLongAnswer:  {label: "Long Answer Questions", marks: 5, defaultCount: 3},
}

var categoryOrder = []Category{
	CategoryMCQ,
	CategoryTrueFalse,
	CategoryShortAnswer,
	CategoryLongAnswer,
}

// AllCategories returns every category in display order.
func AllCategories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// ParseCategory converts user input into a Category.
// Hyphens and case are normalised, so "Short-Answer" parses.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: unknown question category %q", ErrInvalidInput, s)
	}
	return c, nil
}

// IsValid returns true if the category is recognised.
func (c Category) IsValid() bool {
	_, ok := categoryRules[c]
	return ok
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// Label returns the section heading used on a paper.
func (c Category) Label() string {
	if r, ok := categoryRules[c]; ok {
		return r.label
	}
	return unknownDescription
}

// Marks returns the fixed marks awarded per question of this category.
func (c Category) Marks() int {
	return categoryRules[c].marks
}

// DefaultCount returns the number of questions requested when the caller
// does not specify counts.
func (c Category) DefaultCount() int {
	return categoryRules[c].defaultCount
}

// IsChoice reports whether questions of this category carry options A-D.
func (c Category) IsChoice() bool {
	return categoryRules[c].choice
}

// DisplayOrder returns the position of the category on a paper, or -1.
func (c Category) DisplayOrder() int {
	for i, cat := range categoryOrder {
		if cat == c {
			return i
		}
	}
	return -1
}

// DefaultCategoryCounts returns the compiled-in default question counts.
func DefaultCategoryCounts() map[Category]int {
	counts := make(map[Category]int, len(categoryOrder))
	for _, c := range categoryOrder {
		counts[c] = c.DefaultCount()
	}
	return counts
}

// Difficulty is the requested difficulty of a paper.
type Difficulty string

// Available difficulties.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty converts user input into a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, s)
	}
	return d, nil
}

// IsValid returns true if the difficulty is recognised.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (d Difficulty) String() string {
	return string(d)
}

// ChoiceLabels are the option labels of a choice-type question, in order.
var ChoiceLabels = []string{"A", "B", "C", "D"}

// Option is one labelled answer choice.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Text  string `json:"text" yaml:"text"`
}

// Question is a single generated exam question.
type Question struct {
	// ID is unique across all papers.
	ID string `json:"id" yaml:"id"`

	// Number is the display number, sequential across the whole paper.
	Number int `json:"number" yaml:"number"`

	Type  Category `json:"type" yaml:"type"`
	Text  string   `json:"text" yaml:"text"`
	Marks int      `json:"marks" yaml:"marks"`

	// Options is populated only for choice-type questions.
	Options []Option `json:"options,omitempty" yaml:"options,omitempty"`

	// Answer is the correct option label when the model supplied one.
	Answer string `json:"answer,omitempty" yaml:"answer,omitempty"`
}

// Validate checks the shape rules: choice-type questions have exactly the
// four options A-D, all other types have none.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: question text is empty", ErrInvalidInput)
	}
	if !q.Type.IsChoice() {
		if len(q.Options) != 0 {
			return fmt.Errorf("%w: %s question has options", ErrInvalidInput, q.Type)
		}
		return nil
	}
	if len(q.Options) != len(ChoiceLabels) {
		return fmt.Errorf("%w: choice question has %d options, want %d",
			ErrInvalidInput, len(q.Options), len(ChoiceLabels))
	}
	for i, opt := range q.Options {
		if opt.Label != ChoiceLabels[i] || strings.TrimSpace(opt.Text) == "" {
			return fmt.Errorf("%w: option %d is malformed", ErrInvalidInput, i+1)
		}
	}
	return nil
}

// CategoryState summarises how a category fared during generation.
type CategoryState string

// Category states.
const (
	CategoryComplete CategoryState = "complete"
	CategoryShort    CategoryState = "short"
	CategoryMissing  CategoryState = "missing"
)

// CategoryStatus annotates one requested category of a paper.
type CategoryStatus struct {
	Category  Category      `json:"category" yaml:"category"`
	Requested int           `json:"requested" yaml:"requested"`
	Generated int           `json:"generated" yaml:"generated"`
	State     CategoryState `json:"state" yaml:"state"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// QuestionPaper is an assembled exam paper. It is immutable once created.
type QuestionPaper struct {
	ID              string     `json:"id" yaml:"id"`
	Subject         string     `json:"subject" yaml:"subject"`
	DurationMinutes int        `json:"duration_minutes" yaml:"duration_minutes"`
	Difficulty      Difficulty `json:"difficulty" yaml:"difficulty"`

	// TotalMarks is the sum of Marks over Questions.
	TotalMarks int `json:"total_marks" yaml:"total_marks"`

	// Questions are grouped by category in display order.
	Questions []Question `json:"questions" yaml:"questions"`

	// Complete is false when any requested category is short or missing.
	Complete bool             `json:"complete" yaml:"complete"`
	Status   []CategoryStatus `json:"category_status" yaml:"category_status"`

	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// SumMarks returns the sum of the marks of the paper's questions.
func (p *QuestionPaper) SumMarks() int {
	total := 0
	for i := range p.Questions {
		total += p.Questions[i].Marks
	}
	return total
}

// PaperSection is a run of questions sharing one category.
type PaperSection struct {
	Category  Category
	Label     string
	Questions []Question
	Marks     int
}

// Sections groups the questions by category, preserving order.
func (p *QuestionPaper) Sections() []PaperSection {
	var sections []PaperSection
	for i := range p.Questions {
		q := p.Questions[i]
		if n := len(sections); n == 0 || sections[n-1].Category != q.Type {
			sections = append(sections, PaperSection{Category: q.Type, Label: q.Type.Label()})
		}
		s := &sections[len(sections)-1]
		s.Questions = append(s.Questions, q)
		s.Marks += q.Marks
	}
	return sections
}

// Defaults applied by callers that let the user omit paper parameters.
const (
	DefaultPaperDurationMinutes = 60
	DefaultDifficulty           = DifficultyMedium
)

// PaperRequest describes the paper a caller wants generated.
type PaperRequest struct {
	Subject         string
	DurationMinutes int
	Difficulty      Difficulty
	Counts          map[Category]int

	// Topic narrows retrieval within the subject. Optional.
	Topic string
}

// Validate checks the request before any retrieval or generation.
func (r PaperRequest) Validate() error {
	if strings.TrimSpace(r.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	if r.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}
	if !r.Difficulty.IsValid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, r.Difficulty)
	}
	total := 0
	for c, n := range r.Counts {
		if !c.IsValid() {
			return fmt.Errorf("%w: unknown question category %q", ErrInvalidInput, c)
		}
		if n < 0 {
			return fmt.Errorf("%w: negative count for %s", ErrInvalidInput, c)
		}
		total += n
	}
	if total == 0 {
		return fmt.Errorf("%w: at least one question must be requested", ErrInvalidInput)
	}
	return nil
}

// QuestionRequest asks the generator for Count questions of one category.
type QuestionRequest struct {
	Subject    string
	Category   Category
	Difficulty Difficulty
	Count      int
	Passages   []RetrievalResult
}

// QuestionBatch is the generator's answer to a QuestionRequest.
// Questions never exceeds Requested and is never padded.
type QuestionBatch struct {
	Category  Category
	Requested int
	Questions []Question

	// Retried is set when a corrective prompt was issued.
	Retried bool
}

// Shortfall returns how many requested questions are missing.
func (b QuestionBatch) Shortfall() int {
	if n := b.Requested - len(b.Questions); n > 0 {
		return n
	}
	return 0
}
