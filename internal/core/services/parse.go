package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

// Section labels tolerate numbering, markdown bold and headings in any case,
// e.g. "1. Direct Answer:", "**Summary:**" or "## explanation:".
var answerLabel = regexp.MustCompile(
	`(?i)^\s*(?:#+\s*)?(?:\*\*)?\s*(?:\d+\s*[.)]\s*)?(?:\*\*)?\s*(direct answer|explanation|summary)\s*(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.*)$`)

var (
	questionHeader = regexp.MustCompile(`(?i)^\s*(?:\*\*)?\s*(?:q(?:uestion)?\s*)?(\d{1,3})\s*[.):]\s*(?:\*\*)?\s*(.*)$`)
	optionLine     = regexp.MustCompile(`^\s*\(?([A-Da-d])\s*[).:]\s*(.+)$`)
	answerLine     = regexp.MustCompile(`(?i)^\s*(?:\*\*)?\s*(?:correct\s+)?answer\s*(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.*)$`)
	choiceAnswer   = regexp.MustCompile(`^\(?([A-Da-d])\b`)
)

// answerSections is the raw text found under each label. A section is
// empty when its label never appeared or carried no text.
type answerSections struct {
	direct      string
	explanation string
	summary     string
}

func (s answerSections) missing() int {
	n := 0
	for _, v := range []string{s.direct, s.explanation, s.summary} {
		if v == "" {
			n++
		}
	}
	return n
}

// parseAnswer splits a completion into its three labelled sections.
// Lines after a label belong to that section until the next label.
func parseAnswer(completion string) answerSections {
	var parts [3][]string
	current := -1

	for _, line := range strings.Split(completion, "\n") {
		if m := answerLabel.FindStringSubmatch(line); m != nil {
			current = sectionIndex(m[1])
			if rest := cleanText(m[2]); rest != "" {
				parts[current] = append(parts[current], rest)
			}
			continue
		}
		if current < 0 {
			continue
		}
		if l := cleanText(line); l != "" {
			parts[current] = append(parts[current], l)
		}
	}

	return answerSections{
		direct:      strings.Join(parts[0], " "),
		explanation: strings.Join(parts[1], " "),
		summary:     strings.Join(parts[2], " "),
	}
}

func sectionIndex(label string) int {
	switch strings.ToLower(label) {
	case "direct answer":
		return 0
	case "explanation":
		return 1
	default:
		return 2
	}
}

func cleanText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "**"), "**")
	return strings.TrimSpace(s)
}

type questionDraft struct {
	lines   []string
	options []domain.Option
	answer  string
}

// parseQuestions extracts every well-formed question of category cat from
// a completion. Blocks that fail domain.Question.Validate are dropped.
func parseQuestions(completion string, cat domain.Category) []domain.Question {
	var (
		drafts []*questionDraft
		cur    *questionDraft
	)

	for _, line := range strings.Split(completion, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := questionHeader.FindStringSubmatch(line); m != nil {
			cur = &questionDraft{}
			drafts = append(drafts, cur)
			if text := cleanText(m[2]); text != "" {
				cur.lines = append(cur.lines, text)
			}
			continue
		}
		if cur == nil {
			continue
		}
		if m := answerLine.FindStringSubmatch(line); m != nil {
			cur.answer = normaliseAnswer(cat, cleanText(m[1]))
			continue
		}
		if m := optionLine.FindStringSubmatch(line); m != nil {
			// Options on a free-text question are noise, not question text.
			if cat.IsChoice() {
				cur.options = append(cur.options, domain.Option{
					Label: strings.ToUpper(m[1]),
					Text:  cleanText(m[2]),
				})
			}
			continue
		}
		// Continuation of the question text, before any option.
		if len(cur.options) == 0 && cur.answer == "" {
			cur.lines = append(cur.lines, cleanText(line))
		}
	}

	questions := make([]domain.Question, 0, len(drafts))
	for _, d := range drafts {
		q := domain.Question{
			Type:    cat,
			Text:    strings.Join(d.lines, " "),
			Marks:   cat.Marks(),
			Options: d.options,
			Answer:  d.answer,
		}
		if q.Validate() != nil {
			continue
		}
		questions = append(questions, q)
	}
	return questions
}

// normaliseAnswer keeps an option label for choice questions and
// True/False for statements. Free-text categories carry no answer.
func normaliseAnswer(cat domain.Category, raw string) string {
	switch {
	case cat.IsChoice():
		if m := choiceAnswer.FindStringSubmatch(raw); m != nil {
			return strings.ToUpper(m[1])
		}
	case cat == domain.CategoryTrueFalse:
		lower := strings.ToLower(raw)
		if strings.HasPrefix(lower, "true") {
			return "True"
		}
		if strings.HasPrefix(lower, "false") {
			return "False"
		}
	}
	return ""
}

// appendUnique adds candidates to have, skipping questions whose text
// repeats one already present, until have holds limit questions.
func appendUnique(have, candidates []domain.Question, limit int) []domain.Question {
	seen := make(map[string]struct{}, len(have)+len(candidates))
	for i := range have {
		seen[questionKey(have[i].Text)] = struct{}{}
	}
	for i := range candidates {
		if len(have) >= limit {
			break
		}
		key := questionKey(candidates[i].Text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		have = append(have, candidates[i])
	}
	return have
}

func questionKey(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
