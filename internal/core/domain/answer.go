package domain

import "strings"

// StructuredAnswer is the three-part response to a question.
// All three text fields are always non-empty, including for degraded answers.
type StructuredAnswer struct {
	DirectAnswer string     `json:"direct_answer" yaml:"direct_answer"`
	Explanation  string     `json:"explanation" yaml:"explanation"`
	Summary      string     `json:"summary" yaml:"summary"`
	Sources      []Citation `json:"sources,omitempty" yaml:"sources,omitempty"`

	// Degraded marks an answer assembled from fallbacks because the
	// completion could not be fully parsed. It is not serialised so that
	// degraded and full answers share one shape.
	Degraded bool `json:"-" yaml:"-"`
}

// IsComplete reports whether all three sections carry text.
func (a StructuredAnswer) IsComplete() bool {
	return strings.TrimSpace(a.DirectAnswer) != "" &&
		strings.TrimSpace(a.Explanation) != "" &&
		strings.TrimSpace(a.Summary) != ""
}

// NoInformationAnswer is returned when retrieval finds nothing to ground an
// answer on. No completion call is made in that case.
func NoInformationAnswer() StructuredAnswer {
	return StructuredAnswer{
		DirectAnswer: "No relevant information found in the knowledge base.",
		Explanation:  "The system could not find any relevant notes to answer your question. Please ensure notes are properly indexed.",
		Summary:      "No relevant context available for this question.",
	}
}
