package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

const answerSystemPrompt = `You are an educational assistant. Answer questions using the provided context from study notes.

Always format your response EXACTLY as follows:

1. Direct Answer: [clear, concise answer to the question in 1-2 sentences]

2. Explanation: [step-by-step reasoning with specific references to the notes]

3. Summary: [one key takeaway sentence]

Use only the information in the context. If the context doesn't contain enough information, say so clearly.`

const questionSystemPrompt = `You are an experienced examiner who writes exam questions from study notes.
Write only questions that can be answered from the provided context.
Follow the requested output format exactly and do not add any other text.`

// buildContext renders passages in rank order, each prefixed by its note.
func buildContext(passages []domain.RetrievalResult) string {
	parts := make([]string, 0, len(passages))
	for i := range passages {
		parts = append(parts, fmt.Sprintf("From %s: %s", passages[i].Chunk.SourceID, passages[i].Chunk.Text))
	}
	return strings.Join(parts, "\n\n")
}

func answerUserPrompt(question string, passages []domain.RetrievalResult) string {
	return fmt.Sprintf("Context from notes:\n%s\n\nQuestion: %s\n\nPlease answer following the exact format specified above.",
		buildContext(passages), question)
}

var difficultyGuidance = map[domain.Difficulty]string{
	domain.DifficultyEasy:   "Easy: test recall of facts and definitions stated directly in the notes.",
	domain.DifficultyMedium: "Medium: test understanding and application of the ideas in the notes.",
	domain.DifficultyHard:   "Hard: test analysis, comparison and synthesis across several ideas in the notes.",
}

// questionFormats holds one output template per category.
var questionFormats = map[domain.Category]string{
	domain.CategoryMCQ: `Write exactly %d multiple choice questions. Each question has exactly four options labelled A to D and one correct option.
Format each question exactly like this:

Q1. <question text>
A) <option>
B) <option>
C) <option>
D) <option>
Answer: <A, B, C or D>`,

	domain.CategoryTrueFalse: `Write exactly %d true or false statements. Each statement must be clearly true or clearly false according to the notes.
Format each statement exactly like this:

Q1. <statement>
Answer: <True or False>`,

	domain.CategoryShortAnswer: `Write exactly %d short answer questions. Each question should be answerable in two or three sentences.
Format each question exactly like this, with no options and no answer:

Q1. <question text>`,

	domain.CategoryLongAnswer: `Write exactly %d long answer questions. Each question should require an extended answer of several paragraphs.
Format each question exactly like this, with no options and no answer:

Q1. <question text>`,
}

func questionUserPrompt(req domain.QuestionRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", req.Subject)
	fmt.Fprintf(&b, "Difficulty: %s\n\n", difficultyGuidance[req.Difficulty])
	if len(req.Passages) > 0 {
		fmt.Fprintf(&b, "Context from notes:\n%s\n\n", buildContext(req.Passages))
	}
	fmt.Fprintf(&b, questionFormats[req.Category], req.Count)
	b.WriteString("\n\nNumber the questions Q1, Q2 and so on.")
	return b.String()
}

// correctivePrompt asks for the remainder after a short reply.
func correctivePrompt(got, missing int, have []domain.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your previous response contained %d usable questions. ", got)
	fmt.Fprintf(&b, "Write exactly %d more, following the format above exactly.", missing)
	if len(have) > 0 {
		b.WriteString(" Do not repeat any of these:\n")
		for i := range have {
			fmt.Fprintf(&b, "- %s\n", have[i].Text)
		}
	}
	return b.String()
}

// questionTokens budgets a completion long enough for n questions.
func questionTokens(cat domain.Category, n, floor int) int {
	per := map[domain.Category]int{
		domain.CategoryMCQ:         120,
		domain.CategoryTrueFalse:   50,
		domain.CategoryShortAnswer: 60,
		domain.CategoryLongAnswer:  80,
	}[cat]
	return max(floor, n*per+50)
}
