package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

var (
	paperSubject    string
	paperTopic      string
	paperDuration   int
	paperDifficulty string
	paperMCQ        int
	paperTrueFalse  int
	paperShort      int
	paperLong       int
	paperFormat     string
	paperAnswers    bool
)

var paperCmd = &cobra.Command{
	Use:   "paper",
	Short: "Generate and export question papers",
	Long: `Generate exam question papers from the indexed notes and export papers that
were generated recently. Papers are kept for a limited time after generation.`,
}

var paperGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a question paper",
	Long: `Generate a question paper for a subject. Each question type is generated
separately; if one type fails the paper is still produced and marked
incomplete, with the total marks counting only the questions produced.

Marks per question: multiple choice 1, true or false 1, short answer 3,
long answer 5.

Examples:
  edurag paper generate --subject Biology
  edurag paper generate --subject History --topic "world war" --mcq 5 --long 0
  edurag paper generate --subject Physics --format yaml > paper.yaml`,
	Args: cobra.NoArgs,
	RunE: runPaperGenerate,
}

var paperShowCmd = &cobra.Command{
	Use:   "show [paper-id]",
	Short: "Show a previously generated paper",
	Args:  cobra.ExactArgs(1),
	RunE:  runPaperShow,
}

func init() {
	defaults := domain.DefaultCategoryCounts()

	flags := paperGenerateCmd.Flags()
	flags.StringVarP(&paperSubject, "subject", "s", "", "subject of the paper (required)")
	flags.StringVarP(&paperTopic, "topic", "t", "", "topic to focus on within the subject")
	flags.IntVarP(&paperDuration, "duration", "d", domain.DefaultPaperDurationMinutes, "duration in minutes")
	flags.StringVar(&paperDifficulty, "difficulty", domain.DefaultDifficulty.String(), "easy, medium or hard")
	flags.IntVar(&paperMCQ, "mcq", defaults[domain.CategoryMCQ], "number of multiple choice questions")
	flags.IntVar(&paperTrueFalse, "true-false", defaults[domain.CategoryTrueFalse], "number of true or false questions")
	flags.IntVar(&paperShort, "short", defaults[domain.CategoryShortAnswer], "number of short answer questions")
	flags.IntVar(&paperLong, "long", defaults[domain.CategoryLongAnswer], "number of long answer questions")
	_ = paperGenerateCmd.MarkFlagRequired("subject")

	for _, c := range []*cobra.Command{paperGenerateCmd, paperShowCmd} {
		c.Flags().StringVarP(&paperFormat, "format", "f", formatText, "output format: text, json or yaml")
		c.Flags().BoolVar(&paperAnswers, "answers", false, "include the answer key in text output")
		paperCmd.AddCommand(c)
	}
	rootCmd.AddCommand(paperCmd)
}

func runPaperGenerate(cmd *cobra.Command, _ []string) error {
	if paperService == nil {
		return errors.New("paper service not configured")
	}
	if err := validateFormat(paperFormat); err != nil {
		return err
	}
	difficulty, err := domain.ParseDifficulty(paperDifficulty)
	if err != nil {
		return err
	}

	req := domain.PaperRequest{
		Subject:         paperSubject,
		Topic:           paperTopic,
		DurationMinutes: paperDuration,
		Difficulty:      difficulty,
		Counts: map[domain.Category]int{
			domain.CategoryMCQ:         paperMCQ,
			domain.CategoryTrueFalse:   paperTrueFalse,
			domain.CategoryShortAnswer: paperShort,
			domain.CategoryLongAnswer:  paperLong,
		},
	}

	paper, err := paperService.Generate(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("paper generation failed: %w", err)
	}
	return outputPaper(cmd, paper)
}

func runPaperShow(cmd *cobra.Command, args []string) error {
	if paperService == nil {
		return errors.New("paper service not configured")
	}
	if err := validateFormat(paperFormat); err != nil {
		return err
	}

	paper, err := paperService.Get(cmd.Context(), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("paper %s not found or expired", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to get paper: %w", err)
	}
	return outputPaper(cmd, paper)
}

func outputPaper(cmd *cobra.Command, paper *domain.QuestionPaper) error {
	if paperFormat != formatText {
		return writeStructured(cmd, paperFormat, paper)
	}
	renderPaper(cmd.OutOrStdout(), paper, paperAnswers)
	return nil
}

func renderPaper(w io.Writer, paper *domain.QuestionPaper, answers bool) {
	st := newStyles(w)

	fmt.Fprintln(w, st.Title.Render(paper.Subject+" Examination"))
	fmt.Fprintf(w, "Duration: %d minutes   Difficulty: %s   Total marks: %d\n",
		paper.DurationMinutes, paper.Difficulty, paper.TotalMarks)
	fmt.Fprintln(w, st.Muted.Render(fmt.Sprintf("Paper %s, available until %s",
		paper.ID, paper.ExpiresAt.Local().Format(time.Kitchen))))

	for i, section := range paper.Sections() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.Heading.Render(fmt.Sprintf("Section %c: %s (%d marks)", 'A'+i, section.Label, section.Marks)))
		for _, q := range section.Questions {
			fmt.Fprintf(w, "  Q%d. %s %s\n", q.Number, q.Text, st.Muted.Render(fmt.Sprintf("[%d]", q.Marks)))
			for _, opt := range q.Options {
				fmt.Fprintf(w, "      %s) %s\n", opt.Label, opt.Text)
			}
			if answers && q.Answer != "" {
				fmt.Fprintf(w, "      %s\n", st.Success.Render("Answer: "+q.Answer))
			}
		}
	}

	if paper.Complete {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, st.Warning.Render("This paper is incomplete:"))
	for _, s := range paper.Status {
		if s.State == domain.CategoryComplete {
			continue
		}
		line := fmt.Sprintf("  %s %s %d/%d", st.badge(s.State), s.Category.Label(), s.Generated, s.Requested)
		if s.Error != "" {
			line += " " + st.Muted.Render(s.Error)
		}
		fmt.Fprintln(w, line)
	}
}
