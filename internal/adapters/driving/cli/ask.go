package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

var askFormat string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from your notes",
	Long: `Retrieves the passages most relevant to the question and answers from them
with a direct answer, an explanation and a summary. The notes each answer
was drawn from are listed as sources.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askFormat, "format", "f", formatText, "output format: text, json or yaml")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}
	if err := validateFormat(askFormat); err != nil {
		return err
	}

	question := strings.Join(args, " ")
	answer, err := askService.Ask(cmd.Context(), question)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askFormat != formatText {
		return writeStructured(cmd, askFormat, answer)
	}
	renderAnswer(cmd.OutOrStdout(), answer)
	return nil
}

func renderAnswer(w io.Writer, answer *domain.StructuredAnswer) {
	st := newStyles(w)

	fmt.Fprintln(w, st.Title.Render("Direct Answer"))
	fmt.Fprintf(w, "  %s\n\n", answer.DirectAnswer)
	fmt.Fprintln(w, st.Heading.Render("Explanation"))
	fmt.Fprintf(w, "  %s\n\n", answer.Explanation)
	fmt.Fprintln(w, st.Heading.Render("Summary"))
	fmt.Fprintf(w, "  %s\n", answer.Summary)

	if len(answer.Sources) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, st.Muted.Render("Sources"))
	for i, src := range answer.Sources {
		fmt.Fprintf(w, "  %d. %s %s\n", i+1, src.SourceID,
			st.Muted.Render(fmt.Sprintf("(%s, score %.3f)", src.ChunkID, src.Score)))
	}
}
