package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index health",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusFormat, "format", "f", formatText, "output format: text, json or yaml")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if statusService == nil {
		return errors.New("status service not configured")
	}
	if err := validateFormat(statusFormat); err != nil {
		return err
	}

	status := statusService.Status(cmd.Context())
	if statusFormat != formatText {
		return writeStructured(cmd, statusFormat, status)
	}

	w := cmd.OutOrStdout()
	st := newStyles(w)
	fmt.Fprintf(w, "Status:    %s\n", st.Success.Render(status.Status))
	if !status.Loaded {
		fmt.Fprintf(w, "Index:     %s\n", st.Warning.Render("not loaded"))
		fmt.Fprintln(w, "Run 'edurag index' to build it.")
		return nil
	}
	fmt.Fprintln(w, "Index:     loaded")
	fmt.Fprintf(w, "Notes:     %d\n", status.Documents)
	fmt.Fprintf(w, "Chunks:    %d\n", status.Chunks)
	fmt.Fprintf(w, "Model:     %s\n", status.EmbeddingModel)
	fmt.Fprintf(w, "Built:     %s (generation %d)\n", status.BuiltAt.Local().Format(time.DateTime), status.Generation)
	return nil
}
