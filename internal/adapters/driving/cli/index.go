package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/edurag/internal/logger"
)

var indexWatch bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the index from the notes directory",
	Long: `Reads every .txt note in the notes directory, splits the notes into chunks,
embeds them and replaces the live index. The new index is persisted so it is
loaded again on the next start.

With --watch the index is rebuilt whenever a note is created, changed or
removed, until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "rebuild when notes change")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}
	if indexWatch && noteWatcher == nil {
		return errors.New("note watcher not configured")
	}

	out := cmd.OutOrStdout()
	n, err := indexService.Reindex(cmd.Context())
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	fmt.Fprintf(out, "Indexed %d chunks.\n", n)

	if !indexWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(out, "Watching for note changes. Press Ctrl+C to stop.")
	err = noteWatcher.Watch(ctx, func() {
		n, err := indexService.Reindex(ctx)
		if err != nil {
			// The previous index stays live; keep watching.
			logger.Error("reindex failed: %v", err)
			return
		}
		fmt.Fprintf(out, "Reindexed %d chunks.\n", n)
	})
	if err != nil {
		return fmt.Errorf("watching notes: %w", err)
	}
	return nil
}
