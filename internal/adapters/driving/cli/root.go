// Package cli provides the cobra command tree for edurag.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/edurag/internal/core/ports/driven"
	"github.com/custodia-labs/edurag/internal/core/ports/driving"
	"github.com/custodia-labs/edurag/internal/logger"
)

// version is set at build time or through SetVersion.
var version = "dev"

// Services injected by the composition root.
var (
	askService      driving.AskService
	paperService    driving.PaperService
	indexService    driving.IndexService
	statusService   driving.StatusService
	settingsService driving.SettingsService
	noteWatcher     driven.NoteWatcher
)

// Services groups the ports the commands run against. Any field may be nil;
// commands that need a missing service fail with a "not configured" error.
type Services struct {
	Ask      driving.AskService
	Paper    driving.PaperService
	Index    driving.IndexService
	Status   driving.StatusService
	Settings driving.SettingsService
	Watcher  driven.NoteWatcher
}

// SetServices injects the services used by the commands.
func SetServices(s Services) {
	askService = s.Ask
	paperService = s.Paper
	indexService = s.Index
	statusService = s.Status
	settingsService = s.Settings
	noteWatcher = s.Watcher
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "edurag",
	Short: "Study assistant over your own notes",
	Long: `edurag indexes a directory of plain-text study notes and answers questions
from them with a direct answer, an explanation and a summary. It can also
generate exam question papers from the same notes.

Run 'edurag index' once to build the index, then 'edurag ask'.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print diagnostic logs to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
