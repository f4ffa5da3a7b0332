package tui

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/oikos/internal/api"
	"github.com/alexanderramin/oikos/internal/prefs"
	"github.com/alexanderramin/oikos/internal/sync"
)

// App holds the wired collaborators CLI commands run against.
type App struct {
	Client api.Client
	Store  prefs.Store
	Logger *slog.Logger

	SyncObserver sync.Observer

	// IsInteractive reports whether stdin is a terminal; the grid refuses
	// to start otherwise.
	IsInteractive func() bool
}

// NewRootCmd creates the top-level "oikos" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "oikos",
		Short: "Production budgeting tables",
	}

	root.AddCommand(
		newBudgetsCmd(app),
		newGridCmd(app),
		newPullCmd(app),
	)

	return root
}
