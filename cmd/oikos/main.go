package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/oikos/internal/api"
	"github.com/alexanderramin/oikos/internal/db"
	"github.com/alexanderramin/oikos/internal/prefs"
	"github.com/alexanderramin/oikos/internal/sync"
	"github.com/alexanderramin/oikos/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Preferences DB path: env var or default ~/.oikos/oikos.db
	dbPath := os.Getenv("OIKOS_DB")
	if dbPath == "" {
		dbPath = db.DefaultPath()
	}

	database, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening preferences database: %w", err)
	}
	defer database.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	apiCfg := api.LoadConfig()
	var apiObserver api.Observer = api.NoopObserver{}
	var syncObserver sync.Observer = sync.NoopObserver{}
	if os.Getenv("OIKOS_LOG_CALLS") == "true" {
		apiObserver = api.NewLogObserver(os.Stderr)
		syncObserver = sync.NewLogObserver(os.Stderr)
	}

	app := &tui.App{
		Client:       api.NewClient(apiCfg, apiObserver),
		Store:        prefs.NewSQLiteStore(database),
		Logger:       logger,
		SyncObserver: syncObserver,
	}
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	rootCmd := tui.NewRootCmd(app)
	return rootCmd.Execute()
}

func logLevel() slog.Level {
	if os.Getenv("OIKOS_DEBUG") == "true" {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}
