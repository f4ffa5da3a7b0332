package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// migrations are idempotent and re-run in full on every open.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS table_prefs (
		budget_id      INTEGER NOT NULL,
		grid           TEXT NOT NULL,
		hidden_columns TEXT NOT NULL DEFAULT '[]',
		ordering       TEXT NOT NULL DEFAULT '[]',
		updated_at     TEXT NOT NULL,
		PRIMARY KEY (budget_id, grid)
	)`,

	`CREATE TABLE IF NOT EXISTS recent_budgets (
		budget_id INTEGER PRIMARY KEY,
		name      TEXT NOT NULL,
		opened_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_recent_budgets_opened
		ON recent_budgets(opened_at DESC)`,
}

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
