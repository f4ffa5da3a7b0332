package prefs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexanderramin/oikos/internal/db"
	"github.com/alexanderramin/oikos/internal/tabling"
)

// SQLiteStore implements Store using the local SQLite database.
type SQLiteStore struct {
	db  db.DBTX
	uow db.UnitOfWork
}

// NewSQLiteStore creates a Store backed by the given connection.
func NewSQLiteStore(conn *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: conn, uow: db.NewSQLiteUnitOfWork(conn)}
}

func (s *SQLiteStore) LoadTablePrefs(ctx context.Context, key TableKey) (*TablePrefs, error) {
	query := `SELECT hidden_columns, ordering FROM table_prefs
		WHERE budget_id = ? AND grid = ?`
	row := s.db.QueryRowContext(ctx, query, key.BudgetID, key.Grid)

	var hiddenJSON, orderingJSON string
	if err := row.Scan(&hiddenJSON, &orderingJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("table prefs %d/%s: %w", key.BudgetID, key.Grid, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning table prefs: %w", err)
	}

	var p TablePrefs
	if err := json.Unmarshal([]byte(hiddenJSON), &p.HiddenColumns); err != nil {
		return nil, fmt.Errorf("decoding hidden columns: %w", err)
	}
	var ordering []fieldOrderJSON
	if err := json.Unmarshal([]byte(orderingJSON), &ordering); err != nil {
		return nil, fmt.Errorf("decoding ordering: %w", err)
	}
	for _, o := range ordering {
		p.Ordering = append(p.Ordering, tabling.FieldOrder{Field: o.Field, Ascending: o.Ascending})
	}
	return &p, nil
}

func (s *SQLiteStore) SaveTablePrefs(ctx context.Context, key TableKey, p TablePrefs) error {
	hidden := p.HiddenColumns
	if hidden == nil {
		hidden = []string{}
	}
	hiddenJSON, err := json.Marshal(hidden)
	if err != nil {
		return fmt.Errorf("encoding hidden columns: %w", err)
	}
	ordering := make([]fieldOrderJSON, len(p.Ordering))
	for i, o := range p.Ordering {
		ordering[i] = fieldOrderJSON{Field: o.Field, Ascending: o.Ascending}
	}
	orderingJSON, err := json.Marshal(ordering)
	if err != nil {
		return fmt.Errorf("encoding ordering: %w", err)
	}

	query := `INSERT OR REPLACE INTO table_prefs (budget_id, grid, hidden_columns, ordering, updated_at)
		VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query,
		key.BudgetID, key.Grid, string(hiddenJSON), string(orderingJSON),
		time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("upserting table prefs: %w", err)
	}
	return nil
}

func (s *SQLiteStore) TouchRecentBudget(ctx context.Context, b RecentBudget) error {
	opened := b.OpenedAt
	if opened.IsZero() {
		opened = time.Now()
	}
	query := `INSERT OR REPLACE INTO recent_budgets (budget_id, name, opened_at)
		VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query,
		b.ID, b.Name, opened.UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("touching recent budget: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecentBudgets(ctx context.Context, limit int) ([]RecentBudget, error) {
	query := `SELECT budget_id, name, opened_at FROM recent_budgets
		ORDER BY opened_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent budgets: %w", err)
	}
	defer rows.Close()

	var out []RecentBudget
	for rows.Next() {
		var b RecentBudget
		var opened string
		if err := rows.Scan(&b.ID, &b.Name, &opened); err != nil {
			return nil, fmt.Errorf("scanning recent budget: %w", err)
		}
		b.OpenedAt, err = time.Parse(time.RFC3339, opened)
		if err != nil {
			return nil, fmt.Errorf("parsing opened_at: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recent budgets: %w", err)
	}
	return out, nil
}

// ForgetBudget drops a budget's saved preferences and its recents entry in
// one transaction, so a half-forgotten budget cannot linger.
func (s *SQLiteStore) ForgetBudget(ctx context.Context, budgetID int64) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM table_prefs WHERE budget_id = ?`, budgetID); err != nil {
			return fmt.Errorf("deleting table prefs: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM recent_budgets WHERE budget_id = ?`, budgetID); err != nil {
			return fmt.Errorf("deleting recent budget: %w", err)
		}
		return nil
	})
}

// fieldOrderJSON keeps the stored shape stable even if the in-memory
// ordering type grows fields.
type fieldOrderJSON struct {
	Field     string `json:"field"`
	Ascending bool   `json:"ascending"`
}
