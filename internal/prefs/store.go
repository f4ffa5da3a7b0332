// Package prefs persists per-table UI preferences — hidden columns, sort
// ordering — and the recently opened budget list. Preferences are local to
// the machine; they never sync to the budget server.
package prefs

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/oikos/internal/tabling"
)

// ErrNotFound indicates no preferences have been saved for the given key.
var ErrNotFound = errors.New("preferences not found")

// TableKey identifies one table's preferences: the budget it belongs to and
// the grid region it renders.
type TableKey struct {
	BudgetID int64
	Grid     string
}

// TablePrefs is everything the grid remembers about how a table was shown.
type TablePrefs struct {
	HiddenColumns []string
	Ordering      []tabling.FieldOrder
}

// RecentBudget is one entry of the recently opened list.
type RecentBudget struct {
	ID       int64
	Name     string
	OpenedAt time.Time
}

// Store persists table preferences and the recent-budget list.
type Store interface {
	// LoadTablePrefs returns the saved preferences for key, or ErrNotFound.
	LoadTablePrefs(ctx context.Context, key TableKey) (*TablePrefs, error)

	// SaveTablePrefs upserts the preferences for key.
	SaveTablePrefs(ctx context.Context, key TableKey, p TablePrefs) error

	// TouchRecentBudget records that a budget was just opened.
	TouchRecentBudget(ctx context.Context, b RecentBudget) error

	// RecentBudgets lists recently opened budgets, most recent first.
	RecentBudgets(ctx context.Context, limit int) ([]RecentBudget, error)

	// ForgetBudget removes a budget's preferences and its recents entry.
	ForgetBudget(ctx context.Context, budgetID int64) error
}
