package tui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/oikos/internal/api"
	"github.com/alexanderramin/oikos/internal/budget"
	"github.com/alexanderramin/oikos/internal/domain"
	"github.com/alexanderramin/oikos/internal/prefs"
	"github.com/alexanderramin/oikos/internal/sync"
	"github.com/alexanderramin/oikos/internal/tabling"
)

func newGridCmd(app *App) *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "grid <budget-id>",
		Short: "Open a budget table in the interactive grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("budget id must be numeric: %q", args[0])
			}
			return runGrid(cmd.Context(), app, id, table)
		},
	}
	cmd.Flags().StringVarP(&table, "table", "t", "accounts",
		"table to open: accounts, subaccounts, or fringes")
	return cmd
}

func runGrid(ctx context.Context, app *App, budgetID int64, table string) error {
	if app.IsInteractive != nil && !app.IsInteractive() {
		return fmt.Errorf("the grid needs an interactive terminal")
	}

	manager, codec, err := tableConfig(app, table)
	if err != nil {
		return err
	}

	reducer := &tabling.Reducer{
		Assembler: &tabling.Assembler{
			Manager:    manager,
			GroupRows:  tabling.GroupRowManager{Grid: tabling.GridData},
			MarkupRows: tabling.MarkupRowManager{Grid: tabling.GridData},
			Logger:     app.Logger,
		},
		CalculateGroup: budget.GroupAggregate,
		Logger:         app.Logger,
	}
	if table == "subaccounts" {
		fringes, err := loadFringes(ctx, app, budgetID)
		if err != nil {
			return err
		}
		reducer.RecalculateRow = budget.RecalculateSubAccountRow(fringes)
	}

	session, dispatch, onErrs := NewTableSession(reducer)
	session.Coordinator = sync.NewCoordinator(sync.Config{
		Client:         app.Client,
		Manager:        manager,
		Codec:          codec,
		BudgetID:       budgetID,
		IncludeMarkups: table == "accounts" || table == "subaccounts",
		Dispatch:       dispatch,
		OnCellErrors:   onErrs,
		Observer:       app.SyncObserver,
		Logger:         app.Logger,
	})

	title, err := budgetTitle(ctx, app, budgetID)
	if err != nil {
		return err
	}
	if app.Store != nil {
		err := app.Store.TouchRecentBudget(ctx, prefs.RecentBudget{
			ID: budgetID, Name: title, OpenedAt: time.Now(),
		})
		if err != nil {
			return fmt.Errorf("recording recent budget: %w", err)
		}
	}

	key := prefs.TableKey{BudgetID: budgetID, Grid: table}
	view := NewGridView(session, app.Store, key, fmt.Sprintf("%s · %s", title, table))

	p := tea.NewProgram(view, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running grid: %w", err)
	}
	session.Coordinator.Wait()
	return nil
}

// tableConfig resolves a table name to its column manager and wire codec.
func tableConfig(app *App, table string) (*tabling.RowManager, sync.Codec, error) {
	switch table {
	case "accounts":
		return budget.AccountManager(app.Logger), budget.AccountCodec{}, nil
	case "subaccounts":
		return budget.SubAccountManager(app.Logger), budget.SubAccountCodec{}, nil
	case "fringes":
		return budget.FringeManager(app.Logger), budget.FringeCodec{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown table %q: want accounts, subaccounts, or fringes", table)
	}
}

// loadFringes fetches the budget's fringe set so sub-account rows can apply
// fringe rates when recalculating.
func loadFringes(ctx context.Context, app *App, budgetID int64) ([]*domain.Fringe, error) {
	list, err := app.Client.List(ctx, budgetID, api.ResourceFringes)
	if err != nil {
		return nil, fmt.Errorf("loading fringes: %w", err)
	}
	fringes := make([]*domain.Fringe, 0, len(list.Data))
	for _, raw := range list.Data {
		f, err := api.DecodeFringe(raw)
		if err != nil {
			return nil, err
		}
		fringes = append(fringes, f)
	}
	return fringes, nil
}

func budgetTitle(ctx context.Context, app *App, budgetID int64) (string, error) {
	raw, err := app.Client.Detail(ctx, 0, api.ResourceBudgets, budgetID)
	if err != nil {
		return "", fmt.Errorf("loading budget %d: %w", budgetID, err)
	}
	b, err := api.DecodeBudget(raw)
	if err != nil {
		return "", err
	}
	return b.Name, nil
}
