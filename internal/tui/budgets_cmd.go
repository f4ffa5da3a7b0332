package tui

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/oikos/internal/api"
	"github.com/alexanderramin/oikos/internal/domain"
)

func newBudgetsCmd(app *App) *cobra.Command {
	var forget int64

	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "List budgets on the server, with recently opened ones first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if forget != 0 {
				if err := app.Store.ForgetBudget(cmd.Context(), forget); err != nil {
					return fmt.Errorf("forgetting budget %d: %w", forget, err)
				}
			}
			return runBudgets(cmd, app)
		},
	}
	cmd.Flags().Int64Var(&forget, "forget", 0,
		"drop saved preferences and the recents entry for this budget id")
	return cmd
}

func runBudgets(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if app.Store != nil {
		recents, err := app.Store.RecentBudgets(ctx, 5)
		if err != nil {
			return fmt.Errorf("loading recent budgets: %w", err)
		}
		if len(recents) > 0 {
			fmt.Fprintln(out, styleHeader.Render("Recent"))
			for _, r := range recents {
				fmt.Fprintf(out, "  %s  %s\n",
					styleDim.Render(fmt.Sprintf("%4d", r.ID)),
					styleCell.Render(r.Name))
			}
			fmt.Fprintln(out)
		}
	}

	list, err := app.Client.List(ctx, 0, api.ResourceBudgets)
	if err != nil {
		return fmt.Errorf("listing budgets: %w", err)
	}

	budgets := make([]*domain.Budget, 0, len(list.Data))
	for _, raw := range list.Data {
		b, err := api.DecodeBudget(raw)
		if err != nil {
			return err
		}
		budgets = append(budgets, b)
	}

	fmt.Fprintln(out, styleHeader.Render(fmt.Sprintf("Budgets (%d)", list.Count)))
	for _, b := range budgets {
		name := b.Name
		if b.Domain == domain.DomainTemplate {
			name += " " + styleDim.Render("(template)")
		}
		fmt.Fprintf(out, "  %s  %s  %s\n",
			styleDim.Render(fmt.Sprintf("%4d", b.ID)),
			styleCell.Render(padTo(name, 32)),
			styleFooter.Render(b.Estimated.StringFixed(2)))
	}
	return nil
}

func padTo(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
