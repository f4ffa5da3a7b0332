package tui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/oikos/internal/api"
	"github.com/alexanderramin/oikos/internal/tabling"
	"github.com/alexanderramin/oikos/internal/tabling/grid"
)

func newPullCmd(app *App) *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "pull <budget-id>",
		Short: "Fetch a budget table and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("budget id must be numeric: %q", args[0])
			}
			return runPull(cmd, app, id, table)
		},
	}
	cmd.Flags().StringVarP(&table, "table", "t", "accounts",
		"table to fetch: accounts, subaccounts, or fringes")
	return cmd
}

func runPull(cmd *cobra.Command, app *App, budgetID int64, table string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	manager, codec, err := tableConfig(app, table)
	if err != nil {
		return err
	}

	res, err := app.Client.Table(ctx, budgetID, codec.Resource())
	if err != nil {
		return fmt.Errorf("fetching %s: %w", table, err)
	}
	models := make([]tabling.Model, 0, len(res.Models.Data))
	for _, raw := range res.Models.Data {
		m, err := codec.DecodeModel(raw)
		if err != nil {
			return err
		}
		models = append(models, m)
	}
	groups, err := api.DecodeGroups(res.Groups.Data)
	if err != nil {
		return err
	}

	asm := &tabling.Assembler{
		Manager:   manager,
		GroupRows: tabling.GroupRowManager{Grid: tabling.GridData},
		Logger:    app.Logger,
	}
	printTable(out, manager.Columns, asm.CreateTableRows(models, groups))
	return nil
}

func printTable(out io.Writer, cols []tabling.Column, rows []tabling.Row) {
	var headers []string
	for _, col := range cols {
		if col.CanRead() {
			headers = append(headers, pad(col.Field))
		}
	}
	fmt.Fprintln(out, styleHeader.Render(strings.Join(headers, " ")))

	for _, row := range rows {
		if g, ok := row.(tabling.GroupRow); ok {
			fmt.Fprintln(out, styleGroup.Render("▸ "+g.Name))
			continue
		}
		var cells []string
		for _, col := range cols {
			if !col.CanRead() {
				continue
			}
			cells = append(cells, pad(grid.CopyValue(col, row)))
		}
		fmt.Fprintln(out, strings.Join(cells, " "))
	}
}
