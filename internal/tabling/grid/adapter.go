package grid

import (
	"fmt"

	"github.com/alexanderramin/oikos/internal/domain"
	"github.com/alexanderramin/oikos/internal/tabling"
)

// Adapter is the minimal surface the engine needs from a concrete grid
// widget. Keeping it this narrow keeps the reducer and assembler free of
// any widget dependency.
type Adapter interface {
	// Rows returns the rows the widget currently renders, in render order.
	Rows() []tabling.Row
	// SetColumnVisibility shows or hides one column by field.
	SetColumnVisibility(field string, visible bool)
	// RefreshRows tells the widget to re-render the given rows.
	RefreshRows(ids []tabling.RowID)
}

// MenuItem is one row-level operation, carrying the event dispatching it.
type MenuItem struct {
	Label string
	Event tabling.Event
}

// RowMenu builds the context menu for a row from its type and group state.
// Menu construction is pure; the caller dispatches the chosen item's event.
func RowMenu(st tabling.TableState, mgr *tabling.RowManager, row tabling.Row) []MenuItem {
	switch r := row.(type) {
	case tabling.ModelRow:
		items := []MenuItem{
			{
				Label: "Insert row below",
				Event: tabling.RowAddEvent{Rows: []tabling.PlaceholderRow{mgr.CreatePlaceholder(nil, nil)}},
			},
		}
		if r.Group != nil {
			items = append(items, MenuItem{
				Label: "Remove from group",
				Event: tabling.RowRemoveFromGroupEvent{Rows: []tabling.RowID{r.ID}, Group: *r.Group},
			})
		} else {
			for _, g := range st.Groups {
				items = append(items, MenuItem{
					Label: fmt.Sprintf("Add to group %s", g.Name),
					Event: tabling.RowAddToGroupEvent{Rows: []tabling.RowID{r.ID}, Group: g.ID},
				})
			}
		}
		items = append(items,
			MenuItem{
				Label: "Insert markup (flat)",
				Event: tabling.MarkupCreateEvent{Unit: domain.MarkupFlat},
			},
			MenuItem{
				Label: "Insert markup (percent)",
				Event: tabling.MarkupCreateEvent{Unit: domain.MarkupPercent},
			},
			MenuItem{
				Label: "Delete row",
				Event: tabling.RowDeleteEvent{IDs: []tabling.RowID{r.ID}},
			},
		)
		return items
	case tabling.GroupRow:
		return []MenuItem{
			{Label: "Delete group", Event: tabling.GroupDeleteEvent{ID: r.ID.Num}},
		}
	case tabling.MarkupRow, tabling.PlaceholderRow:
		return []MenuItem{
			{Label: "Delete row", Event: tabling.RowDeleteEvent{IDs: []tabling.RowID{row.RowID()}}},
		}
	default:
		return nil
	}
}
