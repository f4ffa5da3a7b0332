package tabling

import (
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/alexanderramin/oikos/internal/domain"
)

// testLine is a minimal budget line model exercising the engine without
// dragging in a full domain table configuration.
type testLine struct {
	id          int64
	identifier  string
	description string
	quantity    *decimal.Decimal
	rate        *decimal.Decimal
	estimated   decimal.Decimal
	actual      decimal.Decimal
	group       *int64
	children    []int64
	order       string
}

func (l *testLine) ModelID() int64 { return l.id }

func (l *testLine) Value(field string) (any, bool) {
	switch field {
	case "identifier":
		return l.identifier, true
	case "description":
		return l.description, true
	case "quantity":
		return l.quantity, true
	case "rate":
		return l.rate, true
	case "estimated":
		return l.estimated, true
	case "actual":
		return l.actual, true
	default:
		return nil, false
	}
}

func (l *testLine) SetValue(field string, v any) bool {
	switch field {
	case "identifier":
		if s, ok := v.(string); ok {
			l.identifier = s
			return true
		}
	case "description":
		if s, ok := v.(string); ok {
			l.description = s
			return true
		}
	case "quantity":
		if d, ok := v.(*decimal.Decimal); ok {
			l.quantity = d
			return true
		}
		if d, ok := v.(decimal.Decimal); ok {
			l.quantity = &d
			return true
		}
	case "rate":
		if d, ok := v.(*decimal.Decimal); ok {
			l.rate = d
			return true
		}
		if d, ok := v.(decimal.Decimal); ok {
			l.rate = &d
			return true
		}
	}
	return false
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func testColumns() []Column {
	return []Column{
		{Kind: ColumnReadWrite, Field: "identifier", Required: true, AllowBlank: false},
		{Kind: ColumnReadWrite, Field: "description", AllowBlank: true},
		{Kind: ColumnReadWrite, Field: "quantity", AllowNull: true},
		{Kind: ColumnReadWrite, Field: "rate", AllowNull: true},
		{Kind: ColumnReadOnly, Field: "estimated"},
		{Kind: ColumnReadOnly, Field: "actual"},
		{
			Kind:  ColumnReadOnly,
			Field: "variance",
			GetRowValue: func(m Model) any {
				l := m.(*testLine)
				return l.estimated.Sub(l.actual)
			},
		},
		// POST-only write column, e.g. seeding a new row from a sibling.
		{Kind: ColumnWriteOnly, Field: "previous", AllowNull: true, Methods: []HTTPMethod{MethodPost}},
	}
}

func testManager(t *testing.T) *RowManager {
	t.Helper()
	return &RowManager{
		Columns: testColumns(),
		Grid:    GridData,
		GetChildren: func(m Model) []int64 {
			return m.(*testLine).children
		},
		GetGroup: func(m Model) *int64 {
			return m.(*testLine).group
		},
		GetOrder: func(m Model) string {
			return m.(*testLine).order
		},
		Logger: slog.New(slog.DiscardHandler),
	}
}

func testAssembler(t *testing.T) *Assembler {
	t.Helper()
	return &Assembler{
		Manager:    testManager(t),
		GroupRows:  GroupRowManager{Grid: GridData},
		MarkupRows: MarkupRowManager{Grid: GridData},
		Logger:     slog.New(slog.DiscardHandler),
	}
}

func testReducer(t *testing.T) *Reducer {
	t.Helper()
	return &Reducer{
		Assembler: testAssembler(t),
		Logger:    slog.New(slog.DiscardHandler),
	}
}

func line(id int64, identifier string) *testLine {
	return &testLine{id: id, identifier: identifier}
}

func groupOf(id int64, name string, children ...int64) domain.Group {
	return domain.Group{ID: id, Name: name, Children: children}
}
