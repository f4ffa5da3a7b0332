// Package budget binds the generic table engine to the budgeting domain:
// column sets for each table, row managers with domain metadata getters,
// recalculation hooks, and the sync codecs for each server collection.
package budget

import (
	"encoding/json"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/alexanderramin/oikos/internal/api"
	"github.com/alexanderramin/oikos/internal/domain"
	"github.com/alexanderramin/oikos/internal/tabling"
)

// AccountColumns describes the top-level accounts table. Estimated and
// actual are server-derived aggregates, so the row side is read-only.
func AccountColumns() []tabling.Column {
	return []tabling.Column{
		{Kind: tabling.ColumnReadWrite, Field: "identifier", Required: true},
		{Kind: tabling.ColumnReadWrite, Field: "description", AllowBlank: true},
		{Kind: tabling.ColumnReadOnly, Field: "estimated", FormatClipboard: formatDecimal},
		{Kind: tabling.ColumnReadOnly, Field: "actual", FormatClipboard: formatDecimal},
		{
			Kind:  tabling.ColumnReadOnly,
			Field: "variance",
			GetRowValue: func(mod tabling.Model) any {
				if a, ok := mod.(*domain.Account); ok {
					return a.Variance()
				}
				return nil
			},
			FormatClipboard: formatDecimal,
		},
	}
}

// SubAccountColumns describes the sub-accounts table, where the estimate is
// derived client-side from quantity, rate, and multiplier.
func SubAccountColumns() []tabling.Column {
	return []tabling.Column{
		{Kind: tabling.ColumnReadWrite, Field: "identifier", Required: true},
		{Kind: tabling.ColumnReadWrite, Field: "description", AllowBlank: true},
		{
			Kind: tabling.ColumnReadWrite, Field: "quantity", AllowNull: true,
			HTTPConvert: decimalToString, ParseClipboard: parseDecimal, FormatClipboard: formatDecimal,
		},
		{
			Kind: tabling.ColumnReadWrite, Field: "rate", AllowNull: true,
			HTTPConvert: decimalToString, ParseClipboard: parseDecimal, FormatClipboard: formatDecimal,
		},
		{
			Kind: tabling.ColumnReadWrite, Field: "multiplier", AllowNull: true,
			HTTPConvert: decimalToString, ParseClipboard: parseDecimal, FormatClipboard: formatDecimal,
		},
		{Kind: tabling.ColumnReadWrite, Field: "unit", AllowNull: true},
		{Kind: tabling.ColumnReadWrite, Field: "fringes", AllowNull: true},
		{Kind: tabling.ColumnReadOnly, Field: "estimated", FormatClipboard: formatDecimal},
		{Kind: tabling.ColumnReadOnly, Field: "actual", FormatClipboard: formatDecimal},
		{
			Kind:  tabling.ColumnReadOnly,
			Field: "variance",
			GetRowValue: func(mod tabling.Model) any {
				if s, ok := mod.(*domain.SubAccount); ok {
					return s.Variance()
				}
				return nil
			},
			FormatClipboard: formatDecimal,
		},
	}
}

// FringeColumns describes the fringes table.
func FringeColumns() []tabling.Column {
	return []tabling.Column{
		{Kind: tabling.ColumnReadWrite, Field: "name", Required: true},
		{Kind: tabling.ColumnReadWrite, Field: "description", AllowBlank: true},
		{
			Kind: tabling.ColumnReadWrite, Field: "rate",
			HTTPConvert: decimalToString, ParseClipboard: parseDecimal, FormatClipboard: formatDecimal,
		},
		{
			Kind: tabling.ColumnReadWrite, Field: "unit",
			Placeholder: string(domain.FringePercent),
			ParseClipboard: func(s string) (any, bool) {
				if domain.ValidFringeUnits[s] {
					return s, true
				}
				return nil, false
			},
		},
		{
			Kind: tabling.ColumnReadWrite, Field: "cutoff", AllowNull: true,
			HTTPConvert: decimalToString, ParseClipboard: parseDecimal, FormatClipboard: formatDecimal,
		},
		{Kind: tabling.ColumnReadWrite, Field: "color", AllowBlank: true},
	}
}

// AccountManager builds the row manager for the accounts table.
func AccountManager(logger *slog.Logger) *tabling.RowManager {
	return &tabling.RowManager{
		Columns: AccountColumns(),
		Grid:    tabling.GridData,
		GetChildren: func(mod tabling.Model) []int64 {
			if a, ok := mod.(*domain.Account); ok {
				return a.Children
			}
			return nil
		},
		GetGroup: func(mod tabling.Model) *int64 {
			if a, ok := mod.(*domain.Account); ok {
				return a.Group
			}
			return nil
		},
		GetOrder: func(mod tabling.Model) string {
			if a, ok := mod.(*domain.Account); ok {
				return a.Order
			}
			return ""
		},
		Logger: logger,
	}
}

// SubAccountManager builds the row manager for the sub-accounts table.
func SubAccountManager(logger *slog.Logger) *tabling.RowManager {
	return &tabling.RowManager{
		Columns: SubAccountColumns(),
		Grid:    tabling.GridData,
		GetChildren: func(mod tabling.Model) []int64 {
			if s, ok := mod.(*domain.SubAccount); ok {
				return s.Children
			}
			return nil
		},
		GetGroup: func(mod tabling.Model) *int64 {
			if s, ok := mod.(*domain.SubAccount); ok {
				return s.Group
			}
			return nil
		},
		GetOrder: func(mod tabling.Model) string {
			if s, ok := mod.(*domain.SubAccount); ok {
				return s.Order
			}
			return ""
		},
		Logger: logger,
	}
}

// FringeManager builds the row manager for the fringes table. Fringes are
// flat: no children, no groups.
func FringeManager(logger *slog.Logger) *tabling.RowManager {
	return &tabling.RowManager{
		Columns: FringeColumns(),
		Grid:    tabling.GridData,
		Logger:  logger,
	}
}

// RecalculateSubAccountRow returns the reducer hook that re-derives a
// sub-account row's estimate after an edit: quantity x rate x multiplier,
// then fringes. Unknown fringe ids are skipped by the domain calculation.
func RecalculateSubAccountRow(fringes []*domain.Fringe) func(tabling.ModelRow) tabling.ModelRow {
	return func(row tabling.ModelRow) tabling.ModelRow {
		derived := domain.DerivedValue(
			decimalAt(row.Data, "quantity"),
			decimalAt(row.Data, "rate"),
			decimalAt(row.Data, "multiplier"),
		)
		data := row.Data.Clone()
		if derived == nil {
			data["estimated"] = decimal.Zero
		} else {
			ids, _ := data["fringes"].([]int64)
			data["estimated"] = domain.Fringed(*derived, ids, fringes)
		}
		if actual, ok := decimalValueAt(data, "actual"); ok {
			est, _ := decimalValueAt(data, "estimated")
			data["variance"] = est.Sub(actual)
		}
		row.Data = data
		return row
	}
}

// GroupAggregate is the reducer hook that computes a group row's data from
// its member rows: estimated, actual, and variance sums.
func GroupAggregate(members []tabling.Row) tabling.RowData {
	var estimated, actual decimal.Decimal
	for _, m := range members {
		if v, ok := decimalValueAt(m.RowData(), "estimated"); ok {
			estimated = estimated.Add(v)
		}
		if v, ok := decimalValueAt(m.RowData(), "actual"); ok {
			actual = actual.Add(v)
		}
	}
	return tabling.RowData{
		"estimated": estimated,
		"actual":    actual,
		"variance":  estimated.Sub(actual),
	}
}

// Codec implementations bind each table to its server collection.

type AccountCodec struct{}

func (AccountCodec) Resource() api.Resource { return api.ResourceAccounts }

func (AccountCodec) DecodeModel(raw json.RawMessage) (tabling.Model, error) {
	return api.DecodeAccount(raw)
}

type SubAccountCodec struct{}

func (SubAccountCodec) Resource() api.Resource { return api.ResourceSubAccounts }

func (SubAccountCodec) DecodeModel(raw json.RawMessage) (tabling.Model, error) {
	return api.DecodeSubAccount(raw)
}

type FringeCodec struct{}

func (FringeCodec) Resource() api.Resource { return api.ResourceFringes }

func (FringeCodec) DecodeModel(raw json.RawMessage) (tabling.Model, error) {
	return api.DecodeFringe(raw)
}

func parseDecimal(s string) (any, bool) {
	if s == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, false
	}
	return &d, true
}

func formatDecimal(v any) string {
	switch d := v.(type) {
	case decimal.Decimal:
		return d.String()
	case *decimal.Decimal:
		if d != nil {
			return d.String()
		}
	}
	return ""
}

func decimalToString(v any) any {
	switch d := v.(type) {
	case decimal.Decimal:
		return d.String()
	case *decimal.Decimal:
		if d != nil {
			return d.String()
		}
	}
	return nil
}

func decimalAt(data tabling.RowData, field string) *decimal.Decimal {
	switch d := data[field].(type) {
	case decimal.Decimal:
		return &d
	case *decimal.Decimal:
		return d
	default:
		return nil
	}
}

func decimalValueAt(data tabling.RowData, field string) (decimal.Decimal, bool) {
	if d := decimalAt(data, field); d != nil {
		return *d, true
	}
	return decimal.Decimal{}, false
}
