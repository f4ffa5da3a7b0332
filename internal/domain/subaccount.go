package domain

import "github.com/shopspring/decimal"

// SubAccount is a nested budget line. Unlike accounts, its estimate is
// derived client-side from quantity, rate, and multiplier, then fringed.
type SubAccount struct {
	ID          int64
	Identifier  string
	Description string
	Quantity    *decimal.Decimal
	Rate        *decimal.Decimal
	Multiplier  *decimal.Decimal
	Unit        *string
	Estimated   decimal.Decimal
	Actual      decimal.Decimal
	Fringes     []int64 // applied fringe ids
	Children    []int64 // nested sub-account ids
	Group       *int64
	Order       string
}

func (s *SubAccount) ModelID() int64 { return s.ID }

func (s *SubAccount) Variance() decimal.Decimal {
	return s.Estimated.Sub(s.Actual)
}

func (s *SubAccount) Value(field string) (any, bool) {
	switch field {
	case "identifier":
		return s.Identifier, true
	case "description":
		return s.Description, true
	case "quantity":
		return s.Quantity, true
	case "rate":
		return s.Rate, true
	case "multiplier":
		return s.Multiplier, true
	case "unit":
		return s.Unit, true
	case "estimated":
		return s.Estimated, true
	case "actual":
		return s.Actual, true
	case "variance":
		return s.Variance(), true
	case "fringes":
		return s.Fringes, true
	default:
		return nil, false
	}
}

func (s *SubAccount) SetValue(field string, v any) bool {
	switch field {
	case "identifier":
		if sv, ok := v.(string); ok {
			s.Identifier = sv
			return true
		}
	case "description":
		if sv, ok := v.(string); ok {
			s.Description = sv
			return true
		}
	case "quantity":
		if d, ok := toDecimalPtr(v); ok {
			s.Quantity = d
			return true
		}
	case "rate":
		if d, ok := toDecimalPtr(v); ok {
			s.Rate = d
			return true
		}
	case "multiplier":
		if d, ok := toDecimalPtr(v); ok {
			s.Multiplier = d
			return true
		}
	case "unit":
		switch uv := v.(type) {
		case nil:
			s.Unit = nil
			return true
		case string:
			s.Unit = &uv
			return true
		case *string:
			s.Unit = uv
			return true
		}
	case "estimated":
		if d, ok := toDecimal(v); ok {
			s.Estimated = d
			return true
		}
	case "fringes":
		if ids, ok := v.([]int64); ok {
			s.Fringes = ids
			return true
		}
	}
	return false
}

// toDecimalPtr accepts the value shapes a cell edit can produce for a
// nullable numeric field.
func toDecimalPtr(v any) (*decimal.Decimal, bool) {
	switch dv := v.(type) {
	case nil:
		return nil, true
	case decimal.Decimal:
		return &dv, true
	case *decimal.Decimal:
		return dv, true
	default:
		return nil, false
	}
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch dv := v.(type) {
	case decimal.Decimal:
		return dv, true
	case *decimal.Decimal:
		if dv != nil {
			return *dv, true
		}
	}
	return decimal.Decimal{}, false
}
