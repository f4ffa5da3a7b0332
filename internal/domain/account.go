package domain

import "github.com/shopspring/decimal"

// Account is a top-level budget line. Its estimated and actual values are
// server-derived aggregates over its sub-accounts.
type Account struct {
	ID          int64
	Identifier  string
	Description string
	Estimated   decimal.Decimal
	Actual      decimal.Decimal
	Children    []int64 // sub-account ids, in order
	Group       *int64  // owning group id, nil when groupless
	Order       string  // server-assigned lexicographic ordering key
}

func (a *Account) ModelID() int64 { return a.ID }

func (a *Account) Variance() decimal.Decimal {
	return a.Estimated.Sub(a.Actual)
}

// Value reads a named attribute. The field names mirror the HTTP payload keys.
func (a *Account) Value(field string) (any, bool) {
	switch field {
	case "identifier":
		return a.Identifier, true
	case "description":
		return a.Description, true
	case "estimated":
		return a.Estimated, true
	case "actual":
		return a.Actual, true
	case "variance":
		return a.Variance(), true
	default:
		return nil, false
	}
}

// SetValue writes a named attribute, reporting whether the field is writable
// on this model. Derived fields are not writable.
func (a *Account) SetValue(field string, v any) bool {
	switch field {
	case "identifier":
		if s, ok := v.(string); ok {
			a.Identifier = s
			return true
		}
	case "description":
		if s, ok := v.(string); ok {
			a.Description = s
			return true
		}
	}
	return false
}
