package domain

import "github.com/shopspring/decimal"

// Markup is a budget adjustment line: a flat amount, or a percentage applied
// to a set of sibling lines. Only percent markups have children.
type Markup struct {
	ID          int64
	Identifier  string
	Description string
	Unit        MarkupUnit
	Rate        decimal.Decimal
	Children    []int64 // contributing model ids; empty for flat markups
}

// Contribution returns the amount the markup adds on top of base. The base
// is ignored for flat markups.
func (m *Markup) Contribution(base decimal.Decimal) decimal.Decimal {
	if m.Unit == MarkupPercent {
		return base.Mul(m.Rate)
	}
	return m.Rate
}
