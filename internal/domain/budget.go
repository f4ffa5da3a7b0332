package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is the root of an account hierarchy. A template is a budget in the
// template domain; the two share a shape and differ only in lifecycle.
type Budget struct {
	ID        int64
	Name      string
	Domain    BudgetDomain
	Estimated decimal.Decimal
	Actual    decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Variance is the derived estimated-minus-actual aggregate.
func (b *Budget) Variance() decimal.Decimal {
	return b.Estimated.Sub(b.Actual)
}
