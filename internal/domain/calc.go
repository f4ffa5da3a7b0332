package domain

import "github.com/shopspring/decimal"

// DerivedValue computes a sub-account's raw estimate from quantity, rate,
// and multiplier: quantity x rate x multiplier. Returns nil when quantity or
// rate is absent; a nil multiplier defaults to 1.
func DerivedValue(quantity, rate, multiplier *decimal.Decimal) *decimal.Decimal {
	if quantity == nil || rate == nil {
		return nil
	}
	one := decimal.NewFromInt(1)
	v := quantity.Mul(*rate).Mul(DecimalFromPtrWithDefault(one, multiplier))
	return &v
}

// Fringed applies each fringe in ids (resolved against fringes) to value,
// in id order. Unknown ids are skipped.
func Fringed(value decimal.Decimal, ids []int64, fringes []*Fringe) decimal.Decimal {
	byID := make(map[int64]*Fringe, len(fringes))
	for _, f := range fringes {
		byID[f.ID] = f
	}
	out := value
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			out = f.Apply(out)
		}
	}
	return out
}
