package domain

import "github.com/shopspring/decimal"

// Fringe is a reusable surcharge applied to sub-account estimates, either a
// flat amount or a percentage of the estimate up to an optional cutoff.
type Fringe struct {
	ID          int64
	Name        string
	Description string
	Rate        decimal.Decimal
	Unit        FringeUnit
	Cutoff      *decimal.Decimal
	Color       string
}

func (f *Fringe) ModelID() int64 { return f.ID }

// Apply returns value with the fringe added. For percent fringes the rate
// applies only to the portion of value below the cutoff, when one is set.
func (f *Fringe) Apply(value decimal.Decimal) decimal.Decimal {
	if f.Unit == FringeFlat {
		return value.Add(f.Rate)
	}
	applicable := value
	if f.Cutoff != nil && applicable.GreaterThan(*f.Cutoff) {
		applicable = *f.Cutoff
	}
	return value.Add(applicable.Mul(f.Rate))
}

func (f *Fringe) Value(field string) (any, bool) {
	switch field {
	case "name":
		return f.Name, true
	case "description":
		return f.Description, true
	case "rate":
		return f.Rate, true
	case "unit":
		return string(f.Unit), true
	case "cutoff":
		return f.Cutoff, true
	case "color":
		return f.Color, true
	default:
		return nil, false
	}
}

func (f *Fringe) SetValue(field string, v any) bool {
	switch field {
	case "name":
		if s, ok := v.(string); ok {
			f.Name = s
			return true
		}
	case "description":
		if s, ok := v.(string); ok {
			f.Description = s
			return true
		}
	case "rate":
		if d, ok := toDecimal(v); ok {
			f.Rate = d
			return true
		}
	case "unit":
		if s, ok := v.(string); ok && ValidFringeUnits[s] {
			f.Unit = FringeUnit(s)
			return true
		}
	case "cutoff":
		if d, ok := toDecimalPtr(v); ok {
			f.Cutoff = d
			return true
		}
	case "color":
		if s, ok := v.(string); ok {
			f.Color = s
			return true
		}
	}
	return false
}
