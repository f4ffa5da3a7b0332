package domain

type MarkupUnit string

const (
	MarkupFlat    MarkupUnit = "flat"
	MarkupPercent MarkupUnit = "percent"
)

type FringeUnit string

const (
	FringeFlat    FringeUnit = "flat"
	FringePercent FringeUnit = "percent"
)

type BudgetDomain string

const (
	DomainBudget   BudgetDomain = "budget"
	DomainTemplate BudgetDomain = "template"
)

// ValidMarkupUnits is the canonical set of accepted markup unit strings.
var ValidMarkupUnits = map[string]bool{
	"flat": true, "percent": true,
}

// ValidFringeUnits is the canonical set of accepted fringe unit strings.
var ValidFringeUnits = map[string]bool{
	"flat": true, "percent": true,
}

// GroupColors is the palette offered for group rows. Any hex color is
// accepted on input; these are the defaults surfaced in forms.
var GroupColors = []string{
	"#797695", "#ff7165", "#80cbc4", "#ce93d8", "#fed835",
	"#c87987", "#69f0ae", "#a1887f", "#81d4fa", "#f75d7e",
}
