package tabling

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alexanderramin/oikos/internal/domain"
)

// FieldOrder is one term of a secondary sort ordering.
type FieldOrder struct {
	Field     string
	Ascending bool
}

// Assembler turns models and groups into the final ordered row array.
type Assembler struct {
	Manager    *RowManager
	GroupRows  GroupRowManager
	MarkupRows MarkupRowManager
	Ordering   []FieldOrder
	Logger     *slog.Logger
}

func (a *Assembler) log() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// CreateTableRows produces the grid's row sequence. Each group's members
// appear in their original relative order with the group's row immediately
// after the last member; a groupless row stands alone. The clusters order
// themselves by the input position of their first member, so the result
// preserves input ordering except for the localized reordering that places
// a group row directly after its members. An optional secondary ordering
// applies within each group's member set and among the groupless rows,
// never across group boundaries.
func (a *Assembler) CreateTableRows(models []Model, groups []domain.Group) []Row {
	type cluster struct {
		group   *domain.Group
		members []ModelRow
		first   int // input position of the first member
	}

	grouped := make([]*cluster, len(groups))
	for i := range groups {
		grouped[i] = &cluster{group: &groups[i], first: -1}
	}

	var clusters []*cluster
	var singles []*cluster // groupless singleton clusters, in input order
	for pos, mod := range models {
		gi := owningGroup(groups, mod.ModelID())
		var gid *int64
		if gi >= 0 {
			g := groups[gi].ID
			gid = &g
		}
		row := a.Manager.ModelToRow(mod, gid)
		if gi < 0 {
			if row.Group != nil {
				// The model references a group the response did not include.
				// Degrade to groupless rather than dropping the row.
				a.log().Warn("model references unknown group",
					"model", mod.ModelID(), "group", *row.Group)
				row.Group = nil
			}
			c := &cluster{members: []ModelRow{row}, first: pos}
			clusters = append(clusters, c)
			singles = append(singles, c)
			continue
		}
		grouped[gi].members = append(grouped[gi].members, row)
		if grouped[gi].first < 0 {
			grouped[gi].first = pos
			clusters = append(clusters, grouped[gi])
		}
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].first < clusters[j].first
	})

	// Secondary ordering: sort each group's members, and reorder the
	// groupless rows among the slots they already occupy.
	if len(a.Ordering) > 0 {
		for _, c := range grouped {
			a.applyOrdering(c.members)
		}
		loose := make([]ModelRow, len(singles))
		for i, c := range singles {
			loose[i] = c.members[0]
		}
		a.applyOrdering(loose)
		for i, c := range singles {
			c.members[0] = loose[i]
		}
	}

	rows := make([]Row, 0, len(models)+len(groups))
	for _, c := range clusters {
		for _, r := range c.members {
			rows = append(rows, r)
		}
		if c.group != nil {
			rows = append(rows, a.GroupRows.Create(*c.group))
		}
	}
	// Groups with no current members trail the data rows.
	for _, c := range grouped {
		if c.first < 0 {
			rows = append(rows, a.GroupRows.Create(*c.group))
		}
	}
	return rows
}

// applyOrdering sorts rows in place by the configured field ordering. With
// no ordering configured the input order is preserved.
func (a *Assembler) applyOrdering(rows []ModelRow) {
	if len(a.Ordering) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range a.Ordering {
			cmp := compareValues(rows[i].Data[ord.Field], rows[j].Data[ord.Field])
			if cmp == 0 {
				continue
			}
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
}

// owningGroup returns the index of the first group whose children contain
// id, or -1.
func owningGroup(groups []domain.Group, id int64) int {
	for i := range groups {
		if groups[i].HasChild(id) {
			return i
		}
	}
	return -1
}

// compareValues orders the cell value shapes the grid stores. Nil (and
// untyped values) sort last so unset cells trail in ascending order.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return 1
		default:
			return -1
		}
	}
	if da, ok := toComparableDecimal(a); ok {
		if db, ok := toComparableDecimal(b); ok {
			return da.Cmp(db)
		}
	}
	if sa, ok := toComparableString(a); ok {
		if sb, ok := toComparableString(b); ok {
			return strings.Compare(sa, sb)
		}
	}
	return 0
}

func toComparableDecimal(v any) (decimal.Decimal, bool) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d, true
	case *decimal.Decimal:
		if d != nil {
			return *d, true
		}
	case int64:
		return decimal.NewFromInt(d), true
	case int:
		return decimal.NewFromInt(int64(d)), true
	case float64:
		return decimal.NewFromFloat(d), true
	}
	return decimal.Decimal{}, false
}

func toComparableString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case *string:
		if s != nil {
			return *s, true
		}
	}
	return "", false
}
