package tabling

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/alexanderramin/oikos/internal/domain"
)

// Payload is an HTTP request body under construction, keyed by payload field.
type Payload map[string]any

// RowManager owns the column set for one table and implements the
// model/row/payload mappings the columns describe.
type RowManager struct {
	Columns []Column
	Grid    GridID

	// Optional model metadata getters. Nil getters leave the corresponding
	// row metadata empty.
	GetChildren func(Model) []int64
	GetGroup    func(Model) *int64
	GetOrder    func(Model) string

	Logger *slog.Logger
}

func (m *RowManager) log() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// Column finds the descriptor for field. A miss is non-fatal: it logs a
// diagnostic and the caller treats the column as absent.
func (m *RowManager) Column(field string) (Column, bool) {
	for _, c := range m.Columns {
		if c.Field == field {
			return c, true
		}
	}
	m.log().Warn("no column configured for field", "field", field, "grid", m.Grid)
	return Column{}, false
}

// GetValue reads the column's current value from the given source. The
// second return reports whether the source carries a value for the column
// at all, distinguishing "absent" from a stored nil.
func (m *RowManager) GetValue(col Column, src Source) (any, bool) {
	switch s := src.(type) {
	case ModelSource:
		if !col.CanRead() {
			return nil, false
		}
		if col.GetRowValue != nil {
			return col.GetRowValue(s.Model), true
		}
		return s.Model.Value(col.ReadField())
	case RowSource:
		v, ok := s.Row.RowData()[col.Field]
		return v, ok
	case ChangeSource:
		cell, ok := s.Change.Data[col.Field]
		if !ok {
			return nil, false
		}
		return cell.NewValue, true
	case ChangeDataSource:
		cell, ok := s.Data[col.Field]
		if !ok {
			return nil, false
		}
		return cell.NewValue, true
	default:
		return nil, false
	}
}

// HTTPValue returns the column's serialized value for the given method, or
// absence when the column does not apply to that method.
func (m *RowManager) HTTPValue(col Column, src Source, method HTTPMethod) (any, bool) {
	if !col.AppliesTo(method) {
		return nil, false
	}
	v, ok := m.GetValue(col, src)
	if !ok {
		return nil, false
	}
	if col.HTTPConvert != nil {
		v = col.HTTPConvert(v)
	}
	return v, true
}

// PayloadFor builds the HTTP payload for a row or change. The method is
// inferred: a change produces a PATCH payload, anything else a POST.
// Nil values are included only for AllowNull columns, empty strings only
// for AllowBlank columns.
func (m *RowManager) PayloadFor(src Source) Payload {
	method := MethodPost
	switch src.(type) {
	case ChangeSource, ChangeDataSource:
		method = MethodPatch
	}
	payload := Payload{}
	for _, col := range m.Columns {
		v, ok := m.HTTPValue(col, src, method)
		if !ok {
			continue
		}
		if v == nil && !col.AllowNull {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" && !col.AllowBlank {
			continue
		}
		payload[col.Field] = v
	}
	return payload
}

// ModelToRow builds a ModelRow from a server model. group overrides the
// model's own group association when non-nil.
func (m *RowManager) ModelToRow(mod Model, group *int64) ModelRow {
	data := RowData{}
	for _, col := range m.Columns {
		if !col.CanRead() {
			continue
		}
		if v, ok := m.GetValue(col, ModelSource{Model: mod}); ok {
			data[col.Field] = v
		}
	}
	row := ModelRow{
		ID:    ModelRowID(mod.ModelID()),
		Grid:  m.Grid,
		Data:  data,
		Group: group,
	}
	if m.GetChildren != nil {
		row.Children = m.GetChildren(mod)
	}
	if row.Group == nil && m.GetGroup != nil {
		row.Group = m.GetGroup(mod)
	}
	if m.GetOrder != nil {
		row.Order = m.GetOrder(mod)
	}
	return row
}

// CreatePlaceholder builds a client-only row ahead of server confirmation.
// Each write-capable column resolves its value as: explicit defaults, then
// caller-provided data, then the configured placeholder value, then the
// column's null value.
func (m *RowManager) CreatePlaceholder(data, defaults RowData) PlaceholderRow {
	values := RowData{}
	for _, col := range m.Columns {
		if !col.CanWrite() {
			continue
		}
		switch {
		case defaults != nil && hasKey(defaults, col.Field):
			values[col.Field] = defaults[col.Field]
		case data != nil && hasKey(data, col.Field):
			values[col.Field] = data[col.Field]
		case col.Placeholder != nil:
			values[col.Field] = col.Placeholder
		default:
			values[col.Field] = col.NullValue
		}
	}
	return PlaceholderRow{
		ID:    NewPlaceholderID(),
		Grid:  m.Grid,
		Data:  values,
		Token: uuid.New(),
	}
}

func hasKey(d RowData, k string) bool {
	_, ok := d[k]
	return ok
}

// MergeChangesWithRow applies a change onto a row, field by field, skipping
// write-only columns and rows that carry no editable data. The input row is
// not modified.
func (m *RowManager) MergeChangesWithRow(row Row, change RowChange) Row {
	if !Editable(row) {
		return row
	}
	data := row.RowData().Clone()
	for field, cell := range change.Data {
		col, ok := m.Column(field)
		if !ok || !col.CanRead() {
			continue
		}
		data[field] = cell.NewValue
	}
	switch r := row.(type) {
	case ModelRow:
		r.Data = data
		return r
	case PlaceholderRow:
		r.Data = data
		return r
	case MarkupRow:
		r.Data = data
		return r
	default:
		return row
	}
}

// MergeChangesWithModel applies a change onto a cached model, skipping
// write-only columns and fields the model does not carry.
func (m *RowManager) MergeChangesWithModel(mod MutableModel, change RowChange) {
	for field, cell := range change.Data {
		col, ok := m.Column(field)
		if !ok || !col.CanRead() {
			continue
		}
		if !mod.SetValue(col.ReadField(), cell.NewValue) {
			m.log().Debug("field not writable on model, skipped",
				"field", field, "model", mod.ModelID())
		}
	}
}

// RowHasRequiredFields reports whether every required column has a non-empty
// value on the row. Placeholders are held back from creation until this
// passes.
func (m *RowManager) RowHasRequiredFields(row Row) bool {
	data := row.RowData()
	for _, col := range m.Columns {
		if !col.Required {
			continue
		}
		v, ok := data[col.Field]
		if !ok || col.IsEmpty(v) {
			return false
		}
	}
	return true
}

// GroupRowManager builds and updates group rows.
type GroupRowManager struct {
	Grid GridID
}

// Create mirrors the group model's name and color into row shape. Aggregate
// data is populated later by the reducer's group calculation hook.
func (g GroupRowManager) Create(grp domain.Group) GroupRow {
	children := make([]int64, len(grp.Children))
	copy(children, grp.Children)
	return GroupRow{
		ID:       GroupRowID(grp.ID),
		Grid:     g.Grid,
		Data:     RowData{},
		Name:     grp.Name,
		Color:    grp.Color,
		Children: children,
	}
}

// RemoveChildren returns a copy of the row with the given ids removed.
func (g GroupRowManager) RemoveChildren(row GroupRow, ids []int64) GroupRow {
	row.Children = withoutIDs(row.Children, ids)
	return row
}

// MarkupRowManager builds and updates markup rows.
type MarkupRowManager struct {
	Grid GridID
}

// Create mirrors the markup model into row shape. Only percent markups keep
// children; a flat markup contributes a fixed amount regardless of siblings.
func (m MarkupRowManager) Create(mk domain.Markup) MarkupRow {
	row := MarkupRow{
		ID:   MarkupRowID(mk.ID),
		Grid: m.Grid,
		Data: RowData{
			"identifier":  mk.Identifier,
			"description": mk.Description,
		},
		Unit: mk.Unit,
		Rate: mk.Rate,
	}
	if mk.Unit == domain.MarkupPercent {
		row.Children = make([]int64, len(mk.Children))
		copy(row.Children, mk.Children)
	}
	return row
}

// RemoveChildren returns a copy of the row with the given ids removed.
func (m MarkupRowManager) RemoveChildren(row MarkupRow, ids []int64) MarkupRow {
	row.Children = withoutIDs(row.Children, ids)
	return row
}

// CreateFooterRow builds the singleton aggregate row for a grid region.
func CreateFooterRow(grid GridID) FooterRow {
	return FooterRow{
		ID:   RowID{Type: RowTypeFooter, Num: footerNum(grid)},
		Grid: grid,
		Data: RowData{},
	}
}

func footerNum(grid GridID) int64 {
	switch grid {
	case GridFooter:
		return 2
	case GridPage:
		return 3
	default:
		return 1
	}
}

func withoutIDs(children, ids []int64) []int64 {
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make([]int64, 0, len(children))
	for _, c := range children {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	return kept
}
