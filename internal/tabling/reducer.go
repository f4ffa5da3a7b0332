package tabling

import (
	"log/slog"

	"github.com/alexanderramin/oikos/internal/domain"
)

// TableState is the table store: the ordered row array plus the raw models
// and groups it was assembled from, and the table-level flags.
type TableState struct {
	Models []Model
	Groups []domain.Group
	Data   []Row

	Loading             bool
	Saving              bool
	Search              string
	ResponseWasReceived bool
}

// Reducer is the table change-event state machine. Transitions are pure
// given the current state; lookups that find the table drifted from an
// optimistic update log an inconsistent-state warning and no-op, since the
// canonical fix is always the next full response.
type Reducer struct {
	Assembler *Assembler

	// RecalculateRow recomputes a model row's derived cells after an edit,
	// e.g. a quantity- or rate-dependent value.
	RecalculateRow func(ModelRow) ModelRow

	// CalculateGroup recomputes a group's aggregate data from its current
	// member rows.
	CalculateGroup func(members []Row) RowData

	Logger *slog.Logger
}

func (r *Reducer) log() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Reducer) manager() *RowManager { return r.Assembler.Manager }

// Reduce applies one event and returns the next state.
func (r *Reducer) Reduce(st TableState, ev Event) TableState {
	switch e := ev.(type) {
	case RequestEvent:
		st.Data = nil
		st.Models = nil
		st.Groups = nil
		st.Loading = true
		st.ResponseWasReceived = false
		return st
	case ResponseEvent:
		st.Models = e.Models
		st.Groups = e.Groups
		st.Data = r.Assembler.CreateTableRows(e.Models, e.Groups)
		r.recalcAllGroups(&st)
		st.Loading = false
		st.ResponseWasReceived = true
		return st
	case DataChangeEvent:
		return r.applyDataChange(st, e)
	case RowAddEvent:
		data := cloneRows(st.Data)
		for _, ph := range e.Rows {
			data = append(data, ph)
		}
		st.Data = data
		return st
	case RowDeleteEvent:
		return r.applyRowDelete(st, e)
	case RowRemoveFromGroupEvent:
		return r.applyRemoveFromGroup(st, e)
	case RowAddToGroupEvent:
		return r.applyAddToGroup(st, e)
	case GroupDeleteEvent:
		return r.applyGroupDelete(st, e)
	case GroupUpdateEvent:
		return r.applyGroupUpdate(st, e)
	case GroupAddEvent:
		return r.applyGroupAdd(st, e)
	case MarkupCreateEvent:
		// Server-first: the created markup comes back as a MarkupAddEvent.
		return st
	case MarkupAddEvent:
		return r.applyMarkupAdd(st, e)
	case PlaceholderActivatedEvent:
		return r.applyPlaceholderActivated(st, e)
	default:
		r.log().Warn("unhandled table event", "event", ev)
		return st
	}
}

func (r *Reducer) applyDataChange(st TableState, ev DataChangeEvent) TableState {
	changes := Consolidate(ev.Changes)
	data := cloneRows(st.Data)
	affected := map[int64]bool{}

	for _, ch := range changes {
		idx := rowIndex(data, ch.ID)
		if idx < 0 {
			r.log().Warn("inconsistent state: changed row not found",
				"row", ch.ID.String())
			continue
		}
		merged := r.manager().MergeChangesWithRow(data[idx], ch)
		if mr, ok := merged.(ModelRow); ok {
			if r.RecalculateRow != nil {
				mr = r.RecalculateRow(mr)
			}
			if mr.Group != nil {
				affected[*mr.Group] = true
			}
			merged = mr
		}
		data[idx] = merged

		if mm, ok := mutableModel(st.Models, ch.ID); ok {
			r.manager().MergeChangesWithModel(mm, ch)
		}
	}

	st.Data = data
	for gi := range st.Groups {
		if affected[st.Groups[gi].ID] {
			r.recalcGroup(&st, gi)
		}
	}
	return st
}

func (r *Reducer) applyRowDelete(st TableState, ev RowDeleteEvent) TableState {
	data := cloneRows(st.Data)
	groups := cloneGroups(st.Groups)
	affected := map[int64]bool{}

	for _, id := range ev.IDs {
		if id.Type == RowTypeModel {
			for gi := range groups {
				if groups[gi].HasChild(id.Num) {
					groups[gi] = groups[gi].WithoutChildren([]int64{id.Num})
					affected[groups[gi].ID] = true
				}
			}
		}
		idx := rowIndex(data, id)
		if idx < 0 {
			r.log().Warn("inconsistent state: deleted row not found",
				"row", id.String())
			continue
		}
		data = append(data[:idx], data[idx+1:]...)
		if id.Type == RowTypeModel {
			st.Models = withoutModel(st.Models, id.Num)
		}
	}

	st.Data = data
	st.Groups = groups
	for gi := range st.Groups {
		if affected[st.Groups[gi].ID] {
			r.recalcGroup(&st, gi)
		}
	}
	return st
}

func (r *Reducer) applyRemoveFromGroup(st TableState, ev RowRemoveFromGroupEvent) TableState {
	gi := groupIndex(st.Groups, ev.Group)
	if gi < 0 {
		r.log().Warn("inconsistent state: group not found", "group", ev.Group)
		return st
	}
	ids := modelIDs(ev.Rows)
	groups := cloneGroups(st.Groups)
	groups[gi] = groups[gi].WithoutChildren(ids)

	data := cloneRows(st.Data)
	for _, id := range ids {
		if idx := rowIndex(data, ModelRowID(id)); idx >= 0 {
			if mr, ok := data[idx].(ModelRow); ok && mr.Group != nil && *mr.Group == ev.Group {
				mr.Group = nil
				data[idx] = mr
			}
		}
	}

	st.Groups = groups
	st.Data = data
	r.recalcGroup(&st, gi)
	return st
}

func (r *Reducer) applyAddToGroup(st TableState, ev RowAddToGroupEvent) TableState {
	gi := groupIndex(st.Groups, ev.Group)
	if gi < 0 {
		r.log().Warn("inconsistent state: group not found", "group", ev.Group)
		return st
	}
	data := cloneRows(st.Data)
	var ids []int64
	for _, rid := range ev.Rows {
		if rid.Type != RowTypeModel {
			continue
		}
		idx := rowIndex(data, rid)
		if idx < 0 {
			r.log().Warn("inconsistent state: grouped row not found",
				"row", rid.String())
			continue
		}
		if mr, ok := data[idx].(ModelRow); ok {
			g := ev.Group
			mr.Group = &g
			data[idx] = mr
			ids = append(ids, rid.Num)
		}
	}

	// Moving rows must also detach them from their previous groups, or the
	// old children sets drift from the rows' group pointers.
	groups := cloneGroups(st.Groups)
	affected := map[int64]bool{ev.Group: true}
	for gj := range groups {
		if groups[gj].ID == ev.Group {
			continue
		}
		for _, id := range ids {
			if groups[gj].HasChild(id) {
				groups[gj] = groups[gj].WithoutChildren(ids)
				affected[groups[gj].ID] = true
				break
			}
		}
	}
	groups[gi] = groups[gi].WithChildren(ids)

	st.Groups = groups
	st.Data = data
	for gj := range st.Groups {
		if affected[st.Groups[gj].ID] {
			r.recalcGroup(&st, gj)
		}
	}
	return st
}

func (r *Reducer) applyGroupDelete(st TableState, ev GroupDeleteEvent) TableState {
	gi := groupIndex(st.Groups, ev.ID)
	if gi < 0 {
		r.log().Warn("inconsistent state: group not found", "group", ev.ID)
		return st
	}
	groups := cloneGroups(st.Groups)
	groups = append(groups[:gi], groups[gi+1:]...)

	data := cloneRows(st.Data)
	if idx := rowIndex(data, GroupRowID(ev.ID)); idx >= 0 {
		data = append(data[:idx], data[idx+1:]...)
	}
	for i, row := range data {
		if mr, ok := row.(ModelRow); ok && mr.Group != nil && *mr.Group == ev.ID {
			mr.Group = nil
			data[i] = mr
		}
	}

	st.Groups = groups
	st.Data = data
	return st
}

func (r *Reducer) applyGroupUpdate(st TableState, ev GroupUpdateEvent) TableState {
	gi := groupIndex(st.Groups, ev.ID)
	if gi < 0 {
		r.log().Warn("inconsistent state: group not found", "group", ev.ID)
		return st
	}
	groups := cloneGroups(st.Groups)
	if ev.Name != nil {
		groups[gi].Name = *ev.Name
	}
	if ev.Color != nil {
		groups[gi].Color = *ev.Color
	}

	data := cloneRows(st.Data)
	if idx := rowIndex(data, GroupRowID(ev.ID)); idx >= 0 {
		if gr, ok := data[idx].(GroupRow); ok {
			gr.Name = groups[gi].Name
			gr.Color = groups[gi].Color
			data[idx] = gr
		}
	}

	st.Groups = groups
	st.Data = data
	return st
}

func (r *Reducer) applyGroupAdd(st TableState, ev GroupAddEvent) TableState {
	groups := cloneGroups(st.Groups)
	groups = append(groups, ev.Group)

	// Full rebuild: group insertion reorders rows non-locally. Placeholder
	// rows are client-only and survive the rebuild at the tail.
	data := r.Assembler.CreateTableRows(st.Models, groups)
	for _, row := range st.Data {
		if ph, ok := row.(PlaceholderRow); ok {
			data = append(data, ph)
		}
	}

	st.Groups = groups
	st.Data = data
	r.recalcAllGroups(&st)
	return st
}

func (r *Reducer) applyMarkupAdd(st TableState, ev MarkupAddEvent) TableState {
	row := r.Assembler.MarkupRows.Create(ev.Markup)
	data := cloneRows(st.Data)
	if idx := rowIndex(data, row.ID); idx >= 0 {
		data[idx] = row
		st.Data = data
		return st
	}
	// Markup rows sit after the data rows, before any placeholders.
	insert := len(data)
	for i, existing := range data {
		if _, ok := existing.(PlaceholderRow); ok {
			insert = i
			break
		}
	}
	data = append(data, nil)
	copy(data[insert+1:], data[insert:])
	data[insert] = row
	st.Data = data
	return st
}

func (r *Reducer) applyPlaceholderActivated(st TableState, ev PlaceholderActivatedEvent) TableState {
	idx := rowIndex(st.Data, ev.ID)
	if idx < 0 {
		r.log().Warn("inconsistent state: placeholder not found",
			"row", ev.ID.String())
		return st
	}
	data := cloneRows(st.Data)
	row := r.manager().ModelToRow(ev.Model, nil)
	if r.RecalculateRow != nil {
		row = r.RecalculateRow(row)
	}
	data[idx] = row

	models := make([]Model, len(st.Models), len(st.Models)+1)
	copy(models, st.Models)
	st.Models = append(models, ev.Model)
	st.Data = data
	return st
}

// recalcGroup refreshes one group row's children and aggregate data from
// the group's current membership.
func (r *Reducer) recalcGroup(st *TableState, gi int) {
	g := st.Groups[gi]
	idx := rowIndex(st.Data, GroupRowID(g.ID))
	if idx < 0 {
		r.log().Warn("inconsistent state: group row not found", "group", g.ID)
		return
	}
	gr, ok := st.Data[idx].(GroupRow)
	if !ok {
		return
	}
	gr.Children = make([]int64, len(g.Children))
	copy(gr.Children, g.Children)
	if r.CalculateGroup != nil {
		gr.Data = r.CalculateGroup(membersOf(st.Data, g))
	}
	st.Data[idx] = gr
}

func (r *Reducer) recalcAllGroups(st *TableState) {
	for gi := range st.Groups {
		r.recalcGroup(st, gi)
	}
}

// membersOf collects the group's member rows in data order.
func membersOf(data []Row, g domain.Group) []Row {
	var members []Row
	for _, row := range data {
		if mr, ok := row.(ModelRow); ok && g.HasChild(mr.ID.Num) {
			members = append(members, mr)
		}
	}
	return members
}

func rowIndex(data []Row, id RowID) int {
	for i, row := range data {
		if row.RowID() == id {
			return i
		}
	}
	return -1
}

func groupIndex(groups []domain.Group, id int64) int {
	for i := range groups {
		if groups[i].ID == id {
			return i
		}
	}
	return -1
}

func modelIDs(rows []RowID) []int64 {
	var ids []int64
	for _, r := range rows {
		if r.Type == RowTypeModel {
			ids = append(ids, r.Num)
		}
	}
	return ids
}

func mutableModel(models []Model, id RowID) (MutableModel, bool) {
	if id.Type != RowTypeModel {
		return nil, false
	}
	for _, m := range models {
		if m.ModelID() == id.Num {
			mm, ok := m.(MutableModel)
			return mm, ok
		}
	}
	return nil, false
}

func withoutModel(models []Model, id int64) []Model {
	out := make([]Model, 0, len(models))
	for _, m := range models {
		if m.ModelID() != id {
			out = append(out, m)
		}
	}
	return out
}

func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}

func cloneGroups(groups []domain.Group) []domain.Group {
	out := make([]domain.Group, len(groups))
	copy(out, groups)
	return out
}
