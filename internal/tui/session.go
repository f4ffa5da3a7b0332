// Package tui renders budget tables in the terminal: a bubbletea grid over
// the table engine, with edits flowing through the change-event reducer and
// the sync coordinator.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexanderramin/oikos/internal/sync"
	"github.com/alexanderramin/oikos/internal/tabling"
)

// remoteEventMsg carries a coordinator-emitted table event into the UI loop.
type remoteEventMsg struct {
	Event tabling.Event
}

// cellErrorsMsg carries server validation errors into the UI loop.
type cellErrorsMsg struct {
	Errors []sync.CellError
}

// CellKey addresses one cell for error display.
type CellKey struct {
	Row   tabling.RowID
	Field string
}

// TableSession owns one table's state and routes events to their side
// effects. It is single-threaded: all methods run on the UI goroutine, and
// the coordinator's background results re-enter through the Events channel.
type TableSession struct {
	State       tabling.TableState
	Reducer     *tabling.Reducer
	Coordinator *sync.Coordinator

	// Events receives coordinator-emitted messages; the grid view waits on
	// it with a tea.Cmd.
	Events chan tea.Msg

	// CellErrors holds the latest server validation message per cell,
	// cleared when the cell is edited again.
	CellErrors map[CellKey]string

	// submitted tracks placeholders already sent for creation, so filling
	// in more cells while the create is in flight does not double-create.
	submitted map[tabling.RowID]bool
}

// NewTableSession wires a session around a reducer and coordinator. The
// returned Dispatch and OnCellErrors functions belong in the coordinator's
// Config.
func NewTableSession(reducer *tabling.Reducer) (*TableSession, func(tabling.Event), func([]sync.CellError)) {
	s := &TableSession{
		Reducer:    reducer,
		Events:     make(chan tea.Msg, 16),
		CellErrors: map[CellKey]string{},
		submitted:  map[tabling.RowID]bool{},
	}
	dispatch := func(ev tabling.Event) { s.Events <- remoteEventMsg{Event: ev} }
	onErrs := func(errs []sync.CellError) { s.Events <- cellErrorsMsg{Errors: errs} }
	return s, dispatch, onErrs
}

// WaitForEvent is the tea.Cmd that delivers the next coordinator message.
func (s *TableSession) WaitForEvent() tea.Cmd {
	return func() tea.Msg { return <-s.Events }
}

// Apply reduces a locally originated event and triggers its HTTP side
// effects. Optimistic: state updates first, the server catches up.
func (s *TableSession) Apply(ctx context.Context, ev tabling.Event) {
	s.State = s.Reducer.Reduce(s.State, ev)

	switch ev := ev.(type) {
	case tabling.DataChangeEvent:
		s.clearErrorsFor(ev.Changes)
		s.Coordinator.SubmitChanges(ctx, ev.Changes)
		s.submitReadyPlaceholders(ctx)
	case tabling.RowDeleteEvent:
		s.Coordinator.DeleteRows(ctx, ev.IDs)
		for _, id := range ev.IDs {
			delete(s.submitted, id)
		}
	case tabling.RowAddToGroupEvent:
		g := ev.Group
		s.Coordinator.UpdateRowGroup(ctx, ev.Rows, &g)
	case tabling.RowRemoveFromGroupEvent:
		s.Coordinator.UpdateRowGroup(ctx, ev.Rows, nil)
	case tabling.GroupDeleteEvent:
		s.Coordinator.DeleteRows(ctx, []tabling.RowID{tabling.GroupRowID(ev.ID)})
	case tabling.GroupUpdateEvent:
		s.Coordinator.UpdateGroup(ctx, ev.ID, ev.Name, ev.Color)
	case tabling.MarkupCreateEvent:
		s.Coordinator.SaveMarkup(ctx, ev.Unit)
	}
}

// ApplyRemote reduces a coordinator-originated event. No side effects: the
// server already knows.
func (s *TableSession) ApplyRemote(ev tabling.Event) {
	s.State = s.Reducer.Reduce(s.State, ev)
	if act, ok := ev.(tabling.PlaceholderActivatedEvent); ok {
		delete(s.submitted, act.ID)
	}
}

// RecordCellErrors stores validation errors for display.
func (s *TableSession) RecordCellErrors(errs []sync.CellError) {
	for _, e := range errs {
		s.CellErrors[CellKey{Row: e.Row, Field: e.Field}] = e.Message
	}
}

// submitReadyPlaceholders creates every placeholder that has all required
// fields and has not been sent yet.
func (s *TableSession) submitReadyPlaceholders(ctx context.Context) {
	mgr := s.Reducer.Assembler.Manager
	var ready []tabling.PlaceholderRow
	for _, row := range s.State.Data {
		ph, ok := row.(tabling.PlaceholderRow)
		if !ok || s.submitted[ph.ID] {
			continue
		}
		if mgr.RowHasRequiredFields(ph) {
			ready = append(ready, ph)
			s.submitted[ph.ID] = true
		}
	}
	if len(ready) > 0 {
		s.Coordinator.SubmitPlaceholders(ctx, ready)
	}
}

func (s *TableSession) clearErrorsFor(changes []tabling.RowChange) {
	for _, ch := range changes {
		for field := range ch.Data {
			delete(s.CellErrors, CellKey{Row: ch.ID, Field: field})
		}
	}
}
