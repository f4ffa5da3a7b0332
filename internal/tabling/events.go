package tabling

import "github.com/alexanderramin/oikos/internal/domain"

// Event is the closed set of table mutation intents. Grid widgets translate
// user gestures into events; the sync layer translates applied events into
// HTTP calls and server responses back into events.
type Event interface{ isEvent() }

// RequestEvent marks the start of a table fetch: data clears and the table
// enters its loading state.
type RequestEvent struct{}

// ResponseEvent replaces models, groups, and rows wholesale. Server
// responses are the authoritative source of truth, so the table is rebuilt
// rather than incrementally reconciled.
type ResponseEvent struct {
	Models []Model
	Groups []domain.Group
}

// DataChangeEvent applies one or more cell edits.
type DataChangeEvent struct {
	Changes []RowChange
}

// RowAddEvent appends freshly created placeholder rows. Ids are drawn by
// the caller from the placeholder namespace and never reused.
type RowAddEvent struct {
	Rows []PlaceholderRow
}

// RowDeleteEvent removes rows, detaching each from its group first.
type RowDeleteEvent struct {
	IDs []RowID
}

// RowRemoveFromGroupEvent removes member rows from a specific group.
type RowRemoveFromGroupEvent struct {
	Rows  []RowID
	Group int64
}

// RowAddToGroupEvent adds member rows to a group, deduplicated.
type RowAddToGroupEvent struct {
	Rows  []RowID
	Group int64
}

// GroupDeleteEvent removes a group entirely; member rows become groupless.
type GroupDeleteEvent struct {
	ID int64
}

// GroupUpdateEvent shallow-merges name/color onto an existing group.
type GroupUpdateEvent struct {
	ID    int64
	Name  *string
	Color *string
}

// GroupAddEvent appends a new group and rebuilds the row array, since group
// insertion changes row ordering non-locally.
type GroupAddEvent struct {
	Group domain.Group
}

// MarkupCreateEvent asks for a new markup of the given unit. Creation is
// server-first: no row appears until the created markup returns as a
// MarkupAddEvent.
type MarkupCreateEvent struct {
	Unit domain.MarkupUnit
}

// MarkupAddEvent inserts the markup's row, or replaces it when a row with
// the same id already exists.
type MarkupAddEvent struct {
	Markup domain.Markup
}

// PlaceholderActivatedEvent supersedes a placeholder with the confirmed
// model the server created for it.
type PlaceholderActivatedEvent struct {
	ID    RowID
	Model Model
}

func (RequestEvent) isEvent()              {}
func (ResponseEvent) isEvent()             {}
func (DataChangeEvent) isEvent()           {}
func (RowAddEvent) isEvent()               {}
func (RowDeleteEvent) isEvent()            {}
func (RowRemoveFromGroupEvent) isEvent()   {}
func (RowAddToGroupEvent) isEvent()        {}
func (GroupDeleteEvent) isEvent()          {}
func (GroupUpdateEvent) isEvent()          {}
func (GroupAddEvent) isEvent()             {}
func (MarkupCreateEvent) isEvent()         {}
func (MarkupAddEvent) isEvent()            {}
func (PlaceholderActivatedEvent) isEvent() {}
