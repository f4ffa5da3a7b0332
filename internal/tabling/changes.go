package tabling

import "errors"

var (
	// ErrNoChanges indicates a merge was requested with zero changes.
	ErrNoChanges = errors.New("no changes to merge")
	// ErrMismatchedRows indicates changes for different rows were merged.
	ErrMismatchedRows = errors.New("changes reference different rows")
)

// CellChange is one field's old/new value pair.
type CellChange struct {
	OldValue any
	NewValue any
}

// RowChangeData is a sparse per-field delta.
type RowChangeData map[string]CellChange

// RowChange is a sparse delta for a single row.
type RowChange struct {
	ID   RowID
	Data RowChangeData
}

// MergeChanges collapses several changes to the same row into one,
// last-write-wins per field while preserving the earliest old value, so
// rapid keystrokes or paste bursts become a single server request. Both
// error cases are caller contract violations, not data conditions.
func MergeChanges(changes ...RowChange) (RowChange, error) {
	if len(changes) == 0 {
		return RowChange{}, ErrNoChanges
	}
	merged := RowChange{ID: changes[0].ID, Data: RowChangeData{}}
	for _, ch := range changes {
		if ch.ID != merged.ID {
			return RowChange{}, ErrMismatchedRows
		}
		for field, cell := range ch.Data {
			if prev, ok := merged.Data[field]; ok {
				cell.OldValue = prev.OldValue
			}
			merged.Data[field] = cell
		}
	}
	return merged, nil
}

// Consolidate merges a batch of changes down to at most one change per row,
// preserving the order rows first appeared in.
func Consolidate(changes []RowChange) []RowChange {
	var order []RowID
	byRow := make(map[RowID][]RowChange)
	for _, ch := range changes {
		if _, seen := byRow[ch.ID]; !seen {
			order = append(order, ch.ID)
		}
		byRow[ch.ID] = append(byRow[ch.ID], ch)
	}
	out := make([]RowChange, 0, len(order))
	for _, id := range order {
		// Same row id throughout, so MergeChanges cannot fail.
		merged, _ := MergeChanges(byRow[id]...)
		out = append(out, merged)
	}
	return out
}
