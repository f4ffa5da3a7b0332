package grid

import "github.com/alexanderramin/oikos/internal/tabling"

// Signal is the out-of-band result of a navigation step.
type Signal int

const (
	SignalNone Signal = iota
	// SignalNewRowRequired means navigation ran past the last data row; the
	// caller decides whether to create a row there.
	SignalNewRowRequired
)

// NextEditableRow scans from start (exclusive) in steps of delta for the
// next row that accepts edits, skipping group and footer rows.
func NextEditableRow(data []tabling.Row, start, delta int) (int, bool) {
	for i := start + delta; i >= 0 && i < len(data); i += delta {
		if tabling.Editable(data[i]) {
			return i, true
		}
	}
	return -1, false
}

// NextVertical moves the focus up (delta -1) or down (delta +1), landing
// only on editable rows. Moving down past the last editable row signals
// that a new row is required instead of stopping silently.
func NextVertical(data []tabling.Row, pos CellPosition, delta int) (CellPosition, Signal) {
	if idx, ok := NextEditableRow(data, pos.Row, delta); ok {
		return CellPosition{Row: idx, Col: pos.Col}, SignalNone
	}
	if delta > 0 {
		return pos, SignalNewRowRequired
	}
	return pos, SignalNone
}

// NextWritableColumn finds the next writable column strictly after col, or
// -1 when none remains on the row.
func NextWritableColumn(cols []tabling.Column, col int) int {
	for c := col + 1; c < len(cols); c++ {
		if cols[c].CanWrite() {
			return c
		}
	}
	return -1
}

// FirstWritableColumn finds the first writable column, or -1.
func FirstWritableColumn(cols []tabling.Column) int {
	return NextWritableColumn(cols, -1)
}

// NextHorizontal advances focus to the next writable column; tabbing out of
// the last writable column jumps to the first writable column of the next
// editable row. Past the last row it signals a new row is required.
func NextHorizontal(data []tabling.Row, cols []tabling.Column, pos CellPosition) (CellPosition, Signal) {
	if c := NextWritableColumn(cols, pos.Col); c >= 0 {
		return CellPosition{Row: pos.Row, Col: c}, SignalNone
	}
	first := FirstWritableColumn(cols)
	if first < 0 {
		return pos, SignalNone
	}
	if idx, ok := NextEditableRow(data, pos.Row, 1); ok {
		return CellPosition{Row: idx, Col: first}, SignalNone
	}
	return CellPosition{Row: pos.Row, Col: first}, SignalNewRowRequired
}
