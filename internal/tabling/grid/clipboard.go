// Package grid translates grid-level gestures — clipboard operations, cell
// navigation, row menus — into the table change-event vocabulary. It knows
// nothing about any concrete grid widget; renderers drive it through the
// Adapter interface.
package grid

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alexanderramin/oikos/internal/tabling"
)

// ErrAmbiguousPaste indicates a pasted block wider than the writable columns
// available at the paste position; guessing a column mapping is unsafe, so
// the paste is aborted whole.
var ErrAmbiguousPaste = errors.New("pasted block wider than writable columns")

// CellPosition addresses a cell by row index into the table's data array and
// column index into the visible column set.
type CellPosition struct {
	Row int
	Col int
}

// CopyValue renders one cell for the clipboard. Only rows backed by data
// copy; a group or footer cell copies as empty. The column's null value
// renders as the empty string.
func CopyValue(col tabling.Column, row tabling.Row) string {
	if !tabling.Editable(row) {
		return ""
	}
	v, ok := row.RowData()[col.Field]
	if !ok || col.IsEmpty(v) {
		return ""
	}
	if col.FormatClipboard != nil {
		return col.FormatClipboard(v)
	}
	return fmt.Sprint(v)
}

// ParseBlock splits raw clipboard text into a rectangular block of cells:
// lines then tab-separated values.
func ParseBlock(text string) [][]string {
	text = strings.TrimSuffix(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	block := make([][]string, len(lines))
	for i, line := range lines {
		block[i] = strings.Split(line, "\t")
	}
	return block
}

// PasteResult is the event material a paste produces: changes for existing
// rows and raw data for rows to be created past the table's end.
type PasteResult struct {
	Changes []tabling.RowChange
	Adds    []tabling.RowData
}

// BuildPaste distributes a clipboard block across the writable columns at
// and after the focused column. Non-writable columns are skipped entirely
// when counting destinations. A block landing on a group row shifts down
// onto the row beneath it; lines past the last row become row additions.
// A block wider than the available writable columns aborts with
// ErrAmbiguousPaste and no partial result.
func BuildPaste(data []tabling.Row, cols []tabling.Column, focus CellPosition, block [][]string, logger *slog.Logger) (PasteResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(block) == 0 {
		return PasteResult{}, nil
	}

	var targets []tabling.Column
	for c := focus.Col; c < len(cols); c++ {
		if cols[c].CanWrite() {
			targets = append(targets, cols[c])
		}
	}
	width := 0
	for _, line := range block {
		if len(line) > width {
			width = len(line)
		}
	}
	if width > len(targets) {
		logger.Warn("paste aborted: ambiguous column mapping",
			"block_width", width, "writable_columns", len(targets))
		return PasteResult{}, fmt.Errorf("%d cells into %d writable columns: %w",
			width, len(targets), ErrAmbiguousPaste)
	}

	var result PasteResult
	rowIdx := focus.Row
	for _, cells := range block {
		// Group and footer rows take no data; the line lands beneath them.
		for rowIdx < len(data) && !tabling.Editable(data[rowIdx]) {
			rowIdx++
		}

		if rowIdx >= len(data) {
			add := tabling.RowData{}
			for i, text := range cells {
				if v, ok := parseCell(targets[i], text, logger); ok {
					add[targets[i].Field] = v
				}
			}
			result.Adds = append(result.Adds, add)
			rowIdx++
			continue
		}

		row := data[rowIdx]
		change := tabling.RowChange{ID: row.RowID(), Data: tabling.RowChangeData{}}
		for i, text := range cells {
			col := targets[i]
			v, ok := parseCell(col, text, logger)
			if !ok {
				continue
			}
			change.Data[col.Field] = tabling.CellChange{
				OldValue: row.RowData()[col.Field],
				NewValue: v,
			}
		}
		if len(change.Data) > 0 {
			result.Changes = append(result.Changes, change)
		}
		rowIdx++
	}
	return result, nil
}

func parseCell(col tabling.Column, text string, logger *slog.Logger) (any, bool) {
	if col.ParseClipboard == nil {
		return text, true
	}
	v, ok := col.ParseClipboard(text)
	if !ok {
		logger.Warn("unparseable cell skipped", "field", col.Field, "value", text)
		return nil, false
	}
	return v, true
}

// CutBuffer tracks the single in-flight cut so the cell's prior value can be
// restored when the cut source is consumed. A new cut supersedes the last.
type CutBuffer struct {
	id    tabling.RowID
	field string
	prior any
	armed bool
}

// Record notes a fresh cut of prior from the given cell.
func (b *CutBuffer) Record(id tabling.RowID, field string, prior any) {
	b.id, b.field, b.prior, b.armed = id, field, prior, true
}

// Restore returns the compensating change for the recorded cut, if the
// given cell is the one that was cut. The buffer disarms either way a
// match occurs.
func (b *CutBuffer) Restore(id tabling.RowID, field string) (tabling.RowChange, bool) {
	if !b.armed || b.id != id || b.field != field {
		return tabling.RowChange{}, false
	}
	b.armed = false
	return tabling.RowChange{
		ID: b.id,
		Data: tabling.RowChangeData{
			b.field: {OldValue: nil, NewValue: b.prior},
		},
	}, true
}

// Clear disarms the buffer.
func (b *CutBuffer) Clear() { b.armed = false }
