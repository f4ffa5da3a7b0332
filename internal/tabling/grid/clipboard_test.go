package grid

import (
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/oikos/internal/domain"
	"github.com/alexanderramin/oikos/internal/tabling"
)

func testCols() []tabling.Column {
	parseDec := func(s string) (any, bool) {
		if s == "" {
			return nil, true
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, false
		}
		return &d, true
	}
	return []tabling.Column{
		{Kind: tabling.ColumnReadWrite, Field: "identifier"},
		{Kind: tabling.ColumnReadWrite, Field: "description", AllowBlank: true},
		{Kind: tabling.ColumnReadOnly, Field: "estimated"}, // computed, not a paste target
		{Kind: tabling.ColumnReadWrite, Field: "rate", AllowNull: true, ParseClipboard: parseDec},
	}
}

func modelRow(id int64, data tabling.RowData) tabling.ModelRow {
	return tabling.ModelRow{ID: tabling.ModelRowID(id), Grid: tabling.GridData, Data: data}
}

func groupRow(id int64) tabling.GroupRow {
	return tabling.GroupRowManager{Grid: tabling.GridData}.Create(domain.Group{ID: id, Name: "G"})
}

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestCopyValue(t *testing.T) {
	cols := testCols()
	row := modelRow(1, tabling.RowData{"identifier": "1000", "rate": decimal.New(125, -1)})

	assert.Equal(t, "1000", CopyValue(cols[0], row))
	assert.Equal(t, "12.5", CopyValue(cols[3], row))

	t.Run("null value copies as empty string", func(t *testing.T) {
		empty := modelRow(2, tabling.RowData{"identifier": nil})
		assert.Equal(t, "", CopyValue(cols[0], empty))
	})

	t.Run("group rows copy as empty", func(t *testing.T) {
		assert.Equal(t, "", CopyValue(cols[0], groupRow(10)))
	})
}

func TestParseBlock(t *testing.T) {
	assert.Nil(t, ParseBlock(""))
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, ParseBlock("a\tb\nc\td\n"))
	assert.Equal(t, [][]string{{"a"}}, ParseBlock("a"))
	assert.Equal(t, [][]string{{"a", "b"}}, ParseBlock("a\tb\r\n"))
}

func TestBuildPaste(t *testing.T) {
	cols := testCols()
	data := []tabling.Row{
		modelRow(1, tabling.RowData{"identifier": "1000", "description": "one"}),
		modelRow(2, tabling.RowData{"identifier": "2000", "description": "two"}),
	}

	t.Run("distributes across writable columns, skipping computed ones", func(t *testing.T) {
		// Paste starting at the description column: "estimated" is skipped,
		// so the second cell lands on "rate".
		res, err := BuildPaste(data, cols, CellPosition{Row: 0, Col: 1},
			[][]string{{"crew", "12.5"}}, discard())
		require.NoError(t, err)
		require.Len(t, res.Changes, 1)
		ch := res.Changes[0]
		assert.Equal(t, tabling.ModelRowID(1), ch.ID)
		assert.Equal(t, "crew", ch.Data["description"].NewValue)
		assert.Equal(t, "one", ch.Data["description"].OldValue)
		rate := ch.Data["rate"].NewValue.(*decimal.Decimal)
		assert.True(t, decimal.New(125, -1).Equal(*rate))
	})

	t.Run("too-wide block aborts whole paste", func(t *testing.T) {
		_, err := BuildPaste(data, cols, CellPosition{Row: 0, Col: 1},
			[][]string{{"a", "b", "c"}}, discard())
		assert.ErrorIs(t, err, ErrAmbiguousPaste)
	})

	t.Run("group row shifts the line down", func(t *testing.T) {
		withGroup := []tabling.Row{
			data[0],
			groupRow(10),
			data[1],
		}
		res, err := BuildPaste(withGroup, cols, CellPosition{Row: 1, Col: 0},
			[][]string{{"3000"}}, discard())
		require.NoError(t, err)
		require.Len(t, res.Changes, 1)
		assert.Equal(t, tabling.ModelRowID(2), res.Changes[0].ID)
	})

	t.Run("lines past the last row become adds", func(t *testing.T) {
		res, err := BuildPaste(data, cols, CellPosition{Row: 1, Col: 0},
			[][]string{{"2001"}, {"3000"}, {"4000"}}, discard())
		require.NoError(t, err)
		require.Len(t, res.Changes, 1)
		require.Len(t, res.Adds, 2)
		assert.Equal(t, "3000", res.Adds[0]["identifier"])
		assert.Equal(t, "4000", res.Adds[1]["identifier"])
	})

	t.Run("unparseable cell is skipped, not fatal", func(t *testing.T) {
		res, err := BuildPaste(data, cols, CellPosition{Row: 0, Col: 3},
			[][]string{{"not-a-number"}}, discard())
		require.NoError(t, err)
		assert.Empty(t, res.Changes)
	})
}

func TestCutBuffer(t *testing.T) {
	var buf CutBuffer
	buf.Record(tabling.ModelRowID(1), "identifier", "1000")

	t.Run("different cell leaves the buffer armed", func(t *testing.T) {
		_, ok := buf.Restore(tabling.ModelRowID(2), "identifier")
		assert.False(t, ok)
	})

	t.Run("matching cell yields compensating change once", func(t *testing.T) {
		ch, ok := buf.Restore(tabling.ModelRowID(1), "identifier")
		require.True(t, ok)
		assert.Equal(t, "1000", ch.Data["identifier"].NewValue)

		_, ok = buf.Restore(tabling.ModelRowID(1), "identifier")
		assert.False(t, ok)
	})
}
