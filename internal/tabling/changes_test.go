package tabling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeChanges(t *testing.T) {
	id := ModelRowID(1)

	t.Run("last write wins per field, earliest old value kept", func(t *testing.T) {
		merged, err := MergeChanges(
			RowChange{ID: id, Data: RowChangeData{
				"identifier": {OldValue: "1000", NewValue: "1001"},
			}},
			RowChange{ID: id, Data: RowChangeData{
				"identifier":  {OldValue: "1001", NewValue: "1002"},
				"description": {OldValue: "", NewValue: "Crew"},
			}},
		)
		require.NoError(t, err)
		assert.Equal(t, id, merged.ID)
		assert.Equal(t, CellChange{OldValue: "1000", NewValue: "1002"}, merged.Data["identifier"])
		assert.Equal(t, CellChange{OldValue: "", NewValue: "Crew"}, merged.Data["description"])
	})

	t.Run("zero changes is a contract violation", func(t *testing.T) {
		_, err := MergeChanges()
		assert.ErrorIs(t, err, ErrNoChanges)
	})

	t.Run("different rows is a contract violation", func(t *testing.T) {
		_, err := MergeChanges(
			RowChange{ID: ModelRowID(1), Data: RowChangeData{}},
			RowChange{ID: ModelRowID(2), Data: RowChangeData{}},
		)
		assert.ErrorIs(t, err, ErrMismatchedRows)
	})
}

func TestConsolidate(t *testing.T) {
	changes := []RowChange{
		{ID: ModelRowID(1), Data: RowChangeData{"identifier": {NewValue: "a"}}},
		{ID: ModelRowID(2), Data: RowChangeData{"identifier": {NewValue: "b"}}},
		{ID: ModelRowID(1), Data: RowChangeData{"description": {NewValue: "c"}}},
	}

	out := Consolidate(changes)
	require.Len(t, out, 2)
	assert.Equal(t, ModelRowID(1), out[0].ID)
	assert.Equal(t, "a", out[0].Data["identifier"].NewValue)
	assert.Equal(t, "c", out[0].Data["description"].NewValue)
	assert.Equal(t, ModelRowID(2), out[1].ID)
}

func TestRowIDNamespaces(t *testing.T) {
	assert.Equal(t, "42", ModelRowID(42).String())
	assert.Equal(t, "group-10", GroupRowID(10).String())
	assert.Equal(t, "markup-3", MarkupRowID(3).String())

	// Namespaced ids never collide even with equal numeric parts.
	assert.NotEqual(t, ModelRowID(10), GroupRowID(10))

	ph := NewPlaceholderID()
	assert.Equal(t, RowTypePlaceholder, ph.Type)
	assert.GreaterOrEqual(t, ph.Num, placeholderIDFloor)
}
