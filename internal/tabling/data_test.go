package tabling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/oikos/internal/domain"
)

func rowIDs(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.RowID().String()
	}
	return out
}

func TestCreateTableRows(t *testing.T) {
	asm := testAssembler(t)

	t.Run("group row directly after its members", func(t *testing.T) {
		// The canonical scenario: one groupless model, two grouped.
		models := []Model{line(1, "a"), line(2, "b"), line(3, "c")}
		groups := []domain.Group{groupOf(10, "G", 2, 3)}

		rows := asm.CreateTableRows(models, groups)
		assert.Equal(t, []string{"1", "2", "3", "group-10"}, rowIDs(rows))
	})

	t.Run("clusters ordered by first member, groupless last", func(t *testing.T) {
		models := []Model{line(1, "a"), line(2, "b"), line(3, "c"), line(4, "d"), line(5, "e")}
		groups := []domain.Group{
			groupOf(20, "Second", 4, 2),
			groupOf(10, "First", 1, 3),
		}

		rows := asm.CreateTableRows(models, groups)
		// Group 10's first member (model 1) precedes group 20's (model 2);
		// members keep original relative order within each cluster.
		assert.Equal(t, []string{
			"1", "3", "group-10",
			"2", "4", "group-20",
			"5",
		}, rowIDs(rows))
	})

	t.Run("group rows never precede their children", func(t *testing.T) {
		models := []Model{line(3, "c"), line(1, "a"), line(2, "b")}
		groups := []domain.Group{groupOf(10, "G", 1, 2), groupOf(11, "H", 3)}

		rows := asm.CreateTableRows(models, groups)
		seen := map[RowID]int{}
		for i, r := range rows {
			seen[r.RowID()] = i
		}
		for _, g := range groups {
			gi := seen[GroupRowID(g.ID)]
			for _, c := range g.Children {
				assert.Less(t, seen[ModelRowID(c)], gi,
					"group %d must follow child %d", g.ID, c)
			}
		}
	})

	t.Run("model referencing unknown group degrades to groupless", func(t *testing.T) {
		missing := int64(404)
		orphan := line(9, "z")
		orphan.group = &missing

		rows := asm.CreateTableRows([]Model{orphan}, nil)
		require.Len(t, rows, 1)
		mr := rows[0].(ModelRow)
		assert.Nil(t, mr.Group)
	})

	t.Run("empty groups trail all data rows", func(t *testing.T) {
		models := []Model{line(1, "a"), line(2, "b")}
		groups := []domain.Group{groupOf(30, "Empty"), groupOf(10, "G", 1)}

		rows := asm.CreateTableRows(models, groups)
		assert.Equal(t, []string{"1", "group-10", "2", "group-30"}, rowIDs(rows))
	})

	t.Run("secondary ordering applies only within member sets", func(t *testing.T) {
		asm := testAssembler(t)
		asm.Ordering = []FieldOrder{{Field: "identifier", Ascending: true}}

		models := []Model{
			line(1, "zz"), line(2, "bb"), line(3, "aa"), // group members
			line(4, "m"), line(5, "k"), // groupless
		}
		groups := []domain.Group{groupOf(10, "G", 1, 2, 3)}

		rows := asm.CreateTableRows(models, groups)
		assert.Equal(t, []string{"3", "2", "1", "group-10", "5", "4"}, rowIDs(rows))
	})

	t.Run("descending ordering", func(t *testing.T) {
		asm := testAssembler(t)
		asm.Ordering = []FieldOrder{{Field: "identifier", Ascending: false}}

		rows := asm.CreateTableRows([]Model{line(1, "a"), line(2, "b")}, nil)
		assert.Equal(t, []string{"2", "1"}, rowIDs(rows))
	})

	t.Run("group row mirrors name, color, and children", func(t *testing.T) {
		models := []Model{line(2, "b")}
		groups := []domain.Group{{ID: 10, Name: "G", Color: "#ff7165", Children: []int64{2}}}

		rows := asm.CreateTableRows(models, groups)
		gr := rows[1].(GroupRow)
		assert.Equal(t, "G", gr.Name)
		assert.Equal(t, "#ff7165", gr.Color)
		assert.Equal(t, []int64{2}, gr.Children)
		mr := rows[0].(ModelRow)
		require.NotNil(t, mr.Group)
		assert.Equal(t, int64(10), *mr.Group)
	})
}
