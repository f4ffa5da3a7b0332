// Package tabling implements the tabular data model behind the budget grids:
// declarative column descriptors, typed row variants, the table assembler,
// and the change-event reducer. It is deliberately free of any rendering or
// transport concern; callers feed it models and change events and read back
// ordered rows.
package tabling

// Model is a server-confirmed entity that can back a grid row. Attribute
// access is by field name so that column configurations, not this package,
// decide which fields exist.
type Model interface {
	ModelID() int64
	Value(field string) (any, bool)
}

// MutableModel additionally supports field writes, used when merging local
// row changes back onto the cached model set. SetValue reports false for
// fields that do not exist on the model or are not writable; callers treat
// that as "row-only" and skip the field.
type MutableModel interface {
	Model
	SetValue(field string, v any) bool
}

// Source is the tagged union of shapes a column value can be read from.
// Dispatch is an exhaustive type switch, never shape probing.
type Source interface{ isSource() }

// ModelSource reads from a server model.
type ModelSource struct{ Model Model }

// RowSource reads from an existing row's stored data.
type RowSource struct{ Row Row }

// ChangeSource reads the new value out of a row change.
type ChangeSource struct{ Change RowChange }

// ChangeDataSource reads the new value out of bare change data.
type ChangeDataSource struct{ Data RowChangeData }

func (ModelSource) isSource()      {}
func (RowSource) isSource()        {}
func (ChangeSource) isSource()     {}
func (ChangeDataSource) isSource() {}
