package tabling

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alexanderramin/oikos/internal/domain"
)

type RowType string

const (
	RowTypeModel       RowType = "model"
	RowTypeGroup       RowType = "group"
	RowTypeMarkup      RowType = "markup"
	RowTypePlaceholder RowType = "placeholder"
	RowTypeFooter      RowType = "footer"
)

// GridID names the grid region a row belongs to.
type GridID string

const (
	GridData   GridID = "data"
	GridFooter GridID = "footer"
	GridPage   GridID = "page"
)

// RowID is a namespaced row identifier. Numeric model ids and the string-
// prefixed group/markup/placeholder ids of the wire format both map onto the
// same comparable struct, so a mixed row array can be discriminated without
// collisions.
type RowID struct {
	Type RowType
	Num  int64
}

func ModelRowID(n int64) RowID       { return RowID{Type: RowTypeModel, Num: n} }
func GroupRowID(n int64) RowID       { return RowID{Type: RowTypeGroup, Num: n} }
func MarkupRowID(n int64) RowID      { return RowID{Type: RowTypeMarkup, Num: n} }
func PlaceholderRowID(n int64) RowID { return RowID{Type: RowTypePlaceholder, Num: n} }

func (id RowID) IsZero() bool { return id.Type == "" }

// String renders the wire form: bare digits for model rows, "type-N" for the
// prefixed namespaces.
func (id RowID) String() string {
	if id.Type == RowTypeModel {
		return strconv.FormatInt(id.Num, 10)
	}
	return fmt.Sprintf("%s-%d", id.Type, id.Num)
}

// Placeholder ids are drawn at random from a range far above anything a
// server sequence will reach, so an unconfirmed row can never be mistaken
// for a confirmed one.
const placeholderIDFloor int64 = 1 << 48

// NewPlaceholderID returns a fresh id from the placeholder namespace.
func NewPlaceholderID() RowID {
	return PlaceholderRowID(placeholderIDFloor + rand.Int64N(placeholderIDFloor))
}

// RowData holds a row's column values keyed by column field.
type RowData map[string]any

// Clone returns a shallow copy. Cell values are treated as immutable.
func (d RowData) Clone() RowData {
	out := make(RowData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Row is the closed set of grid row variants.
type Row interface {
	RowID() RowID
	RowGrid() GridID
	RowData() RowData
	isRow()
}

// ModelRow wraps a server-confirmed entity.
type ModelRow struct {
	ID       RowID
	Grid     GridID
	Data     RowData
	Children []int64 // nested row ids
	Group    *int64  // owning group id, nil when groupless
	Order    string  // server ordering key
}

// PlaceholderRow is a client-only row awaiting server identity. Token is the
// correlation key echoed through bulk-create so the created model can be
// matched back to this row.
type PlaceholderRow struct {
	ID    RowID
	Grid  GridID
	Data  RowData
	Token uuid.UUID
}

// GroupRow renders a group subtotal. Data carries the derived aggregates.
type GroupRow struct {
	ID       RowID
	Grid     GridID
	Data     RowData
	Name     string
	Color    string
	Children []int64 // member model ids
}

// MarkupRow renders a markup adjustment.
type MarkupRow struct {
	ID       RowID
	Grid     GridID
	Data     RowData
	Unit     domain.MarkupUnit
	Rate     decimal.Decimal
	Children []int64 // contributing model ids; empty for flat markups
}

// FooterRow is the singleton aggregate row of a grid region.
type FooterRow struct {
	ID   RowID
	Grid GridID
	Data RowData
}

func (r ModelRow) RowID() RowID     { return r.ID }
func (r ModelRow) RowGrid() GridID  { return r.Grid }
func (r ModelRow) RowData() RowData { return r.Data }
func (r ModelRow) isRow()           {}

func (r PlaceholderRow) RowID() RowID     { return r.ID }
func (r PlaceholderRow) RowGrid() GridID  { return r.Grid }
func (r PlaceholderRow) RowData() RowData { return r.Data }
func (r PlaceholderRow) isRow()           {}

func (r GroupRow) RowID() RowID     { return r.ID }
func (r GroupRow) RowGrid() GridID  { return r.Grid }
func (r GroupRow) RowData() RowData { return r.Data }
func (r GroupRow) isRow()           {}

func (r MarkupRow) RowID() RowID     { return r.ID }
func (r MarkupRow) RowGrid() GridID  { return r.Grid }
func (r MarkupRow) RowData() RowData { return r.Data }
func (r MarkupRow) isRow()           {}

func (r FooterRow) RowID() RowID     { return r.ID }
func (r FooterRow) RowGrid() GridID  { return r.Grid }
func (r FooterRow) RowData() RowData { return r.Data }
func (r FooterRow) isRow()           {}

// Editable reports whether a row accepts cell edits at all. Group rows are
// edited only through group events, footer rows never.
func Editable(r Row) bool {
	switch r.(type) {
	case ModelRow, PlaceholderRow, MarkupRow:
		return true
	default:
		return false
	}
}
