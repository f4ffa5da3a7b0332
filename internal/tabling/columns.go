package tabling

type HTTPMethod string

const (
	MethodPost  HTTPMethod = "POST"
	MethodPatch HTTPMethod = "PATCH"
)

// ColumnKind is the capability tag of a column descriptor. Exactly one kind
// governs each column: read-capable kinds contribute to row construction,
// write-capable kinds to payload construction.
type ColumnKind int

const (
	// ColumnReadOnly flows model -> row only.
	ColumnReadOnly ColumnKind = iota
	// ColumnWriteOnly flows row/change -> payload only; no stored row value.
	ColumnWriteOnly
	// ColumnReadWrite flows both ways. When ModelField is set the row and
	// model sides use distinct field names (the split variant); otherwise a
	// single field name is shared across row, model, and payload.
	ColumnReadWrite
)

// Column describes one logical attribute shared across a row, a model, and
// an HTTP payload. Column sets are caller-supplied; nothing in this package
// hardcodes field names.
type Column struct {
	Kind       ColumnKind
	Field      string // row-side key, also the payload key
	ModelField string // model-side key when split; empty means same as Field

	Required   bool
	AllowNull  bool
	AllowBlank bool
	Methods    []HTTPMethod // applicable write methods; nil means all

	Placeholder any // initial value for fresh placeholder rows
	NullValue   any // this column's representation of "empty"

	// GetRowValue computes the row value from the model instead of a direct
	// model-field read. Required for columns whose value does not exist on
	// the model under any field name.
	GetRowValue func(Model) any

	// HTTPConvert rewrites a value for serialization (e.g. decimal -> string).
	HTTPConvert func(any) any

	// ParseClipboard converts pasted text into a cell value. Nil means the
	// raw string is used. Reporting false rejects the paste for this cell.
	ParseClipboard func(string) (any, bool)

	// FormatClipboard renders a cell value for copy. Nil falls back to
	// default stringification.
	FormatClipboard func(any) string
}

// CanRead reports whether the column contributes to row construction.
func (c Column) CanRead() bool { return c.Kind != ColumnWriteOnly }

// CanWrite reports whether the column contributes to payload construction.
func (c Column) CanWrite() bool { return c.Kind != ColumnReadOnly }

// AppliesTo reports whether the column writes under the given HTTP method.
func (c Column) AppliesTo(m HTTPMethod) bool {
	if !c.CanWrite() {
		return false
	}
	if len(c.Methods) == 0 {
		return true
	}
	for _, cm := range c.Methods {
		if cm == m {
			return true
		}
	}
	return false
}

// ReadField is the model-side field name.
func (c Column) ReadField() string {
	if c.ModelField != "" {
		return c.ModelField
	}
	return c.Field
}

// IsEmpty reports whether v counts as unset for required-field gating:
// nil, the empty string, or the column's configured null value.
func (c Column) IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok && s == "" {
		return true
	}
	return c.NullValue != nil && v == c.NullValue
}
