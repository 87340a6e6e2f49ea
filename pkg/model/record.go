// pkg/model/record.go
package model

// Record is a raw row from a source: field name to untyped scalar.
// Values arrive as strings, numbers or nil and are never mutated in place;
// cleaning always produces a new value.
type Record map[string]interface{}

// NormalizedRecord maps field name to a typed, canonical value
// (time.Time, int64, float64, decimal, canonical string).
type NormalizedRecord map[string]interface{}

// Batch is an ordered tabular batch as received from an extraction source.
// Columns preserves the source column order; Rows preserves row order.
type Batch struct {
	Columns []string
	Rows    []Record
}

// NewBatch creates a batch with the given columns and pre-allocated row slice.
func NewBatch(columns []string, capacity int) *Batch {
	return &Batch{
		Columns: columns,
		Rows:    make([]Record, 0, capacity),
	}
}

// HasColumn reports whether the batch declares the named column.
func (b *Batch) HasColumn(name string) bool {
	for _, c := range b.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows in the batch.
func (b *Batch) Len() int {
	return len(b.Rows)
}

// FieldError records one field-level validation failure within a row.
type FieldError struct {
	Field  string
	Raw    interface{}
	Reason string
}

// ValidationFailure is the aggregate outcome for a row with at least one
// failing field or cross-field rule. Immutable after creation, and carries
// no timestamp: cleaning the same batch twice yields identical content.
// Sinks stamp entries when the log is written.
type ValidationFailure struct {
	RowID  int
	Errors []FieldError
	Raw    Record
}

// BatchResult is the valid/invalid partition produced by cleaning one batch.
// Both sequences preserve input row order.
type BatchResult struct {
	Valid   []NormalizedRecord
	Invalid []ValidationFailure
}

// ValidCount returns the number of rows that cleaned successfully.
func (r *BatchResult) ValidCount() int {
	return len(r.Valid)
}

// InvalidCount returns the number of rows that failed validation.
func (r *BatchResult) InvalidCount() int {
	return len(r.Invalid)
}
