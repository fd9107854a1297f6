// Package relation defines the in-memory relational model shared by all
// pipeline stages: typed schemas, fully materialized relations, and the
// loosely-typed staged form in which source data arrives.
//
// Cell values in a typed relation are one of: int64 (BIGINT), float64
// (DOUBLE), decimal.Decimal (DECIMAL), bool (BOOLEAN), string (VARCHAR),
// time.Time at midnight UTC (DATE), or nil for NULL.
package relation

// Staged is a loosely-typed relation as loaded from the staging layer.
// No typing is guaranteed; every field is a candidate for coercion
// failure during enforcement.
type Staged []map[string]any

// Relation is a fully materialized, schema-typed set of rows. Rows are
// positional and aligned with Schema.Columns.
type Relation struct {
	Schema Schema
	Rows   [][]any
}

// New creates an empty relation with the given schema.
func New(schema Schema) *Relation {
	return &Relation{Schema: schema}
}

// Append adds a row. The row must be aligned with the schema's columns;
// callers are expected to construct rows positionally.
func (r *Relation) Append(row []any) {
	r.Rows = append(r.Rows, row)
}

// NumRows returns the number of rows in the relation.
func (r *Relation) NumRows() int {
	return len(r.Rows)
}

// Value returns the cell at the given row for the named column, or nil
// if the column does not exist. Intended for tests and small lookups;
// hot paths should resolve the column index once via Schema.ColumnIndex.
func (r *Relation) Value(row int, column string) any {
	idx := r.Schema.ColumnIndex(column)
	if idx < 0 {
		return nil
	}
	return r.Rows[row][idx]
}
