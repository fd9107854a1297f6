package relation

// Type is the declared type of a relation column.
type Type string

// Column types supported by the pipeline. These mirror the types the
// analytical layer declares in its exported metadata.
const (
	Bigint  Type = "BIGINT"
	Double  Type = "DOUBLE"
	Decimal Type = "DECIMAL"
	Boolean Type = "BOOLEAN"
	Varchar Type = "VARCHAR"
	Date    Type = "DATE"
)

// Column describes a single column in a relation schema.
type Column struct {
	// Name is the column name as it appears in exported output.
	Name string

	// Type is the declared column type.
	Type Type

	// Nullable indicates whether the column accepts NULL values.
	// A row whose non-nullable column cannot be populated is rejected
	// during enforcement.
	Nullable bool
}

// Schema describes a named relation: an ordered list of typed columns.
type Schema struct {
	// Name is the relation name (e.g. "silver_customers").
	Name string

	// Columns are the relation's columns in export order.
	Columns []Column
}

// ColumnIndex returns the position of the named column, or -1 if the
// schema has no such column.
func (s Schema) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// ColumnNames returns the column names in schema order.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}
