package export

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/shopspring/decimal"

	"github.com/gibbonslabs/medallion/pkg/relation"
)

// Decimal columns export as Decimal128 with this precision/scale.
// Scale 2 covers the monetary measures the pipeline produces.
const (
	decimalPrecision = 18
	decimalScale     = 2
)

// arrowType maps a relation column type to its Arrow equivalent.
func arrowType(t relation.Type) (arrow.DataType, error) {
	switch t {
	case relation.Bigint:
		return arrow.PrimitiveTypes.Int64, nil
	case relation.Double:
		return arrow.PrimitiveTypes.Float64, nil
	case relation.Decimal:
		return &arrow.Decimal128Type{Precision: decimalPrecision, Scale: decimalScale}, nil
	case relation.Boolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case relation.Varchar:
		return arrow.BinaryTypes.String, nil
	case relation.Date:
		return arrow.FixedWidthTypes.Date32, nil
	default:
		return nil, fmt.Errorf("unknown column type %q", t)
	}
}

// arrowSchema converts a relation schema to an Arrow schema.
func arrowSchema(s relation.Schema) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(s.Columns))
	for i, c := range s.Columns {
		dt, err := arrowType(c.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		fields[i] = arrow.Field{Name: c.Name, Type: dt, Nullable: c.Nullable}
	}
	return arrow.NewSchema(fields, nil), nil
}

// WriteParquet exports a relation as a snappy-compressed Parquet file
// to <dir>/<relation>.parquet, replacing any prior export atomically.
func WriteParquet(rel *relation.Relation, dir string) (string, error) {
	path := filepath.Join(dir, rel.Schema.Name+".parquet")

	schema, err := arrowSchema(rel.Schema)
	if err != nil {
		return "", fmt.Errorf("export %s: %w", rel.Schema.Name, err)
	}

	mem := memory.DefaultAllocator
	rb := array.NewRecordBuilder(mem, schema)
	defer rb.Release()

	for _, row := range rel.Rows {
		for i, col := range rel.Schema.Columns {
			if err := appendValue(rb.Field(i), col.Type, row[i]); err != nil {
				return "", fmt.Errorf("export %s: column %s: %w", rel.Schema.Name, col.Name, err)
			}
		}
	}

	rec := rb.NewRecord()
	defer rec.Release()

	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	chunkSize := int64(rel.NumRows())
	if chunkSize == 0 {
		chunkSize = 1
	}
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))

	err = writeAtomic(path, func(w io.Writer) error {
		// Hide any Close method on w: the parquet writer closes an
		// io.Closer sink, which would break writeAtomic's sync+rename.
		return pqarrow.WriteTable(tbl, struct{ io.Writer }{w}, chunkSize, props, pqarrow.DefaultWriterProps())
	})
	if err != nil {
		return "", fmt.Errorf("export %s: %w", rel.Schema.Name, err)
	}
	return path, nil
}

// appendValue appends one typed cell to its arrow column builder.
func appendValue(b array.Builder, t relation.Type, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}

	switch t {
	case relation.Bigint:
		x, ok := v.(int64)
		if !ok {
			return fmt.Errorf("expected int64, got %T", v)
		}
		b.(*array.Int64Builder).Append(x)
	case relation.Double:
		x, ok := v.(float64)
		if !ok {
			return fmt.Errorf("expected float64, got %T", v)
		}
		b.(*array.Float64Builder).Append(x)
	case relation.Decimal:
		x, ok := v.(decimal.Decimal)
		if !ok {
			return fmt.Errorf("expected decimal, got %T", v)
		}
		scaled := x.Round(decimalScale).Shift(decimalScale)
		if !scaled.IsInteger() {
			return fmt.Errorf("decimal %s does not fit scale %d", x, decimalScale)
		}
		b.(*array.Decimal128Builder).Append(decimal128.FromI64(scaled.IntPart()))
	case relation.Boolean:
		x, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		b.(*array.BooleanBuilder).Append(x)
	case relation.Varchar:
		x, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		b.(*array.StringBuilder).Append(x)
	case relation.Date:
		x, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("expected date, got %T", v)
		}
		b.(*array.Date32Builder).Append(arrow.Date32FromTime(x))
	default:
		return fmt.Errorf("unknown column type %q", t)
	}
	return nil
}
