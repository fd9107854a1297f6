// Package export serializes relations to their layer formats: NDJSON
// for the human-diffable early layers, Parquet for the gold layer, and
// a JSON metadata sidecar per exported relation.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gibbonslabs/medallion/pkg/relation"
)

// WriteJSON exports a relation as NDJSON (one object per line) to
// <dir>/<relation>.json, replacing any prior export atomically.
func WriteJSON(rel *relation.Relation, dir string) (string, error) {
	path := filepath.Join(dir, rel.Schema.Name+".json")

	err := writeAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		names := rel.Schema.ColumnNames()
		for _, row := range rel.Rows {
			obj := make(map[string]any, len(names))
			for i, name := range names {
				obj[name] = jsonValue(row[i])
			}
			if err := enc.Encode(obj); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("export %s: %w", rel.Schema.Name, err)
	}
	return path, nil
}

// jsonValue renders a typed cell in its exported JSON form. Dates
// export as ISO strings; decimals as unquoted exact numbers.
func jsonValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format("2006-01-02")
	case decimal.Decimal:
		return json.Number(x.String())
	default:
		return v
	}
}
