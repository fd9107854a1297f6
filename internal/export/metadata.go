package export

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/gibbonslabs/medallion/pkg/relation"
)

// ColumnMeta describes one column in a metadata sidecar.
type ColumnMeta struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Metadata is the sidecar written next to every exported relation.
type Metadata struct {
	Relation   string       `json:"relation"`
	RowCount   int          `json:"row_count"`
	Columns    []ColumnMeta `json:"columns"`
	ExportedAt time.Time    `json:"exported_at"`
}

// MetadataFor builds the sidecar record for a relation.
func MetadataFor(rel *relation.Relation, now time.Time) Metadata {
	cols := make([]ColumnMeta, len(rel.Schema.Columns))
	for i, c := range rel.Schema.Columns {
		cols[i] = ColumnMeta{Name: c.Name, Type: string(c.Type), Nullable: c.Nullable}
	}
	return Metadata{
		Relation:   rel.Schema.Name,
		RowCount:   rel.NumRows(),
		Columns:    cols,
		ExportedAt: now.UTC(),
	}
}

// WriteMetadata writes <dir>/<relation>.meta.json atomically. The
// sidecar uses the same structured-text format as the early-layer data.
func WriteMetadata(rel *relation.Relation, dir string, now time.Time) (string, error) {
	path := filepath.Join(dir, rel.Schema.Name+".meta.json")
	meta := MetadataFor(rel, now)

	err := writeAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err != nil {
		return "", fmt.Errorf("export metadata for %s: %w", rel.Schema.Name, err)
	}
	return path, nil
}
