// Package gold derives the dimensional model: conformed dimensions with
// surrogate keys, a synthesized calendar dimension, and the sales fact
// relation that references them.
package gold

import (
	"fmt"
	"strings"

	"github.com/gibbonslabs/medallion/pkg/relation"
)

// KeyMap maps an encoded natural key to its surrogate key.
type KeyMap map[string]int64

// ContractError reports an upstream invariant violation: a null natural
// key reached the dimension builder even though enforcement should have
// rejected the row. It is fatal and aborts the run.
type ContractError struct {
	Relation string
	Column   string
	Row      int
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("contract violation in %s: null natural key %q at row %d", e.Relation, e.Column, e.Row)
}

// encodeKey builds the natural-key string for one row. Composite keys
// join components with a separator that cannot appear in coerced values.
func encodeKey(row []any, keyIdx []int) (string, int) {
	parts := make([]string, len(keyIdx))
	for i, idx := range keyIdx {
		v := row[idx]
		if v == nil {
			return "", idx
		}
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, "\x1f"), -1
}

// BuildDimension deduplicates rel on the given natural-key columns and
// returns the dimension relation plus the natural-key -> surrogate-key
// mapping. The dimension carries a leading surrogate-key column named
// surrogateCol.
//
// Surrogate keys are assigned sequentially (1..n) in input order, and
// when a natural key appears more than once the first-encountered row
// wins. Both choices are deliberate: they make key assignment
// reproducible across runs on identical input.
func BuildDimension(rel *relation.Relation, name, surrogateCol string, keyCols []string) (*relation.Relation, KeyMap, error) {
	keyIdx := make([]int, len(keyCols))
	for i, col := range keyCols {
		idx := rel.Schema.ColumnIndex(col)
		if idx < 0 {
			return nil, nil, fmt.Errorf("build %s: no natural-key column %q in %s", name, col, rel.Schema.Name)
		}
		keyIdx[i] = idx
	}

	schema := relation.Schema{
		Name:    name,
		Columns: append([]relation.Column{{Name: surrogateCol, Type: relation.Bigint}}, rel.Schema.Columns...),
	}
	dim := relation.New(schema)
	keys := make(KeyMap)

	var next int64 = 1
	for i, row := range rel.Rows {
		key, nullIdx := encodeKey(row, keyIdx)
		if nullIdx >= 0 {
			return nil, nil, &ContractError{
				Relation: rel.Schema.Name,
				Column:   rel.Schema.Columns[nullIdx].Name,
				Row:      i,
			}
		}

		if _, seen := keys[key]; seen {
			// First-encountered row wins for non-key attributes.
			continue
		}

		keys[key] = next
		dim.Append(append([]any{next}, row...))
		next++
	}

	return dim, keys, nil
}

// BuildCustomerDim builds gold_dim_customer keyed by CustomerId.
func BuildCustomerDim(customers *relation.Relation) (*relation.Relation, KeyMap, error) {
	return BuildDimension(customers, "gold_dim_customer", "CustomerKey", []string{"CustomerId"})
}

// BuildProductDim builds gold_dim_product keyed by ProductId.
func BuildProductDim(products *relation.Relation) (*relation.Relation, KeyMap, error) {
	return BuildDimension(products, "gold_dim_product", "ProductKey", []string{"ProductId"})
}

// BuildCountryDim builds gold_dim_country keyed by the standardized
// country name. The dimension is built from the countries relation
// alone and is never filtered by fact-table presence: countries with
// zero sales stay in the dimension, simply unreferenced.
func BuildCountryDim(countries *relation.Relation) (*relation.Relation, KeyMap, error) {
	return BuildDimension(countries, "gold_dim_country", "CountryKey", []string{"Country"})
}
