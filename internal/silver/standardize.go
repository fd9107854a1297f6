package silver

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gibbonslabs/medallion/pkg/relation"
)

// titleCaser folds each word to title case ("  jane doe " -> "Jane Doe").
// cases.Title also lowers the remainder of each word, so the mapping is
// idempotent.
var titleCaser = cases.Title(language.English)

func trimTitle(s string) string { return titleCaser.String(strings.TrimSpace(s)) }
func trimUpper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
func trimLower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
func trimSpace(s string) string { return strings.TrimSpace(s) }

// fieldRules maps relation name -> column -> normalization function.
// Every rule is deterministic and idempotent; applying Standardize to
// already-standardized data is a no-op.
var fieldRules = map[string]map[string]func(string) string{
	"silver_customers": {
		"Name":    trimTitle,
		"Address": trimSpace,
		"City":    trimTitle,
		"Country": trimTitle,
		"Email":   trimLower,
	},
	"silver_products": {
		"Name":                trimSpace,
		"ManufacturedCountry": trimTitle,
	},
	"silver_countries": {
		"Country":  trimTitle,
		"Currency": trimUpper,
		"Name":     trimTitle,
		"Region":   trimTitle,
	},
	// silver_orders and silver_sales are purely numeric/date relations
	// with nothing to normalize.
}

// Standardize applies the normalization rules registered for the
// relation, in place. Relations with no rules pass through untouched.
// NULL cells stay NULL.
func Standardize(rel *relation.Relation) {
	rules, ok := fieldRules[rel.Schema.Name]
	if !ok {
		return
	}

	for col, fn := range rules {
		idx := rel.Schema.ColumnIndex(col)
		if idx < 0 {
			continue
		}
		for _, row := range rel.Rows {
			if s, ok := row[idx].(string); ok {
				row[idx] = fn(s)
			}
		}
	}
}
