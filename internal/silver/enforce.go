// Package silver builds the silver layer: it enforces types and quality
// rules over staged relations and standardizes attribute representations
// so the gold layer can model them.
package silver

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gibbonslabs/medallion/pkg/relation"
)

// Report summarizes enforcement for one relation. No row is dropped
// without being counted here.
type Report struct {
	Relation     string
	InputRows    int
	RejectedRows int
	OutputRows   int
}

// CountryAliases maps silver_countries column names to the free-form
// headers the staged source uses for the same fields.
var CountryAliases = map[string]string{
	"AreaSqMi":        "Area (sq. mi.)",
	"PopDensity":      "Pop. Density (per sq. mi.)",
	"CoastlineRatio":  "Coastline (coast per area ratio)",
	"NetMigration":    "Net migration",
	"InfantMortality": "Infant mortality (per 1000 births)",
	"GDPPerCapita":    "GDP ($ per capita)",
	"LiteracyPct":     "Literacy (%)",
	"PhonesPer1000":   "Phones (per 1000)",
	"ArablePct":       "Arable (%)",
	"CropsPct":        "Crops (%)",
	"OtherLandPct":    "Other (%)",
}

// Enforce coerces staged rows to the target schema. A row is rejected,
// counted, and excluded when a non-nullable column is missing, null, or
// fails coercion; nullable columns that fail coercion are set to NULL.
// aliases maps target column names to alternate source field names and
// may be nil.
func Enforce(staged relation.Staged, schema relation.Schema, aliases map[string]string, logger *slog.Logger) (*relation.Relation, Report) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	out := relation.New(schema)
	report := Report{Relation: schema.Name, InputRows: len(staged)}

	for _, raw := range staged {
		row := make([]any, len(schema.Columns))
		ok := true

		for i, col := range schema.Columns {
			v, present := raw[col.Name]
			if !present && aliases != nil {
				if alt, has := aliases[col.Name]; has {
					v = raw[alt]
				}
			}

			typed, err := Coerce(v, col.Type)
			if err != nil || typed == nil {
				if !col.Nullable {
					ok = false
					break
				}
				typed = nil
			}
			row[i] = typed
		}

		if !ok {
			report.RejectedRows++
			continue
		}
		out.Append(row)
	}

	report.OutputRows = out.NumRows()
	logger.Info("enforced relation",
		"relation", schema.Name,
		"input_rows", report.InputRows,
		"rejected_rows", report.RejectedRows,
		"output_rows", report.OutputRows)

	return out, report
}

// Coerce converts a raw staged value to the given column type. A nil
// input stays nil with no error; unconvertible values return an error.
func Coerce(v any, t relation.Type) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch t {
	case relation.Bigint:
		return toInt64(v)
	case relation.Double:
		return toFloat64(v)
	case relation.Decimal:
		return toDecimal(v)
	case relation.Boolean:
		return toBool(v)
	case relation.Varchar:
		return toString(v)
	case relation.Date:
		return toDate(v)
	default:
		return nil, fmt.Errorf("unknown column type %q", t)
	}
}

func toInt64(v any) (any, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float64:
		if x != float64(int64(x)) {
			return nil, fmt.Errorf("value %v is not integral", x)
		}
		return int64(x), nil
	case float32:
		return toInt64(float64(x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to BIGINT: %w", x, err)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to BIGINT", v)
	}
}

func toFloat64(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, nil
		}
		// Some sources use comma decimal separators.
		s = strings.ReplaceAll(s, ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to DOUBLE: %w", x, err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to DOUBLE", v)
	}
}

func toDecimal(v any) (any, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, nil
		}
		// Same comma normalization as toFloat64.
		s = strings.ReplaceAll(s, ",", ".")
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to DECIMAL: %w", x, err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to DECIMAL", v)
	}
}

func toBool(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case int:
		return x != 0, nil
	case float64:
		return x != 0, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, nil
		}
		b, err := strconv.ParseBool(strings.ToLower(s))
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to BOOLEAN: %w", x, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to BOOLEAN", v)
	}
}

func toString(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to VARCHAR", v)
	}
}

// dateLayouts are tried in order when parsing date strings. Timestamps
// are truncated to their date component.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func toDate(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return midnightUTC(x), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, nil
		}
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return midnightUTC(ts), nil
			}
		}
		return nil, fmt.Errorf("cannot coerce %q to DATE", x)
	default:
		return nil, fmt.Errorf("cannot coerce %T to DATE", v)
	}
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
