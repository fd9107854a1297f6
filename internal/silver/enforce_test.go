package silver

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gibbonslabs/medallion/internal/testutil"
	"github.com/gibbonslabs/medallion/pkg/relation"
)

func TestEnforceOrders(t *testing.T) {
	staged := relation.Staged{
		{"OrderId": "10", "CustomerId": float64(1), "Date": "2024-01-05"},
		{"OrderId": int64(11), "CustomerId": "2", "Date": "2024-02-01 09:30:00"},
		// Unparsable date on a required column: rejected, counted.
		{"OrderId": "12", "CustomerId": "2", "Date": "N/A"},
		// Missing required OrderId: rejected, counted.
		{"CustomerId": "3", "Date": "2024-01-07"},
	}

	rel, report := Enforce(staged, OrdersSchema(), nil, testutil.NewTestLogger(t))

	assert.Equal(t, 4, report.InputRows)
	assert.Equal(t, 2, report.RejectedRows)
	assert.Equal(t, 2, report.OutputRows)
	require.Equal(t, 2, rel.NumRows())

	assert.Equal(t, int64(10), rel.Value(0, "OrderId"))
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), rel.Value(0, "Date"))
	// Timestamps truncate to their date component.
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), rel.Value(1, "Date"))
}

func TestEnforceNullableCoercionFailureBecomesNull(t *testing.T) {
	staged := relation.Staged{
		{"SaleId": "1", "OrderId": "10", "ProductId": "7", "Quantity": "three", "UnitPrice": "9.99"},
	}

	rel, report := Enforce(staged, SalesSchema(), nil, nil)

	require.Equal(t, 1, rel.NumRows())
	assert.Equal(t, 0, report.RejectedRows)
	assert.Nil(t, rel.Value(0, "Quantity"))
	assert.Equal(t, decimal.RequireFromString("9.99"), rel.Value(0, "UnitPrice"))
}

func TestEnforceCountryAliases(t *testing.T) {
	staged := relation.Staged{
		{
			"Country":            "Norway",
			"Currency":           "nok",
			"Area (sq. mi.)":     "125021",
			"GDP ($ per capita)": float64(37800),
		},
	}

	rel, report := Enforce(staged, CountriesSchema(), CountryAliases, nil)

	require.Equal(t, 1, rel.NumRows())
	assert.Equal(t, 0, report.RejectedRows)
	assert.Equal(t, int64(125021), rel.Value(0, "AreaSqMi"))
	assert.Equal(t, int64(37800), rel.Value(0, "GDPPerCapita"))
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		typ     relation.Type
		want    any
		wantErr bool
	}{
		{name: "int string", value: " 42 ", typ: relation.Bigint, want: int64(42)},
		{name: "integral float", value: float64(7), typ: relation.Bigint, want: int64(7)},
		{name: "fractional float to bigint", value: 7.5, typ: relation.Bigint, wantErr: true},
		{name: "comma decimal separator", value: "12,5", typ: relation.Double, want: 12.5},
		{name: "comma decimal to decimal", value: "9,99", typ: relation.Decimal, want: decimal.RequireFromString("9.99")},
		{name: "decimal string", value: "9.99", typ: relation.Decimal, want: decimal.RequireFromString("9.99")},
		{name: "bool string", value: "TRUE", typ: relation.Boolean, want: true},
		{name: "int bool", value: int64(0), typ: relation.Boolean, want: false},
		{name: "number to varchar", value: int64(9), typ: relation.Varchar, want: "9"},
		{name: "garbage date", value: "soon", typ: relation.Date, wantErr: true},
		{name: "nil passes through", value: nil, typ: relation.Bigint, want: nil},
		{name: "blank string is null", value: "  ", typ: relation.Double, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.value, tt.typ)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
