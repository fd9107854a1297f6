package gold

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gibbonslabs/medallion/internal/silver"
	"github.com/gibbonslabs/medallion/internal/testutil"
	"github.com/gibbonslabs/medallion/pkg/relation"
)

func factFixture(t *testing.T) FactInput {
	t.Helper()

	customers := relation.New(silver.CustomersSchema())
	customers.Append([]any{int64(1), true, "Jane Doe", nil, "Oslo", "Norway", nil})
	customers.Append([]any{int64(2), true, "Bob Smith", nil, "Malmo", "Sweden", nil})
	// Customer with no country: sales through them miss the country join.
	customers.Append([]any{int64(3), true, "No Where", nil, nil, nil, nil})

	products := relation.New(silver.ProductsSchema())
	products.Append([]any{int64(10), "Widget", "Norway", 500.0})
	products.Append([]any{int64(11), "Gadget", "Sweden", nil})

	orders := relation.New(silver.OrdersSchema())
	orders.Append([]any{int64(100), int64(1), day(2024, 1, 5)})
	orders.Append([]any{int64(101), nil, day(2024, 1, 6)})       // no customer
	orders.Append([]any{int64(102), int64(3), day(2024, 1, 6)})  // customer has no country
	orders.Append([]any{int64(103), int64(2), day(2024, 2, 20)}) // outside calendar

	sales := relation.New(silver.SalesSchema())
	sales.Append([]any{int64(1), int64(100), int64(10), 3.0, decimal.RequireFromString("9.99")})
	sales.Append([]any{int64(2), int64(100), int64(11), 1.0, nil})
	sales.Append([]any{int64(3), int64(999), int64(10), 1.0, nil}) // unknown order
	sales.Append([]any{int64(4), nil, int64(10), 1.0, nil})        // null order id
	sales.Append([]any{int64(5), int64(101), int64(10), 1.0, nil}) // order has no customer
	sales.Append([]any{int64(6), int64(100), int64(42), 1.0, nil}) // unknown product
	sales.Append([]any{int64(7), int64(102), int64(10), 1.0, nil}) // no country
	sales.Append([]any{int64(8), int64(103), int64(10), 1.0, nil}) // date out of range

	countries := relation.New(silver.CountriesSchema())
	for _, name := range []string{"Norway", "Sweden", "Finland"} {
		row := make([]any, len(countries.Schema.Columns))
		row[0] = name
		countries.Append(row)
	}

	_, customerKeys, err := BuildCustomerDim(customers)
	require.NoError(t, err)
	_, productKeys, err := BuildProductDim(products)
	require.NoError(t, err)
	_, countryKeys, err := BuildCountryDim(countries)
	require.NoError(t, err)

	// Calendar covers January only; order 103 falls outside it.
	_, dateKeys := BuildCalendar([]time.Time{day(2024, 1, 1), day(2024, 1, 31)})

	return FactInput{
		Sales:        sales,
		Orders:       orders,
		Customers:    customers,
		Products:     products,
		CustomerKeys: customerKeys,
		ProductKeys:  productKeys,
		CountryKeys:  countryKeys,
		DateKeys:     dateKeys,
	}
}

func TestBuildFact(t *testing.T) {
	in := factFixture(t)

	fact, report := BuildFact(in, testutil.NewTestLogger(t))

	require.Equal(t, 8, report.InputRows)
	require.Equal(t, 2, report.OutputRows)
	assert.Equal(t, 2, fact.NumRows())

	assert.Equal(t, map[RejectReason]int{
		ReasonMissingOrder:    2,
		ReasonMissingCustomer: 1,
		ReasonMissingProduct:  1,
		ReasonMissingCountry:  1,
		ReasonDateOutOfRange:  1,
	}, report.Rejected)
	assert.Equal(t, 6, report.RejectedTotal())

	// Sale 1: qty 3 at 9.99 through order 100 / customer 1 / Norway.
	assert.Equal(t, int64(1), fact.Value(0, "SaleId"))
	assert.Equal(t, int64(100), fact.Value(0, "OrderId"))
	assert.Equal(t, int64(20240105), fact.Value(0, "DateKey"))
	assert.Equal(t, in.CustomerKeys["1"], fact.Value(0, "CustomerKey"))
	assert.Equal(t, in.ProductKeys["10"], fact.Value(0, "ProductKey"))
	assert.Equal(t, in.CountryKeys["Norway"], fact.Value(0, "CountryKey"))
	assert.Equal(t, 3.0, fact.Value(0, "Quantity"))

	amount, ok := fact.Value(0, "Amount").(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, amount.Equal(decimal.RequireFromString("29.97")), "Amount = %s", amount)
	assert.Equal(t, 500.0, fact.Value(0, "WeightGrams"))
	assert.Equal(t, 1500.0, fact.Value(0, "TotalWeightGrams"))

	// Sale 2: no unit price, no product weight. Measures stay NULL
	// instead of becoming zero.
	assert.Equal(t, int64(2), fact.Value(1, "SaleId"))
	assert.Nil(t, fact.Value(1, "UnitPrice"))
	assert.Nil(t, fact.Value(1, "Amount"))
	assert.Nil(t, fact.Value(1, "WeightGrams"))
	assert.Nil(t, fact.Value(1, "TotalWeightGrams"))
}

func TestBuildFactRetainsZeroSaleCountries(t *testing.T) {
	in := factFixture(t)

	fact, _ := BuildFact(in, testutil.NewTestLogger(t))

	// Finland sold nothing but keeps its dimension row.
	finlandKey, ok := in.CountryKeys["Finland"]
	require.True(t, ok)

	for row := range fact.Rows {
		assert.NotEqual(t, finlandKey, fact.Value(row, "CountryKey"))
	}
}

func TestBuildFactEmptySales(t *testing.T) {
	in := factFixture(t)
	in.Sales = relation.New(silver.SalesSchema())

	fact, report := BuildFact(in, testutil.NewTestLogger(t))

	assert.Equal(t, 0, fact.NumRows())
	assert.Equal(t, 0, report.InputRows)
	assert.Equal(t, 0, report.RejectedTotal())
}
