package gold

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gibbonslabs/medallion/internal/silver"
	"github.com/gibbonslabs/medallion/pkg/relation"
)

func TestBuildDimensionDeduplicates(t *testing.T) {
	rel := relation.New(silver.ProductsSchema())
	rel.Append([]any{int64(7), "Widget", "Norway", 100.0})
	// Duplicate natural key with differing attributes: first wins.
	rel.Append([]any{int64(7), "Widget v2", "Sweden", 120.0})
	rel.Append([]any{int64(9), "Gadget", "Norway", 50.0})

	dim, keys, err := BuildProductDim(rel)
	require.NoError(t, err)

	require.Equal(t, 2, dim.NumRows())
	assert.Equal(t, "gold_dim_product", dim.Schema.Name)

	// Surrogate keys are sequential in input order.
	assert.Equal(t, int64(1), keys["7"])
	assert.Equal(t, int64(2), keys["9"])

	// First-encountered attributes survive.
	assert.Equal(t, int64(1), dim.Value(0, "ProductKey"))
	assert.Equal(t, "Widget", dim.Value(0, "Name"))
	assert.Equal(t, "Norway", dim.Value(0, "ManufacturedCountry"))
}

func TestBuildDimensionStableAcrossRebuilds(t *testing.T) {
	rel := relation.New(silver.CustomersSchema())
	rel.Append([]any{int64(3), true, "Jane Doe", nil, "Oslo", "Norway", nil})
	rel.Append([]any{int64(1), false, "Bob Smith", nil, "Bergen", "Norway", nil})

	_, first, err := BuildCustomerDim(rel)
	require.NoError(t, err)
	_, second, err := BuildCustomerDim(rel)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), first["3"])
	assert.Equal(t, int64(2), first["1"])
}

func TestBuildDimensionNullNaturalKeyIsFatal(t *testing.T) {
	rel := relation.New(silver.CountriesSchema())
	row := make([]any, len(rel.Schema.Columns))
	rel.Append(row) // Country is nil

	_, _, err := BuildCountryDim(rel)
	require.Error(t, err)

	var contractErr *ContractError
	require.True(t, errors.As(err, &contractErr), "want ContractError, got %T", err)
	assert.Equal(t, "silver_countries", contractErr.Relation)
	assert.Equal(t, "Country", contractErr.Column)
}

func TestBuildDimensionUnknownKeyColumn(t *testing.T) {
	rel := relation.New(silver.ProductsSchema())
	_, _, err := BuildDimension(rel, "gold_dim_test", "TestKey", []string{"Nope"})
	assert.Error(t, err)
}
