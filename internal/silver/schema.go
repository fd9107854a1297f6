package silver

import "github.com/gibbonslabs/medallion/pkg/relation"

// Target schemas for the silver layer. Column names stay aligned with
// the staged source so row-level lineage is obvious; only types are
// enforced here.

// CustomersSchema is the silver_customers target schema.
func CustomersSchema() relation.Schema {
	return relation.Schema{
		Name: "silver_customers",
		Columns: []relation.Column{
			{Name: "CustomerId", Type: relation.Bigint},
			{Name: "Active", Type: relation.Boolean, Nullable: true},
			{Name: "Name", Type: relation.Varchar, Nullable: true},
			{Name: "Address", Type: relation.Varchar, Nullable: true},
			{Name: "City", Type: relation.Varchar, Nullable: true},
			{Name: "Country", Type: relation.Varchar, Nullable: true},
			{Name: "Email", Type: relation.Varchar, Nullable: true},
		},
	}
}

// ProductsSchema is the silver_products target schema.
func ProductsSchema() relation.Schema {
	return relation.Schema{
		Name: "silver_products",
		Columns: []relation.Column{
			{Name: "ProductId", Type: relation.Bigint},
			{Name: "Name", Type: relation.Varchar, Nullable: true},
			{Name: "ManufacturedCountry", Type: relation.Varchar, Nullable: true},
			{Name: "WeightGrams", Type: relation.Double, Nullable: true},
		},
	}
}

// OrdersSchema is the silver_orders target schema. Date is required:
// an order whose date cannot be parsed never reaches the fact builder.
func OrdersSchema() relation.Schema {
	return relation.Schema{
		Name: "silver_orders",
		Columns: []relation.Column{
			{Name: "OrderId", Type: relation.Bigint},
			{Name: "CustomerId", Type: relation.Bigint, Nullable: true},
			{Name: "Date", Type: relation.Date},
		},
	}
}

// SalesSchema is the silver_sales target schema.
func SalesSchema() relation.Schema {
	return relation.Schema{
		Name: "silver_sales",
		Columns: []relation.Column{
			{Name: "SaleId", Type: relation.Bigint},
			{Name: "OrderId", Type: relation.Bigint, Nullable: true},
			{Name: "ProductId", Type: relation.Bigint, Nullable: true},
			{Name: "Quantity", Type: relation.Double, Nullable: true},
			{Name: "UnitPrice", Type: relation.Decimal, Nullable: true},
		},
	}
}

// CountriesSchema is the silver_countries target schema. The staged
// source uses free-form column headers ("Area (sq. mi.)" etc.); those
// are remapped during enforcement via CountryAliases.
func CountriesSchema() relation.Schema {
	return relation.Schema{
		Name: "silver_countries",
		Columns: []relation.Column{
			{Name: "Country", Type: relation.Varchar},
			{Name: "Currency", Type: relation.Varchar, Nullable: true},
			{Name: "Name", Type: relation.Varchar, Nullable: true},
			{Name: "Region", Type: relation.Varchar, Nullable: true},
			{Name: "Population", Type: relation.Bigint, Nullable: true},
			{Name: "AreaSqMi", Type: relation.Bigint, Nullable: true},
			{Name: "PopDensity", Type: relation.Double, Nullable: true},
			{Name: "CoastlineRatio", Type: relation.Double, Nullable: true},
			{Name: "NetMigration", Type: relation.Double, Nullable: true},
			{Name: "InfantMortality", Type: relation.Double, Nullable: true},
			{Name: "GDPPerCapita", Type: relation.Bigint, Nullable: true},
			{Name: "LiteracyPct", Type: relation.Double, Nullable: true},
			{Name: "PhonesPer1000", Type: relation.Double, Nullable: true},
			{Name: "ArablePct", Type: relation.Double, Nullable: true},
			{Name: "CropsPct", Type: relation.Double, Nullable: true},
			{Name: "OtherLandPct", Type: relation.Double, Nullable: true},
			{Name: "Climate", Type: relation.Double, Nullable: true},
			{Name: "Birthrate", Type: relation.Double, Nullable: true},
			{Name: "Deathrate", Type: relation.Double, Nullable: true},
			{Name: "Agriculture", Type: relation.Double, Nullable: true},
			{Name: "Industry", Type: relation.Double, Nullable: true},
			{Name: "Service", Type: relation.Double, Nullable: true},
		},
	}
}
