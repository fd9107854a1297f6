package silver

import (
	"log/slog"

	"github.com/gibbonslabs/medallion/pkg/relation"
)

// FactSalesSchema is the silver_fact_sales schema: one denormalized row
// per sale line item, carrying the descriptive attributes of its order,
// customer, product, and country.
func FactSalesSchema() relation.Schema {
	return relation.Schema{
		Name: "silver_fact_sales",
		Columns: []relation.Column{
			{Name: "SaleId", Type: relation.Bigint},
			{Name: "Quantity", Type: relation.Double, Nullable: true},
			{Name: "UnitPrice", Type: relation.Decimal, Nullable: true},
			{Name: "OrderId", Type: relation.Bigint, Nullable: true},
			{Name: "OrderDate", Type: relation.Date, Nullable: true},
			{Name: "CustomerId", Type: relation.Bigint, Nullable: true},
			{Name: "CustomerName", Type: relation.Varchar, Nullable: true},
			{Name: "CustomerCountry", Type: relation.Varchar, Nullable: true},
			{Name: "CustomerCity", Type: relation.Varchar, Nullable: true},
			{Name: "ProductId", Type: relation.Bigint, Nullable: true},
			{Name: "ProductName", Type: relation.Varchar, Nullable: true},
			{Name: "ProductCountry", Type: relation.Varchar, Nullable: true},
			{Name: "CountryCurrency", Type: relation.Varchar, Nullable: true},
			{Name: "CountryGDPPerCapita", Type: relation.Bigint, Nullable: true},
		},
	}
}

// BuildFactSales left-joins each sale through orders, customers,
// products, and countries into the denormalized transaction relation.
// The grain is one row per sale; a broken join leaves its attribute
// columns NULL instead of dropping the row. Rejection of unresolvable
// sales belongs to the gold fact builder, not here.
func BuildFactSales(sales, orders, customers, products, countries *relation.Relation, logger *slog.Logger) *relation.Relation {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ordersByID := indexByInt(orders, "OrderId")
	customersByID := indexByInt(customers, "CustomerId")
	productsByID := indexByInt(products, "ProductId")
	countriesByName := indexByString(countries, "Country")

	orderCust := orders.Schema.ColumnIndex("CustomerId")
	orderDate := orders.Schema.ColumnIndex("Date")
	custName := customers.Schema.ColumnIndex("Name")
	custCountry := customers.Schema.ColumnIndex("Country")
	custCity := customers.Schema.ColumnIndex("City")
	prodName := products.Schema.ColumnIndex("Name")
	prodCountry := products.Schema.ColumnIndex("ManufacturedCountry")
	ctryCurrency := countries.Schema.ColumnIndex("Currency")
	ctryGDP := countries.Schema.ColumnIndex("GDPPerCapita")

	saleID := sales.Schema.ColumnIndex("SaleId")
	saleOrder := sales.Schema.ColumnIndex("OrderId")
	saleProduct := sales.Schema.ColumnIndex("ProductId")
	saleQty := sales.Schema.ColumnIndex("Quantity")
	salePrice := sales.Schema.ColumnIndex("UnitPrice")

	out := relation.New(FactSalesSchema())

	for _, sale := range sales.Rows {
		row := make([]any, len(out.Schema.Columns))
		row[0] = sale[saleID]
		row[1] = sale[saleQty]
		row[2] = sale[salePrice]

		var customer []any
		if oid, ok := sale[saleOrder].(int64); ok {
			if order, found := ordersByID[oid]; found {
				row[3] = oid
				row[4] = order[orderDate]
				if cid, ok := order[orderCust].(int64); ok {
					if c, found := customersByID[cid]; found {
						customer = c
						row[5] = cid
						row[6] = c[custName]
						row[7] = c[custCountry]
						row[8] = c[custCity]
					}
				}
			}
		}

		if pid, ok := sale[saleProduct].(int64); ok {
			if p, found := productsByID[pid]; found {
				row[9] = pid
				row[10] = p[prodName]
				row[11] = p[prodCountry]
			}
		}

		if customer != nil {
			if name, ok := customer[custCountry].(string); ok {
				if c, found := countriesByName[name]; found {
					row[12] = c[ctryCurrency]
					row[13] = c[ctryGDP]
				}
			}
		}

		out.Append(row)
	}

	logger.Info("built denormalized sales relation",
		"relation", out.Schema.Name, "rows", out.NumRows())
	return out
}

// indexByInt maps the given BIGINT column to its row, first row wins
// on duplicates.
func indexByInt(rel *relation.Relation, column string) map[int64][]any {
	idx := rel.Schema.ColumnIndex(column)
	out := make(map[int64][]any, rel.NumRows())
	for _, row := range rel.Rows {
		if id, ok := row[idx].(int64); ok {
			if _, seen := out[id]; !seen {
				out[id] = row
			}
		}
	}
	return out
}

// indexByString maps the given VARCHAR column to its row, first row
// wins on duplicates.
func indexByString(rel *relation.Relation, column string) map[string][]any {
	idx := rel.Schema.ColumnIndex(column)
	out := make(map[string][]any, rel.NumRows())
	for _, row := range rel.Rows {
		if key, ok := row[idx].(string); ok {
			if _, seen := out[key]; !seen {
				out[key] = row
			}
		}
	}
	return out
}
