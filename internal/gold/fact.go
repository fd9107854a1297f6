package gold

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gibbonslabs/medallion/pkg/relation"
)

// RejectReason classifies why a fact row was excluded. Reasons are
// reported separately, never merged into one opaque count.
type RejectReason string

const (
	ReasonMissingOrder    RejectReason = "missing_order"
	ReasonMissingCustomer RejectReason = "missing_customer"
	ReasonMissingProduct  RejectReason = "missing_product"
	ReasonMissingCountry  RejectReason = "missing_country"
	ReasonDateOutOfRange  RejectReason = "date_out_of_range"
)

// RejectReasons lists all reason codes in reporting order.
var RejectReasons = []RejectReason{
	ReasonMissingOrder,
	ReasonMissingCustomer,
	ReasonMissingProduct,
	ReasonMissingCountry,
	ReasonDateOutOfRange,
}

// FactInput carries everything the fact builder joins through: the
// standardized silver relations and the key mappings produced by the
// dimension and calendar builders.
type FactInput struct {
	Sales     *relation.Relation
	Orders    *relation.Relation
	Customers *relation.Relation
	Products  *relation.Relation

	CustomerKeys KeyMap
	ProductKeys  KeyMap
	CountryKeys  KeyMap
	DateKeys     map[string]int64
}

// FactReport summarizes fact building: every rejected row increments
// exactly one reason counter.
type FactReport struct {
	InputRows  int
	OutputRows int
	Rejected   map[RejectReason]int
}

// RejectedTotal returns the total number of rejected fact rows.
func (r FactReport) RejectedTotal() int {
	total := 0
	for _, n := range r.Rejected {
		total += n
	}
	return total
}

// FactSchema is the gold_fact_sales schema.
func FactSchema() relation.Schema {
	return relation.Schema{
		Name: "gold_fact_sales",
		Columns: []relation.Column{
			{Name: "SaleId", Type: relation.Bigint},
			{Name: "OrderId", Type: relation.Bigint},
			{Name: "DateKey", Type: relation.Bigint},
			{Name: "CustomerKey", Type: relation.Bigint},
			{Name: "ProductKey", Type: relation.Bigint},
			{Name: "CountryKey", Type: relation.Bigint},
			{Name: "Quantity", Type: relation.Double, Nullable: true},
			{Name: "UnitPrice", Type: relation.Decimal, Nullable: true},
			{Name: "Amount", Type: relation.Decimal, Nullable: true},
			{Name: "WeightGrams", Type: relation.Double, Nullable: true},
			{Name: "TotalWeightGrams", Type: relation.Double, Nullable: true},
		},
	}
}

// orderInfo is the per-order slice of silver_orders the fact join needs.
type orderInfo struct {
	dateISO    string
	customerID int64
	hasCust    bool
}

// BuildFact emits one gold_fact_sales row per silver sale. Each row
// resolves its dimension surrogate keys through the natural-key maps;
// a row whose order, customer, product, or country cannot be resolved,
// or whose date falls outside the synthesized calendar, is rejected and
// counted under its specific reason. Derived measures: Amount =
// UnitPrice x Quantity in decimal arithmetic (monetary sums must not
// drift), TotalWeightGrams = Quantity x WeightGrams.
func BuildFact(in FactInput, logger *slog.Logger) (*relation.Relation, FactReport) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	report := FactReport{
		InputRows: in.Sales.NumRows(),
		Rejected:  make(map[RejectReason]int),
	}

	orders := indexOrders(in.Orders)
	countryByCustomer := indexCustomerCountries(in.Customers)
	weightByProduct := indexProductWeights(in.Products)

	fact := relation.New(FactSchema())

	saleID := in.Sales.Schema.ColumnIndex("SaleId")
	orderID := in.Sales.Schema.ColumnIndex("OrderId")
	productID := in.Sales.Schema.ColumnIndex("ProductId")
	quantity := in.Sales.Schema.ColumnIndex("Quantity")
	unitPrice := in.Sales.Schema.ColumnIndex("UnitPrice")

	for _, row := range in.Sales.Rows {
		reject := func(reason RejectReason) {
			report.Rejected[reason]++
		}

		oid, ok := row[orderID].(int64)
		if !ok {
			reject(ReasonMissingOrder)
			continue
		}
		order, ok := orders[oid]
		if !ok {
			reject(ReasonMissingOrder)
			continue
		}

		dateKey, ok := in.DateKeys[order.dateISO]
		if !ok {
			reject(ReasonDateOutOfRange)
			continue
		}

		if !order.hasCust {
			reject(ReasonMissingCustomer)
			continue
		}
		customerKey, ok := in.CustomerKeys[encodeScalarKey(order.customerID)]
		if !ok {
			reject(ReasonMissingCustomer)
			continue
		}

		pid, ok := row[productID].(int64)
		if !ok {
			reject(ReasonMissingProduct)
			continue
		}
		productKey, ok := in.ProductKeys[encodeScalarKey(pid)]
		if !ok {
			reject(ReasonMissingProduct)
			continue
		}

		country, ok := countryByCustomer[order.customerID]
		if !ok {
			reject(ReasonMissingCountry)
			continue
		}
		countryKey, ok := in.CountryKeys[country]
		if !ok {
			reject(ReasonMissingCountry)
			continue
		}

		var qty, up, amount, weight, totalWeight any

		q, hasQty := row[quantity].(float64)
		if hasQty {
			qty = q
		}
		if price, ok := row[unitPrice].(decimal.Decimal); ok {
			up = price
			if hasQty {
				amount = price.Mul(decimal.NewFromFloat(q)).Round(2)
			}
		}
		if w, ok := weightByProduct[pid]; ok {
			weight = w
			if hasQty {
				totalWeight = q * w
			}
		}

		fact.Append([]any{
			row[saleID],
			oid,
			dateKey,
			customerKey,
			productKey,
			countryKey,
			qty,
			up,
			amount,
			weight,
			totalWeight,
		})
	}

	report.OutputRows = fact.NumRows()

	attrs := []any{
		"relation", fact.Schema.Name,
		"input_rows", report.InputRows,
		"output_rows", report.OutputRows,
	}
	for _, reason := range RejectReasons {
		attrs = append(attrs, string(reason), report.Rejected[reason])
	}
	logger.Info("built fact relation", attrs...)

	return fact, report
}

func indexOrders(orders *relation.Relation) map[int64]orderInfo {
	idIdx := orders.Schema.ColumnIndex("OrderId")
	custIdx := orders.Schema.ColumnIndex("CustomerId")
	dateIdx := orders.Schema.ColumnIndex("Date")

	out := make(map[int64]orderInfo, orders.NumRows())
	for _, row := range orders.Rows {
		id, ok := row[idIdx].(int64)
		if !ok {
			continue
		}
		info := orderInfo{}
		if d, ok := row[dateIdx].(time.Time); ok {
			info.dateISO = d.Format("2006-01-02")
		}
		if c, ok := row[custIdx].(int64); ok {
			info.customerID = c
			info.hasCust = true
		}
		// First order wins on duplicate ids, mirroring dimension dedup.
		if _, seen := out[id]; !seen {
			out[id] = info
		}
	}
	return out
}

func indexCustomerCountries(customers *relation.Relation) map[int64]string {
	idIdx := customers.Schema.ColumnIndex("CustomerId")
	countryIdx := customers.Schema.ColumnIndex("Country")

	out := make(map[int64]string, customers.NumRows())
	for _, row := range customers.Rows {
		id, ok := row[idIdx].(int64)
		if !ok {
			continue
		}
		country, ok := row[countryIdx].(string)
		if !ok {
			continue
		}
		if _, seen := out[id]; !seen {
			out[id] = country
		}
	}
	return out
}

func indexProductWeights(products *relation.Relation) map[int64]float64 {
	idIdx := products.Schema.ColumnIndex("ProductId")
	weightIdx := products.Schema.ColumnIndex("WeightGrams")

	out := make(map[int64]float64, products.NumRows())
	for _, row := range products.Rows {
		id, ok := row[idIdx].(int64)
		if !ok {
			continue
		}
		if w, ok := row[weightIdx].(float64); ok {
			if _, seen := out[id]; !seen {
				out[id] = w
			}
		}
	}
	return out
}

// encodeScalarKey mirrors the natural-key encoding BuildDimension uses
// for single-column integer keys.
func encodeScalarKey(v int64) string {
	return strconv.FormatInt(v, 10)
}
