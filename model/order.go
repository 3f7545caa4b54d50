package model

import "github.com/shopspring/decimal"

// OrderLine is one line item on a purchase order.
type OrderLine struct {
	ProductID   string          `json:"product_id"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Description string          `json:"description"`
}

// OrderAdjustment is a non-line-item charge already on the order
// (freight, tax, tariff, labor, fuel surcharge).
type OrderAdjustment struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// OrderSummary is a read-only snapshot of a purchase order fetched from the
// external inventory system. Fetched fresh per reconciliation call and never
// cached, prices may have changed between calls.
type OrderSummary struct {
	OrderID      string            `json:"order_id"`
	SupplierName string            `json:"supplier_name"`
	Lines        []OrderLine       `json:"lines"`
	Adjustments  []OrderAdjustment `json:"adjustments"`
	ShipmentRefs []string          `json:"shipment_refs,omitempty"`
}

// SKUs returns the product ids across all order lines.
func (o *OrderSummary) SKUs() []string {
	skus := make([]string, 0, len(o.Lines))
	for _, l := range o.Lines {
		if l.ProductID != "" {
			skus = append(skus, l.ProductID)
		}
	}
	return skus
}
