package model

import "github.com/shopspring/decimal"

// InvoiceLine is one line item extracted from a vendor invoice.
type InvoiceLine struct {
	SKU         string          `json:"sku,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// InvoiceData is the structured invoice record produced by the upstream
// document-extraction pipeline. Treated as immutable once parsed.
type InvoiceData struct {
	VendorName      string          `json:"vendor_name"`
	InvoiceNumber   string          `json:"invoice_number"`
	POReference     string          `json:"po_reference,omitempty"`
	Lines           []InvoiceLine   `json:"lines"`
	Freight         decimal.Decimal `json:"freight"`
	Tax             decimal.Decimal `json:"tax"`
	Tariff          decimal.Decimal `json:"tariff"`
	Labor           decimal.Decimal `json:"labor"`
	FuelSurcharge   decimal.Decimal `json:"fuel_surcharge"`
	TrackingNumbers []string        `json:"tracking_numbers,omitempty"`
	ShipDate        string          `json:"ship_date,omitempty"` // YYYY-MM-DD
	CarrierName     string          `json:"carrier_name,omitempty"`
	Total           decimal.Decimal `json:"total"`
}

// SKUs returns the non-empty SKUs across all invoice lines.
func (inv *InvoiceData) SKUs() []string {
	var skus []string
	for _, l := range inv.Lines {
		if l.SKU != "" {
			skus = append(skus, l.SKU)
		}
	}
	return skus
}
