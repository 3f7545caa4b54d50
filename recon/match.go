package recon

import (
	"strings"

	"github.com/bselee/Aria-sub000/model"
)

// descriptionPrefixLen bounds the description comparison; vendor catalogs
// pad descriptions with pack sizes and color codes past this point.
const descriptionPrefixLen = 30

// matchOrderLine finds the order line an invoice line bills against.
// Strategies are tried in order until one succeeds:
//
//	(a) exact SKU match, case-insensitive
//	(b) SKU substring in either direction (vendor prefix/suffix noise)
//	(c) description prefix overlap, either-direction substring
//	(d) unique exact unit-price match among order lines
//
// Returns nil when nothing matches; the line may simply be a new item.
func matchOrderLine(line model.InvoiceLine, order *model.OrderSummary) *model.OrderLine {
	sku := strings.ToLower(strings.TrimSpace(line.SKU))

	if sku != "" {
		for i := range order.Lines {
			if strings.ToLower(order.Lines[i].ProductID) == sku {
				return &order.Lines[i]
			}
		}
		for i := range order.Lines {
			pid := strings.ToLower(order.Lines[i].ProductID)
			if pid == "" {
				continue
			}
			if strings.Contains(pid, sku) || strings.Contains(sku, pid) {
				return &order.Lines[i]
			}
		}
	}

	if desc := normalizePrefix(line.Description); desc != "" {
		for i := range order.Lines {
			od := normalizePrefix(order.Lines[i].Description)
			if od == "" {
				continue
			}
			if strings.Contains(od, desc) || strings.Contains(desc, od) {
				return &order.Lines[i]
			}
		}
	}

	// Last resort: a unit price that appears exactly once on the order.
	var priceMatch *model.OrderLine
	count := 0
	for i := range order.Lines {
		if order.Lines[i].UnitPrice.Equal(line.UnitPrice) {
			priceMatch = &order.Lines[i]
			count++
		}
	}
	if count == 1 {
		return priceMatch
	}

	return nil
}

// buildPriceChanges pairs every invoice line to an order line and grades it.
// Unmatched lines are recorded as no_match, informational and never blocking.
func buildPriceChanges(invoice *model.InvoiceData, order *model.OrderSummary, th Thresholds) []model.PriceChange {
	changes := make([]model.PriceChange, 0, len(invoice.Lines))
	for _, line := range invoice.Lines {
		ol := matchOrderLine(line, order)
		if ol == nil {
			changes = append(changes, model.PriceChange{
				ProductID:    line.SKU,
				Description:  line.Description,
				InvoicePrice: line.UnitPrice,
				Quantity:     line.Quantity,
				Verdict:      model.VerdictNoMatch,
				Reason:       "no matching order line, possibly a new item",
			})
			continue
		}
		changes = append(changes, buildPriceChange(line, ol, th))
	}
	return changes
}

// normalizePrefix lowercases and truncates a description for prefix matching.
func normalizePrefix(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) > descriptionPrefixLen {
		s = s[:descriptionPrefixLen]
	}
	return s
}
