package recon

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bselee/Aria-sub000/model"
)

// feeCategory maps one invoice charge field to a named fee category. The
// label is matched (substring, case-insensitive) against existing order
// adjustment descriptions.
type feeCategory struct {
	feeType string
	label   string
}

var feeCategories = []feeCategory{
	{"freight", "freight"},
	{"tax", "tax"},
	{"tariff", "tariff"},
	{"labor", "labor"},
	{"fuel_surcharge", "fuel"},
}

// invoiceFeeAmount returns the invoice charge for a fee category.
func invoiceFeeAmount(invoice *model.InvoiceData, feeType string) decimal.Decimal {
	switch feeType {
	case "freight":
		return invoice.Freight
	case "tax":
		return invoice.Tax
	case "tariff":
		return invoice.Tariff
	case "labor":
		return invoice.Labor
	case "fuel_surcharge":
		return invoice.FuelSurcharge
	}
	return decimal.Zero
}

// buildFeeChanges compares each positive invoice charge against the order's
// existing adjustments. A delta under a cent is skipped entirely; a delta at
// or under the fee cap auto-approves, anything larger escalates. Fees with
// no existing adjustment are flagged IsNew.
func buildFeeChanges(invoice *model.InvoiceData, order *model.OrderSummary, th Thresholds) []model.FeeChange {
	var changes []model.FeeChange
	for _, cat := range feeCategories {
		amount := invoiceFeeAmount(invoice, cat.feeType)
		if !amount.IsPositive() {
			continue
		}

		existing, found := findAdjustment(order, cat.label)
		delta := amount.Sub(existing).Abs()
		if delta.LessThan(centEpsilon) {
			continue
		}

		verdict := model.VerdictAutoApprove
		reason := fmt.Sprintf("%s delta %s within %s cap", cat.feeType, delta.StringFixed(2), th.FeeDeltaCap)
		if delta.GreaterThan(th.FeeDeltaCap) {
			verdict = model.VerdictNeedsApproval
			reason = fmt.Sprintf("%s delta %s exceeds %s cap", cat.feeType, delta.StringFixed(2), th.FeeDeltaCap)
		}

		changes = append(changes, model.FeeChange{
			FeeType:        cat.feeType,
			NewAmount:      amount,
			ExistingAmount: existing,
			IsNew:          !found,
			Verdict:        verdict,
			Reason:         reason,
		})
	}
	return changes
}

// findAdjustment returns the amount of the first order adjustment whose
// description contains the category label.
func findAdjustment(order *model.OrderSummary, label string) (decimal.Decimal, bool) {
	for _, adj := range order.Adjustments {
		if strings.Contains(strings.ToLower(adj.Description), label) {
			return adj.Amount, true
		}
	}
	return decimal.Zero, false
}
