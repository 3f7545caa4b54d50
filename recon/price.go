package recon

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bselee/Aria-sub000/model"
)

// centEpsilon is the smallest price difference worth acting on.
var centEpsilon = decimal.New(1, -2) // 0.01

// evaluatePriceChange grades a single unit-price delta. Layers are checked in
// order and the first one that fires decides the verdict:
//
//  1. difference under a cent: no change
//  2. ratio at or beyond the magnitude ceiling: rejected (decimal-error guard)
//  3. zero PO price becoming nonzero: needs approval (placeholder line)
//  4. unit price above the high-value threshold: needs approval
//  5. percent change within the band: auto-approve, else needs approval
func evaluatePriceChange(poPrice, invoicePrice, percentChange decimal.Decimal, th Thresholds) (model.Verdict, string) {
	if poPrice.Sub(invoicePrice).Abs().LessThan(centEpsilon) {
		return model.VerdictNoChange, "price unchanged"
	}

	if poPrice.IsPositive() && invoicePrice.IsPositive() {
		ratio := invoicePrice.Div(poPrice)
		floor := decimal.NewFromInt(1).Div(th.MagnitudeRatio)
		if ratio.GreaterThanOrEqual(th.MagnitudeRatio) || ratio.LessThanOrEqual(floor) {
			return model.VerdictRejected, fmt.Sprintf(
				"price moved %sx from %s to %s, likely a decimal error: correct the source document",
				ratio.Round(2), poPrice.StringFixed(2), invoicePrice.StringFixed(2))
		}
	}

	if poPrice.IsZero() && invoicePrice.IsPositive() {
		return model.VerdictNeedsApproval, fmt.Sprintf(
			"PO line has placeholder price 0.00, invoice bills %s", invoicePrice.StringFixed(2))
	}

	if invoicePrice.GreaterThan(th.HighValuePrice) {
		return model.VerdictNeedsApproval, fmt.Sprintf(
			"high-value item at %s per unit requires review", invoicePrice.StringFixed(2))
	}

	if percentChange.Abs().LessThanOrEqual(th.PercentThreshold) {
		return model.VerdictAutoApprove, fmt.Sprintf(
			"price change %s%% within %s%% threshold", percentChange.Round(2), th.PercentThreshold)
	}
	return model.VerdictNeedsApproval, fmt.Sprintf(
		"price change %s%% exceeds %s%% threshold", percentChange.Round(2), th.PercentThreshold)
}

// buildPriceChange pairs one invoice line with its matched order line and
// grades the delta. The overbill guard runs after grading: a safe price on an
// over-shipped quantity is still escalated.
func buildPriceChange(line model.InvoiceLine, ol *model.OrderLine, th Thresholds) model.PriceChange {
	percent := decimal.Zero
	if ol.UnitPrice.IsPositive() {
		percent = line.UnitPrice.Sub(ol.UnitPrice).Div(ol.UnitPrice).Mul(decimal.NewFromInt(100))
	}
	impact := line.UnitPrice.Sub(ol.UnitPrice).Mul(line.Quantity)

	verdict, reason := evaluatePriceChange(ol.UnitPrice, line.UnitPrice, percent, th)

	if line.Quantity.GreaterThan(ol.Quantity) && verdict == model.VerdictAutoApprove {
		verdict = model.VerdictNeedsApproval
		reason += fmt.Sprintf("; OVERBILL: invoice quantity %s exceeds PO quantity %s",
			line.Quantity.String(), ol.Quantity.String())
	}

	return model.PriceChange{
		ProductID:     ol.ProductID,
		Description:   line.Description,
		POPrice:       ol.UnitPrice,
		InvoicePrice:  line.UnitPrice,
		Quantity:      line.Quantity,
		PercentChange: percent,
		DollarImpact:  impact,
		Verdict:       verdict,
		Reason:        reason,
	}
}
