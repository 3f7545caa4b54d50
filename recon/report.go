package recon

import (
	"fmt"
	"strings"

	"github.com/bselee/Aria-sub000/model"
)

// BuildSummary renders a plan as plain text for the messaging layer.
func BuildSummary(res *model.ReconciliationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Invoice %s vs order %s (%s): %s\n",
		res.InvoiceNumber, res.OrderID, res.VendorName, res.OverallVerdict)

	for _, pc := range res.PriceChanges {
		switch pc.Verdict {
		case model.VerdictNoMatch:
			fmt.Fprintf(&b, "  - %s: no matching order line\n", lineLabel(pc))
		case model.VerdictNoChange:
			fmt.Fprintf(&b, "  - %s: unchanged at %s\n", lineLabel(pc), pc.POPrice.StringFixed(2))
		default:
			fmt.Fprintf(&b, "  - %s: %s -> %s (%s%%, impact %s) [%s] %s\n",
				lineLabel(pc), pc.POPrice.StringFixed(2), pc.InvoicePrice.StringFixed(2),
				pc.PercentChange.Round(2), pc.DollarImpact.StringFixed(2), pc.Verdict, pc.Reason)
		}
	}

	for _, fc := range res.FeeChanges {
		kind := "update"
		if fc.IsNew {
			kind = "new"
		}
		fmt.Fprintf(&b, "  - fee %s (%s): %s -> %s [%s] %s\n",
			fc.FeeType, kind, fc.ExistingAmount.StringFixed(2), fc.NewAmount.StringFixed(2),
			fc.Verdict, fc.Reason)
	}

	if res.Tracking != nil {
		fmt.Fprintf(&b, "  - tracking: %s", strings.Join(res.Tracking.TrackingNumbers, ", "))
		if res.Tracking.CarrierName != "" {
			fmt.Fprintf(&b, " via %s", res.Tracking.CarrierName)
		}
		if res.Tracking.ShipDate != "" {
			fmt.Fprintf(&b, " shipped %s", res.Tracking.ShipDate)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Total dollar impact: %s\n", res.TotalDollarImpact.StringFixed(2))

	for _, w := range res.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w)
	}

	return strings.TrimRight(b.String(), "\n")
}

func lineLabel(pc model.PriceChange) string {
	if pc.ProductID != "" {
		return pc.ProductID
	}
	if len(pc.Description) > 40 {
		return pc.Description[:40]
	}
	return pc.Description
}
