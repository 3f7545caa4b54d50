package recon

import (
	"strings"
	"testing"

	"github.com/bselee/Aria-sub000/model"
)

func TestBuildSummary(t *testing.T) {
	res := &model.ReconciliationResult{
		InvoiceNumber:  "INV-1001",
		OrderID:        "10042",
		VendorName:     "Acme Industrial Supply",
		OverallVerdict: model.VerdictNeedsApproval,
		PriceChanges: []model.PriceChange{
			{ProductID: "WID-100", POPrice: dec("2.60"), InvoicePrice: dec("2.80"),
				PercentChange: dec("7.69"), DollarImpact: dec("20.00"),
				Verdict: model.VerdictNeedsApproval, Reason: "price change exceeds threshold"},
			{ProductID: "FST-9", POPrice: dec("0.45"), Verdict: model.VerdictNoChange},
			{Description: "Brand new item nobody ordered", Verdict: model.VerdictNoMatch},
		},
		FeeChanges: []model.FeeChange{
			{FeeType: "tariff", NewAmount: dec("125.00"), IsNew: true,
				Verdict: model.VerdictAutoApprove, Reason: "within fee cap"},
		},
		Tracking: &model.TrackingUpdate{
			TrackingNumbers: []string{"1Z999NEW"},
			CarrierName:     "UPS",
			ShipDate:        "2025-05-28",
		},
		TotalDollarImpact: dec("145.00"),
		Warnings:          []string{"vendor correlation is medium confidence"},
	}

	summary := BuildSummary(res)

	for _, want := range []string{
		"Invoice INV-1001 vs order 10042",
		"needs_approval",
		"WID-100: 2.60 -> 2.80",
		"FST-9: unchanged at 0.45",
		"no matching order line",
		"fee tariff (new)",
		"tracking: 1Z999NEW via UPS shipped 2025-05-28",
		"Total dollar impact: 145.00",
		"Warning: vendor correlation",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}
