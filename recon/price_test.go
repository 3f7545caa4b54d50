package recon

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bselee/Aria-sub000/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func gradePrice(t *testing.T, po, inv string) (model.Verdict, string) {
	t.Helper()
	poPrice := dec(po)
	invPrice := dec(inv)
	percent := decimal.Zero
	if poPrice.IsPositive() {
		percent = invPrice.Sub(poPrice).Div(poPrice).Mul(decimal.NewFromInt(100))
	}
	return evaluatePriceChange(poPrice, invPrice, percent, DefaultThresholds())
}

func TestEvaluatePriceChange(t *testing.T) {
	tests := []struct {
		name    string
		po, inv string
		want    model.Verdict
	}{
		{"identical price", "2.60", "2.60", model.VerdictNoChange},
		{"sub-cent difference", "2.601", "2.604", model.VerdictNoChange},
		{"within 3 percent", "2.60", "2.65", model.VerdictAutoApprove},
		{"just above 3 percent", "2.60", "2.68", model.VerdictNeedsApproval},
		{"10x decimal error", "2.60", "26.00", model.VerdictRejected},
		{"just under 10x", "2.60", "25.99", model.VerdictNeedsApproval},
		{"tenth decimal error", "26.00", "2.00", model.VerdictRejected},
		{"exactly one tenth", "26.00", "2.60", model.VerdictRejected},
		{"zero to nonzero", "0", "4.50", model.VerdictNeedsApproval},
		{"high value item", "5200.00", "5250.00", model.VerdictNeedsApproval},
		{"decrease within band", "2.60", "2.55", model.VerdictAutoApprove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := gradePrice(t, tt.po, tt.inv)
			if got != tt.want {
				t.Errorf("evaluatePriceChange(%s -> %s) = %s (%s), want %s", tt.po, tt.inv, got, reason, tt.want)
			}
		})
	}
}

// A ratio at or above the magnitude ceiling must always reject, regardless
// of the dollar amounts involved. The exact 10x boundary is the canonical
// misplaced-decimal shape, so it rejects too.
func TestMagnitudeSafety(t *testing.T) {
	pairs := [][2]string{
		{"0.10", "1.50"},
		{"1.00", "10.00"},
		{"1.00", "10.01"},
		{"2.60", "26.00"},
		{"250.00", "2600.00"},
		{"0.01", "0.99"},
	}
	for _, p := range pairs {
		verdict, _ := gradePrice(t, p[0], p[1])
		if verdict != model.VerdictRejected {
			t.Errorf("po=%s inv=%s: got %s, want rejected", p[0], p[1], verdict)
		}
		if verdict == model.VerdictAutoApprove {
			t.Errorf("po=%s inv=%s: magnitude breach must never auto-approve", p[0], p[1])
		}
	}
}

func TestBuildPriceChangeOverbill(t *testing.T) {
	line := model.InvoiceLine{
		SKU:         "WID-1",
		Description: "Widget",
		Quantity:    dec("120"),
		UnitPrice:   dec("2.60"),
	}
	ol := &model.OrderLine{
		ProductID: "WID-1",
		UnitPrice: dec("2.60"),
		Quantity:  dec("100"),
	}

	pc := buildPriceChange(line, ol, DefaultThresholds())
	// Equal price is a no_change verdict; overbill only downgrades auto_approve.
	if pc.Verdict != model.VerdictNoChange {
		t.Errorf("equal price overbill: got %s, want no_change", pc.Verdict)
	}

	line.UnitPrice = dec("2.62") // within 3%, would auto-approve
	pc = buildPriceChange(line, ol, DefaultThresholds())
	if pc.Verdict != model.VerdictNeedsApproval {
		t.Errorf("overbill at safe price: got %s, want needs_approval", pc.Verdict)
	}
	if !strings.Contains(pc.Reason, "OVERBILL") {
		t.Errorf("expected OVERBILL in reason, got %q", pc.Reason)
	}
}

func TestBuildPriceChangeDollarImpact(t *testing.T) {
	line := model.InvoiceLine{SKU: "WID-1", Quantity: dec("100"), UnitPrice: dec("2.68")}
	ol := &model.OrderLine{ProductID: "WID-1", UnitPrice: dec("2.60"), Quantity: dec("100")}

	pc := buildPriceChange(line, ol, DefaultThresholds())
	if !pc.DollarImpact.Equal(dec("8.00").Round(2)) && !pc.DollarImpact.Equal(dec("8")) {
		t.Errorf("dollar impact = %s, want 8.00", pc.DollarImpact)
	}
	if pc.PercentChange.LessThanOrEqual(dec("3")) {
		t.Errorf("percent change = %s, want > 3", pc.PercentChange)
	}
}
