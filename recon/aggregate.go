package recon

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bselee/Aria-sub000/model"
)

// verdictRank orders verdicts by severity for the overall decision.
// no_match and duplicate are informational and never dominate.
func verdictRank(v model.Verdict) int {
	switch v {
	case model.VerdictRejected:
		return 3
	case model.VerdictNeedsApproval:
		return 2
	case model.VerdictAutoApprove:
		return 1
	default:
		return 0
	}
}

// aggregate computes the total dollar impact, applies the aggregate impact
// cap, and derives the overall verdict. The cap retroactively downgrades
// auto-approved price lines when the whole invoice's exposure exceeds it;
// fee verdicts are already independently capped.
func aggregate(res *model.ReconciliationResult, th Thresholds) {
	total := decimal.Zero
	for _, pc := range res.PriceChanges {
		total = total.Add(pc.DollarImpact.Abs())
	}
	for _, fc := range res.FeeChanges {
		total = total.Add(fc.NewAmount.Sub(fc.ExistingAmount).Abs())
	}
	res.TotalDollarImpact = total

	if total.GreaterThan(th.ImpactCap) {
		for i := range res.PriceChanges {
			if res.PriceChanges[i].Verdict == model.VerdictAutoApprove {
				res.PriceChanges[i].Verdict = model.VerdictNeedsApproval
				res.PriceChanges[i].Reason += fmt.Sprintf(
					"; total invoice impact %s exceeds %s auto-approve cap",
					total.StringFixed(2), th.ImpactCap)
			}
		}
	}

	overall := model.VerdictNoChange
	rank := 0
	for _, pc := range res.PriceChanges {
		if r := verdictRank(pc.Verdict); r > rank {
			rank = r
			overall = pc.Verdict
		}
	}
	for _, fc := range res.FeeChanges {
		if r := verdictRank(fc.Verdict); r > rank {
			rank = r
			overall = fc.Verdict
		}
	}
	res.OverallVerdict = overall
	res.AutoApplicable = overall == model.VerdictAutoApprove || overall == model.VerdictNoChange
}
