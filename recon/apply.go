package recon

import (
	"context"
	"fmt"
	"strings"

	"github.com/bselee/Aria-sub000/model"
	"github.com/bselee/Aria-sub000/pkg/logger"
)

// Apply writes a plan's changes to the inventory system. Auto-approved
// changes are always written; needs-approval changes only when their product
// id / fee type appears in the approved sets. Every write is attempted
// independently: one failure lands in Errors and the rest still run.
func (e *Engine) Apply(ctx context.Context, res *model.ReconciliationResult, approvedPrices, approvedFees map[string]bool) *model.ApplyOutcome {
	out := &model.ApplyOutcome{}
	log := logger.WithContext(ctx)

	for _, pc := range res.PriceChanges {
		item := fmt.Sprintf("price %s", pc.ProductID)
		switch pc.Verdict {
		case model.VerdictAutoApprove:
			// proceed
		case model.VerdictNeedsApproval:
			if !approvedPrices[pc.ProductID] {
				out.Skipped = append(out.Skipped, model.ApplySkip{Item: item, Reason: "not approved"})
				continue
			}
		case model.VerdictRejected:
			out.Skipped = append(out.Skipped, model.ApplySkip{Item: item, Reason: "rejected: " + pc.Reason})
			continue
		default:
			continue // no_change and no_match need no write
		}

		if err := e.inv.UpdateOrderItemPrice(ctx, res.OrderID, pc.ProductID, pc.InvoicePrice); err != nil {
			log.Error("price update failed", "product_id", pc.ProductID, "error", err)
			out.Errors = append(out.Errors, model.ApplyError{Item: item, Message: err.Error()})
			continue
		}
		out.Applied = append(out.Applied, item)
	}

	for _, fc := range res.FeeChanges {
		item := fmt.Sprintf("fee %s", fc.FeeType)
		if fc.Verdict == model.VerdictNeedsApproval && !approvedFees[fc.FeeType] {
			out.Skipped = append(out.Skipped, model.ApplySkip{Item: item, Reason: "not approved"})
			continue
		}
		if !fc.IsNew {
			// Updating an existing adjustment amount is not supported by the
			// inventory write surface; recorded here rather than dropped.
			out.Skipped = append(out.Skipped, model.ApplySkip{Item: item, Reason: "existing adjustment updates not supported"})
			continue
		}

		desc := fmt.Sprintf("%s (invoice %s)", strings.ReplaceAll(fc.FeeType, "_", " "), res.InvoiceNumber)
		if err := e.inv.AddOrderAdjustment(ctx, res.OrderID, fc.FeeType, fc.NewAmount, desc); err != nil {
			log.Error("fee write failed", "fee_type", fc.FeeType, "error", err)
			out.Errors = append(out.Errors, model.ApplyError{Item: item, Message: err.Error()})
			continue
		}
		out.Applied = append(out.Applied, item)
	}

	if res.Tracking != nil {
		e.applyTracking(ctx, res, out)
	}

	return out
}

// applyTracking issues the (at most one) shipment tracking write and records
// the numbers against the invoice so later documents dedup against them.
func (e *Engine) applyTracking(ctx context.Context, res *model.ReconciliationResult, out *model.ApplyOutcome) {
	log := logger.WithContext(ctx)
	upd := res.Tracking

	if upd.ShipmentRef == "" {
		out.Skipped = append(out.Skipped, model.ApplySkip{Item: "tracking", Reason: "order has no shipment"})
		return
	}

	if err := e.inv.UpdateShipmentTracking(ctx, upd.ShipmentRef, *upd); err != nil {
		log.Error("tracking update failed", "shipment_ref", upd.ShipmentRef, "error", err)
		out.Errors = append(out.Errors, model.ApplyError{Item: "tracking", Message: err.Error()})
		return
	}
	out.Applied = append(out.Applied, "tracking")

	if err := e.tracking.RecordTracking(ctx, res.InvoiceNumber, upd.TrackingNumbers); err != nil {
		// Dedup bookkeeping only; the shipment write already landed.
		log.Warn("failed to record tracking numbers", "error", err)
	}
}
