package recon

import (
	"context"

	"github.com/bselee/Aria-sub000/model"
	"github.com/bselee/Aria-sub000/pkg/logger"
)

// extractTracking pulls carrier tracking data off the invoice. Returns nil
// when the invoice carries no tracking numbers at all.
func extractTracking(invoice *model.InvoiceData, order *model.OrderSummary) *model.TrackingUpdate {
	if len(invoice.TrackingNumbers) == 0 {
		return nil
	}

	upd := &model.TrackingUpdate{
		TrackingNumbers: append([]string(nil), invoice.TrackingNumbers...),
		ShipDate:        invoice.ShipDate,
		CarrierName:     invoice.CarrierName,
	}
	if len(order.ShipmentRefs) > 0 {
		upd.ShipmentRef = order.ShipmentRefs[0]
	}
	return upd
}

// dedupTracking drops tracking numbers already recorded against any prior
// invoice, so the same number reappearing across related documents is not
// written to the shipment twice. On store failure it fails open and treats
// every number as new. Availability over strict prevention.
func (e *Engine) dedupTracking(ctx context.Context, upd *model.TrackingUpdate) *model.TrackingUpdate {
	if upd == nil {
		return nil
	}

	known, err := e.tracking.KnownTrackingNumbers(ctx)
	if err != nil {
		logger.WithContext(ctx).Warn("tracking lookup failed, treating all numbers as new", "error", err)
		return upd
	}

	fresh := upd.TrackingNumbers[:0]
	for _, num := range upd.TrackingNumbers {
		if _, seen := known[num]; !seen {
			fresh = append(fresh, num)
		}
	}
	upd.TrackingNumbers = fresh

	if len(upd.TrackingNumbers) == 0 {
		logger.WithContext(ctx).Debug("all tracking numbers already recorded, skipping update")
		return nil
	}
	return upd
}
