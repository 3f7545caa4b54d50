// Package recon implements the invoice-to-purchase-order reconciliation
// engine: it decides whether a vendor invoice's prices, fees, and tracking
// data may be written back to the inventory system, must be escalated to a
// human, or must be blocked outright.
package recon

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/bselee/Aria-sub000/config"
	"github.com/bselee/Aria-sub000/model"
	"github.com/bselee/Aria-sub000/pkg/logger"
)

// ErrOrderNotFound is returned by Inventory implementations when the target
// order does not exist.
var ErrOrderNotFound = errors.New("order not found")

// Inventory is the write-capable boundary to the external inventory system.
// Transport details (HTTP, auth, retries) live behind this interface.
type Inventory interface {
	GetOrderSummary(ctx context.Context, orderID string) (*model.OrderSummary, error)
	UpdateOrderItemPrice(ctx context.Context, orderID, productID string, price decimal.Decimal) error
	AddOrderAdjustment(ctx context.Context, orderID, feeType string, amount decimal.Decimal, description string) error
	UpdateShipmentTracking(ctx context.Context, shipmentRef string, upd model.TrackingUpdate) error
}

// ActivityLog is the append-only audit log used for duplicate detection.
type ActivityLog interface {
	Insert(ctx context.Context, entry model.ActivityLogEntry) error
	LastReconciliation(ctx context.Context, invoiceNumber, orderID string) (*model.ActivityLogEntry, error)
}

// TrackingStore looks up and records tracking numbers across invoices.
type TrackingStore interface {
	KnownTrackingNumbers(ctx context.Context) (map[string]struct{}, error)
	RecordTracking(ctx context.Context, invoiceNumber string, numbers []string) error
}

// Thresholds are the engine's safety limits.
type Thresholds struct {
	PercentThreshold decimal.Decimal // max percent change for auto-approve
	HighValuePrice   decimal.Decimal // unit price requiring review regardless of delta
	MagnitudeRatio   decimal.Decimal // price ratio treated as a decimal error
	FeeDeltaCap      decimal.Decimal // max fee delta for auto-approve
	ImpactCap        decimal.Decimal // max aggregate dollar impact before downgrade
}

// DefaultThresholds returns the production limits: 3% price band, $5000
// high-value line, 10x magnitude ceiling, $250 fee cap, $500 impact cap.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PercentThreshold: decimal.NewFromInt(3),
		HighValuePrice:   decimal.NewFromInt(5000),
		MagnitudeRatio:   decimal.NewFromInt(10),
		FeeDeltaCap:      decimal.NewFromInt(250),
		ImpactCap:        decimal.NewFromInt(500),
	}
}

// ThresholdsFromConfig builds Thresholds from the recon config section.
func ThresholdsFromConfig(cfg *config.ReconConfig) Thresholds {
	return Thresholds{
		PercentThreshold: cfg.PercentThresholdDec(),
		HighValuePrice:   cfg.HighValuePriceDec(),
		MagnitudeRatio:   cfg.MagnitudeRatioDec(),
		FeeDeltaCap:      cfg.FeeDeltaCapDec(),
		ImpactCap:        cfg.ImpactCapDec(),
	}
}

// Engine runs reconciliations end to end. It owns no transport: the
// inventory system, audit log, and tracking store are injected.
type Engine struct {
	inv       Inventory
	activity  ActivityLog
	tracking  TrackingStore
	approvals *ApprovalRegistry
	th        Thresholds

	// inflight guards against two simultaneous reconciliations of the same
	// invoice+order pair, which the post-hoc duplicate detector cannot see.
	mu       sync.Mutex
	inflight map[string]struct{}
}

// New constructs an Engine.
func New(inv Inventory, activity ActivityLog, tracking TrackingStore, approvals *ApprovalRegistry, th Thresholds) *Engine {
	return &Engine{
		inv:       inv,
		activity:  activity,
		tracking:  tracking,
		approvals: approvals,
		th:        th,
		inflight:  make(map[string]struct{}),
	}
}

// Approvals exposes the pending approval registry.
func (e *Engine) Approvals() *ApprovalRegistry { return e.approvals }

// Reconcile compares an invoice against its target order and produces a
// reconciliation plan. Auto-applicable plans are applied immediately;
// everything else is parked for human approval. The returned result is the
// engine's sole output artifact.
func (e *Engine) Reconcile(ctx context.Context, invoice *model.InvoiceData, orderID string) (*model.ReconciliationResult, error) {
	ctx = logger.WithReconciliation(ctx, invoice.InvoiceNumber, orderID)
	log := logger.WithContext(ctx)

	res := &model.ReconciliationResult{
		InvoiceNumber: invoice.InvoiceNumber,
		OrderID:       orderID,
		VendorName:    invoice.VendorName,
	}

	key := invoice.InvoiceNumber + "|" + orderID
	if !e.claim(key) {
		res.OverallVerdict = model.VerdictDuplicate
		res.Warnings = append(res.Warnings, "a reconciliation for this invoice and order is already in flight")
		res.Summary = BuildSummary(res)
		return res, nil
	}
	defer e.release(key)

	// Duplicate check runs before anything write-capable. A query failure
	// fails open: availability over strict double-application prevention.
	prior, err := e.activity.LastReconciliation(ctx, invoice.InvoiceNumber, orderID)
	if err != nil {
		log.Warn("duplicate check failed, proceeding as not-a-duplicate", "error", err)
	} else if prior != nil {
		log.Info("invoice already reconciled", "prior_entry", prior.ID, "prior_at", prior.CreatedAt)
		res.OverallVerdict = model.VerdictDuplicate
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("invoice %s was already reconciled against order %s on %s",
				invoice.InvoiceNumber, orderID, prior.CreatedAt.Format("2006-01-02")))
		res.Summary = BuildSummary(res)
		return res, nil
	}

	order, err := e.inv.GetOrderSummary(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			res.OverallVerdict = model.VerdictNoMatch
			res.Warnings = append(res.Warnings, fmt.Sprintf("order %s not found in inventory system", orderID))
			res.Summary = BuildSummary(res)
			return res, nil
		}
		return nil, fmt.Errorf("fetch order %s: %w", orderID, err)
	}

	corr := CorrelateVendor(invoice.VendorName, order.SupplierName, invoice.POReference, orderID,
		invoice.SKUs(), order.SKUs())
	if !corr.Pass {
		// No price or fee comparison against a possibly-wrong order.
		log.Warn("vendor correlation failed", "note", corr.Note)
		res.OverallVerdict = model.VerdictNeedsApproval
		res.Warnings = append(res.Warnings, corr.Note)
		res.ApprovalID = e.approvals.Store(res)
		e.logReview(ctx, invoice.InvoiceNumber, orderID, "vendor correlation failed")
		res.Summary = BuildSummary(res)
		return res, nil
	}
	if corr.Confidence == ConfidenceMedium {
		res.Warnings = append(res.Warnings, "vendor correlation is medium confidence: "+corr.Note)
	}

	res.PriceChanges = buildPriceChanges(invoice, order, e.th)
	res.FeeChanges = buildFeeChanges(invoice, order, e.th)
	res.Tracking = e.dedupTracking(ctx, extractTracking(invoice, order))

	aggregate(res, e.th)

	switch {
	case res.AutoApplicable:
		outcome := e.Apply(ctx, res, nil, nil)
		for _, ae := range outcome.Errors {
			res.Warnings = append(res.Warnings, fmt.Sprintf("apply failed for %s: %s", ae.Item, ae.Message))
		}
		e.logReconciliation(ctx, invoice.InvoiceNumber, orderID,
			fmt.Sprintf("auto-applied %d changes, %d skipped, %d errors",
				len(outcome.Applied), len(outcome.Skipped), len(outcome.Errors)), "engine")
		log.Info("reconciliation auto-applied",
			"applied", len(outcome.Applied), "skipped", len(outcome.Skipped), "errors", len(outcome.Errors))

	case res.OverallVerdict == model.VerdictNeedsApproval:
		res.ApprovalID = e.approvals.Store(res)
		e.logReview(ctx, invoice.InvoiceNumber, orderID, "escalated for approval")
		log.Info("reconciliation escalated", "approval_id", res.ApprovalID,
			"total_impact", res.TotalDollarImpact.StringFixed(2))

	default:
		// Rejected: a hard stop. Not logged as a completed reconciliation so
		// a corrected re-submission is not flagged as a duplicate.
		e.logReview(ctx, invoice.InvoiceNumber, orderID, "rejected")
		log.Warn("reconciliation rejected", "total_impact", res.TotalDollarImpact.StringFixed(2))
	}

	res.Summary = BuildSummary(res)
	return res, nil
}

// ApprovePending applies every needs-approval change on a parked plan and
// logs the completed reconciliation.
func (e *Engine) ApprovePending(ctx context.Context, id, actor string) (*model.ApplyOutcome, error) {
	entry, err := e.approvals.Resolve(id, model.ApprovalApproved)
	if err != nil {
		return nil, err
	}

	res := entry.Result
	ctx = logger.WithReconciliation(ctx, res.InvoiceNumber, res.OrderID)

	approvedPrices := make(map[string]bool)
	for _, pc := range res.PriceChanges {
		if pc.Verdict == model.VerdictNeedsApproval {
			approvedPrices[pc.ProductID] = true
		}
	}
	approvedFees := make(map[string]bool)
	for _, fc := range res.FeeChanges {
		if fc.Verdict == model.VerdictNeedsApproval {
			approvedFees[fc.FeeType] = true
		}
	}

	outcome := e.Apply(ctx, res, approvedPrices, approvedFees)
	e.logReconciliation(ctx, res.InvoiceNumber, res.OrderID,
		fmt.Sprintf("approved: %d applied, %d skipped, %d errors",
			len(outcome.Applied), len(outcome.Skipped), len(outcome.Errors)), actor)
	logger.WithContext(ctx).Info("pending reconciliation approved",
		"approval_id", id, "applied", len(outcome.Applied), "errors", len(outcome.Errors))
	return outcome, nil
}

// RejectPending discards a parked plan without applying anything. The
// rejection is logged as a completed reconciliation so a re-delivered copy
// of the same invoice is caught by the duplicate detector.
func (e *Engine) RejectPending(ctx context.Context, id, actor string) error {
	entry, err := e.approvals.Resolve(id, model.ApprovalRejected)
	if err != nil {
		return err
	}

	res := entry.Result
	ctx = logger.WithReconciliation(ctx, res.InvoiceNumber, res.OrderID)
	e.logReconciliation(ctx, res.InvoiceNumber, res.OrderID, "rejected by reviewer", actor)
	logger.WithContext(ctx).Info("pending reconciliation rejected", "approval_id", id)
	return nil
}

func (e *Engine) claim(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[key]; busy {
		return false
	}
	e.inflight[key] = struct{}{}
	return true
}

func (e *Engine) release(key string) {
	e.mu.Lock()
	delete(e.inflight, key)
	e.mu.Unlock()
}

// logReconciliation records a completed reconciliation. Insert failures are
// logged and swallowed: the plan already ran, losing the audit row must not
// fail the call.
func (e *Engine) logReconciliation(ctx context.Context, invoiceNumber, orderID, detail, actor string) {
	err := e.activity.Insert(ctx, model.ActivityLogEntry{
		Intent:        model.IntentReconciliation,
		InvoiceNumber: invoiceNumber,
		OrderID:       orderID,
		Detail:        detail,
		Actor:         actor,
	})
	if err != nil {
		logger.WithContext(ctx).Error("failed to write reconciliation audit entry", "error", err)
	}
}

// logReview records an attempt that did not complete (escalated or blocked).
func (e *Engine) logReview(ctx context.Context, invoiceNumber, orderID, detail string) {
	err := e.activity.Insert(ctx, model.ActivityLogEntry{
		Intent:        model.IntentReconcileReview,
		InvoiceNumber: invoiceNumber,
		OrderID:       orderID,
		Detail:        detail,
		Actor:         "engine",
	})
	if err != nil {
		logger.WithContext(ctx).Warn("failed to write review audit entry", "error", err)
	}
}
