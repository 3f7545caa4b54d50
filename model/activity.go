package model

import "time"

// Activity intents recorded in the append-only log.
const (
	// IntentReconciliation marks a completed reconciliation (applied or
	// rejected by a human). The duplicate detector matches on this intent
	// only, so merely-pending plans do not trip it.
	IntentReconciliation = "RECONCILIATION"
	// IntentReconcileReview marks an attempt that escalated to a human and
	// is still unresolved. Audit-only.
	IntentReconcileReview = "RECONCILE_REVIEW"
)

// ActivityLogEntry is one immutable record in the external audit log,
// keyed by (invoice number, order id) for duplicate detection.
type ActivityLogEntry struct {
	ID            int64     `json:"id"`
	Intent        string    `json:"intent"`
	InvoiceNumber string    `json:"invoice_number"`
	OrderID       string    `json:"order_id"`
	Detail        string    `json:"detail,omitempty"`
	Actor         string    `json:"actor,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
