package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Verdict is the safety classification assigned to a proposed change.
type Verdict string

const (
	VerdictNoChange      Verdict = "no_change"
	VerdictAutoApprove   Verdict = "auto_approve"
	VerdictNeedsApproval Verdict = "needs_approval"
	VerdictRejected      Verdict = "rejected"
	VerdictDuplicate     Verdict = "duplicate"
	VerdictNoMatch       Verdict = "no_match"
)

// PriceChange is one proposed unit-price update, one per invoice line.
type PriceChange struct {
	ProductID     string          `json:"product_id,omitempty"`
	Description   string          `json:"description"`
	POPrice       decimal.Decimal `json:"po_price"`
	InvoicePrice  decimal.Decimal `json:"invoice_price"`
	Quantity      decimal.Decimal `json:"quantity"`
	PercentChange decimal.Decimal `json:"percent_change"`
	DollarImpact  decimal.Decimal `json:"dollar_impact"` // (invoice - po) * quantity
	Verdict       Verdict         `json:"verdict"`
	Reason        string          `json:"reason"`
}

// FeeChange is one proposed fee addition or update, one per non-matching
// fee category on the invoice.
type FeeChange struct {
	FeeType        string          `json:"fee_type"`
	NewAmount      decimal.Decimal `json:"new_amount"`
	ExistingAmount decimal.Decimal `json:"existing_amount"`
	IsNew          bool            `json:"is_new"`
	Verdict        Verdict         `json:"verdict"`
	Reason         string          `json:"reason"`
}

// TrackingUpdate is the (at most one) proposed shipment tracking write.
type TrackingUpdate struct {
	TrackingNumbers []string `json:"tracking_numbers"`
	ShipDate        string   `json:"ship_date,omitempty"`
	CarrierName     string   `json:"carrier_name,omitempty"`
	ShipmentRef     string   `json:"shipment_ref,omitempty"`
}

// ReconciliationResult is the engine's sole output artifact: the full
// reconciliation plan plus the aggregate decision. Immutable: changes are
// only ever written through an explicit Apply step.
type ReconciliationResult struct {
	InvoiceNumber     string          `json:"invoice_number"`
	OrderID           string          `json:"order_id"`
	VendorName        string          `json:"vendor_name"`
	PriceChanges      []PriceChange   `json:"price_changes"`
	FeeChanges        []FeeChange     `json:"fee_changes"`
	Tracking          *TrackingUpdate `json:"tracking,omitempty"`
	OverallVerdict    Verdict         `json:"overall_verdict"`
	TotalDollarImpact decimal.Decimal `json:"total_dollar_impact"`
	AutoApplicable    bool            `json:"auto_applicable"`
	Warnings          []string        `json:"warnings,omitempty"`
	Summary           string          `json:"summary"`
	ApprovalID        string          `json:"approval_id,omitempty"`
}

// ApprovalStatus is the lifecycle state of a pending approval.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	ApprovalExpired  ApprovalStatus = "expired"
)

// PendingApproval holds a reconciliation plan awaiting a human decision.
// Transitions exactly once from pending to a terminal state, never back.
type PendingApproval struct {
	ID        string                `json:"id"`
	Result    *ReconciliationResult `json:"result"`
	CreatedAt time.Time             `json:"created_at"`
	Status    ApprovalStatus        `json:"status"`
}

// ApplySkip records a change that was deliberately not written.
type ApplySkip struct {
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// ApplyError records a change whose external write failed.
type ApplyError struct {
	Item    string `json:"item"`
	Message string `json:"message"`
}

// ApplyOutcome is returned by the apply engine. A per-item failure lands in
// Errors and never prevents the remaining items from being attempted.
type ApplyOutcome struct {
	Applied []string     `json:"applied"`
	Skipped []ApplySkip  `json:"skipped"`
	Errors  []ApplyError `json:"errors"`
}
