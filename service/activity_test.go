package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bselee/Aria-sub000/model"
)

func openTestStore(t *testing.T) *ActivityStore {
	t.Helper()
	store, err := OpenActivityStore(filepath.Join(t.TempDir(), "activity.db"))
	if err != nil {
		t.Fatalf("OpenActivityStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestActivityStoreLastReconciliation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	got, err := store.LastReconciliation(ctx, "INV-1001", "10042")
	if err != nil {
		t.Fatalf("query on empty store failed: %v", err)
	}
	if got != nil {
		t.Fatalf("empty store returned %+v, want nil", got)
	}

	entries := []model.ActivityLogEntry{
		{Intent: model.IntentReconcileReview, InvoiceNumber: "INV-1001", OrderID: "10042", Detail: "escalated for approval", Actor: "engine"},
		{Intent: model.IntentReconciliation, InvoiceNumber: "INV-1001", OrderID: "10042", Detail: "approved: 1 applied", Actor: "alice"},
		{Intent: model.IntentReconciliation, InvoiceNumber: "INV-2002", OrderID: "10042", Detail: "auto-applied", Actor: "engine"},
	}
	for _, e := range entries {
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err = store.LastReconciliation(ctx, "INV-1001", "10042")
	if err != nil {
		t.Fatalf("LastReconciliation failed: %v", err)
	}
	if got == nil || got.Actor != "alice" {
		t.Fatalf("got %+v, want the alice entry", got)
	}
	if got.Intent != model.IntentReconciliation {
		t.Errorf("intent = %s, review entries must not match", got.Intent)
	}

	// A review entry alone is never a prior reconciliation.
	got, err = store.LastReconciliation(ctx, "INV-1001", "99999")
	if err != nil {
		t.Fatalf("LastReconciliation failed: %v", err)
	}
	if got != nil {
		t.Errorf("different order returned %+v, want nil", got)
	}
}

func TestActivityStoreHistory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, detail := range []string{"first", "second", "third"} {
		err := store.Insert(ctx, model.ActivityLogEntry{
			Intent: model.IntentReconcileReview, InvoiceNumber: "INV-1001", OrderID: "10042", Detail: detail,
		})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	history, err := store.History(ctx, "INV-1001", "10042")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("got %d entries, want 3", len(history))
	}
	if history[0].Detail != "third" {
		t.Errorf("first entry detail = %q, want newest first", history[0].Detail)
	}
}

func TestActivityStoreTracking(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.RecordTracking(ctx, "INV-1001", []string{"1Z999A", "1Z999B"}); err != nil {
		t.Fatalf("RecordTracking failed: %v", err)
	}
	// Re-recording the same pair is a no-op, not an error.
	if err := store.RecordTracking(ctx, "INV-1001", []string{"1Z999A"}); err != nil {
		t.Fatalf("duplicate RecordTracking failed: %v", err)
	}
	if err := store.RecordTracking(ctx, "INV-2002", []string{"1Z999C"}); err != nil {
		t.Fatalf("RecordTracking failed: %v", err)
	}

	known, err := store.KnownTrackingNumbers(ctx)
	if err != nil {
		t.Fatalf("KnownTrackingNumbers failed: %v", err)
	}
	if len(known) != 3 {
		t.Fatalf("got %d numbers, want 3", len(known))
	}
	for _, num := range []string{"1Z999A", "1Z999B", "1Z999C"} {
		if _, ok := known[num]; !ok {
			t.Errorf("missing tracking number %s", num)
		}
	}
}
