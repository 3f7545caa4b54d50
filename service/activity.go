package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bselee/Aria-sub000/model"
)

// ActivityStore is the sqlite-backed append-only audit log. It implements
// recon.ActivityLog and recon.TrackingStore.
type ActivityStore struct {
	db *sql.DB
}

const activitySchema = `
CREATE TABLE IF NOT EXISTS activity_log (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	intent         TEXT NOT NULL,
	invoice_number TEXT NOT NULL,
	order_id       TEXT NOT NULL,
	detail         TEXT NOT NULL DEFAULT '',
	actor          TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_activity_lookup
	ON activity_log (intent, invoice_number, order_id);

CREATE TABLE IF NOT EXISTS invoice_tracking (
	invoice_number  TEXT NOT NULL,
	tracking_number TEXT NOT NULL,
	created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (invoice_number, tracking_number)
);
`

// OpenActivityStore opens (and if needed creates) the activity database.
func OpenActivityStore(path string) (*ActivityStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity db: %w", err)
	}
	// sqlite allows one writer; keep the pool at a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(activitySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create activity schema: %w", err)
	}

	return &ActivityStore{db: db}, nil
}

func (s *ActivityStore) Close() error {
	return s.db.Close()
}

// Insert appends one entry to the audit log.
func (s *ActivityStore) Insert(ctx context.Context, entry model.ActivityLogEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (intent, invoice_number, order_id, detail, actor, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Intent, entry.InvoiceNumber, entry.OrderID, entry.Detail, entry.Actor, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}

// LastReconciliation returns the most recent completed reconciliation for an
// invoice+order pair, or nil when there is none.
func (s *ActivityStore) LastReconciliation(ctx context.Context, invoiceNumber, orderID string) (*model.ActivityLogEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, intent, invoice_number, order_id, detail, actor, created_at
		FROM activity_log
		WHERE intent = ? AND invoice_number = ? AND order_id = ?
		ORDER BY id DESC
		LIMIT 1`,
		model.IntentReconciliation, invoiceNumber, orderID,
	)

	var entry model.ActivityLogEntry
	err := row.Scan(&entry.ID, &entry.Intent, &entry.InvoiceNumber, &entry.OrderID,
		&entry.Detail, &entry.Actor, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last reconciliation: %w", err)
	}
	return &entry, nil
}

// History returns the audit trail for an invoice+order pair, newest first.
func (s *ActivityStore) History(ctx context.Context, invoiceNumber, orderID string) ([]model.ActivityLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, intent, invoice_number, order_id, detail, actor, created_at
		FROM activity_log
		WHERE invoice_number = ? AND order_id = ?
		ORDER BY id DESC`,
		invoiceNumber, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query activity history: %w", err)
	}
	defer rows.Close()

	var entries []model.ActivityLogEntry
	for rows.Next() {
		var entry model.ActivityLogEntry
		if err := rows.Scan(&entry.ID, &entry.Intent, &entry.InvoiceNumber, &entry.OrderID,
			&entry.Detail, &entry.Actor, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// KnownTrackingNumbers returns every tracking number recorded against any
// invoice, for cross-document dedup.
func (s *ActivityStore) KnownTrackingNumbers(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT tracking_number FROM invoice_tracking`)
	if err != nil {
		return nil, fmt.Errorf("query tracking numbers: %w", err)
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var num string
		if err := rows.Scan(&num); err != nil {
			return nil, fmt.Errorf("scan tracking number: %w", err)
		}
		known[num] = struct{}{}
	}
	return known, rows.Err()
}

// RecordTracking stores tracking numbers against an invoice. Re-recording a
// number for the same invoice is a no-op.
func (s *ActivityStore) RecordTracking(ctx context.Context, invoiceNumber string, numbers []string) error {
	for _, num := range numbers {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO invoice_tracking (invoice_number, tracking_number)
			VALUES (?, ?)`,
			invoiceNumber, num,
		)
		if err != nil {
			return fmt.Errorf("record tracking number %s: %w", num, err)
		}
	}
	return nil
}
