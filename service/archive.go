package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bselee/Aria-sub000/config"
	"github.com/bselee/Aria-sub000/model"
)

// ReportArchive stores rendered reconciliation results in object storage for
// audit. Optional: callers get a nil archive when no endpoint is configured,
// and archival failures must never fail a reconciliation.
type ReportArchive struct {
	client *minio.Client
	bucket string
}

// NewReportArchive builds an archive client, or returns (nil, nil) when
// archival is not configured.
func NewReportArchive(cfg *config.ArchiveConfig) (*ReportArchive, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create archive client: %w", err)
	}

	return &ReportArchive{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the archive bucket if it doesn't exist
func (a *ReportArchive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// Store writes one result as JSON, keyed tenant/invoice/order.
func (a *ReportArchive) Store(ctx context.Context, tenant string, res *model.ReconciliationResult) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	objectName := fmt.Sprintf("%s/%s/%s.json", tenant, res.InvoiceNumber, res.OrderID)
	_, err = a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to archive result: %w", err)
	}
	return nil
}
