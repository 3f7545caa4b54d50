package logger

import (
	"context"
	"log/slog"
	"os"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"
	// InvoiceKey is the context key for the invoice number being reconciled
	InvoiceKey ContextKey = "invoice_number"
	// OrderKey is the context key for the target order id
	OrderKey ContextKey = "order_id"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// Init initializes the global slog logger with the given configuration
func Init(cfg *Config) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// WithContext returns a logger with context values extracted
func WithContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		logger = logger.With("request_id", requestID)
	}
	if invoice, ok := ctx.Value(InvoiceKey).(string); ok && invoice != "" {
		logger = logger.With("invoice_number", invoice)
	}
	if order, ok := ctx.Value(OrderKey).(string); ok && order != "" {
		logger = logger.With("order_id", order)
	}

	return logger
}

// WithReconciliation stamps a context with the invoice/order pair so every
// log line emitted during one reconciliation carries both identifiers.
func WithReconciliation(ctx context.Context, invoiceNumber, orderID string) context.Context {
	ctx = context.WithValue(ctx, InvoiceKey, invoiceNumber)
	return context.WithValue(ctx, OrderKey, orderID)
}
