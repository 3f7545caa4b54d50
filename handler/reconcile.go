package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bselee/Aria-sub000/middleware"
	"github.com/bselee/Aria-sub000/model"
	"github.com/bselee/Aria-sub000/pkg/logger"
	"github.com/bselee/Aria-sub000/recon"
	"github.com/bselee/Aria-sub000/service"
)

type ReconcileHandler struct {
	engine  *recon.Engine
	archive *service.ReportArchive // nil when archival is not configured
}

func NewReconcileHandler(engine *recon.Engine, archive *service.ReportArchive) *ReconcileHandler {
	return &ReconcileHandler{engine: engine, archive: archive}
}

type ReconcileRequest struct {
	OrderID string            `json:"order_id" binding:"required"`
	Invoice model.InvoiceData `json:"invoice"`
}

// Reconcile runs one invoice against its target order and returns the plan.
// The result is always 200 with a verdict: business failures (duplicate,
// order missing, vendor mismatch) are verdicts, not HTTP errors.
func (h *ReconcileHandler) Reconcile(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.Invoice.InvoiceNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invoice number required"})
		return
	}

	ctx := c.Request.Context()
	result, err := h.engine.Reconcile(ctx, &req.Invoice, req.OrderID)
	if err != nil {
		logger.WithContext(ctx).Error("reconciliation failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Reconciliation failed: " + err.Error()})
		return
	}

	if h.archive != nil {
		if err := h.archive.Store(ctx, middleware.GetTenant(c), result); err != nil {
			// Audit copy only; the reconciliation itself succeeded.
			logger.WithContext(ctx).Warn("failed to archive result", "error", err)
		}
	}

	c.JSON(http.StatusOK, result)
}
