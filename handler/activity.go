package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bselee/Aria-sub000/pkg/logger"
	"github.com/bselee/Aria-sub000/service"
)

type ActivityHandler struct {
	store *service.ActivityStore
}

func NewActivityHandler(store *service.ActivityStore) *ActivityHandler {
	return &ActivityHandler{store: store}
}

// History returns the audit trail for one invoice+order pair, newest first.
func (h *ActivityHandler) History(c *gin.Context) {
	invoiceNumber := c.Query("invoice_number")
	orderID := c.Query("order_id")
	if invoiceNumber == "" || orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invoice_number and order_id required"})
		return
	}

	entries, err := h.store.History(c.Request.Context(), invoiceNumber, orderID)
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("failed to query activity history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query activity history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
