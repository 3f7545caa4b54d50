package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bselee/Aria-sub000/middleware"
	"github.com/bselee/Aria-sub000/recon"
)

type ApprovalHandler struct {
	engine *recon.Engine
}

func NewApprovalHandler(engine *recon.Engine) *ApprovalHandler {
	return &ApprovalHandler{engine: engine}
}

// List returns pending approvals, oldest first
func (h *ApprovalHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"approvals": h.engine.Approvals().List()})
}

// Get returns one pending approval by id
func (h *ApprovalHandler) Get(c *gin.Context) {
	entry, err := h.engine.Approvals().Get(c.Param("id"))
	if err != nil {
		h.approvalError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Approve applies every escalated change on a pending plan.
func (h *ApprovalHandler) Approve(c *gin.Context) {
	outcome, err := h.engine.ApprovePending(c.Request.Context(), c.Param("id"), middleware.GetUsername(c))
	if err != nil {
		h.approvalError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// Reject discards a pending plan without applying anything.
func (h *ApprovalHandler) Reject(c *gin.Context) {
	if err := h.engine.RejectPending(c.Request.Context(), c.Param("id"), middleware.GetUsername(c)); err != nil {
		h.approvalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reconciliation rejected"})
}

// approvalError maps registry sentinel errors to HTTP status codes.
func (h *ApprovalHandler) approvalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, recon.ErrApprovalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Approval not found"})
	case errors.Is(err, recon.ErrApprovalResolved):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
