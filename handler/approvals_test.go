package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/bselee/Aria-sub000/model"
	"github.com/bselee/Aria-sub000/recon"
)

func approvalRouter(engine *recon.Engine) *gin.Engine {
	handler := NewApprovalHandler(engine)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("username", "reviewer")
		c.Next()
	})
	router.GET("/api/approvals", handler.List)
	router.GET("/api/approvals/:id", handler.Get)
	router.POST("/api/approvals/:id/approve", handler.Approve)
	router.POST("/api/approvals/:id/reject", handler.Reject)
	return router
}

// escalate runs a reconciliation that parks a plan and returns its approval id.
func escalate(t *testing.T, engine *recon.Engine) string {
	t.Helper()
	invoice := &model.InvoiceData{
		VendorName:    "Acme Industrial Supply",
		InvoiceNumber: "INV-3003",
		Lines: []model.InvoiceLine{
			{SKU: "WID-100", Description: "Widget", Quantity: decimal.NewFromInt(100), UnitPrice: decimal.RequireFromString("2.80")},
		},
	}
	res, err := engine.Reconcile(context.Background(), invoice, "10042")
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if res.ApprovalID == "" {
		t.Fatalf("expected an escalation, got verdict %s", res.OverallVerdict)
	}
	return res.ApprovalID
}

func TestApprovalHandlerListAndGet(t *testing.T) {
	engine := newTestEngine()
	router := approvalRouter(engine)
	id := escalate(t, engine)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/approvals", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("List: expected status 200, got %d", w.Code)
	}
	var listResp struct {
		Approvals []model.PendingApproval `json:"approvals"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("Failed to parse list: %v", err)
	}
	if len(listResp.Approvals) != 1 || listResp.Approvals[0].ID != id {
		t.Errorf("list = %+v, want the escalated entry", listResp.Approvals)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/approvals/"+id, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Get: expected status 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/approvals/no-such-id", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Get unknown: expected status 404, got %d", w.Code)
	}
}

func TestApprovalHandlerApprove(t *testing.T) {
	engine := newTestEngine()
	router := approvalRouter(engine)
	id := escalate(t, engine)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/approvals/"+id+"/approve", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Approve: expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var outcome model.ApplyOutcome
	if err := json.Unmarshal(w.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("Failed to parse outcome: %v", err)
	}
	if len(outcome.Applied) != 1 {
		t.Errorf("applied = %v, want one change", outcome.Applied)
	}

	// Second approval conflicts
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/approvals/"+id+"/approve", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("Second approve: expected status 409, got %d", w.Code)
	}
}

func TestApprovalHandlerReject(t *testing.T) {
	engine := newTestEngine()
	router := approvalRouter(engine)
	id := escalate(t, engine)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/approvals/"+id+"/reject", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Reject: expected status 200, got %d", w.Code)
	}

	// Approving after rejection conflicts
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/approvals/"+id+"/approve", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("Approve after reject: expected status 409, got %d", w.Code)
	}
}
