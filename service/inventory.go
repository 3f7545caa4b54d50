package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bselee/Aria-sub000/config"
	"github.com/bselee/Aria-sub000/model"
	"github.com/bselee/Aria-sub000/recon"
)

// InventoryService is the HTTP client for the external inventory/order
// system. It implements recon.Inventory.
type InventoryService struct {
	config     *config.InventoryConfig
	httpClient *http.Client
}

func NewInventoryService(cfg *config.InventoryConfig) *InventoryService {
	return &InventoryService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// orderResponse is the order summary payload from the inventory API.
type orderResponse struct {
	OrderID      string `json:"order_id"`
	SupplierName string `json:"supplier_name"`
	Lines        []struct {
		ProductID   string          `json:"product_id"`
		UnitPrice   decimal.Decimal `json:"unit_price"`
		Quantity    decimal.Decimal `json:"quantity"`
		Description string          `json:"description"`
	} `json:"lines"`
	Adjustments []struct {
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
	} `json:"adjustments"`
}

// shipmentsResponse is the order details payload carrying shipment refs.
type shipmentsResponse struct {
	Shipments []struct {
		Ref string `json:"ref"`
	} `json:"shipments"`
}

type priceUpdateRequest struct {
	Price decimal.Decimal `json:"price"`
}

type adjustmentRequest struct {
	FeeType     string          `json:"fee_type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type trackingRequest struct {
	TrackingNumbers []string `json:"tracking_numbers"`
	ShipDate        string   `json:"ship_date,omitempty"`
	CarrierName     string   `json:"carrier_name,omitempty"`
}

// GetOrderSummary fetches a fresh order snapshot, merging shipment refs from
// the order details endpoint. Never cached, prices may change between calls.
func (s *InventoryService) GetOrderSummary(ctx context.Context, orderID string) (*model.OrderSummary, error) {
	var resp orderResponse
	if err := s.do(ctx, http.MethodGet, fmt.Sprintf("/api/orders/%s", url.PathEscape(orderID)), nil, &resp); err != nil {
		return nil, err
	}

	summary := &model.OrderSummary{
		OrderID:      resp.OrderID,
		SupplierName: resp.SupplierName,
	}
	for _, l := range resp.Lines {
		summary.Lines = append(summary.Lines, model.OrderLine{
			ProductID:   l.ProductID,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			Description: l.Description,
		})
	}
	for _, a := range resp.Adjustments {
		summary.Adjustments = append(summary.Adjustments, model.OrderAdjustment{
			Description: a.Description,
			Amount:      a.Amount,
		})
	}

	var ships shipmentsResponse
	if err := s.do(ctx, http.MethodGet, fmt.Sprintf("/api/orders/%s/shipments", url.PathEscape(orderID)), nil, &ships); err == nil {
		for _, sh := range ships.Shipments {
			summary.ShipmentRefs = append(summary.ShipmentRefs, sh.Ref)
		}
	}

	return summary, nil
}

// UpdateOrderItemPrice writes one line's unit price back to the order.
func (s *InventoryService) UpdateOrderItemPrice(ctx context.Context, orderID, productID string, price decimal.Decimal) error {
	path := fmt.Sprintf("/api/orders/%s/items/%s/price", url.PathEscape(orderID), url.PathEscape(productID))
	return s.do(ctx, http.MethodPost, path, priceUpdateRequest{Price: price}, nil)
}

// AddOrderAdjustment adds a new fee adjustment to the order.
func (s *InventoryService) AddOrderAdjustment(ctx context.Context, orderID, feeType string, amount decimal.Decimal, description string) error {
	path := fmt.Sprintf("/api/orders/%s/adjustments", url.PathEscape(orderID))
	return s.do(ctx, http.MethodPost, path, adjustmentRequest{FeeType: feeType, Amount: amount, Description: description}, nil)
}

// UpdateShipmentTracking writes tracking data onto an order shipment.
func (s *InventoryService) UpdateShipmentTracking(ctx context.Context, shipmentRef string, upd model.TrackingUpdate) error {
	path := fmt.Sprintf("/api/shipments/%s/tracking", url.PathEscape(shipmentRef))
	return s.do(ctx, http.MethodPost, path, trackingRequest{
		TrackingNumbers: upd.TrackingNumbers,
		ShipDate:        upd.ShipDate,
		CarrierName:     upd.CarrierName,
	}, nil)
}

// do issues one JSON request against the inventory API. A 404 maps to
// recon.ErrOrderNotFound so the engine can report no_match instead of failing.
func (s *InventoryService) do(ctx context.Context, method, path string, reqBody, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, recon.ErrOrderNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("inventory API error: %s: %s", resp.Status, string(data))
	}

	if respBody != nil {
		if err := json.Unmarshal(data, respBody); err != nil {
			return fmt.Errorf("failed to parse response: %w, body: %s", err, string(data))
		}
	}
	return nil
}
