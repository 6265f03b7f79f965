package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"ocrweb/internal/domain"
)

// CheckoutRequest is the body of POST /payment/checkout.
type CheckoutRequest struct {
	ProductID  string `json:"product_id"`
	DeviceID   string `json:"device_id"`
	UserID     string `json:"user_id,omitempty"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url,omitempty"`
}

// Products lists the purchasable token bundles.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var payload struct {
		Products []domain.Product `json:"products"`
	}
	if err := c.getJSON(ctx, "/payment/products", "list products", domain.Identity{}, &payload); err != nil {
		return nil, err
	}
	return payload.Products, nil
}

// CreateCheckout opens a checkout session for the product and identity.
func (c *Client) CreateCheckout(ctx context.Context, id domain.Identity, req CheckoutRequest) (*domain.CheckoutSession, error) {
	if strings.TrimSpace(req.ProductID) == "" {
		return nil, errors.New("backend: product id is required")
	}
	if req.DeviceID == "" {
		req.DeviceID = string(id.DeviceID)
	}
	if req.UserID == "" {
		req.UserID = id.UserID()
	}
	raw, _, err := c.postJSON(ctx, "/payment/checkout", "create checkout", id, req)
	if err != nil {
		return nil, err
	}
	var session domain.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("backend: decode checkout: %w", err)
	}
	if session.CheckoutURL == "" || session.CheckoutID == "" {
		return nil, errors.New("backend: checkout response missing id or url")
	}
	return &session, nil
}

// PaymentStatus reads the current outcome of a checkout session. It has no
// side effects and may be called repeatedly for the same id.
func (c *Client) PaymentStatus(ctx context.Context, checkoutID string) (*domain.PaymentStatus, error) {
	checkoutID = strings.TrimSpace(checkoutID)
	if checkoutID == "" {
		return nil, domain.ErrMissingCheckoutID
	}
	var status domain.PaymentStatus
	if err := c.getJSON(ctx, "/payment/status/"+url.PathEscape(checkoutID), "payment status", domain.Identity{}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
