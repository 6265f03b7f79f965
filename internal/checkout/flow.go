// Package checkout starts token purchases and reconciles their outcome after
// the processor redirects back.
package checkout

import (
	"context"
	"errors"
	"strings"

	"ocrweb/internal/domain"
	"ocrweb/internal/infra"
	"ocrweb/internal/metrics"
	"ocrweb/internal/providers/backend"
	"ocrweb/internal/quota"
)

// State is a checkout lifecycle stage.
type State string

const (
	StateCreated    State = "created"
	StateRedirected State = "redirected"
	StatePolling    State = "polling"
	StateCompleted  State = "completed"
	StateTimedOut   State = "timed_out"
	StateFailed     State = "failed"
	StateAborted    State = "aborted"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateTimedOut, StateFailed, StateAborted:
		return true
	}
	return false
}

// SessionCreator opens processor-hosted checkout sessions.
type SessionCreator interface {
	CreateCheckout(ctx context.Context, id domain.Identity, req backend.CheckoutRequest) (*domain.CheckoutSession, error)
}

// Flow creates checkout sessions for the current identity.
type Flow struct {
	creator   SessionCreator
	identity  quota.IdentitySource
	publicURL string
	logger    *infra.Logger
	metrics   *metrics.Metrics
}

func NewFlow(creator SessionCreator, identity quota.IdentitySource, publicURL string, logger *infra.Logger, m *metrics.Metrics) *Flow {
	return &Flow{
		creator:   creator,
		identity:  identity,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    infra.OrDiscard(logger),
		metrics:   m,
	}
}

// SuccessURL is where the processor returns after payment.
func (f *Flow) SuccessURL() string { return f.publicURL + "/payment/success" }

// CancelURL is where the processor returns when the user backs out.
func (f *Flow) CancelURL() string { return f.publicURL + "/pricing" }

// Start creates a checkout session for productID. It is not retried; the
// caller redirects the user to the returned URL.
func (f *Flow) Start(ctx context.Context, productID string) (*domain.CheckoutSession, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, errors.New("checkout: product id is required")
	}
	id, err := f.identity.Current(ctx)
	if err != nil {
		f.metrics.Checkout(false)
		return nil, err
	}
	session, err := f.creator.CreateCheckout(ctx, id, backend.CheckoutRequest{
		ProductID:  productID,
		DeviceID:   string(id.DeviceID),
		UserID:     id.UserID(),
		SuccessURL: f.SuccessURL(),
		CancelURL:  f.CancelURL(),
	})
	f.metrics.Checkout(err == nil)
	if err != nil {
		f.logger.Warn().Err(err).Str("product_id", productID).Msg("checkout: create session failed")
		return nil, err
	}
	f.logger.Info().
		Str("product_id", productID).
		Str("checkout_id", session.CheckoutID).
		Str("state", string(StateRedirected)).
		Msg("checkout: session created")
	return session, nil
}
