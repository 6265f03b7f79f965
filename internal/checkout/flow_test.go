package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocrweb/internal/domain"
	"ocrweb/internal/providers/backend"
)

type fakeCreator struct {
	got     backend.CheckoutRequest
	gotID   domain.Identity
	session *domain.CheckoutSession
	err     error
	calls   int
}

func (f *fakeCreator) CreateCheckout(_ context.Context, id domain.Identity, req backend.CheckoutRequest) (*domain.CheckoutSession, error) {
	f.calls++
	f.gotID = id
	f.got = req
	return f.session, f.err
}

type staticIdentity domain.Identity

func (s staticIdentity) Current(context.Context) (domain.Identity, error) {
	return domain.Identity(s), nil
}

func TestFlowStartBuildsRedirectURLs(t *testing.T) {
	creator := &fakeCreator{session: &domain.CheckoutSession{CheckoutID: "cs_1", CheckoutURL: "https://pay.example/cs_1"}}
	id := staticIdentity{DeviceID: "dev", Token: "tok", User: &domain.UserAccount{ID: "u1"}}
	flow := NewFlow(creator, id, "http://localhost:5173/", nil, nil)

	session, err := flow.Start(context.Background(), "ocr_10")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs_1", session.CheckoutURL)
	assert.Equal(t, backend.CheckoutRequest{
		ProductID:  "ocr_10",
		DeviceID:   "dev",
		UserID:     "u1",
		SuccessURL: "http://localhost:5173/payment/success",
		CancelURL:  "http://localhost:5173/pricing",
	}, creator.got)
}

func TestFlowStartDoesNotRetry(t *testing.T) {
	creator := &fakeCreator{err: &backend.APIError{StatusCode: 400, Message: "Invalid product"}}
	flow := NewFlow(creator, staticIdentity{DeviceID: "dev"}, "http://localhost", nil, nil)

	_, err := flow.Start(context.Background(), "ocr_99")
	require.Error(t, err)
	assert.Equal(t, "Invalid product", domain.UserMessage(err))
	assert.Equal(t, 1, creator.calls)
}

func TestFlowStartRequiresProduct(t *testing.T) {
	creator := &fakeCreator{}
	flow := NewFlow(creator, staticIdentity{DeviceID: "dev"}, "http://localhost", nil, nil)

	_, err := flow.Start(context.Background(), "")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrQuotaBlocked))
	assert.Zero(t, creator.calls)
}
