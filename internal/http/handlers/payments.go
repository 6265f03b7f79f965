package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"ocrweb/internal/domain"
	"ocrweb/internal/quota"
)

// Pricing lists products next to a fresh balance; both reads run in parallel.
func (a *App) Pricing(w http.ResponseWriter, r *http.Request) {
	data, status := a.pricingPage(r)
	a.render(w, r, status, data)
}

func (a *App) pricingPage(r *http.Request) (*pageData, int) {
	var products []domain.Product
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		products, err = a.Products.Products(ctx)
		return err
	})
	g.Go(func() error {
		if err := a.Quota.Refresh(ctx); err != nil {
			a.log(r).Warn().Err(err).Msg("refresh quota failed")
		}
		return nil
	})
	err := g.Wait()

	data := a.newPage(r, "pricing")
	data.Products = products
	st := a.Quota.Snapshot()
	id, idErr := a.Identity.Current(r.Context())
	data.Blocked = r.URL.Query().Get("reason") == "blocked" ||
		(idErr == nil && quota.Check(st, id) != nil)
	if err != nil {
		a.log(r).Error().Err(err).Msg("list products failed")
		data.Error = domain.UserMessage(err)
		return data, http.StatusBadGateway
	}
	return data, http.StatusOK
}

// StartCheckout creates a checkout session and hands the browser to the
// processor. Failures are shown on the pricing page; nothing is retried.
func (a *App) StartCheckout(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimSpace(r.PostFormValue("product_id"))
	session, err := a.Checkout.Start(r.Context(), productID)
	if err != nil {
		data, _ := a.pricingPage(r)
		data.Error = domain.UserMessage(err)
		a.render(w, r, http.StatusBadGateway, data)
		return
	}
	http.Redirect(w, r, session.CheckoutURL, http.StatusSeeOther)
}

// PaymentSuccess is the processor return URL. Without a checkout id it sends
// the user home; otherwise it polls the payment status and reports the
// outcome. Leaving the page cancels the request context and stops polling.
func (a *App) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	checkoutID := strings.TrimSpace(r.URL.Query().Get("checkout_id"))
	if checkoutID == "" {
		redirect(w, r, "/")
		return
	}
	outcome := a.Payments.Reconcile(r.Context(), checkoutID)
	a.log(r).Info().
		Str("checkout_id", checkoutID).
		Str("state", string(outcome.State)).
		Int("attempts", outcome.Attempts).
		Msg("payment reconciled")
	if r.Context().Err() != nil {
		return
	}
	data := a.newPage(r, "payment")
	data.Outcome = &outcome
	a.render(w, r, http.StatusOK, data)
}
