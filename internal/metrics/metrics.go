// Package metrics instruments the client flows with Prometheus counters.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ocrweb"

// Metrics holds the client counters.
type Metrics struct {
	registry *prometheus.Registry

	ocrSubmissions   *prometheus.CounterVec
	quotaRefreshes   *prometheus.CounterVec
	checkouts        *prometheus.CounterVec
	paymentPolls     *prometheus.CounterVec
	reconcileOutcome *prometheus.CounterVec
	rateLimited      *prometheus.CounterVec
}

// New registers the counters on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ocrSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ocr_submissions_total",
			Help:      "Document submissions by outcome (success, blocked, rejected, error).",
		}, []string{"outcome"}),
		quotaRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_refreshes_total",
			Help:      "Token balance fetches by outcome.",
		}, []string{"outcome"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout session creations by outcome.",
		}, []string{"outcome"}),
		paymentPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_polls_total",
			Help:      "Payment status polls by result (pending, completed, failed, expired, other, error).",
		}, []string{"result"}),
		reconcileOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_reconciliations_total",
			Help:      "Finished payment reconciliations by final state.",
		}, []string{"state"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limit, by path.",
		}, []string{"path"}),
	}
	m.registry.MustRegister(
		m.ocrSubmissions,
		m.quotaRefreshes,
		m.checkouts,
		m.paymentPolls,
		m.reconcileOutcome,
		m.rateLimited,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) OCRSubmission(outcome string) {
	if m == nil {
		return
	}
	m.ocrSubmissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) QuotaRefresh(ok bool) {
	if m == nil {
		return
	}
	m.quotaRefreshes.WithLabelValues(outcomeLabel(ok)).Inc()
}

func (m *Metrics) Checkout(ok bool) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(outcomeLabel(ok)).Inc()
}

// PaymentPoll counts one status poll. result is the reported payment status
// or "error"; statuses outside the known set are counted as "other".
func (m *Metrics) PaymentPoll(result string) {
	if m == nil {
		return
	}
	switch result {
	case "pending", "completed", "failed", "expired", "error":
	default:
		result = "other"
	}
	m.paymentPolls.WithLabelValues(result).Inc()
}

func (m *Metrics) Reconciled(state string) {
	if m == nil {
		return
	}
	m.reconcileOutcome.WithLabelValues(state).Inc()
}

func outcomeLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// RateLimited counts a request rejected with 429.
func (m *Metrics) RateLimited(path string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(path).Inc()
}
