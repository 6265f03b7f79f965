package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ocrweb/internal/checkout"
	"ocrweb/internal/identity"
	"ocrweb/internal/infra"
	"ocrweb/internal/session"
)

func TestNewWiresServicesAgainstBackend(t *testing.T) {
	var deviceHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/ocr/tokens":
			deviceHeader = r.Header.Get("X-Device-Id")
			_ = json.NewEncoder(w).Encode(map[string]any{"device_id": deviceHeader, "free_uses_remaining": 1, "paid_tokens": 0, "total_available": 1})
		case "/api/v1/payment/status/cs_1":
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "completed", "tokens_granted": 10})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := &infra.Config{
		APIBaseURL:          srv.URL + "/api/v1",
		AuthBaseURL:         srv.URL,
		PublicURL:           "http://localhost:8080",
		ExportDir:           t.TempDir(),
		RequestTimeout:      5 * time.Second,
		PaymentPollAttempts: 3,
		PaymentPollInterval: time.Millisecond,
	}
	svc, err := New(context.Background(), cfg, nil, Options{
		Store:         session.NewMemoryStore(),
		Fingerprinter: identity.FingerprintFunc(func(context.Context) (string, error) { return "fp-1", nil }),
		ExportFiles:   true,
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer svc.Close()

	if err := svc.Quota.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if deviceHeader != "fp-1" {
		t.Fatalf("X-Device-Id = %q, want fp-1", deviceHeader)
	}
	if got := svc.Quota.Snapshot().Status.TotalAvailable; got != 1 {
		t.Fatalf("TotalAvailable = %d", got)
	}

	out := svc.Reconciler.Reconcile(context.Background(), "cs_1")
	if out.State != checkout.StateCompleted || out.TokensGranted != 10 {
		t.Fatalf("Reconcile = %+v", out)
	}
}
