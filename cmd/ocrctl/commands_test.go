package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocrweb/internal/bootstrap"
	"ocrweb/internal/domain"
	"ocrweb/internal/identity"
	"ocrweb/internal/infra"
	"ocrweb/internal/session"
)

type fakeBackend struct {
	mu            sync.Mutex
	total         int
	processCalls  int
	statusCalls   int
	completeAfter int
	lastDevice    string
	lastInternal  string
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/ocr/tokens", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.lastDevice = r.Header.Get("X-Device-Id")
		_ = json.NewEncoder(w).Encode(domain.TokenStatus{DeviceID: b.lastDevice, FreeRemaining: b.total, TotalAvailable: b.total})
	})
	mux.HandleFunc("/api/v1/ocr/process", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.processCalls++
		b.lastInternal = r.Header.Get("X-Internal-Key")
		if b.total > 0 {
			b.total--
		}
		_ = json.NewEncoder(w).Encode(domain.OCRResult{Success: true, Markdown: "# Scan\n\nhello", TokensRemaining: b.total})
	})
	mux.HandleFunc("/api/v1/ocr/convert-docx", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
		_, _ = w.Write([]byte("PK-docx"))
	})
	mux.HandleFunc("/api/v1/payment/products", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"products": []domain.Product{
			{ID: "ocr_3", Name: "Starter", Tokens: 3, PriceDisplay: "$1.99"},
			{ID: "ocr_10", Name: "Standard", Tokens: 10, PriceDisplay: "$4.99"},
		}})
	})
	mux.HandleFunc("/api/v1/payment/checkout", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.CheckoutSession{CheckoutID: "cs_9", CheckoutURL: "https://pay.example/cs_9"})
	})
	mux.HandleFunc("/api/v1/payment/status/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.statusCalls++
		if b.completeAfter > 0 && b.statusCalls >= b.completeAfter {
			b.total += 10
			_ = json.NewEncoder(w).Encode(domain.PaymentStatus{Status: domain.PaymentCompleted, TokensGranted: 10})
			return
		}
		_ = json.NewEncoder(w).Encode(domain.PaymentStatus{Status: domain.PaymentPending})
	})
	return mux
}

type harness struct {
	backend *fakeBackend
	store   session.Store
	cfg     *infra.Config
}

func newHarness(t *testing.T, total int) *harness {
	t.Helper()
	b := &fakeBackend{total: total}
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)
	return &harness{
		backend: b,
		store:   session.NewMemoryStore(),
		cfg: &infra.Config{
			APIBaseURL:          srv.URL + "/api/v1",
			AuthBaseURL:         srv.URL,
			PublicURL:           "http://localhost:8080",
			ExportDir:           t.TempDir(),
			RequestTimeout:      5 * time.Second,
			PaymentPollAttempts: 4,
			PaymentPollInterval: time.Second,
		},
	}
}

func (h *harness) open(ctx context.Context, _ bool) (*bootstrap.Services, error) {
	return bootstrap.New(ctx, h.cfg, nil, bootstrap.Options{
		Store:         h.store,
		Fingerprinter: identity.FingerprintFunc(func(context.Context) (string, error) { return "fp-cli", nil }),
		Sleeper:       noSleep{},
		ExportFiles:   true,
	})
}

type noSleep struct{}

func (noSleep) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func (h *harness) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd(h.open)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestTokensCmd(t *testing.T) {
	h := newHarness(t, 2)
	out, _, err := h.run(t, "tokens")
	require.NoError(t, err)
	assert.Contains(t, out, "Available: 2")
	assert.Equal(t, "fp-cli", h.backend.lastDevice)
}

func TestProcessCmdPrintsMarkdown(t *testing.T) {
	h := newHarness(t, 2)
	pdf := writeTemp(t, "scan.pdf", []byte("%PDF-1.4 test"))

	out, _, err := h.run(t, "process", pdf)
	require.NoError(t, err)
	assert.Contains(t, out, "# Scan")
	assert.Equal(t, 1, h.backend.processCalls)
}

func TestProcessCmdBlockedDoesNotSubmit(t *testing.T) {
	h := newHarness(t, 0)
	pdf := writeTemp(t, "scan.pdf", []byte("%PDF-1.4 test"))

	_, _, err := h.run(t, "process", pdf)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuotaBlocked)
	assert.Contains(t, domain.UserMessage(err), "ocrctl products")
	assert.Zero(t, h.backend.processCalls)
}

func TestProcessCmdInternalKeyBypassesGate(t *testing.T) {
	h := newHarness(t, 0)
	pdf := writeTemp(t, "scan.pdf", []byte("%PDF-1.4 test"))

	_, _, err := h.run(t, "internal-key", "set", "k-123")
	require.NoError(t, err)
	_, _, err = h.run(t, "process", pdf)
	require.NoError(t, err)
	assert.Equal(t, 1, h.backend.processCalls)
	assert.Equal(t, "k-123", h.backend.lastInternal)
}

func TestProcessCmdWritesDocx(t *testing.T) {
	h := newHarness(t, 2)
	pdf := writeTemp(t, "scan.pdf", []byte("%PDF-1.4 test"))
	target := filepath.Join(t.TempDir(), "out", "scan.docx")

	_, stderr, err := h.run(t, "process", pdf, "--docx", "--out", target)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Wrote")
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "PK-docx", string(data))
}

func TestProcessCmdWritesZipBundle(t *testing.T) {
	h := newHarness(t, 2)
	pdf := writeTemp(t, "scan.pdf", []byte("%PDF-1.4 test"))
	target := filepath.Join(t.TempDir(), "scan.zip")

	_, _, err := h.run(t, "process", pdf, "--zip", "--out", target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "ocr-result.md", zr.File[0].Name)
	assert.Equal(t, "ocr-result.docx", zr.File[1].Name)

	_, _, err = h.run(t, "process", pdf, "--zip", "--docx")
	assert.Error(t, err)
}

func TestProcessCmdRejectsUnsupportedFile(t *testing.T) {
	h := newHarness(t, 2)
	txt := writeTemp(t, "notes.txt", []byte("plain text"))

	_, _, err := h.run(t, "process", txt)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFile)
	assert.Zero(t, h.backend.processCalls)
}

func TestProductsCmd(t *testing.T) {
	h := newHarness(t, 0)
	out, _, err := h.run(t, "products")
	require.NoError(t, err)
	assert.Contains(t, out, "ocr_3")
	assert.Contains(t, out, "$4.99")
}

func TestBuyAndWait(t *testing.T) {
	h := newHarness(t, 0)
	out, _, err := h.run(t, "buy", "ocr_10")
	require.NoError(t, err)
	assert.Contains(t, out, "https://pay.example/cs_9")
	assert.Contains(t, out, "ocrctl wait cs_9")
	assert.Zero(t, h.backend.statusCalls)

	h.backend.completeAfter = 2
	out, _, err = h.run(t, "wait", "cs_9")
	require.NoError(t, err)
	assert.Contains(t, out, "10 tokens added")
	assert.Equal(t, 2, h.backend.statusCalls)
}

func TestWaitTimesOutSoftly(t *testing.T) {
	h := newHarness(t, 0)
	out, _, err := h.run(t, "wait", "cs_slow")
	require.NoError(t, err)
	assert.Contains(t, out, "still processing after 4 checks")
	assert.Equal(t, 4, h.backend.statusCalls)
}

func TestRenderCmd(t *testing.T) {
	h := newHarness(t, 0)
	md := writeTemp(t, "doc.md", []byte("# Title\n\n## Part\n\n$$a+b$$\n"))

	out, _, err := h.run(t, "render", md)
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<math")

	out, _, err = h.run(t, "render", "--outline", md)
	require.NoError(t, err)
	assert.Equal(t, "Title\n  Part\n", out)
}

func TestWhoamiAndVersion(t *testing.T) {
	h := newHarness(t, 0)
	out, _, err := h.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Device:  fp-cli")
	assert.Contains(t, out, "Mode:    device")

	oldVersion, oldBuild := Version, BuildTime
	defer func() { Version, BuildTime = oldVersion, oldBuild }()
	Version, BuildTime = "1.2.3", "2026-10-01"
	out, _, err = h.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ocrctl 1.2.3")
	assert.Contains(t, out, "Built: 2026-10-01")
}
