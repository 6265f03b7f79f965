package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"ocrweb/internal/checkout"
	"ocrweb/internal/domain"
	"ocrweb/internal/infra"
	"ocrweb/internal/metrics"
	"ocrweb/internal/providers/auth"
	"ocrweb/internal/quota"
	"ocrweb/internal/render"
)

// IdentityService exposes the current identity and the account session.
type IdentityService interface {
	Current(ctx context.Context) (domain.Identity, error)
	User() *domain.UserAccount
	Login(ctx context.Context, token string, user domain.UserAccount) error
	Logout(ctx context.Context) error
}

// AuthService talks to the identity provider.
type AuthService interface {
	SendCode(ctx context.Context, phone string) error
	Login(ctx context.Context, phone, code string) (*auth.LoginResult, error)
}

// QuotaService is the shared token balance.
type QuotaService interface {
	Snapshot() quota.State
	Refresh(ctx context.Context) error
}

// DocumentService submits uploads and holds the active result.
type DocumentService interface {
	Submit(ctx context.Context, upload domain.Upload) (*domain.OCRResult, error)
	Current() *domain.Document
	Reset()
}

// ExportService builds downloadable files.
type ExportService interface {
	Markdown(doc *domain.Document) (render.File, error)
	Docx(ctx context.Context, id domain.Identity, doc *domain.Document) (render.File, error)
	Bundle(ctx context.Context, id domain.Identity, doc *domain.Document) (render.File, error)
}

// ProductCatalog lists token bundles.
type ProductCatalog interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

// CheckoutStarter opens checkout sessions.
type CheckoutStarter interface {
	Start(ctx context.Context, productID string) (*domain.CheckoutSession, error)
}

// PaymentReconciler confirms a checkout after the processor redirect.
type PaymentReconciler interface {
	Reconcile(ctx context.Context, checkoutID string) checkout.Outcome
}

// App carries the dependencies of the web client handlers.
type App struct {
	Logger         *infra.Logger
	Identity       IdentityService
	Auth           AuthService
	Quota          QuotaService
	Documents      DocumentService
	Exports        ExportService
	Products       ProductCatalog
	Checkout       CheckoutStarter
	Payments       PaymentReconciler
	Metrics        *metrics.Metrics
	MaxUploadBytes int64
	SecureCookies  bool

	pages pageSet
}

const defaultMaxUploadBytes = 25 << 20

// NewApp validates templates once so a broken page fails at startup.
func NewApp(app App) (*App, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	app.pages = pages
	app.Logger = infra.OrDiscard(app.Logger)
	if app.MaxUploadBytes <= 0 {
		app.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &app, nil
}

func (a *App) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return a.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
