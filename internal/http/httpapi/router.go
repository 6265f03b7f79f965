package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"ocrweb/internal/http/handlers"
	"ocrweb/internal/infra"
	"ocrweb/internal/metrics"
	"ocrweb/internal/middleware"
)

// Options configures the shared middleware stack.
type Options struct {
	Logger        *infra.Logger
	DefaultLocale string
	CountryLookup middleware.CountryLookup
	RateLimit     int
	Metrics       *metrics.Metrics
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(*infra.OrDiscard(opts.Logger)),
		chimw.Recoverer,
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/healthz", app.Health)
	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	r.Get("/api/quota", app.QuotaStatus)

	r.Get("/", app.Index)
	r.Get("/export/markdown", app.ExportMarkdown)
	r.Get("/export/docx", app.ExportDocx)
	r.Get("/export/bundle", app.ExportBundle)
	r.Get("/pricing", app.Pricing)
	r.Get("/payment/success", app.PaymentSuccess)
	r.Get("/login", app.LoginPage)
	r.Get("/lang/{locale}", app.SetLocale)

	r.Group(func(r chi.Router) {
		limiter := middleware.NewLimiter(opts.RateLimit, time.Minute)
		r.Use(middleware.RateLimit(limiter, func(req *http.Request) {
			opts.Metrics.RateLimited(req.URL.Path)
		}))
		r.Post("/upload", app.Upload)
		r.Post("/reset", app.Reset)
		r.Post("/pricing/checkout", app.StartCheckout)
		r.Post("/login/code", app.SendCode)
		r.Post("/login", app.Login)
		r.Post("/logout", app.Logout)
	})

	return r
}
