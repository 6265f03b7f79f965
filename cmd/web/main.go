package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ocrweb/internal/bootstrap"
	"ocrweb/internal/http/handlers"
	"ocrweb/internal/http/httpapi"
	"ocrweb/internal/infra"
	"ocrweb/internal/infra/geoip"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	svc, err := bootstrap.New(ctx, cfg, &logger, bootstrap.Options{})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise services")
	}
	defer svc.Close()

	countries, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer countries.Close()

	if err := svc.Quota.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial token status unavailable")
	}

	app, err := handlers.NewApp(handlers.App{
		Logger:        &logger,
		Identity:      svc.Session,
		Auth:          svc.Auth,
		Quota:         svc.Quota,
		Documents:     svc.Documents,
		Exports:       svc.Exporter,
		Products:      svc.Backend,
		Checkout:      svc.Checkout,
		Payments:      svc.Reconciler,
		Metrics:       svc.Metrics,
		SecureCookies: cfg.AppEnv == "production",
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build handlers")
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:        &logger,
		DefaultLocale: cfg.DefaultLocale,
		CountryLookup: countries.Lookup(),
		RateLimit:     cfg.RateLimitPerMin,
		Metrics:       svc.Metrics,
	})
	server := infra.NewHTTPServer(cfg, router, &logger)
	logger.Info().Str("public_url", cfg.PublicURL).Msg("starting web client")
	if err := server.Run(runCtx); err != nil {
		logger.Fatal().Err(err).Msg("http server failed")
	}
}
