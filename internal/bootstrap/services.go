// Package bootstrap wires the clients and stores shared by the web client and
// the CLI.
package bootstrap

import (
	"context"
	"fmt"

	"ocrweb/internal/checkout"
	"ocrweb/internal/identity"
	"ocrweb/internal/infra"
	"ocrweb/internal/metrics"
	"ocrweb/internal/ocr"
	"ocrweb/internal/providers/auth"
	"ocrweb/internal/providers/backend"
	"ocrweb/internal/quota"
	"ocrweb/internal/render"
	"ocrweb/internal/session"
	"ocrweb/internal/storage"
)

// Services is the composed application.
type Services struct {
	Config     *infra.Config
	Logger     *infra.Logger
	Metrics    *metrics.Metrics
	Store      session.Store
	Backend    *backend.Client
	Auth       *auth.Client
	Resolver   *identity.Resolver
	Session    *identity.Session
	Quota      *quota.Store
	Documents  *ocr.Submitter
	Exporter   *render.Exporter
	Checkout   *checkout.Flow
	Reconciler *checkout.Reconciler
}

// Options overrides pieces of the default wiring, mostly for tests.
type Options struct {
	Store         session.Store
	Fingerprinter identity.Fingerprinter
	Sleeper       checkout.Sleeper
	// ExportFiles enables Exporter.Save into cfg.ExportDir.
	ExportFiles bool
}

// New opens the session store and builds every service on top of it. A
// persisted account token is verified before New returns.
func New(ctx context.Context, cfg *infra.Config, logger *infra.Logger, opts Options) (*Services, error) {
	logger = infra.OrDiscard(logger)

	store := opts.Store
	if store == nil {
		var err error
		store, err = session.Open(ctx, cfg, *logger)
		if err != nil {
			return nil, err
		}
	}

	m := metrics.New()
	backendClient := backend.NewClient(backend.Options{
		BaseURL:        cfg.APIBaseURL,
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout,
	})
	authClient := auth.NewClient(auth.Options{
		BaseURL:        cfg.AuthBaseURL,
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout,
	})

	resolver := identity.NewResolver(store, opts.Fingerprinter, logger)
	sess := identity.NewSession(resolver, store, authClient, logger)
	if user, err := sess.Restore(ctx); err != nil {
		logger.Warn().Err(err).Msg("bootstrap: restore account session failed")
	} else if user != nil {
		logger.Info().Str("user_id", user.ID).Msg("bootstrap: account session restored")
	}

	quotaStore := quota.NewStore(backendClient, sess, logger, m)

	var files *storage.FileStore
	if opts.ExportFiles {
		var err error
		files, err = storage.NewFileStore(cfg.ExportDir)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("bootstrap: export dir: %w", err)
		}
	}

	return &Services{
		Config:    cfg,
		Logger:    logger,
		Metrics:   m,
		Store:     store,
		Backend:   backendClient,
		Auth:      authClient,
		Resolver:  resolver,
		Session:   sess,
		Quota:     quotaStore,
		Documents: ocr.NewSubmitter(backendClient, quotaStore, sess, logger, m),
		Exporter:  render.NewExporter(backendClient, files, logger),
		Checkout:  checkout.NewFlow(backendClient, sess, cfg.PublicURL, logger, m),
		Reconciler: checkout.NewReconciler(backendClient, quotaStore, checkout.ReconcilerOptions{
			MaxAttempts: cfg.PaymentPollAttempts,
			Interval:    cfg.PaymentPollInterval,
			Sleeper:     opts.Sleeper,
			Logger:      logger,
			Metrics:     m,
		}),
	}, nil
}

// Close releases the session store.
func (s *Services) Close() error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.Close()
}
