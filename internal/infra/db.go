package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionPoolOptions sizes the pool behind the postgres session store.
type SessionPoolOptions struct {
	DatabaseURL     string
	ApplicationName string
	MaxConns        int32
	ConnectTimeout  time.Duration
}

func (o SessionPoolOptions) withDefaults() SessionPoolOptions {
	if o.ApplicationName == "" {
		o.ApplicationName = "ocrweb"
	}
	// One identity per process; a couple of connections is plenty.
	if o.MaxConns <= 0 {
		o.MaxConns = 2
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	return o
}

// SessionPoolOptionsFromConfig derives pool options from the loaded config.
func SessionPoolOptionsFromConfig(cfg *Config) SessionPoolOptions {
	return SessionPoolOptions{DatabaseURL: cfg.DatabaseURL, ConnectTimeout: cfg.RequestTimeout}
}

// NewSessionPool connects and pings the database holding session values.
func NewSessionPool(ctx context.Context, opts SessionPoolOptions, logger *Logger) (*pgxpool.Pool, error) {
	opts = opts.withDefaults()
	if opts.DatabaseURL == "" {
		return nil, errors.New("database url is required")
	}

	poolCfg, err := pgxpool.ParseConfig(opts.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = opts.MaxConns
	poolCfg.MinConns = 0
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 10 * time.Minute
	poolCfg.ConnConfig.RuntimeParams["application_name"] = opts.ApplicationName

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	OrDiscard(logger).Info().
		Str("host", poolCfg.ConnConfig.Host).
		Str("database", poolCfg.ConnConfig.Database).
		Int32("max_conns", opts.MaxConns).
		Msg("session database connected")
	return pool, nil
}
