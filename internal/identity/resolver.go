// Package identity resolves the device id and the optional authenticated
// account layered over it.
package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"ocrweb/internal/domain"
	"ocrweb/internal/infra"
	"ocrweb/internal/session"
)

// DegradedPrefix marks device ids generated when fingerprinting failed.
const DegradedPrefix = "anon-"

// Resolver produces a stable device id without user interaction. The first
// successful call is memoized for the lifetime of the process.
type Resolver struct {
	store  session.Store
	fp     Fingerprinter
	logger *infra.Logger

	mu     sync.Mutex
	cached domain.DeviceID
}

func NewResolver(store session.Store, fp Fingerprinter, logger *infra.Logger) *Resolver {
	if fp == nil {
		fp = HostFingerprinter{}
	}
	return &Resolver{store: store, fp: fp, logger: infra.OrDiscard(logger)}
}

// DeviceID returns the persisted id, generating and persisting one on first use.
// When fingerprinting fails a random anon-<uuid> id is used and persisted in
// its place, so the degraded identity stays stable across restarts.
func (r *Resolver) DeviceID(ctx context.Context) (domain.DeviceID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cached != "" {
		return r.cached, nil
	}

	stored, ok, err := r.store.Get(ctx, session.KeyDeviceID)
	if err != nil {
		r.logger.Warn().Err(err).Msg("identity: read persisted device id failed")
	}
	if ok && stored != "" {
		r.cached = domain.DeviceID(stored)
		return r.cached, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id, fpErr := r.fp.Fingerprint(ctx)
	if fpErr != nil || id == "" {
		id = DegradedPrefix + uuid.NewString()
		r.logger.Warn().Err(fpErr).Str("device_id", id).Msg("identity: fingerprint unavailable, using random device id")
	}
	if err := r.store.Set(ctx, session.KeyDeviceID, id); err != nil {
		r.logger.Warn().Err(err).Msg("identity: persist device id failed")
	}
	r.cached = domain.DeviceID(id)
	return r.cached, nil
}
