package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ocrweb/internal/domain"
	"ocrweb/internal/infra"
	"ocrweb/internal/providers/auth"
	"ocrweb/internal/session"
)

// ProfileFetcher verifies a bearer token and returns its account.
type ProfileFetcher interface {
	Profile(ctx context.Context, token string) (*domain.UserAccount, error)
}

// Session layers the authenticated account and the internal bypass key over
// the device id. The account exists between Login and Logout; the token is
// persisted so a restart can Restore it.
type Session struct {
	resolver *Resolver
	store    session.Store
	profiles ProfileFetcher
	logger   *infra.Logger

	mu    sync.RWMutex
	token string
	user  *domain.UserAccount
	// unverified is set while the persisted token awaits a profile check.
	unverified bool
}

func NewSession(resolver *Resolver, store session.Store, profiles ProfileFetcher, logger *infra.Logger) *Session {
	return &Session{resolver: resolver, store: store, profiles: profiles, logger: infra.OrDiscard(logger)}
}

// Restore verifies a persisted token with the identity provider. Rejected
// tokens are cleared. On a transport failure the token is kept and still sent
// with backend calls; Current retries the verification later.
func (s *Session) Restore(ctx context.Context) (*domain.UserAccount, error) {
	token, ok, err := s.store.Get(ctx, session.KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("identity: read token: %w", err)
	}
	if !ok || token == "" {
		return nil, nil
	}
	if s.profiles == nil {
		return nil, nil
	}
	s.mu.Lock()
	s.token = token
	s.unverified = true
	s.mu.Unlock()
	return s.verify(ctx, token)
}

func (s *Session) verify(ctx context.Context, token string) (*domain.UserAccount, error) {
	user, err := s.profiles.Profile(ctx, token)
	if err != nil {
		var authErr *auth.Error
		if !errors.As(err, &authErr) {
			return nil, fmt.Errorf("identity: verify token: %w", err)
		}
		s.logger.Info().Int("status", authErr.StatusCode).Msg("identity: stored token rejected, clearing")
		s.mu.Lock()
		if s.token == token {
			s.token = ""
			s.user = nil
			s.unverified = false
		}
		s.mu.Unlock()
		if delErr := s.store.Delete(ctx, session.KeyAccessToken); delErr != nil {
			return nil, fmt.Errorf("identity: clear token: %w", delErr)
		}
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != token {
		// Login or Logout happened meanwhile.
		return nil, nil
	}
	s.user = user
	s.unverified = false
	return user, nil
}

// Login records an issued token and account.
func (s *Session) Login(ctx context.Context, token string, user domain.UserAccount) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("identity: token is required")
	}
	if err := s.store.Set(ctx, session.KeyAccessToken, token); err != nil {
		return fmt.Errorf("identity: persist token: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.user = &user
	s.unverified = false
	s.mu.Unlock()
	return nil
}

// Logout destroys the authenticated account. The device id is kept.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.unverified = false
	s.mu.Unlock()
	if err := s.store.Delete(ctx, session.KeyAccessToken); err != nil {
		return fmt.Errorf("identity: clear token: %w", err)
	}
	return nil
}

// User returns the authenticated account, or nil.
func (s *Session) User() *domain.UserAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// SetInternalKey stores the quota bypass key used by test accounts.
func (s *Session) SetInternalKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("identity: internal key is required")
	}
	return s.store.Set(ctx, session.KeyInternalKey, key)
}

// ClearInternalKey removes the quota bypass key.
func (s *Session) ClearInternalKey(ctx context.Context) error {
	return s.store.Delete(ctx, session.KeyInternalKey)
}

// Current returns the identity to scope backend calls with. The bearer token
// is sent alongside the device id so the backend can link both.
func (s *Session) Current(ctx context.Context) (domain.Identity, error) {
	deviceID, err := s.resolver.DeviceID(ctx)
	if err != nil {
		return domain.Identity{}, err
	}
	s.mu.RLock()
	pending, token := s.unverified, s.token
	s.mu.RUnlock()
	if pending {
		if _, err := s.verify(ctx, token); err != nil {
			s.logger.Debug().Err(err).Msg("identity: token still unverified")
		}
	}
	key, _, err := s.store.Get(ctx, session.KeyInternalKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("identity: read internal key failed")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id := domain.Identity{DeviceID: deviceID, Token: s.token, InternalKey: key}
	if s.user != nil {
		u := *s.user
		id.User = &u
	}
	return id, nil
}
