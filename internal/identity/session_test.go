package identity

import (
	"context"
	"errors"
	"testing"

	"ocrweb/internal/domain"
	"ocrweb/internal/providers/auth"
	"ocrweb/internal/session"
)

type stubProfiles struct {
	user *domain.UserAccount
	err  error
}

func (s stubProfiles) Profile(context.Context, string) (*domain.UserAccount, error) {
	return s.user, s.err
}

// flakyProfiles fails with errs in order, then returns user.
type flakyProfiles struct {
	errs  []error
	user  *domain.UserAccount
	calls int
}

func (f *flakyProfiles) Profile(context.Context, string) (*domain.UserAccount, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.user, nil
}

func newTestSession(t *testing.T, profiles ProfileFetcher) (*Session, session.Store) {
	t.Helper()
	store := session.NewMemoryStore()
	fp := FingerprintFunc(func(context.Context) (string, error) { return "dev-1", nil })
	return NewSession(NewResolver(store, fp, nil), store, profiles, nil), store
}

func TestSessionLoginLogout(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSession(t, nil)

	id, err := s.Current(ctx)
	if err != nil {
		t.Fatalf("Current error: %v", err)
	}
	if id.Mode() != domain.IdentityModeDevice || id.DeviceID != "dev-1" {
		t.Fatalf("anonymous identity = %+v", id)
	}

	if err := s.Login(ctx, "tok-1", domain.UserAccount{ID: "u-1", Phone: "13800138000"}); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	id, _ = s.Current(ctx)
	if id.Mode() != domain.IdentityModeUser || id.Token != "tok-1" || id.DeviceID != "dev-1" {
		t.Fatalf("authenticated identity = %+v", id)
	}
	if tok, ok, _ := store.Get(ctx, session.KeyAccessToken); !ok || tok != "tok-1" {
		t.Fatalf("token not persisted")
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	id, _ = s.Current(ctx)
	if id.Mode() != domain.IdentityModeDevice || id.Token != "" || id.DeviceID != "dev-1" {
		t.Fatalf("identity after logout = %+v", id)
	}
	if _, ok, _ := store.Get(ctx, session.KeyAccessToken); ok {
		t.Fatalf("token still persisted after logout")
	}
}

func TestSessionRestore(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSession(t, stubProfiles{user: &domain.UserAccount{ID: "u-7"}})
	_ = store.Set(ctx, session.KeyAccessToken, "tok-7")

	user, err := s.Restore(ctx)
	if err != nil || user == nil || user.ID != "u-7" {
		t.Fatalf("Restore = %+v, %v", user, err)
	}
	id, _ := s.Current(ctx)
	if id.Token != "tok-7" || id.UserID() != "u-7" {
		t.Fatalf("identity after restore = %+v", id)
	}
}

func TestSessionRestoreClearsRejectedToken(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSession(t, stubProfiles{err: &auth.Error{StatusCode: 401, Message: "Invalid token"}})
	_ = store.Set(ctx, session.KeyAccessToken, "stale")

	user, err := s.Restore(ctx)
	if err != nil || user != nil {
		t.Fatalf("Restore = %+v, %v", user, err)
	}
	if _, ok, _ := store.Get(ctx, session.KeyAccessToken); ok {
		t.Fatalf("rejected token should be cleared")
	}
}

func TestSessionRestoreKeepsTokenOnTransportError(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSession(t, stubProfiles{err: errors.New("dial tcp: refused")})
	_ = store.Set(ctx, session.KeyAccessToken, "tok")

	if _, err := s.Restore(ctx); err == nil {
		t.Fatalf("expected transport error")
	}
	if _, ok, _ := store.Get(ctx, session.KeyAccessToken); !ok {
		t.Fatalf("token should survive a transport failure")
	}
}

func TestSessionSendsTokenAfterTransportErrorAndVerifiesLater(t *testing.T) {
	ctx := context.Background()
	profiles := &flakyProfiles{
		errs: []error{errors.New("dial tcp: refused"), errors.New("dial tcp: refused")},
		user: &domain.UserAccount{ID: "u-9"},
	}
	s, store := newTestSession(t, profiles)
	_ = store.Set(ctx, session.KeyAccessToken, "tok-9")

	if _, err := s.Restore(ctx); err == nil {
		t.Fatalf("expected transport error")
	}
	id, err := s.Current(ctx)
	if err != nil {
		t.Fatalf("Current error: %v", err)
	}
	if id.Token != "tok-9" || id.User != nil {
		t.Fatalf("identity while provider is down = %+v", id)
	}

	id, _ = s.Current(ctx)
	if id.Token != "tok-9" || id.UserID() != "u-9" {
		t.Fatalf("identity after provider recovered = %+v", id)
	}
	if profiles.calls != 3 {
		t.Fatalf("profile calls = %d, want 3", profiles.calls)
	}
	s.Current(ctx)
	if profiles.calls != 3 {
		t.Fatalf("verified token checked again")
	}
}

func TestSessionDropsTokenRejectedOnLaterCheck(t *testing.T) {
	ctx := context.Background()
	profiles := &flakyProfiles{errs: []error{
		errors.New("dial tcp: refused"),
		&auth.Error{StatusCode: 401, Message: "Invalid token"},
	}}
	s, store := newTestSession(t, profiles)
	_ = store.Set(ctx, session.KeyAccessToken, "stale")

	_, _ = s.Restore(ctx)
	id, _ := s.Current(ctx)
	if id.Token != "" {
		t.Fatalf("rejected token still sent: %+v", id)
	}
	if _, ok, _ := store.Get(ctx, session.KeyAccessToken); ok {
		t.Fatalf("rejected token should be cleared")
	}
}

func TestSessionInternalKey(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, nil)
	if err := s.SetInternalKey(ctx, " secret "); err != nil {
		t.Fatalf("SetInternalKey error: %v", err)
	}
	id, _ := s.Current(ctx)
	if !id.HasInternalKey() || id.InternalKey != "secret" {
		t.Fatalf("internal key = %q", id.InternalKey)
	}
	if err := s.ClearInternalKey(ctx); err != nil {
		t.Fatalf("ClearInternalKey error: %v", err)
	}
	id, _ = s.Current(ctx)
	if id.HasInternalKey() {
		t.Fatalf("internal key still present")
	}
}
