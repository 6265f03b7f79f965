// Package quota holds the shared, observable token balance.
package quota

import (
	"context"
	"sync"

	"ocrweb/internal/domain"
	"ocrweb/internal/infra"
	"ocrweb/internal/metrics"
)

// StatusFetcher reads the authoritative balance for an identity.
type StatusFetcher interface {
	TokenStatus(ctx context.Context, id domain.Identity) (*domain.TokenStatus, error)
}

// IdentitySource returns the identity that scopes quota calls.
type IdentitySource interface {
	Current(ctx context.Context) (domain.Identity, error)
}

// State is an immutable snapshot of the store.
type State struct {
	Status  *domain.TokenStatus
	Loading bool
	Err     string
}

// Known reports whether a balance has been fetched at least once.
func (s State) Known() bool {
	return s.Status != nil
}

// Store is the single shared token status container. Writes are
// last-write-wins; subscribers run after the lock is released.
type Store struct {
	fetcher  StatusFetcher
	identity IdentitySource
	logger   *infra.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	state  State
	nextID int
	subs   map[int]func(State)
}

func NewStore(fetcher StatusFetcher, identity IdentitySource, logger *infra.Logger, m *metrics.Metrics) *Store {
	return &Store{
		fetcher:  fetcher,
		identity: identity,
		logger:   infra.OrDiscard(logger),
		metrics:  m,
		subs:     make(map[int]func(State)),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// Subscribe registers fn for every state change and returns its cancel func.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Refresh fetches the balance for the current identity. On failure the error
// is recorded and the previous status is kept.
func (s *Store) Refresh(ctx context.Context) error {
	s.update(func(st *State) {
		st.Loading = true
		st.Err = ""
	})

	status, err := s.fetch(ctx)
	s.metrics.QuotaRefresh(err == nil)
	if err != nil {
		msg := domain.UserMessage(err)
		s.logger.Warn().Err(err).Msg("quota: refresh failed")
		s.update(func(st *State) {
			st.Loading = false
			st.Err = msg
		})
		return err
	}

	s.logger.Debug().
		Int("total_available", status.TotalAvailable).
		Str("mode", string(status.Mode)).
		Msg("quota: refreshed")
	s.update(func(st *State) {
		st.Status = status
		st.Loading = false
	})
	return nil
}

func (s *Store) fetch(ctx context.Context) (*domain.TokenStatus, error) {
	id, err := s.identity.Current(ctx)
	if err != nil {
		return nil, err
	}
	return s.fetcher.TokenStatus(ctx, id)
}

// SetError records msg as the shared error.
func (s *Store) SetError(msg string) {
	s.update(func(st *State) { st.Err = msg })
}

// ClearError resets the shared error.
func (s *Store) ClearError() {
	s.SetError("")
}

func (s *Store) update(mutate func(*State)) {
	s.mu.Lock()
	mutate(&s.state)
	snapshot := copyState(s.state)
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

func copyState(st State) State {
	if st.Status != nil {
		status := *st.Status
		st.Status = &status
	}
	return st
}
