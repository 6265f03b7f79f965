package checkout

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocrweb/internal/domain"
	"ocrweb/internal/metrics"
)

type scriptedStatus struct {
	responses []statusResponse
	calls     int
	ids       []string
}

type statusResponse struct {
	status *domain.PaymentStatus
	err    error
}

func (s *scriptedStatus) PaymentStatus(_ context.Context, id string) (*domain.PaymentStatus, error) {
	s.calls++
	s.ids = append(s.ids, id)
	if len(s.responses) == 0 {
		return &domain.PaymentStatus{Status: domain.PaymentPending}, nil
	}
	r := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return r.status, r.err
}

type countingRefresher struct{ calls int }

func (c *countingRefresher) Refresh(context.Context) error {
	c.calls++
	return nil
}

type recordingSleeper struct {
	sleeps []time.Duration
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.sleeps = append(r.sleeps, d)
	return nil
}

func pending() statusResponse {
	return statusResponse{status: &domain.PaymentStatus{Status: domain.PaymentPending}}
}

func TestReconcileAlwaysPendingTimesOut(t *testing.T) {
	status := &scriptedStatus{}
	refresher := &countingRefresher{}
	sleeper := &recordingSleeper{}
	r := NewReconciler(status, refresher, ReconcilerOptions{Sleeper: sleeper})

	out := r.Reconcile(context.Background(), "cs_1")

	assert.Equal(t, StateTimedOut, out.State)
	assert.NoError(t, out.Err)
	assert.Equal(t, 10, status.calls)
	assert.Equal(t, 10, out.Attempts)
	require.Len(t, sleeper.sleeps, 9)
	for _, d := range sleeper.sleeps {
		assert.Equal(t, time.Second, d)
	}
	assert.Zero(t, refresher.calls)
}

func TestReconcileCompletesOnThirdPoll(t *testing.T) {
	status := &scriptedStatus{responses: []statusResponse{
		pending(),
		pending(),
		{status: &domain.PaymentStatus{Status: domain.PaymentCompleted, TokensGranted: 5}},
	}}
	refresher := &countingRefresher{}
	sleeper := &recordingSleeper{}
	m := metrics.New()
	r := NewReconciler(status, refresher, ReconcilerOptions{Sleeper: sleeper, Metrics: m})

	out := r.Reconcile(context.Background(), "cs_2")

	assert.Equal(t, StateCompleted, out.State)
	assert.Equal(t, 3, status.calls)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, 5, out.TokensGranted)
	assert.Equal(t, 1, refresher.calls)
	assert.Len(t, sleeper.sleeps, 2)
	assert.Equal(t, []string{"cs_2", "cs_2", "cs_2"}, status.ids)
}

func TestReconcileMissingCheckoutIDDoesNotPoll(t *testing.T) {
	status := &scriptedStatus{}
	refresher := &countingRefresher{}
	r := NewReconciler(status, refresher, ReconcilerOptions{Sleeper: &recordingSleeper{}})

	out := r.Reconcile(context.Background(), "  ")

	assert.Equal(t, StateAborted, out.State)
	assert.ErrorIs(t, out.Err, domain.ErrMissingCheckoutID)
	assert.Zero(t, status.calls)
	assert.Zero(t, refresher.calls)
}

func TestReconcileErrorsCountAsAttempts(t *testing.T) {
	status := &scriptedStatus{responses: []statusResponse{
		{err: errors.New("connection reset")},
		{err: errors.New("connection reset")},
		{status: &domain.PaymentStatus{Status: domain.PaymentCompleted, TokensGranted: 3}},
	}}
	refresher := &countingRefresher{}
	r := NewReconciler(status, refresher, ReconcilerOptions{MaxAttempts: 2, Sleeper: &recordingSleeper{}})

	out := r.Reconcile(context.Background(), "cs_3")

	assert.Equal(t, StateTimedOut, out.State)
	assert.Equal(t, 2, status.calls)
	assert.Nil(t, out.LastStatus)
	assert.Zero(t, refresher.calls)
}

func TestReconcileStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	status := &scriptedStatus{}
	sleeper := SleeperFunc(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	})
	r := NewReconciler(status, &countingRefresher{}, ReconcilerOptions{Sleeper: sleeper})

	out := r.Reconcile(ctx, "cs_4")

	assert.Equal(t, StateFailed, out.State)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Equal(t, 1, status.calls)
}

func TestTimerSleeperHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := TimerSleeper{}.Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateCompleted, StateTimedOut, StateFailed, StateAborted} {
		assert.True(t, s.Terminal(), s)
	}
	for _, s := range []State{StateCreated, StateRedirected, StatePolling} {
		assert.False(t, s.Terminal(), s)
	}
}

func TestReconcileCountsPollsByReportedStatus(t *testing.T) {
	status := &scriptedStatus{responses: []statusResponse{
		pending(),
		{status: &domain.PaymentStatus{Status: domain.PaymentFailed}},
		{status: &domain.PaymentStatus{Status: domain.PaymentExpired}},
	}}
	m := metrics.New()
	r := NewReconciler(status, &countingRefresher{}, ReconcilerOptions{
		MaxAttempts: 3,
		Sleeper:     &recordingSleeper{},
		Metrics:     m,
	})

	out := r.Reconcile(context.Background(), "cs_1")
	assert.Equal(t, StateTimedOut, out.State)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	for _, line := range []string{
		`ocrweb_payment_polls_total{result="pending"} 1`,
		`ocrweb_payment_polls_total{result="failed"} 1`,
		`ocrweb_payment_polls_total{result="expired"} 1`,
	} {
		assert.Contains(t, body, line)
	}
}
