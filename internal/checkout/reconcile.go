package checkout

import (
	"context"
	"strings"
	"time"

	"ocrweb/internal/domain"
	"ocrweb/internal/infra"
	"ocrweb/internal/metrics"
)

const (
	DefaultMaxAttempts = 10
	DefaultInterval    = time.Second
)

// StatusReader reads a checkout session outcome.
type StatusReader interface {
	PaymentStatus(ctx context.Context, checkoutID string) (*domain.PaymentStatus, error)
}

// Refresher re-reads the token balance.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Sleeper waits between polls.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// TimerSleeper sleeps on a real timer and wakes early when ctx is done.
type TimerSleeper struct{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Outcome is the result of one reconciliation run.
type Outcome struct {
	State         State
	Attempts      int
	TokensGranted int
	LastStatus    *domain.PaymentStatus
	Err           error
}

// ReconcilerOptions configures a Reconciler. Zero values take the defaults.
type ReconcilerOptions struct {
	MaxAttempts int
	Interval    time.Duration
	Sleeper     Sleeper
	Logger      *infra.Logger
	Metrics     *metrics.Metrics
}

// Reconciler polls the payment status after the processor redirect until the
// payment completes or the attempt budget runs out.
type Reconciler struct {
	status      StatusReader
	quota       Refresher
	maxAttempts int
	interval    time.Duration
	sleeper     Sleeper
	logger      *infra.Logger
	metrics     *metrics.Metrics
}

func NewReconciler(status StatusReader, quota Refresher, opts ReconcilerOptions) *Reconciler {
	r := &Reconciler{
		status:      status,
		quota:       quota,
		maxAttempts: opts.MaxAttempts,
		interval:    opts.Interval,
		sleeper:     opts.Sleeper,
		logger:      infra.OrDiscard(opts.Logger),
		metrics:     opts.Metrics,
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = DefaultMaxAttempts
	}
	if r.interval <= 0 {
		r.interval = DefaultInterval
	}
	if r.sleeper == nil {
		r.sleeper = TimerSleeper{}
	}
	return r
}

// Reconcile polls checkoutID at most MaxAttempts times. A completed payment
// triggers exactly one quota refresh. Exhausting the budget yields
// StateTimedOut with no error; the payment may still settle later.
func (r *Reconciler) Reconcile(ctx context.Context, checkoutID string) Outcome {
	checkoutID = strings.TrimSpace(checkoutID)
	if checkoutID == "" {
		return r.finish(Outcome{State: StateAborted, Err: domain.ErrMissingCheckoutID})
	}

	log := r.logger.With().Str("checkout_id", checkoutID).Logger()
	out := Outcome{State: StatePolling}
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := r.sleeper.Sleep(ctx, r.interval); err != nil {
				out.State = StateFailed
				out.Err = err
				return r.finish(out)
			}
		}
		if err := ctx.Err(); err != nil {
			out.State = StateFailed
			out.Err = err
			return r.finish(out)
		}

		out.Attempts = attempt
		status, err := r.status.PaymentStatus(ctx, checkoutID)
		if err != nil {
			r.metrics.PaymentPoll("error")
			log.Warn().Err(err).Int("attempt", attempt).Msg("checkout: status poll failed")
			continue
		}
		out.LastStatus = status
		if !status.Completed() {
			r.metrics.PaymentPoll(string(status.Status))
			log.Debug().Int("attempt", attempt).Str("status", string(status.Status)).Msg("checkout: payment pending")
			continue
		}

		r.metrics.PaymentPoll(string(status.Status))
		out.State = StateCompleted
		out.TokensGranted = status.TokensGranted
		if err := r.quota.Refresh(ctx); err != nil {
			log.Warn().Err(err).Msg("checkout: quota refresh after payment failed")
		}
		log.Info().Int("attempt", attempt).Int("tokens_granted", status.TokensGranted).Msg("checkout: payment completed")
		return r.finish(out)
	}

	out.State = StateTimedOut
	log.Info().Int("attempts", out.Attempts).Msg("checkout: payment still pending, giving up")
	return r.finish(out)
}

func (r *Reconciler) finish(out Outcome) Outcome {
	r.metrics.Reconciled(string(out.State))
	return out
}
