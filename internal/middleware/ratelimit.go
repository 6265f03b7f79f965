package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

type bucket struct {
	count int
	until time.Time
}

// Limiter counts requests per key in fixed windows.
type Limiter struct {
	limit int
	per   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	nextSweep time.Time
}

// NewLimiter allows limit requests per key in each window of length per. A
// non-positive limit yields nil, which allows everything.
func NewLimiter(limit int, per time.Duration) *Limiter {
	if limit <= 0 {
		return nil
	}
	return &Limiter{limit: limit, per: per, now: time.Now, buckets: make(map[string]*bucket)}
}

// Allow records one request for key. When the window is exhausted it
// reports how long until the window resets.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.now()
	if t.After(l.nextSweep) {
		for k, b := range l.buckets {
			if t.After(b.until) {
				delete(l.buckets, k)
			}
		}
		l.nextSweep = t.Add(l.per)
	}
	b, ok := l.buckets[key]
	if !ok || t.After(b.until) {
		b = &bucket{until: t.Add(l.per)}
		l.buckets[key] = b
	}
	if b.count >= l.limit {
		return false, b.until.Sub(t)
	}
	b.count++
	return true, 0
}

// RateLimit rejects requests over the limiter's budget, keyed by client IP,
// with 429 and Retry-After. rejected, when set, observes each rejection.
func RateLimit(l *Limiter, rejected func(*http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := l.Allow(ClientIP(r))
			if ok {
				next.ServeHTTP(w, r)
				return
			}
			if rejected != nil {
				rejected(r)
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		})
	}
}
