package services

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shiftly/mono-repo/backend/services/works-service/internal/constants"
	"golang.org/x/time/rate"
)

/*
AttemptLimiter bounds failed completion attempts per key with a token
bucket: maxFailures in a burst, refilled at maxFailures per window. Buckets
live in an expiring cache so idle keys are dropped.

An attempt holds its token from Acquire until it settles, so concurrent
guesses cannot all pass before any of them is counted.

A nil *AttemptLimiter never blocks.
*/
type AttemptLimiter struct {
	buckets *cache.Cache
	every   rate.Limit
	burst   int
	ttl     time.Duration
}

type attemptBucket struct {
	mu      sync.Mutex
	lim     *rate.Limiter
	pending int // acquired attempts not yet settled
}

// NewAttemptLimiter returns nil when maxFailures <= 0.
func NewAttemptLimiter(maxFailures int, window time.Duration) *AttemptLimiter {
	if maxFailures <= 0 || window <= 0 {
		return nil
	}
	return &AttemptLimiter{
		buckets: cache.New(window, constants.AttemptLimiterCleanupInterval),
		every:   rate.Every(window / time.Duration(maxFailures)),
		burst:   maxFailures,
		ttl:     window,
	}
}

func (l *AttemptLimiter) bucket(key string) *attemptBucket {
	if v, ok := l.buckets.Get(key); ok {
		return v.(*attemptBucket)
	}
	b := &attemptBucket{lim: rate.NewLimiter(l.every, l.burst)}
	// Add fails if another goroutine stored a bucket first; use theirs.
	if err := l.buckets.Add(key, b, l.ttl); err != nil {
		if v, ok := l.buckets.Get(key); ok {
			return v.(*attemptBucket)
		}
	}
	return b
}

/*
Acquire reserves one attempt for key. It returns false when the tokens
left, minus attempts still in flight, are used up. Every acquired Attempt
must be settled exactly once with Failed, Succeeded or Cancel.
*/
func (l *AttemptLimiter) Acquire(key string) (*Attempt, bool) {
	if l == nil {
		return nil, true
	}
	b := l.bucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lim.Tokens()-float64(b.pending) < 1 {
		return nil, false
	}
	b.pending++
	// keep the bucket alive while the attempt is in flight
	l.buckets.Set(key, b, l.ttl)
	return &Attempt{l: l, key: key, b: b}, true
}

func (l *AttemptLimiter) Reset(key string) {
	if l == nil {
		return
	}
	l.buckets.Delete(key)
}

// Attempt is one reserved try. The nil Attempt, handed out by a disabled
// limiter, accepts every call.
type Attempt struct {
	l   *AttemptLimiter
	key string
	b   *attemptBucket
}

func (a *Attempt) settle(consume bool) {
	a.b.mu.Lock()
	defer a.b.mu.Unlock()
	a.b.pending--
	if consume {
		a.b.lim.Allow()
	}
}

// Failed spends the reserved token.
func (a *Attempt) Failed() {
	if a == nil {
		return
	}
	a.settle(true)
	a.l.buckets.Set(a.key, a.b, a.l.ttl)
}

// Cancel returns the token; the attempt never reached the code check.
func (a *Attempt) Cancel() {
	if a == nil {
		return
	}
	a.settle(false)
}

// Succeeded returns the token and forgets earlier failures for the key.
func (a *Attempt) Succeeded() {
	if a == nil {
		return
	}
	a.settle(false)
	a.l.Reset(a.key)
}
