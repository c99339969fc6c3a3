// Token bucket rate limiter implementation
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	mu       sync.Mutex
	rate     Rate
	burst    int
	tokens   float64
	lastTick time.Time
	clock    Clock
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(rate Rate, burst int) *TokenBucket {
	return NewTokenBucketWithClock(rate, burst, SystemClock{})
}

// NewTokenBucketWithClock creates a new token bucket with custom clock
func NewTokenBucketWithClock(rate Rate, burst int, clock Clock) *TokenBucket {
	if rate < 0 {
		rate = 0
	}
	if burst <= 0 {
		burst = 1
	}

	return &TokenBucket{
		rate:     rate,
		burst:    burst,
		tokens:   float64(burst),
		lastTick: clock.Now(),
		clock:    clock,
	}
}

// Allow returns true if a request is allowed under the rate limit
func (tb *TokenBucket) Allow() bool {
	return tb.AllowN(1)
}

// AllowN returns true if n requests are allowed under the rate limit
func (tb *TokenBucket) AllowN(n int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.clock.Now()
	tb.advance(now)

	if float64(n) <= tb.tokens {
		tb.tokens -= float64(n)
		return true
	}

	return false
}

// Wait blocks until a request is allowed or context is cancelled
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.WaitN(ctx, 1)
}

// WaitN blocks until n requests are allowed or context is cancelled
func (tb *TokenBucket) WaitN(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}

	reservation := tb.ReserveN(n)
	if !reservation.OK() {
		return ErrLimitExceeded
	}

	delay := reservation.Delay()
	if delay == 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		reservation.Cancel()
		return ctx.Err()
	}
}

// Reserve reserves a token and returns a reservation
func (tb *TokenBucket) Reserve() Reservation {
	return tb.ReserveN(1)
}

// ReserveN reserves n tokens and returns a reservation
func (tb *TokenBucket) ReserveN(n int) Reservation {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.clock.Now()
	tb.advance(now)

	// Check if burst size is exceeded
	if n > tb.burst {
		return Reservation{
			ok:      false,
			tokens:  n,
			limiter: tb,
		}
	}

	// Calculate when we'll have enough tokens
	var waitTime time.Duration
	if float64(n) > tb.tokens {
		deficit := float64(n) - tb.tokens
		waitTime = time.Duration(deficit/float64(tb.rate)*float64(time.Second) + 0.5)
	}

	// Reserve the tokens
	tb.tokens -= float64(n)

	return Reservation{
		ok:        true,
		delay:     waitTime,
		tokens:    n,
		timeToAct: now.Add(waitTime),
		limiter:   tb,
	}
}

// Limit returns the current rate limit
func (tb *TokenBucket) Limit() Rate {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.rate
}

// Burst returns the current burst size
func (tb *TokenBucket) Burst() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.burst
}

// SetLimit changes the rate limit
func (tb *TokenBucket) SetLimit(newRate Rate) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.clock.Now()
	tb.advance(now)
	tb.rate = newRate
}

// Tokens returns the current number of available tokens
func (tb *TokenBucket) Tokens() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.clock.Now()
	tb.advance(now)
	return tb.tokens
}

// advance updates the token bucket based on elapsed time
func (tb *TokenBucket) advance(now time.Time) {
	if now.Before(tb.lastTick) {
		// Clock went backwards, reset lastTick
		tb.lastTick = now
		return
	}

	elapsed := now.Sub(tb.lastTick).Seconds()
	tb.lastTick = now

	if tb.rate == Inf {
		tb.tokens = float64(tb.burst)
		return
	}

	// Add tokens based on elapsed time
	tb.tokens += elapsed * float64(tb.rate)
	if tb.tokens > float64(tb.burst) {
		tb.tokens = float64(tb.burst)
	}
}

// cancelReservation cancels a reservation and returns tokens
func (tb *TokenBucket) cancelReservation(r *Reservation) {
	tb.cancelReservationAt(r, tb.clock.Now())
}

// cancelReservationAt cancels a reservation at a specific time
func (tb *TokenBucket) cancelReservationAt(r *Reservation, now time.Time) {
	if !r.ok {
		return
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.advance(now)

	// Only return tokens if the reservation hasn't been used yet
	if now.Before(r.timeToAct) {
		tb.tokens += float64(r.tokens)
		if tb.tokens > float64(tb.burst) {
			tb.tokens = float64(tb.burst)
		}
	}
}
