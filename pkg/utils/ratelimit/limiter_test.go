package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	rate := PerSecond(10) // 10 requests per second
	burst := 5
	limiter := NewTokenBucket(rate, burst)

	// Test initial burst
	for i := 0; i < burst; i++ {
		if !limiter.Allow() {
			t.Errorf("Request %d should be allowed in initial burst", i+1)
		}
	}

	// Next request should be denied
	if limiter.Allow() {
		t.Error("Request after burst should be denied")
	}

	// Test rate and burst getters
	if limiter.Limit() != rate {
		t.Errorf("Expected rate %v, got %v", rate, limiter.Limit())
	}

	if limiter.Burst() != burst {
		t.Errorf("Expected burst %d, got %d", burst, limiter.Burst())
	}
}

func TestTokenBucketAllowN(t *testing.T) {
	rate := PerSecond(10)
	burst := 5
	limiter := NewTokenBucket(rate, burst)

	// Test allowing N tokens
	if !limiter.AllowN(3) {
		t.Error("Should allow 3 tokens from initial burst")
	}

	if !limiter.AllowN(2) {
		t.Error("Should allow remaining 2 tokens from initial burst")
	}

	// Should not allow more tokens
	if limiter.AllowN(1) {
		t.Error("Should not allow more tokens after burst is exhausted")
	}

	// Test requesting more than burst size
	if limiter.AllowN(burst + 1) {
		t.Error("Should not allow more tokens than burst size")
	}
}

func TestTokenBucketWithMockClock(t *testing.T) {
	clock := NewMockClock(time.Now())
	rate := PerSecond(10) // 10 requests per second = 1 request per 100ms
	burst := 1
	limiter := NewTokenBucketWithClock(rate, burst, clock)

	// Use up the burst
	if !limiter.Allow() {
		t.Error("First request should be allowed")
	}

	// Should be denied immediately
	if limiter.Allow() {
		t.Error("Second request should be denied")
	}

	// Advance clock by 100ms to refill one token
	clock.Advance(100 * time.Millisecond)

	if !limiter.Allow() {
		t.Error("Request should be allowed after token refill")
	}
}

func TestTokenBucketWait(t *testing.T) {
	clock := NewMockClock(time.Now())
	rate := PerSecond(10)
	burst := 1
	limiter := NewTokenBucketWithClock(rate, burst, clock)

	// Use up the burst
	if !limiter.Allow() {
		t.Error("First request should be allowed")
	}

	// Test wait with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := limiter.Wait(ctx)
	elapsed := time.Since(start)

	// Should timeout
	if err != context.DeadlineExceeded {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}

	if elapsed < 40*time.Millisecond {
		t.Error("Wait should have taken at least the timeout duration")
	}
}

func TestTokenBucketReservation(t *testing.T) {
	clock := NewMockClock(time.Now())
	rate := PerSecond(10)
	burst := 2 // Use burst of 2 for more predictable behavior
	limiter := NewTokenBucketWithClock(rate, burst, clock)

	// Use up one token
	reservation1 := limiter.Reserve()
	if !reservation1.OK() {
		t.Error("First reservation should be OK")
	}
	if reservation1.Delay() != 0 {
		t.Error("First reservation should have no delay")
	}

	// Second should also be immediate (burst=2)
	reservation2 := limiter.Reserve()
	if !reservation2.OK() {
		t.Error("Second reservation should be OK")
	}
	if reservation2.Delay() != 0 {
		t.Error("Second reservation should have no delay with burst=2")
	}

	// Third should have delay
	reservation3 := limiter.Reserve()
	if !reservation3.OK() {
		t.Error("Third reservation should be OK")
	}
	if reservation3.Delay() == 0 {
		t.Error("Third reservation should have delay")
	}

	// Cancel the third reservation
	reservation3.Cancel()

	// Advance time slightly to allow token refill
	clock.Advance(100 * time.Millisecond) // 0.1 second at 10 req/sec = 1 token

	// Now the next request should be allowed immediately
	if !limiter.Allow() {
		t.Error("Request should be allowed after cancellation and time advance")
	}
}

func TestRateHelpers(t *testing.T) {
	// Test rate creation helpers
	if PerSecond(60) != Rate(60) {
		t.Error("PerSecond should create correct rate")
	}

	if PerMinute(60) != Rate(1) {
		t.Error("PerMinute should create correct rate")
	}

	if PerHour(3600) != Rate(1) {
		t.Error("PerHour should create correct rate")
	}

	if Every(time.Second) != Rate(1) {
		t.Error("Every should create correct rate")
	}

	if Per(10, time.Second) != Rate(10) {
		t.Error("Per should create correct rate")
	}
}

func TestDailyQuota(t *testing.T) {
	clock := NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	quota := NewDailyQuotaWithClock(3, clock)

	for i := 0; i < 3; i++ {
		if !quota.Allow() {
			t.Errorf("Request %d should fit in the daily quota", i+1)
		}
	}

	if quota.Allow() {
		t.Error("Request beyond the daily quota should be denied")
	}

	if quota.Remaining() != 0 {
		t.Errorf("Expected 0 remaining, got %d", quota.Remaining())
	}

	if quota.Used() != 3 {
		t.Errorf("Expected 3 used, got %d", quota.Used())
	}
}

func TestDailyQuotaRollover(t *testing.T) {
	clock := NewMockClock(time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC))
	quota := NewDailyQuotaWithClock(1, clock)

	if !quota.Allow() {
		t.Error("First request should be allowed")
	}
	if quota.Allow() {
		t.Error("Quota should be exhausted before midnight")
	}

	// Cross midnight
	clock.Advance(time.Hour)

	if !quota.Allow() {
		t.Error("Quota should reset after the day rolls over")
	}
}

func TestDailyQuotaUnlimited(t *testing.T) {
	quota := NewDailyQuota(0)

	for i := 0; i < 100; i++ {
		if !quota.Allow() {
			t.Error("Unlimited quota should always allow")
		}
	}

	if quota.Remaining() != -1 {
		t.Errorf("Unlimited quota should report -1 remaining, got %d", quota.Remaining())
	}
}

func TestDailyQuotaReset(t *testing.T) {
	quota := NewDailyQuota(2)

	if !quota.Allow() || !quota.Allow() {
		t.Error("Quota should allow up to the limit")
	}
	if quota.Allow() {
		t.Error("Quota should be exhausted")
	}

	quota.Reset()

	if !quota.Allow() {
		t.Error("Quota should allow again after reset")
	}
}
