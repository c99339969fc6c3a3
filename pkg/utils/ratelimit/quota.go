// Daily quota tracking
package ratelimit

import (
	"sync"
	"time"
)

// DailyQuota caps operations per calendar day. The window rolls over at
// local midnight; platforms reset their publish quotas the same way.
type DailyQuota struct {
	mu    sync.Mutex
	limit int
	used  int
	day   time.Time
	clock Clock
}

// NewDailyQuota creates a quota with the given daily limit.
// A limit of zero or less means unlimited.
func NewDailyQuota(limit int) *DailyQuota {
	return NewDailyQuotaWithClock(limit, SystemClock{})
}

// NewDailyQuotaWithClock creates a daily quota with a custom clock
func NewDailyQuotaWithClock(limit int, clock Clock) *DailyQuota {
	now := clock.Now()
	return &DailyQuota{
		limit: limit,
		day:   midnight(now),
		clock: clock,
	}
}

// Allow consumes one unit of quota, false when the day's budget is gone
func (q *DailyQuota) Allow() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.limit <= 0 {
		return true
	}

	q.roll()

	if q.used >= q.limit {
		return false
	}
	q.used++
	return true
}

// Remaining returns the units left today, -1 when unlimited
func (q *DailyQuota) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.limit <= 0 {
		return -1
	}

	q.roll()

	remaining := q.limit - q.used
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Used returns the units consumed today
func (q *DailyQuota) Used() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.roll()
	return q.used
}

// Limit returns the daily limit, zero or less means unlimited
func (q *DailyQuota) Limit() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.limit
}

// Reset clears today's usage
func (q *DailyQuota) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.used = 0
	q.day = midnight(q.clock.Now())
}

// roll starts a fresh window when the calendar day changed
func (q *DailyQuota) roll() {
	today := midnight(q.clock.Now())
	if !today.Equal(q.day) {
		q.day = today
		q.used = 0
	}
}

func midnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
