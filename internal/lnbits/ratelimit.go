package lnbits

import (
	"sync"
	"time"
)

// rateLimiter tracks calls in a rolling window. The policy is fail-fast: a
// call over budget is rejected, never queued or delayed, so the caller can
// surface the condition promptly.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	calls  []time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{limit: limit, window: time.Minute}
}

// allow records the call and returns true if it fits in the current window.
func (rl *rateLimiter) allow(now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.window)
	kept := rl.calls[:0]
	for _, t := range rl.calls {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	rl.calls = kept

	if len(rl.calls) >= rl.limit {
		return false
	}
	rl.calls = append(rl.calls, now)
	return true
}
