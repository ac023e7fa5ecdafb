package ratelimiter

import (
	"sync"
	"time"
)

// FixedWindowRateLimiter counts requests per source key in fixed wall-clock
// windows. State is a plain locked map; entries whose window has passed are
// swept periodically so idle sources do not accumulate.
type FixedWindowRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*sourceWindow
	limit   int
	window  time.Duration
	sweep   *time.Ticker
	done    chan struct{}
}

type sourceWindow struct {
	count   int
	resetAt time.Time
}

func NewFixedWindowRateLimiter(limit int, window time.Duration) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		windows: make(map[string]*sourceWindow),
		limit:   limit,
		window:  window,
		sweep:   time.NewTicker(window),
		done:    make(chan struct{}),
	}
	go rl.run()
	return rl
}

// Allow reports whether the source may proceed, and how long it has to wait
// when it may not. A source gets exactly limit requests per window.
func (rl *FixedWindowRateLimiter) Allow(sourceKey string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[sourceKey]
	if !ok || !now.Before(w.resetAt) {
		rl.windows[sourceKey] = &sourceWindow{
			count:   1,
			resetAt: now.Truncate(rl.window).Add(rl.window),
		}
		return true, 0
	}

	if w.count >= rl.limit {
		return false, time.Until(w.resetAt)
	}

	w.count++
	return true, 0
}

func (rl *FixedWindowRateLimiter) run() {
	for {
		select {
		case <-rl.sweep.C:
			rl.removeExpired()
		case <-rl.done:
			return
		}
	}
}

func (rl *FixedWindowRateLimiter) removeExpired() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, w := range rl.windows {
		if now.After(w.resetAt) {
			delete(rl.windows, key)
		}
	}
}

func (rl *FixedWindowRateLimiter) Close() {
	rl.sweep.Stop()
	close(rl.done)
}
