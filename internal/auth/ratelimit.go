package auth

import (
	"sync"
	"time"
)

// RateLimitConfig tunes login throttling. Zero values fall back to defaults.
type RateLimitConfig struct {
	MaxAttempts     int
	WindowDuration  time.Duration
	LockoutDuration time.Duration
	CleanupInterval time.Duration
}

func (cfg RateLimitConfig) withDefaults() RateLimitConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = 15 * time.Minute
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	return cfg
}

// failureWindow is the sliding window of failed logins for one IP+email pair.
type failureWindow struct {
	failures    int
	openedAt    time.Time
	lockedUntil time.Time
}

func (w *failureWindow) locked(now time.Time) bool {
	return !w.lockedUntil.IsZero() && now.Before(w.lockedUntil)
}

func (w *failureWindow) stale(now time.Time, window time.Duration) bool {
	return now.Sub(w.openedAt) > window
}

// RateLimiter throttles login attempts per IP+email pair, locking a pair out
// once it accumulates too many failures inside the window.
type RateLimiter struct {
	cfg   RateLimitConfig
	mu    sync.RWMutex
	byKey map[string]*failureWindow
	done  chan struct{}
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		cfg:   cfg.withDefaults(),
		byKey: make(map[string]*failureWindow),
		done:  make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Stop terminates the background sweep goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

// Allow reports whether a login attempt may proceed. When refused, the
// returned duration says how long until the lockout expires.
func (rl *RateLimiter) Allow(ip, email string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.RLock()
	w, ok := rl.byKey[ip+":"+email]
	rl.mu.RUnlock()

	switch {
	case !ok:
		return true, 0
	case w.locked(now):
		return false, w.lockedUntil.Sub(now)
	case w.stale(now, rl.cfg.WindowDuration):
		return true, 0
	case w.failures >= rl.cfg.MaxAttempts:
		return false, rl.cfg.LockoutDuration
	default:
		return true, 0
	}
}

// RecordFailure notes a failed login and reports whether the pair just
// crossed into lockout.
func (rl *RateLimiter) RecordFailure(ip, email string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := ip + ":" + email
	w, ok := rl.byKey[key]
	if !ok || w.stale(now, rl.cfg.WindowDuration) {
		w = &failureWindow{openedAt: now}
		rl.byKey[key] = w
	}

	w.failures++
	if w.failures >= rl.cfg.MaxAttempts {
		w.lockedUntil = now.Add(rl.cfg.LockoutDuration)
		return true, rl.cfg.LockoutDuration
	}
	return false, 0
}

// RecordSuccess clears the pair's failure history.
func (rl *RateLimiter) RecordSuccess(ip, email string) {
	rl.mu.Lock()
	delete(rl.byKey, ip+":"+email)
	rl.mu.Unlock()
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.done:
			return
		}
	}
}

// sweep drops windows whose lockout has passed and whose window has aged out.
func (rl *RateLimiter) sweep() {
	now := time.Now()
	maxAge := rl.cfg.WindowDuration + rl.cfg.LockoutDuration

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, w := range rl.byKey {
		if !w.locked(now) && w.stale(now, maxAge) {
			delete(rl.byKey, key)
		}
	}
}
