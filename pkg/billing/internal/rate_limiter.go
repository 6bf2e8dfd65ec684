package internal

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiter is a fixed-window per-IP limiter for webhook endpoints.
// Billing providers deliver from a small set of addresses, so the map stays
// tiny in practice; expired windows are swept opportunistically.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration

	lastSweep time.Time
}

type window struct {
	hits    int
	startAt time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per period per IP.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		windows:   make(map[string]*window),
		limit:     limit,
		period:    period,
		lastSweep: time.Now(),
	}
}

// Allow reports whether a request from ip fits in the current window.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.maybeSweep(now)

	w, ok := rl.windows[ip]
	if !ok || now.Sub(w.startAt) >= rl.period {
		rl.windows[ip] = &window{hits: 1, startAt: now}
		return true
	}
	if w.hits >= rl.limit {
		return false
	}
	w.hits++
	return true
}

// maybeSweep drops expired windows at most once per period. Caller holds mu.
func (rl *RateLimiter) maybeSweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.period {
		return
	}
	for ip, w := range rl.windows {
		if now.Sub(w.startAt) >= rl.period {
			delete(rl.windows, ip)
		}
	}
	rl.lastSweep = now
}

// Middleware wraps next with per-IP rate limiting.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(ClientIP(r)) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client address, preferring the first entry of
// X-Forwarded-For when a proxy sits in front of the service.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	return r.RemoteAddr
}
