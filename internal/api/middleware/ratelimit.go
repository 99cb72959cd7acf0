package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/kedarnathdev/protectedData/internal/utils"
)

// RateLimiter is a fixed-window per-client-address limiter. Counters live
// in process memory and reset on restart; this is best-effort abuse
// mitigation, not a strict guarantee.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*window
	limit    int
	interval time.Duration
}

type window struct {
	count int
	start time.Time
}

// NewRateLimiter allows 'limit' requests per 'interval' per IP.
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*window),
		limit:    limit,
		interval: interval,
	}

	// Remove windows that have fully elapsed so the map does not grow
	// without bound.
	go rl.cleanup()

	return rl
}

// Limit returns an HTTP middleware that enforces the configured cap. On
// exceeding it, the client gets a uniform 429 with Retry-After guidance.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ok, retryAfter := rl.Allow(ClientIP(r)); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			utils.JSONResponse(w, http.StatusTooManyRequests, utils.Payload{
				Success: false,
				Message: "Too many requests, please try again later",
				Error:   utils.ErrRateLimited,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Allow records a request from ip and reports whether it is within the cap.
// When it is not, the second return value is how long until the window
// resets.
func (rl *RateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, exists := rl.visitors[ip]
	if !exists || now.Sub(v.start) >= rl.interval {
		rl.visitors[ip] = &window{count: 1, start: now}
		return true, 0
	}

	if v.count >= rl.limit {
		return false, rl.interval - now.Sub(v.start)
	}
	v.count++
	return true, 0
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.interval)
		for ip, v := range rl.visitors {
			if v.start.Before(cutoff) {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// ClientIP extracts the client's address from the request. It checks
// X-Forwarded-For and X-Real-IP first (for reverse proxies), then falls
// back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i, c := range xff {
			if c == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// RemoteAddr is "ip:port"
	for i := len(r.RemoteAddr) - 1; i >= 0; i-- {
		if r.RemoteAddr[i] == ':' {
			return r.RemoteAddr[:i]
		}
	}

	return r.RemoteAddr
}
