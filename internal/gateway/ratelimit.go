// ABOUTME: Per-IP token-bucket rate limiting for the widget chat endpoint
// ABOUTME: Resolves client IPs from X-Forwarded-For with a RemoteAddr fallback

package gateway

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// ipRateLimiter keeps one token bucket per client IP. Buckets are created
// on first sight and live for the life of the process.
type ipRateLimiter struct {
	mu    sync.Mutex
	ips   map[string]*rate.Limiter
	rate  rate.Limit
	burst int
}

func newIPRateLimiter(r rate.Limit, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		ips:   make(map[string]*rate.Limiter),
		rate:  r,
		burst: burst,
	}
}

// Allow reports whether a request from ip may proceed right now.
func (rl *ipRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	limiter, ok := rl.ips[ip]
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.ips[ip] = limiter
	}
	rl.mu.Unlock()

	return limiter.Allow()
}

// clientIP extracts the originating client address. X-Forwarded-For wins
// when a proxy set it; otherwise the connection's remote address is used.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
