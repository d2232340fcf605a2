/*
Package limiter provides IP-based request rate limiting.

It uses the token bucket algorithm (rate.Limiter) to bound the request
frequency of each client IP and periodically removes inactive limiters
to prevent unbounded memory growth.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"bilanchat/internal/pkg/errs"
	"bilanchat/internal/pkg/logx"
	"bilanchat/internal/pkg/resp"
)

const cleanupInterval = 3 * time.Minute

// IPRateLimiter tracks one token bucket per client IP address.
type IPRateLimiter struct {
	// mu protects concurrent access to the limits map.
	mu sync.RWMutex

	// limits maps a client IP address to its *rate.Limiter.
	limits map[string]*rate.Limiter

	// r is the sustained rate allowed per IP (events per second).
	r rate.Limit

	// b is the burst capacity per IP.
	b int
}

// NewIPRateLimiter creates an IPRateLimiter with rate r and burst b and
// starts a background goroutine that evicts idle limiters.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	l := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go l.cleanupLoop()

	return l
}

// GetLimiter returns the limiter for the given IP, creating it if needed.
// Creation uses double-checked locking so concurrent callers share one limiter.
func (l *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limits[ip]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		limiter, exists = l.limits[ip]
		if !exists {
			limiter = rate.NewLimiter(l.r, l.b)
			l.limits[ip] = limiter
		}
		l.mu.Unlock()
	}

	return limiter
}

// cleanupLoop periodically removes limiters whose buckets are full again,
// meaning the IP has been idle long enough to be forgotten.
func (l *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		removed := 0
		for ip, limiter := range l.limits {
			if limiter.TokensAt(time.Now()) >= float64(limiter.Burst()) {
				delete(l.limits, ip)
				removed++
			}
		}
		remaining := len(l.limits)
		l.mu.Unlock()

		logx.Info("Rate limiter cleanup finished", "removed", removed, "remaining", remaining)
	}
}

// ClientIP extracts the bare IP from an http.Request RemoteAddr.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	if ip == "" {
		ip = "unknown_ip"
	}

	return ip
}

// Middleware returns an HTTP middleware enforcing the per-IP rate limit.
// Requests over the limit receive a 429 response.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.GetLimiter(ClientIP(r)).Allow() {
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}
