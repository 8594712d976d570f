package middleware

import (
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/user/tenant-guard/internal/adapter/metrics"
)

// RateLimit is a middleware factory applying a per-client token bucket.
// Limiters are keyed by client IP and kept for the life of the process.
func RateLimit(rps float64, burst int, m *metrics.SecurityMetrics, logger *slog.Logger) func(http.Handler) http.Handler {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[ip] = l
		}
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiterFor(ip).Allow() {
				logger.Warn("rate limit exceeded", "remote_addr", ip, "path", r.URL.Path)
				if m != nil {
					m.RateLimitedTotal.Inc()
				}
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
