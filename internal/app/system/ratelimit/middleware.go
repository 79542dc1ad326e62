// internal/app/system/ratelimit/middleware.go
package ratelimit

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dalemusser/lightspeed/internal/app/system/respond"
	"go.uber.org/zap"
)

// Middleware limits requests per client IP. Limiter errors fail open.
func Middleware(l Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			d, err := l.Allow(r.Context(), ip)
			if err != nil {
				logger.Warn("rate limiter unavailable; allowing request", zap.String("ip", ip), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 0)))
				logger.Info("rate limited", zap.String("ip", ip), zap.String("path", r.URL.Path))
				respond.Error(w, http.StatusTooManyRequests, "Too many requests, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
