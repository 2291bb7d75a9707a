package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/memopad/memopad/internal/cache"
	"github.com/memopad/memopad/internal/metrics"
)

// SignInLimiter checks the per-IP sign-in budget.
type SignInLimiter interface {
	CheckSignInRateLimit(ctx context.Context, ip string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter SignInLimiter
	Metrics metrics.Recorder
	Enabled bool
	PerMin  int // Requests per minute
	Burst   int
}

// RateLimitSignIn returns middleware that rate limits credential sign-in per client IP.
func RateLimitSignIn(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)

			result, err := cfg.Limiter.CheckSignInRateLimit(r.Context(), ip, cfg.PerMin, cfg.Burst)
			if err != nil {
				cfg.Logger.Error("sign-in rate limit check failed",
					slog.String("error", err.Error()),
				)
				// Fail open - allow request
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, cfg.PerMin, result.Remaining, result.ResetAt)

			if !result.Allowed {
				cfg.Metrics.IncSignIn("limited")
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("type", "signin"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED",
					"Too many sign-in attempts. Retry after "+strconv.Itoa(int(result.RetryAfter.Seconds()))+" seconds.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders sets standard rate limit response headers.
func setRateLimitHeaders(w http.ResponseWriter, limit int, remaining int64, resetAt time.Time) {
	if limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
	}
}

// getClientIP returns the peer address without its port.
// Forwarding headers are not read here; TrustedRealIP has already applied
// them to RemoteAddr when the peer is a trusted proxy.
func getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
