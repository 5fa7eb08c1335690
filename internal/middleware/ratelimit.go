package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/homenest/homenest/internal/auth"
	"github.com/homenest/homenest/internal/cache"
)

// RateLimiter checks token buckets.
type RateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*cache.RateLimitResult, error)
	CheckSubjectRateLimit(ctx context.Context, subject string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter RateLimiter
	Enabled bool
	// Per client IP
	IPRPS   int
	IPBurst int
	// Per verified subject
	SubjectRPM   int
	SubjectBurst int
}

// RateLimitSubject returns middleware that rate limits per verified subject.
// Must be applied after Authenticate.
func RateLimitSubject(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			subject := auth.SubjectFromContext(r.Context())
			if subject.IsZero() {
				next.ServeHTTP(w, r)
				return
			}

			result, err := cfg.Limiter.CheckSubjectRateLimit(r.Context(), subject.String(), cfg.SubjectRPM, cfg.SubjectBurst)
			if err != nil {
				cfg.Logger.Error("rate limit check failed", slog.String("error", err.Error()))
				// Fail open
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, cfg.SubjectRPM, result.Remaining, result.ResetAt)

			if !result.Allowed {
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("type", "subject"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeRateLimitError(w, result.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitIP returns middleware that rate limits requests per client IP.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)

			result, err := cfg.Limiter.CheckIPRateLimit(r.Context(), ip, cfg.IPRPS, cfg.IPBurst)
			if err != nil {
				cfg.Logger.Error("IP rate limit check failed", slog.String("error", err.Error()))
				// Fail open
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("type", "ip"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeRateLimitError(w, result.RetryAfter)
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

// writeRateLimitError writes a 429 Too Many Requests response.
func writeRateLimitError(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	writeError(w, http.StatusTooManyRequests, "RATE_LIMITED",
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", seconds))
}

// clientIP returns the host part of RemoteAddr. chi's RealIP middleware
// has already replaced it with the forwarded address when one was sent.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
