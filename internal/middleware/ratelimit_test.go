package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/homenest/homenest/internal/auth"
	"github.com/homenest/homenest/internal/cache"
)

type stubLimiter struct {
	allowed  bool
	err      error
	lastIP   string
	lastUser string
}

func (s *stubLimiter) CheckIPRateLimit(_ context.Context, ip string, _, burst int) (*cache.RateLimitResult, error) {
	s.lastIP = ip
	return s.result(burst)
}

func (s *stubLimiter) CheckSubjectRateLimit(_ context.Context, subject string, _, burst int) (*cache.RateLimitResult, error) {
	s.lastUser = subject
	return s.result(burst)
}

func (s *stubLimiter) result(burst int) (*cache.RateLimitResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	res := &cache.RateLimitResult{Allowed: s.allowed, Remaining: int64(burst - 1), ResetAt: time.Now().Add(time.Second)}
	if !s.allowed {
		res.Remaining = 0
		res.RetryAfter = 3 * time.Second
	}
	return res, nil
}

func newRateLimitConfig(limiter RateLimiter) RateLimitConfig {
	return RateLimitConfig{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Limiter:      limiter,
		Enabled:      true,
		IPRPS:        10,
		IPBurst:      20,
		SubjectRPM:   60,
		SubjectBurst: 10,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestRateLimitIP(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		limiter := &stubLimiter{allowed: true}
		handler := RateLimitIP(newRateLimitConfig(limiter))(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/featured", nil)
		req.RemoteAddr = "203.0.113.7:51234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if limiter.lastIP != "203.0.113.7" {
			t.Errorf("ip = %q, want port stripped", limiter.lastIP)
		}
	})

	t.Run("limited", func(t *testing.T) {
		handler := RateLimitIP(newRateLimitConfig(&stubLimiter{allowed: false}))(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/featured", nil))

		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("status = %d, want 429", rec.Code)
		}
		if rec.Header().Get("Retry-After") != "3" {
			t.Errorf("Retry-After = %q, want 3", rec.Header().Get("Retry-After"))
		}
	})

	t.Run("fails open", func(t *testing.T) {
		handler := RateLimitIP(newRateLimitConfig(&stubLimiter{err: errors.New("redis down")}))(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/featured", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := newRateLimitConfig(&stubLimiter{allowed: false})
		cfg.Enabled = false
		handler := RateLimitIP(cfg)(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/featured", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestRateLimitSubject(t *testing.T) {
	t.Run("keyed by subject with headers", func(t *testing.T) {
		limiter := &stubLimiter{allowed: true}
		handler := RateLimitSubject(newRateLimitConfig(limiter))(okHandler())

		req := httptest.NewRequest(http.MethodPost, "/ratings", nil)
		req = req.WithContext(auth.ContextWithSubject(req.Context(), "a@x.com"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if limiter.lastUser != "a@x.com" {
			t.Errorf("subject = %q", limiter.lastUser)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "60" {
			t.Errorf("X-RateLimit-Limit = %q, want 60", rec.Header().Get("X-RateLimit-Limit"))
		}
		if rec.Header().Get("X-RateLimit-Remaining") != "9" {
			t.Errorf("X-RateLimit-Remaining = %q, want 9", rec.Header().Get("X-RateLimit-Remaining"))
		}
	})

	t.Run("limited", func(t *testing.T) {
		handler := RateLimitSubject(newRateLimitConfig(&stubLimiter{allowed: false}))(okHandler())

		req := httptest.NewRequest(http.MethodPost, "/ratings", nil)
		req = req.WithContext(auth.ContextWithSubject(req.Context(), "a@x.com"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("status = %d, want 429", rec.Code)
		}
	})

	t.Run("no subject passes through", func(t *testing.T) {
		limiter := &stubLimiter{allowed: false}
		handler := RateLimitSubject(newRateLimitConfig(limiter))(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ratings", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if limiter.lastUser != "" {
			t.Error("limiter should not be consulted without a subject")
		}
	})
}
