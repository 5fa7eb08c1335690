package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/homenest/homenest/internal/auth"
	"github.com/homenest/homenest/internal/identity"
	"github.com/homenest/homenest/internal/metrics"
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier identity.Verifier
	Metrics  metrics.Recorder
}

// Authenticate returns a middleware that requires a bearer credential.
//
// A missing or malformed Authorization header is answered with 401. A
// credential the verifier rejects is answered with 403. Verifier outages
// are answered with 503, or 504 when the verifier timed out. On success the
// verified subject is stored in the request context.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential, ok := extractBearer(r)
			if !ok {
				recorder.IncAuthzDenied("unauthenticated")
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_credential"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing or malformed bearer credential")
				return
			}

			start := time.Now()
			verified, err := cfg.Verifier.Verify(r.Context(), credential)
			recorder.ObserveVerifyDuration(time.Since(start))

			if err != nil {
				status, code, reason := classifyVerifyError(err)
				if status == http.StatusForbidden {
					recorder.IncAuthzDenied("forbidden")
				}
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, status, code, http.StatusText(status))
				return
			}

			ctx := auth.ContextWithSubject(r.Context(), verified.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func classifyVerifyError(err error) (status int, code, reason string) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredential):
		return http.StatusForbidden, "FORBIDDEN", "invalid_credential"
	case errors.Is(err, identity.ErrTimeout):
		return http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "verifier_timeout"
	default:
		return http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "verifier_unavailable"
	}
}

// extractBearer returns the credential from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively; the token must be a single
// non-empty field.
func extractBearer(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
