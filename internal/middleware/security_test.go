package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveSecured(t *testing.T, cfg SecurityConfig, inner http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	Security(cfg)(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/featured", nil))
	return rec
}

func TestSecurity_ListingHeaders(t *testing.T) {
	rec := serveSecured(t, DefaultSecurityConfig(), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	want := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Referrer-Policy":              "strict-origin-when-cross-origin",
		"Content-Security-Policy":      "default-src 'none'; frame-ancestors 'none'",
		"Cross-Origin-Opener-Policy":   "same-origin",
		"Cross-Origin-Resource-Policy": "same-origin",
		"Cache-Control":                "no-store",
		"Strict-Transport-Security":    "max-age=31536000; includeSubDomains; preload",
	}
	for name, value := range want {
		if got := rec.Header().Get(name); got != value {
			t.Errorf("%s = %q, want %q", name, got, value)
		}
	}
}

func TestSecurity_HSTSOff(t *testing.T) {
	cfg := DefaultSecurityConfig()
	cfg.HSTS = false

	rec := serveSecured(t, cfg, func(w http.ResponseWriter, r *http.Request) {})

	if got := rec.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("Strict-Transport-Security = %q, want unset", got)
	}
	if got := rec.Header().Get("Cross-Origin-Resource-Policy"); got != "same-origin" {
		t.Errorf("Cross-Origin-Resource-Policy = %q, want same-origin", got)
	}
}

func TestSecurity_HeadersSurviveErrorResponses(t *testing.T) {
	rec := serveSecured(t, DefaultSecurityConfig(), func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "not the owner")
	})

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if got := rec.Header().Get("Cross-Origin-Opener-Policy"); got != "same-origin" {
		t.Errorf("Cross-Origin-Opener-Policy = %q, want same-origin", got)
	}
}

func TestSecurity_HandlersCanOverride(t *testing.T) {
	rec := serveSecured(t, DefaultSecurityConfig(), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=60")
	})

	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=60" {
		t.Errorf("Cache-Control = %q, want the handler's value", got)
	}
}

func TestMaxBodySize_DeclaredLengthTooLarge(t *testing.T) {
	reached := false
	h := MaxBodySize(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/add-property", strings.NewReader(`{"propertyName":"A loft far too long"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if reached {
		t.Fatal("handler ran for an oversized body")
	}
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Code != "PAYLOAD_TOO_LARGE" || body.Error != "request body too large" {
		t.Errorf("body = %+v", body)
	}
}

func TestMaxBodySize_UndeclaredLengthCutOff(t *testing.T) {
	var readErr error
	h := MaxBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/ratings", strings.NewReader(`{"comment":"long enough"}`))
	req.ContentLength = -1
	h.ServeHTTP(httptest.NewRecorder(), req)

	var tooLarge *http.MaxBytesError
	if !errors.As(readErr, &tooLarge) {
		t.Fatalf("read error = %v, want *http.MaxBytesError", readErr)
	}
	if tooLarge.Limit != 8 {
		t.Errorf("limit = %d, want 8", tooLarge.Limit)
	}
}

func TestMaxBodySize_WithinLimit(t *testing.T) {
	var got string
	h := MaxBodySize(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
	}))

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"email":"a@x.com"}`))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != `{"email":"a@x.com"}` {
		t.Errorf("body = %q", got)
	}
}
