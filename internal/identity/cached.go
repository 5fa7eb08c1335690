package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/homenest/homenest/internal/model"
)

// Cache stores verified subjects keyed by CredentialKey.
type Cache interface {
	GetIdentity(ctx context.Context, key string) (model.Identity, time.Time, error)
	SetIdentity(ctx context.Context, key string, subject model.Identity, expiresAt time.Time, ttl time.Duration) error
}

// CachedVerifier memoizes successful verifications. Cache failures fall
// through to the wrapped verifier.
type CachedVerifier struct {
	next   Verifier
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewCachedVerifier wraps next with a cache. Entries live for at most ttl
// and never beyond the credential's own expiry.
func NewCachedVerifier(next Verifier, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedVerifier {
	return &CachedVerifier{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Verify consults the cache before delegating.
func (v *CachedVerifier) Verify(ctx context.Context, credential string) (Verified, error) {
	key := CredentialKey(credential)

	subject, expiresAt, err := v.cache.GetIdentity(ctx, key)
	if err == nil && !subject.IsZero() && v.now().Before(expiresAt) {
		return Verified{Subject: subject, ExpiresAt: expiresAt}, nil
	}

	verified, err := v.next.Verify(ctx, credential)
	if err != nil {
		return Verified{}, err
	}

	ttl := v.ttl
	if remaining := verified.ExpiresAt.Sub(v.now()); remaining < ttl {
		ttl = remaining
	}
	if ttl > 0 {
		if err := v.cache.SetIdentity(ctx, key, verified.Subject, verified.ExpiresAt, ttl); err != nil && v.logger != nil {
			v.logger.Warn("identity cache write failed", slog.String("error", err.Error()))
		}
	}

	return verified, nil
}

// TimeoutVerifier bounds how long a caller waits for verification.
type TimeoutVerifier struct {
	next    Verifier
	timeout time.Duration
}

// WithTimeout wraps next so Verify returns ErrTimeout after d.
func WithTimeout(next Verifier, d time.Duration) *TimeoutVerifier {
	return &TimeoutVerifier{next: next, timeout: d}
}

type verifyResult struct {
	verified Verified
	err      error
}

// Verify runs the wrapped verifier under a deadline.
func (v *TimeoutVerifier) Verify(ctx context.Context, credential string) (Verified, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	done := make(chan verifyResult, 1)
	go func() {
		verified, err := v.next.Verify(ctx, credential)
		done <- verifyResult{verified: verified, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) {
			return Verified{}, ErrTimeout
		}
		return res.verified, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Verified{}, ErrTimeout
		}
		return Verified{}, ErrUnavailable
	}
}
