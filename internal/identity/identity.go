// Package identity maps bearer credentials to verified subjects.
//
// Verifiers never look at the record store. A Verifier either returns the
// subject the credential was issued to or one of the package errors; callers
// translate ErrInvalidCredential to 403 and ErrUnavailable/ErrTimeout to 5xx.
package identity

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/homenest/homenest/internal/model"
)

// Verification errors.
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUnavailable       = errors.New("identity verifier unavailable")
	ErrTimeout           = errors.New("identity verification timed out")
)

// Verified is the outcome of a successful verification.
type Verified struct {
	Subject   model.Identity
	ExpiresAt time.Time
}

// Verifier verifies a bearer credential.
type Verifier interface {
	Verify(ctx context.Context, credential string) (Verified, error)
}

// CredentialKey derives a stable, non-reversible key for a credential so
// raw tokens never reach the cache.
func CredentialKey(credential string) string {
	sum := blake2b.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}
