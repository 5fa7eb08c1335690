package identity

import (
	"context"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/homenest/homenest/internal/model"
)

// PasetoVerifier verifies v4.local tokens.
type PasetoVerifier struct {
	key paseto.V4SymmetricKey
}

// NewPasetoVerifier creates a verifier for a 32-byte symmetric key.
func NewPasetoVerifier(symmetricKey []byte) (*PasetoVerifier, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoVerifier{key: key}, nil
}

// Verify decrypts the token and returns its email claim as the subject.
// The default parser rules reject expired tokens.
func (v *PasetoVerifier) Verify(_ context.Context, credential string) (Verified, error) {
	parser := paseto.NewParser()

	token, err := parser.ParseV4Local(v.key, credential, nil)
	if err != nil {
		return Verified{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	email, err := token.GetString("email")
	if err != nil || email == "" {
		return Verified{}, fmt.Errorf("%w: missing email claim", ErrInvalidCredential)
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return Verified{}, fmt.Errorf("%w: missing expiration", ErrInvalidCredential)
	}

	return Verified{Subject: model.Identity(email), ExpiresAt: expiresAt}, nil
}

// IssuePaseto encrypts a v4.local credential for email.
func IssuePaseto(symmetricKey []byte, email string, ttl time.Duration) (string, error) {
	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return "", fmt.Errorf("failed to create symmetric key: %w", err)
	}

	now := time.Now()
	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(ttl))
	token.SetString("email", email)

	return token.V4Encrypt(key, nil), nil
}
