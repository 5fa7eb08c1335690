package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/homenest/homenest/internal/model"
)

// Claims are the JWT claims carried by marketplace credentials.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// JWTVerifier verifies HMAC-signed JWTs.
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier creates a verifier for the shared secret. When issuer is
// non-empty, the iss claim must match it.
func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses the token and returns its email claim as the subject.
func (v *JWTVerifier) Verify(_ context.Context, credential string) (Verified, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Verified{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if !token.Valid {
		return Verified{}, ErrInvalidCredential
	}
	if claims.Email == "" {
		return Verified{}, fmt.Errorf("%w: missing email claim", ErrInvalidCredential)
	}

	return Verified{
		Subject:   model.Identity(claims.Email),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// IssueJWT signs an HS256 credential for email. It backs the token minting
// tool and tests; production credentials come from the identity provider.
func IssueJWT(secret, issuer, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
