// Package model defines domain entities for the application.
package model

import (
	"encoding/json"
	"time"
)

// Identity is a subject identifier. Emails are compared exactly, without
// case folding or trimming.
type Identity string

// IsZero reports whether no identity is present.
func (i Identity) IsZero() bool {
	return i == ""
}

// String returns the identity as a plain string.
func (i Identity) String() string {
	return string(i)
}

// User is a marketplace member keyed by email. Profile is opaque client data.
type User struct {
	ID        string          `json:"_id"`
	Email     string          `json:"email"`
	Profile   json.RawMessage `json:"profile,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
