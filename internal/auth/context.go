// Package auth carries the verified request subject through contexts.
package auth

import (
	"context"

	"github.com/homenest/homenest/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// subjectContextKey is the context key for the verified identity.
	subjectContextKey contextKey = "subject"
)

// ContextWithSubject adds the verified identity to the context.
func ContextWithSubject(ctx context.Context, subject model.Identity) context.Context {
	return context.WithValue(ctx, subjectContextKey, subject)
}

// SubjectFromContext retrieves the verified identity from the context.
// Returns the zero Identity if the request was not authenticated.
func SubjectFromContext(ctx context.Context) model.Identity {
	subject, ok := ctx.Value(subjectContextKey).(model.Identity)
	if !ok {
		return ""
	}
	return subject
}

// MustSubjectFromContext retrieves the verified identity from the context.
// Panics if not present (use only when auth middleware has run).
func MustSubjectFromContext(ctx context.Context) model.Identity {
	subject := SubjectFromContext(ctx)
	if subject.IsZero() {
		panic("subject not found - ensure auth middleware is applied")
	}
	return subject
}
