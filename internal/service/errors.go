// Package service provides business logic for the application.
//
// Every mutating operation runs the authorization guard before touching the
// store. Errors returned from this package wrap one of the sentinels below so
// the HTTP layer can map them to a status code with errors.Is.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/homenest/homenest/internal/authz"
	"github.com/homenest/homenest/internal/repository"
)

// Service errors.
var (
	ErrUnauthenticated     = authz.ErrUnauthenticated
	ErrForbidden           = authz.ErrForbidden
	ErrNotFound            = errors.New("not found")
	ErrInvalidIdentifier   = errors.New("invalid identifier")
	ErrInvalidField        = errors.New("invalid field")
	ErrConflict            = errors.New("conflict")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamTimeout     = errors.New("upstream timeout")
)

// invalidField builds an ErrInvalidField naming the offending field.
func invalidField(field, msg string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidField, field, msg)
}

// upstream classifies an unexpected store failure.
func upstream(op string, err error) error {
	if errors.Is(err, repository.ErrStoreTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrUpstreamUnavailable, err)
}

// parseID validates a record identifier and returns its canonical form.
func parseID(id string) (string, error) {
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return parsed.String(), nil
}

// newID returns a fresh, time-ordered record identifier.
func newID() string {
	return ulid.Make().String()
}
