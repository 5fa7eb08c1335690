// Package authz decides whether a verified subject may mutate a record.
//
// The guard is pure: it never touches the store, and callers must consult it
// before any write. A denied decision carries one of two reasons so that the
// boundary can answer 401 for a missing credential and 403 for a verified
// subject that is not the owner.
package authz

import (
	"errors"
	"fmt"

	"github.com/homenest/homenest/internal/model"
)

// Operation is the kind of mutation being authorized.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpRead   Operation = "read"
)

// Reason explains a denial.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
)

// Denial errors. Decision.Err wraps one of these.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Decision is the result of an authorization check.
type Decision struct {
	Allowed   bool
	Reason    Reason
	Operation Operation
}

// Err returns nil for an allowed decision and a wrapped sentinel otherwise.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonUnauthenticated:
		return fmt.Errorf("%s denied: %w", d.Operation, ErrUnauthenticated)
	default:
		return fmt.Errorf("%s denied: %w", d.Operation, ErrForbidden)
	}
}

// Authorize allows the operation iff subject is present and exactly equals
// declaredOwner. For create, declaredOwner comes from the payload; for
// update and delete, from the stored record.
func Authorize(subject, declaredOwner model.Identity, op Operation) Decision {
	if subject.IsZero() {
		return Decision{Reason: ReasonUnauthenticated, Operation: op}
	}
	if declaredOwner.IsZero() || subject != declaredOwner {
		return Decision{Reason: ReasonForbidden, Operation: op}
	}
	return Decision{Allowed: true, Operation: op}
}
