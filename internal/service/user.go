package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/homenest/homenest/internal/metrics"
	"github.com/homenest/homenest/internal/model"
	"github.com/homenest/homenest/internal/repository"
)

// UserStore registers users.
type UserStore interface {
	RegisterUser(ctx context.Context, user *model.User) (*model.User, bool, error)
}

// UserService handles user registration.
type UserService struct {
	store   UserStore
	metrics metrics.Recorder
	now     func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{store: store, metrics: recorder, now: time.Now}
}

// RegisterResult reports whether registration created a record.
type RegisterResult struct {
	Created bool
	User    *model.User
}

// RegisterIfAbsent returns the user stored under email, creating it with
// profile first if none exists. A lost race against a concurrent
// registration is reported as created=false, not as an error.
func (s *UserService) RegisterIfAbsent(ctx context.Context, email string, profile json.RawMessage) (*RegisterResult, error) {
	if email == "" {
		return nil, invalidField("email", "is required")
	}
	if len(profile) > 0 && !json.Valid(profile) {
		return nil, invalidField("profile", "must be valid JSON")
	}

	candidate := &model.User{
		ID:        newID(),
		Email:     email,
		Profile:   profile,
		CreatedAt: s.now().UTC(),
	}

	user, created, err := s.store.RegisterUser(ctx, candidate)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrConflict
		}
		return nil, upstream("register user", err)
	}

	s.metrics.IncUserRegistered(created)
	return &RegisterResult{Created: created, User: user}, nil
}
