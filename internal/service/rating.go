package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/homenest/homenest/internal/authz"
	"github.com/homenest/homenest/internal/metrics"
	"github.com/homenest/homenest/internal/model"
)

// RatingStore persists ratings.
type RatingStore interface {
	CreateRating(ctx context.Context, rating *model.Rating) error
	ListRatingsByAuthor(ctx context.Context, author string) ([]*model.Rating, error)
}

// RatingService handles rating submission and retrieval.
type RatingService struct {
	store   RatingStore
	metrics metrics.Recorder
	now     func() time.Time
}

// NewRatingService creates a new RatingService.
func NewRatingService(store RatingStore, recorder metrics.Recorder) *RatingService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &RatingService{store: store, metrics: recorder, now: time.Now}
}

// SubmitRatingInput defines input for submitting a rating. Extra, when
// set, must be a JSON object and is stored alongside the rating as is.
type SubmitRatingInput struct {
	AuthorEmail string
	PropertyID  string
	Score       *model.Number
	Comment     string
	Extra       json.RawMessage
}

// Submit stores a rating whose declared author is the verified subject.
func (s *RatingService) Submit(ctx context.Context, subject model.Identity, input SubmitRatingInput) (*model.Rating, error) {
	decision := authz.Authorize(subject, model.Identity(input.AuthorEmail), authz.OpCreate)
	if !decision.Allowed {
		s.metrics.IncAuthzDenied(string(decision.Reason))
		return nil, decision.Err()
	}

	propertyID, err := parseID(strings.TrimSpace(input.PropertyID))
	if err != nil {
		return nil, err
	}

	if input.Score == nil {
		return nil, invalidField("rating", "is required")
	}
	score, err := input.Score.Float64()
	if err != nil {
		return nil, invalidField("rating", "must be a number")
	}

	if len(input.Extra) > 0 && !isJSONObject(input.Extra) {
		return nil, invalidField("extra", "must be a JSON object")
	}

	rating := &model.Rating{
		ID:          newID(),
		AuthorEmail: input.AuthorEmail,
		PropertyID:  propertyID,
		Score:       score,
		Comment:     input.Comment,
		Extra:       input.Extra,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.store.CreateRating(ctx, rating); err != nil {
		return nil, upstream("create rating", err)
	}

	s.metrics.IncRatingSubmitted()
	return rating, nil
}

// ListByAuthor returns the ratings written by requested, which must be the
// verified subject. An empty requested author means the subject itself.
func (s *RatingService) ListByAuthor(ctx context.Context, subject, requested model.Identity) ([]*model.Rating, error) {
	if requested.IsZero() {
		requested = subject
	}

	decision := authz.Authorize(subject, requested, authz.OpRead)
	if !decision.Allowed {
		s.metrics.IncAuthzDenied(string(decision.Reason))
		return nil, decision.Err()
	}

	ratings, err := s.store.ListRatingsByAuthor(ctx, requested.String())
	if err != nil {
		return nil, upstream("list ratings", err)
	}
	return ratings, nil
}

func isJSONObject(raw json.RawMessage) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal(raw, &obj) == nil && obj != nil
}
