package dto

import "github.com/homenest/homenest/internal/model"

// RatingFields are the body members of POST /ratings that map onto
// SubmitRatingRequest. Anything else is carried as the rating's extra.
var RatingFields = []string{"email", "propertyId", "rating", "comment"}

// SubmitRatingRequest represents the body of POST /ratings.
type SubmitRatingRequest struct {
	Email      string        `json:"email"`
	PropertyID string        `json:"propertyId"`
	Rating     *model.Number `json:"rating,omitempty"`
	Comment    string        `json:"comment"`
}

// SubmitRatingResponse mirrors an insert result.
type SubmitRatingResponse struct {
	Acknowledged bool          `json:"acknowledged"`
	InsertedID   string        `json:"insertedId"`
	Rating       *model.Rating `json:"rating"`
}
