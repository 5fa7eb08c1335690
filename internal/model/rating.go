package model

import (
	"encoding/json"
	"time"
)

// Rating is a score left by a user for a property. Extra holds whatever
// other members the client sent with the rating, as a JSON object.
type Rating struct {
	ID          string          `json:"_id"`
	AuthorEmail string          `json:"email"`
	PropertyID  string          `json:"propertyId"`
	Score       float64         `json:"rating"`
	Comment     string          `json:"comment"`
	Extra       json.RawMessage `json:"extra,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
