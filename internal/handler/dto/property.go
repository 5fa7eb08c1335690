package dto

import "github.com/homenest/homenest/internal/model"

// CreatePropertyRequest represents the body of POST /add-property.
type CreatePropertyRequest struct {
	UserEmail        string        `json:"userEmail"`
	PropertyName     string        `json:"propertyName"`
	ShortDescription string        `json:"shortDescription"`
	Category         string        `json:"category"`
	PropertyPrice    *model.Number `json:"propertyPrice,omitempty"`
	Location         string        `json:"location"`
	Image            string        `json:"image"`
}

// DeletePropertyRequest is the optional body of a delete. Email, when sent,
// must name the caller.
type DeletePropertyRequest struct {
	Email string `json:"email"`
}

// CreatePropertyResponse mirrors an insert result.
type CreatePropertyResponse struct {
	Acknowledged bool            `json:"acknowledged"`
	InsertedID   string          `json:"insertedId"`
	Property     *model.Property `json:"property"`
}

// UpdatePropertyResponse is returned after a successful update.
type UpdatePropertyResponse struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message"`
	UpdatedProperty *model.Property `json:"updatedProperty"`
}

// DeletePropertyResponse is returned after a successful delete.
type DeletePropertyResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

// Property response messages.
const (
	MsgPropertyUpdated  = "Property updated successfully"
	MsgPropertyDeleted  = "Property deleted successfully"
	MsgPropertyNotFound = "The property not found"
)
