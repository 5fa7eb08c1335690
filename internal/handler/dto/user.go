package dto

import "github.com/homenest/homenest/internal/model"

// MsgUserExists is reported when registration finds an existing record.
const MsgUserExists = "User already exist"

// RegisterUserResponse reports the outcome of POST /users. InsertedID is
// set only when a record was created.
type RegisterUserResponse struct {
	Created    bool        `json:"created"`
	InsertedID string      `json:"insertedId,omitempty"`
	Message    string      `json:"message,omitempty"`
	User       *model.User `json:"user"`
}

// ToRegisterUserResponse builds the response for a registration outcome.
func ToRegisterUserResponse(user *model.User, created bool) RegisterUserResponse {
	if created {
		return RegisterUserResponse{Created: true, InsertedID: user.ID, User: user}
	}
	return RegisterUserResponse{Created: false, Message: MsgUserExists, User: user}
}
