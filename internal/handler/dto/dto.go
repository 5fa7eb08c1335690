// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// MessageResponse carries a bare status message.
type MessageResponse struct {
	Message string `json:"message"`
}
