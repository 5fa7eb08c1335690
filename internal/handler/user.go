package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/homenest/homenest/internal/handler/dto"
	"github.com/homenest/homenest/internal/service"
)

// UserHandler handles user registration.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// Register handles POST /users. The body is a JSON object with an email;
// every other member is kept as the user's profile.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := decodeJSON(r, &body, false); err != nil || body == nil {
		writeInvalidJSON(w)
		return
	}

	var email string
	if raw, ok := body["email"]; ok {
		if err := json.Unmarshal(raw, &email); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "INVALID_FIELD", "email must be a string")
			return
		}
		delete(body, "email")
	}

	var profile json.RawMessage
	if len(body) > 0 {
		encoded, err := json.Marshal(body)
		if err != nil {
			writeInvalidJSON(w)
			return
		}
		profile = encoded
	}

	result, err := h.svc.RegisterIfAbsent(r.Context(), email, profile)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	if result.Created {
		h.logger.Info("user_registered", "user_id", result.User.ID)
		writeJSON(w, http.StatusCreated, dto.ToRegisterUserResponse(result.User, true))
		return
	}
	writeJSON(w, http.StatusOK, dto.ToRegisterUserResponse(result.User, false))
}
