package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/homenest/homenest/internal/handler/dto"
	"github.com/homenest/homenest/internal/service"
)

// errInvalidJSON marks a request body that could not be decoded.
var errInvalidJSON = errors.New("invalid request body")

// decodeJSON decodes the request body into v. An empty body is accepted
// only when allowEmpty is set, leaving v untouched.
func decodeJSON(r *http.Request, v any, allowEmpty bool) error {
	if r.Body == nil {
		if allowEmpty {
			return nil
		}
		return errInvalidJSON
	}
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && allowEmpty:
		return nil
	default:
		return errInvalidJSON
	}
}

// writeInvalidJSON answers a body that failed to decode.
func writeInvalidJSON(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, service.ErrInvalidIdentifier):
		writeError(w, http.StatusBadRequest, "INVALID_IDENTIFIER", "Invalid identifier")
	case errors.Is(err, service.ErrInvalidField):
		writeError(w, http.StatusUnprocessableEntity, "INVALID_FIELD", fieldMessage(err))
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", "Resource already exists")
	case errors.Is(err, service.ErrUpstreamTimeout):
		logger.Error("upstream_timeout", "error", err)
		writeError(w, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "Upstream timed out")
	case errors.Is(err, service.ErrUpstreamUnavailable):
		logger.Error("upstream_unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Upstream unavailable")
	default:
		logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// fieldMessage returns the part of an invalid-field error that names the
// field, e.g. "propertyPrice must be a non-negative number".
func fieldMessage(err error) string {
	msg := err.Error()
	prefix := service.ErrInvalidField.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
