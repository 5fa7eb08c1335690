package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/homenest/homenest/internal/auth"
	"github.com/homenest/homenest/internal/handler/dto"
	"github.com/homenest/homenest/internal/model"
	"github.com/homenest/homenest/internal/service"
)

// RatingHandler handles HTTP requests for ratings.
type RatingHandler struct {
	svc    *service.RatingService
	logger *slog.Logger
}

// NewRatingHandler creates a new RatingHandler.
func NewRatingHandler(svc *service.RatingService, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{svc: svc, logger: logger}
}

// Submit handles POST /ratings. Members other than the rating's own
// fields are kept with the rating under extra.
func (h *RatingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := decodeJSON(r, &body, false); err != nil || body == nil {
		writeInvalidJSON(w)
		return
	}

	req, extra, err := splitRatingBody(body)
	if err != nil {
		writeInvalidJSON(w)
		return
	}

	subject := auth.SubjectFromContext(r.Context())
	rating, err := h.svc.Submit(r.Context(), subject, service.SubmitRatingInput{
		AuthorEmail: req.Email,
		PropertyID:  req.PropertyID,
		Score:       req.Rating,
		Comment:     req.Comment,
		Extra:       extra,
	})
	if err != nil {
		logDenial(h.logger, subject, err)
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("rating_submitted",
		"rating_id", rating.ID,
		"property_id", rating.PropertyID,
	)

	writeJSON(w, http.StatusCreated, dto.SubmitRatingResponse{
		Acknowledged: true,
		InsertedID:   rating.ID,
		Rating:       rating,
	})
}

// List handles GET /ratings?email=. The email defaults to the caller.
func (h *RatingHandler) List(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFromContext(r.Context())
	requested := model.Identity(r.URL.Query().Get("email"))

	ratings, err := h.svc.ListByAuthor(r.Context(), subject, requested)
	if err != nil {
		logDenial(h.logger, subject, err)
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(ratings))
}

// splitRatingBody decodes the known rating members from body and returns
// the remaining members re-encoded as one object, or nil if none remain.
func splitRatingBody(body map[string]json.RawMessage) (dto.SubmitRatingRequest, json.RawMessage, error) {
	var req dto.SubmitRatingRequest

	known := make(map[string]json.RawMessage, len(dto.RatingFields))
	for _, name := range dto.RatingFields {
		if raw, ok := body[name]; ok {
			known[name] = raw
			delete(body, name)
		}
	}

	encoded, err := json.Marshal(known)
	if err != nil {
		return req, nil, err
	}
	if err := json.Unmarshal(encoded, &req); err != nil {
		return req, nil, err
	}

	if len(body) == 0 {
		return req, nil, nil
	}
	extra, err := json.Marshal(body)
	if err != nil {
		return req, nil, err
	}
	return req, extra, nil
}
