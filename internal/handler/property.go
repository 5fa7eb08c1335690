package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/homenest/homenest/internal/auth"
	"github.com/homenest/homenest/internal/handler/dto"
	"github.com/homenest/homenest/internal/model"
	"github.com/homenest/homenest/internal/service"
)

// PropertyHandler handles HTTP requests for property listings.
type PropertyHandler struct {
	svc           *service.PropertyService
	featuredLimit int
	logger        *slog.Logger
}

// NewPropertyHandler creates a new PropertyHandler. featuredLimit is the
// size of the "latest" listing served by Featured.
func NewPropertyHandler(svc *service.PropertyService, featuredLimit int, logger *slog.Logger) *PropertyHandler {
	return &PropertyHandler{
		svc:           svc,
		featuredLimit: featuredLimit,
		logger:        logger,
	}
}

// Create handles POST /add-property.
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePropertyRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeInvalidJSON(w)
		return
	}

	subject := auth.SubjectFromContext(r.Context())
	p, err := h.svc.Create(r.Context(), subject, service.CreatePropertyInput{
		OwnerEmail:       req.UserEmail,
		Name:             req.PropertyName,
		ShortDescription: req.ShortDescription,
		Category:         req.Category,
		Price:            req.PropertyPrice,
		Location:         req.Location,
		Image:            req.Image,
	})
	if err != nil {
		h.handleError(w, subject, err)
		return
	}

	h.logger.Info("property_created", "property_id", p.ID)

	writeJSON(w, http.StatusCreated, dto.CreatePropertyResponse{
		Acknowledged: true,
		InsertedID:   p.ID,
		Property:     p,
	})
}

// Get handles GET /property/{id}.
func (h *PropertyHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// List handles GET /properties with an optional ?email= owner filter.
func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := model.Identity(r.URL.Query().Get("email"))
	props, err := h.svc.ListByOwner(r.Context(), owner)
	if err != nil {
		h.handleError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(props))
}

// Featured handles GET /featured and GET /latest-properties.
func (h *PropertyHandler) Featured(w http.ResponseWriter, r *http.Request) {
	props, err := h.svc.Latest(r.Context(), h.featuredLimit)
	if err != nil {
		h.handleError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(props))
}

// Update handles PATCH /update-property/{id} and its aliases.
func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.PropertyPatch
	if err := decodeJSON(r, &patch, true); err != nil {
		writeInvalidJSON(w)
		return
	}

	subject := auth.SubjectFromContext(r.Context())
	updated, err := h.svc.Update(r.Context(), subject, chi.URLParam(r, "id"), patch)
	if err != nil {
		h.handleError(w, subject, err)
		return
	}

	h.logger.Info("property_updated", "property_id", updated.ID)

	writeJSON(w, http.StatusOK, dto.UpdatePropertyResponse{
		Success:         true,
		Message:         dto.MsgPropertyUpdated,
		UpdatedProperty: updated,
	})
}

// Delete handles DELETE /delete-property/{id} and its POST alias.
func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req dto.DeletePropertyRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeInvalidJSON(w)
		return
	}

	id := chi.URLParam(r, "id")
	subject := auth.SubjectFromContext(r.Context())
	deleted, err := h.svc.Delete(r.Context(), subject, id, model.Identity(req.Email))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", dto.MsgPropertyNotFound)
			return
		}
		h.handleError(w, subject, err)
		return
	}

	h.logger.Info("property_deleted", "property_id", id)

	writeJSON(w, http.StatusOK, dto.DeletePropertyResponse{
		Success:      true,
		Message:      dto.MsgPropertyDeleted,
		DeletedCount: deleted,
	})
}

func (h *PropertyHandler) handleError(w http.ResponseWriter, subject model.Identity, err error) {
	logDenial(h.logger, subject, err)
	handleServiceError(w, h.logger, err)
}

// logDenial records authorization failures. Only the subject is logged.
func logDenial(logger *slog.Logger, subject model.Identity, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		logger.Info("authorization_denied", "reason", "unauthenticated")
	case errors.Is(err, service.ErrForbidden):
		logger.Info("authorization_denied", "reason", "forbidden", "subject", subject.String())
	}
}
