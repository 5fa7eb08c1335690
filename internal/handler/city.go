package handler

import (
	"log/slog"
	"net/http"

	"github.com/homenest/homenest/internal/service"
)

// CityHandler serves the city reference list.
type CityHandler struct {
	svc    *service.CityService
	logger *slog.Logger
}

// NewCityHandler creates a new CityHandler.
func NewCityHandler(svc *service.CityService, logger *slog.Logger) *CityHandler {
	return &CityHandler{svc: svc, logger: logger}
}

// List handles GET /cities.
func (h *CityHandler) List(w http.ResponseWriter, r *http.Request) {
	cities, err := h.svc.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(cities))
}
