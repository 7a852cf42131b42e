package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/pomotodo/internal/infrastructure/http/response"
)

// ListFilters handles GET /v1/filters.
func (h *APIHandler) ListFilters(w http.ResponseWriter, r *http.Request) {
	filters := h.todoService.Filters(r.Context())
	dtos := make([]FilterDTO, len(filters))
	for i, f := range filters {
		dtos[i] = MapFilterToDTO(f)
	}
	response.OK(w, ListFiltersResponse{Filters: dtos})
}

// SaveFilter handles POST /v1/filters.
func (h *APIHandler) SaveFilter(w http.ResponseWriter, r *http.Request) {
	var req SaveFilterRequest
	if !decode(w, r, &req) {
		return
	}

	filter, err := req.Condition.toDomain()
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	saved, err := h.todoService.SaveFilter(r.Context(), req.Name, filter)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "filter saved via HTTP", "filter_id", saved.ID)
	response.Created(w, MapFilterToDTO(saved))
}

// DeleteFilter handles DELETE /v1/filters/{id}.
func (h *APIHandler) DeleteFilter(w http.ResponseWriter, r *http.Request) {
	if err := h.todoService.DeleteFilter(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.NoContent(w)
}
