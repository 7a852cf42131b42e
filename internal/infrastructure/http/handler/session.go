package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/pomotodo/internal/application/worksession"
	"github.com/rezkam/pomotodo/internal/infrastructure/http/response"
)

// GetSession handles GET /v1/session.
func (h *APIHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	response.OK(w, MapStateToDTO(h.sessionService.Status(r.Context())))
}

// StartSession handles POST /v1/session:start.
func (h *APIHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "start", h.sessionService.Start)
}

// PauseSession handles POST /v1/session:pause.
func (h *APIHandler) PauseSession(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "pause", h.sessionService.Pause)
}

// ResumeSession handles POST /v1/session:resume.
func (h *APIHandler) ResumeSession(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "resume", h.sessionService.Resume)
}

// EndSession handles POST /v1/session:end.
func (h *APIHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "end", h.sessionService.End)
}

// StartBreak handles POST /v1/session:startBreak.
func (h *APIHandler) StartBreak(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "start_break", h.sessionService.StartBreak)
}

// EndBreak handles POST /v1/session:endBreak.
func (h *APIHandler) EndBreak(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "end_break", h.sessionService.EndBreak)
}

// transition runs a session command. Commands that do not apply to the
// current state are no-ops and still answer 200 with the unchanged state.
func (h *APIHandler) transition(w http.ResponseWriter, r *http.Request, name string, fn func(context.Context) (worksession.State, error)) {
	state, err := fn(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "session command failed via HTTP",
			"command", name,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, MapStateToDTO(state))
}

// GetSettings handles GET /v1/settings.
func (h *APIHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	response.OK(w, MapSettingsToDTO(h.sessionService.Settings(r.Context())))
}

// UpdateSettings handles PATCH /v1/settings.
func (h *APIHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if !decode(w, r, &req) {
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	settings, err := h.sessionService.UpdateSettings(r.Context(), patch)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, MapSettingsToDTO(settings))
}

// ListPresets handles GET /v1/presets.
func (h *APIHandler) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets := h.sessionService.Presets(r.Context())
	dtos := make([]PresetDTO, len(presets))
	for i, p := range presets {
		dtos[i] = MapPresetToDTO(p)
	}
	response.OK(w, ListPresetsResponse{Presets: dtos})
}

// SavePreset handles POST /v1/presets.
func (h *APIHandler) SavePreset(w http.ResponseWriter, r *http.Request) {
	var req SavePresetRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := h.savePresetRequest(r, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "preset saved via HTTP", "preset_id", p.ID)
	response.Created(w, p)
}

func (h *APIHandler) savePresetRequest(r *http.Request, req SavePresetRequest) (PresetDTO, error) {
	if req.Settings == nil {
		p, err := h.sessionService.SavePreset(r.Context(), req.Name, nil)
		return MapPresetToDTO(p), err
	}
	settings, err := req.Settings.toDomain()
	if err != nil {
		return PresetDTO{}, err
	}
	p, err := h.sessionService.SavePreset(r.Context(), req.Name, &settings)
	return MapPresetToDTO(p), err
}

// DeletePreset handles DELETE /v1/presets/{id}.
func (h *APIHandler) DeletePreset(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionService.DeletePreset(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.NoContent(w)
}

// ApplyPreset handles POST /v1/presets/{id}:apply and returns the new settings.
func (h *APIHandler) ApplyPreset(w http.ResponseWriter, r *http.Request) {
	settings, err := h.sessionService.ApplyPreset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, MapSettingsToDTO(settings))
}

// ListNotifications handles GET /v1/notifications.
func (h *APIHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	pending, err := h.notifications.ListPending(r.Context())
	if err != nil {
		response.InternalError(w, r, err)
		return
	}
	dtos := make([]NotificationDTO, len(pending))
	for i, n := range pending {
		dtos[i] = MapNotificationToDTO(n)
	}
	response.OK(w, ListNotificationsResponse{Notifications: dtos})
}
