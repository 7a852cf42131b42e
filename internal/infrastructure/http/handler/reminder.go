package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/infrastructure/http/response"
)

const defaultOccurrenceCount = 5

// SetReminder handles PUT /v1/tasks/{id}/reminder. The reminder replaces any existing one.
func (h *APIHandler) SetReminder(w http.ResponseWriter, r *http.Request) {
	var req SetReminderRequest
	if !decode(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	task, err := h.todoService.SetReminder(r.Context(), id, domain.ReminderInput{
		Date:       req.Date,
		RepeatType: req.RepeatType,
		Days:       req.Days,
		Sound:      req.Sound,
		Timezone:   req.Timezone,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to set reminder via HTTP",
			"task_id", id,
			"repeat_type", req.RepeatType,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, MapTaskToDTO(*task))
}

// RemoveReminder handles DELETE /v1/tasks/{id}/reminder.
func (h *APIHandler) RemoveReminder(w http.ResponseWriter, r *http.Request) {
	task, err := h.todoService.RemoveReminder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, MapTaskToDTO(*task))
}

// ListOccurrences handles GET /v1/tasks/{id}/reminder/occurrences?after=&count=
// after defaults to now and count to five.
func (h *APIHandler) ListOccurrences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	after := h.clock.Now()
	if v := q.Get("after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, r, errInvalidQuery{param: "after", value: v})
			return
		}
		after = t
	}

	count := defaultOccurrenceCount
	if v := q.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, errInvalidQuery{param: "count", value: v})
			return
		}
		count = n
	}

	occurrences, err := h.todoService.NextOccurrences(r.Context(), chi.URLParam(r, "id"), after, count)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	if occurrences == nil {
		occurrences = []time.Time{}
	}
	response.OK(w, OccurrencesResponse{Occurrences: occurrences})
}
