package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/pomotodo/internal/application/todo"
	"github.com/rezkam/pomotodo/internal/application/worksession"
	"github.com/rezkam/pomotodo/internal/clock"
	"github.com/rezkam/pomotodo/internal/infrastructure/http/response"
	"github.com/rezkam/pomotodo/internal/notify"
)

// APIHandler adapts HTTP requests to application service calls.
type APIHandler struct {
	todoService    *todo.Service
	sessionService *worksession.Service
	notifications  notify.Dispatcher
	clock          clock.Clock
}

// NewAPIHandler creates a new HTTP API handler.
func NewAPIHandler(todoService *todo.Service, sessionService *worksession.Service, notifications notify.Dispatcher, clk clock.Clock) *APIHandler {
	return &APIHandler{
		todoService:    todoService,
		sessionService: sessionService,
		notifications:  notifications,
		clock:          clk,
	}
}

// NewRouter mounts every API route on a fresh chi router. Both production
// code and tests use it so routing is identical.
func NewRouter(todoService *todo.Service, sessionService *worksession.Service, notifications notify.Dispatcher, clk clock.Clock) http.Handler {
	h := NewAPIHandler(todoService, sessionService, notifications, clk)

	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Get("/tasks", h.ListTasks)
		r.Post("/tasks", h.CreateTask)
		r.Get("/tasks/{id}", h.GetTask)
		r.Patch("/tasks/{id}", h.UpdateTask)
		r.Delete("/tasks/{id}", h.DeleteTask)
		r.Post("/tasks/{id}:toggle", h.ToggleTask)
		r.Post("/tasks/{id}:startWork", h.StartWork)
		r.Post("/tasks/{id}:stopWork", h.StopWork)

		r.Put("/tasks/{id}/reminder", h.SetReminder)
		r.Delete("/tasks/{id}/reminder", h.RemoveReminder)
		r.Get("/tasks/{id}/reminder/occurrences", h.ListOccurrences)

		r.Get("/filters", h.ListFilters)
		r.Post("/filters", h.SaveFilter)
		r.Delete("/filters/{id}", h.DeleteFilter)

		r.Get("/session", h.GetSession)
		r.Post("/session:start", h.StartSession)
		r.Post("/session:pause", h.PauseSession)
		r.Post("/session:resume", h.ResumeSession)
		r.Post("/session:end", h.EndSession)
		r.Post("/session:startBreak", h.StartBreak)
		r.Post("/session:endBreak", h.EndBreak)

		r.Get("/settings", h.GetSettings)
		r.Patch("/settings", h.UpdateSettings)

		r.Get("/presets", h.ListPresets)
		r.Post("/presets", h.SavePreset)
		r.Delete("/presets/{id}", h.DeletePreset)
		r.Post("/presets/{id}:apply", h.ApplyPreset)

		r.Get("/notifications", h.ListNotifications)
	})
	return r
}

// decode reads a JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		response.BadRequest(w, "invalid JSON")
		return false
	}
	return true
}

// errInvalidQuery reports a query parameter that could not be parsed.
type errInvalidQuery struct {
	param string
	value string
}

func (e errInvalidQuery) Error() string {
	return fmt.Sprintf("invalid value %q for query parameter %s", e.value, e.param)
}

// errInvalidField reports a body field rejected before reaching the services.
type errInvalidField struct {
	field string
	issue string
	err   error
}

func (e errInvalidField) Error() string {
	return e.field + " " + e.issue
}

func (e errInvalidField) Unwrap() error {
	return e.err
}

// writeError answers with a 400 for malformed query parameters and body
// fields and defers everything else to the domain error mapping.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var qErr errInvalidQuery
	if errors.As(err, &qErr) {
		response.ValidationError(w, qErr.param, qErr.Error())
		return
	}
	var fErr errInvalidField
	if errors.As(err, &fErr) {
		response.ValidationError(w, fErr.field, fErr.issue)
		return
	}
	response.FromDomainError(w, r, err)
}
