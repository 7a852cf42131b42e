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

// ListTasks handles GET /v1/tasks?category=&priority=&completed=&repeat_type=&sound=&from=&to=&sort=&filter=
// With filter, the saved filter preset applies and the other parameters override it.
func (h *APIHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTaskFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var tasks []domain.Task
	if id := r.URL.Query().Get("filter"); id != "" {
		tasks, err = h.todoService.FindTasksWithFilter(r.Context(), id, filter)
	} else {
		tasks, err = h.todoService.FindTasks(r.Context(), filter)
	}
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	dtos := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = MapTaskToDTO(t)
	}
	response.OK(w, ListTasksResponse{Tasks: dtos})
}

// parseTaskFilter reads the optional filter query parameters. Absent
// parameters leave the corresponding filter unset.
func parseTaskFilter(r *http.Request) (domain.TaskFilter, error) {
	q := r.URL.Query()
	filter := domain.TaskFilter{SortBy: domain.TaskSortField(q.Get("sort"))}

	if v := q.Get("category"); v != "" {
		c, err := domain.NewCategory(v)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}
	if v := q.Get("priority"); v != "" {
		p, err := domain.NewPriority(v)
		if err != nil {
			return filter, err
		}
		filter.Priority = &p
	}
	if v := q.Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errInvalidQuery{param: "completed", value: v}
		}
		filter.Completed = &b
	}
	if v := q.Get("repeat_type"); v != "" {
		rt, err := domain.NewRepeatType(v)
		if err != nil {
			return filter, err
		}
		filter.RepeatType = &rt
	}
	if v := q.Get("sound"); v != "" {
		st, err := domain.NewSoundType(v)
		if err != nil {
			return filter, err
		}
		filter.Sound = &st
	}
	bounds := []struct {
		param string
		dst   **time.Time
	}{
		{"from", &filter.ReminderFrom},
		{"to", &filter.ReminderTo},
	}
	for _, b := range bounds {
		v := q.Get(b.param)
		if v == "" {
			continue
		}
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errInvalidQuery{param: b.param, value: v}
		}
		*b.dst = &at
	}
	return filter, nil
}

// CreateTask handles POST /v1/tasks.
func (h *APIHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	estimated, err := fromMinutes("estimated_minutes", req.EstimatedMinutes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	task, err := h.todoService.CreateTask(r.Context(), domain.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Category:    req.Category,
		Tags:        req.Tags,
		Estimated:   estimated,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create task via HTTP",
			"title", req.Title,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "task created via HTTP", "task_id", task.ID)
	response.Created(w, MapTaskToDTO(*task))
}

// GetTask handles GET /v1/tasks/{id}.
func (h *APIHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.todoService.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, MapTaskToDTO(*task))
}

// UpdateTask handles PATCH /v1/tasks/{id}. Only fields named in update_mask change.
func (h *APIHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req UpdateTaskRequest
	if !decode(w, r, &req) {
		return
	}

	estimated, err := durationPtr("estimated_minutes", req.EstimatedMinutes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	actual, err := durationPtr("actual_minutes", req.ActualMinutes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	task, err := h.todoService.UpdateTask(r.Context(), domain.UpdateTaskParams{
		TaskID:      id,
		UpdateMask:  domainMask(req.UpdateMask),
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Category:    req.Category,
		Tags:        req.Tags,
		Estimated:   estimated,
		Actual:      actual,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to update task via HTTP",
			"task_id", id,
			"update_mask", req.UpdateMask,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, MapTaskToDTO(*task))
}

// wireMaskFields maps JSON field names that differ from the domain's.
var wireMaskFields = map[string]string{
	"estimated_minutes": "estimated",
	"actual_minutes":    "actual",
}

func domainMask(mask []string) []string {
	out := make([]string, len(mask))
	for i, f := range mask {
		if d, ok := wireMaskFields[f]; ok {
			f = d
		}
		out[i] = f
	}
	return out
}

// DeleteTask handles DELETE /v1/tasks/{id}.
func (h *APIHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.todoService.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.NoContent(w)
}

// ToggleTask handles POST /v1/tasks/{id}:toggle.
func (h *APIHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.todoService.ToggleTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, MapTaskToDTO(*task))
}

// StartWork handles POST /v1/tasks/{id}:startWork.
func (h *APIHandler) StartWork(w http.ResponseWriter, r *http.Request) {
	task, err := h.todoService.StartWork(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, MapTaskToDTO(*task))
}

// StopWork handles POST /v1/tasks/{id}:stopWork.
func (h *APIHandler) StopWork(w http.ResponseWriter, r *http.Request) {
	task, err := h.todoService.StopWork(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, MapTaskToDTO(*task))
}
