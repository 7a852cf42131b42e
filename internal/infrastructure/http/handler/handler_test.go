package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/pomotodo/internal/application/todo"
	"github.com/rezkam/pomotodo/internal/application/worksession"
	"github.com/rezkam/pomotodo/internal/clock"
	"github.com/rezkam/pomotodo/internal/infrastructure/http/response"
	"github.com/rezkam/pomotodo/internal/infrastructure/persistence/kvstore"
	"github.com/rezkam/pomotodo/internal/notify"
	"github.com/rezkam/pomotodo/internal/recurring"
	"github.com/rezkam/pomotodo/internal/storage/memory"
)

var t0 = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

type testAPI struct {
	handler http.Handler
	clock   *clock.Manual
	queue   *notify.Queue
}

// newTestAPI wires the real services over an in-memory store.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	repo := kvstore.NewRepository(memory.NewStore())
	queue := notify.NewQueue(notify.NewLogSink(slog.New(slog.NewTextHandler(io.Discard, nil))))
	clk := clock.NewManual(t0)

	todoService := todo.NewService(repo, queue, recurring.NewEngine(time.UTC), clk)
	sessionService := worksession.NewService(repo, queue, clk)
	ctx := context.Background()
	todoService.Load(ctx)
	sessionService.Load(ctx)

	return &testAPI{
		handler: NewRouter(todoService, sessionService, queue, clk),
		clock:   clk,
		queue:   queue,
	}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) createTask(t *testing.T, body string) TaskDTO {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/tasks", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[TaskDTO](t, rec)
}

func TestTasks_CreateGetList(t *testing.T) {
	api := newTestAPI(t)

	created := api.createTask(t, `{"title":"  Write report ","priority":"high","category":"work","tags":["q3","q3"," draft "],"estimated_minutes":45}`)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Write report", created.Title)
	assert.Equal(t, "high", created.Priority)
	assert.Equal(t, "work", created.Category)
	assert.Equal(t, []string{"q3", "draft"}, created.Tags)
	require.NotNil(t, created.WorkTime)
	assert.InDelta(t, 45, created.WorkTime.EstimatedMinutes, 1e-9)
	assert.Equal(t, t0, created.CreatedAt)

	api.createTask(t, `{"title":"Buy milk","category":"shopping"}`)

	rec := api.do(t, http.MethodGet, "/v1/tasks/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodeBody[TaskDTO](t, rec).ID)

	rec = api.do(t, http.MethodGet, "/v1/tasks?priority=high", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[ListTasksResponse](t, rec)
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, created.ID, list.Tasks[0].ID)

	rec = api.do(t, http.MethodGet, "/v1/tasks?sort=category", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list = decodeBody[ListTasksResponse](t, rec)
	require.Len(t, list.Tasks, 2)
	assert.Equal(t, "work", list.Tasks[0].Category)
	assert.Equal(t, "shopping", list.Tasks[1].Category)
}

func TestTasks_BadRequests(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name      string
		method    string
		path      string
		body      string
		wantCode  string
		wantField string
	}{
		{name: "malformed json", method: http.MethodPost, path: "/v1/tasks", body: `{"title":`, wantCode: "INVALID_REQUEST"},
		{name: "unknown json field", method: http.MethodPost, path: "/v1/tasks", body: `{"title":"a","colour":"red"}`, wantCode: "INVALID_REQUEST"},
		{name: "missing title", method: http.MethodPost, path: "/v1/tasks", body: `{"title":"  "}`, wantCode: "VALIDATION_ERROR", wantField: "title"},
		{name: "bad priority", method: http.MethodPost, path: "/v1/tasks", body: `{"title":"a","priority":"urgent"}`, wantCode: "VALIDATION_ERROR", wantField: "priority"},
		{name: "bad category filter", method: http.MethodGet, path: "/v1/tasks?category=garden", wantCode: "VALIDATION_ERROR", wantField: "category"},
		{name: "bad completed filter", method: http.MethodGet, path: "/v1/tasks?completed=maybe", wantCode: "VALIDATION_ERROR", wantField: "completed"},
		{name: "bad sort", method: http.MethodGet, path: "/v1/tasks?sort=title", wantCode: "VALIDATION_ERROR", wantField: "sort"},
		{name: "overflowing estimate", method: http.MethodPost, path: "/v1/tasks", body: `{"title":"a","estimated_minutes":1e300}`, wantCode: "VALIDATION_ERROR", wantField: "estimated_minutes"},
		{name: "negative estimate", method: http.MethodPost, path: "/v1/tasks", body: `{"title":"a","estimated_minutes":-5}`, wantCode: "VALIDATION_ERROR", wantField: "estimated_minutes"},
		{name: "overflowing settings", method: http.MethodPatch, path: "/v1/settings", body: `{"total_minutes":1e12}`, wantCode: "VALIDATION_ERROR", wantField: "total_minutes"},
		{name: "overflowing preset", method: http.MethodPost, path: "/v1/presets", body: `{"name":"long","settings":{"total_minutes":60,"break_interval_minutes":1e200,"break_duration_minutes":5}}`, wantCode: "VALIDATION_ERROR", wantField: "break_interval_minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			body := decodeBody[response.ErrorResponse](t, rec)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			if tt.wantField != "" {
				require.Len(t, body.Error.Details, 1)
				assert.Equal(t, tt.wantField, body.Error.Details[0].Field)
			}
		})
	}
}

func TestTasks_UpdateToggleDelete(t *testing.T) {
	api := newTestAPI(t)
	task := api.createTask(t, `{"title":"Draft"}`)
	api.clock.Advance(time.Minute)

	rec := api.do(t, http.MethodPatch, "/v1/tasks/"+task.ID, `{"update_mask":["title","actual_minutes"],"title":"Final","actual_minutes":12.5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[TaskDTO](t, rec)
	assert.Equal(t, "Final", updated.Title)
	require.NotNil(t, updated.WorkTime)
	assert.InDelta(t, 12.5, updated.WorkTime.ActualMinutes, 1e-9)
	assert.Equal(t, t0.Add(time.Minute), updated.UpdatedAt)

	rec = api.do(t, http.MethodPatch, "/v1/tasks/"+task.ID, `{"update_mask":["colour"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/tasks/"+task.ID+":toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[TaskDTO](t, rec).Completed)

	rec = api.do(t, http.MethodGet, "/v1/tasks?completed=false", "")
	assert.Empty(t, decodeBody[ListTasksResponse](t, rec).Tasks)

	rec = api.do(t, http.MethodDelete, "/v1/tasks/"+task.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/tasks/"+task.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeBody[response.ErrorResponse](t, rec).Error.Code)
}

func TestReminders(t *testing.T) {
	api := newTestAPI(t)
	task := api.createTask(t, `{"title":"Stand-up"}`)

	rec := api.do(t, http.MethodPut, "/v1/tasks/"+task.ID+"/reminder",
		`{"date":"2026-06-01T09:00:00Z","repeat_type":"daily","sound":"bell"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	withReminder := decodeBody[TaskDTO](t, rec)
	require.NotNil(t, withReminder.Reminder)
	assert.Equal(t, "daily", withReminder.Reminder.RepeatType)
	assert.Equal(t, "bell", withReminder.Reminder.Sound)

	rec = api.do(t, http.MethodGet, "/v1/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decodeBody[ListNotificationsResponse](t, rec).Notifications
	require.Len(t, pending, 1)
	assert.Equal(t, notify.ReminderID(task.ID), pending[0].ID)
	assert.Equal(t, t0.Add(time.Hour), pending[0].FireAt)

	rec = api.do(t, http.MethodGet, "/v1/tasks/"+task.ID+"/reminder/occurrences?count=3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []time.Time{
		time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 3, 9, 0, 0, 0, time.UTC),
	}, decodeBody[OccurrencesResponse](t, rec).Occurrences)

	rec = api.do(t, http.MethodGet, "/v1/tasks/"+task.ID+"/reminder/occurrences?after=2026-06-10T10:00:00Z&count=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []time.Time{time.Date(2026, 6, 11, 9, 0, 0, 0, time.UTC)},
		decodeBody[OccurrencesResponse](t, rec).Occurrences)

	rec = api.do(t, http.MethodGet, "/v1/tasks/"+task.ID+"/reminder/occurrences?count=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPut, "/v1/tasks/"+task.ID+"/reminder", `{"date":"2026-06-01T09:00:00Z","timezone":"Mars/Olympus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodDelete, "/v1/tasks/"+task.ID+"/reminder", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeBody[TaskDTO](t, rec).Reminder)

	pendingNow, err := api.queue.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pendingNow)

	rec = api.do(t, http.MethodDelete, "/v1/tasks/"+task.ID+"/reminder", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSession_Lifecycle(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/v1/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	idle := decodeBody[SessionDTO](t, rec)
	assert.False(t, idle.Active)
	assert.Equal(t, "idle", idle.Phase)

	rec = api.do(t, http.MethodPost, "/v1/session:start", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	started := decodeBody[SessionDTO](t, rec)
	assert.True(t, started.Active)
	assert.Equal(t, "work", started.Phase)
	assert.InDelta(t, 60, started.RemainingMinutes, 1e-9)
	assert.InDelta(t, 25, started.UntilNextBreakMinutes, 1e-9)

	rec = api.do(t, http.MethodGet, "/v1/notifications", "")
	pending := decodeBody[ListNotificationsResponse](t, rec).Notifications
	require.Len(t, pending, 1)
	assert.True(t, strings.HasPrefix(pending[0].ID, "break_"+started.ID))
	assert.Equal(t, t0.Add(25*time.Minute), pending[0].FireAt)

	api.clock.Advance(10 * time.Minute)
	rec = api.do(t, http.MethodPost, "/v1/session:pause", "")
	require.Equal(t, http.StatusOK, rec.Code)
	paused := decodeBody[SessionDTO](t, rec)
	assert.True(t, paused.IsPaused)
	assert.InDelta(t, 50, paused.RemainingMinutes, 1e-9)

	api.clock.Advance(5 * time.Minute)
	rec = api.do(t, http.MethodPost, "/v1/session:resume", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resumed := decodeBody[SessionDTO](t, rec)
	assert.False(t, resumed.IsPaused)
	assert.InDelta(t, 50, resumed.RemainingMinutes, 1e-9)

	rec = api.do(t, http.MethodPost, "/v1/session:startBreak", "")
	require.Equal(t, http.StatusOK, rec.Code)
	onBreak := decodeBody[SessionDTO](t, rec)
	assert.Equal(t, "break", onBreak.Phase)
	assert.Equal(t, 1, onBreak.BreakCount)

	rec = api.do(t, http.MethodPost, "/v1/session:endBreak", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "work", decodeBody[SessionDTO](t, rec).Phase)

	rec = api.do(t, http.MethodPost, "/v1/session:end", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[SessionDTO](t, rec).Active)

	rec = api.do(t, http.MethodGet, "/v1/notifications", "")
	assert.Empty(t, decodeBody[ListNotificationsResponse](t, rec).Notifications)
}

func TestSettingsAndPresets(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/v1/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	settings := decodeBody[SettingsDTO](t, rec)
	assert.InDelta(t, 60, settings.TotalMinutes, 1e-9)
	assert.InDelta(t, 1.5, settings.BreakDurationMinutes, 1e-9)

	rec = api.do(t, http.MethodPatch, "/v1/settings", `{"total_minutes":90,"sound_enabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	settings = decodeBody[SettingsDTO](t, rec)
	assert.InDelta(t, 90, settings.TotalMinutes, 1e-9)
	assert.InDelta(t, 25, settings.BreakIntervalMinutes, 1e-9)
	assert.False(t, settings.SoundEnabled)

	rec = api.do(t, http.MethodPatch, "/v1/settings", `{"break_duration_minutes":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/presets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	presets := decodeBody[ListPresetsResponse](t, rec).Presets
	require.Len(t, presets, 3)
	assert.Equal(t, "pomodoro", presets[0].ID)
	assert.True(t, presets[0].BuiltIn)

	rec = api.do(t, http.MethodPost, "/v1/presets", `{"name":"Current"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decodeBody[PresetDTO](t, rec)
	assert.False(t, saved.BuiltIn)
	assert.InDelta(t, 90, saved.Settings.TotalMinutes, 1e-9)

	rec = api.do(t, http.MethodPost, "/v1/presets/pomodoro:apply", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 240, decodeBody[SettingsDTO](t, rec).TotalMinutes, 1e-9)

	rec = api.do(t, http.MethodPost, "/v1/presets/"+saved.ID+":apply", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 90, decodeBody[SettingsDTO](t, rec).TotalMinutes, 1e-9)

	rec = api.do(t, http.MethodDelete, "/v1/presets/pomodoro", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodDelete, "/v1/presets/"+saved.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/presets/"+saved.ID+":apply", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTasks_ReminderConditions(t *testing.T) {
	api := newTestAPI(t)

	standup := api.createTask(t, `{"title":"Stand-up","category":"work"}`)
	rent := api.createTask(t, `{"title":"Rent","category":"personal"}`)
	api.createTask(t, `{"title":"Buy milk"}`)

	rec := api.do(t, http.MethodPut, "/v1/tasks/"+standup.ID+"/reminder", `{"date":"2026-06-02T09:00:00Z","repeat_type":"daily","sound":"bell"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(t, http.MethodPut, "/v1/tasks/"+rent.ID+"/reminder", `{"date":"2026-06-30T09:00:00Z","repeat_type":"monthly","sound":"chime"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"repeat type", "repeat_type=monthly", []string{rent.ID}},
		{"sound", "sound=bell", []string{standup.ID}},
		{"range", "from=2026-06-01T00:00:00Z&to=2026-06-02T09:00:00Z", []string{standup.ID}},
		{"open range", "from=2026-06-03T00:00:00Z", []string{rent.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodGet, "/v1/tasks?"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var ids []string
			for _, task := range decodeBody[ListTasksResponse](t, rec).Tasks {
				ids = append(ids, task.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	bad := []struct {
		name  string
		query string
		field string
	}{
		{"unknown repeat type", "repeat_type=yearly", "repeat_type"},
		{"unknown sound", "sound=gong", "sound"},
		{"unparseable from", "from=yesterday", "from"},
		{"inverted range", "from=2026-07-01T00:00:00Z&to=2026-06-01T00:00:00Z", "from"},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodGet, "/v1/tasks?"+tt.query, "")
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			body := decodeBody[response.ErrorResponse](t, rec)
			require.Len(t, body.Error.Details, 1)
			assert.Equal(t, tt.field, body.Error.Details[0].Field)
		})
	}
}

func TestFilters(t *testing.T) {
	api := newTestAPI(t)

	work := api.createTask(t, `{"title":"Stand-up","category":"work"}`)
	home := api.createTask(t, `{"title":"Dentist","category":"personal"}`)
	for _, id := range []string{work.ID, home.ID} {
		rec := api.do(t, http.MethodPut, "/v1/tasks/"+id+"/reminder", `{"date":"2026-06-02T09:00:00Z","sound":"bell"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := api.do(t, http.MethodPost, "/v1/filters", `{"name":"Bells","condition":{"sound":"bell","sort":"priority"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decodeBody[FilterDTO](t, rec)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "Bells", saved.Name)
	require.NotNil(t, saved.Condition.Sound)
	assert.Equal(t, "bell", *saved.Condition.Sound)
	assert.Equal(t, "priority", saved.Condition.Sort)
	assert.Nil(t, saved.Condition.Category)

	rec = api.do(t, http.MethodGet, "/v1/filters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody[ListFiltersResponse](t, rec).Filters, 1)

	rec = api.do(t, http.MethodGet, "/v1/tasks?filter="+saved.ID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decodeBody[ListTasksResponse](t, rec).Tasks, 2)

	rec = api.do(t, http.MethodGet, "/v1/tasks?filter="+saved.ID+"&category=work", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := decodeBody[ListTasksResponse](t, rec).Tasks
	require.Len(t, tasks, 1)
	assert.Equal(t, work.ID, tasks[0].ID)

	rec = api.do(t, http.MethodPost, "/v1/filters", `{"name":"Bad","condition":{"repeat_type":"yearly"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(t, http.MethodPost, "/v1/filters", `{"name":"","condition":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodDelete, "/v1/filters/"+saved.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(t, http.MethodDelete, "/v1/filters/"+saved.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(t, http.MethodGet, "/v1/tasks?filter="+saved.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTasks_WorkTimer(t *testing.T) {
	api := newTestAPI(t)
	task := api.createTask(t, `{"title":"Draft","estimated_minutes":30}`)

	rec := api.do(t, http.MethodPost, "/v1/tasks/"+task.ID+":stopWork", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/tasks/"+task.ID+":startWork", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	started := decodeBody[TaskDTO](t, rec)
	require.NotNil(t, started.WorkTime)
	require.NotNil(t, started.WorkTime.StartedAt)
	assert.Equal(t, t0, *started.WorkTime.StartedAt)

	rec = api.do(t, http.MethodPost, "/v1/tasks/"+task.ID+":startWork", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	api.clock.Advance(25 * time.Minute)
	rec = api.do(t, http.MethodPost, "/v1/tasks/"+task.ID+":stopWork", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stopped := decodeBody[TaskDTO](t, rec)
	assert.Nil(t, stopped.WorkTime.StartedAt)
	assert.InDelta(t, 25, stopped.WorkTime.ActualMinutes, 1e-9)

	rec = api.do(t, http.MethodPost, "/v1/tasks/missing:startWork", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
