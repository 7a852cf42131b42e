package kvstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/ptr"
	"github.com/rezkam/pomotodo/internal/storage"
	"github.com/rezkam/pomotodo/internal/storage/memory"
)

func TestRepository_TasksRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(memory.NewStore())

	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	fired := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	started := time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC)
	want := []domain.Task{
		{
			ID:        "0192f0a0-0000-7000-8000-000000000001",
			Title:     "Write report",
			Priority:  domain.PriorityHigh,
			Category:  domain.CategoryWork,
			Tags:      []string{"q1"},
			CreatedAt: created,
			UpdatedAt: created,
			Reminder: &domain.Reminder{
				Date:        time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
				RepeatType:  domain.RepeatWeekly,
				Days:        []int{1, 3, 5},
				Sound:       domain.SoundChime,
				Timezone:    "Europe/Berlin",
				LastFiredAt: &fired,
			},
			WorkTime: &domain.WorkTime{
				Estimated:       90 * time.Second,
				Actual:          25 * time.Minute,
				StartedAt:       &started,
				OverrunNotified: true,
			},
		},
		{
			ID:        "0192f0a0-0000-7000-8000-000000000002",
			Title:     "Buy milk",
			Completed: true,
			Priority:  domain.PriorityLow,
			Category:  domain.CategoryShopping,
			CreatedAt: created,
			UpdatedAt: created,
		},
	}

	require.NoError(t, repo.SaveTasks(ctx, want))

	got, err := repo.LoadTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRepository_MissingKeyIsNotFound(t *testing.T) {
	repo := NewRepository(memory.NewStore())

	_, err := repo.LoadTasks(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = repo.LoadSettings(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRepository_CorruptRecords(t *testing.T) {
	ctx := context.Background()

	valid, err := encode(KindSettings, settingsToRecord(domain.DefaultWorkSessionSettings()))
	require.NoError(t, err)

	tamper := func(mutate func(env *envelope)) []byte {
		var env envelope
		require.NoError(t, json.Unmarshal(valid, &env))
		mutate(&env)
		raw, err := json.Marshal(env)
		require.NoError(t, err)
		return raw
	}

	tests := []struct {
		name    string
		raw     []byte
		wantErr error
	}{
		{
			name:    "not json",
			raw:     []byte("{not json"),
			wantErr: ErrCorruptRecord,
		},
		{
			name: "checksum mismatch",
			raw: tamper(func(env *envelope) {
				env.Data = json.RawMessage(`{"totalDuration":1,"breakInterval":1,"breakDuration":1}`)
			}),
			wantErr: ErrCorruptRecord,
		},
		{
			name:    "wrong kind",
			raw:     tamper(func(env *envelope) { env.Kind = KindTasks }),
			wantErr: ErrCorruptRecord,
		},
		{
			name:    "future version",
			raw:     tamper(func(env *envelope) { env.Version = CurrentVersion + 1 }),
			wantErr: ErrUnsupportedVersion,
		},
		{
			name: "non-positive durations",
			raw: func() []byte {
				raw, err := encode(KindSettings, settingsRecord{TotalDuration: 0, BreakInterval: 25, BreakDuration: 5})
				require.NoError(t, err)
				return raw
			}(),
			wantErr: ErrCorruptRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			require.NoError(t, store.Set(ctx, KindSettings, tt.raw))

			_, err := NewRepository(store).LoadSettings(ctx)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRepository_SessionIdleAndActive(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(memory.NewStore())

	require.NoError(t, repo.SaveSession(ctx, nil))
	got, err := repo.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	pausedAt := start.Add(40 * time.Minute)
	session := &domain.WorkSession{
		ID:            "0192f0a0-0000-7000-8000-0000000000aa",
		StartTime:     start,
		EndTime:       start.Add(65 * time.Minute),
		Breaks:        []domain.Break{{StartTime: start.Add(25 * time.Minute), EndTime: start.Add(30 * time.Minute)}},
		Phase:         domain.PhaseWork,
		IsPaused:      true,
		PausedAt:      &pausedAt,
		PausedTotal:   5 * time.Minute,
		WorkStartedAt: start.Add(30 * time.Minute),
	}
	require.NoError(t, repo.SaveSession(ctx, session))

	got, err = repo.LoadSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *session, *got)
}

func TestRepository_PresetsSkipBuiltIns(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(memory.NewStore())

	settings := domain.DefaultWorkSessionSettings()
	require.NoError(t, repo.SavePresets(ctx, []domain.Preset{
		{ID: "pomodoro", Name: "Pomodoro", Settings: settings, BuiltIn: true},
		{ID: "mine", Name: "Deep work", Settings: settings},
	}))

	got, err := repo.LoadPresets(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mine", got[0].ID)
	assert.False(t, got[0].BuiltIn)
	assert.Equal(t, settings, got[0].Settings)
}

func TestRepository_FiltersRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(memory.NewStore())

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC)
	want := []domain.FilterPreset{
		{
			ID:   "f1",
			Name: "March bells",
			Filter: domain.TaskFilter{
				Category:     ptr.To(domain.CategoryWork),
				Completed:    ptr.To(false),
				RepeatType:   ptr.To(domain.RepeatWeekly),
				Sound:        ptr.To(domain.SoundBell),
				ReminderFrom: &from,
				ReminderTo:   &to,
				SortBy:       domain.SortByPriority,
			},
			CreatedAt: from,
		},
		{ID: "f2", Name: "Everything", CreatedAt: from},
	}

	require.NoError(t, repo.SaveFilters(ctx, want))

	got, err := repo.LoadFilters(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRepository_FilterUnknownConditionDropped(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo := NewRepository(store)

	raw, err := encode(KindFilters, []filterRecord{{
		ID:   "f1",
		Name: "old",
		Condition: conditionRecord{
			SoundType: ptr.To("klaxon"),
			Priority:  ptr.To("high"),
			SortBy:    "title",
		},
	}})
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KindFilters, raw))

	got, err := repo.LoadFilters(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Filter.Sound)
	assert.Equal(t, ptr.To(domain.PriorityHigh), got[0].Filter.Priority)
	assert.Empty(t, got[0].Filter.SortBy)
}
