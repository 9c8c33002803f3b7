package cloudsync

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"workoutsync/internal/app/client/localstore"
	"workoutsync/internal/app/client/remote"
	"workoutsync/internal/domain/table"
	"workoutsync/internal/domain/workout"
	"workoutsync/internal/infrastructure/storage"
)

const testUserID = 1

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// device локальное хранилище и синхронизация одного устройства
type device struct {
	local  *localstore.Memory
	remote *remote.Store
	sync   *Service
}

func newCloud() *table.Service {
	return table.NewService(storage.NewMemory(), discardLogger())
}

func newDevice(t *testing.T, cloud table.Servicer) *device {
	t.Helper()
	return newDeviceWith(t, remote.NewMemoryStore(cloud, testUserID))
}

func newDeviceWith(t *testing.T, backend remote.Backend) *device {
	t.Helper()
	local := localstore.NewMemory()
	r := remote.NewStore(backend)
	return &device{
		local:  local,
		remote: r,
		sync:   NewService(local, r, Config{Timeout: 10 * time.Second}, discardLogger()),
	}
}

func (d *device) run(t *testing.T) *Report {
	t.Helper()
	report, err := d.sync.FullCloudSync(context.Background())
	require.NoError(t, err)
	for _, p := range report.Phases {
		require.Empty(t, p.Error, "phase %s", p.Name)
	}
	return report
}

func (d *device) addExercise(t *testing.T, name string, groups ...string) int64 {
	t.Helper()
	id, err := d.local.AddExercise(context.Background(), workout.Exercise{
		Name:         name,
		MuscleGroups: groups,
		Equipment:    "barbell",
	})
	require.NoError(t, err)
	return id
}

func (d *device) addTemplate(t *testing.T, name string, exerciseIDs ...int64) int64 {
	t.Helper()
	tmpl := workout.WorkoutTemplate{Name: name, CreatedAt: time.Now().UTC()}
	for _, id := range exerciseIDs {
		tmpl.Exercises = append(tmpl.Exercises,
			workout.NewTemplateExercise(id, []workout.TargetSet{{TargetWeight: 60, TargetReps: 8}}))
	}
	tmpl.Touch(time.Now().UTC())
	id, err := d.local.AddTemplate(context.Background(), tmpl)
	require.NoError(t, err)
	return id
}

func (d *device) templates(t *testing.T) []workout.WorkoutTemplate {
	t.Helper()
	list, err := d.local.ListTemplates(context.Background())
	require.NoError(t, err)
	return list
}

func (d *device) exercises(t *testing.T) []workout.Exercise {
	t.Helper()
	list, err := d.local.ListExercises(context.Background())
	require.NoError(t, err)
	return list
}

func names(list []workout.Exercise) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.Name)
	}
	return out
}

func TestFullCloudSync_PhaseOrder(t *testing.T) {
	d := newDevice(t, newCloud())
	report := d.run(t)

	var got []string
	for _, p := range report.Phases {
		got = append(got, p.Name)
	}
	assert.Equal(t, []string{
		PhaseTombstones, PhaseSettings, PhaseExercises, PhaseTemplates,
		PhaseSchedules, PhaseHistory, PhaseLocalDedup,
	}, got)
	assert.True(t, report.Success())
}

func TestFullCloudSync_SecondRunIsNoop(t *testing.T) {
	ctx := context.Background()
	d := newDevice(t, newCloud())

	bench := d.addExercise(t, "Bench Press", "Chest", "Triceps")
	d.addTemplate(t, "Push Day", bench)
	_, err := d.local.AddSchedule(ctx, workout.ScheduledWorkout{
		TemplateName: "Push Day",
		Date:         "2024-03-01",
		Exercises:    []workout.TemplateExercise{workout.NewTemplateExercise(bench, nil)},
		UpdatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)

	start := time.Now().Add(-time.Hour).UTC()
	end := start.Add(45 * time.Minute)
	wID, err := d.local.AddWorkout(ctx, workout.Workout{Name: "Morning", StartTime: start, EndTime: &end, Status: workout.StatusCompleted})
	require.NoError(t, err)
	_, err = d.local.AddSet(ctx, workout.WorkoutSet{
		WorkoutID:  workout.FormatID(wID),
		ExerciseID: workout.FormatID(bench),
		SetNumber:  1,
		Weight:     80,
		Reps:       5,
		Completed:  true,
		Timestamp:  start.Add(time.Minute),
	})
	require.NoError(t, err)

	first := d.run(t)
	totals := first.Totals()
	assert.Greater(t, totals.Synced, 0)

	second := d.run(t)
	for _, p := range second.Phases {
		assert.Zero(t, p.Synced, "phase %s", p.Name)
		assert.Zero(t, p.Downloaded, "phase %s", p.Name)
		assert.Zero(t, p.Failed, "phase %s", p.Name)
	}

	sets, err := d.remote.Sets.Select(ctx, nil)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	require.NotNil(t, sets[0].ExerciseID)
}

func TestFullCloudSync_CollapsesRemoteTemplateDuplicates(t *testing.T) {
	ctx := context.Background()
	cloud := newCloud()
	d := newDevice(t, cloud)

	for i := 0; i < 2; i++ {
		_, err := d.remote.Templates.Insert(ctx, remote.TemplateRow{Name: "Push Day"})
		require.NoError(t, err)
	}
	d.addTemplate(t, "push day")

	d.run(t)

	rows, err := d.remote.Templates.Select(ctx, table.Where(table.IEq("name", "Push Day")))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Len(t, d.templates(t), 1)
}

func TestFullCloudSync_TwoDevicesConvergeOnOneTemplate(t *testing.T) {
	cloud := newCloud()
	a, b := newDevice(t, cloud), newDevice(t, cloud)

	a.addTemplate(t, "Push Day")
	b.addTemplate(t, "Push Day")

	a.run(t)
	b.run(t)
	a.run(t)

	rows, err := a.remote.Templates.Select(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Len(t, a.templates(t), 1)
	assert.Len(t, b.templates(t), 1)
}

func TestFullCloudSync_TemplateDeletionPropagates(t *testing.T) {
	ctx := context.Background()
	cloud := newCloud()
	a, b := newDevice(t, cloud), newDevice(t, cloud)

	id := a.addTemplate(t, "Push Day")
	a.run(t)
	b.run(t)
	require.Len(t, b.templates(t), 1)

	require.NoError(t, a.local.DeleteTemplate(ctx, id))
	require.NoError(t, a.sync.Tombstones().RecordDeletion(ctx, workout.TemplateTombstone{LocalID: id, Name: "Push Day"}))

	report := a.run(t)
	phase, ok := report.Phase(PhaseTombstones)
	require.True(t, ok)
	assert.Equal(t, 1, phase.Synced)

	pending, err := a.local.ListDeletedItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	b.run(t)
	assert.Empty(t, b.templates(t))
	assert.Empty(t, a.templates(t))
}

func TestFullCloudSync_TemplateReferencesFollowNames(t *testing.T) {
	cloud := newCloud()
	a, b := newDevice(t, cloud), newDevice(t, cloud)

	bench := a.addExercise(t, "Bench Press", "Chest")
	a.addTemplate(t, "Push Day", bench)

	b.addExercise(t, "Squat", "Legs")
	benchOnB := b.addExercise(t, "Bench Press", "Chest")
	require.NotEqual(t, bench, benchOnB)

	a.run(t)
	b.run(t)

	list := b.templates(t)
	require.Len(t, list, 1)
	require.Len(t, list[0].Exercises, 1)
	assert.Equal(t, workout.FormatID(benchOnB), list[0].Exercises[0].ExerciseID)
}

func TestFullCloudSync_ExercisesWithCollidingLocalIDs(t *testing.T) {
	ctx := context.Background()
	cloud := newCloud()
	a, b := newDevice(t, cloud), newDevice(t, cloud)

	a.addExercise(t, "Bench Press", "Chest")
	b.addExercise(t, "Squat", "Legs")
	b.addExercise(t, "Bench Press", "Chest")

	a.run(t)
	b.run(t)
	a.run(t)

	rows, err := a.remote.Exercises.Select(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	assert.ElementsMatch(t, []string{"Bench Press", "Squat"}, names(a.exercises(t)))
	assert.ElementsMatch(t, []string{"Squat", "Bench Press"}, names(b.exercises(t)))
}

func TestFullCloudSync_ReferencedExerciseIsSoftDeleted(t *testing.T) {
	ctx := context.Background()
	d := newDevice(t, newCloud())

	bench := d.addExercise(t, "Bench Press", "Chest")
	start := time.Now().Add(-time.Hour).UTC()
	wID, err := d.local.AddWorkout(ctx, workout.Workout{Name: "Morning", StartTime: start, Status: workout.StatusCompleted})
	require.NoError(t, err)
	_, err = d.local.AddSet(ctx, workout.WorkoutSet{
		WorkoutID: workout.FormatID(wID), ExerciseID: workout.FormatID(bench), SetNumber: 1, Reps: 5, Timestamp: start,
	})
	require.NoError(t, err)
	d.run(t)

	require.NoError(t, d.local.DeleteExercise(ctx, bench))
	require.NoError(t, d.sync.Tombstones().RecordDeletion(ctx, workout.ExerciseTombstone{LocalID: bench, Name: "Bench Press"}))
	d.run(t)

	rows, err := d.remote.Exercises.Select(ctx, table.Where(table.IEq("name", "bench press")))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Deleted)

	pending, err := d.local.ListDeletedItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Empty(t, d.exercises(t))
}

func TestFullCloudSync_MissingExerciseTombstoneCompletes(t *testing.T) {
	ctx := context.Background()
	d := newDevice(t, newCloud())

	require.NoError(t, d.sync.Tombstones().RecordDeletion(ctx, workout.ExerciseTombstone{LocalID: 42, Name: "Ghost"}))
	d.run(t)

	pending, err := d.local.ListDeletedItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestFullCloudSync_SettingsLastWriterWins(t *testing.T) {
	ctx := context.Background()
	cloud := newCloud()
	a, b := newDevice(t, cloud), newDevice(t, cloud)

	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, a.local.SaveSettings(ctx, workout.Settings{WeightUnit: "kg", RestTimerSeconds: 90, WeekStart: "monday", UpdatedAt: t1}))
	a.run(t)

	// Локальная копия старше серверной
	require.NoError(t, b.local.SaveSettings(ctx, workout.Settings{WeightUnit: "lb", RestTimerSeconds: 60, WeekStart: "sunday", UpdatedAt: t1.Add(-time.Hour)}))
	b.run(t)
	got, err := b.local.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "kg", got.WeightUnit)
	assert.True(t, got.UpdatedAt.Equal(t1))

	// При равном времени побеждает локальная копия
	require.NoError(t, b.local.SaveSettings(ctx, workout.Settings{WeightUnit: "lb", RestTimerSeconds: 60, WeekStart: "sunday", UpdatedAt: t1}))
	b.run(t)
	got, err = b.local.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "lb", got.WeightUnit)

	rows, err := b.remote.Settings.Select(ctx, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "lb", rows[0].Settings.WeightUnit)
}

func TestFullCloudSync_NewerRemoteTemplateWins(t *testing.T) {
	ctx := context.Background()
	cloud := newCloud()
	a, b := newDevice(t, cloud), newDevice(t, cloud)

	bench := a.addExercise(t, "Bench Press")
	id := a.addTemplate(t, "Push Day")
	a.run(t)
	b.run(t)

	tmpl, err := a.local.GetTemplate(ctx, id)
	require.NoError(t, err)
	tmpl.Exercises = []workout.TemplateExercise{workout.NewTemplateExercise(bench, nil)}
	tmpl.Touch(time.Now().UTC().Add(time.Minute))
	require.NoError(t, a.local.UpdateTemplate(ctx, tmpl))
	a.run(t)

	b.run(t)
	list := b.templates(t)
	require.Len(t, list, 1)
	require.Len(t, list[0].Exercises, 1)
	assert.True(t, list[0].Synced)
}

func TestFullCloudSync_HistorySetWithoutLocalExercise(t *testing.T) {
	ctx := context.Background()
	d := newDevice(t, newCloud())

	start := time.Now().Add(-time.Hour).UTC()
	wID, err := d.local.AddWorkout(ctx, workout.Workout{Name: "Evening", StartTime: start, Status: workout.StatusCompleted})
	require.NoError(t, err)
	_, err = d.local.AddSet(ctx, workout.WorkoutSet{WorkoutID: workout.FormatID(wID), ExerciseID: "999", SetNumber: 1, Timestamp: start})
	require.NoError(t, err)
	_, err = d.local.AddWorkout(ctx, workout.Workout{Name: "Active", StartTime: start, Status: workout.StatusActive})
	require.NoError(t, err)

	report := d.run(t)
	phase, _ := report.Phase(PhaseHistory)
	assert.Equal(t, 1, phase.Synced)

	sets, err := d.remote.Sets.Select(ctx, nil)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Nil(t, sets[0].ExerciseID)

	w, err := d.local.GetWorkout(ctx, wID)
	require.NoError(t, err)
	assert.True(t, w.Synced)
}

func TestDeduplicator_RepointsReferences(t *testing.T) {
	ctx := context.Background()
	d := newDevice(t, newCloud())

	first := d.addExercise(t, "Bench Press")
	second := d.addExercise(t, "bench press ")
	setID, err := d.local.AddSet(ctx, workout.WorkoutSet{WorkoutID: "1", ExerciseID: workout.FormatID(second), SetNumber: 1})
	require.NoError(t, err)
	d.addTemplate(t, "Push Day", second)
	d.addTemplate(t, "push day")

	c, err := d.sync.Dedup.Run(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Synced)

	list := d.exercises(t)
	require.Len(t, list, 1)
	assert.Equal(t, first, list[0].ID)

	sets, err := d.local.SetsByExercise(ctx, workout.FormatID(first))
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, setID, sets[0].ID)

	templates := d.templates(t)
	require.Len(t, templates, 1)
	assert.Equal(t, workout.FormatID(first), templates[0].Exercises[0].ExerciseID)
}

func TestFullCloudSync_RejectsConcurrentRun(t *testing.T) {
	d := newDevice(t, newCloud())

	d.sync.mu.Lock()
	d.sync.isSyncing = true
	d.sync.mu.Unlock()

	_, err := d.sync.FullCloudSync(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)
	assert.True(t, d.sync.IsSyncing())
}

func TestFullCloudSync_CancelledContextFailsPhases(t *testing.T) {
	d := newDevice(t, newCloud())
	d.addTemplate(t, "Push Day")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := d.sync.FullCloudSync(ctx)
	require.NoError(t, err)
	require.Len(t, report.Phases, 7)
	for _, p := range report.Phases {
		assert.NotEmpty(t, p.Error, "phase %s", p.Name)
	}
	assert.False(t, report.Success())
	assert.False(t, d.sync.IsSyncing())
}

func TestService_StatsPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync_stats.json")
	cloud := newCloud()
	local := localstore.NewMemory()
	r := remote.NewStore(remote.NewMemoryStore(cloud, testUserID))

	s := NewService(local, r, Config{StatsPath: path}, discardLogger())
	_, err := s.FullCloudSync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, s.GetStats().TotalSyncs)
	assert.False(t, s.GetLastSyncTime().IsZero())

	reopened := NewService(local, r, Config{StatsPath: path}, discardLogger())
	stats := reopened.GetStats()
	assert.Equal(t, 1, stats.TotalSyncs)
	require.NotNil(t, stats.LastReport)
	assert.Len(t, stats.LastReport.Phases, 7)

	reopened.ResetStats()
	assert.Zero(t, reopened.GetStats().TotalSyncs)
	assert.Zero(t, NewService(local, r, Config{StatsPath: path}, discardLogger()).GetStats().TotalSyncs)
}
