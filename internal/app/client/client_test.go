package client

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"workoutsync/internal/app/client/config"
	"workoutsync/internal/app/client/localstore"
	"workoutsync/internal/app/client/remote"
	"workoutsync/internal/domain/table"
	"workoutsync/internal/domain/user"
	"workoutsync/internal/domain/workout"
	"workoutsync/internal/infrastructure/storage"
)

type fakeSession struct {
	token     string
	logoutErr error
	loggedOut bool
}

func (f *fakeSession) HealthCheck(context.Context) error { return nil }

func (f *fakeSession) Register(context.Context, string, string) error { return nil }

func (f *fakeSession) Login(_ context.Context, login, password string) (string, error) {
	if password != "secret123" {
		return "", errors.New("неверный логин или пароль")
	}
	return "token-" + login, nil
}

func (f *fakeSession) Logout(context.Context) error {
	f.loggedOut = true
	return f.logoutErr
}

func (f *fakeSession) SetToken(token string) { f.token = token }

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Env:            "local",
		ServerAddress:  "localhost:8080",
		ConfigDir:      dir,
		DataPath:       filepath.Join(dir, "workouts.db"),
		TokenPath:      filepath.Join(dir, "token"),
		SyncInterval:   time.Minute,
		SyncTimeout:    10 * time.Second,
		RequestTimeout: 5 * time.Second,
	}
}

type fixture struct {
	cfg     *config.Config
	app     *App
	store   *localstore.Memory
	remote  *remote.Store
	session *fakeSession
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := remote.NewMemoryStore(table.NewService(storage.NewMemory(), log), 1)
	store := localstore.NewMemory()
	session := &fakeSession{}
	return &fixture{
		cfg:     cfg,
		app:     newApp(cfg, log, store, backend, session),
		store:   store,
		remote:  remote.NewStore(backend),
		session: session,
	}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	require.NoError(t, f.app.Login(context.Background(), user.Credentials{Login: "athlete", Password: "secret123"}))
}

func TestApp_LoginPersistsToken(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.app.IsAuthenticated())

	err := f.app.Login(context.Background(), user.Credentials{Login: "athlete", Password: "wrong"})
	require.Error(t, err)
	assert.False(t, f.app.IsAuthenticated())

	f.login(t)
	assert.True(t, f.app.IsAuthenticated())
	assert.Equal(t, "token-athlete", f.session.token)

	info, err := os.Stat(f.cfg.TokenPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	session := &fakeSession{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reopened := newApp(f.cfg, log, localstore.NewMemory(), remote.NewMemoryStore(table.NewService(storage.NewMemory(), log), 1), session)
	assert.True(t, reopened.IsAuthenticated())
	assert.Equal(t, "token-athlete", session.token)
}

func TestApp_LogoutIgnoresServerError(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.session.logoutErr = errors.New("сервер недоступен")

	require.NoError(t, f.app.Logout(context.Background()))
	assert.True(t, f.session.loggedOut)
	assert.False(t, f.app.IsAuthenticated())
	assert.Empty(t, f.session.token)

	_, err := os.Stat(f.cfg.TokenPath)
	assert.True(t, os.IsNotExist(err))
}

func TestApp_SyncRequiresLogin(t *testing.T) {
	f := newFixture(t)

	_, err := f.app.Sync(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = f.app.Whoami(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	f.login(t)
	id, err := f.app.Whoami(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestApp_RegisterValidatesCredentials(t *testing.T) {
	f := newFixture(t)

	err := f.app.Register(context.Background(), user.Credentials{Login: "a", Password: "secret123"})
	assert.Error(t, err)

	err = f.app.Register(context.Background(), user.Credentials{Login: "athlete", Password: "secret123"})
	assert.NoError(t, err)
}

func TestApp_ExerciseNamesAreUnique(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.app.AddExercise(ctx, "Bench Press", []string{"Chest", "chest", "Triceps"}, "barbell")
	require.NoError(t, err)

	_, err = f.app.AddExercise(ctx, "  bench press", nil, "")
	assert.ErrorIs(t, err, workout.ErrDuplicateName)

	_, err = f.app.AddExercise(ctx, " ", nil, "")
	assert.ErrorIs(t, err, workout.ErrInvalidData)

	list, err := f.app.ListExercises(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, workout.MuscleGroups{"Chest", "Triceps"}, list[0].MuscleGroups)
}

func TestApp_RenamedExerciseReplacesRemoteRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.login(t)

	e, err := f.app.AddExercise(ctx, "Bench Press", []string{"Chest"}, "barbell")
	require.NoError(t, err)
	_, err = f.app.Sync(ctx)
	require.NoError(t, err)

	name := "Incline Bench Press"
	_, err = f.app.EditExercise(ctx, e.ID, ExerciseChanges{Name: &name})
	require.NoError(t, err)

	pending, err := f.store.ListDeletedItems(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, workout.ExerciseTombstone{LocalID: e.ID, Name: "Bench Press"}, pending[0].Target)

	report, err := f.app.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, report.Success())

	rows, err := f.remote.Exercises.Select(ctx, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, name, rows[0].Name)
}

func TestApp_TemplateAndScheduleDeletionsRecordTombstones(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	e, err := f.app.AddExercise(ctx, "Squat", []string{"Legs"}, "barbell")
	require.NoError(t, err)

	_, err = f.app.CreateTemplate(ctx, "Leg Day", []int64{e.ID, 999}, nil)
	assert.ErrorIs(t, err, workout.ErrNotFound)

	tmpl, err := f.app.CreateTemplate(ctx, "Leg Day", []int64{e.ID}, []workout.TargetSet{{TargetWeight: 100, TargetReps: 5}})
	require.NoError(t, err)
	require.Len(t, tmpl.Exercises, 1)
	assert.NotEmpty(t, tmpl.Exercises[0].InstanceID)

	_, err = f.app.ScheduleWorkout(ctx, tmpl.ID, "2024-13-01", "")
	assert.ErrorIs(t, err, workout.ErrInvalidData)

	sw, err := f.app.ScheduleWorkout(ctx, tmpl.ID, "2024-03-01", "тяжелый день")
	require.NoError(t, err)
	_, err = f.app.ScheduleWorkout(ctx, tmpl.ID, "2024-03-01", "")
	assert.ErrorIs(t, err, workout.ErrDuplicateName)

	require.NoError(t, f.app.DeleteSchedule(ctx, sw.ID))
	require.NoError(t, f.app.DeleteTemplate(ctx, tmpl.ID))

	pending, err := f.store.ListDeletedItems(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, workout.ScheduleTombstone{LocalID: sw.ID, Date: "2024-03-01", TemplateName: "Leg Day"}, pending[0].Target)
	assert.Equal(t, workout.TemplateTombstone{LocalID: tmpl.ID, Name: "Leg Day"}, pending[1].Target)
}

func TestApp_WorkoutLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	e, err := f.app.AddExercise(ctx, "Deadlift", nil, "barbell")
	require.NoError(t, err)

	w, err := f.app.StartWorkout(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, w.Name)

	_, err = f.app.StartWorkout(ctx, "Second")
	assert.ErrorIs(t, err, ErrActiveWorkout)

	rpe := 8.5
	first, err := f.app.LogSet(ctx, w.ID, e.ID, 140, 5, &rpe)
	require.NoError(t, err)
	second, err := f.app.LogSet(ctx, w.ID, e.ID, 150, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.SetNumber)
	assert.Equal(t, 2, second.SetNumber)

	_, err = f.app.LogSet(ctx, w.ID, 999, 10, 10, nil)
	assert.ErrorIs(t, err, workout.ErrNotFound)

	done, err := f.app.FinishWorkout(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, workout.StatusCompleted, done.Status)
	require.NotNil(t, done.EndTime)

	_, err = f.app.LogSet(ctx, w.ID, e.ID, 100, 1, nil)
	assert.ErrorIs(t, err, workout.ErrInvalidData)

	_, err = f.app.StartWorkout(ctx, "Evening")
	assert.NoError(t, err)

	sets, err := f.app.WorkoutSets(ctx, w.ID)
	require.NoError(t, err)
	assert.Len(t, sets, 2)
}

func TestApp_UpdateSettings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	unit := "stone"
	_, err := f.app.UpdateSettings(ctx, SettingsChanges{WeightUnit: &unit})
	assert.ErrorIs(t, err, workout.ErrInvalidData)

	unit = "lb"
	rest := 120
	s, err := f.app.UpdateSettings(ctx, SettingsChanges{WeightUnit: &unit, RestTimerSeconds: &rest})
	require.NoError(t, err)
	assert.Equal(t, "lb", s.WeightUnit)
	assert.Equal(t, 120, s.RestTimerSeconds)
	assert.Equal(t, "monday", s.WeekStart)
	assert.False(t, s.Synced)
	assert.False(t, s.UpdatedAt.IsZero())
}

// brokenStore не сохраняет изменения упражнений и шаблонов
type brokenStore struct {
	*localstore.Memory
}

var errDiskFull = errors.New("disk full")

func (brokenStore) UpdateExercise(context.Context, workout.Exercise) error { return errDiskFull }

func (brokenStore) UpdateTemplate(context.Context, workout.WorkoutTemplate) error { return errDiskFull }

func TestApp_FailedRenameKeepsRemoteRow(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := remote.NewMemoryStore(table.NewService(storage.NewMemory(), log), 1)
	mem := localstore.NewMemory()
	app := newApp(cfg, log, brokenStore{Memory: mem}, backend, &fakeSession{})

	exID, err := mem.AddExercise(ctx, workout.Exercise{Name: "Bench Press", Synced: true})
	require.NoError(t, err)
	tmplID, err := mem.AddTemplate(ctx, workout.WorkoutTemplate{Name: "Push Day", Synced: true})
	require.NoError(t, err)

	name := "Incline Bench Press"
	_, err = app.EditExercise(ctx, exID, ExerciseChanges{Name: &name})
	assert.ErrorIs(t, err, errDiskFull)

	_, err = app.RenameTemplate(ctx, tmplID, "Chest Day")
	assert.ErrorIs(t, err, errDiskFull)

	pending, err := mem.ListDeletedItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	e, err := mem.GetExercise(ctx, exID)
	require.NoError(t, err)
	assert.Equal(t, "Bench Press", e.Name)
}
