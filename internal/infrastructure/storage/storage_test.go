package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"workoutsync/internal/domain/table"
)

func newService() *table.Service {
	return table.NewService(NewMemory(), slog.Default())
}

func TestMemory_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	_, err := svc.Insert(ctx, 1, table.Templates, table.Row{"name": "Push Day", "exercises": []any{}})
	require.NoError(t, err)
	_, err = svc.Insert(ctx, 2, table.Templates, table.Row{"name": "Push Day", "exercises": []any{}})
	require.NoError(t, err)

	rows, err := svc.Select(ctx, 1, table.Templates, table.Where(table.IEq("name", "push day")))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0][table.OwnerColumn])

	n, err := svc.Delete(ctx, 1, table.Templates, table.Where(table.IEq("name", "PUSH DAY")))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err = svc.Select(ctx, 2, table.Templates, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestMemory_UpsertUpdatesFirstMatch(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	first, err := svc.Insert(ctx, 1, table.Templates, table.Row{"name": "Legs"})
	require.NoError(t, err)
	_, err = svc.Insert(ctx, 1, table.Templates, table.Row{"name": "legs"})
	require.NoError(t, err)

	row, err := svc.Upsert(ctx, 1, table.Templates, table.Row{"name": "LEGS", "local_id": 7}, []string{"name"})
	require.NoError(t, err)
	assert.Equal(t, first["id"], row["id"])
	assert.Equal(t, int64(7), row["local_id"])

	_, err = svc.Upsert(ctx, 1, table.UserSettings, table.Row{"settings": map[string]any{"weightUnit": "kg"}}, []string{table.OwnerColumn})
	require.NoError(t, err)
	settings, err := svc.Upsert(ctx, 1, table.UserSettings, table.Row{"settings": map[string]any{"weightUnit": "lb"}}, []string{table.OwnerColumn})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"weightUnit": "lb"}, settings["settings"])

	rows, err := svc.Select(ctx, 1, table.UserSettings, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestMemory_ReferencedExerciseCannotBeDeleted(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	ex, err := svc.Insert(ctx, 1, table.Exercises, table.Row{"name": "Bench Press", "local_id": 1})
	require.NoError(t, err)
	w, err := svc.Insert(ctx, 1, table.Workouts, table.Row{"name": "Morning", "local_id": 1, "status": "completed"})
	require.NoError(t, err)
	_, err = svc.Insert(ctx, 1, table.WorkoutSets, table.Row{"workout_id": w["id"], "exercise_id": ex["id"], "local_id": 1})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, 1, table.Exercises, table.Where(table.Eq("id", ex["id"])))
	assert.ErrorIs(t, err, table.ErrReferenced)

	require.NoError(t, svc.Update(ctx, 1, table.Exercises, ex["id"], table.Row{"deleted": true}))

	_, err = svc.Delete(ctx, 1, table.Workouts, table.Where(table.Eq("id", w["id"])))
	require.NoError(t, err)
	sets, err := svc.Select(ctx, 1, table.WorkoutSets, nil)
	require.NoError(t, err)
	assert.Empty(t, sets)

	n, err := svc.Delete(ctx, 1, table.Exercises, table.Where(table.Eq("id", ex["id"])))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemory_InsertWithUnknownReference(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	_, err := svc.Insert(ctx, 1, table.WorkoutSets, table.Row{"workout_id": 42, "local_id": 1})
	assert.ErrorIs(t, err, table.ErrReferenced)
}
