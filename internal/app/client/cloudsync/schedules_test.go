package cloudsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workoutsync/internal/domain/workout"
)

var scheduleBase = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func (d *device) schedules(t *testing.T) []workout.ScheduledWorkout {
	t.Helper()
	list, err := d.local.ListSchedules(context.Background())
	require.NoError(t, err)
	return list
}

// editSchedule меняет заметки единственной запланированной тренировки устройства
func (d *device) editSchedule(t *testing.T, notes string, at time.Time) {
	t.Helper()
	list := d.schedules(t)
	require.Len(t, list, 1)
	sw := list[0]
	sw.Notes = notes
	sw.UpdatedAt = at
	sw.Synced = false
	require.NoError(t, d.local.UpdateSchedule(context.Background(), sw))
}

func TestScheduleSyncer_Download(t *testing.T) {
	tests := []struct {
		name       string
		change     func(t *testing.T, a, b *device)
		wantNotes  []string
		wantRemote []string
	}{
		{
			name:       "new remote schedule appears on second device",
			change:     func(*testing.T, *device, *device) {},
			wantNotes:  []string{"base"},
			wantRemote: []string{"base"},
		},
		{
			name: "strictly newer remote overwrites synced copy",
			change: func(t *testing.T, a, _ *device) {
				a.editSchedule(t, "heavy", scheduleBase.Add(time.Hour))
				a.run(t)
			},
			wantNotes:  []string{"heavy"},
			wantRemote: []string{"heavy"},
		},
		{
			name: "stale local edit loses to newer remote",
			change: func(t *testing.T, a, b *device) {
				a.editSchedule(t, "heavy", scheduleBase.Add(2*time.Hour))
				a.run(t)
				b.editSchedule(t, "light", scheduleBase.Add(time.Hour))
			},
			wantNotes:  []string{"heavy"},
			wantRemote: []string{"heavy"},
		},
		{
			name: "newer local edit replaces remote",
			change: func(t *testing.T, a, b *device) {
				a.editSchedule(t, "heavy", scheduleBase.Add(time.Hour))
				a.run(t)
				b.editSchedule(t, "light", scheduleBase.Add(2*time.Hour))
			},
			wantNotes:  []string{"light"},
			wantRemote: []string{"light"},
		},
		{
			name: "remote deletion removes synced copy",
			change: func(t *testing.T, a, _ *device) {
				ctx := context.Background()
				sw := a.schedules(t)[0]
				require.NoError(t, a.local.DeleteSchedule(ctx, sw.ID))
				require.NoError(t, a.sync.Tombstones().RecordDeletion(ctx, workout.ScheduleTombstone{
					LocalID: sw.ID, Date: sw.Date, TemplateName: sw.TemplateName,
				}))

				report := a.run(t)
				phase, _ := report.Phase(PhaseTombstones)
				assert.Equal(t, 1, phase.Synced)

				pending, err := a.local.ListDeletedItems(ctx)
				require.NoError(t, err)
				assert.Empty(t, pending)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cloud := newCloud()
			a, b := newDevice(t, cloud), newDevice(t, cloud)

			bench := a.addExercise(t, "Bench Press", "Chest")
			_, err := a.local.AddSchedule(ctx, workout.ScheduledWorkout{
				TemplateName: "Push Day",
				Date:         "2024-03-04",
				Notes:        "base",
				Exercises:    []workout.TemplateExercise{workout.NewTemplateExercise(bench, nil)},
				UpdatedAt:    scheduleBase,
			})
			require.NoError(t, err)
			a.run(t)
			b.run(t)

			tt.change(t, a, b)
			b.run(t)

			var notes []string
			for _, sw := range b.schedules(t) {
				notes = append(notes, sw.Notes)
				assert.True(t, sw.Synced)
				assert.Equal(t, "2024-03-04", sw.Date)
			}
			assert.Equal(t, tt.wantNotes, notes)

			rows, err := b.remote.Schedules.Select(ctx, nil)
			require.NoError(t, err)
			var remoteNotes []string
			for _, r := range rows {
				remoteNotes = append(remoteNotes, r.Notes)
			}
			assert.Equal(t, tt.wantRemote, remoteNotes)
		})
	}
}

func TestScheduleSyncer_ExerciseReferencesFollowNames(t *testing.T) {
	ctx := context.Background()
	cloud := newCloud()
	a, b := newDevice(t, cloud), newDevice(t, cloud)

	b.addExercise(t, "Squat", "Legs")
	bench := a.addExercise(t, "Bench Press", "Chest")
	_, err := a.local.AddSchedule(ctx, workout.ScheduledWorkout{
		TemplateName: "Push Day",
		Date:         "2024-03-04",
		Exercises:    []workout.TemplateExercise{workout.NewTemplateExercise(bench, nil)},
		UpdatedAt:    scheduleBase,
	})
	require.NoError(t, err)

	a.run(t)
	b.run(t)

	benchOnB := ""
	for _, e := range b.exercises(t) {
		if e.Name == "Bench Press" {
			benchOnB = workout.FormatID(e.ID)
		}
	}
	require.NotEmpty(t, benchOnB)

	list := b.schedules(t)
	require.Len(t, list, 1)
	require.Len(t, list[0].Exercises, 1)
	assert.Equal(t, benchOnB, list[0].Exercises[0].ExerciseID)
}
