package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workoutsync/internal/app/client/localstore"
	"workoutsync/internal/app/client/remote"
	"workoutsync/internal/domain/workout"
)

// HistorySyncer отправляет завершенные тренировки. История с сервера в
// ходе синхронизации не загружается.
type HistorySyncer struct {
	deps
}

func (s *HistorySyncer) Upload(ctx context.Context, _ int64) (Counts, error) {
	list, err := s.local.WorkoutsByStatus(ctx, workout.StatusCompleted)
	if err != nil {
		return Counts{}, fmt.Errorf("чтение тренировок: %w", err)
	}

	var c Counts
	for _, w := range list {
		if w.Synced {
			continue
		}
		if err := ctx.Err(); err != nil {
			return c, err
		}
		if err := s.push(ctx, w); err != nil {
			c.Failed++
			s.log.Warn("Тренировка не отправлена", "workout_id", w.ID, "name", w.Name, "error", err)
			continue
		}
		w.Synced = true
		if err := s.local.UpdateWorkout(ctx, w); err != nil {
			c.Failed++
			s.log.Warn("Не удалось отметить тренировку", "workout_id", w.ID, "error", err)
			continue
		}
		c.Synced++
	}
	return c, nil
}

// push тренировка ищется по тегу local_id и времени начала, подходы по
// (workout_id, local_id). Ошибка любого подхода оставляет тренировку
// неотправленной до следующего запуска.
func (s *HistorySyncer) push(ctx context.Context, w workout.Workout) error {
	row, err := s.remote.Workouts.Upsert(ctx, remote.WorkoutRow{
		LocalID:   remote.LocalTag(w.ID),
		Name:      w.Name,
		StartTime: w.StartTime.Truncate(stampPrecision),
		EndTime:   truncated(w.EndTime),
		Status:    string(w.Status),
	}, "local_id", "start_time")
	if err != nil {
		return fmt.Errorf("отправка тренировки: %w", err)
	}

	sets, err := s.local.SetsByWorkout(ctx, workout.FormatID(w.ID))
	if err != nil {
		return fmt.Errorf("чтение подходов: %w", err)
	}

	var errs []error
	for _, set := range sets {
		exerciseID, err := s.exerciseRef(ctx, set.ExerciseID)
		if err != nil {
			errs = append(errs, fmt.Errorf("подход %d: %w", set.ID, err))
			continue
		}
		_, err = s.remote.Sets.Upsert(ctx, remote.SetRow{
			WorkoutID:  row.ID,
			ExerciseID: exerciseID,
			LocalID:    remote.LocalTag(set.ID),
			SetNumber:  set.SetNumber,
			Weight:     set.Weight,
			Reps:       set.Reps,
			RPE:        set.RPE,
			Completed:  set.Completed,
			Timestamp:  set.Timestamp,
		}, "workout_id", "local_id")
		if err != nil {
			errs = append(errs, fmt.Errorf("подход %d: %w", set.ID, err))
		}
	}
	return errors.Join(errs...)
}

// exerciseRef серверный id упражнения подхода. Упражнение, удаленное на
// устройстве, отправляется без ссылки.
func (s *HistorySyncer) exerciseRef(ctx context.Context, ref string) (*int64, error) {
	localID, ok := workout.ParseID(ref)
	if !ok {
		return nil, nil
	}
	e, err := s.local.GetExercise(ctx, localID)
	if errors.Is(err, localstore.ErrNotFound) {
		s.log.Debug("Упражнение подхода отсутствует на устройстве", "exercise_id", ref)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	id, err := s.identity.ResolveExerciseID(ctx, e)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func truncated(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.Truncate(stampPrecision)
	return &v
}
