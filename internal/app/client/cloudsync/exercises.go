package cloudsync

import (
	"context"
	"fmt"

	"workoutsync/internal/app/client/remote"
	"workoutsync/internal/domain/workout"
)

// ExerciseSyncer каталог упражнений. Надежного времени изменения у
// упражнений нет, поэтому сравниваются сами значения.
type ExerciseSyncer struct {
	deps
}

// Upload отправляет упражнения, измененные на устройстве
func (s *ExerciseSyncer) Upload(ctx context.Context, _ int64) (Counts, error) {
	list, err := s.local.ListExercises(ctx)
	if err != nil {
		return Counts{}, fmt.Errorf("чтение упражнений: %w", err)
	}

	var c Counts
	for _, e := range list {
		if e.Synced || e.Deleted {
			continue
		}
		if err := ctx.Err(); err != nil {
			return c, err
		}
		if err := s.push(ctx, e); err != nil {
			c.Failed++
			s.log.Warn("Упражнение не отправлено", "name", e.Name, "error", err)
			continue
		}
		e.Synced = true
		if err := s.local.UpdateExercise(ctx, e); err != nil {
			c.Failed++
			s.log.Warn("Не удалось отметить упражнение", "name", e.Name, "error", err)
			continue
		}
		c.Synced++
	}
	return c, nil
}

func (s *ExerciseSyncer) push(ctx context.Context, e workout.Exercise) error {
	row, err := s.identity.Resolve(ctx, e)
	if err != nil {
		return err
	}
	if row.Name == e.Name && sameExercise(row, e) {
		return nil
	}

	row.Name = e.Name
	row.MuscleGroups = e.MuscleGroups
	row.Equipment = e.Equipment
	row.Deleted = false
	row.UpdatedAt = nil
	if err := s.remote.Exercises.Update(ctx, row.ID, row); err != nil {
		return fmt.Errorf("обновление упражнения %d: %w", row.ID, err)
	}
	return nil
}

// Download добавляет упражнения, которых нет на устройстве, и обновляет
// группы мышц и инвентарь у синхронизированных
func (s *ExerciseSyncer) Download(ctx context.Context, _ int64) (int, error) {
	rows, err := s.remote.Exercises.Select(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("чтение упражнений с сервера: %w", err)
	}
	list, err := s.local.ListExercises(ctx)
	if err != nil {
		return 0, fmt.Errorf("чтение упражнений: %w", err)
	}

	byName := make(map[string]workout.Exercise, len(list))
	for _, e := range list {
		if _, ok := byName[workout.ExerciseKey(e)]; !ok {
			byName[workout.ExerciseKey(e)] = e
		}
	}

	applied := 0
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		key := workout.FoldName(r.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		local, ok := byName[key]
		if !ok {
			if r.Deleted {
				continue
			}
			_, err := s.local.AddExercise(ctx, workout.Exercise{
				Name:         r.Name,
				MuscleGroups: r.MuscleGroups,
				Equipment:    r.Equipment,
				Synced:       true,
			})
			if err != nil {
				s.log.Warn("Не удалось добавить упражнение", "name", r.Name, "error", err)
				continue
			}
			applied++
			continue
		}

		// Локальные изменения еще не отправлены
		if !local.Synced || sameExercise(r, local) {
			continue
		}
		local.MuscleGroups = r.MuscleGroups
		local.Equipment = r.Equipment
		local.Deleted = r.Deleted
		if err := s.local.UpdateExercise(ctx, local); err != nil {
			s.log.Warn("Не удалось обновить упражнение", "name", local.Name, "error", err)
			continue
		}
		applied++
	}
	return applied, nil
}

// sameExercise сравнивает сериализованные группы мышц, инвентарь и пометку удаления
func sameExercise(r remote.ExerciseRow, e workout.Exercise) bool {
	return r.MuscleGroups.Equal(e.MuscleGroups) &&
		r.Equipment == e.Equipment &&
		r.Deleted == e.Deleted
}
