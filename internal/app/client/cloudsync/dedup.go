package cloudsync

import (
	"context"
	"fmt"

	"workoutsync/internal/domain/workout"
)

// Deduplicator схлопывает локальные записи с одинаковым естественным
// ключом, оставляя первую
type Deduplicator struct {
	deps
}

func (d *Deduplicator) Run(ctx context.Context, _ int64) (Counts, error) {
	var c Counts

	remap, err := d.exercises(ctx, &c)
	if err != nil {
		return c, err
	}
	if err := d.templates(ctx, remap, &c); err != nil {
		return c, err
	}
	if err := d.schedules(ctx, remap, &c); err != nil {
		return c, err
	}
	return c, nil
}

// exercises удаляет упражнения с повторяющимся именем. Подходы переводятся
// на оставшееся упражнение, возвращается отображение старых id на новые.
func (d *Deduplicator) exercises(ctx context.Context, c *Counts) (map[string]string, error) {
	list, err := d.local.ListExercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("чтение упражнений: %w", err)
	}

	remap := make(map[string]string)
	kept := make(map[string]workout.Exercise, len(list))
	for _, e := range list {
		first, ok := kept[workout.ExerciseKey(e)]
		if !ok {
			kept[workout.ExerciseKey(e)] = e
			continue
		}

		from, to := workout.FormatID(e.ID), workout.FormatID(first.ID)
		if err := d.repointSets(ctx, from, to); err != nil {
			c.Failed++
			d.log.Warn("Не удалось перенести подходы упражнения", "from", from, "to", to, "error", err)
			continue
		}
		if err := d.local.DeleteExercise(ctx, e.ID); err != nil {
			c.Failed++
			d.log.Warn("Не удалось удалить дубликат упражнения", "name", e.Name, "error", err)
			continue
		}
		remap[from] = to
		c.Synced++
	}
	return remap, nil
}

func (d *Deduplicator) repointSets(ctx context.Context, from, to string) error {
	sets, err := d.local.SetsByExercise(ctx, from)
	if err != nil {
		return err
	}
	for _, s := range sets {
		s.ExerciseID = to
		if err := d.local.UpdateSet(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// repoint заменяет ссылки на удаленные дубликаты упражнений
func repoint(list []workout.TemplateExercise, remap map[string]string) bool {
	changed := false
	for i := range list {
		if to, ok := remap[list[i].ExerciseID]; ok {
			list[i].ExerciseID = to
			changed = true
		}
	}
	return changed
}

func (d *Deduplicator) templates(ctx context.Context, remap map[string]string, c *Counts) error {
	list, err := d.local.ListTemplates(ctx)
	if err != nil {
		return fmt.Errorf("чтение шаблонов: %w", err)
	}

	seen := make(map[string]struct{}, len(list))
	for _, t := range list {
		key := workout.TemplateKey(t)
		if _, dup := seen[key]; dup {
			if err := d.local.DeleteTemplate(ctx, t.ID); err != nil {
				c.Failed++
				d.log.Warn("Не удалось удалить дубликат шаблона", "name", t.Name, "error", err)
				continue
			}
			c.Synced++
			continue
		}
		seen[key] = struct{}{}

		if repoint(t.Exercises, remap) {
			if err := d.local.UpdateTemplate(ctx, t); err != nil {
				c.Failed++
				d.log.Warn("Не удалось обновить шаблон", "name", t.Name, "error", err)
			}
		}
	}
	return nil
}

func (d *Deduplicator) schedules(ctx context.Context, remap map[string]string, c *Counts) error {
	list, err := d.local.ListSchedules(ctx)
	if err != nil {
		return fmt.Errorf("чтение расписания: %w", err)
	}

	seen := make(map[string]struct{}, len(list))
	for _, sw := range list {
		key := workout.ScheduleKey(sw.Date, sw.TemplateName)
		if _, dup := seen[key]; dup {
			if err := d.local.DeleteSchedule(ctx, sw.ID); err != nil {
				c.Failed++
				d.log.Warn("Не удалось удалить дубликат расписания", "date", sw.Date, "error", err)
				continue
			}
			c.Synced++
			continue
		}
		seen[key] = struct{}{}

		if repoint(sw.Exercises, remap) {
			if err := d.local.UpdateSchedule(ctx, sw); err != nil {
				c.Failed++
				d.log.Warn("Не удалось обновить запланированную тренировку", "date", sw.Date, "error", err)
			}
		}
	}
	return nil
}
