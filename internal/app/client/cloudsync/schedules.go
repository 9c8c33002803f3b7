package cloudsync

import (
	"context"
	"fmt"

	"workoutsync/internal/app/client/remote"
	"workoutsync/internal/domain/table"
	"workoutsync/internal/domain/workout"
)

// ScheduleSyncer запланированные тренировки, естественный ключ
// (пользователь, дата, имя шаблона)
type ScheduleSyncer struct {
	deps
}

func (s *ScheduleSyncer) Upload(ctx context.Context, userID int64) (Counts, error) {
	list, err := s.local.ListSchedules(ctx)
	if err != nil {
		return Counts{}, fmt.Errorf("чтение расписания: %w", err)
	}

	var c Counts
	for _, sw := range list {
		if err := ctx.Err(); err != nil {
			return c, err
		}
		changed, err := s.push(ctx, userID, sw)
		if err != nil {
			c.Failed++
			s.log.Warn("Запланированная тренировка не отправлена",
				"date", sw.Date, "template", sw.TemplateName, "error", err)
			continue
		}
		if changed {
			c.Synced++
		}
	}
	return c, nil
}

func (s *ScheduleSyncer) push(ctx context.Context, userID int64, sw workout.ScheduledWorkout) (bool, error) {
	rows, err := s.remote.Schedules.Select(ctx, table.Where(
		table.Eq(table.OwnerColumn, userID),
		table.Eq("date", sw.Date),
		table.IEq("template_name", sw.TemplateName),
	))
	if err != nil {
		return false, err
	}
	if len(rows) == 0 && sw.Synced {
		return false, nil
	}

	removed, err := collapse(ctx, s.remote.Schedules, rows)
	if err != nil {
		return removed > 0, err
	}

	cloud, err := s.names.ToCloudForm(ctx, sw.Exercises)
	if err != nil {
		return removed > 0, err
	}

	row := remote.ScheduleRow{
		LocalID:      remote.LocalTag(sw.ID),
		TemplateName: sw.TemplateName,
		Date:         sw.Date,
		Notes:        sw.Notes,
		Exercises:    cloud,
		Completed:    sw.Completed,
	}
	// Без отметки времени любая серверная версия считается новее
	if !sw.UpdatedAt.IsZero() {
		row.UpdatedAt = &sw.UpdatedAt
	}
	if sw.TemplateID != 0 {
		row.TemplateID = remote.LocalTag(sw.TemplateID)
	}

	changed := removed > 0
	switch {
	case len(rows) == 0:
		if _, err := s.remote.Schedules.Insert(ctx, row); err != nil {
			return changed, err
		}
		changed = true
	case newer(firstStamp(rows[0].UpdatedAt), sw.UpdatedAt):
		return changed, nil
	case !sw.Synced || !sameSchedule(rows[0], row):
		if err := s.remote.Schedules.Update(ctx, rows[0].ID, row); err != nil {
			return changed, err
		}
		changed = true
	}

	if !sw.Synced {
		sw.Synced = true
		if err := s.local.UpdateSchedule(ctx, sw); err != nil {
			return changed, err
		}
	}
	return changed, nil
}

func (s *ScheduleSyncer) Download(ctx context.Context, userID int64) (int, error) {
	rows, err := s.remote.Schedules.Select(ctx, table.Where(table.Eq(table.OwnerColumn, userID)))
	if err != nil {
		return 0, fmt.Errorf("чтение расписания с сервера: %w", err)
	}
	list, err := s.local.ListSchedules(ctx)
	if err != nil {
		return 0, fmt.Errorf("чтение расписания: %w", err)
	}
	templates, err := s.local.ListTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("чтение шаблонов: %w", err)
	}

	templateIDs := make(map[string]int64, len(templates))
	for _, t := range templates {
		if _, ok := templateIDs[workout.TemplateKey(t)]; !ok {
			templateIDs[workout.TemplateKey(t)] = t.ID
		}
	}

	byKey := make(map[string]workout.ScheduledWorkout, len(list))
	for _, sw := range list {
		key := workout.ScheduleKey(sw.Date, sw.TemplateName)
		if _, ok := byKey[key]; !ok {
			byKey[key] = sw
		}
	}

	applied := 0
	remoteKeys := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		key := workout.ScheduleKey(r.Date, r.TemplateName)
		if _, dup := remoteKeys[key]; dup {
			continue
		}
		remoteKeys[key] = struct{}{}

		exercises, err := s.names.FromCloudForm(ctx, r.Exercises)
		if err != nil {
			return applied, err
		}
		stamp := firstStamp(r.UpdatedAt)

		local, ok := byKey[key]
		if !ok {
			_, err := s.local.AddSchedule(ctx, workout.ScheduledWorkout{
				TemplateID:   templateIDs[workout.FoldName(r.TemplateName)],
				TemplateName: r.TemplateName,
				Date:         r.Date,
				Notes:        r.Notes,
				Exercises:    exercises,
				Completed:    r.Completed,
				UpdatedAt:    stamp,
				Synced:       true,
			})
			if err != nil {
				s.log.Warn("Не удалось добавить запланированную тренировку", "date", r.Date, "error", err)
				continue
			}
			applied++
			continue
		}

		if !newer(stamp, local.UpdatedAt) {
			continue
		}
		local.TemplateName = r.TemplateName
		if id, ok := templateIDs[workout.FoldName(r.TemplateName)]; ok {
			local.TemplateID = id
		}
		local.Notes = r.Notes
		local.Exercises = exercises
		local.Completed = r.Completed
		local.UpdatedAt = stamp
		local.Synced = true
		if err := s.local.UpdateSchedule(ctx, local); err != nil {
			s.log.Warn("Не удалось обновить запланированную тренировку", "date", local.Date, "error", err)
			continue
		}
		applied++
	}

	for _, sw := range list {
		if _, ok := remoteKeys[workout.ScheduleKey(sw.Date, sw.TemplateName)]; ok || !sw.Synced {
			continue
		}
		if err := s.local.DeleteSchedule(ctx, sw.ID); err != nil {
			s.log.Warn("Не удалось удалить запланированную тренировку", "date", sw.Date, "error", err)
			continue
		}
		s.log.Info("Запланированная тренировка удалена на другом устройстве", "date", sw.Date, "template", sw.TemplateName)
		applied++
	}
	return applied, nil
}

func sameSchedule(current, next remote.ScheduleRow) bool {
	return current.TemplateName == next.TemplateName &&
		current.Notes == next.Notes &&
		current.Completed == next.Completed &&
		sameJSON(current.Exercises, next.Exercises)
}
