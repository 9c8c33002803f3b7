package cloudsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"workoutsync/internal/app/client/remote"
	"workoutsync/internal/domain/table"
	"workoutsync/internal/domain/workout"
)

// TemplateSyncer шаблоны тренировок, естественный ключ (пользователь, имя)
type TemplateSyncer struct {
	deps
}

func (s *TemplateSyncer) Upload(ctx context.Context, userID int64) (Counts, error) {
	list, err := s.local.ListTemplates(ctx)
	if err != nil {
		return Counts{}, fmt.Errorf("чтение шаблонов: %w", err)
	}

	var c Counts
	for _, t := range list {
		if err := ctx.Err(); err != nil {
			return c, err
		}
		changed, err := s.push(ctx, userID, t)
		if err != nil {
			c.Failed++
			s.log.Warn("Шаблон не отправлен", "name", t.Name, "error", err)
			continue
		}
		if changed {
			c.Synced++
		}
	}
	return c, nil
}

// push обновляет первую строку с тем же именем и удаляет остальные, либо
// вставляет новую. Возвращает true, если на сервере что-то изменилось.
func (s *TemplateSyncer) push(ctx context.Context, userID int64, t workout.WorkoutTemplate) (bool, error) {
	rows, err := s.remote.Templates.Select(ctx, table.Where(
		table.Eq(table.OwnerColumn, userID),
		table.IEq("name", t.Name),
	))
	if err != nil {
		return false, err
	}

	// Синхронизированный шаблон пропал с сервера: его удалили на другом
	// устройстве, загрузка удалит его и здесь
	if len(rows) == 0 && t.Synced {
		return false, nil
	}

	removed, err := collapse(ctx, s.remote.Templates, rows)
	if err != nil {
		return removed > 0, err
	}

	cloud, err := s.names.ToCloudForm(ctx, t.Exercises)
	if err != nil {
		return removed > 0, err
	}

	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = templateStamp(t)
	}
	row := remote.TemplateRow{
		LocalID:   remote.LocalTag(t.ID),
		Name:      t.Name,
		Exercises: cloud,
		LastUsed:  t.LastUsed,
	}
	if !t.UpdatedAt.IsZero() {
		row.UpdatedAt = &t.UpdatedAt
	}
	if !t.CreatedAt.IsZero() {
		row.CreatedAt = &t.CreatedAt
	}

	changed := removed > 0
	switch {
	case len(rows) == 0:
		if _, err := s.remote.Templates.Insert(ctx, row); err != nil {
			return changed, err
		}
		changed = true
	case newer(remoteTemplateStamp(rows[0]), t.UpdatedAt):
		// На сервере более новая версия, ее применит загрузка
		return changed, nil
	case !t.Synced || !sameTemplate(rows[0], row):
		if err := s.remote.Templates.Update(ctx, rows[0].ID, row); err != nil {
			return changed, err
		}
		changed = true
	}

	if !t.Synced {
		t.Synced = true
		if err := s.local.UpdateTemplate(ctx, t); err != nil {
			return changed, err
		}
	}
	return changed, nil
}

// Download применяет строго более новые серверные версии, добавляет новые
// шаблоны и удаляет синхронизированные, которых на сервере больше нет
func (s *TemplateSyncer) Download(ctx context.Context, userID int64) (int, error) {
	rows, err := s.remote.Templates.Select(ctx, table.Where(table.Eq(table.OwnerColumn, userID)))
	if err != nil {
		return 0, fmt.Errorf("чтение шаблонов с сервера: %w", err)
	}
	list, err := s.local.ListTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("чтение шаблонов: %w", err)
	}

	byKey := make(map[string]workout.WorkoutTemplate, len(list))
	for _, t := range list {
		if _, ok := byKey[workout.TemplateKey(t)]; !ok {
			byKey[workout.TemplateKey(t)] = t
		}
	}

	applied := 0
	remoteKeys := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		key := workout.FoldName(r.Name)
		if _, dup := remoteKeys[key]; dup {
			continue
		}
		remoteKeys[key] = struct{}{}

		exercises, err := s.names.FromCloudForm(ctx, r.Exercises)
		if err != nil {
			return applied, err
		}
		stamp := remoteTemplateStamp(r)

		local, ok := byKey[key]
		if !ok {
			created := firstStamp(r.CreatedAt, &stamp)
			if created.IsZero() {
				created = s.now().UTC()
			}
			_, err := s.local.AddTemplate(ctx, workout.WorkoutTemplate{
				Name:      r.Name,
				Exercises: exercises,
				CreatedAt: created,
				LastUsed:  r.LastUsed,
				UpdatedAt: stamp,
				Synced:    true,
			})
			if err != nil {
				s.log.Warn("Не удалось добавить шаблон", "name", r.Name, "error", err)
				continue
			}
			applied++
			continue
		}

		if !newer(stamp, templateStamp(local)) {
			continue
		}
		local.Name = r.Name
		local.Exercises = exercises
		local.LastUsed = r.LastUsed
		local.UpdatedAt = stamp
		local.Synced = true
		if err := s.local.UpdateTemplate(ctx, local); err != nil {
			s.log.Warn("Не удалось обновить шаблон", "name", local.Name, "error", err)
			continue
		}
		applied++
	}

	for _, t := range list {
		if _, ok := remoteKeys[workout.TemplateKey(t)]; ok || !t.Synced {
			continue
		}
		if err := s.local.DeleteTemplate(ctx, t.ID); err != nil {
			s.log.Warn("Не удалось удалить шаблон", "name", t.Name, "error", err)
			continue
		}
		s.log.Info("Шаблон удален на другом устройстве", "name", t.Name)
		applied++
	}
	return applied, nil
}

// templateStamp время последнего изменения шаблона с запасными вариантами
func templateStamp(t workout.WorkoutTemplate) time.Time {
	return firstStamp(&t.UpdatedAt, t.LastUsed, &t.CreatedAt)
}

func remoteTemplateStamp(r remote.TemplateRow) time.Time {
	return firstStamp(r.UpdatedAt, r.LastUsed, r.CreatedAt)
}

func sameTemplate(current, next remote.TemplateRow) bool {
	return current.Name == next.Name &&
		sameJSON(current.Exercises, next.Exercises) &&
		sameStamp(current.LastUsed, next.LastUsed)
}

func sameStamp(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Truncate(stampPrecision).Equal(b.Truncate(stampPrecision))
}

// sameJSON сравнение через сериализацию
func sameJSON(a, b any) bool {
	left, errA := json.Marshal(a)
	right, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(left, right)
}
