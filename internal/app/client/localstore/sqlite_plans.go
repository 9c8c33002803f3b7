package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"workoutsync/internal/domain/workout"
)

// ==================== Templates ====================

const templateColumns = `id, name, exercises, created_at, last_used, updated_at, synced`

func scanTemplate(sc interface{ Scan(...any) error }) (workout.WorkoutTemplate, error) {
	var (
		t                  workout.WorkoutTemplate
		exercises, created string
		updated            string
		lastUsed           sql.NullString
	)
	if err := sc.Scan(&t.ID, &t.Name, &exercises, &created, &lastUsed, &updated, &t.Synced); err != nil {
		return workout.WorkoutTemplate{}, err
	}
	t.Exercises = decodeExercises(exercises)
	t.CreatedAt = parseTime(created)
	t.LastUsed = parseNullTime(lastUsed)
	t.UpdatedAt = parseTime(updated)
	return t, nil
}

func (s *SQLite) AddTemplate(ctx context.Context, t workout.WorkoutTemplate) (int64, error) {
	exercises, err := encodeExercises(t.Exercises)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO templates (name, exercises, created_at, last_used, updated_at, synced) VALUES (?, ?, ?, ?, ?, ?)`,
		t.Name, exercises, formatTime(t.CreatedAt), formatNullTime(t.LastUsed), formatTime(t.UpdatedAt), t.Synced)
	if err != nil {
		return 0, fmt.Errorf("ошибка добавления шаблона: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) GetTemplate(ctx context.Context, id int64) (workout.WorkoutTemplate, error) {
	t, err := scanTemplate(s.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return workout.WorkoutTemplate{}, fmt.Errorf("шаблон %d: %w", id, ErrNotFound)
	}
	return t, err
}

func (s *SQLite) UpdateTemplate(ctx context.Context, t workout.WorkoutTemplate) error {
	exercises, err := encodeExercises(t.Exercises)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE templates SET name = ?, exercises = ?, created_at = ?, last_used = ?, updated_at = ?, synced = ? WHERE id = ?`,
		t.Name, exercises, formatTime(t.CreatedAt), formatNullTime(t.LastUsed), formatTime(t.UpdatedAt), t.Synced, t.ID)
	if err != nil {
		return fmt.Errorf("ошибка обновления шаблона: %w", err)
	}
	return expectOne(res, "шаблон", t.ID)
}

func (s *SQLite) DeleteTemplate(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления шаблона: %w", err)
	}
	return expectOne(res, "шаблон", id)
}

func (s *SQLite) ListTemplates(ctx context.Context) ([]workout.WorkoutTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+templateColumns+` FROM templates ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []workout.WorkoutTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ==================== Scheduled workouts ====================

const scheduleColumns = `id, template_id, template_name, date, notes, exercises, completed, updated_at, synced`

func scanSchedule(sc interface{ Scan(...any) error }) (workout.ScheduledWorkout, error) {
	var (
		sw        workout.ScheduledWorkout
		exercises string
		updated   string
	)
	if err := sc.Scan(&sw.ID, &sw.TemplateID, &sw.TemplateName, &sw.Date, &sw.Notes, &exercises, &sw.Completed, &updated, &sw.Synced); err != nil {
		return workout.ScheduledWorkout{}, err
	}
	sw.Exercises = decodeExercises(exercises)
	sw.UpdatedAt = parseTime(updated)
	return sw, nil
}

func (s *SQLite) AddSchedule(ctx context.Context, sw workout.ScheduledWorkout) (int64, error) {
	exercises, err := encodeExercises(sw.Exercises)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scheduled_workouts (template_id, template_name, date, notes, exercises, completed, updated_at, synced)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sw.TemplateID, sw.TemplateName, sw.Date, sw.Notes, exercises, sw.Completed, formatTime(sw.UpdatedAt), sw.Synced)
	if err != nil {
		return 0, fmt.Errorf("ошибка добавления тренировки в расписание: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) GetSchedule(ctx context.Context, id int64) (workout.ScheduledWorkout, error) {
	sw, err := scanSchedule(s.db.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM scheduled_workouts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return workout.ScheduledWorkout{}, fmt.Errorf("запланированная тренировка %d: %w", id, ErrNotFound)
	}
	return sw, err
}

func (s *SQLite) UpdateSchedule(ctx context.Context, sw workout.ScheduledWorkout) error {
	exercises, err := encodeExercises(sw.Exercises)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_workouts SET template_id = ?, template_name = ?, date = ?, notes = ?, exercises = ?, completed = ?, updated_at = ?, synced = ?
		 WHERE id = ?`,
		sw.TemplateID, sw.TemplateName, sw.Date, sw.Notes, exercises, sw.Completed, formatTime(sw.UpdatedAt), sw.Synced, sw.ID)
	if err != nil {
		return fmt.Errorf("ошибка обновления расписания: %w", err)
	}
	return expectOne(res, "запланированная тренировка", sw.ID)
}

func (s *SQLite) DeleteSchedule(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_workouts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления из расписания: %w", err)
	}
	return expectOne(res, "запланированная тренировка", id)
}

func (s *SQLite) ListSchedules(ctx context.Context) ([]workout.ScheduledWorkout, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+scheduleColumns+` FROM scheduled_workouts ORDER BY date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []workout.ScheduledWorkout
	for rows.Next() {
		sw, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sw)
	}
	return out, rows.Err()
}

// ==================== Deleted items ====================

func (s *SQLite) AddDeletedItem(ctx context.Context, item workout.DeletedItem) (int64, error) {
	if item.Target == nil {
		return 0, fmt.Errorf("%w: пустая запись об удалении", workout.ErrUnknownTombstone)
	}
	typ, localID, name, date := item.Flat()
	deletedAt := item.DeletedAt
	if deletedAt.IsZero() {
		deletedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO deleted_items (type, local_id, name, date, deleted_at) VALUES (?, ?, ?, ?, ?)`,
		string(typ), localID, name, date, formatTime(deletedAt))
	if err != nil {
		return 0, fmt.Errorf("ошибка сохранения записи об удалении: %w", err)
	}
	return res.LastInsertId()
}

// ListDeletedItems пропускает записи неизвестного типа, оставляя их в базе
func (s *SQLite) ListDeletedItems(ctx context.Context) ([]workout.DeletedItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, type, local_id, name, date, deleted_at FROM deleted_items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []workout.DeletedItem
	for rows.Next() {
		var (
			id, localID           int64
			typ, name, date, when string
		)
		if err := rows.Scan(&id, &typ, &localID, &name, &date, &when); err != nil {
			return nil, err
		}
		target, err := workout.TombstoneFromFlat(workout.ItemType(typ), localID, name, date)
		if err != nil {
			s.log.Warn("Пропущена запись об удалении", "id", id, "error", err)
			continue
		}
		out = append(out, workout.DeletedItem{ID: id, Target: target, DeletedAt: parseTime(when)})
	}
	return out, rows.Err()
}

func (s *SQLite) RemoveDeletedItem(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM deleted_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи об удалении: %w", err)
	}
	return expectOne(res, "запись об удалении", id)
}

// ==================== Settings ====================

func (s *SQLite) GetSettings(ctx context.Context) (workout.Settings, error) {
	var (
		st      workout.Settings
		updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT weight_unit, rest_timer_seconds, week_start, updated_at, synced FROM settings WHERE id = 1`).
		Scan(&st.WeightUnit, &st.RestTimerSeconds, &st.WeekStart, &updated, &st.Synced)
	if errors.Is(err, sql.ErrNoRows) {
		return workout.DefaultSettings(), nil
	}
	if err != nil {
		return workout.Settings{}, err
	}
	st.UpdatedAt = parseTime(updated)
	return st, nil
}

func (s *SQLite) SaveSettings(ctx context.Context, st workout.Settings) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (id, weight_unit, rest_timer_seconds, week_start, updated_at, synced)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET weight_unit = excluded.weight_unit,
		     rest_timer_seconds = excluded.rest_timer_seconds, week_start = excluded.week_start,
		     updated_at = excluded.updated_at, synced = excluded.synced`,
		st.WeightUnit, st.RestTimerSeconds, st.WeekStart, formatTime(st.UpdatedAt), st.Synced)
	if err != nil {
		return fmt.Errorf("ошибка сохранения настроек: %w", err)
	}
	return nil
}

func encodeExercises(list []workout.TemplateExercise) (string, error) {
	if list == nil {
		list = []workout.TemplateExercise{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации упражнений: %w", err)
	}
	return string(data), nil
}

func decodeExercises(raw string) []workout.TemplateExercise {
	var list []workout.TemplateExercise
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return []workout.TemplateExercise{}
	}
	return list
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
