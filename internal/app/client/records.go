package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"workoutsync/internal/domain/workout"
)

// ErrActiveWorkout у пользователя уже есть незавершенная тренировка
var ErrActiveWorkout = errors.New("уже есть активная тренировка")

// ==================== Exercises ====================

// ExerciseChanges изменяемые поля упражнения, nil означает "без изменений"
type ExerciseChanges struct {
	Name         *string
	MuscleGroups []string
	Equipment    *string
}

func (a *App) AddExercise(ctx context.Context, name string, groups []string, equipment string) (workout.Exercise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return workout.Exercise{}, fmt.Errorf("%w: пустое имя упражнения", workout.ErrInvalidData)
	}
	if err := a.checkExerciseName(ctx, 0, name); err != nil {
		return workout.Exercise{}, err
	}

	e := workout.Exercise{
		Name:         name,
		MuscleGroups: workout.NormalizeMuscleGroups(groups),
		Equipment:    strings.TrimSpace(equipment),
	}
	id, err := a.store.AddExercise(ctx, e)
	if err != nil {
		return workout.Exercise{}, fmt.Errorf("ошибка сохранения упражнения: %w", err)
	}
	e.ID = id
	return e, nil
}

// ListExercises действующие упражнения каталога
func (a *App) ListExercises(ctx context.Context) ([]workout.Exercise, error) {
	list, err := a.store.ListExercises(ctx)
	if err != nil {
		return nil, err
	}
	out := list[:0]
	for _, e := range list {
		if !e.Deleted {
			out = append(out, e)
		}
	}
	return out, nil
}

// EditExercise изменяет упражнение. При смене имени строка со старым
// именем удаляется на сервере при следующей синхронизации.
func (a *App) EditExercise(ctx context.Context, id int64, ch ExerciseChanges) (workout.Exercise, error) {
	e, err := a.store.GetExercise(ctx, id)
	if err != nil {
		return workout.Exercise{}, err
	}
	oldName := e.Name

	if ch.Name != nil {
		name := strings.TrimSpace(*ch.Name)
		if name == "" {
			return workout.Exercise{}, fmt.Errorf("%w: пустое имя упражнения", workout.ErrInvalidData)
		}
		if err := a.checkExerciseName(ctx, id, name); err != nil {
			return workout.Exercise{}, err
		}
		e.Name = name
	}
	if ch.MuscleGroups != nil {
		e.MuscleGroups = workout.NormalizeMuscleGroups(ch.MuscleGroups)
	}
	if ch.Equipment != nil {
		e.Equipment = strings.TrimSpace(*ch.Equipment)
	}
	e.Synced = false
	e.Deleted = false

	// Запись об удалении старого имени только после сохранения нового
	if err := a.store.UpdateExercise(ctx, e); err != nil {
		return workout.Exercise{}, fmt.Errorf("ошибка сохранения упражнения: %w", err)
	}
	if e.Name != oldName {
		err := a.sync.Tombstones().RecordDeletion(ctx, workout.ExerciseTombstone{LocalID: id, Name: oldName})
		if err != nil {
			return workout.Exercise{}, err
		}
	}
	return e, nil
}

func (a *App) DeleteExercise(ctx context.Context, id int64) error {
	e, err := a.store.GetExercise(ctx, id)
	if err != nil {
		return err
	}
	if err := a.sync.Tombstones().RecordDeletion(ctx, workout.ExerciseTombstone{LocalID: id, Name: e.Name}); err != nil {
		return err
	}
	return a.store.DeleteExercise(ctx, id)
}

func (a *App) checkExerciseName(ctx context.Context, selfID int64, name string) error {
	list, err := a.store.ListExercises(ctx)
	if err != nil {
		return err
	}
	for _, e := range list {
		if e.ID != selfID && !e.Deleted && workout.SameName(e.Name, name) {
			return fmt.Errorf("%w: упражнение %q", workout.ErrDuplicateName, e.Name)
		}
	}
	return nil
}

// ==================== Templates ====================

// CreateTemplate создает шаблон из упражнений каталога, у каждого
// упражнения одинаковые целевые подходы
func (a *App) CreateTemplate(ctx context.Context, name string, exerciseIDs []int64, sets []workout.TargetSet) (workout.WorkoutTemplate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return workout.WorkoutTemplate{}, fmt.Errorf("%w: пустое имя шаблона", workout.ErrInvalidData)
	}
	if err := a.checkTemplateName(ctx, 0, name); err != nil {
		return workout.WorkoutTemplate{}, err
	}

	found, err := a.store.ExercisesByIDs(ctx, exerciseIDs)
	if err != nil {
		return workout.WorkoutTemplate{}, err
	}
	if len(found) != len(exerciseIDs) {
		return workout.WorkoutTemplate{}, fmt.Errorf("%w: упражнение не найдено", workout.ErrNotFound)
	}

	now := a.now().UTC()
	t := workout.WorkoutTemplate{Name: name, CreatedAt: now}
	for _, id := range exerciseIDs {
		t.Exercises = append(t.Exercises, workout.NewTemplateExercise(id, sets))
	}
	t.Touch(now)

	id, err := a.store.AddTemplate(ctx, t)
	if err != nil {
		return workout.WorkoutTemplate{}, fmt.Errorf("ошибка сохранения шаблона: %w", err)
	}
	t.ID = id
	return t, nil
}

func (a *App) ListTemplates(ctx context.Context) ([]workout.WorkoutTemplate, error) {
	return a.store.ListTemplates(ctx)
}

// RenameTemplate переименовывает шаблон, старое имя удаляется на сервере
func (a *App) RenameTemplate(ctx context.Context, id int64, name string) (workout.WorkoutTemplate, error) {
	t, err := a.store.GetTemplate(ctx, id)
	if err != nil {
		return workout.WorkoutTemplate{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return workout.WorkoutTemplate{}, fmt.Errorf("%w: пустое имя шаблона", workout.ErrInvalidData)
	}
	if name == t.Name {
		return t, nil
	}
	if err := a.checkTemplateName(ctx, id, name); err != nil {
		return workout.WorkoutTemplate{}, err
	}

	oldName := t.Name
	t.Name = name
	t.Touch(a.now().UTC())
	if err := a.store.UpdateTemplate(ctx, t); err != nil {
		return workout.WorkoutTemplate{}, fmt.Errorf("ошибка сохранения шаблона: %w", err)
	}
	err = a.sync.Tombstones().RecordDeletion(ctx, workout.TemplateTombstone{LocalID: id, Name: oldName})
	if err != nil {
		return workout.WorkoutTemplate{}, err
	}
	return t, nil
}

func (a *App) DeleteTemplate(ctx context.Context, id int64) error {
	t, err := a.store.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	if err := a.sync.Tombstones().RecordDeletion(ctx, workout.TemplateTombstone{LocalID: id, Name: t.Name}); err != nil {
		return err
	}
	return a.store.DeleteTemplate(ctx, id)
}

func (a *App) checkTemplateName(ctx context.Context, selfID int64, name string) error {
	list, err := a.store.ListTemplates(ctx)
	if err != nil {
		return err
	}
	for _, t := range list {
		if t.ID != selfID && workout.SameName(t.Name, name) {
			return fmt.Errorf("%w: шаблон %q", workout.ErrDuplicateName, t.Name)
		}
	}
	return nil
}

// ==================== Schedules ====================

// ScheduleWorkout планирует шаблон на дату. Упражнения копируются из
// шаблона и дальше живут отдельно.
func (a *App) ScheduleWorkout(ctx context.Context, templateID int64, date, notes string) (workout.ScheduledWorkout, error) {
	if err := workout.ValidateDate(date); err != nil {
		return workout.ScheduledWorkout{}, err
	}
	t, err := a.store.GetTemplate(ctx, templateID)
	if err != nil {
		return workout.ScheduledWorkout{}, err
	}

	list, err := a.store.ListSchedules(ctx)
	if err != nil {
		return workout.ScheduledWorkout{}, err
	}
	key := workout.ScheduleKey(date, t.Name)
	for _, sw := range list {
		if workout.ScheduleKey(sw.Date, sw.TemplateName) == key {
			return workout.ScheduledWorkout{}, fmt.Errorf("%w: %s уже запланирован на %s", workout.ErrDuplicateName, t.Name, date)
		}
	}

	sw := workout.ScheduledWorkout{
		TemplateID:   t.ID,
		TemplateName: t.Name,
		Date:         date,
		Notes:        strings.TrimSpace(notes),
		Exercises:    append([]workout.TemplateExercise(nil), t.Exercises...),
	}
	sw.Touch(a.now().UTC())

	id, err := a.store.AddSchedule(ctx, sw)
	if err != nil {
		return workout.ScheduledWorkout{}, fmt.Errorf("ошибка сохранения расписания: %w", err)
	}
	sw.ID = id
	return sw, nil
}

func (a *App) ListSchedules(ctx context.Context) ([]workout.ScheduledWorkout, error) {
	return a.store.ListSchedules(ctx)
}

func (a *App) DeleteSchedule(ctx context.Context, id int64) error {
	sw, err := a.store.GetSchedule(ctx, id)
	if err != nil {
		return err
	}
	err = a.sync.Tombstones().RecordDeletion(ctx, workout.ScheduleTombstone{
		LocalID:      id,
		Date:         sw.Date,
		TemplateName: sw.TemplateName,
	})
	if err != nil {
		return err
	}
	return a.store.DeleteSchedule(ctx, id)
}

// ==================== Workouts ====================

func (a *App) StartWorkout(ctx context.Context, name string) (workout.Workout, error) {
	active, err := a.store.WorkoutsByStatus(ctx, workout.StatusActive)
	if err != nil {
		return workout.Workout{}, err
	}
	if len(active) > 0 {
		return workout.Workout{}, fmt.Errorf("%w: %q (id %d)", ErrActiveWorkout, active[0].Name, active[0].ID)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Тренировка " + a.now().Format(workout.DateLayout)
	}
	w := workout.Workout{Name: name, StartTime: a.now().UTC(), Status: workout.StatusActive}
	id, err := a.store.AddWorkout(ctx, w)
	if err != nil {
		return workout.Workout{}, fmt.Errorf("ошибка сохранения тренировки: %w", err)
	}
	w.ID = id
	return w, nil
}

// LogSet добавляет подход к активной тренировке. Номер подхода следует за
// последним записанным в этой тренировке.
func (a *App) LogSet(ctx context.Context, workoutID, exerciseID int64, weight float64, reps int, rpe *float64) (workout.WorkoutSet, error) {
	w, err := a.store.GetWorkout(ctx, workoutID)
	if err != nil {
		return workout.WorkoutSet{}, err
	}
	if w.Status != workout.StatusActive {
		return workout.WorkoutSet{}, fmt.Errorf("%w: тренировка %d уже завершена", workout.ErrInvalidData, workoutID)
	}
	if _, err := a.store.GetExercise(ctx, exerciseID); err != nil {
		return workout.WorkoutSet{}, err
	}
	if reps < 0 || weight < 0 {
		return workout.WorkoutSet{}, fmt.Errorf("%w: вес и повторения не могут быть отрицательными", workout.ErrInvalidData)
	}

	sets, err := a.store.SetsByWorkout(ctx, workout.FormatID(workoutID))
	if err != nil {
		return workout.WorkoutSet{}, err
	}
	number := 1
	for _, s := range sets {
		if s.SetNumber >= number {
			number = s.SetNumber + 1
		}
	}

	s := workout.WorkoutSet{
		WorkoutID:  workout.FormatID(workoutID),
		ExerciseID: workout.FormatID(exerciseID),
		SetNumber:  number,
		Weight:     weight,
		Reps:       reps,
		RPE:        rpe,
		Completed:  true,
		Timestamp:  a.now().UTC(),
	}
	id, err := a.store.AddSet(ctx, s)
	if err != nil {
		return workout.WorkoutSet{}, fmt.Errorf("ошибка сохранения подхода: %w", err)
	}
	s.ID = id
	return s, nil
}

// FinishWorkout завершает тренировку, после этого она попадает в историю
// для отправки на сервер
func (a *App) FinishWorkout(ctx context.Context, id int64) (workout.Workout, error) {
	w, err := a.store.GetWorkout(ctx, id)
	if err != nil {
		return workout.Workout{}, err
	}
	if w.Status == workout.StatusCompleted {
		return w, nil
	}
	end := a.now().UTC()
	w.EndTime = &end
	w.Status = workout.StatusCompleted
	w.Synced = false
	if err := a.store.UpdateWorkout(ctx, w); err != nil {
		return workout.Workout{}, fmt.Errorf("ошибка сохранения тренировки: %w", err)
	}
	return w, nil
}

func (a *App) ListWorkouts(ctx context.Context) ([]workout.Workout, error) {
	return a.store.ListWorkouts(ctx)
}

func (a *App) WorkoutSets(ctx context.Context, id int64) ([]workout.WorkoutSet, error) {
	return a.store.SetsByWorkout(ctx, workout.FormatID(id))
}

// ==================== Settings ====================

// SettingsChanges изменяемые настройки, nil означает "без изменений"
type SettingsChanges struct {
	WeightUnit       *string
	RestTimerSeconds *int
	WeekStart        *string
}

func (a *App) Settings(ctx context.Context) (workout.Settings, error) {
	return a.store.GetSettings(ctx)
}

func (a *App) UpdateSettings(ctx context.Context, ch SettingsChanges) (workout.Settings, error) {
	s, err := a.store.GetSettings(ctx)
	if err != nil {
		return workout.Settings{}, err
	}
	if ch.WeightUnit != nil {
		switch *ch.WeightUnit {
		case "kg", "lb":
			s.WeightUnit = *ch.WeightUnit
		default:
			return workout.Settings{}, fmt.Errorf("%w: единица веса %q", workout.ErrInvalidData, *ch.WeightUnit)
		}
	}
	if ch.RestTimerSeconds != nil {
		if *ch.RestTimerSeconds < 0 {
			return workout.Settings{}, fmt.Errorf("%w: таймер отдыха", workout.ErrInvalidData)
		}
		s.RestTimerSeconds = *ch.RestTimerSeconds
	}
	if ch.WeekStart != nil {
		switch *ch.WeekStart {
		case "monday", "sunday":
			s.WeekStart = *ch.WeekStart
		default:
			return workout.Settings{}, fmt.Errorf("%w: начало недели %q", workout.ErrInvalidData, *ch.WeekStart)
		}
	}
	s.UpdatedAt = a.now().UTC()
	s.Synced = false
	if err := a.store.SaveSettings(ctx, s); err != nil {
		return workout.Settings{}, fmt.Errorf("ошибка сохранения настроек: %w", err)
	}
	return s, nil
}
