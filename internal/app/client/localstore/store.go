// Package localstore локальное хранилище клиента: коллекции упражнений,
// тренировок, подходов, шаблонов, расписания, записей об удалении и
// настроек. Ключи записей - локальные целые идентификаторы устройства.
package localstore

import (
	"context"

	"workoutsync/internal/domain/workout"
)

// ErrNotFound запись с указанным локальным идентификатором отсутствует
var ErrNotFound = workout.ErrNotFound

type Exercises interface {
	AddExercise(ctx context.Context, e workout.Exercise) (int64, error)
	GetExercise(ctx context.Context, id int64) (workout.Exercise, error)
	UpdateExercise(ctx context.Context, e workout.Exercise) error
	DeleteExercise(ctx context.Context, id int64) error
	ListExercises(ctx context.Context) ([]workout.Exercise, error)
	ExercisesByIDs(ctx context.Context, ids []int64) ([]workout.Exercise, error)
}

type Workouts interface {
	AddWorkout(ctx context.Context, w workout.Workout) (int64, error)
	GetWorkout(ctx context.Context, id int64) (workout.Workout, error)
	UpdateWorkout(ctx context.Context, w workout.Workout) error
	// DeleteWorkout удаляет тренировку вместе с ее подходами
	DeleteWorkout(ctx context.Context, id int64) error
	ListWorkouts(ctx context.Context) ([]workout.Workout, error)
	WorkoutsByStatus(ctx context.Context, status workout.Status) ([]workout.Workout, error)
}

type Sets interface {
	AddSet(ctx context.Context, s workout.WorkoutSet) (int64, error)
	UpdateSet(ctx context.Context, s workout.WorkoutSet) error
	DeleteSet(ctx context.Context, id int64) error
	SetsByWorkout(ctx context.Context, workoutID string) ([]workout.WorkoutSet, error)
	SetsByExercise(ctx context.Context, exerciseID string) ([]workout.WorkoutSet, error)
}

type Templates interface {
	AddTemplate(ctx context.Context, t workout.WorkoutTemplate) (int64, error)
	GetTemplate(ctx context.Context, id int64) (workout.WorkoutTemplate, error)
	UpdateTemplate(ctx context.Context, t workout.WorkoutTemplate) error
	DeleteTemplate(ctx context.Context, id int64) error
	ListTemplates(ctx context.Context) ([]workout.WorkoutTemplate, error)
}

type Schedules interface {
	AddSchedule(ctx context.Context, s workout.ScheduledWorkout) (int64, error)
	GetSchedule(ctx context.Context, id int64) (workout.ScheduledWorkout, error)
	UpdateSchedule(ctx context.Context, s workout.ScheduledWorkout) error
	DeleteSchedule(ctx context.Context, id int64) error
	ListSchedules(ctx context.Context) ([]workout.ScheduledWorkout, error)
}

type Tombstones interface {
	AddDeletedItem(ctx context.Context, item workout.DeletedItem) (int64, error)
	ListDeletedItems(ctx context.Context) ([]workout.DeletedItem, error)
	RemoveDeletedItem(ctx context.Context, id int64) error
}

type SettingsStore interface {
	// GetSettings возвращает настройки по умолчанию, если они еще не сохранялись
	GetSettings(ctx context.Context) (workout.Settings, error)
	SaveSettings(ctx context.Context, s workout.Settings) error
}

// Store полный набор коллекций устройства
type Store interface {
	Exercises
	Workouts
	Sets
	Templates
	Schedules
	Tombstones
	SettingsStore
	Close() error
}
