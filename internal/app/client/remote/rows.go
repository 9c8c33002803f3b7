package remote

import (
	"time"

	"workoutsync/internal/domain/workout"
)

// Строки удаленных таблиц. Имена полей совпадают с колонками сервера,
// id и user_id заполняет сервер.

type ExerciseRow struct {
	ID           int64                `json:"id,omitempty"`
	UserID       int64                `json:"user_id,omitempty"`
	LocalID      *int64               `json:"local_id"`
	Name         string               `json:"name"`
	MuscleGroups workout.MuscleGroups `json:"muscle_groups"`
	Equipment    string               `json:"equipment"`
	Deleted      bool                 `json:"deleted"`
	UpdatedAt    *time.Time           `json:"updated_at,omitempty"`
}

// CloudExercise элемент шаблона в облачной форме: к локальному id
// добавлено имя упражнения, по нему другие устройства находят свое
type CloudExercise struct {
	ExerciseID   string              `json:"exerciseId"`
	ExerciseName string              `json:"exerciseName,omitempty"`
	InstanceID   string              `json:"instanceId"`
	Sets         []workout.TargetSet `json:"sets"`
}

type TemplateRow struct {
	ID        int64           `json:"id,omitempty"`
	UserID    int64           `json:"user_id,omitempty"`
	LocalID   *int64          `json:"local_id"`
	Name      string          `json:"name"`
	Exercises []CloudExercise `json:"exercises"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	LastUsed  *time.Time      `json:"last_used"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

type ScheduleRow struct {
	ID           int64           `json:"id,omitempty"`
	UserID       int64           `json:"user_id,omitempty"`
	LocalID      *int64          `json:"local_id"`
	TemplateID   *int64          `json:"template_id"`
	TemplateName string          `json:"template_name"`
	Date         string          `json:"date"`
	Notes        string          `json:"notes"`
	Exercises    []CloudExercise `json:"exercises"`
	Completed    bool            `json:"completed"`
	UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
}

type WorkoutRow struct {
	ID        int64      `json:"id,omitempty"`
	UserID    int64      `json:"user_id,omitempty"`
	LocalID   *int64     `json:"local_id"`
	Name      string     `json:"name"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Status    string     `json:"status"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type SetRow struct {
	ID         int64     `json:"id,omitempty"`
	UserID     int64     `json:"user_id,omitempty"`
	WorkoutID  int64     `json:"workout_id"`
	ExerciseID *int64    `json:"exercise_id"`
	LocalID    *int64    `json:"local_id"`
	SetNumber  int       `json:"set_number"`
	Weight     float64   `json:"weight"`
	Reps       int       `json:"reps"`
	RPE        *float64  `json:"rpe"`
	Completed  bool      `json:"completed"`
	Timestamp  time.Time `json:"timestamp"`
}

// SettingsPayload содержимое jsonb-колонки settings
type SettingsPayload struct {
	WeightUnit       string `json:"weightUnit"`
	RestTimerSeconds int    `json:"restTimerSeconds"`
	WeekStart        string `json:"weekStart"`
}

type SettingsRow struct {
	UserID    int64           `json:"user_id,omitempty"`
	Settings  SettingsPayload `json:"settings"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

func (r ExerciseRow) RowID() int64 { return r.ID }
func (r TemplateRow) RowID() int64 { return r.ID }
func (r ScheduleRow) RowID() int64 { return r.ID }
func (r WorkoutRow) RowID() int64  { return r.ID }
func (r SetRow) RowID() int64      { return r.ID }
func (r SettingsRow) RowID() int64 { return r.UserID }

// LocalTag значение тега local_id
func LocalTag(id int64) *int64 {
	return &id
}

// TagOf разыменовывает тег, отсутствующий тег равен 0
func TagOf(tag *int64) int64 {
	if tag == nil {
		return 0
	}
	return *tag
}
