package workout

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout формат даты запланированной тренировки
const DateLayout = "2006-01-02"

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Exercise упражнение из локального каталога. Deleted выставляется, когда
// упражнение мягко удалено на сервере другим устройством.
type Exercise struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	MuscleGroups MuscleGroups `json:"muscleGroups"`
	Equipment    string       `json:"equipment"`
	Deleted      bool         `json:"deleted,omitempty"`
	Synced       bool         `json:"synced"`
}

type Workout struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Status    Status     `json:"status"`
	Synced    bool       `json:"synced"`
}

// WorkoutSet подход внутри тренировки. Ссылки на тренировку и упражнение
// хранятся как строковые локальные идентификаторы.
type WorkoutSet struct {
	ID         int64     `json:"id"`
	WorkoutID  string    `json:"workoutId"`
	ExerciseID string    `json:"exerciseId"`
	SetNumber  int       `json:"setNumber"`
	Weight     float64   `json:"weight"`
	Reps       int       `json:"reps"`
	RPE        *float64  `json:"rpe,omitempty"`
	Completed  bool      `json:"completed"`
	Timestamp  time.Time `json:"timestamp"`
}

type TargetSet struct {
	TargetWeight float64 `json:"targetWeight"`
	TargetReps   int     `json:"targetReps"`
}

// TemplateExercise элемент шаблона. InstanceID позволяет одному упражнению
// встречаться в шаблоне несколько раз.
type TemplateExercise struct {
	ExerciseID string      `json:"exerciseId"`
	InstanceID string      `json:"instanceId"`
	Sets       []TargetSet `json:"sets"`
}

// NewTemplateExercise создает элемент шаблона с новым InstanceID
func NewTemplateExercise(exerciseID int64, sets []TargetSet) TemplateExercise {
	return TemplateExercise{
		ExerciseID: FormatID(exerciseID),
		InstanceID: uuid.NewString(),
		Sets:       sets,
	}
}

type WorkoutTemplate struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	Exercises []TemplateExercise `json:"exercises"`
	CreatedAt time.Time          `json:"createdAt"`
	LastUsed  *time.Time         `json:"lastUsed,omitempty"`
	UpdatedAt time.Time          `json:"updatedAt"`
	Synced    bool               `json:"synced"`
}

// Touch отмечает локальное изменение шаблона
func (t *WorkoutTemplate) Touch(now time.Time) {
	t.UpdatedAt = now
	t.Synced = false
}

type ScheduledWorkout struct {
	ID           int64              `json:"id"`
	TemplateID   int64              `json:"templateId"`
	TemplateName string             `json:"templateName"`
	Date         string             `json:"date"`
	Notes        string             `json:"notes,omitempty"`
	Exercises    []TemplateExercise `json:"exercises"`
	Completed    bool               `json:"completed"`
	UpdatedAt    time.Time          `json:"updatedAt"`
	Synced       bool               `json:"synced"`
}

// Touch отмечает локальное изменение запланированной тренировки
func (s *ScheduledWorkout) Touch(now time.Time) {
	s.UpdatedAt = now
	s.Synced = false
}

// Settings пользовательские настройки (одна запись на пользователя)
type Settings struct {
	WeightUnit       string    `json:"weightUnit"`
	RestTimerSeconds int       `json:"restTimerSeconds"`
	WeekStart        string    `json:"weekStart"`
	UpdatedAt        time.Time `json:"updatedAt"`
	Synced           bool      `json:"synced"`
}

// DefaultSettings настройки нового устройства
func DefaultSettings() Settings {
	return Settings{
		WeightUnit:       "kg",
		RestTimerSeconds: 90,
		WeekStart:        "monday",
	}
}

// SameValues сравнивает пользовательские поля без учета служебных
func (s Settings) SameValues(other Settings) bool {
	return s.WeightUnit == other.WeightUnit &&
		s.RestTimerSeconds == other.RestTimerSeconds &&
		s.WeekStart == other.WeekStart
}
