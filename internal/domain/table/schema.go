package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	Exercises         = "exercises"
	Templates         = "templates"
	ScheduledWorkouts = "scheduled_workouts"
	Workouts          = "workouts"
	WorkoutSets       = "workout_sets"
	UserSettings      = "user_settings"

	OwnerColumn     = "user_id"
	UpdatedAtColumn = "updated_at"
)

type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindText
	KindBool
	KindJSON
	KindTime
)

type Column struct {
	Name     string
	Kind     Kind
	ReadOnly bool
}

// Schema описание таблицы: белый список колонок и ключ для Update
type Schema struct {
	Name    string
	Key     string
	Columns []Column
}

var schemas = map[string]Schema{
	Exercises: {
		Name: Exercises,
		Key:  "id",
		Columns: []Column{
			{Name: "id", Kind: KindInt, ReadOnly: true},
			{Name: OwnerColumn, Kind: KindInt, ReadOnly: true},
			{Name: "local_id", Kind: KindInt},
			{Name: "name", Kind: KindText},
			{Name: "muscle_groups", Kind: KindJSON},
			{Name: "equipment", Kind: KindText},
			{Name: "deleted", Kind: KindBool},
			{Name: UpdatedAtColumn, Kind: KindTime},
		},
	},
	Templates: {
		Name: Templates,
		Key:  "id",
		Columns: []Column{
			{Name: "id", Kind: KindInt, ReadOnly: true},
			{Name: OwnerColumn, Kind: KindInt, ReadOnly: true},
			{Name: "local_id", Kind: KindInt},
			{Name: "name", Kind: KindText},
			{Name: "exercises", Kind: KindJSON},
			{Name: "created_at", Kind: KindTime},
			{Name: "last_used", Kind: KindTime},
			{Name: UpdatedAtColumn, Kind: KindTime},
		},
	},
	ScheduledWorkouts: {
		Name: ScheduledWorkouts,
		Key:  "id",
		Columns: []Column{
			{Name: "id", Kind: KindInt, ReadOnly: true},
			{Name: OwnerColumn, Kind: KindInt, ReadOnly: true},
			{Name: "local_id", Kind: KindInt},
			{Name: "template_id", Kind: KindInt},
			{Name: "template_name", Kind: KindText},
			{Name: "date", Kind: KindText},
			{Name: "notes", Kind: KindText},
			{Name: "exercises", Kind: KindJSON},
			{Name: "completed", Kind: KindBool},
			{Name: UpdatedAtColumn, Kind: KindTime},
		},
	},
	Workouts: {
		Name: Workouts,
		Key:  "id",
		Columns: []Column{
			{Name: "id", Kind: KindInt, ReadOnly: true},
			{Name: OwnerColumn, Kind: KindInt, ReadOnly: true},
			{Name: "local_id", Kind: KindInt},
			{Name: "name", Kind: KindText},
			{Name: "start_time", Kind: KindTime},
			{Name: "end_time", Kind: KindTime},
			{Name: "status", Kind: KindText},
			{Name: UpdatedAtColumn, Kind: KindTime},
		},
	},
	WorkoutSets: {
		Name: WorkoutSets,
		Key:  "id",
		Columns: []Column{
			{Name: "id", Kind: KindInt, ReadOnly: true},
			{Name: OwnerColumn, Kind: KindInt, ReadOnly: true},
			{Name: "workout_id", Kind: KindInt},
			{Name: "exercise_id", Kind: KindInt},
			{Name: "local_id", Kind: KindInt},
			{Name: "set_number", Kind: KindInt},
			{Name: "weight", Kind: KindFloat},
			{Name: "reps", Kind: KindInt},
			{Name: "rpe", Kind: KindFloat},
			{Name: "completed", Kind: KindBool},
			{Name: "timestamp", Kind: KindTime},
		},
	},
	UserSettings: {
		Name: UserSettings,
		Key:  OwnerColumn,
		Columns: []Column{
			{Name: OwnerColumn, Kind: KindInt, ReadOnly: true},
			{Name: "settings", Kind: KindJSON},
			{Name: UpdatedAtColumn, Kind: KindTime},
		},
	},
}

// Lookup возвращает схему таблицы по имени
func Lookup(name string) (Schema, error) {
	s, ok := schemas[name]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return s, nil
}

// Names имена всех доступных таблиц
func Names() []string {
	return []string{Exercises, Templates, ScheduledWorkouts, Workouts, WorkoutSets, UserSettings}
}

func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames все колонки в порядке объявления
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// HasUpdatedAt есть ли в таблице метка последнего изменения
func (s Schema) HasUpdatedAt() bool {
	_, ok := s.Column(UpdatedAtColumn)
	return ok
}

// Coerce приводит значение из JSON к типу колонки
func (c Column) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch c.Kind {
	case KindInt:
		return coerceInt(c.Name, v)
	case KindFloat:
		return coerceFloat(c.Name, v)
	case KindText:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			if parsed, err := strconv.ParseBool(b); err == nil {
				return parsed, nil
			}
		}
	case KindJSON:
		return v, nil
	case KindTime:
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case string:
			if t == "" {
				return nil, nil
			}
			if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
				return parsed, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s=%v", ErrInvalidValue, c.Name, v)
}

func coerceInt(name string, v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n == math.Trunc(n) {
			return int64(n), nil
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, nil
		}
	}
	return nil, fmt.Errorf("%w: %s=%v", ErrInvalidValue, name, v)
}

func coerceFloat(name string, v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, nil
		}
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s=%v", ErrInvalidValue, name, v)
}
