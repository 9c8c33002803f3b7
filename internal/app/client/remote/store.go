// Package remote типизированный доступ к таблицам сервера синхронизации.
// Движок синхронизации работает только с типизированными строками,
// преобразование в JSON-строки таблиц выполняется на границе пакета.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"workoutsync/internal/domain/table"
)

var (
	// ErrReferenced удаление отклонено: на строку ссылаются другие таблицы
	ErrReferenced = table.ErrReferenced
	// ErrNotFound строка с указанным ключом отсутствует
	ErrNotFound = table.ErrNotFound
	// ErrUnauthorized сессия отсутствует или истекла
	ErrUnauthorized = errors.New("unauthorized")
)

// Backend операции над строками таблиц, ограниченные текущим пользователем
type Backend interface {
	Select(ctx context.Context, name string, f table.Filter) ([]table.Row, error)
	Insert(ctx context.Context, name string, row table.Row) (table.Row, error)
	Upsert(ctx context.Context, name string, row table.Row, onConflict []string) (table.Row, error)
	Update(ctx context.Context, name string, key any, row table.Row) error
	Delete(ctx context.Context, name string, f table.Filter) (int64, error)
	CurrentUserID(ctx context.Context) (int64, error)
}

// Table типизированная таблица
type Table[R any] struct {
	name    string
	backend Backend
}

func NewTable[R any](name string, backend Backend) *Table[R] {
	return &Table[R]{name: name, backend: backend}
}

func (t *Table[R]) Name() string {
	return t.name
}

func (t *Table[R]) Select(ctx context.Context, f table.Filter) ([]R, error) {
	if f == nil {
		f = table.Filter{}
	}
	rows, err := t.backend.Select(ctx, t.name, f)
	if err != nil {
		return nil, err
	}
	out := make([]R, 0, len(rows))
	for _, row := range rows {
		r, err := fromRow[R](row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.name, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (t *Table[R]) Insert(ctx context.Context, r R) (R, error) {
	var zero R
	row, err := toRow(r)
	if err != nil {
		return zero, err
	}
	inserted, err := t.backend.Insert(ctx, t.name, row)
	if err != nil {
		return zero, err
	}
	return fromRow[R](inserted)
}

// Upsert обновляет первую строку, совпавшую по колонкам conflictKey, или
// вставляет новую
func (t *Table[R]) Upsert(ctx context.Context, r R, conflictKey ...string) (R, error) {
	var zero R
	row, err := toRow(r)
	if err != nil {
		return zero, err
	}
	upserted, err := t.backend.Upsert(ctx, t.name, row, conflictKey)
	if err != nil {
		return zero, err
	}
	return fromRow[R](upserted)
}

func (t *Table[R]) Update(ctx context.Context, id int64, r R) error {
	row, err := toRow(r)
	if err != nil {
		return err
	}
	return t.backend.Update(ctx, t.name, id, row)
}

// Patch обновляет только переданные колонки
func (t *Table[R]) Patch(ctx context.Context, id int64, row table.Row) error {
	return t.backend.Update(ctx, t.name, id, row)
}

func (t *Table[R]) Delete(ctx context.Context, f table.Filter) (int64, error) {
	return t.backend.Delete(ctx, t.name, f)
}

// DeleteByID удаляет одну строку по серверному ключу
func (t *Table[R]) DeleteByID(ctx context.Context, id int64) error {
	_, err := t.backend.Delete(ctx, t.name, table.Where(table.Eq("id", id)))
	return err
}

// toRow строка без ключевых колонок: их назначает сервер
func toRow[R any](r R) (table.Row, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации строки: %w", err)
	}
	var row table.Row
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("ошибка сериализации строки: %w", err)
	}
	delete(row, "id")
	delete(row, table.OwnerColumn)
	return row, nil
}

func fromRow[R any](row table.Row) (R, error) {
	var r R
	data, err := json.Marshal(row)
	if err != nil {
		return r, fmt.Errorf("ошибка разбора строки: %w", err)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("ошибка разбора строки: %w", err)
	}
	return r, nil
}

// Store таблицы сервера, используемые синхронизацией
type Store struct {
	backend Backend

	Exercises *Table[ExerciseRow]
	Templates *Table[TemplateRow]
	Schedules *Table[ScheduleRow]
	Workouts  *Table[WorkoutRow]
	Sets      *Table[SetRow]
	Settings  *Table[SettingsRow]
}

func NewStore(backend Backend) *Store {
	return &Store{
		backend:   backend,
		Exercises: NewTable[ExerciseRow](table.Exercises, backend),
		Templates: NewTable[TemplateRow](table.Templates, backend),
		Schedules: NewTable[ScheduleRow](table.ScheduledWorkouts, backend),
		Workouts:  NewTable[WorkoutRow](table.Workouts, backend),
		Sets:      NewTable[SetRow](table.WorkoutSets, backend),
		Settings:  NewTable[SettingsRow](table.UserSettings, backend),
	}
}

// CurrentUserID идентификатор пользователя текущей сессии
func (s *Store) CurrentUserID(ctx context.Context) (int64, error) {
	return s.backend.CurrentUserID(ctx)
}
