// Package storage содержит хранилище строк таблиц синхронизации в памяти
// процесса. Оно повторяет поведение Postgres-репозитория: строки
// ограничены владельцем, подходы ссылаются на упражнения и тренировки,
// удаление тренировки каскадно удаляет ее подходы.
package storage

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"workoutsync/internal/domain/table"
)

// reference внешний ключ: колонка column таблицы from указывает на ключ target
type reference struct {
	from, column, target string
	cascade              bool
}

var references = []reference{
	{from: table.WorkoutSets, column: "exercise_id", target: table.Exercises},
	{from: table.WorkoutSets, column: "workout_id", target: table.Workouts, cascade: true},
}

type Memory struct {
	mu     sync.Mutex
	seq    int64
	tables map[string]map[int64]table.Row
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string]map[int64]table.Row)}
}

func (m *Memory) rows(name string) map[int64]table.Row {
	t, ok := m.tables[name]
	if !ok {
		t = make(map[int64]table.Row)
		m.tables[name] = t
	}
	return t
}

func (m *Memory) Select(_ context.Context, s table.Schema, userID int, f table.Filter) ([]table.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []table.Row
	for _, key := range m.matching(s, userID, f) {
		out = append(out, m.project(s, m.rows(s.Name)[key]))
	}
	return out, nil
}

func (m *Memory) Insert(_ context.Context, s table.Schema, userID int, row table.Row) (table.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(s, userID, row)
}

func (m *Memory) Upsert(_ context.Context, s table.Schema, userID int, row table.Row, onConflict []string) (table.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var match table.Filter
	for _, name := range onConflict {
		if name == table.OwnerColumn {
			continue
		}
		col, _ := s.Column(name)
		match = append(match, table.Cond{Field: name, Value: row[name], Fold: col.Kind == table.KindText})
	}

	keys := m.matching(s, userID, match)
	if len(keys) == 0 {
		return m.insert(s, userID, row)
	}
	if err := m.update(s, keys[0], row); err != nil {
		return nil, err
	}
	return m.project(s, m.rows(s.Name)[keys[0]]), nil
}

func (m *Memory) Update(_ context.Context, s table.Schema, userID int, key any, row table.Row) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := m.matching(s, userID, table.Where(table.Eq(s.Key, key)))
	if len(keys) == 0 {
		return 0, nil
	}
	if err := m.update(s, keys[0], row); err != nil {
		return 0, err
	}
	return 1, nil
}

func (m *Memory) Delete(_ context.Context, s table.Schema, userID int, f table.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := m.matching(s, userID, f)
	for _, key := range keys {
		if err := m.checkReferenced(s, key); err != nil {
			return 0, err
		}
	}

	for _, key := range keys {
		m.cascade(s, key)
		delete(m.rows(s.Name), key)
	}
	return int64(len(keys)), nil
}

func (m *Memory) insert(s table.Schema, userID int, row table.Row) (table.Row, error) {
	if err := m.checkReferences(s, userID, row); err != nil {
		return nil, err
	}

	stored := make(table.Row, len(row)+2)
	for k, v := range row {
		stored[k] = v
	}
	stored[table.OwnerColumn] = int64(userID)

	var key int64
	if s.Key == table.OwnerColumn {
		key = int64(userID)
		if _, exists := m.rows(s.Name)[key]; exists {
			return nil, fmt.Errorf("duplicate key %s=%d", s.Key, key)
		}
	} else {
		m.seq++
		key = m.seq
		stored[s.Key] = key
	}

	m.rows(s.Name)[key] = stored
	return m.project(s, stored), nil
}

func (m *Memory) update(s table.Schema, key int64, row table.Row) error {
	current := m.rows(s.Name)[key]
	userID := current[table.OwnerColumn].(int64)
	if err := m.checkReferences(s, int(userID), row); err != nil {
		return err
	}
	for k, v := range row {
		if k == s.Key || k == table.OwnerColumn {
			continue
		}
		current[k] = v
	}
	return nil
}

// matching ключи строк владельца, подходящих под фильтр, по возрастанию
func (m *Memory) matching(s table.Schema, userID int, f table.Filter) []int64 {
	var keys []int64
	for key, row := range m.rows(s.Name) {
		if row[table.OwnerColumn] != int64(userID) {
			continue
		}
		if matches(row, f) {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func matches(row table.Row, f table.Filter) bool {
	for _, c := range f {
		v := row[c.Field]
		switch {
		case c.Value == nil:
			if v != nil {
				return false
			}
		case c.Fold:
			a, okA := v.(string)
			b, okB := c.Value.(string)
			if !okA || !okB || !strings.EqualFold(a, b) {
				return false
			}
		default:
			if !sameValue(v, c.Value) {
				return false
			}
		}
	}
	return true
}

func sameValue(a, b any) bool {
	ta, okA := a.(time.Time)
	tb, okB := b.(time.Time)
	if okA && okB {
		return ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

// checkReferences проверяет, что ссылки строки указывают на существующие строки владельца
func (m *Memory) checkReferences(s table.Schema, userID int, row table.Row) error {
	for _, ref := range references {
		if ref.from != s.Name {
			continue
		}
		v, ok := row[ref.column]
		if !ok || v == nil {
			continue
		}
		target, _ := table.Lookup(ref.target)
		if len(m.matching(target, userID, table.Where(table.Eq(target.Key, v)))) == 0 {
			return fmt.Errorf("%w: %s.%s", table.ErrReferenced, ref.from, ref.column)
		}
	}
	return nil
}

// checkReferenced запрещает удалять строку, на которую ссылаются без каскада
func (m *Memory) checkReferenced(s table.Schema, key int64) error {
	for _, ref := range references {
		if ref.target != s.Name || ref.cascade {
			continue
		}
		for _, row := range m.rows(ref.from) {
			if sameValue(row[ref.column], key) {
				return fmt.Errorf("%w: %s.%s", table.ErrReferenced, ref.from, ref.column)
			}
		}
	}
	return nil
}

func (m *Memory) cascade(s table.Schema, key int64) {
	for _, ref := range references {
		if ref.target != s.Name || !ref.cascade {
			continue
		}
		for k, row := range m.rows(ref.from) {
			if sameValue(row[ref.column], key) {
				delete(m.rows(ref.from), k)
			}
		}
	}
}

// project копия строки со всеми колонками схемы, отсутствующие равны nil
func (m *Memory) project(s table.Schema, row table.Row) table.Row {
	out := make(table.Row, len(s.Columns))
	for _, c := range s.Columns {
		out[c.Name] = row[c.Name]
	}
	return out
}
