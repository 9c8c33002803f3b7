package localstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"workoutsync/internal/domain/workout"
)

// Memory хранилище в памяти процесса. Используется, если файл базы открыть
// не удалось, и в тестах.
type Memory struct {
	mu        sync.RWMutex
	seq       int64
	exercises map[int64]workout.Exercise
	workouts  map[int64]workout.Workout
	sets      map[int64]workout.WorkoutSet
	templates map[int64]workout.WorkoutTemplate
	schedules map[int64]workout.ScheduledWorkout
	deleted   map[int64]workout.DeletedItem
	settings  *workout.Settings
}

func NewMemory() *Memory {
	return &Memory{
		exercises: map[int64]workout.Exercise{},
		workouts:  map[int64]workout.Workout{},
		sets:      map[int64]workout.WorkoutSet{},
		templates: map[int64]workout.WorkoutTemplate{},
		schedules: map[int64]workout.ScheduledWorkout{},
		deleted:   map[int64]workout.DeletedItem{},
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) next() int64 {
	m.seq++
	return m.seq
}

func sortedValues[T any](items map[int64]T) []T {
	keys := make([]int64, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, items[k])
	}
	return out
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
}

// ==================== Exercises ====================

func (m *Memory) AddExercise(_ context.Context, e workout.Exercise) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.next()
	e.MuscleGroups = workout.NormalizeMuscleGroups(e.MuscleGroups)
	m.exercises[e.ID] = e
	return e.ID, nil
}

func (m *Memory) GetExercise(_ context.Context, id int64) (workout.Exercise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exercises[id]
	if !ok {
		return workout.Exercise{}, notFound("упражнение", id)
	}
	return e, nil
}

func (m *Memory) UpdateExercise(_ context.Context, e workout.Exercise) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exercises[e.ID]; !ok {
		return notFound("упражнение", e.ID)
	}
	e.MuscleGroups = workout.NormalizeMuscleGroups(e.MuscleGroups)
	m.exercises[e.ID] = e
	return nil
}

func (m *Memory) DeleteExercise(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exercises[id]; !ok {
		return notFound("упражнение", id)
	}
	delete(m.exercises, id)
	return nil
}

func (m *Memory) ListExercises(_ context.Context) ([]workout.Exercise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedValues(m.exercises), nil
}

func (m *Memory) ExercisesByIDs(_ context.Context, ids []int64) ([]workout.Exercise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []workout.Exercise
	for _, id := range ids {
		if e, ok := m.exercises[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// ==================== Workouts ====================

func (m *Memory) AddWorkout(_ context.Context, w workout.Workout) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.ID = m.next()
	m.workouts[w.ID] = w
	return w.ID, nil
}

func (m *Memory) GetWorkout(_ context.Context, id int64) (workout.Workout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workouts[id]
	if !ok {
		return workout.Workout{}, notFound("тренировка", id)
	}
	return w, nil
}

func (m *Memory) UpdateWorkout(_ context.Context, w workout.Workout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workouts[w.ID]; !ok {
		return notFound("тренировка", w.ID)
	}
	m.workouts[w.ID] = w
	return nil
}

func (m *Memory) DeleteWorkout(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workouts[id]; !ok {
		return notFound("тренировка", id)
	}
	delete(m.workouts, id)

	ref := workout.FormatID(id)
	for sid, ws := range m.sets {
		if ws.WorkoutID == ref {
			delete(m.sets, sid)
		}
	}
	return nil
}

func (m *Memory) ListWorkouts(_ context.Context) ([]workout.Workout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := sortedValues(m.workouts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (m *Memory) WorkoutsByStatus(_ context.Context, status workout.Status) ([]workout.Workout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []workout.Workout
	for _, w := range sortedValues(m.workouts) {
		if w.Status == status {
			out = append(out, w)
		}
	}
	return out, nil
}

// ==================== Sets ====================

func (m *Memory) AddSet(_ context.Context, ws workout.WorkoutSet) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws.ID = m.next()
	m.sets[ws.ID] = ws
	return ws.ID, nil
}

func (m *Memory) UpdateSet(_ context.Context, ws workout.WorkoutSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sets[ws.ID]; !ok {
		return notFound("подход", ws.ID)
	}
	m.sets[ws.ID] = ws
	return nil
}

func (m *Memory) DeleteSet(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sets[id]; !ok {
		return notFound("подход", id)
	}
	delete(m.sets, id)
	return nil
}

func (m *Memory) SetsByWorkout(_ context.Context, workoutID string) ([]workout.WorkoutSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []workout.WorkoutSet
	for _, ws := range sortedValues(m.sets) {
		if ws.WorkoutID == workoutID {
			out = append(out, ws)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SetNumber < out[j].SetNumber })
	return out, nil
}

func (m *Memory) SetsByExercise(_ context.Context, exerciseID string) ([]workout.WorkoutSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []workout.WorkoutSet
	for _, ws := range sortedValues(m.sets) {
		if ws.ExerciseID == exerciseID {
			out = append(out, ws)
		}
	}
	return out, nil
}

// ==================== Templates ====================

func (m *Memory) AddTemplate(_ context.Context, t workout.WorkoutTemplate) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.next()
	m.templates[t.ID] = t
	return t.ID, nil
}

func (m *Memory) GetTemplate(_ context.Context, id int64) (workout.WorkoutTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[id]
	if !ok {
		return workout.WorkoutTemplate{}, notFound("шаблон", id)
	}
	return t, nil
}

func (m *Memory) UpdateTemplate(_ context.Context, t workout.WorkoutTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[t.ID]; !ok {
		return notFound("шаблон", t.ID)
	}
	m.templates[t.ID] = t
	return nil
}

func (m *Memory) DeleteTemplate(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[id]; !ok {
		return notFound("шаблон", id)
	}
	delete(m.templates, id)
	return nil
}

func (m *Memory) ListTemplates(_ context.Context) ([]workout.WorkoutTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedValues(m.templates), nil
}

// ==================== Scheduled workouts ====================

func (m *Memory) AddSchedule(_ context.Context, sw workout.ScheduledWorkout) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sw.ID = m.next()
	m.schedules[sw.ID] = sw
	return sw.ID, nil
}

func (m *Memory) GetSchedule(_ context.Context, id int64) (workout.ScheduledWorkout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sw, ok := m.schedules[id]
	if !ok {
		return workout.ScheduledWorkout{}, notFound("запланированная тренировка", id)
	}
	return sw, nil
}

func (m *Memory) UpdateSchedule(_ context.Context, sw workout.ScheduledWorkout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[sw.ID]; !ok {
		return notFound("запланированная тренировка", sw.ID)
	}
	m.schedules[sw.ID] = sw
	return nil
}

func (m *Memory) DeleteSchedule(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return notFound("запланированная тренировка", id)
	}
	delete(m.schedules, id)
	return nil
}

func (m *Memory) ListSchedules(_ context.Context) ([]workout.ScheduledWorkout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := sortedValues(m.schedules)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// ==================== Deleted items ====================

func (m *Memory) AddDeletedItem(_ context.Context, item workout.DeletedItem) (int64, error) {
	if item.Target == nil {
		return 0, fmt.Errorf("%w: пустая запись об удалении", workout.ErrUnknownTombstone)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = m.next()
	if item.DeletedAt.IsZero() {
		item.DeletedAt = time.Now()
	}
	m.deleted[item.ID] = item
	return item.ID, nil
}

func (m *Memory) ListDeletedItems(_ context.Context) ([]workout.DeletedItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedValues(m.deleted), nil
}

func (m *Memory) RemoveDeletedItem(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.deleted[id]; !ok {
		return notFound("запись об удалении", id)
	}
	delete(m.deleted, id)
	return nil
}

// ==================== Settings ====================

func (m *Memory) GetSettings(_ context.Context) (workout.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return workout.DefaultSettings(), nil
	}
	return *m.settings, nil
}

func (m *Memory) SaveSettings(_ context.Context, s workout.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &s
	return nil
}
