package cloudsync

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/exp/slog"

	"workoutsync/internal/app/client/remote"
	"workoutsync/internal/domain/table"
	"workoutsync/internal/domain/workout"
)

// IdentityMapper сопоставляет локальные упражнения строкам сервера. Тег
// local_id на сервере хранит id упражнения на устройстве, которое
// синхронизировало его последним.
type IdentityMapper struct {
	remote *remote.Store
	log    *slog.Logger

	mu    sync.Mutex
	cache map[int64]int64
}

func NewIdentityMapper(r *remote.Store, log *slog.Logger) *IdentityMapper {
	return &IdentityMapper{
		remote: r,
		log:    log.With("component", "identity_mapper"),
		cache:  make(map[int64]int64),
	}
}

// Reset очищает кэш сопоставлений между запусками синхронизации
func (m *IdentityMapper) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[int64]int64)
}

// ResolveExerciseID серверный id упражнения
func (m *IdentityMapper) ResolveExerciseID(ctx context.Context, e workout.Exercise) (int64, error) {
	m.mu.Lock()
	id, ok := m.cache[e.ID]
	m.mu.Unlock()
	if ok {
		return id, nil
	}

	row, err := m.Resolve(ctx, e)
	if err != nil {
		return 0, err
	}
	return row.ID, nil
}

// Resolve ищет строку упражнения по тегу local_id, затем по имени без учета
// регистра и переписывает тег на id этого устройства, иначе вставляет
// новую строку
func (m *IdentityMapper) Resolve(ctx context.Context, e workout.Exercise) (remote.ExerciseRow, error) {
	rows, err := m.FindByTag(ctx, e.ID, e.Name)
	if err != nil {
		return remote.ExerciseRow{}, err
	}
	if len(rows) > 0 {
		m.remember(e.ID, rows[0].ID)
		return rows[0], nil
	}

	rows, err = m.remote.Exercises.Select(ctx, table.Where(table.IEq("name", e.Name)))
	if err != nil {
		return remote.ExerciseRow{}, fmt.Errorf("поиск упражнения %q по имени: %w", e.Name, err)
	}
	if len(rows) > 0 {
		row := rows[0]
		if err := m.remote.Exercises.Patch(ctx, row.ID, table.Row{"local_id": e.ID}); err != nil {
			return remote.ExerciseRow{}, fmt.Errorf("обновление тега упражнения %q: %w", e.Name, err)
		}
		m.log.Debug("Тег упражнения перенесен на это устройство",
			"name", e.Name, "remote_id", row.ID, "previous_tag", remote.TagOf(row.LocalID), "local_id", e.ID)
		row.LocalID = remote.LocalTag(e.ID)
		m.remember(e.ID, row.ID)
		return row, nil
	}

	inserted, err := m.remote.Exercises.Insert(ctx, remote.ExerciseRow{
		LocalID:      remote.LocalTag(e.ID),
		Name:         e.Name,
		MuscleGroups: e.MuscleGroups,
		Equipment:    e.Equipment,
	})
	if err != nil {
		return remote.ExerciseRow{}, fmt.Errorf("вставка упражнения %q: %w", e.Name, err)
	}
	m.remember(e.ID, inserted.ID)
	return inserted, nil
}

// FindByTag строки с тегом localID. Имя проверяется дополнительно: у разных
// устройств локальные id пересекаются.
func (m *IdentityMapper) FindByTag(ctx context.Context, localID int64, name string) ([]remote.ExerciseRow, error) {
	rows, err := m.remote.Exercises.Select(ctx, table.Where(table.Eq("local_id", localID), table.IEq("name", name)))
	if err != nil {
		return nil, fmt.Errorf("поиск упражнения по тегу %d: %w", localID, err)
	}
	return rows, nil
}

func (m *IdentityMapper) remember(localID, remoteID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[localID] = remoteID
}

// keyed строка с серверным ключом
type keyed interface {
	RowID() int64
}

// collapse удаляет все строки, кроме первой, найденные по одному
// естественному ключу. Возвращает число удаленных строк.
func collapse[R keyed](ctx context.Context, t *remote.Table[R], rows []R) (int, error) {
	if len(rows) < 2 {
		return 0, nil
	}
	removed := 0
	for _, dup := range rows[1:] {
		if err := t.DeleteByID(ctx, dup.RowID()); err != nil {
			return removed, fmt.Errorf("удаление дубликата %s/%d: %w", t.Name(), dup.RowID(), err)
		}
		removed++
	}
	return removed, nil
}
