package remote

import (
	"context"

	"workoutsync/internal/domain/table"
)

// MemoryStore Backend без сети: запросы одного пользователя передаются
// напрямую сервису таблиц. Несколько MemoryStore над одним сервисом
// изображают несколько устройств одного пользователя.
type MemoryStore struct {
	svc    table.Servicer
	userID int
}

func NewMemoryStore(svc table.Servicer, userID int) *MemoryStore {
	return &MemoryStore{svc: svc, userID: userID}
}

func (m *MemoryStore) Select(ctx context.Context, name string, f table.Filter) ([]table.Row, error) {
	return m.svc.Select(ctx, m.userID, name, f)
}

func (m *MemoryStore) Insert(ctx context.Context, name string, row table.Row) (table.Row, error) {
	return m.svc.Insert(ctx, m.userID, name, row)
}

func (m *MemoryStore) Upsert(ctx context.Context, name string, row table.Row, onConflict []string) (table.Row, error) {
	return m.svc.Upsert(ctx, m.userID, name, row, onConflict)
}

func (m *MemoryStore) Update(ctx context.Context, name string, key any, row table.Row) error {
	return m.svc.Update(ctx, m.userID, name, key, row)
}

func (m *MemoryStore) Delete(ctx context.Context, name string, f table.Filter) (int64, error) {
	return m.svc.Delete(ctx, m.userID, name, f)
}

func (m *MemoryStore) CurrentUserID(context.Context) (int64, error) {
	return int64(m.userID), nil
}
