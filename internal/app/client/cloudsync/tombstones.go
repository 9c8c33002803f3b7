package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"workoutsync/internal/app/client/localstore"
	"workoutsync/internal/app/client/remote"
	"workoutsync/internal/domain/table"
	"workoutsync/internal/domain/workout"
)

// Tombstones хранит намерения удалить записи на сервере и выполняет их.
// Запись об удалении убирается только после успеха на сервере.
type Tombstones struct {
	local    localstore.Tombstones
	remote   *remote.Store
	identity *IdentityMapper
	log      *slog.Logger
	now      func() time.Time
}

func NewTombstones(local localstore.Tombstones, r *remote.Store, identity *IdentityMapper, log *slog.Logger) *Tombstones {
	return &Tombstones{
		local:    local,
		remote:   r,
		identity: identity,
		log:      log.With("component", "tombstones"),
		now:      time.Now,
	}
}

// RecordDeletion сохраняет запись об удалении в момент локального удаления
func (t *Tombstones) RecordDeletion(ctx context.Context, target workout.Tombstone) error {
	if target == nil {
		return workout.ErrUnknownTombstone
	}
	if err := target.Kind().Validate(); err != nil {
		return err
	}
	if _, err := t.local.AddDeletedItem(ctx, workout.DeletedItem{Target: target, DeletedAt: t.now()}); err != nil {
		return fmt.Errorf("ошибка сохранения записи об удалении: %w", err)
	}
	return nil
}

// Flush выполняет все ожидающие удаления
func (t *Tombstones) Flush(ctx context.Context, userID int64) (Counts, error) {
	items, err := t.local.ListDeletedItems(ctx)
	if err != nil {
		return Counts{}, fmt.Errorf("чтение записей об удалении: %w", err)
	}

	var c Counts
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return c, err
		}
		if err := t.apply(ctx, userID, item.Target); err != nil {
			c.Failed++
			t.log.Warn("Удаление на сервере не выполнено",
				"kind", item.Target.Kind(), "item_id", item.ID, "error", err)
			continue
		}
		if err := t.local.RemoveDeletedItem(ctx, item.ID); err != nil {
			c.Failed++
			t.log.Warn("Не удалось убрать запись об удалении", "item_id", item.ID, "error", err)
			continue
		}
		c.Synced++
	}
	return c, nil
}

func (t *Tombstones) apply(ctx context.Context, userID int64, target workout.Tombstone) error {
	switch ts := target.(type) {
	case workout.TemplateTombstone:
		_, err := t.remote.Templates.Delete(ctx, table.Where(
			table.Eq(table.OwnerColumn, userID),
			table.IEq("name", ts.Name),
		))
		return err
	case workout.ScheduleTombstone:
		_, err := t.remote.Schedules.Delete(ctx, table.Where(
			table.Eq(table.OwnerColumn, userID),
			table.Eq("date", ts.Date),
			table.IEq("template_name", ts.TemplateName),
		))
		return err
	case workout.ExerciseTombstone:
		return t.deleteExercise(ctx, ts)
	default:
		return fmt.Errorf("%w: %T", workout.ErrUnknownTombstone, target)
	}
}

// deleteExercise удаляет строку, найденную по тегу local_id. Если на нее
// ссылаются подходы, строка помечается deleted=true.
func (t *Tombstones) deleteExercise(ctx context.Context, ts workout.ExerciseTombstone) error {
	rows, err := t.identity.FindByTag(ctx, ts.LocalID, ts.Name)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		t.log.Info("Упражнение на сервере не найдено по тегу, удаление пропущено",
			"local_id", ts.LocalID, "name", ts.Name)
		return nil
	}

	for _, row := range rows {
		err := t.remote.Exercises.DeleteByID(ctx, row.ID)
		if errors.Is(err, remote.ErrReferenced) {
			t.log.Debug("Упражнение используется в подходах, мягкое удаление", "remote_id", row.ID)
			err = t.remote.Exercises.Patch(ctx, row.ID, table.Row{"deleted": true})
		}
		if err != nil {
			return fmt.Errorf("удаление упражнения %d: %w", row.ID, err)
		}
	}
	return nil
}
