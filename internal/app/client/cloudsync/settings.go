package cloudsync

import (
	"context"
	"fmt"
	"time"

	"workoutsync/internal/app/client/remote"
	"workoutsync/internal/domain/table"
	"workoutsync/internal/domain/workout"
)

// Сервер хранит время с точностью до микросекунды
const stampPrecision = time.Microsecond

// newer a строго новее b
func newer(a, b time.Time) bool {
	return a.Truncate(stampPrecision).After(b.Truncate(stampPrecision))
}

func firstStamp(candidates ...*time.Time) time.Time {
	for _, t := range candidates {
		if t != nil && !t.IsZero() {
			return *t
		}
	}
	return time.Time{}
}

type SettingsSyncer struct {
	deps
}

func (s *SettingsSyncer) fetch(ctx context.Context, userID int64) (*remote.SettingsRow, error) {
	rows, err := s.remote.Settings.Select(ctx, table.Where(table.Eq(table.OwnerColumn, userID)))
	if err != nil {
		return nil, fmt.Errorf("чтение настроек с сервера: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Upload отправляет настройки, если серверная копия не новее локальной
func (s *SettingsSyncer) Upload(ctx context.Context, userID int64) (Counts, error) {
	local, err := s.local.GetSettings(ctx)
	if err != nil {
		return Counts{}, fmt.Errorf("чтение настроек: %w", err)
	}
	// Настройки по умолчанию не имеют отметки времени и не отправляются
	if local.UpdatedAt.IsZero() {
		return Counts{}, nil
	}
	current, err := s.fetch(ctx, userID)
	if err != nil {
		return Counts{Failed: 1}, err
	}

	if current != nil {
		if newer(firstStamp(current.UpdatedAt), local.UpdatedAt) {
			return Counts{}, nil
		}
		if local.Synced && local.SameValues(settingsFromRow(*current)) {
			return Counts{}, nil
		}
	}

	_, err = s.remote.Settings.Upsert(ctx, remote.SettingsRow{
		Settings: remote.SettingsPayload{
			WeightUnit:       local.WeightUnit,
			RestTimerSeconds: local.RestTimerSeconds,
			WeekStart:        local.WeekStart,
		},
		UpdatedAt: &local.UpdatedAt,
	}, table.OwnerColumn)
	if err != nil {
		return Counts{Failed: 1}, fmt.Errorf("отправка настроек: %w", err)
	}

	local.Synced = true
	if err := s.local.SaveSettings(ctx, local); err != nil {
		return Counts{Failed: 1}, fmt.Errorf("сохранение настроек: %w", err)
	}
	return Counts{Synced: 1}, nil
}

// Download применяет серверные настройки, если они строго новее
func (s *SettingsSyncer) Download(ctx context.Context, userID int64) (int, error) {
	current, err := s.fetch(ctx, userID)
	if err != nil || current == nil {
		return 0, err
	}
	local, err := s.local.GetSettings(ctx)
	if err != nil {
		return 0, fmt.Errorf("чтение настроек: %w", err)
	}

	stamp := firstStamp(current.UpdatedAt)
	if !newer(stamp, local.UpdatedAt) {
		return 0, nil
	}

	next := settingsFromRow(*current)
	next.UpdatedAt = stamp
	next.Synced = true
	if err := s.local.SaveSettings(ctx, next); err != nil {
		return 0, fmt.Errorf("сохранение настроек: %w", err)
	}
	return 1, nil
}

func settingsFromRow(r remote.SettingsRow) workout.Settings {
	return workout.Settings{
		WeightUnit:       r.Settings.WeightUnit,
		RestTimerSeconds: r.Settings.RestTimerSeconds,
		WeekStart:        r.Settings.WeekStart,
	}
}
