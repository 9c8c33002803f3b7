// Package cloudsync синхронизация локального хранилища устройства с
// сервером. Полная синхронизация проходит фиксированную последовательность
// фаз, ошибка в одной фазе не прерывает остальные.
package cloudsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"workoutsync/internal/app/client/localstore"
	"workoutsync/internal/app/client/remote"
)

// ErrSyncInProgress синхронизация уже запущена на этом устройстве
var ErrSyncInProgress = errors.New("синхронизация уже выполняется")

const (
	PhaseTombstones = "tombstones"
	PhaseSettings   = "settings"
	PhaseExercises  = "exercises"
	PhaseTemplates  = "templates"
	PhaseSchedules  = "scheduled_workouts"
	PhaseHistory    = "workout_history"
	PhaseLocalDedup = "local_dedup"
)

// Counts итог фазы: отправлено, с ошибкой, применено с сервера
type Counts struct {
	Synced     int `json:"synced"`
	Failed     int `json:"failed"`
	Downloaded int `json:"downloaded"`
}

func (c *Counts) add(o Counts) {
	c.Synced += o.Synced
	c.Failed += o.Failed
	c.Downloaded += o.Downloaded
}

type PhaseResult struct {
	Name string `json:"name"`
	Counts
	Error string `json:"error,omitempty"`
}

// Report результат полной синхронизации
type Report struct {
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Phases    []PhaseResult `json:"phases"`
}

func (r *Report) Totals() Counts {
	var c Counts
	for _, p := range r.Phases {
		c.add(p.Counts)
	}
	return c
}

// Success все фазы прошли без ошибок и неудачных записей
func (r *Report) Success() bool {
	for _, p := range r.Phases {
		if p.Error != "" || p.Failed > 0 {
			return false
		}
	}
	return true
}

func (r *Report) Phase(name string) (PhaseResult, bool) {
	for _, p := range r.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return PhaseResult{}, false
}

// Stats накопленная статистика, хранится в sync_stats.json
type Stats struct {
	TotalSyncs      int       `json:"total_syncs"`
	LastSuccessful  time.Time `json:"last_successful"`
	LastFailed      time.Time `json:"last_failed"`
	TotalUploaded   int       `json:"total_uploaded"`
	TotalDownloaded int       `json:"total_downloaded"`
	TotalErrors     int       `json:"total_errors"`
	AvgSyncDuration float64   `json:"avg_sync_duration"`
	LastReport      *Report   `json:"last_report,omitempty"`
}

type Config struct {
	Timeout   time.Duration
	Interval  time.Duration
	StatsPath string
}

// deps общие зависимости синхронизаторов
type deps struct {
	local    localstore.Store
	remote   *remote.Store
	names    *Names
	identity *IdentityMapper
	log      *slog.Logger
	now      func() time.Time
}

type phase struct {
	name string
	run  func(ctx context.Context, userID int64) (Counts, error)
}

type Service struct {
	remote *remote.Store
	log    *slog.Logger
	cfg    Config

	identity   *IdentityMapper
	tombstones *Tombstones
	Settings   *SettingsSyncer
	Exercises  *ExerciseSyncer
	Templates  *TemplateSyncer
	Schedules  *ScheduleSyncer
	History    *HistorySyncer
	Dedup      *Deduplicator

	mu        sync.RWMutex
	isSyncing bool
	lastSync  time.Time
	stats     *Stats
}

func NewService(local localstore.Store, r *remote.Store, cfg Config, log *slog.Logger) *Service {
	log = log.With("component", "cloudsync")
	identity := NewIdentityMapper(r, log)
	d := deps{
		local:    local,
		remote:   r,
		names:    NewNames(local),
		identity: identity,
		log:      log,
		now:      time.Now,
	}

	s := &Service{
		remote:     r,
		log:        log,
		cfg:        cfg,
		identity:   identity,
		tombstones: NewTombstones(local, r, identity, log),
		Settings:   &SettingsSyncer{deps: d},
		Exercises:  &ExerciseSyncer{deps: d},
		Templates:  &TemplateSyncer{deps: d},
		Schedules:  &ScheduleSyncer{deps: d},
		History:    &HistorySyncer{deps: d},
		Dedup:      &Deduplicator{deps: d},
		stats:      &Stats{},
	}

	if stats, err := loadStats(cfg.StatsPath); err == nil {
		s.stats = stats
		if stats.LastReport != nil {
			s.lastSync = stats.LastReport.EndTime
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		log.Warn("Не удалось прочитать статистику синхронизации", "error", err)
	}
	return s
}

// Tombstones менеджер записей об удалении
func (s *Service) Tombstones() *Tombstones {
	return s.tombstones
}

func (s *Service) phases() []phase {
	return []phase{
		{name: PhaseTombstones, run: s.tombstones.Flush},
		{name: PhaseSettings, run: twoWay(s.Settings.Upload, s.Settings.Download)},
		{name: PhaseExercises, run: twoWay(s.Exercises.Upload, s.Exercises.Download)},
		{name: PhaseTemplates, run: twoWay(s.Templates.Upload, s.Templates.Download)},
		{name: PhaseSchedules, run: twoWay(s.Schedules.Upload, s.Schedules.Download)},
		{name: PhaseHistory, run: s.History.Upload},
		{name: PhaseLocalDedup, run: s.Dedup.Run},
	}
}

func twoWay(
	upload func(context.Context, int64) (Counts, error),
	download func(context.Context, int64) (int, error),
) func(context.Context, int64) (Counts, error) {
	return func(ctx context.Context, userID int64) (Counts, error) {
		c, upErr := upload(ctx, userID)
		if err := ctx.Err(); err != nil {
			return c, errors.Join(upErr, err)
		}
		n, downErr := download(ctx, userID)
		c.Downloaded = n
		return c, errors.Join(upErr, downErr)
	}
}

// FullCloudSync выполняет все фазы по порядку. Общая длительность
// ограничена Config.Timeout, по истечении оставшиеся фазы помечаются
// ошибкой контекста.
func (s *Service) FullCloudSync(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	report := &Report{StartTime: time.Now()}
	s.log.Info("Начало синхронизации", "start_time", report.StartTime)

	userID, err := s.remote.CurrentUserID(ctx)
	if err != nil {
		report.EndTime = time.Now()
		report.Duration = report.EndTime.Sub(report.StartTime)
		s.updateStats(report, false)
		return report, fmt.Errorf("не удалось определить пользователя: %w", err)
	}

	s.identity.Reset()
	for _, p := range s.phases() {
		result := PhaseResult{Name: p.name}
		if err := ctx.Err(); err != nil {
			result.Error = err.Error()
			report.Phases = append(report.Phases, result)
			continue
		}

		counts, err := p.run(ctx, userID)
		result.Counts = counts
		if err != nil {
			result.Error = err.Error()
			s.log.Error("Фаза синхронизации завершилась с ошибкой", "phase", p.name, "error", err)
		}
		s.log.Debug("Фаза синхронизации", "phase", p.name,
			"synced", counts.Synced, "failed", counts.Failed, "downloaded", counts.Downloaded)
		report.Phases = append(report.Phases, result)
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	s.updateStats(report, report.Success())

	totals := report.Totals()
	s.log.Info("Синхронизация завершена",
		"duration", report.Duration,
		"synced", totals.Synced,
		"failed", totals.Failed,
		"downloaded", totals.Downloaded,
	)
	return report, nil
}

// StartAutoSync запускает синхронизацию по таймеру до отмены контекста
func (s *Service) StartAutoSync(ctx context.Context, onReport func(*Report, error)) {
	interval := s.cfg.Interval
	if interval <= 0 {
		s.log.Info("Автоматическая синхронизация отключена")
		return
	}

	s.log.Info("Запуск автоматической синхронизации", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Автоматическая синхронизация остановлена")
			return
		case <-ticker.C:
			report, err := s.FullCloudSync(ctx)
			if err != nil {
				s.log.Error("Ошибка автоматической синхронизации", "error", err)
			}
			if onReport != nil {
				onReport(report, err)
			}
		}
	}
}

func (s *Service) updateStats(report *Report, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.TotalSyncs++
	if success {
		s.stats.LastSuccessful = report.EndTime
	} else {
		s.stats.LastFailed = report.EndTime
	}

	totals := report.Totals()
	s.stats.TotalUploaded += totals.Synced
	s.stats.TotalDownloaded += totals.Downloaded
	s.stats.TotalErrors += totals.Failed
	for _, p := range report.Phases {
		if p.Error != "" {
			s.stats.TotalErrors++
		}
	}

	s.stats.AvgSyncDuration = (s.stats.AvgSyncDuration*float64(s.stats.TotalSyncs-1) +
		report.Duration.Seconds()) / float64(s.stats.TotalSyncs)
	s.stats.LastReport = report
	s.lastSync = report.EndTime

	s.saveStats()
}

// GetStats возвращает копию статистики
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.stats
}

func (s *Service) GetLastSyncTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSync
}

func (s *Service) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// ResetStats сбрасывает статистику синхронизации
func (s *Service) ResetStats() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats = &Stats{}
	s.lastSync = time.Time{}
	s.saveStats()
}

func (s *Service) saveStats() {
	if s.cfg.StatsPath == "" {
		return
	}

	data, err := json.MarshalIndent(s.stats, "", "  ")
	if err != nil {
		s.log.Error("Ошибка сериализации статистики", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.cfg.StatsPath), 0700); err != nil {
		s.log.Error("Ошибка создания каталога статистики", "error", err)
		return
	}
	if err := os.WriteFile(s.cfg.StatsPath, data, 0600); err != nil {
		s.log.Error("Ошибка записи статистики", "error", err)
	}
}

func loadStats(path string) (*Stats, error) {
	if path == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("ошибка парсинга статистики: %w", err)
	}
	return &stats, nil
}
