package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"workoutsync/internal/app/client/cloudsync"
	"workoutsync/internal/app/client/config"
	"workoutsync/internal/app/client/localstore"
	"workoutsync/internal/app/client/remote"
	"workoutsync/internal/domain/user"
)

// ErrNotAuthenticated операция требует входа на сервер
var ErrNotAuthenticated = errors.New("требуется аутентификация. Выполните: workoutsync auth login")

// Session операции сессии на сервере
type Session interface {
	HealthCheck(ctx context.Context) error
	Register(ctx context.Context, login, password string) error
	Login(ctx context.Context, login, password string) (string, error)
	Logout(ctx context.Context) error
	SetToken(token string)
}

type App struct {
	config  *config.Config
	log     *slog.Logger
	store   localstore.Store
	backend remote.Backend
	session Session
	sync    *cloudsync.Service
	now     func() time.Time

	mu            gosync.RWMutex
	authenticated bool
}

// New собирает клиент: SQLite (или память, если файл открыть не удалось),
// HTTP-доступ к серверу и синхронизацию
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	var store localstore.Store
	sqlite, err := localstore.NewSQLite(ctx, cfg.DataPath, log)
	if err != nil {
		log.Warn("Не удалось инициализировать SQLite, используем память", "error", err)
		store = localstore.NewMemory()
	} else {
		store = sqlite
	}

	httpStore := remote.NewHTTPStore(cfg.BaseURL(), cfg.RequestTimeout, log)
	return newApp(cfg, log, store, httpStore, httpStore), nil
}

func newApp(cfg *config.Config, log *slog.Logger, store localstore.Store, backend remote.Backend, session Session) *App {
	app := &App{
		config:  cfg,
		log:     log,
		store:   store,
		backend: backend,
		session: session,
		now:     time.Now,
	}

	app.sync = cloudsync.NewService(store, remote.NewStore(backend), cloudsync.Config{
		Timeout:   cfg.SyncTimeout,
		Interval:  cfg.SyncInterval,
		StatsPath: filepath.Join(cfg.ConfigDir, "sync_stats.json"),
	}, log)

	// Загружаем токен если он есть
	if token, err := app.GetToken(); err == nil && token != "" {
		session.SetToken(token)
		app.authenticated = true
		log.Debug("Токен загружен из файла")
	}
	return app
}

// Close закрывает локальное хранилище
func (a *App) Close() error {
	return a.store.Close()
}

// Store локальное хранилище устройства
func (a *App) Store() localstore.Store {
	return a.store
}

// CheckConnection проверяет соединение с сервером
func (a *App) CheckConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return a.session.HealthCheck(ctx)
}

// IsAuthenticated проверяет, аутентифицирован ли пользователь
func (a *App) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.authenticated
}

// GetToken возвращает сохраненный токен
func (a *App) GetToken() (string, error) {
	data, err := os.ReadFile(a.config.TokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("ошибка чтения токена: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveToken сохраняет токен аутентификации
func (a *App) SaveToken(token string) error {
	if err := os.WriteFile(a.config.TokenPath, []byte(token), 0600); err != nil {
		return fmt.Errorf("ошибка сохранения токена: %w", err)
	}
	a.session.SetToken(token)

	a.mu.Lock()
	a.authenticated = true
	a.mu.Unlock()
	return nil
}

// ClearToken удаляет токен
func (a *App) ClearToken() error {
	a.mu.Lock()
	a.authenticated = false
	a.mu.Unlock()
	a.session.SetToken("")

	if err := os.Remove(a.config.TokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления токена: %w", err)
	}
	return nil
}

// Register регистрирует нового пользователя
func (a *App) Register(ctx context.Context, req user.Credentials) error {
	if err := user.NewCredentialsValidator().ValidateRegister(req.Login, req.Password); err != nil {
		return fmt.Errorf("некорректные данные: %w", err)
	}
	if err := a.session.Register(ctx, req.Login, req.Password); err != nil {
		return err
	}

	a.log.Info("Пользователь успешно зарегистрирован", "login", req.Login)
	return nil
}

// Login выполняет вход и сохраняет токен. Синхронизацию после входа
// запускает вызывающий.
func (a *App) Login(ctx context.Context, req user.Credentials) error {
	token, err := a.session.Login(ctx, req.Login, req.Password)
	if err != nil {
		return err
	}
	if err := a.SaveToken(token); err != nil {
		return err
	}

	a.log.Info("Вход выполнен успешно", "login", req.Login)
	return nil
}

// Logout завершает сессию на сервере и удаляет локальный токен. Ошибка
// сервера не мешает выйти локально.
func (a *App) Logout(ctx context.Context) error {
	if a.IsAuthenticated() {
		if err := a.session.Logout(ctx); err != nil {
			a.log.Warn("Не удалось завершить сессию на сервере", "error", err)
		}
	}
	return a.ClearToken()
}

// Whoami идентификатор пользователя текущей сессии
func (a *App) Whoami(ctx context.Context) (int64, error) {
	if !a.IsAuthenticated() {
		return 0, ErrNotAuthenticated
	}
	return a.backend.CurrentUserID(ctx)
}

// ==================== Sync ====================

// Sync выполняет полную синхронизацию
func (a *App) Sync(ctx context.Context) (*cloudsync.Report, error) {
	if !a.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	report, err := a.sync.FullCloudSync(ctx)
	if errors.Is(err, remote.ErrUnauthorized) {
		a.log.Warn("Сессия истекла, токен удален")
		if clearErr := a.ClearToken(); clearErr != nil {
			a.log.Warn("Не удалось удалить токен", "error", clearErr)
		}
		return report, ErrNotAuthenticated
	}
	return report, err
}

// Watch синхронизирует по таймеру до отмены контекста
func (a *App) Watch(ctx context.Context, onReport func(*cloudsync.Report, error)) error {
	if !a.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	a.sync.StartAutoSync(ctx, onReport)
	return nil
}

// SyncService возвращает сервис синхронизации
func (a *App) SyncService() *cloudsync.Service {
	return a.sync
}

// SyncInterval интервал автоматической синхронизации
func (a *App) SyncInterval() time.Duration {
	return a.config.SyncInterval
}
