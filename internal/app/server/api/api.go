// POST /api/v1/user/register            # Регистрация (публичный)
// POST /api/v1/user/login               # Логин (публичный)
// GET  /api/v1/user/me                  # Текущий пользователь (auth)
// POST /api/v1/user/logout              # Выход (auth)
// POST /api/v1/tables/{table}/select    # Выборка (auth)
// POST /api/v1/tables/{table}           # Вставка (auth)
// PUT  /api/v1/tables/{table}           # Upsert по естественному ключу (auth)
// PATCH /api/v1/tables/{table}/{id}     # Обновление по ключу (auth)
// POST /api/v1/tables/{table}/delete    # Удаление по условиям (auth)
// GET  /api/v1/health                   # Проверка состояния
// GET  /metrics                         # Prometheus

package api

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"

	healthAPI "workoutsync/internal/app/server/api/http/health"
	"workoutsync/internal/app/server/api/http/middleware"
	"workoutsync/internal/app/server/api/http/middleware/auth"
	"workoutsync/internal/app/server/api/http/middleware/logger"
	"workoutsync/internal/app/server/api/http/middleware/metrics"
	tableAPI "workoutsync/internal/app/server/api/http/table"
	userAPI "workoutsync/internal/app/server/api/http/user"
	"workoutsync/internal/app/server/config"
	"workoutsync/internal/domain/session"
	"workoutsync/internal/domain/table"
	"workoutsync/internal/domain/user"
	"workoutsync/internal/infrastructure/storage/postgres"
)

type Handlers struct {
	Health *healthAPI.Handler
	User   *userAPI.Handler
	Table  *tableAPI.Handler
}

// New создает *chi.Mux с ВСЕМИ операциями через huma.Register
func New(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	humaConfig := huma.DefaultConfig("Workoutsync API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, humaConfig)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	h := handlers(storage, cfg.Session.TTL, metrics.New(reg), log)
	h.Health.SetupRoutes(API)
	h.User.SetupRoutes(API)
	h.Table.SetupRoutes(API)

	return mux
}

func handlers(storage *postgres.Storage, sessionTTL time.Duration, m *metrics.Metrics, log *slog.Logger) *Handlers {
	sessionRepo := postgres.NewSessionRepository(storage, log)
	sessionService := session.NewService(sessionRepo, sessionTTL, log)
	authMW := auth.New(sessionService, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(storage, log, middlewares.GetAllAndClear())

	userRepo := postgres.NewUserRepository(storage, log)
	userService := user.NewService(userRepo, user.NewCredentialsValidator(), log)
	middlewares.Add(loggerMW.Middleware())
	middlewares.Add(m.Middleware())
	public := middlewares.GetAllAndClear()
	middlewares.Add(loggerMW.Middleware())
	middlewares.Add(m.Middleware())
	middlewares.Add(authMW.Middleware())
	userHandler := userAPI.NewHandler(userService, sessionService, log, public, middlewares.GetAllAndClear())

	tableRepo := postgres.NewTableRepository(storage, log)
	tableService := table.NewService(tableRepo, log)
	middlewares.Add(loggerMW.Middleware())
	middlewares.Add(m.Middleware())
	middlewares.Add(authMW.Middleware())
	tableHandler := tableAPI.NewHandler(tableService, m, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		User:   userHandler,
		Table:  tableHandler,
	}
}
