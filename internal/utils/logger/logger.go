package logger

import (
	"io"
	"os"

	"golang.org/x/exp/slog"
	"gopkg.in/natefinch/lumberjack.v2"

	"workoutsync/internal/app/server/config"
)

// New создает логгер под окружение: local - цветной текст, dev - JSON с
// отладкой, prod - JSON от INFO
func New(env string) *slog.Logger {
	if env == config.EnvLocal {
		return setupPrettySlog()
	}
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter JSON-логгер с выводом в w
func NewWithWriter(env string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if env != config.EnvProd {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewFile пишет JSON-логи в файл с ротацией. Используется клиентом в
// фоновом режиме синхронизации, чтобы не засорять терминал.
func NewFile(env, path string) *slog.Logger {
	return NewWithWriter(env, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // мегабайты
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
}

func setupPrettySlog() *slog.Logger {
	handler := NewPrettyHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler)
}
