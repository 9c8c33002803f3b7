package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/exp/slog"

	"workoutsync/cmd/client/cmd/types"
	"workoutsync/internal/app/client"
	"workoutsync/internal/app/client/config"
	"workoutsync/internal/utils/logger"
)

var (
	cfgFile   string
	serverURL string
	debug     bool
	app       *client.App
)

var rootCmd = &cobra.Command{
	Use:   "workoutsync",
	Short: "Workoutsync - журнал тренировок с синхронизацией",
	Long: `Workoutsync ведет каталог упражнений, шаблоны, расписание и историю
тренировок на устройстве и синхронизирует их с сервером.

Все данные сначала сохраняются локально, синхронизация выполняется
командой sync, после входа и в фоновом режиме (sync --watch).`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Переопределяем настройки из флагов командной строки
	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}

	log := newLogger(cfg)

	app, err = client.New(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), types.ClientAppKey, app))
	return nil
}

func closeApp(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	return app.Close()
}

// newLogger без --debug логи пишутся в файл, чтобы не мешать выводу команд
func newLogger(cfg *config.Config) *slog.Logger {
	env := cfg.Env
	if debug {
		return logger.New(env)
	}
	if cfg.LogFile != "" {
		return logger.NewFile(env, cfg.LogFile)
	}
	return logger.NewFile(env, cfg.ConfigDir+"/client.log")
}

func loadConfig() (*config.Config, error) {
	v := viper.GetViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.workoutsync")
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
			// Конфиг не найден, используем значения по умолчанию
		}
	}

	return config.Load(v, ".env", "../.env")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный файл")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "выводить логи в терминал")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "адрес сервера (host:port)")
}
