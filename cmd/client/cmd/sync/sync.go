package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"workoutsync/cmd/client/cmd/types"
	"workoutsync/internal/app/client"
	"workoutsync/internal/app/client/cloudsync"
)

var (
	watch      bool
	syncStatus bool
	resetStats bool
)

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Управление синхронизацией",
	Long: `Синхронизация данных между устройством и сервером.

Полная синхронизация проходит фазы по порядку: удаления, настройки,
упражнения, шаблоны, расписание, история тренировок и локальная
дедупликация. Ошибка одной фазы не останавливает остальные.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		switch {
		case syncStatus:
			return showSyncStatus(app)
		case resetStats:
			app.SyncService().ResetStats()
			fmt.Println("✅ Статистика синхронизации сброшена")
			return nil
		case watch:
			return runWatch(cmd.Context(), app)
		}
		return runSync(cmd.Context(), app)
	},
}

func runSync(ctx context.Context, app *client.App) error {
	fmt.Println("=== Синхронизация данных ===")

	if !app.IsAuthenticated() {
		return client.ErrNotAuthenticated
	}

	fmt.Println("Проверка соединения с сервером...")
	if err := app.CheckConnection(); err != nil {
		return fmt.Errorf("сервер недоступен: %v", err)
	}

	report, err := app.Sync(ctx)
	if report != nil {
		printReport(os.Stdout, report)
	}
	if err != nil {
		return fmt.Errorf("ошибка синхронизации: %w", err)
	}

	stats := app.SyncService().GetStats()
	fmt.Printf("Всего синхронизаций: %d\n", stats.TotalSyncs)
	return nil
}

// runWatch синхронизирует по таймеру до Ctrl+C
func runWatch(ctx context.Context, app *client.App) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Автосинхронизация каждые %v, Ctrl+C для выхода\n", app.SyncInterval())

	err := app.Watch(ctx, func(report *cloudsync.Report, err error) {
		if report != nil {
			printReport(os.Stdout, report)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			color.Red("❌ %v", err)
		}
	})
	if err != nil {
		return err
	}
	fmt.Println("Автосинхронизация остановлена")
	return nil
}

func printReport(w io.Writer, report *cloudsync.Report) {
	ok := color.New(color.FgGreen).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	fmt.Fprintln(w)
	for _, p := range report.Phases {
		status := ok("✓")
		switch {
		case p.Error != "":
			status = fail("✗")
		case p.Failed > 0:
			status = warn("!")
		}
		fmt.Fprintf(w, " %s %-20s отправлено: %d, получено: %d, ошибок: %d\n",
			status, p.Name, p.Synced, p.Downloaded, p.Failed)
		if p.Error != "" {
			fmt.Fprintf(w, "     %s\n", fail(p.Error))
		}
	}

	total := report.Totals()
	fmt.Fprintln(w)
	if report.Success() {
		fmt.Fprintln(w, ok("✅ Синхронизация завершена!"))
	} else {
		fmt.Fprintln(w, warn("⚠️  Синхронизация завершена с ошибками"))
	}
	fmt.Fprintf(w, "Время выполнения: %v\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Отправлено на сервер: %d, получено с сервера: %d, ошибок: %d\n",
		total.Synced, total.Downloaded, total.Failed)
}

func showSyncStatus(app *client.App) error {
	fmt.Println("=== Статус синхронизации ===")

	sync := app.SyncService()
	stats := sync.GetStats()

	fmt.Println("📊 Статистика:")
	fmt.Printf("  Всего синхронизаций: %d\n", stats.TotalSyncs)
	fmt.Printf("  С ошибками: %d\n", stats.TotalErrors)
	fmt.Printf("  Отправлено на сервер: %d записей\n", stats.TotalUploaded)
	fmt.Printf("  Получено с сервера: %d записей\n", stats.TotalDownloaded)
	fmt.Printf("  Среднее время: %.2f сек\n", stats.AvgSyncDuration)

	fmt.Printf("\n⏰ Временные метки:\n")
	fmt.Printf("  Последняя успешная: %s\n", formatTime(stats.LastSuccessful))
	fmt.Printf("  Последняя неудачная: %s\n", formatTime(stats.LastFailed))
	if sync.IsSyncing() {
		fmt.Println("  Синхронизация выполняется сейчас")
	}

	fmt.Printf("\n⚙️  Интервал автосинхронизации: %v\n", app.SyncInterval())

	fmt.Printf("\n🌐 Соединение с сервером: ")
	if err := app.CheckConnection(); err != nil {
		color.Red("❌ Ошибка: %v", err)
	} else {
		color.Green("✅ OK")
	}

	fmt.Printf("🔐 Аутентификация: ")
	if app.IsAuthenticated() {
		color.Green("✅ Выполнена")
	} else {
		color.Red("❌ Требуется вход")
	}

	if stats.LastReport != nil {
		fmt.Println("\nПоследний отчет:")
		printReport(os.Stdout, stats.LastReport)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "никогда"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func init() {
	SyncCmd.Flags().BoolVarP(&watch, "watch", "w", false, "синхронизировать по таймеру до Ctrl+C")
	SyncCmd.Flags().BoolVar(&syncStatus, "status", false, "показать статус синхронизации")
	SyncCmd.Flags().BoolVar(&resetStats, "reset", false, "сбросить статистику синхронизации")
}
