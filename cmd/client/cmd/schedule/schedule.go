package schedule

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"workoutsync/cmd/client/cmd/types"
	"workoutsync/internal/domain/workout"
)

// ScheduleCmd - родительская команда расписания
var ScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Расписание тренировок",
}

var (
	date  string
	notes string
)

var AddCmd = &cobra.Command{
	Use:   "add <template-id>",
	Short: "Запланировать тренировку по шаблону",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		id, err := types.ParseID(args[0])
		if err != nil {
			return err
		}
		if date == "" {
			date = time.Now().Format(workout.DateLayout)
		}

		sw, err := app.ScheduleWorkout(cmd.Context(), id, date, notes)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Запланировано: #%d %s на %s\n", sw.ID, sw.TemplateName, sw.Date)
		return nil
	},
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список запланированных тренировок",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		list, err := app.ListSchedules(cmd.Context())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("Расписание пусто")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tДАТА\tШАБЛОН\tУПР.\tВЫПОЛНЕНО\tЗАМЕТКИ")
		for _, sw := range list {
			done := ""
			if sw.Completed {
				done = "✓"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n", sw.ID, sw.Date, sw.TemplateName, len(sw.Exercises), done, sw.Notes)
		}
		return w.Flush()
	},
}

var DeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Удалить запланированную тренировку",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		id, err := types.ParseID(args[0])
		if err != nil {
			return err
		}
		if err := app.DeleteSchedule(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Println("✅ Запланированная тренировка удалена")
		return nil
	},
}

func init() {
	AddCmd.Flags().StringVarP(&date, "date", "d", "", "дата YYYY-MM-DD (по умолчанию сегодня)")
	AddCmd.Flags().StringVarP(&notes, "notes", "n", "", "заметки")
}
