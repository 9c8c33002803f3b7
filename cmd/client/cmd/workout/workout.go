package workout

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"workoutsync/cmd/client/cmd/types"
)

// WorkoutCmd - родительская команда тренировок
var WorkoutCmd = &cobra.Command{
	Use:     "workout",
	Aliases: []string{"w"},
	Short:   "Тренировки и подходы",
}

var (
	weight float64
	reps   int
	rpe    float64
)

var StartCmd = &cobra.Command{
	Use:   "start [name]",
	Short: "Начать тренировку",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		var name string
		if len(args) > 0 {
			name = args[0]
		}
		w, err := app.StartWorkout(cmd.Context(), name)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Тренировка начата: #%d %s\n", w.ID, w.Name)
		return nil
	},
}

var LogCmd = &cobra.Command{
	Use:     "log <workout-id> <exercise-id>",
	Short:   "Записать подход",
	Example: `  workoutsync workout log 3 1 --weight 80 --reps 5 --rpe 8`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		workoutID, err := types.ParseID(args[0])
		if err != nil {
			return err
		}
		exerciseID, err := types.ParseID(args[1])
		if err != nil {
			return err
		}

		var effort *float64
		if cmd.Flags().Changed("rpe") {
			effort = &rpe
		}
		s, err := app.LogSet(cmd.Context(), workoutID, exerciseID, weight, reps, effort)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Подход %d: %.1f x %d\n", s.SetNumber, s.Weight, s.Reps)
		return nil
	},
}

var FinishCmd = &cobra.Command{
	Use:   "finish <workout-id>",
	Short: "Завершить тренировку",
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
		w, err := app.FinishWorkout(cmd.Context(), id)
		if err != nil {
			return err
		}
		duration := time.Duration(0)
		if w.EndTime != nil {
			duration = w.EndTime.Sub(w.StartTime).Round(time.Minute)
		}
		fmt.Printf("✅ Тренировка завершена: %s (%v)\n", w.Name, duration)
		fmt.Println("Она будет отправлена на сервер при следующей синхронизации")
		return nil
	},
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "История тренировок",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		list, err := app.ListWorkouts(cmd.Context())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("Тренировок нет")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tНАЧАЛО\tНАЗВАНИЕ\tСТАТУС\tПОДХОДОВ\tСИНХР.")
		for _, wo := range list {
			sets, err := app.WorkoutSets(cmd.Context(), wo.ID)
			if err != nil {
				return err
			}
			synced := "нет"
			if wo.Synced {
				synced = "да"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n", wo.ID,
				wo.StartTime.Local().Format("2006-01-02 15:04"), wo.Name, wo.Status, len(sets), synced)
		}
		return w.Flush()
	},
}

func init() {
	LogCmd.Flags().Float64VarP(&weight, "weight", "w", 0, "вес")
	LogCmd.Flags().IntVarP(&reps, "reps", "r", 0, "повторения")
	LogCmd.Flags().Float64Var(&rpe, "rpe", 0, "субъективная нагрузка (RPE)")
}
