package template

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"workoutsync/cmd/client/cmd/types"
	"workoutsync/internal/domain/workout"
)

// TemplateCmd - родительская команда шаблонов тренировок
var TemplateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"tpl"},
	Short:   "Шаблоны тренировок",
}

var (
	exerciseIDs []string
	targetSets  int
	targetReps  int
	targetKg    float64
)

var CreateCmd = &cobra.Command{
	Use:     "create <name>",
	Short:   "Создать шаблон",
	Example: `  workoutsync template create "Push Day" --exercises 1,2 --sets 3 --reps 8 --weight 60`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		ids := make([]int64, 0, len(exerciseIDs))
		for _, raw := range exerciseIDs {
			id, err := types.ParseID(raw)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		sets := make([]workout.TargetSet, targetSets)
		for i := range sets {
			sets[i] = workout.TargetSet{TargetWeight: targetKg, TargetReps: targetReps}
		}

		t, err := app.CreateTemplate(cmd.Context(), args[0], ids, sets)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Шаблон создан: #%d %s (%d упр.)\n", t.ID, t.Name, len(t.Exercises))
		return nil
	},
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список шаблонов",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		list, err := app.ListTemplates(cmd.Context())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("Шаблонов нет")
			return nil
		}

		names := make(map[string]string)
		exercises, err := app.ListExercises(cmd.Context())
		if err != nil {
			return err
		}
		for _, e := range exercises {
			names[workout.FormatID(e.ID)] = e.Name
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tНАЗВАНИЕ\tУПРАЖНЕНИЯ\tИЗМЕНЕН")
		for _, t := range list {
			var items []string
			for _, te := range t.Exercises {
				name, ok := names[te.ExerciseID]
				if !ok {
					name = "?" + te.ExerciseID
				}
				items = append(items, fmt.Sprintf("%s x%d", name, len(te.Sets)))
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.ID, t.Name, strings.Join(items, ", "),
				t.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var RenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Переименовать шаблон",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		id, err := types.ParseID(args[0])
		if err != nil {
			return err
		}
		t, err := app.RenameTemplate(cmd.Context(), id, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("✅ Шаблон переименован: #%d %s\n", t.ID, t.Name)
		return nil
	},
}

var DeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Удалить шаблон",
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
		if err := app.DeleteTemplate(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Println("✅ Шаблон удален")
		return nil
	},
}

func init() {
	CreateCmd.Flags().StringSliceVarP(&exerciseIDs, "exercises", "x", nil, "id упражнений через запятую")
	CreateCmd.Flags().IntVar(&targetSets, "sets", 3, "подходов на упражнение")
	CreateCmd.Flags().IntVar(&targetReps, "reps", 10, "целевые повторения")
	CreateCmd.Flags().Float64Var(&targetKg, "weight", 0, "целевой вес")
}
