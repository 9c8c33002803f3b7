package exercise

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"workoutsync/cmd/client/cmd/types"
	"workoutsync/internal/app/client"
)

// ExerciseCmd - родительская команда каталога упражнений
var ExerciseCmd = &cobra.Command{
	Use:     "exercise",
	Aliases: []string{"ex"},
	Short:   "Каталог упражнений",
}

var (
	muscles   string
	equipment string
	newName   string
)

var AddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Добавить упражнение",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		e, err := app.AddExercise(cmd.Context(), args[0], types.SplitList(muscles), equipment)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Упражнение добавлено: #%d %s\n", e.ID, e.Name)
		return nil
	},
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список упражнений",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		list, err := app.ListExercises(cmd.Context())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("Каталог пуст")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tНАЗВАНИЕ\tГРУППЫ МЫШЦ\tИНВЕНТАРЬ\tСИНХР.")
		for _, e := range list {
			synced := "нет"
			if e.Synced {
				synced = "да"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Name, e.MuscleGroups, e.Equipment, synced)
		}
		return w.Flush()
	},
}

var EditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Изменить упражнение",
	Long: `Изменяет название, группы мышц или инвентарь упражнения.

При смене названия упражнение со старым названием будет удалено на сервере
при следующей синхронизации.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		id, err := types.ParseID(args[0])
		if err != nil {
			return err
		}

		var ch client.ExerciseChanges
		if cmd.Flags().Changed("name") {
			ch.Name = &newName
		}
		if cmd.Flags().Changed("muscles") {
			ch.MuscleGroups = types.SplitList(muscles)
			if ch.MuscleGroups == nil {
				ch.MuscleGroups = []string{}
			}
		}
		if cmd.Flags().Changed("equipment") {
			ch.Equipment = &equipment
		}

		e, err := app.EditExercise(cmd.Context(), id, ch)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Упражнение обновлено: #%d %s\n", e.ID, e.Name)
		return nil
	},
}

var DeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Удалить упражнение",
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
		if err := app.DeleteExercise(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Println("✅ Упражнение удалено")
		return nil
	},
}

func init() {
	AddCmd.Flags().StringVarP(&muscles, "muscles", "m", "", "группы мышц через запятую")
	AddCmd.Flags().StringVarP(&equipment, "equipment", "e", "", "инвентарь")

	EditCmd.Flags().StringVar(&newName, "name", "", "новое название")
	EditCmd.Flags().StringVarP(&muscles, "muscles", "m", "", "группы мышц через запятую")
	EditCmd.Flags().StringVarP(&equipment, "equipment", "e", "", "инвентарь")
}
