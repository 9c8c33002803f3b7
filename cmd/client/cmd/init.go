package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"workoutsync/cmd/client/cmd/auth"
	"workoutsync/cmd/client/cmd/exercise"
	"workoutsync/cmd/client/cmd/schedule"
	"workoutsync/cmd/client/cmd/settings"
	"workoutsync/cmd/client/cmd/sync"
	"workoutsync/cmd/client/cmd/template"
	"workoutsync/cmd/client/cmd/types"
	"workoutsync/cmd/client/cmd/workout"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Проверить настройку клиента",
	Long: `Команда init проверяет локальное хранилище и соединение с сервером.

Работать с упражнениями и тренировками можно и без сервера, синхронизация
станет доступна после входа.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		fmt.Println("=== Инициализация Workoutsync ===")
		fmt.Println()

		if _, err := app.Store().GetSettings(cmd.Context()); err != nil {
			return fmt.Errorf("ошибка инициализации хранилища: %w", err)
		}
		fmt.Println("✓ Локальное хранилище готово")

		fmt.Println("Проверка соединения с сервером...")
		if err := app.CheckConnection(); err != nil {
			fmt.Printf("⚠️  Предупреждение: не удалось подключиться к серверу: %v\n", err)
			fmt.Println("Вы можете работать в офлайн-режиме, но синхронизация будет недоступна.")
		} else {
			fmt.Println("✓ Соединение с сервером установлено")
		}

		fmt.Println()
		fmt.Println("Что дальше:")
		fmt.Println("1. Зарегистрируйтесь на сервере: workoutsync auth register")
		fmt.Println("2. Войдите в систему: workoutsync auth login")
		fmt.Println("3. Добавьте упражнение: workoutsync exercise add \"Bench Press\" --muscles Chest,Triceps")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.RegisterCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)
	auth.AuthCmd.AddCommand(auth.WhoamiCmd)

	rootCmd.AddCommand(exercise.ExerciseCmd)
	exercise.ExerciseCmd.AddCommand(exercise.AddCmd)
	exercise.ExerciseCmd.AddCommand(exercise.ListCmd)
	exercise.ExerciseCmd.AddCommand(exercise.EditCmd)
	exercise.ExerciseCmd.AddCommand(exercise.DeleteCmd)

	rootCmd.AddCommand(template.TemplateCmd)
	template.TemplateCmd.AddCommand(template.CreateCmd)
	template.TemplateCmd.AddCommand(template.ListCmd)
	template.TemplateCmd.AddCommand(template.RenameCmd)
	template.TemplateCmd.AddCommand(template.DeleteCmd)

	rootCmd.AddCommand(schedule.ScheduleCmd)
	schedule.ScheduleCmd.AddCommand(schedule.AddCmd)
	schedule.ScheduleCmd.AddCommand(schedule.ListCmd)
	schedule.ScheduleCmd.AddCommand(schedule.DeleteCmd)

	rootCmd.AddCommand(workout.WorkoutCmd)
	workout.WorkoutCmd.AddCommand(workout.StartCmd)
	workout.WorkoutCmd.AddCommand(workout.LogCmd)
	workout.WorkoutCmd.AddCommand(workout.FinishCmd)
	workout.WorkoutCmd.AddCommand(workout.ListCmd)

	rootCmd.AddCommand(settings.SettingsCmd)

	rootCmd.AddCommand(sync.SyncCmd)
}
