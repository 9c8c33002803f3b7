package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"workoutsync/cmd/client/cmd/types"
)

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Выйти из системы",
	Long:  `Завершает сессию на сервере и удаляет сохраненный токен. Локальные данные остаются на устройстве.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		if err := app.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✅ Выход выполнен")
		return nil
	},
}

var WhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Показать текущего пользователя",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		id, err := app.Whoami(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Пользователь #%d\n", id)
		return nil
	},
}
