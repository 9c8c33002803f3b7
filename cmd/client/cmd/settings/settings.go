package settings

import (
	"fmt"

	"github.com/spf13/cobra"

	"workoutsync/cmd/client/cmd/types"
	"workoutsync/internal/app/client"
)

var (
	weightUnit string
	restTimer  int
	weekStart  string
)

// SettingsCmd без флагов показывает настройки, с флагами изменяет их
var SettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Пользовательские настройки",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		var ch client.SettingsChanges
		if cmd.Flags().Changed("unit") {
			ch.WeightUnit = &weightUnit
		}
		if cmd.Flags().Changed("rest") {
			ch.RestTimerSeconds = &restTimer
		}
		if cmd.Flags().Changed("week-start") {
			ch.WeekStart = &weekStart
		}

		s, err := app.Settings(cmd.Context())
		if ch != (client.SettingsChanges{}) {
			s, err = app.UpdateSettings(cmd.Context(), ch)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Единица веса: %s\n", s.WeightUnit)
		fmt.Printf("Таймер отдыха: %d сек\n", s.RestTimerSeconds)
		fmt.Printf("Начало недели: %s\n", s.WeekStart)
		if !s.UpdatedAt.IsZero() {
			fmt.Printf("Изменены: %s\n", s.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	SettingsCmd.Flags().StringVar(&weightUnit, "unit", "", "единица веса: kg или lb")
	SettingsCmd.Flags().IntVar(&restTimer, "rest", 0, "таймер отдыха, секунд")
	SettingsCmd.Flags().StringVar(&weekStart, "week-start", "", "начало недели: monday или sunday")
}
