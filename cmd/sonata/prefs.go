package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// createPrefsCommand создает команду prefs
func (app *Application) createPrefsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prefs [theme|volume] [value]",
		Short: "Show or change preferences",
		Long: `Without arguments prints the preferences.
'prefs theme' toggles the theme, 'prefs volume 0.5' sets the saved volume.`,
		Args: cobra.MaximumNArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			if len(args) == 0 {
				app.printPrefs()
				return
			}
			switch args[0] {
			case "theme":
				theme, err := app.Library.ToggleTheme()
				if err != nil {
					printError(err)
					return
				}
				fmt.Printf("🎨 Тема: %s\n", theme)
			case "volume":
				if len(args) < 2 {
					fmt.Printf("🔊 Громкость: %d%%\n", int(app.Library.Volume()*100+0.5))
					return
				}
				app.setVolume(args[1])
			default:
				fmt.Printf("❌ Ошибка: неизвестная настройка '%s'\n", args[0])
			}
		},
	}
}

func (app *Application) printPrefs() {
	prefs := app.Library.Preferences()
	fmt.Printf("🎨 Тема: %s\n", prefs.Theme)
	fmt.Printf("🔊 Громкость: %d%%\n", int(app.Library.Volume()*100+0.5))
	if last, ok := app.Library.LastPlayed(); ok {
		fmt.Printf("🎵 Последний трек: %s\n", last.DisplayName())
	}
}

func (app *Application) setVolume(value string) {
	level, err := strconv.ParseFloat(value, 64)
	if err != nil || level < 0 || level > 1 {
		fmt.Printf("❌ Ошибка: громкость должна быть числом от 0 до 1, получено '%s'\n", value)
		return
	}
	if err := app.Library.SetVolume(level); err != nil {
		printError(err)
		return
	}
	fmt.Printf("🔊 Громкость: %d%%\n", int(level*100+0.5))
}
