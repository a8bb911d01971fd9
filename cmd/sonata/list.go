package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// createListCommand создает команду list с привязкой к экземпляру приложения
func (app *Application) createListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tracks from the library",
		Long:  `Display a list of all tracks stored in the library.`,
		Run: func(_ *cobra.Command, _ []string) {
			app.listTracks()
		},
	}
}

func (app *Application) listTracks() {
	tracks := app.Library.ListTracks()
	if len(tracks) == 0 {
		fmt.Println("📚 Библиотека пуста. Добавьте треки с помощью команды 'add'.")
		return
	}

	fmt.Printf("📚 Найдено треков: %d\n\n", len(tracks))
	printTrackTable(tracks, app.Library.IsLiked)

	if err := app.Library.StorageErr(); err != nil {
		fmt.Println()
		fmt.Printf("⚠️  Офлайн-треки недоступны: %v\n", err)
	}

	fmt.Println()
	fmt.Println("💡 Используйте 'sonata play [ID]' для воспроизведения трека")
}
