package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// createDeleteCommand создает команду delete с привязкой к экземпляру приложения
func (app *Application) createDeleteCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a track by ID",
		Long:  `Delete a track from the library, playlists, the offline store and S3 by its ID or ID prefix.`,
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			app.deleteTrack(ctx, args[0])
		},
	}
}

func (app *Application) deleteTrack(ctx context.Context, ref string) {
	track, err := app.Library.FindTrack(ref)
	if err != nil {
		printError(err)
		return
	}

	fmt.Printf("🗑️  Удаляем трек: %s\n", track.DisplayName())

	deleted, err := app.Library.DeleteTrack(ctx, track.ID)
	if err != nil {
		printError(err)
		return
	}
	if !deleted {
		fmt.Println("ℹ️  Трек уже удален")
		return
	}

	if app.controller != nil {
		if err := app.controller.Remove(track.ID); err != nil {
			app.Logger.WithError(err).Warn("Не удалось убрать трек из очереди")
		}
	}

	fmt.Println("✅ Трек успешно удален из библиотеки")
}
