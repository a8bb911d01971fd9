package main

import (
	"context"

	"github.com/spf13/cobra"
)

// createRootCommand создает корневую команду с настроенными подкомандами
func (app *Application) createRootCommand(ctx context.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sonata",
		Short:         "A terminal music player with an offline track library",
		Long:          `A terminal music player: import audio files, organise playlists and play them from the CLI or TUI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Добавляем команды, передавая в них экземпляр приложения и контекст
	rootCmd.AddCommand(app.createAddCommand(ctx))
	rootCmd.AddCommand(app.createListCommand())
	rootCmd.AddCommand(app.createPlayCommand(ctx))
	rootCmd.AddCommand(app.createDeleteCommand(ctx))
	rootCmd.AddCommand(app.createExportCommand(ctx))
	rootCmd.AddCommand(app.createDownloadCommand(ctx))
	rootCmd.AddCommand(app.createPublishCommand(ctx))
	rootCmd.AddCommand(app.createScanCommand(ctx))
	rootCmd.AddCommand(app.createPlaylistCommand(ctx))
	rootCmd.AddCommand(app.createLikeCommand())
	rootCmd.AddCommand(app.createLikedCommand())
	rootCmd.AddCommand(app.createPrefsCommand())
	rootCmd.AddCommand(app.createTUICommand(ctx))

	return rootCmd
}
