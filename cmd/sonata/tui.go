package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-sonata/internal/tui"
)

// createTUICommand создает команду tui с привязкой к экземпляру приложения
func (app *Application) createTUICommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch TUI (Terminal User Interface)",
		Long:  `Launch interactive terminal user interface for managing and playing tracks.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			tuiApp := tui.NewApp(app.Library, app.Player(ctx), app.Logger)
			return tuiApp.Run(ctx)
		},
	}
}
