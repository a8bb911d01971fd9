package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// createExportCommand создает команду export
func (app *Application) createExportCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "export [id] [dir]",
		Short: "Export offline track content to a file",
		Long:  `Write the offline content of a track to a file. The download directory is used by default.`,
		Args:  cobra.RangeArgs(1, 2),
		Run: func(_ *cobra.Command, args []string) {
			dir := app.Config.DownloadDir
			if len(args) == 2 {
				dir = args[1]
			}
			app.exportTrack(ctx, args[0], dir)
		},
	}
}

func (app *Application) exportTrack(ctx context.Context, ref, dir string) {
	track, err := app.Library.FindTrack(ref)
	if err != nil {
		printError(err)
		return
	}

	path, err := app.Library.Export(ctx, track.ID, dir)
	if err != nil {
		printError(err)
		return
	}

	fmt.Printf("💾 %s сохранен в %s\n", track.DisplayName(), path)
}
