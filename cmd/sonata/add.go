package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-sonata/internal/metadata"
	"github.com/hazadus/go-sonata/internal/utils"
)

// createAddCommand создает команду add с привязкой к экземпляру приложения
func (app *Application) createAddCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "add [file path]...",
		Short: "Import audio files into the offline library",
		Long:  `Import one or more audio files into the offline track store.`,
		Args:  cobra.MinimumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			// Импорт пачки файлов не должен длиться дольше нескольких минут
			importCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()
			app.addTracks(importCtx, args)
		},
	}
}

func (app *Application) addTracks(ctx context.Context, paths []string) {
	fmt.Printf("📥 Импортируем файлов: %d\n", len(paths))

	extractor := metadata.NewExtractor(app.Logger)
	for _, path := range paths {
		previewFile(extractor, path)
	}

	added, err := app.Library.ImportFiles(ctx, paths)
	for _, t := range added {
		fmt.Printf("✅ %s (%s, %s)\n", t.DisplayName(), shortID(t.ID), utils.FormatTime(t.Duration))
	}
	if err != nil {
		printError(err)
	}

	if len(added) > 0 {
		fmt.Printf("\n📦 Добавлено треков: %d из %d\n", len(added), len(paths))
	}
}

// previewFile показывает, что будет импортировано. Ошибки здесь не фатальны:
// окончательную проверку выполняет импорт
func previewFile(extractor *metadata.Extractor, path string) {
	info, err := extractor.GetFileInfo(path)
	if err != nil {
		fmt.Printf("⚠️  %s: %v\n", path, err)
		return
	}
	tags := extractor.ExtractFromFile(path)
	fmt.Printf("🎵 %s - %s [%s, %s, %s]\n",
		tags.Artist, tags.Title, info.Format,
		utils.FormatFileSize(info.Size), utils.FormatDuration(info.Duration))
}
