package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-sonata/internal/utils"
	"github.com/hazadus/go-sonata/internal/youtube"
)

// createDownloadCommand создает команду download с привязкой к экземпляру приложения
func (app *Application) createDownloadCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "download [YouTube URL]",
		Short: "Download audio from a YouTube video",
		Long: `Download the audio track of a YouTube video to the configured download directory.
Playable formats are imported into the offline library.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			downloadCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			defer cancel()
			return app.downloadAudio(downloadCtx, args[0])
		},
	}
}

func (app *Application) downloadAudio(ctx context.Context, url string) error {
	videoID, err := youtube.ExtractVideoID(url)
	if err != nil {
		return fmt.Errorf("ошибка извлечения ID видео: %w", err)
	}

	fmt.Printf("Скачиваем аудио для видео ID: %s\n", videoID)

	downloader := youtube.NewDownloader(app.Config, app.Library, app.Logger)
	result, err := downloader.Download(ctx, url)
	if result != nil {
		fmt.Printf("Название: %s\n", result.Title)
		fmt.Printf("Автор: %s\n", result.Author)
		fmt.Printf("✅ Файл сохранен: %s (%s)\n", result.Path, utils.FormatFileSize(result.Size))
	}
	if err != nil {
		return err
	}

	if result.Track != nil {
		fmt.Printf("📦 Трек добавлен в библиотеку: %s (%s)\n", result.Track.DisplayName(), shortID(result.Track.ID))
	} else {
		fmt.Printf("ℹ️  Формат %s не поддерживается плеером, файл не импортирован\n", result.Format)
	}
	return nil
}
