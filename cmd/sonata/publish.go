package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-sonata/internal/utils"
)

// createPublishCommand создает команду publish с привязкой к экземпляру приложения
func (app *Application) createPublishCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "publish [id]",
		Short: "Upload an offline track to S3 storage",
		Long:  `Upload an offline track to S3 storage with progress tracking. The track then plays from its URL.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Создаем контекст с таймаутом для загрузки (10 минут)
			uploadCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			defer cancel()
			return app.publishTrack(uploadCtx, args[0])
		},
	}
}

// publishTrack загружает трек в S3 с отображением прогресса
func (app *Application) publishTrack(ctx context.Context, ref string) error {
	if app.Publisher == nil {
		fmt.Println("❌ Ошибка: S3 не настроен, задайте aws_* в конфигурации")
		return nil
	}

	track, err := app.Library.FindTrack(ref)
	if err != nil {
		printError(err)
		return nil
	}

	fmt.Printf("📤 Загружаем трек в S3:\n")
	fmt.Printf("   Трек: %s\n", track.DisplayName())
	fmt.Printf("   Бакет: %s\n", app.Config.AwsBucketName)
	fmt.Println()

	// Создаем канал для отслеживания прогресса
	progressChan := make(chan int64)
	done := make(chan struct{})

	// Запускаем горутину для отображения прогресса
	go func() {
		defer close(done)
		startTime := time.Now()

		for progress := range progressChan {
			if progress > 0 {
				elapsed := time.Since(startTime)
				speed := float64(progress) / elapsed.Seconds()

				fmt.Printf("\r📊 Отправлено: %s | Скорость: %s/s | Прошло: %s",
					utils.FormatFileSize(progress),
					utils.FormatFileSize(int64(speed)),
					utils.FormatDuration(elapsed))
			}
		}
	}()

	result, err := app.Publisher.Publish(ctx, track.ID, func(bytesRead int64) {
		select {
		case progressChan <- bytesRead:
		case <-ctx.Done():
		}
	})

	// Закрываем канал прогресса
	close(progressChan)
	<-done

	if err != nil {
		return fmt.Errorf("ошибка публикации трека: %w", err)
	}

	fmt.Printf("\n✅ Трек успешно загружен в S3!\n")
	fmt.Printf("   Размер: %s\n", utils.FormatFileSize(result.Size))
	fmt.Printf("   URL: %s\n", result.URL)
	return nil
}
