package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/hazadus/go-sonata/internal/audio"
	"github.com/hazadus/go-sonata/internal/blob"
	"github.com/hazadus/go-sonata/internal/config"
	"github.com/hazadus/go-sonata/internal/logging"
	"github.com/hazadus/go-sonata/internal/player"
	"github.com/hazadus/go-sonata/internal/s3"
	"github.com/hazadus/go-sonata/internal/store"
	"github.com/hazadus/go-sonata/internal/track"
	"github.com/hazadus/go-sonata/internal/uploader"
)

const (
	defaultConfigPath = "~/.sonata/config.yaml"
)

// Менеджер каталога сохраняет изменения, которые делает сессия воспроизведения
var _ player.Catalog = (*track.Manager)(nil)

// Application связывает конфигурацию, каталог и сессию воспроизведения
type Application struct {
	Config    *config.Config
	Logger    *logrus.Logger
	Library   *track.Manager
	Publisher *uploader.Service

	store      *store.Store
	controller *player.Controller
	cancelRun  context.CancelFunc
}

// NewApplication открывает хранилище и загружает библиотеку.
// Недоступное офлайн-хранилище не мешает работе с остальным каталогом
func NewApplication(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Application, error) {
	st, err := store.Open(cfg.StorePath, logger)
	if err != nil {
		logger.WithError(err).Warn("Офлайн-хранилище недоступно")
		st = nil
	}

	library := track.NewManager(cfg, st, blob.NewRegistry(), logger)
	if err := library.Load(ctx); err != nil {
		if st != nil {
			_ = st.Close()
		}
		return nil, fmt.Errorf("ошибка загрузки библиотеки: %w", err)
	}

	app := &Application{
		Config:  cfg,
		Logger:  logger,
		Library: library,
		store:   st,
	}

	if cfg.HasS3() {
		s3Uploader, err := s3.NewUploader(s3.ConfigFrom(cfg), logger)
		if err != nil {
			logger.WithError(err).Warn("S3 недоступен, публикация отключена")
		} else {
			library.SetRemoteRemover(s3Uploader)
			app.Publisher = uploader.NewService(s3Uploader, library, logger)
		}
	}

	return app, nil
}

// Player возвращает сессию воспроизведения, создавая ее при первом обращении.
// Аудиоустройство открывается только командами, которые что-то играют
func (app *Application) Player(ctx context.Context) *player.Controller {
	if app.controller != nil {
		return app.controller
	}

	speaker := audio.NewSpeaker(audio.NewOpener(app.Library.Blobs()), app.Logger)
	app.controller = player.NewController(speaker, app.Logger,
		player.WithCatalog(app.Library),
		player.WithRetainer(app.Library.Blobs()),
		player.WithVolume(app.Library.Volume()),
	)

	runCtx, cancel := context.WithCancel(ctx)
	app.cancelRun = cancel
	go func() {
		if err := app.controller.Run(runCtx); err != nil && runCtx.Err() == nil {
			app.Logger.WithError(err).Error("Цикл событий плеера завершился с ошибкой")
		}
	}()

	if app.Publisher != nil {
		app.Publisher.SetRefresher(app.controller)
	}

	// Последний трек загружается, но не запускается
	if last, ok := app.Library.LastPlayed(); ok {
		if err := app.controller.Load(&last); err != nil {
			app.Logger.WithError(err).Warn("Не удалось восстановить последний трек")
		}
		app.controller.SetQueue(app.Library.ListTracks())
	}
	return app.controller
}

// Close останавливает воспроизведение и закрывает хранилище
func (app *Application) Close() error {
	if app.controller != nil {
		app.cancelRun()
		if err := app.controller.Close(); err != nil {
			app.Logger.WithError(err).Warn("Ошибка закрытия вывода звука")
		}
	}
	if app.store != nil {
		return app.store.Close()
	}
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig(defaultConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		return 1
	}

	logger, logCloser, err := logging.New(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка настройки логирования: %v\n", err)
		return 1
	}
	defer logCloser.Close()

	// В терминальном интерфейсе записи без файла логов только мешают
	if cfg.LogFile == "" && isTUI(os.Args[1:]) {
		logger.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApplication(ctx, cfg, logger)
	if err != nil {
		fmt.Printf("❌ Ошибка: %v\n", err)
		return 1
	}
	defer app.Close()

	rootCmd := app.createRootCommand(ctx)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		return 1
	}
	return 0
}

func isTUI(args []string) bool {
	return len(args) > 0 && args[0] == "tui"
}
