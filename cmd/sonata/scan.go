package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-sonata/internal/data"
	"github.com/hazadus/go-sonata/internal/watcher"
)

// createScanCommand создает команду scan
func (app *Application) createScanCommand(ctx context.Context) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Import every supported audio file from a directory",
		Long: `Import every supported audio file found under a directory (library_dir by default).
With --watch the directory is monitored and new files are imported as they appear.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := app.Config.LibraryDir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				fmt.Println("❌ Ошибка: укажите директорию или library_dir в конфигурации")
				return nil
			}
			return app.scanLibrary(ctx, dir, watch || app.Config.WatchLibrary)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep watching the directory for new files")

	return cmd
}

func (app *Application) scanLibrary(ctx context.Context, dir string, watch bool) error {
	cfg := *app.Config
	cfg.LibraryDir = dir

	w := watcher.New(&cfg, app.Library, app.Logger, watcher.WithOnImport(func(t data.Track) {
		fmt.Printf("✅ %s (%s)\n", t.DisplayName(), shortID(t.ID))
	}))

	fmt.Printf("🔍 Сканируем %s\n", dir)
	imported, err := w.Scan(ctx)
	if err != nil {
		printError(err)
		return nil
	}
	fmt.Printf("📦 Импортировано треков: %d\n", len(imported))

	if !watch {
		return nil
	}

	fmt.Println("👀 Следим за новыми файлами, Ctrl+C для выхода")
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("ошибка наблюдения за директорией: %w", err)
	}
	return nil
}
