// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/hazadus/go-sonata/internal/tui/app"
)

// App представляет основное TUI приложение
type App struct {
	library app.Library
	player  app.Player
	logger  *logrus.Logger
}

// NewApp создает новый экземпляр TUI приложения
func NewApp(library app.Library, player app.Player, logger *logrus.Logger) *App {
	return &App{
		library: library,
		player:  player,
		logger:  logger,
	}
}

// Run запускает TUI приложение и блокируется до выхода из него.
// Воспроизведение после выхода не останавливается, сессией владеет вызывающий
func (a *App) Run(ctx context.Context) error {
	model := app.NewMainModel(ctx, a.library, a.player)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	a.logger.Debug("Запуск TUI")
	_, err := p.Run()
	if err != nil {
		a.logger.WithError(err).Error("TUI завершился с ошибкой")
	}
	return err
}
