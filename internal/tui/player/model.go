// Package player содержит модель экрана воспроизведения для TUI
package player

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/hazadus/go-sonata/internal/errors"
	"github.com/hazadus/go-sonata/internal/player"
	"github.com/hazadus/go-sonata/internal/utils"
)

// Шаг перемотки стрелками, в секундах
const seekStep = 5.0

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0000ff")).
			MarginBottom(1)

	trackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1).
			MarginBottom(1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	queueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	currentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)
)

// Controls - команды сессии воспроизведения, доступные с экрана
type Controls interface {
	TogglePlay() error
	Next() error
	Previous() error
	SeekTo(seconds float64) error
	VolumeUp()
	VolumeDown()
	ToggleMute()
	ToggleShuffle() bool
	CycleRepeat() player.RepeatMode
}

// GoBackMsg отправляется для возврата к списку треков
type GoBackMsg struct{}

// SnapshotMsg содержит новое состояние сессии
type SnapshotMsg struct {
	Snapshot player.Snapshot
}

// commandErrMsg - ошибка команды управления
type commandErrMsg struct {
	err error
}

// Model представляет модель экрана воспроизведения
type Model struct {
	controls    Controls
	progressBar progress.Model
	snapshot    player.Snapshot
	err         error
	width       int
	height      int
}

// NewModel создает модель экрана для сессии controls
func NewModel(controls Controls, snapshot player.Snapshot) *Model {
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	return &Model{
		controls:    controls,
		progressBar: prog,
		snapshot:    snapshot,
	}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return m.progressBar.SetPercent(m.snapshot.ProgressPercent() / 100)
}

// Snapshot возвращает последнее полученное состояние
func (m *Model) Snapshot() player.Snapshot {
	return m.snapshot
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = min(60, msg.Width-10)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg.String())

	case SnapshotMsg:
		m.snapshot = msg.Snapshot
		m.err = msg.Snapshot.Err
		return m, m.progressBar.SetPercent(msg.Snapshot.ProgressPercent() / 100)

	case commandErrMsg:
		m.err = msg.err
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKey(key string) tea.Cmd {
	switch key {
	case "q", "esc":
		// Воспроизведение продолжается в фоне
		return func() tea.Msg {
			return GoBackMsg{}
		}
	case " ", "space":
		return m.run(m.controls.TogglePlay)
	case "n":
		return m.run(m.controls.Next)
	case "p":
		return m.run(m.controls.Previous)
	case "right":
		return m.run(func() error {
			return m.controls.SeekTo(m.snapshot.CurrentTime + seekStep)
		})
	case "left":
		return m.run(func() error {
			return m.controls.SeekTo(m.snapshot.CurrentTime - seekStep)
		})
	case "+", "=":
		m.controls.VolumeUp()
	case "-":
		m.controls.VolumeDown()
	case "m":
		m.controls.ToggleMute()
	case "s":
		m.controls.ToggleShuffle()
	case "r":
		m.controls.CycleRepeat()
	}
	return nil
}

func (m *Model) run(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return commandErrMsg{err: err}
		}
		return nil
	}
}

// View отображает модель
func (m *Model) View() string {
	s := m.snapshot

	title := titleStyle.Render("🎵 Воспроизведение")

	if !s.HasTrack() {
		return fmt.Sprintf(
			"%s\n\n%s\n\n%s",
			title,
			trackInfoStyle.Render("Очередь пуста"),
			controlsStyle.Render("q/esc: назад к списку"),
		)
	}

	trackInfo := trackInfoStyle.Render(fmt.Sprintf(
		"🎤 %s\n🎵 %s\n💿 %s",
		s.Track.Artist,
		s.Track.Title,
		s.Track.Album,
	))

	statusText := statusStyle.Render(fmt.Sprintf("%s %s   %s   %s",
		stateIcon(s.State),
		formatState(s.State),
		formatVolume(s),
		formatModes(s),
	))

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s\n\n%s\n\n%s\n%s\n", title, trackInfo, statusText, m.progressBar.View(), s.TimeLabel())

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(apperrors.UserMessage(m.err)))
		b.WriteString("\n")
	}

	if len(s.Queue) > 1 {
		b.WriteString("\n")
		b.WriteString(renderQueue(s, 5))
	}

	b.WriteString(controlsStyle.Render(
		"Пробел: пауза • n/p: следующий/предыдущий • ←/→: перемотка • +/-: громкость • m: без звука • s: перемешать • r: повтор • q: назад",
	))
	return b.String()
}

// renderQueue показывает окно очереди вокруг текущей позиции
func renderQueue(s player.Snapshot, window int) string {
	start := max(0, s.Position-window/2)
	end := min(len(s.Queue), start+window)

	var b strings.Builder
	for i := start; i < end; i++ {
		line := fmt.Sprintf("%2d. %s", i+1, utils.TruncateString(s.Queue[i].DisplayName(), 50))
		if i == s.Position {
			b.WriteString(currentStyle.Render("> " + line))
		} else {
			b.WriteString(queueStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func stateIcon(state player.State) string {
	switch state {
	case player.StatePlaying:
		return "▶️"
	case player.StateEnded:
		return "⏹️"
	default:
		return "⏸️"
	}
}

func formatState(state player.State) string {
	switch state {
	case player.StatePlaying:
		return "Воспроизведение"
	case player.StateEnded:
		return "Завершено"
	case player.StateEmpty:
		return "Нет трека"
	default:
		return "Пауза"
	}
}

func formatVolume(s player.Snapshot) string {
	if s.IsMuted {
		return "🔇 0%"
	}
	return fmt.Sprintf("🔊 %d%%", int(s.Volume*100+0.5))
}

func formatModes(s player.Snapshot) string {
	modes := "повтор: " + s.Repeat.String()
	if s.Shuffle {
		modes += " • перемешивание"
	}
	return modes
}
