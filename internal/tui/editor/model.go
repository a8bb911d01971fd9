// Package editor содержит модель экрана редактирования метаданных трека для TUI
package editor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-sonata/internal/data"
	apperrors "github.com/hazadus/go-sonata/internal/errors"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Margin(1, 0)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(15)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	blurredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Margin(1, 0)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Margin(1, 0)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
)

// Пауза перед возвратом к списку после сохранения
const backDelay = time.Second

// TrackSavedMsg отправляется когда трек успешно сохранен
type TrackSavedMsg struct {
	Track data.Track
}

// GoBackMsg отправляется при отмене редактирования
type GoBackMsg struct{}

// savedMsg - результат сохранения
type savedMsg struct {
	track data.Track
	err   error
}

// SaveFunc сохраняет измененный трек
type SaveFunc func(data.Track) error

// fieldType определяет тип поля для редактирования
type fieldType int

const (
	artistField fieldType = iota
	titleField
	albumField
	coverField
	numFields
)

var labels = [numFields]string{"Исполнитель:", "Название:", "Альбом:", "Обложка:"}

// Model представляет модель экрана редактирования трека
type Model struct {
	originalTrack data.Track
	inputs        []textinput.Model
	focusIndex    int
	err           string
	success       string
	save          SaveFunc
}

// NewModel создает новую модель редактора трека
func NewModel(trackToEdit data.Track, save SaveFunc) *Model {
	inputs := make([]textinput.Model, numFields)

	placeholders := [numFields]string{
		"Введите исполнителя",
		"Введите название трека",
		"Введите название альбома",
		"URL обложки",
	}
	values := [numFields]string{
		trackToEdit.Artist,
		trackToEdit.Title,
		trackToEdit.Album,
		trackToEdit.Cover,
	}
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = placeholders[i]
		inputs[i].SetValue(values[i])
		inputs[i].PromptStyle = blurredStyle
		inputs[i].TextStyle = blurredStyle
	}
	inputs[artistField].Focus()
	inputs[artistField].PromptStyle = focusedStyle
	inputs[artistField].TextStyle = focusedStyle

	return &Model{
		originalTrack: trackToEdit,
		inputs:        inputs,
		save:          save,
	}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, func() tea.Msg {
				return GoBackMsg{}
			}

		case "ctrl+s":
			return m, m.saveTrack()

		case "tab", "shift+tab", "enter", "up", "down":
			s := msg.String()

			// Enter на кнопке Save
			if s == "enter" && m.focusIndex == len(m.inputs) {
				return m, m.saveTrack()
			}

			if s == "up" || s == "shift+tab" {
				m.focusIndex--
			} else {
				m.focusIndex++
			}

			if m.focusIndex > len(m.inputs) {
				m.focusIndex = 0
			} else if m.focusIndex < 0 {
				m.focusIndex = len(m.inputs)
			}

			return m, m.updateFocus()
		}

	case savedMsg:
		if msg.err != nil {
			m.err = fmt.Sprintf("Ошибка сохранения трека: %s", apperrors.UserMessage(msg.err))
			m.success = ""
			return m, nil
		}
		m.err = ""
		m.success = "Трек успешно сохранен!"
		m.originalTrack = msg.track
		return m, tea.Batch(
			func() tea.Msg { return TrackSavedMsg{Track: msg.track} },
			tea.Tick(backDelay, func(time.Time) tea.Msg { return GoBackMsg{} }),
		)

	case tea.WindowSizeMsg:
		for i := range m.inputs {
			m.inputs[i].Width = msg.Width - 20
		}
		return m, nil
	}

	// Обновляем активное поле ввода
	if m.focusIndex < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) updateFocus() tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		if i == m.focusIndex {
			cmds[i] = m.inputs[i].Focus()
			m.inputs[i].PromptStyle = focusedStyle
			m.inputs[i].TextStyle = focusedStyle
		} else {
			m.inputs[i].Blur()
			m.inputs[i].PromptStyle = blurredStyle
			m.inputs[i].TextStyle = blurredStyle
		}
	}
	return tea.Batch(cmds...)
}

// edited собирает трек из полей ввода
func (m *Model) edited() (data.Track, error) {
	artist := strings.TrimSpace(m.inputs[artistField].Value())
	title := strings.TrimSpace(m.inputs[titleField].Value())

	if artist == "" {
		return data.Track{}, fmt.Errorf("поле 'Исполнитель' не может быть пустым")
	}
	if title == "" {
		return data.Track{}, fmt.Errorf("поле 'Название' не может быть пустым")
	}

	updated := m.originalTrack
	updated.Artist = artist
	updated.Title = title
	updated.Album = strings.TrimSpace(m.inputs[albumField].Value())
	if updated.Album == "" {
		updated.Album = data.UnknownAlbum
	}
	updated.Cover = strings.TrimSpace(m.inputs[coverField].Value())
	return updated, nil
}

// saveTrack проверяет поля и сохраняет трек в фоне
func (m *Model) saveTrack() tea.Cmd {
	updated, err := m.edited()
	if err != nil {
		m.err = err.Error()
		m.success = ""
		return nil
	}

	save := m.save
	return func() tea.Msg {
		if save == nil {
			return savedMsg{track: updated}
		}
		return savedMsg{track: updated, err: save(updated)}
	}
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Редактирование трека %s", m.originalTrack.ID)))
	b.WriteString("\n\n")

	for i, input := range m.inputs {
		b.WriteString(labelStyle.Render(labels[i]))
		b.WriteString(" ")
		b.WriteString(input.View())
		b.WriteString("\n\n")
	}

	saveButton := "[ Сохранить ]"
	if m.focusIndex == len(m.inputs) {
		saveButton = focusedStyle.Render(saveButton)
	} else {
		saveButton = blurredStyle.Render(saveButton)
	}
	b.WriteString(saveButton)
	b.WriteString("\n\n")

	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}
	if m.success != "" {
		b.WriteString(successStyle.Render(m.success))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("Tab/Enter: следующее поле • Shift+Tab: предыдущее поле"))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("Ctrl+S: сохранить • Esc: отмена"))

	return b.String()
}
