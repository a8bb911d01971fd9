// Package playlists содержит модель экрана списка плейлистов для TUI
package playlists

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-sonata/internal/data"
	"github.com/hazadus/go-sonata/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
)

// PlaylistSelectedMsg отправляется при открытии плейлиста
type PlaylistSelectedMsg struct {
	ID string
}

// PlaylistPlayMsg запрашивает воспроизведение плейлиста целиком
type PlaylistPlayMsg struct {
	ID string
}

type playlistItem struct {
	playlist data.Playlist
}

func (i playlistItem) FilterValue() string {
	return i.playlist.Name + " " + i.playlist.Description
}

type playlistDelegate struct{}

func (d playlistDelegate) Height() int                             { return 1 }
func (d playlistDelegate) Spacing() int                            { return 0 }
func (d playlistDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d playlistDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(playlistItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderItem(i, index == m.Index()))
}

// renderItem форматирует строку: Название | число треков | описание
func renderItem(i playlistItem, selected bool) string {
	str := fmt.Sprintf("%-30s %4d тр.  %s",
		utils.TruncateString(i.playlist.Name, 30),
		len(i.playlist.Tracks),
		utils.TruncateString(i.playlist.Description, 40))

	if selected {
		return selectedItemStyle.Render("> " + str)
	}
	return itemStyle.Render(str)
}

// Model представляет модель экрана плейлистов
type Model struct {
	list list.Model
}

// NewModel создает модель списка плейлистов
func NewModel(playlists []data.Playlist) *Model {
	l := list.New(nil, playlistDelegate{}, 0, 0)
	l.Title = "Плейлисты"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle

	m := &Model{list: l}
	m.SetPlaylists(playlists)
	return m
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// SetPlaylists обновляет список
func (m *Model) SetPlaylists(playlists []data.Playlist) {
	items := make([]list.Item, len(playlists))
	for i, p := range playlists {
		items[i] = playlistItem{playlist: p}
	}
	m.list.SetItems(items)
}

// Filtering сообщает, вводится ли сейчас фильтр
func (m *Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case tea.KeyMsg:
		if m.Filtering() {
			break
		}
		item, ok := m.list.SelectedItem().(playlistItem)
		if !ok {
			break
		}
		switch msg.String() {
		case "enter":
			id := item.playlist.ID
			return m, func() tea.Msg { return PlaylistSelectedMsg{ID: id} }
		case "p":
			id := item.playlist.ID
			return m, func() tea.Msg { return PlaylistPlayMsg{ID: id} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	return m.list.View() + "\n" + helpStyle.Render("Enter: открыть • p: воспроизвести")
}
