// Package tracklist содержит модель экрана списка треков для TUI
package tracklist

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
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
)

// TrackSelectedMsg отправляется при выборе трека: очередь - весь список
type TrackSelectedMsg struct {
	Tracks []data.Track
	Index  int
}

// TrackEditMsg отправляется при выборе трека для редактирования
type TrackEditMsg struct {
	Track data.Track
}

// TrackDeleteMsg запрашивает удаление трека
type TrackDeleteMsg struct {
	Track data.Track
}

// TrackLikeMsg переключает отметку "нравится"
type TrackLikeMsg struct {
	Track data.Track
}

// TrackEnqueueMsg добавляет трек в конец очереди
type TrackEnqueueMsg struct {
	Track data.Track
}

// TrackMoveMsg переставляет трек во вложенном списке
type TrackMoveMsg struct {
	Track    data.Track
	From, To int
}

// GoBackMsg отправляется при выходе из вложенного списка
type GoBackMsg struct{}

// trackItem реализует интерфейс list.Item для трека
type trackItem struct {
	track data.Track
	liked bool
}

func (i trackItem) FilterValue() string {
	return fmt.Sprintf("%s %s %s", i.track.Artist, i.track.Title, i.track.Album)
}

// trackItemDelegate реализует отображение элементов списка
type trackItemDelegate struct{}

func (d trackItemDelegate) Height() int                             { return 1 }
func (d trackItemDelegate) Spacing() int                            { return 0 }
func (d trackItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d trackItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(trackItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderItem(i, index == m.Index()))
}

// renderItem форматирует строку в виде таблицы: ID | Исполнитель | Название | Длительность
func renderItem(i trackItem, selected bool) string {
	mark := " "
	if i.liked {
		mark = "♥"
	}
	place := "☁"
	if i.track.IsLocal {
		place = "⬇"
	}

	str := fmt.Sprintf("%s %s %-8s %-20s %-50s %s",
		mark,
		place,
		utils.TruncateString(i.track.ID, 8),
		utils.TruncateString(i.track.Artist, 20),
		utils.TruncateString(i.track.Title, 50),
		utils.FormatTime(i.track.Duration))

	if selected {
		return selectedItemStyle.Render("> " + str)
	}
	return itemStyle.Render(str)
}

// Model представляет модель экрана списка треков
type Model struct {
	list   list.Model
	tracks []data.Track
	nested bool
}

// NewModel создает модель списка. nested - список открыт из другого экрана
func NewModel(title string, tracks []data.Track, liked func(id string) bool, nested bool) *Model {
	l := list.New(nil, trackItemDelegate{}, 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetShowTitle(true)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	m := &Model{list: l, nested: nested}
	m.SetTracks(tracks, liked)
	return m
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// SetTracks обновляет данные модели без пересоздания
func (m *Model) SetTracks(tracks []data.Track, liked func(id string) bool) {
	m.tracks = tracks

	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t, liked: liked != nil && liked(t.ID)}
	}
	m.list.SetItems(items)
}

// Tracks возвращает отображаемые треки
func (m *Model) Tracks() []data.Track {
	return m.tracks
}

// Filtering сообщает, вводится ли сейчас фильтр
func (m *Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// selected возвращает выбранный трек и его индекс в полном списке
func (m *Model) selected() (data.Track, int, bool) {
	item, ok := m.list.SelectedItem().(trackItem)
	if !ok {
		return data.Track{}, -1, false
	}
	for i, t := range m.tracks {
		if t.ID == item.track.ID {
			return t, i, true
		}
	}
	return data.Track{}, -1, false
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4) // Оставляем место для заголовка и справки
		return m, nil

	case tea.KeyMsg:
		// Во время ввода фильтра клавиши принадлежат списку
		if m.Filtering() {
			break
		}
		if cmd, ok := m.handleKey(msg.String()); ok {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(key string) (tea.Cmd, bool) {
	if key == "esc" && m.nested && m.list.FilterState() == list.Unfiltered {
		return emit(GoBackMsg{}), true
	}

	t, index, ok := m.selected()
	if !ok {
		return nil, false
	}

	switch key {
	case "enter":
		tracks := append([]data.Track(nil), m.tracks...)
		return emit(TrackSelectedMsg{Tracks: tracks, Index: index}), true
	case "e":
		return emit(TrackEditMsg{Track: t}), true
	case "d":
		return emit(TrackDeleteMsg{Track: t}), true
	case "l":
		return emit(TrackLikeMsg{Track: t}), true
	case "a":
		return emit(TrackEnqueueMsg{Track: t}), true
	case "[", "]":
		return m.move(t, index, key)
	}
	return nil, false
}

// move сдвигает трек вложенного списка на одну позицию. Курсор следует за треком
func (m *Model) move(t data.Track, index int, key string) (tea.Cmd, bool) {
	if !m.nested || m.list.FilterState() != list.Unfiltered {
		return nil, false
	}
	to := index + 1
	if key == "[" {
		to = index - 1
	}
	if to < 0 || to >= len(m.tracks) {
		return nil, true
	}
	m.list.Select(to)
	return emit(TrackMoveMsg{Track: t, From: index, To: to}), true
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}

// View отображает модель
func (m *Model) View() string {
	help := "Enter: воспроизвести • a: в очередь • e: редактировать • l: нравится • d: удалить"
	if m.nested {
		help += " • [/]: переместить • esc: назад"
	}
	return m.list.View() + "\n" + helpStyle.Render(help)
}
