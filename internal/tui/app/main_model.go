// Package app содержит основную логику TUI приложения
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-sonata/internal/data"
	apperrors "github.com/hazadus/go-sonata/internal/errors"
	"github.com/hazadus/go-sonata/internal/player"
	"github.com/hazadus/go-sonata/internal/tui/editor"
	tuiPlayer "github.com/hazadus/go-sonata/internal/tui/player"
	"github.com/hazadus/go-sonata/internal/tui/playlists"
	"github.com/hazadus/go-sonata/internal/tui/tracklist"
)

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// TracksScreen - экран всех треков
	TracksScreen ScreenType = iota
	// LikedScreen - понравившиеся треки
	LikedScreen
	// PlaylistsScreen - список плейлистов
	PlaylistsScreen
	// PlaylistTracksScreen - треки открытого плейлиста
	PlaylistTracksScreen
	// PlayerScreen - экран плеера
	PlayerScreen
	// EditorScreen - экран редактирования
	EditorScreen
)

var (
	nowPlayingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).PaddingLeft(2)
	noticeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).PaddingLeft(2)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).PaddingLeft(2)
)

// Library - операции каталога, нужные интерфейсу
type Library interface {
	ListTracks() []data.Track
	Liked() []data.Track
	IsLiked(id string) bool
	Playlists() []data.Playlist
	PlaylistTracks(ref string) (data.Playlist, []data.Track, error)
	UpdateTrack(ctx context.Context, t data.Track) error
	DeleteTrack(ctx context.Context, id string) (bool, error)
	ToggleLike(ref string) (data.Track, bool, error)
	MovePlaylistTrack(ref string, from, to int) error
}

// Player - сессия воспроизведения
type Player interface {
	tuiPlayer.Controls
	Snapshot() player.Snapshot
	Subscribe() <-chan player.Snapshot
	Unsubscribe(ch <-chan player.Snapshot)
	PlayQueue(tracks []data.Track, start int) error
	Enqueue(track data.Track)
	Remove(id string) error
	Refresh(track data.Track)
}

// snapshotMsg - очередное состояние из подписки
type snapshotMsg struct {
	snapshot player.Snapshot
}

// resultMsg - итог фоновой операции
type resultMsg struct {
	notice string
	err    error
	reload bool
}

// MainModel представляет главную модель TUI
type MainModel struct {
	ctx            context.Context
	library        Library
	player         Player
	updates        <-chan player.Snapshot
	currentScreen  ScreenType
	returnScreen   ScreenType
	tracksModel    *tracklist.Model
	likedModel     *tracklist.Model
	playlistsModel *playlists.Model
	openedModel    *tracklist.Model
	openedID       string
	playerModel    *tuiPlayer.Model
	editorModel    *editor.Model
	size           tea.WindowSizeMsg
	notice         string
	err            error
}

// NewMainModel создает новую главную модель
func NewMainModel(ctx context.Context, library Library, p Player) *MainModel {
	return &MainModel{
		ctx:            ctx,
		library:        library,
		player:         p,
		updates:        p.Subscribe(),
		currentScreen:  TracksScreen,
		tracksModel:    tracklist.NewModel("Треки", library.ListTracks(), library.IsLiked, false),
		likedModel:     tracklist.NewModel("Понравившиеся", library.Liked(), library.IsLiked, false),
		playlistsModel: playlists.NewModel(library.Playlists()),
		playerModel:    tuiPlayer.NewModel(p, p.Snapshot()),
	}
}

// Init инициализирует модель
func (m *MainModel) Init() tea.Cmd {
	return tea.Batch(m.tracksModel.Init(), m.playerModel.Init(), waitForSnapshot(m.updates))
}

// Close отписывается от обновлений сессии
func (m *MainModel) Close() {
	if m.updates != nil {
		m.player.Unsubscribe(m.updates)
		m.updates = nil
	}
}

// CurrentScreen возвращает активный экран
func (m *MainModel) CurrentScreen() ScreenType {
	return m.currentScreen
}

// waitForSnapshot ждет следующее состояние сессии
func waitForSnapshot(ch <-chan player.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg{snapshot: s}
	}
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if cmd, ok := m.handleGlobalKey(msg.String()); ok {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.size = msg
		return m, m.resize(msg)

	case snapshotMsg:
		_, cmd := m.playerModel.Update(tuiPlayer.SnapshotMsg{Snapshot: msg.snapshot})
		return m, tea.Batch(cmd, waitForSnapshot(m.updates))

	case progress.FrameMsg:
		// Анимация прогресса идет и на других экранах
		_, cmd := m.playerModel.Update(msg)
		return m, cmd

	case resultMsg:
		m.notice, m.err = msg.notice, msg.err
		if msg.reload {
			m.reload()
		}
		return m, nil

	case tracklist.TrackSelectedMsg:
		m.openPlayer()
		return m, m.playQueue(msg.Tracks, msg.Index)

	case tracklist.TrackEnqueueMsg:
		m.player.Enqueue(msg.Track)
		m.notice, m.err = fmt.Sprintf("В очереди: %s", msg.Track.DisplayName()), nil
		return m, nil

	case tracklist.TrackLikeMsg:
		return m, m.toggleLike(msg.Track)

	case tracklist.TrackDeleteMsg:
		return m, m.deleteTrack(msg.Track)

	case tracklist.TrackEditMsg:
		m.returnScreen = m.currentScreen
		m.currentScreen = EditorScreen
		m.editorModel = editor.NewModel(msg.Track, func(t data.Track) error {
			return m.library.UpdateTrack(m.ctx, t)
		})
		if m.size.Width > 0 {
			m.editorModel.Update(m.size)
		}
		return m, m.editorModel.Init()

	case tracklist.TrackMoveMsg:
		return m, m.moveTrack(msg)

	case tracklist.GoBackMsg:
		m.currentScreen = PlaylistsScreen
		m.openedModel = nil
		m.openedID = ""
		return m, nil

	case playlists.PlaylistSelectedMsg:
		return m, m.openPlaylist(msg.ID)

	case playlists.PlaylistPlayMsg:
		_, tracks, err := m.library.PlaylistTracks(msg.ID)
		if err != nil {
			m.notice, m.err = "", err
			return m, nil
		}
		m.openPlayer()
		return m, m.playQueue(tracks, 0)

	case tuiPlayer.GoBackMsg:
		m.currentScreen = m.returnScreen
		return m, nil

	case editor.TrackSavedMsg:
		m.player.Refresh(msg.Track)
		m.notice, m.err = "Трек сохранен", nil
		m.reload()
		return m, nil

	case editor.GoBackMsg:
		m.currentScreen = m.returnScreen
		m.editorModel = nil
		return m, nil
	}

	return m, m.updateActive(msg)
}

// handleGlobalKey обрабатывает клавиши переключения экранов
func (m *MainModel) handleGlobalKey(key string) (tea.Cmd, bool) {
	if !m.libraryScreen() || m.filtering() {
		return nil, false
	}

	switch key {
	case "tab":
		switch m.currentScreen {
		case TracksScreen:
			m.currentScreen = LikedScreen
		case LikedScreen:
			m.currentScreen = PlaylistsScreen
		default:
			m.currentScreen = TracksScreen
		}
		return nil, true
	case "o":
		m.openPlayer()
		return nil, true
	case "q":
		return tea.Quit, true
	}
	return nil, false
}

// libraryScreen сообщает, открыт ли один из списков
func (m *MainModel) libraryScreen() bool {
	return m.currentScreen != PlayerScreen && m.currentScreen != EditorScreen
}

func (m *MainModel) filtering() bool {
	switch m.currentScreen {
	case TracksScreen:
		return m.tracksModel.Filtering()
	case LikedScreen:
		return m.likedModel.Filtering()
	case PlaylistsScreen:
		return m.playlistsModel.Filtering()
	case PlaylistTracksScreen:
		return m.openedModel != nil && m.openedModel.Filtering()
	}
	return false
}

func (m *MainModel) openPlayer() {
	if m.currentScreen != PlayerScreen {
		m.returnScreen = m.currentScreen
	}
	m.currentScreen = PlayerScreen
}

func (m *MainModel) playQueue(tracks []data.Track, start int) tea.Cmd {
	return func() tea.Msg {
		if err := m.player.PlayQueue(tracks, start); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{}
	}
}

func (m *MainModel) toggleLike(t data.Track) tea.Cmd {
	return func() tea.Msg {
		_, liked, err := m.library.ToggleLike(t.ID)
		if err != nil {
			return resultMsg{err: err}
		}
		notice := "Отметка снята: "
		if liked {
			notice = "Нравится: "
		}
		return resultMsg{notice: notice + t.DisplayName(), reload: true}
	}
}

func (m *MainModel) deleteTrack(t data.Track) tea.Cmd {
	return func() tea.Msg {
		deleted, err := m.library.DeleteTrack(m.ctx, t.ID)
		if err != nil {
			return resultMsg{err: err, reload: true}
		}
		if !deleted {
			return resultMsg{notice: "Трек уже удален", reload: true}
		}
		if err := m.player.Remove(t.ID); err != nil {
			return resultMsg{err: err, reload: true}
		}
		return resultMsg{notice: "Трек удален: " + t.DisplayName(), reload: true}
	}
}

// moveTrack переставляет трек в открытом плейлисте
func (m *MainModel) moveTrack(msg tracklist.TrackMoveMsg) tea.Cmd {
	if m.openedID == "" {
		return nil
	}
	id := m.openedID
	return func() tea.Msg {
		if err := m.library.MovePlaylistTrack(id, msg.From, msg.To); err != nil {
			return resultMsg{err: err, reload: true}
		}
		return resultMsg{reload: true}
	}
}

// openPlaylist показывает треки плейлиста во вложенном списке
func (m *MainModel) openPlaylist(id string) tea.Cmd {
	p, tracks, err := m.library.PlaylistTracks(id)
	if err != nil && !errors.Is(err, apperrors.ErrEmptyPlaylist) {
		m.notice, m.err = "", err
		return nil
	}

	m.openedID = p.ID
	m.openedModel = tracklist.NewModel(p.Name, tracks, m.library.IsLiked, true)
	m.currentScreen = PlaylistTracksScreen
	if m.size.Width == 0 {
		return nil
	}
	_, cmd := m.openedModel.Update(tea.WindowSizeMsg{Width: m.size.Width, Height: m.size.Height - 2})
	return cmd
}

// reload перечитывает каталог во все списки
func (m *MainModel) reload() {
	m.tracksModel.SetTracks(m.library.ListTracks(), m.library.IsLiked)
	m.likedModel.SetTracks(m.library.Liked(), m.library.IsLiked)
	m.playlistsModel.SetPlaylists(m.library.Playlists())

	if m.openedModel != nil {
		_, tracks, err := m.library.PlaylistTracks(m.openedID)
		if err != nil && !errors.Is(err, apperrors.ErrEmptyPlaylist) {
			m.openedModel = nil
			m.openedID = ""
			if m.currentScreen == PlaylistTracksScreen {
				m.currentScreen = PlaylistsScreen
			}
			return
		}
		m.openedModel.SetTracks(tracks, m.library.IsLiked)
	}
}

func (m *MainModel) resize(msg tea.WindowSizeMsg) tea.Cmd {
	// Оставляем строку под статус
	inner := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 2}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.tracksModel, cmd = m.tracksModel.Update(inner)
	cmds = append(cmds, cmd)
	m.likedModel, cmd = m.likedModel.Update(inner)
	cmds = append(cmds, cmd)
	m.playlistsModel, cmd = m.playlistsModel.Update(inner)
	cmds = append(cmds, cmd)
	if m.openedModel != nil {
		m.openedModel, cmd = m.openedModel.Update(inner)
		cmds = append(cmds, cmd)
	}
	_, cmd = m.playerModel.Update(msg)
	cmds = append(cmds, cmd)
	if m.editorModel != nil {
		m.editorModel, cmd = m.editorModel.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// updateActive передает сообщение активной модели
func (m *MainModel) updateActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	switch m.currentScreen {
	case TracksScreen:
		m.tracksModel, cmd = m.tracksModel.Update(msg)
	case LikedScreen:
		m.likedModel, cmd = m.likedModel.Update(msg)
	case PlaylistsScreen:
		m.playlistsModel, cmd = m.playlistsModel.Update(msg)
	case PlaylistTracksScreen:
		if m.openedModel != nil {
			m.openedModel, cmd = m.openedModel.Update(msg)
		}
	case PlayerScreen:
		_, cmd = m.playerModel.Update(msg)
	case EditorScreen:
		if m.editorModel != nil {
			m.editorModel, cmd = m.editorModel.Update(msg)
		}
	}
	return cmd
}

// View отображает интерфейс
func (m *MainModel) View() string {
	var body string

	switch m.currentScreen {
	case TracksScreen:
		body = m.tracksModel.View()
	case LikedScreen:
		body = m.likedModel.View()
	case PlaylistsScreen:
		body = m.playlistsModel.View()
	case PlaylistTracksScreen:
		if m.openedModel == nil {
			return "Ошибка: плейлист не открыт"
		}
		body = m.openedModel.View()
	case PlayerScreen:
		return m.playerModel.View() + m.statusLine()
	case EditorScreen:
		if m.editorModel == nil {
			return "Ошибка: модель редактора не инициализирована"
		}
		return m.editorModel.View()
	default:
		return "Неизвестный экран"
	}

	return body + m.nowPlaying() + m.statusLine()
}

// nowPlaying показывает текущий трек под списками
func (m *MainModel) nowPlaying() string {
	s := m.playerModel.Snapshot()
	if !s.HasTrack() {
		return "\n" + nowPlayingStyle.Render("Tab: разделы • o: плеер • q: выход")
	}
	icon := "⏸"
	if s.IsPlaying() {
		icon = "▶"
	}
	return "\n" + nowPlayingStyle.Render(fmt.Sprintf("%s %s  %s • o: плеер", icon, s.Track.DisplayName(), s.TimeLabel()))
}

func (m *MainModel) statusLine() string {
	if m.err != nil {
		return "\n" + errorStyle.Render(apperrors.UserMessage(m.err))
	}
	if m.notice != "" {
		return "\n" + noticeStyle.Render(m.notice)
	}
	return ""
}
