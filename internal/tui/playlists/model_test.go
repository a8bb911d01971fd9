package playlists

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-sonata/internal/data"
)

func testPlaylists() []data.Playlist {
	return []data.Playlist{
		{ID: "p1", Name: "Утро", Description: "спокойное", Tracks: []string{"a", "b"}},
		{ID: "p2", Name: "Дорога"},
	}
}

func TestSelectPlaylist(t *testing.T) {
	model := NewModel(testPlaylists())
	model, _ = model.Update(tea.WindowSizeMsg{Width: 100, Height: 24})

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Ожидалась команда открытия плейлиста")
	}
	msg, ok := cmd().(PlaylistSelectedMsg)
	if !ok || msg.ID != "p2" {
		t.Errorf("Ожидалось открытие p2, получено: %#v", msg)
	}
}

func TestPlayPlaylist(t *testing.T) {
	model := NewModel(testPlaylists())

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	if cmd == nil {
		t.Fatal("Ожидалась команда воспроизведения")
	}
	if msg, ok := cmd().(PlaylistPlayMsg); !ok || msg.ID != "p1" {
		t.Errorf("Ожидалось воспроизведение p1, получено: %#v", msg)
	}
}

func TestEmptyPlaylists(t *testing.T) {
	model := NewModel(nil)

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		if _, ok := cmd().(PlaylistSelectedMsg); ok {
			t.Error("Пустой список не должен открывать плейлист")
		}
	}
}

func TestRenderItem(t *testing.T) {
	line := renderItem(playlistItem{playlist: testPlaylists()[0]}, true)
	for _, want := range []string{"Утро", "2 тр.", "спокойное", "> "} {
		if !strings.Contains(line, want) {
			t.Errorf("Строка должна содержать %q: %s", want, line)
		}
	}
}
