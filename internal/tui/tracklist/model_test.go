package tracklist

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-sonata/internal/data"
)

func testTracks() []data.Track {
	return []data.Track{
		{ID: "a1", Artist: "Test Artist 1", Title: "Test Track 1", Duration: 180, IsLocal: true},
		{ID: "b2", Artist: "Test Artist 2", Title: "Test Track 2", Duration: 240},
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	model := NewModel("Треки", testTracks(), func(id string) bool { return id == "b2" }, false)

	if len(model.list.Items()) != 2 {
		t.Fatalf("Ожидалось 2 элемента, получено %d", len(model.list.Items()))
	}
	if item := model.list.Items()[1].(trackItem); !item.liked {
		t.Error("Второй трек должен быть отмечен")
	}
	if len(model.Tracks()) != 2 {
		t.Errorf("Ожидалось 2 трека, получено %d", len(model.Tracks()))
	}
}

func TestSelectTrack(t *testing.T) {
	model := NewModel("Треки", testTracks(), nil, false)
	model, _ = model.Update(tea.WindowSizeMsg{Width: 100, Height: 24})

	model, _ = model.Update(keyMsg("down"))
	_, cmd := model.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("Ожидалась команда выбора трека")
	}

	msg, ok := cmd().(TrackSelectedMsg)
	if !ok {
		t.Fatalf("Ожидалось TrackSelectedMsg")
	}
	if msg.Index != 1 || len(msg.Tracks) != 2 || msg.Tracks[msg.Index].ID != "b2" {
		t.Errorf("Неверный выбор: индекс %d из %d", msg.Index, len(msg.Tracks))
	}
}

func TestTrackActions(t *testing.T) {
	tests := []struct {
		key   string
		check func(tea.Msg) bool
	}{
		{"e", func(msg tea.Msg) bool { m, ok := msg.(TrackEditMsg); return ok && m.Track.ID == "a1" }},
		{"d", func(msg tea.Msg) bool { m, ok := msg.(TrackDeleteMsg); return ok && m.Track.ID == "a1" }},
		{"l", func(msg tea.Msg) bool { m, ok := msg.(TrackLikeMsg); return ok && m.Track.ID == "a1" }},
		{"a", func(msg tea.Msg) bool { m, ok := msg.(TrackEnqueueMsg); return ok && m.Track.ID == "a1" }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			model := NewModel("Треки", testTracks(), nil, false)
			_, cmd := model.Update(keyMsg(tt.key))
			if cmd == nil {
				t.Fatalf("Ожидалась команда для клавиши %q", tt.key)
			}
			if !tt.check(cmd()) {
				t.Errorf("Неверное сообщение для клавиши %q", tt.key)
			}
		})
	}
}

func TestNestedGoBack(t *testing.T) {
	model := NewModel("Плейлист", testTracks(), nil, true)

	_, cmd := model.Update(keyMsg("esc"))
	if cmd == nil {
		t.Fatal("Ожидалась команда возврата")
	}
	if _, ok := cmd().(GoBackMsg); !ok {
		t.Error("Ожидалось GoBackMsg")
	}
	if !strings.Contains(model.View(), "esc: назад") {
		t.Error("Подсказка должна содержать возврат")
	}
}

func TestMoveInNestedList(t *testing.T) {
	model := NewModel("Плейлист", testTracks(), nil, true)
	model, _ = model.Update(tea.WindowSizeMsg{Width: 100, Height: 24})

	_, cmd := model.Update(keyMsg("]"))
	if cmd == nil {
		t.Fatal("Ожидалась команда перемещения")
	}
	msg, ok := cmd().(TrackMoveMsg)
	if !ok || msg.Track.ID != "a1" || msg.From != 0 || msg.To != 1 {
		t.Fatalf("Неверное перемещение: %+v", msg)
	}
	if model.list.Index() != 1 {
		t.Errorf("Курсор должен следовать за треком, индекс %d", model.list.Index())
	}

	// Дальше последней позиции двигать некуда
	if _, cmd := model.Update(keyMsg("]")); cmd != nil {
		t.Error("Перемещение за конец списка должно игнорироваться")
	}

	top := NewModel("Треки", testTracks(), nil, false)
	if _, cmd := top.Update(keyMsg("]")); cmd != nil {
		if _, ok := cmd().(TrackMoveMsg); ok {
			t.Error("Основной список не должен переставлять треки")
		}
	}
}

func TestEmptyList(t *testing.T) {
	model := NewModel("Треки", nil, nil, false)

	_, cmd := model.Update(keyMsg("enter"))
	if cmd != nil {
		if _, ok := cmd().(TrackSelectedMsg); ok {
			t.Error("Пустой список не должен выбирать трек")
		}
	}
}

func TestRenderItem(t *testing.T) {
	line := renderItem(trackItem{track: testTracks()[0], liked: true}, true)
	for _, want := range []string{"♥", "⬇", "Test Artist 1", "Test Track 1", "3:00", "> "} {
		if !strings.Contains(line, want) {
			t.Errorf("Строка должна содержать %q: %s", want, line)
		}
	}

	line = renderItem(trackItem{track: testTracks()[1]}, false)
	if !strings.Contains(line, "☁") || strings.Contains(line, "♥") {
		t.Errorf("Неверная строка удаленного трека: %s", line)
	}
}
