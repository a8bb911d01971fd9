package data

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/hazadus/go-sonata/internal/errors"
)

// Playlist - именованный упорядоченный список ссылок на треки
type Playlist struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Cover       string    `yaml:"cover,omitempty"`
	Tracks      []string  `yaml:"songs"`
	CreatedAt   time.Time `yaml:"created_at"`
}

// Contains проверяет наличие трека в плейлисте
func (p *Playlist) Contains(trackID string) bool {
	for _, id := range p.Tracks {
		if id == trackID {
			return true
		}
	}
	return false
}

// add добавляет трек в конец; повторное добавление не меняет плейлист
func (p *Playlist) add(trackID string) error {
	if p.Contains(trackID) {
		return apperrors.ErrAlreadyInPlaylist
	}
	p.Tracks = append(p.Tracks, trackID)
	return nil
}

// remove убирает трек из плейлиста. Возвращает false, если трека не было
func (p *Playlist) remove(trackID string) bool {
	for i, id := range p.Tracks {
		if id == trackID {
			p.Tracks = append(p.Tracks[:i], p.Tracks[i+1:]...)
			return true
		}
	}
	return false
}

// move переставляет трек с позиции from на позицию to
func (p *Playlist) move(from, to int) bool {
	if from < 0 || from >= len(p.Tracks) || to < 0 || to >= len(p.Tracks) {
		return false
	}
	if from == to {
		return true
	}
	id := p.Tracks[from]
	p.Tracks = append(p.Tracks[:from], p.Tracks[from+1:]...)
	p.Tracks = append(p.Tracks[:to], append([]string{id}, p.Tracks[to:]...)...)
	return true
}

// CreatePlaylist создает пустой плейлист
func (d *AppData) CreatePlaylist(name, description string) (Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Playlist{}, apperrors.ErrEmptyName
	}

	playlist := Playlist{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Tracks:      make([]string, 0),
		CreatedAt:   time.Now(),
	}
	d.Playlists = append(d.Playlists, playlist)
	return playlist, nil
}

// PlaylistByID возвращает плейлист по ID
func (d *AppData) PlaylistByID(id string) (*Playlist, error) {
	for i := range d.Playlists {
		if d.Playlists[i].ID == id {
			return &d.Playlists[i], nil
		}
	}
	return nil, apperrors.NotFound("плейлист", id)
}

// DeletePlaylist удаляет плейлист. Возвращает false, если его не было
func (d *AppData) DeletePlaylist(id string) bool {
	for i := range d.Playlists {
		if d.Playlists[i].ID == id {
			d.Playlists = append(d.Playlists[:i], d.Playlists[i+1:]...)
			return true
		}
	}
	return false
}

// RenamePlaylist меняет название и описание плейлиста
func (d *AppData) RenamePlaylist(id, name, description string) error {
	playlist, err := d.PlaylistByID(id)
	if err != nil {
		return err
	}
	if name = strings.TrimSpace(name); name != "" {
		playlist.Name = name
	}
	playlist.Description = strings.TrimSpace(description)
	return nil
}

// AddToPlaylist добавляет трек в плейлист.
// Для уже присутствующего трека возвращает ErrAlreadyInPlaylist
func (d *AppData) AddToPlaylist(playlistID, trackID string) error {
	playlist, err := d.PlaylistByID(playlistID)
	if err != nil {
		return err
	}
	if _, err := d.TrackByID(trackID); err != nil {
		return err
	}
	return playlist.add(trackID)
}

// RemoveFromPlaylist убирает трек из плейлиста
func (d *AppData) RemoveFromPlaylist(playlistID, trackID string) error {
	playlist, err := d.PlaylistByID(playlistID)
	if err != nil {
		return err
	}
	if !playlist.remove(trackID) {
		return apperrors.NotFound("трек в плейлисте", trackID)
	}
	return nil
}

// MovePlaylistTrack переставляет трек плейлиста. Позиции считаются от нуля
func (d *AppData) MovePlaylistTrack(playlistID string, from, to int) error {
	playlist, err := d.PlaylistByID(playlistID)
	if err != nil {
		return err
	}
	if !playlist.move(from, to) {
		return fmt.Errorf("позиция вне плейлиста: %d -> %d из %d", from+1, to+1, len(playlist.Tracks))
	}
	return nil
}

// PlaylistTracks возвращает треки плейлиста в порядке плейлиста.
// Ссылки на отсутствующие в каталоге треки пропускаются
func (d *AppData) PlaylistTracks(playlistID string) ([]Track, error) {
	playlist, err := d.PlaylistByID(playlistID)
	if err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(playlist.Tracks))
	for _, id := range playlist.Tracks {
		if t, err := d.TrackByID(id); err == nil {
			tracks = append(tracks, *t)
		}
	}
	return tracks, nil
}
