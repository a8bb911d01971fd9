package track

import (
	"github.com/hazadus/go-sonata/internal/data"
	apperrors "github.com/hazadus/go-sonata/internal/errors"
)

// Playlists возвращает копию списка плейлистов
func (m *Manager) Playlists() []data.Playlist {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	playlists := make([]data.Playlist, len(m.appData.Playlists))
	for i, p := range m.appData.Playlists {
		p.Tracks = append([]string(nil), p.Tracks...)
		playlists[i] = p
	}
	return playlists
}

// FindPlaylist ищет плейлист по ID, префиксу ID или названию
func (m *Manager) FindPlaylist(ref string) (data.Playlist, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	p, err := m.appData.FindPlaylist(ref)
	if err != nil {
		return data.Playlist{}, err
	}
	found := *p
	found.Tracks = append([]string(nil), p.Tracks...)
	return found, nil
}

// CreatePlaylist создает плейлист
func (m *Manager) CreatePlaylist(name, description string) (data.Playlist, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	p, err := m.appData.CreatePlaylist(name, description)
	if err != nil {
		return data.Playlist{}, err
	}
	return p, m.saveLocked()
}

// DeletePlaylist удаляет плейлист. Отсутствующий плейлист не является ошибкой
func (m *Manager) DeletePlaylist(ref string) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	p, err := m.appData.FindPlaylist(ref)
	if err != nil {
		return false, nil
	}
	m.appData.DeletePlaylist(p.ID)
	return true, m.saveLocked()
}

// RenamePlaylist меняет название и описание плейлиста
func (m *Manager) RenamePlaylist(ref, name, description string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	p, err := m.appData.FindPlaylist(ref)
	if err != nil {
		return err
	}
	if err := m.appData.RenamePlaylist(p.ID, name, description); err != nil {
		return err
	}
	return m.saveLocked()
}

// AddToPlaylist добавляет трек в плейлист
func (m *Manager) AddToPlaylist(playlistRef, trackRef string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	p, err := m.appData.FindPlaylist(playlistRef)
	if err != nil {
		return err
	}
	t, err := m.appData.FindTrack(trackRef)
	if err != nil {
		return err
	}
	if err := m.appData.AddToPlaylist(p.ID, t.ID); err != nil {
		return err
	}
	return m.saveLocked()
}

// RemoveFromPlaylist убирает трек из плейлиста
func (m *Manager) RemoveFromPlaylist(playlistRef, trackRef string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	p, err := m.appData.FindPlaylist(playlistRef)
	if err != nil {
		return err
	}

	// Трек мог уже исчезнуть из каталога, поэтому ищем и среди ID плейлиста
	trackID := trackRef
	if t, err := m.appData.FindTrack(trackRef); err == nil {
		trackID = t.ID
	}
	if err := m.appData.RemoveFromPlaylist(p.ID, trackID); err != nil {
		return err
	}
	return m.saveLocked()
}

// MovePlaylistTrack переставляет трек плейлиста с позиции from на to
func (m *Manager) MovePlaylistTrack(ref string, from, to int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	p, err := m.appData.FindPlaylist(ref)
	if err != nil {
		return err
	}
	if err := m.appData.MovePlaylistTrack(p.ID, from, to); err != nil {
		return err
	}
	return m.saveLocked()
}

// PlaylistTracks возвращает треки плейлиста для постановки в очередь.
// Пустой плейлист возвращает ErrEmptyPlaylist
func (m *Manager) PlaylistTracks(ref string) (data.Playlist, []data.Track, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	p, err := m.appData.FindPlaylist(ref)
	if err != nil {
		return data.Playlist{}, nil, err
	}
	tracks, err := m.appData.PlaylistTracks(p.ID)
	if err != nil {
		return *p, nil, err
	}
	if len(tracks) == 0 {
		return *p, nil, apperrors.ErrEmptyPlaylist
	}
	return *p, tracks, nil
}

// ToggleLike переключает отметку "нравится" и возвращает новое состояние
func (m *Manager) ToggleLike(ref string) (data.Track, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	t, err := m.appData.FindTrack(ref)
	if err != nil {
		return data.Track{}, false, err
	}
	liked, err := m.appData.ToggleLike(t.ID)
	if err != nil {
		return *t, false, err
	}
	return *t, liked, m.saveLocked()
}

// IsLiked проверяет, отмечен ли трек
func (m *Manager) IsLiked(id string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.appData.IsLiked(id)
}

// Liked возвращает отмеченные треки
func (m *Manager) Liked() []data.Track {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	liked := make([]data.Track, len(m.appData.Liked))
	copy(liked, m.appData.Liked)
	return liked
}

// Preferences возвращает копию настроек
func (m *Manager) Preferences() data.Preferences {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.appData.Preferences
}

// ToggleTheme переключает тему оформления
func (m *Manager) ToggleTheme() (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	theme := m.appData.Preferences.ToggleTheme()
	return theme, m.saveLocked()
}

// Volume возвращает сохраненную громкость или громкость из конфигурации
func (m *Manager) Volume() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.appData.Preferences.VolumeLevel(m.cfg.DefaultVolume)
}

// LastPlayed возвращает последний воспроизведенный трек, если он еще в каталоге
func (m *Manager) LastPlayed() (data.Track, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	id := m.appData.Preferences.LastTrackID
	if id == "" {
		return data.Track{}, false
	}
	t, err := m.appData.TrackByID(id)
	if err != nil {
		return data.Track{}, false
	}
	return *t, true
}

// SetLastPlayed сохраняет ID последнего трека
func (m *Manager) SetLastPlayed(id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.appData.Preferences.LastTrackID == id {
		return nil
	}
	m.appData.Preferences.LastTrackID = id
	return m.saveLocked()
}

// SetVolume сохраняет громкость
func (m *Manager) SetVolume(level float64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.appData.Preferences.SetVolumeLevel(level)
	return m.saveLocked()
}

// UpdateDuration записывает длительность, которую определил вывод
func (m *Manager) UpdateDuration(id string, seconds float64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	t, err := m.appData.TrackByID(id)
	if err != nil {
		return err
	}
	if t.Duration == seconds {
		return nil
	}
	updated := *t
	updated.Duration = seconds
	if err := m.appData.UpdateTrack(updated); err != nil {
		return err
	}
	return m.saveLocked()
}
