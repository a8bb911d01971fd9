// Package data содержит модель каталога и его сохранение в YAML
package data

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	apperrors "github.com/hazadus/go-sonata/internal/errors"
	"github.com/hazadus/go-sonata/internal/utils"
)

// Значения по умолчанию для пустых полей трека
const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// BlobScheme - префикс локатора для содержимого из офлайн-хранилища
const BlobScheme = "blob:"

// Track описывает один воспроизводимый трек
type Track struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Artist    string    `yaml:"artist"`
	Album     string    `yaml:"album"`
	Duration  float64   `yaml:"duration"`         // Длительность в секундах
	Source    string    `yaml:"source,omitempty"` // URL или blob-локатор
	IsLocal   bool      `yaml:"is_local"`
	Cover     string    `yaml:"cover,omitempty"`
	Format    string    `yaml:"format,omitempty"`
	FileSize  int64     `yaml:"file_size,omitempty"`
	Origin    string    `yaml:"origin,omitempty"` // Путь к файлу, из которого трек импортирован
	CreatedAt time.Time `yaml:"created_at"`
}

// IsRemote сообщает, воспроизводится ли трек по сетевому URL
func (t Track) IsRemote() bool {
	return strings.HasPrefix(t.Source, "http://") || strings.HasPrefix(t.Source, "https://")
}

// DisplayName возвращает строку "Исполнитель - Название"
func (t Track) DisplayName() string {
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}

// AppData содержит все сохраняемое состояние библиотеки
type AppData struct {
	Tracks      []Track     `yaml:"tracks"`
	Playlists   []Playlist  `yaml:"playlists"`
	Liked       []Track     `yaml:"liked"`
	Preferences Preferences `yaml:"preferences"`
}

// NewAppData создает новую структуру AppData
func NewAppData() *AppData {
	return &AppData{
		Tracks:      make([]Track, 0),
		Playlists:   make([]Playlist, 0),
		Liked:       make([]Track, 0),
		Preferences: DefaultPreferences(),
	}
}

// LoadData загружает данные из файла
func (d *AppData) LoadData(filePath string) error {
	data, err := os.ReadFile(utils.ExpandHome(filePath))
	if err != nil {
		// Если файл не найден, инициализируем пустыми данными
		if os.IsNotExist(err) {
			*d = *NewAppData()
			return nil
		}
		return fmt.Errorf("ошибка чтения файла данных: %w", err)
	}
	if len(data) == 0 {
		*d = *NewAppData()
		return nil
	}

	loaded := NewAppData()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return fmt.Errorf("ошибка разбора данных: %w", err)
	}
	loaded.Preferences.normalize()
	*d = *loaded
	return nil
}

// SaveData сохраняет данные в файл.
// Локаторы локальных треков действуют только в рамках процесса и не сохраняются
func (d *AppData) SaveData(filePath string) error {
	path := utils.ExpandHome(filePath)

	out := *d
	out.Tracks = stripLocalSources(d.Tracks)
	out.Liked = stripLocalSources(d.Liked)

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("ошибка сериализации данных: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("ошибка создания директории данных: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла данных: %w", err)
	}
	return nil
}

func stripLocalSources(tracks []Track) []Track {
	out := make([]Track, len(tracks))
	for i, t := range tracks {
		if t.IsLocal {
			t.Source = ""
		}
		out[i] = t
	}
	return out
}

// NewTrackID возвращает новый уникальный идентификатор трека
func NewTrackID() string {
	return uuid.NewString()
}

// AddTrack добавляет трек в каталог и возвращает сохраненную копию.
// Пустой ID заменяется новым, трек с уже существующим ID заменяется целиком
func (d *AppData) AddTrack(track Track) Track {
	if track.ID == "" {
		track.ID = NewTrackID()
	}
	if track.Artist == "" {
		track.Artist = UnknownArtist
	}
	if track.Album == "" {
		track.Album = UnknownAlbum
	}
	if track.CreatedAt.IsZero() {
		track.CreatedAt = time.Now()
	}

	for i := range d.Tracks {
		if d.Tracks[i].ID == track.ID {
			d.Tracks[i] = track
			return track
		}
	}
	d.Tracks = append(d.Tracks, track)
	return track
}

// TrackByID возвращает трек по ID
func (d *AppData) TrackByID(id string) (*Track, error) {
	for i := range d.Tracks {
		if d.Tracks[i].ID == id {
			return &d.Tracks[i], nil
		}
	}
	return nil, apperrors.NotFound("трек", id)
}

// UpdateTrack обновляет метаданные существующего трека
func (d *AppData) UpdateTrack(track Track) error {
	existing, err := d.TrackByID(track.ID)
	if err != nil {
		return err
	}
	*existing = track

	// Копия в избранном тоже должна отражать изменения
	for i := range d.Liked {
		if d.Liked[i].ID == track.ID {
			d.Liked[i] = track
		}
	}
	return nil
}

// DeleteTrackByID удаляет трек из каталога, всех плейлистов и избранного.
// Возвращает false, если трека не было
func (d *AppData) DeleteTrackByID(id string) bool {
	index := -1
	for i := range d.Tracks {
		if d.Tracks[i].ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		return false
	}

	d.Tracks = append(d.Tracks[:index], d.Tracks[index+1:]...)

	for i := range d.Playlists {
		d.Playlists[i].remove(id)
	}
	d.Liked = removeTrack(d.Liked, id)

	if d.Preferences.LastTrackID == id {
		d.Preferences.LastTrackID = ""
	}
	return true
}

// ToggleLike добавляет трек в избранное или убирает его оттуда.
// Возвращает новое состояние
func (d *AppData) ToggleLike(id string) (bool, error) {
	if d.IsLiked(id) {
		d.Liked = removeTrack(d.Liked, id)
		return false, nil
	}

	track, err := d.TrackByID(id)
	if err != nil {
		return false, err
	}
	d.Liked = append(d.Liked, *track)
	return true, nil
}

// IsLiked проверяет, находится ли трек в избранном
func (d *AppData) IsLiked(id string) bool {
	for _, t := range d.Liked {
		if t.ID == id {
			return true
		}
	}
	return false
}

func removeTrack(tracks []Track, id string) []Track {
	out := tracks[:0]
	for _, t := range tracks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
