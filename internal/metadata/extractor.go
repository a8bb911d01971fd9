// Package metadata предоставляет функционал для извлечения метаданных из аудио файлов
package metadata

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/sirupsen/logrus"

	"github.com/hazadus/go-sonata/internal/data"
)

// TrackMetadata хранит метаданные трека
type TrackMetadata struct {
	Artist string
	Title  string
	Album  string
}

// FileInfo содержит информацию о файле
type FileInfo struct {
	Size     int64
	Duration time.Duration
	Format   string
}

// Extractor извлекает метаданные из аудио файлов
type Extractor struct {
	logger *logrus.Logger
}

// NewExtractor создает новый экстрактор метаданных
func NewExtractor(logger *logrus.Logger) *Extractor {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Extractor{logger: logger}
}

// FormatFromPath возвращает формат по расширению файла ("mp3", "flac", ...)
func FormatFromPath(path string) string {
	// Параметры запроса в URL не относятся к расширению
	if i := strings.IndexAny(path, "?#"); i != -1 {
		path = path[:i]
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// ExtractFromReader извлекает метаданные из io.ReadSeeker.
// Пустые поля тегов заполняются из имени файла
func (e *Extractor) ExtractFromReader(reader io.ReadSeeker, source string) TrackMetadata {
	fallback := e.getDefaultMetadata(source)

	// Сбрасываем reader в начало
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return fallback
	}

	metadata, err := tag.ReadFrom(reader)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"source": source,
			"error":  err.Error(),
		}).Debug("Теги не найдены, используем имя файла")
		return fallback
	}

	result := TrackMetadata{
		Artist: strings.TrimSpace(metadata.Artist()),
		Title:  strings.TrimSpace(metadata.Title()),
		Album:  strings.TrimSpace(metadata.Album()),
	}
	if result.Title == "" {
		result.Title = fallback.Title
	}
	if result.Artist == "" {
		result.Artist = fallback.Artist
	}
	if result.Album == "" {
		result.Album = fallback.Album
	}
	return result
}

// ExtractFromFile извлекает метаданные из файла
func (e *Extractor) ExtractFromFile(filePath string) TrackMetadata {
	file, err := os.Open(filePath)
	if err != nil {
		return e.getDefaultMetadata(filePath)
	}
	defer file.Close()

	return e.ExtractFromReader(file, filePath)
}

// ExtractFromBytes извлекает метаданные из содержимого в памяти
func (e *Extractor) ExtractFromBytes(content []byte, source string) TrackMetadata {
	return e.ExtractFromReader(bytes.NewReader(content), source)
}

// GetDuration получает длительность аудио файла
func (e *Extractor) GetDuration(filePath string) (time.Duration, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	return e.DurationOf(content, FormatFromPath(filePath))
}

// GetFileInfo получает информацию о файле (размер, длительность и формат)
func (e *Extractor) GetFileInfo(filePath string) (*FileInfo, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения информации о файле: %w", err)
	}

	duration, err := e.GetDuration(filePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения длительности: %w", err)
	}

	return &FileInfo{
		Size:     fileInfo.Size(),
		Duration: duration,
		Format:   FormatFromPath(filePath),
	}, nil
}

// getDefaultMetadata возвращает метаданные по умолчанию на основе имени файла
func (e *Extractor) getDefaultMetadata(source string) TrackMetadata {
	fileName := filepath.Base(source)
	nameWithoutExt := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	// Пытаемся разобрать имя файла в формате "Artist - Title"
	parts := strings.Split(nameWithoutExt, " - ")
	if len(parts) >= 2 {
		return TrackMetadata{
			Artist: strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(strings.Join(parts[1:], " - ")),
			Album:  data.UnknownAlbum,
		}
	}

	return TrackMetadata{
		Artist: data.UnknownArtist,
		Title:  nameWithoutExt,
		Album:  data.UnknownAlbum,
	}
}
