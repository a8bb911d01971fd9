// Package youtube скачивает звуковые дорожки YouTube-видео в каталог загрузок
package youtube

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kkdai/youtube/v2"
	"github.com/sirupsen/logrus"

	"github.com/hazadus/go-sonata/internal/config"
	"github.com/hazadus/go-sonata/internal/data"
	"github.com/hazadus/go-sonata/internal/utils"
)

// Паттерны для различных форматов YouTube URL
var (
	videoURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`),
		regexp.MustCompile(`(?:youtube\.com/embed/)([a-zA-Z0-9_-]{11})`),
		regexp.MustCompile(`(?:youtube\.com/v/)([a-zA-Z0-9_-]{11})`),
		regexp.MustCompile(`(?:youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`),
	}
	videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
)

// VideoClient - часть youtube.Client, которой пользуется Downloader
type VideoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// Importer добавляет скачанный файл в библиотеку
type Importer interface {
	ImportFile(ctx context.Context, path string) (data.Track, error)
}

// Downloader скачивает аудио и при возможности импортирует его
type Downloader struct {
	client   VideoClient
	cfg      *config.Config
	importer Importer
	logger   *logrus.Logger
}

// Result описывает скачанный файл
type Result struct {
	Path   string
	Title  string
	Author string
	Format string
	Size   int64
	// Track заполнен, если файл удалось импортировать в библиотеку
	Track *data.Track
}

// NewDownloader создает Downloader. importer может быть nil: тогда файл только сохраняется
func NewDownloader(cfg *config.Config, importer Importer, logger *logrus.Logger) *Downloader {
	return newDownloader(&youtube.Client{}, cfg, importer, logger)
}

func newDownloader(client VideoClient, cfg *config.Config, importer Importer, logger *logrus.Logger) *Downloader {
	if logger == nil {
		logger = logrus.New()
	}
	return &Downloader{
		client:   client,
		cfg:      cfg,
		importer: importer,
		logger:   logger,
	}
}

// Download скачивает звуковую дорожку видео в cfg.DownloadDir
func (d *Downloader) Download(ctx context.Context, url string) (*Result, error) {
	videoID, err := ExtractVideoID(url)
	if err != nil {
		return nil, err
	}

	video, err := d.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения информации о видео: %w", err)
	}

	audioFormat := findBestAudioFormat(video.Formats)
	if audioFormat == nil {
		return nil, fmt.Errorf("аудио формат не найден для видео %s", videoID)
	}

	d.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"title":    video.Title,
		"itag":     audioFormat.ItagNo,
		"mime":     audioFormat.MimeType,
	}).Info("Скачиваем аудио")

	stream, _, err := d.client.GetStreamContext(ctx, video, audioFormat)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения потока: %w", err)
	}
	defer stream.Close()

	if err := os.MkdirAll(d.cfg.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории: %w", err)
	}

	format := extensionFromMime(audioFormat.MimeType)
	name := video.Title
	if video.Author != "" && !strings.Contains(name, " - ") {
		name = video.Author + " - " + name
	}
	filePath := filepath.Join(d.cfg.DownloadDir, utils.SanitizeFileName(name)+"."+format)

	size, err := writeFile(filePath, stream)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Path:   filePath,
		Title:  video.Title,
		Author: video.Author,
		Format: format,
		Size:   size,
	}

	if d.importer == nil || !d.cfg.IsFormatSupported("."+format) {
		d.logger.WithField("format", format).Info("Формат не воспроизводится, файл сохранен без импорта")
		return result, nil
	}

	t, err := d.importer.ImportFile(ctx, filePath)
	if err != nil {
		return result, fmt.Errorf("файл скачан, но не импортирован: %w", err)
	}
	result.Track = &t
	return result, nil
}

func writeFile(path string, r io.Reader) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания файла: %w", err)
	}
	defer file.Close()

	n, err := io.Copy(file, r)
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("ошибка скачивания: %w", err)
	}
	return n, nil
}

// ExtractVideoID извлекает ID видео из различных форматов YouTube URL
func ExtractVideoID(url string) (string, error) {
	for _, re := range videoURLPatterns {
		if matches := re.FindStringSubmatch(url); len(matches) > 1 {
			return matches[1], nil
		}
	}

	// Если это просто ID видео (11 символов)
	if videoIDPattern.MatchString(url) {
		return url, nil
	}

	return "", fmt.Errorf("не удалось извлечь ID видео из URL: %s", url)
}

// findBestAudioFormat находит лучший аудио формат для скачивания
func findBestAudioFormat(formats youtube.FormatList) *youtube.Format {
	audioFormats := formats.Type("audio")
	if len(audioFormats) == 0 {
		// Если нет только аудио форматов, берем видео со звуком
		for i := range formats {
			if formats[i].AudioChannels > 0 {
				return &formats[i]
			}
		}
		return nil
	}

	bestFormat := &audioFormats[0]
	for i := range audioFormats {
		format := &audioFormats[i]

		// Предпочитаем MP4/M4A форматы для лучшей совместимости
		if isMP4(format.MimeType) != isMP4(bestFormat.MimeType) {
			if isMP4(format.MimeType) {
				bestFormat = format
			}
			continue
		}
		if format.Bitrate > bestFormat.Bitrate {
			bestFormat = format
		}
	}

	return bestFormat
}

func isMP4(mime string) bool {
	return strings.Contains(mime, "mp4") || strings.Contains(mime, "m4a")
}

// extensionFromMime возвращает расширение файла по MIME-типу формата
func extensionFromMime(mime string) string {
	base := strings.TrimSpace(strings.SplitN(mime, ";", 2)[0])
	switch base {
	case "audio/mp4", "video/mp4":
		return "m4a"
	case "audio/webm", "video/webm":
		return "webm"
	case "audio/mpeg":
		return "mp3"
	case "audio/ogg":
		return "ogg"
	default:
		return "bin"
	}
}
