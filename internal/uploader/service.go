// Package uploader публикует офлайн-треки в S3 и переводит их в удаленные
package uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/hazadus/go-sonata/internal/data"
	"github.com/hazadus/go-sonata/internal/metadata"
	"github.com/hazadus/go-sonata/internal/s3"
)

// ObjectUploader загружает содержимое и возвращает публичный URL
type ObjectUploader interface {
	UploadFile(ctx context.Context, reader io.Reader, key, contentType string) (string, error)
}

// Library дает доступ к офлайн-содержимому и фиксирует публикацию
type Library interface {
	Content(ctx context.Context, id string) (data.Track, []byte, error)
	MarkPublished(ctx context.Context, id, url string) (data.Track, error)
}

// Refresher получает обновленный трек, например активная сессия плеера
type Refresher interface {
	Refresh(track data.Track)
}

// Service управляет процессом публикации
type Service struct {
	uploader  ObjectUploader
	library   Library
	refresher Refresher
	logger    *logrus.Logger
}

// NewService создает новый сервис публикации
func NewService(uploader ObjectUploader, library Library, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		uploader: uploader,
		library:  library,
		logger:   logger,
	}
}

// SetRefresher подключает получателя обновленных треков
func (s *Service) SetRefresher(r Refresher) {
	s.refresher = r
}

// PublishResult содержит результат публикации
type PublishResult struct {
	Track data.Track
	URL   string
	Size  int64
}

// Publish загружает офлайн-трек в S3 и заменяет его источник на URL
func (s *Service) Publish(ctx context.Context, id string, progressCallback func(int64)) (*PublishResult, error) {
	t, content, err := s.library.Content(ctx, id)
	if err != nil {
		return nil, err
	}

	// Создаем reader с отслеживанием прогресса
	var reader io.Reader = bytes.NewReader(content)
	if progressCallback != nil {
		reader = &ProgressReader{
			Reader:     reader,
			Size:       int64(len(content)),
			OnProgress: progressCallback,
		}
	}

	format := t.Format
	if format == "" {
		format = metadata.FormatFromPath(t.Origin)
	}

	url, err := s.uploader.UploadFile(ctx, reader, s3.ObjectKey(t), metadata.ContentType(format))
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки в S3: %w", err)
	}

	published, err := s.library.MarkPublished(ctx, t.ID, url)
	if err != nil {
		return nil, fmt.Errorf("файл загружен, но каталог не обновлен: %w", err)
	}
	if s.refresher != nil {
		s.refresher.Refresh(published)
	}

	s.logger.WithFields(logrus.Fields{
		"track_id": t.ID,
		"url":      url,
		"bytes":    len(content),
	}).Info("Трек опубликован")

	return &PublishResult{
		Track: published,
		URL:   url,
		Size:  int64(len(content)),
	}, nil
}

// ProgressReader структура для отслеживания прогресса чтения
type ProgressReader struct {
	io.Reader
	Size       int64
	OnProgress func(int64)
	bytesRead  int64
}

func (pr *ProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.Reader.Read(p)
	pr.bytesRead += int64(n)
	if pr.OnProgress != nil {
		pr.OnProgress(pr.bytesRead)
	}
	return n, err
}
