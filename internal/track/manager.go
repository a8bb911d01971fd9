// Package track содержит логику управления треками: каталог в YAML,
// офлайн-содержимое в хранилище и blob-локаторы для воспроизведения
package track

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hazadus/go-sonata/internal/blob"
	"github.com/hazadus/go-sonata/internal/config"
	"github.com/hazadus/go-sonata/internal/data"
	apperrors "github.com/hazadus/go-sonata/internal/errors"
	"github.com/hazadus/go-sonata/internal/metadata"
	"github.com/hazadus/go-sonata/internal/store"
	"github.com/hazadus/go-sonata/internal/utils"
)

// RemoteRemover удаляет опубликованный файл по URL
type RemoteRemover interface {
	DeleteFile(ctx context.Context, url string) error
}

// Manager управляет треками в приложении
type Manager struct {
	cfg       *config.Config
	appData   *data.AppData
	store     *store.Store
	blobs     *blob.Registry
	extractor *metadata.Extractor
	remover   RemoteRemover
	logger    *logrus.Logger

	mutex      sync.RWMutex
	storageErr error
}

// NewManager создает новый экземпляр Manager.
// st может быть nil, если офлайн-хранилище не открылось
func NewManager(cfg *config.Config, st *store.Store, blobs *blob.Registry, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	if blobs == nil {
		blobs = blob.NewRegistry()
	}
	return &Manager{
		cfg:       cfg,
		appData:   data.NewAppData(),
		store:     st,
		blobs:     blobs,
		extractor: metadata.NewExtractor(logger),
		logger:    logger,
	}
}

// SetRemoteRemover подключает удаление опубликованных файлов
func (m *Manager) SetRemoteRemover(remover RemoteRemover) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.remover = remover
}

// Blobs возвращает реестр локаторов
func (m *Manager) Blobs() *blob.Registry {
	return m.blobs
}

// StorageErr возвращает ошибку офлайн-хранилища, случившуюся при загрузке
func (m *Manager) StorageErr() error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.storageErr
}

// Load читает каталог и сверяет его с офлайн-хранилищем.
// Ошибка хранилища не прерывает загрузку: каталог остается без локальных треков
func (m *Manager) Load(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.appData.LoadData(m.cfg.DataFile); err != nil {
		return err
	}

	if m.store == nil {
		m.storageErr = apperrors.Unavailable("open", errors.New("хранилище не открыто"))
		m.logger.Warn("Офлайн-хранилище недоступно, локальные треки не загружены")
		return nil
	}

	records, err := m.store.ListAll(ctx)
	if err != nil {
		m.storageErr = err
		m.logger.WithError(err).Warn("Не удалось прочитать офлайн-хранилище")
		return nil
	}

	if m.reconcileLocked(records) {
		if err := m.saveLocked(); err != nil {
			m.logger.WithError(err).Warn("Не удалось сохранить сверенный каталог")
		}
	}

	m.logger.WithFields(logrus.Fields{
		"tracks":  len(m.appData.Tracks),
		"offline": len(records),
	}).Info("Библиотека загружена")
	return nil
}

// reconcileLocked выдает локаторы локальным трекам и добавляет записи хранилища,
// которых нет в каталоге. Возвращает true, если каталог изменился
func (m *Manager) reconcileLocked(records []store.Record) bool {
	byID := make(map[string]store.Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	changed := false
	for _, t := range append([]data.Track(nil), m.appData.Tracks...) {
		if !t.IsLocal {
			continue
		}
		record, ok := byID[t.ID]
		if !ok {
			m.logger.WithField("track_id", t.ID).Warn("Нет содержимого для локального трека, трек удален из каталога")
			m.appData.DeleteTrackByID(t.ID)
			changed = true
			continue
		}
		t.Source = m.blobs.Register(t.ID, record.Content)
		_ = m.appData.UpdateTrack(t)
		delete(byID, t.ID)
	}

	// Записи без трека в каталоге добавляются в порядке создания
	orphans := make([]store.Record, 0, len(byID))
	for _, r := range byID {
		orphans = append(orphans, r)
	}
	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].CreatedAt.Before(orphans[j].CreatedAt)
	})
	for _, r := range orphans {
		// Опубликованный трек мог оставить запись после сбоя удаления
		if _, err := m.appData.TrackByID(r.ID); err == nil {
			continue
		}
		m.appData.AddTrack(trackFromRecord(r, m.blobs.Register(r.ID, r.Content)))
		changed = true
	}

	return changed
}

func trackFromRecord(r store.Record, locator string) data.Track {
	return data.Track{
		ID:        r.ID,
		Title:     r.Title,
		Artist:    r.Artist,
		Album:     r.Album,
		Duration:  r.Duration,
		Source:    locator,
		IsLocal:   true,
		Cover:     r.CoverURL,
		Format:    r.Format,
		FileSize:  int64(len(r.Content)),
		CreatedAt: r.CreatedAt,
	}
}

func metaFromTrack(t data.Track) store.Meta {
	return store.Meta{
		ID:        t.ID,
		Title:     t.Title,
		Artist:    t.Artist,
		Album:     t.Album,
		Duration:  t.Duration,
		CoverURL:  t.Cover,
		Format:    t.Format,
		CreatedAt: t.CreatedAt,
	}
}

// Save сохраняет каталог в файл данных
func (m *Manager) Save() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	return m.appData.SaveData(m.cfg.DataFile)
}

// ListTracks возвращает копию списка всех треков
func (m *Manager) ListTracks() []data.Track {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	tracks := make([]data.Track, len(m.appData.Tracks))
	copy(tracks, m.appData.Tracks)
	return tracks
}

// FindTrack ищет трек по ID или однозначному префиксу ID
func (m *Manager) FindTrack(ref string) (data.Track, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	t, err := m.appData.FindTrack(ref)
	if err != nil {
		return data.Track{}, err
	}
	return *t, nil
}

// ImportFiles импортирует несколько файлов за один вызов.
// Ошибки отдельных файлов не прерывают импорт остальных
func (m *Manager) ImportFiles(ctx context.Context, paths []string) ([]data.Track, error) {
	if len(paths) > m.cfg.MaxImportBatch {
		return nil, fmt.Errorf("%w: не более %d", apperrors.ErrTooManyFiles, m.cfg.MaxImportBatch)
	}

	imported := make([]data.Track, 0, len(paths))
	var errs []error
	for _, path := range paths {
		t, err := m.ImportFile(ctx, path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
			continue
		}
		imported = append(imported, t)
	}
	return imported, errors.Join(errs...)
}

// ImportFile импортирует аудиофайл в офлайн-хранилище и каталог
func (m *Manager) ImportFile(ctx context.Context, path string) (data.Track, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !m.cfg.IsFormatSupported(ext) {
		return data.Track{}, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, ext)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return data.Track{}, fmt.Errorf("ошибка чтения файла: %w", err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return m.importContent(ctx, filepath.Base(path), path, content)
}

// HasOrigin проверяет, импортирован ли уже файл по этому пути
func (m *Manager) HasOrigin(path string) bool {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, t := range m.appData.Tracks {
		if t.Origin == path {
			return true
		}
	}
	return false
}

// ImportBytes сохраняет содержимое в хранилище и добавляет трек в каталог.
// Название берется из тегов или из имени файла
func (m *Manager) ImportBytes(ctx context.Context, name string, content []byte) (data.Track, error) {
	return m.importContent(ctx, name, "", content)
}

func (m *Manager) importContent(ctx context.Context, name, origin string, content []byte) (data.Track, error) {
	if m.store == nil {
		return data.Track{}, apperrors.Unavailable("save", errors.New("хранилище не открыто"))
	}

	format := metadata.FormatFromPath(name)
	tags := m.extractor.ExtractFromBytes(content, name)

	var seconds float64
	if d, err := m.extractor.DurationOf(content, format); err != nil {
		m.logger.WithError(err).WithField("file", name).Debug("Длительность будет определена при воспроизведении")
	} else {
		seconds = d.Seconds()
	}

	t := data.Track{
		ID:        data.NewTrackID(),
		Title:     tags.Title,
		Artist:    tags.Artist,
		Album:     tags.Album,
		Duration:  seconds,
		IsLocal:   true,
		Format:    format,
		FileSize:  int64(len(content)),
		Origin:    origin,
		CreatedAt: time.Now(),
	}

	if err := m.store.Save(ctx, metaFromTrack(t), content); err != nil {
		return data.Track{}, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	t.Source = m.blobs.Register(t.ID, content)
	t = m.appData.AddTrack(t)
	if err := m.saveLocked(); err != nil {
		return t, err
	}

	m.logger.WithFields(logrus.Fields{
		"track_id": t.ID,
		"file":     name,
		"bytes":    len(content),
	}).Info("Трек импортирован")
	return t, nil
}

// AddRemote добавляет в каталог трек, воспроизводимый по URL
func (m *Manager) AddRemote(t data.Track) (data.Track, error) {
	if !t.IsRemote() {
		return data.Track{}, fmt.Errorf("ожидался http(s) URL, получено %q", t.Source)
	}
	t.IsLocal = false
	if t.Format == "" {
		t.Format = metadata.FormatFromPath(t.Source)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	t = m.appData.AddTrack(t)
	return t, m.saveLocked()
}

// UpdateTrack сохраняет изменения метаданных трека
func (m *Manager) UpdateTrack(ctx context.Context, t data.Track) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	existing, err := m.appData.TrackByID(t.ID)
	if err != nil {
		return err
	}
	// Источник и место хранения правкой метаданных не меняются
	t.Source = existing.Source
	t.IsLocal = existing.IsLocal

	if t.IsLocal && m.store != nil {
		content, err := m.blobs.Content(t.Source)
		if err != nil {
			return err
		}
		if err := m.store.Save(ctx, metaFromTrack(t), content); err != nil {
			return err
		}
	}

	if err := m.appData.UpdateTrack(t); err != nil {
		return err
	}
	return m.saveLocked()
}

// DeleteTrack удаляет трек из каталога, плейлистов, избранного и хранилища.
// Удаление отсутствующего трека не является ошибкой и возвращает false
func (m *Manager) DeleteTrack(ctx context.Context, id string) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	t, err := m.appData.TrackByID(id)
	if err != nil {
		return false, nil
	}
	deleted := *t

	if deleted.IsLocal && m.store != nil {
		if err := m.store.DeleteByID(ctx, id); err != nil {
			return false, err
		}
	}

	if deleted.IsRemote() && m.remover != nil {
		if err := m.remover.DeleteFile(ctx, deleted.Source); err != nil {
			m.logger.WithError(err).WithField("track_id", id).Warn("Не удалось удалить опубликованный файл")
		}
	}

	m.appData.DeleteTrackByID(id)
	m.blobs.Release(deleted.Source)

	m.logger.WithField("track_id", id).Info("Трек удален")
	return true, m.saveLocked()
}

// Content возвращает офлайн-содержимое трека
func (m *Manager) Content(ctx context.Context, id string) (data.Track, []byte, error) {
	t, err := m.FindTrack(id)
	if err != nil {
		return data.Track{}, nil, err
	}
	if !t.IsLocal {
		return t, nil, apperrors.NotFound("офлайн-содержимое трека", t.ID)
	}

	if content, err := m.blobs.Content(t.Source); err == nil {
		return t, content, nil
	}
	if m.store == nil {
		return t, nil, apperrors.Unavailable("get", errors.New("хранилище не открыто"))
	}

	record, err := m.store.Get(ctx, t.ID)
	if err != nil {
		return t, nil, err
	}
	return t, record.Content, nil
}

// Export записывает офлайн-содержимое трека в файл в каталоге dir
func (m *Manager) Export(ctx context.Context, id, dir string) (string, error) {
	t, content, err := m.Content(ctx, id)
	if err != nil {
		return "", err
	}

	dir = utils.ExpandHome(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("ошибка создания директории: %w", err)
	}

	name := utils.SanitizeFileName(t.DisplayName())
	if t.Format != "" {
		name += "." + t.Format
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("ошибка записи файла: %w", err)
	}
	return path, nil
}

// MarkPublished делает локальный трек удаленным: источник заменяется URL,
// запись в офлайн-хранилище удаляется
func (m *Manager) MarkPublished(ctx context.Context, id, url string) (data.Track, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	t, err := m.appData.TrackByID(id)
	if err != nil {
		return data.Track{}, err
	}
	updated := *t
	oldSource := updated.Source

	updated.Source = url
	updated.IsLocal = false
	if err := m.appData.UpdateTrack(updated); err != nil {
		return data.Track{}, err
	}
	if err := m.saveLocked(); err != nil {
		return updated, err
	}

	// Каталог уже ссылается на URL, поэтому сбой удаления записи не критичен
	if m.store != nil {
		if err := m.store.DeleteByID(ctx, id); err != nil {
			m.logger.WithError(err).WithField("track_id", id).Warn("Не удалось удалить офлайн-запись опубликованного трека")
		}
	}
	m.blobs.Release(oldSource)

	return updated, nil
}
