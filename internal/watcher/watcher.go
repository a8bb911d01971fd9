// Package watcher импортирует аудиофайлы из каталога библиотеки и следит за новыми файлами
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/hazadus/go-sonata/internal/config"
	"github.com/hazadus/go-sonata/internal/data"
)

// DefaultDebounce - пауза после последнего события, после которой файл считается записанным
const DefaultDebounce = 500 * time.Millisecond

// Importer импортирует файлы в библиотеку
type Importer interface {
	HasOrigin(path string) bool
	ImportFile(ctx context.Context, path string) (data.Track, error)
}

// Watcher сканирует каталог библиотеки
type Watcher struct {
	cfg      *config.Config
	importer Importer
	logger   *logrus.Logger
	debounce time.Duration
	onImport func(data.Track)

	mutex   sync.Mutex
	pending map[string]*time.Timer
}

// Option настраивает Watcher
type Option func(*Watcher)

// WithDebounce задает паузу перед импортом нового файла
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithOnImport задает обработчик успешно импортированных треков
func WithOnImport(fn func(data.Track)) Option {
	return func(w *Watcher) {
		w.onImport = fn
	}
}

// New создает Watcher для cfg.LibraryDir
func New(cfg *config.Config, importer Importer, logger *logrus.Logger, opts ...Option) *Watcher {
	if logger == nil {
		logger = logrus.New()
	}
	w := &Watcher{
		cfg:      cfg,
		importer: importer,
		logger:   logger,
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// isAudioFile проверяет расширение и отбрасывает скрытые и временные файлы
func (w *Watcher) isAudioFile(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp") {
		return false
	}
	return w.cfg.IsFormatSupported(strings.ToLower(filepath.Ext(name)))
}

// Scan обходит каталог и импортирует еще не импортированные файлы
func (w *Watcher) Scan(ctx context.Context) ([]data.Track, error) {
	var imported []data.Track

	err := filepath.WalkDir(w.cfg.LibraryDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !w.isAudioFile(path) {
			return nil
		}
		if t, ok := w.importFile(ctx, path); ok {
			imported = append(imported, t)
		}
		return nil
	})

	w.logger.WithFields(logrus.Fields{
		"library_dir": w.cfg.LibraryDir,
		"imported":    len(imported),
	}).Info("Сканирование библиотеки завершено")
	return imported, err
}

func (w *Watcher) importFile(ctx context.Context, path string) (data.Track, bool) {
	if w.importer.HasOrigin(path) {
		return data.Track{}, false
	}

	t, err := w.importer.ImportFile(ctx, path)
	if err != nil {
		w.logger.WithError(err).WithField("file_path", path).Error("Ошибка импорта файла")
		return data.Track{}, false
	}

	w.logger.WithFields(logrus.Fields{
		"artist":   t.Artist,
		"title":    t.Title,
		"track_id": t.ID,
	}).Info("Добавлен новый трек")
	if w.onImport != nil {
		w.onImport(t)
	}
	return t, true
}

// Run следит за каталогом до отмены ctx
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addRecursive(fw, w.cfg.LibraryDir); err != nil {
		return err
	}
	w.logger.WithField("library_dir", w.cfg.LibraryDir).Info("Наблюдение за библиотекой запущено")

	defer w.stopPending()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fw, event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Error("Ошибка наблюдения за файлами")
		}
	}
}

func addRecursive(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(ctx context.Context, fw *fsnotify.Watcher, event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addRecursive(fw, event.Name); err != nil {
				w.logger.WithError(err).WithField("directory", event.Name).Warn("Не удалось добавить каталог")
				return
			}
			w.logger.WithField("directory", event.Name).Info("Наблюдение за новым каталогом")
			return
		}
		if w.isAudioFile(event.Name) {
			w.schedule(ctx, event.Name)
		}

	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.cancel(event.Name)
		if w.isAudioFile(event.Name) {
			// Содержимое уже лежит в офлайн-хранилище, трек остается в библиотеке
			w.logger.WithField("file_path", event.Name).Debug("Аудиофайл удален из каталога")
		}
	}
}

// schedule откладывает импорт, пока файл продолжает записываться
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mutex.Lock()
		delete(w.pending, path)
		w.mutex.Unlock()

		if ctx.Err() == nil {
			w.importFile(ctx, path)
		}
	})
}

func (w *Watcher) cancel(path string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) stopPending() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}
