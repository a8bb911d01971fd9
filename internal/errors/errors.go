// Package errors содержит таксономию ошибок приложения и их пользовательские сообщения
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Базовые ошибки, с которыми сравниваются обернутые значения через errors.Is
var (
	ErrStoreUnavailable  = errors.New("хранилище недоступно")
	ErrTransactionFailed = errors.New("транзакция не выполнена")
	ErrNotFound          = errors.New("не найдено")
	ErrAlreadyInPlaylist = errors.New("трек уже есть в плейлисте")
	ErrEmptyPlaylist     = errors.New("плейлист пуст")
	ErrPlayback          = errors.New("ошибка воспроизведения")
	ErrUnsupportedFormat = errors.New("неподдерживаемый формат")
	ErrInvalidConfig     = errors.New("неверная конфигурация")
	ErrTooManyFiles      = errors.New("слишком много файлов за один раз")
	ErrEmptyName         = errors.New("название не может быть пустым")
)

// StorageKind различает причины отказа локального хранилища
type StorageKind int

const (
	// KindUnavailable - хранилище не удалось открыть
	KindUnavailable StorageKind = iota
	// KindTransaction - операция над открытым хранилищем завершилась ошибкой
	KindTransaction
)

func (k StorageKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindTransaction:
		return "transaction"
	default:
		return "unknown"
	}
}

// StorageError описывает отказ хранилища офлайн-треков
type StorageError struct {
	Op   string
	Kind StorageKind
	Err  error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("хранилище: %s: %s", e.Op, e.sentinel())
	}
	return fmt.Sprintf("хранилище: %s: %s: %v", e.Op, e.sentinel(), e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is позволяет сравнивать ошибку с ErrStoreUnavailable и ErrTransactionFailed
func (e *StorageError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *StorageError) sentinel() error {
	if e.Kind == KindUnavailable {
		return ErrStoreUnavailable
	}
	return ErrTransactionFailed
}

// Unavailable создает ошибку открытия хранилища
func Unavailable(op string, err error) error {
	return &StorageError{Op: op, Kind: KindUnavailable, Err: err}
}

// Transaction создает ошибку выполнения операции над хранилищем
func Transaction(op string, err error) error {
	return &StorageError{Op: op, Kind: KindTransaction, Err: err}
}

// PlaybackError описывает сбой аудиовыхода
type PlaybackError struct {
	Op      string
	TrackID string
	Err     error
}

func (e *PlaybackError) Error() string {
	if e.TrackID == "" {
		return fmt.Sprintf("ошибка воспроизведения (%s): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ошибка воспроизведения трека %s (%s): %v", e.TrackID, e.Op, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

func (e *PlaybackError) Is(target error) bool {
	return target == ErrPlayback
}

// Playback оборачивает ошибку аудиовыхода
func Playback(op, trackID string, err error) error {
	return &PlaybackError{Op: op, TrackID: trackID, Err: err}
}

// NotFoundError сообщает, что запрошенный объект отсутствует
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s с ID %s не найден", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound создает ошибку отсутствующего объекта
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// IsNotFound проверяет, что ошибка означает отсутствие объекта
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNonFatal сообщает, можно ли продолжить работу после ошибки
func IsNonFatal(err error) bool {
	if err == nil {
		return true
	}
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrTransactionFailed) ||
		errors.Is(err, ErrPlayback) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyInPlaylist) ||
		errors.Is(err, ErrEmptyPlaylist)
}

// UserMessage возвращает короткое сообщение для уведомления пользователя
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var nf *NotFoundError
	switch {
	case errors.Is(err, ErrStoreUnavailable):
		return "Офлайн-хранилище недоступно, библиотека загружена без локальных треков"
	case errors.Is(err, ErrTransactionFailed):
		return "Не удалось сохранить изменения в офлайн-хранилище"
	case errors.Is(err, ErrAlreadyInPlaylist):
		return "Трек уже есть в этом плейлисте"
	case errors.Is(err, ErrEmptyPlaylist):
		return "Плейлист пуст"
	case errors.Is(err, ErrEmptyName):
		return "Название не может быть пустым"
	case errors.Is(err, ErrTooManyFiles):
		return "Слишком много файлов за один раз"
	case errors.As(err, &nf):
		return nf.Error()
	case errors.Is(err, ErrUnsupportedFormat):
		return "Формат файла не поддерживается"
	case errors.Is(err, ErrPlayback):
		return "Не удалось воспроизвести трек: " + rootCause(err)
	}
	return err.Error()
}

// rootCause возвращает текст самой внутренней ошибки цепочки
func rootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return strings.TrimSpace(err.Error())
		}
		err = next
	}
}
