// Package blob хранит содержимое офлайн-треков в памяти и выдает на него локаторы.
//
// Локатор имеет вид "blob:<id>". Каждый владелец (каталог, очередь, текущий трек)
// удерживает ссылку через Retain и отпускает ее через Release; содержимое
// освобождается, когда ссылок не остается.
package blob

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/hazadus/go-sonata/internal/data"
	apperrors "github.com/hazadus/go-sonata/internal/errors"
)

// Retainer управляет временем жизни локаторов
type Retainer interface {
	Retain(locator string)
	Release(locator string)
}

type entry struct {
	content []byte
	refs    int
}

// Registry - потокобезопасная таблица blob-локаторов
type Registry struct {
	items map[string]*entry
	mutex sync.RWMutex
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{
		items: make(map[string]*entry),
	}
}

// Locator возвращает локатор для ID трека
func Locator(id string) string {
	return data.BlobScheme + id
}

// IsLocator проверяет, является ли строка blob-локатором
func IsLocator(s string) bool {
	return strings.HasPrefix(s, data.BlobScheme)
}

// Register помещает содержимое в реестр и возвращает локатор с одной ссылкой.
// Повторная регистрация того же ID заменяет содержимое и добавляет ссылку
func (r *Registry) Register(id string, content []byte) string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	locator := Locator(id)
	if e, ok := r.items[locator]; ok {
		e.content = content
		e.refs++
		return locator
	}
	r.items[locator] = &entry{content: content, refs: 1}
	return locator
}

// Retain добавляет ссылку на локатор. Неизвестные локаторы игнорируются
func (r *Registry) Retain(locator string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if e, ok := r.items[locator]; ok {
		e.refs++
	}
}

// Release снимает ссылку и освобождает содержимое, когда ссылок не осталось
func (r *Registry) Release(locator string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	e, ok := r.items[locator]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(r.items, locator)
	}
}

// Content возвращает содержимое по локатору
func (r *Registry) Content(locator string) ([]byte, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	e, ok := r.items[locator]
	if !ok {
		return nil, apperrors.NotFound("blob", strings.TrimPrefix(locator, data.BlobScheme))
	}
	return e.content, nil
}

// Open возвращает читателя с поддержкой Seek для содержимого локатора
func (r *Registry) Open(locator string) (io.ReadSeekCloser, error) {
	content, err := r.Content(locator)
	if err != nil {
		return nil, err
	}
	return nopSeekCloser{bytes.NewReader(content)}, nil
}

// Refs возвращает число ссылок на локатор
func (r *Registry) Refs(locator string) int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if e, ok := r.items[locator]; ok {
		return e.refs
	}
	return 0
}

// Len возвращает количество живых локаторов
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.items)
}

type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }
