package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStorageErrorKinds(t *testing.T) {
	cause := errors.New("disk I/O error")

	tests := []struct {
		name     string
		err      error
		sentinel error
		other    error
	}{
		{"unavailable", Unavailable("open", cause), ErrStoreUnavailable, ErrTransactionFailed},
		{"transaction", Transaction("save", cause), ErrTransactionFailed, ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("ошибка загрузки: %w", tt.err)

			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("ожидалось совпадение с %v", tt.sentinel)
			}
			if errors.Is(wrapped, tt.other) {
				t.Errorf("не ожидалось совпадение с %v", tt.other)
			}
			if !errors.Is(wrapped, cause) {
				t.Error("исходная причина должна быть доступна через Unwrap")
			}

			var se *StorageError
			if !errors.As(wrapped, &se) {
				t.Fatal("ожидался *StorageError")
			}
			if !IsNonFatal(wrapped) {
				t.Error("ошибка хранилища не должна быть фатальной")
			}
		})
	}
}

func TestPlaybackError(t *testing.T) {
	err := Playback("play", "abc", errors.New("unsupported codec"))

	if !errors.Is(err, ErrPlayback) {
		t.Error("ожидалось совпадение с ErrPlayback")
	}
	if !strings.Contains(err.Error(), "abc") {
		t.Errorf("сообщение должно содержать ID трека: %s", err.Error())
	}

	msg := UserMessage(err)
	if !strings.HasSuffix(msg, "unsupported codec") {
		t.Errorf("сообщение пользователю должно содержать причину, получено: %s", msg)
	}
}

func TestNotFound(t *testing.T) {
	err := fmt.Errorf("ошибка: %w", NotFound("плейлист", "p1"))

	if !IsNotFound(err) {
		t.Error("ожидалась ошибка отсутствия объекта")
	}
	if got := UserMessage(err); got != "плейлист с ID p1 не найден" {
		t.Errorf("неожиданное сообщение: %s", got)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrAlreadyInPlaylist, "Трек уже есть в этом плейлисте"},
		{ErrEmptyPlaylist, "Плейлист пуст"},
		{Unavailable("open", nil), "Офлайн-хранилище недоступно, библиотека загружена без локальных треков"},
		{errors.New("что-то другое"), "что-то другое"},
	}

	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, ожидалось %q", tt.err, got, tt.want)
		}
	}
}

func TestIsNonFatal(t *testing.T) {
	if !IsNonFatal(nil) {
		t.Error("nil не является фатальной ошибкой")
	}
	if IsNonFatal(errors.New("panic-worthy")) {
		t.Error("произвольная ошибка считается фатальной")
	}
}
