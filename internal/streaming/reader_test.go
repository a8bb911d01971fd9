package streaming

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewReaderStreamsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != UserAgent {
			t.Errorf("Неожиданный User-Agent: %s", r.Header.Get("User-Agent"))
		}
		if r.Header.Get("Range") != "bytes=0-" {
			t.Errorf("Неожиданный Range: %s", r.Header.Get("Range"))
		}
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("audio-bytes"))
	}))
	defer server.Close()

	reader, err := NewReader(context.Background(), server.URL, 16)
	if err != nil {
		t.Fatalf("Ошибка создания ридера: %v", err)
	}
	defer reader.Close()

	body, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("Ошибка чтения: %v", err)
	}
	if string(body) != "audio-bytes" {
		t.Errorf("Неожиданное содержимое: %s", body)
	}
}

func TestNewReaderHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := NewReader(context.Background(), server.URL, 0)
	if err == nil {
		t.Fatal("Ожидалась ошибка для ответа 404")
	}
	if !strings.Contains(err.Error(), "ошибка HTTP") {
		t.Errorf("Неожиданное сообщение об ошибке: %v", err)
	}
}

func TestFetch(t *testing.T) {
	payload := strings.Repeat("x", 100000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	content, err := Fetch(context.Background(), server.URL, 1024)
	if err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}
	if len(content) != len(payload) {
		t.Errorf("Ожидалось %d байт, получено %d", len(payload), len(content))
	}
}

func TestFetchCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Fetch(ctx, server.URL, 0); err == nil {
		t.Error("Ожидалась ошибка для отмененного контекста")
	}
}
