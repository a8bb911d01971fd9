package tui

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewApp(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	a := NewApp(nil, nil, logger)
	if a.logger != logger {
		t.Error("Логгер должен сохраняться в приложении")
	}
}
