package player

import (
	"time"

	"github.com/hazadus/go-sonata/internal/data"
	"github.com/hazadus/go-sonata/internal/utils"
)

// State - состояние транспорта
type State int

const (
	// StateEmpty - трек не загружен
	StateEmpty State = iota
	// StatePaused - трек загружен и стоит на паузе
	StatePaused
	// StatePlaying - трек воспроизводится
	StatePlaying
	// StateEnded - трек доигран, очередь исчерпана
	StateEnded
)

// String возвращает имя состояния
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// RepeatMode - политика по окончании трека
type RepeatMode int

const (
	// RepeatAll - перейти к следующему треку, очередь зациклена
	RepeatAll RepeatMode = iota
	// RepeatOne - повторить текущий трек
	RepeatOne
	// RepeatOff - остановиться в конце очереди
	RepeatOff
)

// String возвращает имя режима повтора
func (m RepeatMode) String() string {
	switch m {
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	case RepeatOff:
		return "off"
	default:
		return "unknown"
	}
}

// Snapshot - копия состояния сессии воспроизведения
type Snapshot struct {
	Track       *data.Track
	State       State
	CurrentTime float64
	Duration    float64
	Volume      float64
	IsMuted     bool
	Queue       []data.Track
	Position    int
	Shuffle     bool
	Repeat      RepeatMode
	// Err - последняя ошибка воспроизведения, сбрасывается успешной загрузкой
	Err       error
	UpdatedAt time.Time
}

// IsPlaying сообщает, идет ли воспроизведение
func (s Snapshot) IsPlaying() bool {
	return s.State == StatePlaying
}

// HasTrack сообщает, загружен ли трек
func (s Snapshot) HasTrack() bool {
	return s.Track != nil
}

// ProgressPercent возвращает прогресс в процентах [0, 100].
// Пока длительность неизвестна, прогресс равен нулю
func (s Snapshot) ProgressPercent() float64 {
	duration := utils.SanitizeSeconds(s.Duration)
	if duration <= 0 {
		return 0
	}
	return utils.Clamp(utils.SanitizeSeconds(s.CurrentTime)/duration*100, 0, 100)
}

// TimeLabel возвращает подпись "текущее / общее"
func (s Snapshot) TimeLabel() string {
	return utils.FormatTime(s.CurrentTime) + " / " + utils.FormatTime(s.Duration)
}
