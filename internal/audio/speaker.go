package audio

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/sirupsen/logrus"
)

const (
	// sampleRate - частота, на которой инициализируются динамики
	sampleRate beep.SampleRate = 44100
	// progressInterval - период отправки TimeUpdate
	progressInterval = 250 * time.Millisecond
	// resampleQuality - качество передискретизации для beep.Resample
	resampleQuality = 4
)

// session - загруженный трек одного поколения
type session struct {
	gen      uint64
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	started  bool
}

// Speaker выводит звук на системные динамики через beep
type Speaker struct {
	opener *Opener
	logger *logrus.Logger
	events chan Event

	ctx    context.Context
	cancel context.CancelFunc

	mutex       sync.Mutex
	initialized bool
	gen         uint64
	current     *session
	wantPlay    bool
	level       float64
	pendingSeek float64
}

// NewSpeaker создает новый вывод на динамики
func NewSpeaker(opener *Opener, logger *logrus.Logger) *Speaker {
	if logger == nil {
		logger = logrus.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Speaker{
		opener: opener,
		logger: logger,
		events: make(chan Event, 32),
		ctx:    ctx,
		cancel: cancel,
		level:  1,
	}
}

// Events возвращает канал событий вывода
func (s *Speaker) Events() <-chan Event {
	return s.events
}

// Load останавливает текущий трек и начинает асинхронную загрузку нового
func (s *Speaker) Load(src Source, gen uint64) error {
	s.mutex.Lock()
	s.stopLocked()
	s.gen = gen
	s.wantPlay = false
	s.pendingSeek = 0
	s.mutex.Unlock()

	go s.open(src, gen)
	return nil
}

func (s *Speaker) open(src Source, gen uint64) {
	log := s.logger.WithFields(logrus.Fields{
		"locator": src.Locator,
		"gen":     gen,
	})

	rc, err := s.opener.Open(s.ctx, src)
	if err != nil {
		log.WithError(err).Debug("Не удалось открыть источник")
		s.emit(Event{Kind: Failed, Gen: gen, Err: err})
		return
	}

	streamer, format, err := Decode(rc, src)
	if err != nil {
		rc.Close()
		log.WithError(err).Debug("Не удалось декодировать источник")
		s.emit(Event{Kind: Failed, Gen: gen, Err: err})
		return
	}

	s.mutex.Lock()
	if s.gen != gen || s.ctx.Err() != nil {
		s.mutex.Unlock()
		streamer.Close()
		return
	}
	sess := &session{gen: gen, streamer: streamer, format: format}
	s.current = sess
	if s.pendingSeek > 0 {
		_ = seekStreamer(sess, s.pendingSeek)
		s.pendingSeek = 0
	}
	s.mutex.Unlock()

	duration := format.SampleRate.D(streamer.Len()).Seconds()
	log.WithField("duration", duration).Debug("Источник загружен")
	s.emit(Event{Kind: DurationResolved, Gen: gen, Seconds: duration})

	if err := s.playGen(gen); err != nil {
		s.emit(Event{Kind: Failed, Gen: gen, Err: err})
	}
}

// playGen запускает трек поколения gen, если Play был запрошен во время загрузки.
// Трек другого поколения не трогает
func (s *Speaker) playGen(gen uint64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.gen != gen || !s.wantPlay || s.current == nil || s.current.gen != gen {
		return nil
	}
	return s.startLocked(s.current)
}

// Play запускает или возобновляет воспроизведение.
// Если трек еще загружается, воспроизведение начнется после загрузки
func (s *Speaker) Play() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.wantPlay = true
	if s.current == nil {
		return nil
	}
	return s.startLocked(s.current)
}

func (s *Speaker) startLocked(sess *session) error {
	if !s.initialized {
		if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
			return fmt.Errorf("ошибка инициализации динамиков: %w", err)
		}
		s.initialized = true
	}

	if sess.started {
		speaker.Lock()
		sess.ctrl.Paused = false
		speaker.Unlock()
		return nil
	}

	var stream beep.Streamer = sess.streamer
	if sess.format.SampleRate != sampleRate {
		stream = beep.Resample(resampleQuality, sess.format.SampleRate, sampleRate, stream)
	}
	sess.ctrl = &beep.Ctrl{Streamer: stream}
	sess.volume = &effects.Volume{Streamer: sess.ctrl, Base: 2}
	applyLevel(sess.volume, s.level)
	sess.started = true

	gen := sess.gen
	speaker.Play(beep.Seq(sess.volume, beep.Callback(func() {
		// Колбэк выполняется под блокировкой динамиков
		go s.ended(gen)
	})))

	go s.monitorProgress(sess)
	return nil
}

func (s *Speaker) ended(gen uint64) {
	s.mutex.Lock()
	if s.current == nil || s.current.gen != gen || s.gen != gen {
		s.mutex.Unlock()
		return
	}
	s.wantPlay = false
	s.mutex.Unlock()

	s.emit(Event{Kind: Ended, Gen: gen})
}

// Pause приостанавливает воспроизведение
func (s *Speaker) Pause() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.wantPlay = false
	if s.current != nil && s.current.started {
		speaker.Lock()
		s.current.ctrl.Paused = true
		speaker.Unlock()
	}
}

// Seek перематывает на позицию в секундах
func (s *Speaker) Seek(seconds float64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.current == nil {
		s.pendingSeek = seconds
		return nil
	}

	if !s.current.started {
		return seekStreamer(s.current, seconds)
	}

	speaker.Lock()
	defer speaker.Unlock()
	return seekStreamer(s.current, seconds)
}

func seekStreamer(sess *session, seconds float64) error {
	n := sess.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if n < 0 {
		n = 0
	}
	if length := sess.streamer.Len(); n > length {
		n = length
	}
	if err := sess.streamer.Seek(n); err != nil {
		return fmt.Errorf("ошибка перемотки: %w", err)
	}
	return nil
}

// SetVolume устанавливает громкость в диапазоне [0, 1]
func (s *Speaker) SetVolume(level float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.level = level
	if s.current != nil && s.current.started {
		speaker.Lock()
		applyLevel(s.current.volume, level)
		speaker.Unlock()
	}
}

// applyLevel переводит линейную громкость в экспоненту для effects.Volume
func applyLevel(v *effects.Volume, level float64) {
	if level <= 0 {
		v.Silent = true
		v.Volume = 0
		return
	}
	v.Silent = false
	v.Volume = math.Log2(math.Min(level, 1))
}

// Stop останавливает воспроизведение и выгружает трек
func (s *Speaker) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.stopLocked()
}

// stopLocked внутренний метод остановки (должен вызываться под мьютексом)
func (s *Speaker) stopLocked() {
	s.wantPlay = false
	if s.current == nil {
		return
	}
	if s.initialized {
		speaker.Clear()
	}
	s.current.streamer.Close()
	s.current = nil
}

// Close останавливает вывод и освобождает динамики
func (s *Speaker) Close() error {
	s.cancel()
	s.Stop()

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.initialized {
		speaker.Close()
		s.initialized = false
	}
	return nil
}

// monitorProgress отправляет позицию воспроизведения, пока сессия активна
func (s *Speaker) monitorProgress(sess *session) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.mutex.Lock()
			if s.current != sess {
				s.mutex.Unlock()
				return
			}

			speaker.Lock()
			paused := sess.ctrl.Paused
			position := sess.format.SampleRate.D(sess.streamer.Position())
			speaker.Unlock()
			s.mutex.Unlock()

			if paused {
				continue
			}

			// Если канал заполнен, пропускаем обновление
			select {
			case s.events <- Event{Kind: TimeUpdate, Gen: sess.gen, Seconds: position.Seconds()}:
			default:
			}
		}
	}
}

func (s *Speaker) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.ctx.Done():
	}
}
