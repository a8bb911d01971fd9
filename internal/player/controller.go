// Package player содержит контроллер воспроизведения: единственный активный трек,
// очередь, громкость и производный прогресс.
//
// Контроллер управляет одним audio.Output. Каждая загрузка увеличивает номер
// поколения; события вывода с устаревшим номером отбрасываются.
package player

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hazadus/go-sonata/internal/audio"
	"github.com/hazadus/go-sonata/internal/blob"
	"github.com/hazadus/go-sonata/internal/data"
	apperrors "github.com/hazadus/go-sonata/internal/errors"
	"github.com/hazadus/go-sonata/internal/utils"
)

const (
	// RestartThreshold - после этой позиции "назад" перезапускает текущий трек
	RestartThreshold = 3.0
	// VolumeStep - шаг VolumeUp/VolumeDown
	VolumeStep = 0.05
	// DefaultVolume - громкость, если не задана
	DefaultVolume = 0.8

	subscriberBuffer = 10
)

// Catalog сохраняет изменения, которые контроллер делает в библиотеке
type Catalog interface {
	SetLastPlayed(id string) error
	SetVolume(level float64) error
	UpdateDuration(id string, seconds float64) error
}

// Option настраивает контроллер
type Option func(*Controller)

// WithCatalog подключает сохранение громкости, последнего трека и длительностей
func WithCatalog(catalog Catalog) Option {
	return func(c *Controller) { c.catalog = catalog }
}

// WithRetainer подключает учет ссылок на blob-локаторы
func WithRetainer(retainer blob.Retainer) Option {
	return func(c *Controller) { c.retainer = retainer }
}

// WithVolume задает начальную громкость
func WithVolume(level float64) Option {
	return func(c *Controller) {
		c.volume = utils.Clamp(utils.SanitizeSeconds(level), 0, 1)
	}
}

// WithRand задает источник случайности для перемешивания
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) { c.rng = rng }
}

// Controller - сессия воспроизведения
type Controller struct {
	output   audio.Output
	logger   *logrus.Logger
	catalog  Catalog
	retainer blob.Retainer
	rng      *rand.Rand

	mutex         sync.Mutex
	gen           uint64
	current       *data.Track
	state         State
	failed        bool
	currentTime   float64
	duration      float64
	volume        float64
	restoreVolume float64
	muted         bool
	queue         []data.Track
	position      int
	shuffle       bool
	repeat        RepeatMode
	lastErr       error
	listeners     []chan Snapshot
}

// NewController создает контроллер поверх вывода
func NewController(output audio.Output, logger *logrus.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = logrus.New()
	}

	c := &Controller{
		output:   output,
		logger:   logger,
		volume:   DefaultVolume,
		position: -1,
		repeat:   RepeatAll,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	c.restoreVolume = c.volume
	if c.restoreVolume == 0 {
		c.restoreVolume = DefaultVolume
	}
	c.muted = c.volume == 0
	output.SetVolume(c.volume)

	return c
}

// Load загружает трек без запуска воспроизведения. nil равносилен Reset
func (c *Controller) Load(track *data.Track) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	if track == nil {
		c.resetLocked()
		return nil
	}
	return c.loadLocked(*track)
}

func (c *Controller) loadLocked(track data.Track) error {
	c.output.Stop()
	c.gen++

	// Сначала удерживаем новый локатор: тот же трек может загружаться повторно
	c.retain(track.Source)
	if c.current != nil {
		c.release(c.current.Source)
	}

	c.current = &track
	c.state = StatePaused
	c.failed = false
	c.currentTime = 0
	c.duration = utils.SanitizeSeconds(track.Duration)
	c.lastErr = nil

	if c.catalog != nil {
		if err := c.catalog.SetLastPlayed(track.ID); err != nil {
			c.logger.WithError(err).Warn("Не удалось сохранить последний трек")
		}
	}

	src := audio.Source{Locator: track.Source, Format: track.Format}
	if err := c.output.Load(src, c.gen); err != nil {
		c.failed = true
		c.lastErr = apperrors.Playback("load", track.ID, err)
		c.logger.WithError(err).WithField("track_id", track.ID).Warn("Не удалось загрузить трек")
		return c.lastErr
	}

	c.logger.WithFields(logrus.Fields{
		"track_id": track.ID,
		"gen":      c.gen,
	}).Debug("Трек загружен")
	return nil
}

// Play запускает воспроизведение. Без загруженного трека берет первый трек
// очереди; с пустой очередью ничего не делает
func (c *Controller) Play() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	return c.playLocked()
}

func (c *Controller) playLocked() error {
	if c.current == nil {
		if len(c.queue) == 0 {
			return nil
		}
		c.position = 0
		if err := c.loadLocked(c.queue[0]); err != nil {
			return err
		}
	} else if c.state == StateEnded || c.failed {
		// Вывод уже отпустил поток, загружаем трек заново.
		// После сбоя сохраняем позицию, выбранную перемоткой
		resume := 0.0
		if c.state != StateEnded {
			resume = c.currentTime
		}
		if err := c.loadLocked(*c.current); err != nil {
			return err
		}
		if resume > 0 {
			c.currentTime = c.clampTimeLocked(resume)
			if err := c.output.Seek(c.currentTime); err != nil {
				c.logger.WithError(err).WithField("track_id", c.current.ID).Debug("Ошибка перемотки")
			}
		}
	}

	if err := c.output.Play(); err != nil {
		c.state = StatePaused
		c.lastErr = apperrors.Playback("play", c.current.ID, err)
		c.logger.WithError(err).WithField("track_id", c.current.ID).Warn("Не удалось начать воспроизведение")
		return c.lastErr
	}

	c.state = StatePlaying
	return nil
}

// Pause приостанавливает воспроизведение. Повторный вызов ничего не меняет
func (c *Controller) Pause() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	c.pauseLocked()
}

func (c *Controller) pauseLocked() {
	c.output.Pause()
	if c.state == StatePlaying {
		c.state = StatePaused
	}
}

// TogglePlay переключает воспроизведение и паузу
func (c *Controller) TogglePlay() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	if c.state == StatePlaying {
		c.pauseLocked()
		return nil
	}
	return c.playLocked()
}

// Next переходит к следующему треку очереди, после последнего - к первому
func (c *Controller) Next() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	if len(c.queue) == 0 {
		return nil
	}
	return c.moveLocked(c.nextIndexLocked(), c.state == StatePlaying)
}

// Previous перезапускает трек, если прошло больше трех секунд,
// иначе переходит к предыдущему треку очереди
func (c *Controller) Previous() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	wasPlaying := c.state == StatePlaying

	if c.current != nil && c.currentTime > RestartThreshold {
		return c.restartLocked(wasPlaying)
	}
	if len(c.queue) == 0 {
		return nil
	}

	index := c.position - 1
	if index < 0 {
		index = len(c.queue) - 1
	}
	return c.moveLocked(index, wasPlaying)
}

func (c *Controller) nextIndexLocked() int {
	n := len(c.queue)
	if c.shuffle && n > 1 {
		index := c.rng.Intn(n - 1)
		if c.position >= 0 && index >= c.position {
			index++
		}
		return index
	}
	return (c.position + 1) % n
}

func (c *Controller) moveLocked(index int, play bool) error {
	c.position = index
	if err := c.loadLocked(c.queue[index]); err != nil {
		return err
	}
	if play {
		return c.playLocked()
	}
	return nil
}

func (c *Controller) restartLocked(play bool) error {
	if c.state == StateEnded || c.failed {
		if err := c.loadLocked(*c.current); err != nil {
			return err
		}
	} else {
		c.currentTime = 0
		if err := c.output.Seek(0); err != nil {
			c.lastErr = apperrors.Playback("seek", c.current.ID, err)
			return c.lastErr
		}
	}
	if play {
		return c.playLocked()
	}
	return nil
}

// SeekTo перематывает на позицию в секундах, ограниченную длительностью
func (c *Controller) SeekTo(seconds float64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	if c.current == nil {
		return nil
	}

	// Доигранный поток вывод уже отпустил: перематывать нечего
	if c.state == StateEnded {
		if err := c.loadLocked(*c.current); err != nil {
			return err
		}
	}

	target := c.clampTimeLocked(seconds)
	if math.IsInf(seconds, 1) {
		target = c.duration
	}
	c.currentTime = target

	if err := c.output.Seek(target); err != nil {
		c.lastErr = apperrors.Playback("seek", c.current.ID, err)
		c.logger.WithError(err).WithField("track_id", c.current.ID).Debug("Ошибка перемотки")
		return c.lastErr
	}
	return nil
}

func (c *Controller) clampTimeLocked(seconds float64) float64 {
	seconds = utils.SanitizeSeconds(seconds)
	if c.duration > 0 && seconds > c.duration {
		return c.duration
	}
	return seconds
}

// SetVolume устанавливает громкость [0, 1]. Нулевая громкость означает mute
func (c *Controller) SetVolume(level float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	c.setVolumeLocked(level)
}

func (c *Controller) setVolumeLocked(level float64) {
	if math.IsNaN(level) {
		level = 0
	}
	level = utils.Clamp(level, 0, 1)

	c.volume = level
	c.muted = level == 0
	if level > 0 {
		c.restoreVolume = level
	}
	c.output.SetVolume(level)

	if c.catalog != nil {
		if err := c.catalog.SetVolume(level); err != nil {
			c.logger.WithError(err).Warn("Не удалось сохранить громкость")
		}
	}
}

// VolumeUp увеличивает громкость на шаг
func (c *Controller) VolumeUp() {
	c.stepVolume(VolumeStep)
}

// VolumeDown уменьшает громкость на шаг
func (c *Controller) VolumeDown() {
	c.stepVolume(-VolumeStep)
}

func (c *Controller) stepVolume(delta float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	level := math.Round((c.volume+delta)*100) / 100
	c.setVolumeLocked(level)
}

// ToggleMute выключает звук, запоминая громкость, и восстанавливает ее
func (c *Controller) ToggleMute() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	if c.muted {
		c.volume = c.restoreVolume
		c.muted = false
	} else {
		if c.volume > 0 {
			c.restoreVolume = c.volume
		}
		c.volume = 0
		c.muted = true
	}
	c.output.SetVolume(c.volume)
}

// Reset останавливает вывод и очищает текущий трек
func (c *Controller) Reset() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.output.Stop()
	c.gen++

	if c.current != nil {
		c.release(c.current.Source)
	}
	c.current = nil
	c.state = StateEmpty
	c.failed = false
	c.currentTime = 0
	c.duration = 0
	c.lastErr = nil

	if c.catalog != nil {
		if err := c.catalog.SetLastPlayed(""); err != nil {
			c.logger.WithError(err).Warn("Не удалось сохранить последний трек")
		}
	}
}

// SetQueue заменяет очередь целиком. Позиция указывает на текущий трек,
// если он есть в новой очереди
func (c *Controller) SetQueue(tracks []data.Track) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	c.setQueueLocked(tracks)
}

func (c *Controller) setQueueLocked(tracks []data.Track) {
	queue := make([]data.Track, len(tracks))
	copy(queue, tracks)
	for _, t := range queue {
		c.retain(t.Source)
	}
	for _, t := range c.queue {
		c.release(t.Source)
	}

	c.queue = queue
	c.position = -1
	if c.current != nil {
		c.position = indexOf(c.queue, c.current.ID)
	}
}

// PlayQueue заменяет очередь и запускает трек с индексом start
func (c *Controller) PlayQueue(tracks []data.Track, start int) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	if len(tracks) == 0 {
		return apperrors.ErrEmptyPlaylist
	}
	if start < 0 || start >= len(tracks) {
		start = 0
	}

	c.setQueueLocked(tracks)
	return c.moveLocked(start, true)
}

// PlayTrack запускает трек. Если трек есть в очереди, позиция переходит к нему
func (c *Controller) PlayTrack(track data.Track) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	if index := indexOf(c.queue, track.ID); index >= 0 {
		c.queue[index] = c.refreshedLocked(c.queue[index], track)
		return c.moveLocked(index, true)
	}

	c.position = -1
	if err := c.loadLocked(track); err != nil {
		return err
	}
	return c.playLocked()
}

// Enqueue добавляет трек в конец очереди
func (c *Controller) Enqueue(track data.Track) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	c.retain(track.Source)
	c.queue = append(c.queue, track)
	if c.position < 0 && c.current != nil && c.current.ID == track.ID {
		c.position = len(c.queue) - 1
	}
}

// Remove убирает удаленный из каталога трек из очереди.
// Если он играл, загружается трек на его месте, иначе сессия сбрасывается
func (c *Controller) Remove(id string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	wasCurrent := c.current != nil && c.current.ID == id
	wasPlaying := c.state == StatePlaying

	kept := c.queue[:0]
	for i, t := range c.queue {
		if t.ID == id {
			c.release(t.Source)
			if i < c.position {
				c.position--
			}
			continue
		}
		kept = append(kept, t)
	}
	c.queue = kept

	if !wasCurrent {
		if c.position >= len(c.queue) {
			c.position = -1
		}
		return nil
	}

	if len(c.queue) == 0 {
		c.position = -1
		c.resetLocked()
		return nil
	}

	index := c.position
	if index < 0 || index >= len(c.queue) {
		index = 0
	}
	return c.moveLocked(index, wasPlaying)
}

// Refresh обновляет копии трека в сессии после правки каталога
func (c *Controller) Refresh(track data.Track) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	for i := range c.queue {
		if c.queue[i].ID == track.ID {
			c.queue[i] = c.refreshedLocked(c.queue[i], track)
		}
	}
	if c.current != nil && c.current.ID == track.ID {
		updated := c.refreshedLocked(*c.current, track)
		c.current = &updated
	}
}

// refreshedLocked переносит ссылку на локатор со старой копии на новую
func (c *Controller) refreshedLocked(old, updated data.Track) data.Track {
	if old.Source != updated.Source {
		c.retain(updated.Source)
		c.release(old.Source)
	}
	return updated
}

// ToggleShuffle переключает перемешивание
func (c *Controller) ToggleShuffle() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	c.shuffle = !c.shuffle
	return c.shuffle
}

// CycleRepeat переключает режим повтора: all -> one -> off -> all
func (c *Controller) CycleRepeat() RepeatMode {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	c.repeat = (c.repeat + 1) % 3
	return c.repeat
}

// SetRepeat задает режим повтора
func (c *Controller) SetRepeat(mode RepeatMode) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.notifyLocked()

	c.repeat = mode
}

// HandleEvent применяет событие вывода. События прошлых поколений игнорируются
func (c *Controller) HandleEvent(ev audio.Event) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if ev.Gen != c.gen || c.current == nil {
		c.logger.WithFields(logrus.Fields{
			"event": ev.Kind.String(),
			"gen":   ev.Gen,
			"want":  c.gen,
		}).Debug("Событие устаревшего трека пропущено")
		return
	}

	switch ev.Kind {
	case audio.TimeUpdate:
		if c.state != StatePlaying {
			return
		}
		c.currentTime = c.clampTimeLocked(ev.Seconds)
	case audio.DurationResolved:
		c.durationResolvedLocked(ev.Seconds)
	case audio.Ended:
		c.endedLocked()
	case audio.Failed:
		c.failedLocked(ev.Err)
	}
	c.notifyLocked()
}

func (c *Controller) durationResolvedLocked(seconds float64) {
	duration := utils.SanitizeSeconds(seconds)
	c.duration = duration
	if duration > 0 && c.currentTime > duration {
		c.currentTime = duration
	}

	if duration > 0 && c.current.Duration != duration {
		c.current.Duration = duration
		if index := indexOf(c.queue, c.current.ID); index >= 0 {
			c.queue[index].Duration = duration
		}
		if c.catalog != nil {
			if err := c.catalog.UpdateDuration(c.current.ID, duration); err != nil {
				c.logger.WithError(err).WithField("track_id", c.current.ID).Debug("Не удалось обновить длительность")
			}
		}
	}
}

func (c *Controller) endedLocked() {
	c.logger.WithFields(logrus.Fields{
		"track_id": c.current.ID,
		"repeat":   c.repeat.String(),
	}).Debug("Трек доигран")

	c.currentTime = c.duration
	c.state = StateEnded

	var err error
	switch {
	case c.repeat == RepeatOne:
		err = c.restartLocked(true)
	case len(c.queue) == 0:
		// Очередь пуста: остаемся в состоянии Ended
	case c.repeat == RepeatOff && !c.shuffle && c.position == len(c.queue)-1:
		// Конец очереди без повтора
	default:
		err = c.moveLocked(c.nextIndexLocked(), true)
	}

	if err != nil {
		c.logger.WithError(err).Warn("Не удалось перейти к следующему треку")
	}
}

func (c *Controller) failedLocked(err error) {
	c.output.Stop()
	c.state = StatePaused
	c.failed = true
	c.currentTime = 0
	c.duration = 0
	c.lastErr = apperrors.Playback("output", c.current.ID, err)

	c.logger.WithError(err).WithField("track_id", c.current.ID).Warn("Ошибка вывода звука")
}

// Run передает события вывода в контроллер до отмены контекста
func (c *Controller) Run(ctx context.Context) error {
	events := c.output.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.HandleEvent(ev)
		}
	}
}

// Snapshot возвращает копию состояния сессии
func (c *Controller) Snapshot() Snapshot {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:       c.state,
		CurrentTime: utils.SanitizeSeconds(c.currentTime),
		Duration:    utils.SanitizeSeconds(c.duration),
		Volume:      c.volume,
		IsMuted:     c.muted,
		Queue:       make([]data.Track, len(c.queue)),
		Position:    c.position,
		Shuffle:     c.shuffle,
		Repeat:      c.repeat,
		Err:         c.lastErr,
		UpdatedAt:   time.Now(),
	}
	copy(snap.Queue, c.queue)
	if c.current != nil {
		track := *c.current
		snap.Track = &track
	}
	return snap
}

// Subscribe возвращает канал снимков состояния после каждого изменения
func (c *Controller) Subscribe() <-chan Snapshot {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	ch := make(chan Snapshot, subscriberBuffer)
	c.listeners = append(c.listeners, ch)
	return ch
}

// Unsubscribe закрывает канал подписчика
func (c *Controller) Unsubscribe(ch <-chan Snapshot) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for i, listener := range c.listeners {
		if listener == ch {
			close(listener)
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

// notifyLocked рассылает снимок подписчикам (вызывается под мьютексом)
func (c *Controller) notifyLocked() {
	if len(c.listeners) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, listener := range c.listeners {
		select {
		case listener <- snap:
		default:
			// Подписчик не успевает, снимок пропускается
		}
	}
}

// Close останавливает вывод, отпускает локаторы и закрывает подписки
func (c *Controller) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.output.Stop()
	c.gen++
	if c.current != nil {
		c.release(c.current.Source)
		c.current = nil
	}
	for _, t := range c.queue {
		c.release(t.Source)
	}
	c.queue = nil
	c.state = StateEmpty

	for _, listener := range c.listeners {
		close(listener)
	}
	c.listeners = nil

	return c.output.Close()
}

func (c *Controller) retain(locator string) {
	if c.retainer != nil && blob.IsLocator(locator) {
		c.retainer.Retain(locator)
	}
}

func (c *Controller) release(locator string) {
	if c.retainer != nil && blob.IsLocator(locator) {
		c.retainer.Release(locator)
	}
}

func indexOf(tracks []data.Track, id string) int {
	for i, t := range tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
