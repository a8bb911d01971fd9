package player

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/hazadus/go-sonata/internal/audio"
	"github.com/hazadus/go-sonata/internal/blob"
	"github.com/hazadus/go-sonata/internal/data"
	apperrors "github.com/hazadus/go-sonata/internal/errors"
	"github.com/hazadus/go-sonata/internal/logging"
)

// fakeOutput записывает вызовы и позволяет имитировать сбои
type fakeOutput struct {
	mu      sync.Mutex
	events  chan audio.Event
	loads   []audio.Source
	gens    []uint64
	plays   int
	pauses  int
	stops   int
	seeks   []float64
	volume  float64
	loadErr error
	playErr error
	closed  bool
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{events: make(chan audio.Event, 16)}
}

func (f *fakeOutput) Load(src audio.Source, gen uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, src)
	f.gens = append(f.gens, gen)
	return f.loadErr
}

func (f *fakeOutput) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	return f.playErr
}

func (f *fakeOutput) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
}

func (f *fakeOutput) Seek(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, seconds)
	return nil
}

func (f *fakeOutput) SetVolume(level float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = level
}

func (f *fakeOutput) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeOutput) Events() <-chan audio.Event { return f.events }

func (f *fakeOutput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeOutput) lastGen() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.gens) == 0 {
		return 0
	}
	return f.gens[len(f.gens)-1]
}

// fakeCatalog запоминает сохраненные значения
type fakeCatalog struct {
	lastPlayed string
	volume     float64
	durations  map[string]float64
}

func (f *fakeCatalog) SetLastPlayed(id string) error {
	f.lastPlayed = id
	return nil
}

func (f *fakeCatalog) SetVolume(level float64) error {
	f.volume = level
	return nil
}

func (f *fakeCatalog) UpdateDuration(id string, seconds float64) error {
	if f.durations == nil {
		f.durations = make(map[string]float64)
	}
	f.durations[id] = seconds
	return nil
}

func track(id string) data.Track {
	return data.Track{
		ID:       id,
		Title:    "Track " + id,
		Artist:   "Artist",
		Duration: 180,
		Source:   "https://example.com/" + id + ".mp3",
		Format:   "mp3",
	}
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *fakeOutput) {
	t.Helper()
	out := newFakeOutput()
	c := NewController(out, logging.Discard(), opts...)
	return c, out
}

func mustCurrent(t *testing.T, c *Controller, want string) Snapshot {
	t.Helper()
	snap := c.Snapshot()
	if snap.Track == nil {
		t.Fatalf("Ожидался текущий трек %s, трек не загружен", want)
	}
	if snap.Track.ID != want {
		t.Fatalf("Ожидался текущий трек %s, получен %s", want, snap.Track.ID)
	}
	return snap
}

func TestLoadDoesNotPlay(t *testing.T) {
	catalog := &fakeCatalog{}
	c, out := newTestController(t, WithCatalog(catalog))

	a := track("1")
	if err := c.Load(&a); err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}

	snap := mustCurrent(t, c, "1")
	if snap.State != StatePaused || snap.IsPlaying() {
		t.Errorf("После загрузки ожидалась пауза, получено %s", snap.State)
	}
	if snap.CurrentTime != 0 || snap.Duration != 180 {
		t.Errorf("Ожидались время 0 и длительность 180, получено %v/%v", snap.CurrentTime, snap.Duration)
	}
	if out.plays != 0 {
		t.Error("Load не должен запускать воспроизведение")
	}
	if catalog.lastPlayed != "1" {
		t.Errorf("Ожидалось сохранение последнего трека, получено %q", catalog.lastPlayed)
	}
}

func TestLoadNilResets(t *testing.T) {
	c, _ := newTestController(t)
	a := track("1")
	_ = c.Load(&a)
	_ = c.Play()

	if err := c.Load(nil); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}

	snap := c.Snapshot()
	if snap.Track != nil || snap.State != StateEmpty || snap.CurrentTime != 0 || snap.Duration != 0 {
		t.Errorf("Ожидалось пустое состояние, получено %+v", snap)
	}
}

func TestPlayEmptyQueueIsNoop(t *testing.T) {
	c, out := newTestController(t)

	if err := c.Play(); err != nil {
		t.Fatalf("Play с пустой очередью не должен возвращать ошибку: %v", err)
	}
	if c.Snapshot().Track != nil {
		t.Error("Текущий трек должен остаться пустым")
	}
	if out.plays != 0 {
		t.Error("Вывод не должен запускаться")
	}
}

func TestPlayLoadsFirstQueueEntry(t *testing.T) {
	c, _ := newTestController(t)
	c.SetQueue([]data.Track{track("1"), track("2")})

	if err := c.TogglePlay(); err != nil {
		t.Fatalf("Ошибка воспроизведения: %v", err)
	}

	snap := mustCurrent(t, c, "1")
	if !snap.IsPlaying() || snap.Position != 0 {
		t.Errorf("Ожидалось воспроизведение первого трека, получено %s/%d", snap.State, snap.Position)
	}
}

func TestTogglePlayPause(t *testing.T) {
	c, out := newTestController(t)
	a := track("1")
	_ = c.Load(&a)

	_ = c.TogglePlay()
	if !c.Snapshot().IsPlaying() {
		t.Fatal("Ожидалось воспроизведение")
	}
	_ = c.TogglePlay()
	if c.Snapshot().IsPlaying() {
		t.Fatal("Ожидалась пауза")
	}

	// Pause идемпотентна
	c.Pause()
	c.Pause()
	if c.Snapshot().State != StatePaused {
		t.Errorf("Ожидалось состояние paused, получено %s", c.Snapshot().State)
	}
	if out.pauses != 3 {
		t.Errorf("Ожидалось 3 вызова паузы вывода, получено %d", out.pauses)
	}
}

func TestPlayFailureIsNonFatal(t *testing.T) {
	c, out := newTestController(t)
	out.playErr = errors.New("device busy")
	a := track("1")
	_ = c.Load(&a)

	err := c.Play()
	if !errors.Is(err, apperrors.ErrPlayback) {
		t.Fatalf("Ожидалась ошибка воспроизведения, получено %v", err)
	}

	snap := c.Snapshot()
	if snap.IsPlaying() {
		t.Error("После сбоя isPlaying должен быть false")
	}
	if snap.Err == nil {
		t.Error("Ошибка должна попасть в снимок состояния")
	}
	if snap.Track == nil {
		t.Error("Трек должен остаться загруженным")
	}
}

func TestLoadFailure(t *testing.T) {
	c, out := newTestController(t)
	out.loadErr = errors.New("bad locator")
	a := track("1")

	var pe *apperrors.PlaybackError
	if err := c.Load(&a); !errors.As(err, &pe) || pe.TrackID != "1" {
		t.Fatalf("Ожидался PlaybackError для трека 1, получено %v", err)
	}
	if c.Snapshot().State != StatePaused {
		t.Errorf("Ожидалось состояние paused, получено %s", c.Snapshot().State)
	}
}

func TestNextWrapsAround(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.PlayQueue([]data.Track{track("1"), track("2"), track("3")}, 0); err != nil {
		t.Fatalf("Ошибка запуска очереди: %v", err)
	}

	_ = c.Next()
	_ = c.Next()
	snap := mustCurrent(t, c, "3")
	if !snap.IsPlaying() {
		t.Error("Воспроизведение должно продолжаться")
	}

	_ = c.Next()
	snap = mustCurrent(t, c, "1")
	if snap.Position != 0 {
		t.Errorf("Ожидалась позиция 0, получено %d", snap.Position)
	}
}

func TestNextKeepsPausedState(t *testing.T) {
	c, out := newTestController(t)
	c.SetQueue([]data.Track{track("1"), track("2")})
	a := track("1")
	_ = c.Load(&a)

	_ = c.Next()
	snap := mustCurrent(t, c, "2")
	if snap.IsPlaying() || out.plays != 0 {
		t.Error("Next на паузе не должен запускать воспроизведение")
	}
}

func TestNextEmptyQueueIsNoop(t *testing.T) {
	c, _ := newTestController(t)
	a := track("1")
	_ = c.Load(&a)

	if err := c.Next(); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	mustCurrent(t, c, "1")
}

func TestNextSingleTrackLoops(t *testing.T) {
	c, out := newTestController(t)
	_ = c.PlayQueue([]data.Track{track("1")}, 0)
	c.HandleEvent(audio.Event{Kind: audio.TimeUpdate, Gen: out.lastGen(), Seconds: 42})

	_ = c.Next()

	snap := mustCurrent(t, c, "1")
	if snap.CurrentTime != 0 {
		t.Errorf("Ожидалось время 0, получено %v", snap.CurrentTime)
	}
	if !snap.IsPlaying() {
		t.Error("Воспроизведение должно продолжаться")
	}
}

func TestPrevious(t *testing.T) {
	tests := []struct {
		name        string
		currentTime float64
		wantTrack   string
	}{
		{"перезапуск после трех секунд", 5, "2"},
		{"предыдущий трек в начале", 1, "1"},
		{"ровно три секунды", 3, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out := newTestController(t)
			_ = c.PlayQueue([]data.Track{track("1"), track("2"), track("3")}, 1)
			c.HandleEvent(audio.Event{Kind: audio.TimeUpdate, Gen: out.lastGen(), Seconds: tt.currentTime})

			if err := c.Previous(); err != nil {
				t.Fatalf("Неожиданная ошибка: %v", err)
			}

			snap := mustCurrent(t, c, tt.wantTrack)
			if snap.CurrentTime != 0 {
				t.Errorf("Ожидалось время 0, получено %v", snap.CurrentTime)
			}
			if !snap.IsPlaying() {
				t.Error("Воспроизведение должно продолжаться")
			}
		})
	}
}

func TestPreviousWrapsToLast(t *testing.T) {
	c, _ := newTestController(t)
	_ = c.PlayQueue([]data.Track{track("1"), track("2"), track("3")}, 0)

	_ = c.Previous()
	snap := mustCurrent(t, c, "3")
	if snap.Position != 2 {
		t.Errorf("Ожидалась позиция 2, получено %d", snap.Position)
	}
}

func TestSeekClampsToResolvedDuration(t *testing.T) {
	c, out := newTestController(t)
	a := track("1")
	a.Duration = 0
	_ = c.Load(&a)

	// Длительность еще неизвестна: ограничение только снизу
	_ = c.SeekTo(500)
	if got := c.Snapshot().CurrentTime; got != 500 {
		t.Fatalf("Ожидалось время 500, получено %v", got)
	}

	c.HandleEvent(audio.Event{Kind: audio.DurationResolved, Gen: out.lastGen(), Seconds: 200})
	snap := c.Snapshot()
	if snap.Duration != 200 || snap.CurrentTime != 200 {
		t.Errorf("Ожидались длительность и время 200, получено %v/%v", snap.Duration, snap.CurrentTime)
	}
}

func TestDurationOverwritesProvisional(t *testing.T) {
	catalog := &fakeCatalog{}
	c, out := newTestController(t, WithCatalog(catalog))
	a := track("1")
	_ = c.Load(&a)

	_ = c.SeekTo(170)
	c.HandleEvent(audio.Event{Kind: audio.DurationResolved, Gen: out.lastGen(), Seconds: 150.5})

	snap := c.Snapshot()
	if snap.Duration != 150.5 || snap.CurrentTime != 150.5 {
		t.Errorf("Ожидались длительность и время 150.5, получено %v/%v", snap.Duration, snap.CurrentTime)
	}
	if snap.Track.Duration != 150.5 {
		t.Errorf("Длительность трека должна обновиться, получено %v", snap.Track.Duration)
	}
	if catalog.durations["1"] != 150.5 {
		t.Errorf("Длительность должна быть передана в каталог, получено %v", catalog.durations["1"])
	}
}

func TestSeekTo(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    float64
	}{
		{"внутри трека", 60, 60},
		{"отрицательное", -5, 0},
		{"за концом", 1000, 180},
		{"NaN", math.NaN(), 0},
		{"+Inf", math.Inf(1), 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out := newTestController(t)
			a := track("1")
			_ = c.Load(&a)

			if err := c.SeekTo(tt.seconds); err != nil {
				t.Fatalf("Неожиданная ошибка: %v", err)
			}
			if got := c.Snapshot().CurrentTime; got != tt.want {
				t.Errorf("Ожидалось %v, получено %v", tt.want, got)
			}
			if last := out.seeks[len(out.seeks)-1]; last != tt.want {
				t.Errorf("Вывод должен получить %v, получено %v", tt.want, last)
			}
		})
	}
}

func TestSeekWithoutTrack(t *testing.T) {
	c, out := newTestController(t)
	if err := c.SeekTo(10); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if len(out.seeks) != 0 {
		t.Error("Без трека перемотка не должна доходить до вывода")
	}
}

func TestSetVolume(t *testing.T) {
	tests := []struct {
		level     float64
		wantLevel float64
		wantMuted bool
	}{
		{0.5, 0.5, false},
		{1.5, 1, false},
		{-1, 0, true},
		{0, 0, true},
		{math.NaN(), 0, true},
	}

	for _, tt := range tests {
		catalog := &fakeCatalog{}
		c, out := newTestController(t, WithCatalog(catalog))
		c.SetVolume(tt.level)

		snap := c.Snapshot()
		if snap.Volume != tt.wantLevel || snap.IsMuted != tt.wantMuted {
			t.Errorf("SetVolume(%v): ожидалось %v/%v, получено %v/%v",
				tt.level, tt.wantLevel, tt.wantMuted, snap.Volume, snap.IsMuted)
		}
		if out.volume != tt.wantLevel {
			t.Errorf("SetVolume(%v): вывод получил %v", tt.level, out.volume)
		}
		if catalog.volume != tt.wantLevel {
			t.Errorf("SetVolume(%v): в каталог сохранено %v", tt.level, catalog.volume)
		}
	}
}

func TestToggleMuteRestoresVolume(t *testing.T) {
	c, out := newTestController(t)
	c.SetVolume(0.5)

	c.ToggleMute()
	snap := c.Snapshot()
	if !snap.IsMuted || snap.Volume != 0 || out.volume != 0 {
		t.Fatalf("Ожидался выключенный звук, получено %v/%v", snap.Volume, snap.IsMuted)
	}

	c.ToggleMute()
	snap = c.Snapshot()
	if snap.IsMuted || snap.Volume != 0.5 || out.volume != 0.5 {
		t.Errorf("Ожидалось восстановление 0.5, получено %v/%v", snap.Volume, snap.IsMuted)
	}
}

func TestUnmuteAfterZeroVolume(t *testing.T) {
	c, _ := newTestController(t, WithVolume(0.7))
	c.SetVolume(0)

	c.ToggleMute()
	if got := c.Snapshot().Volume; got != 0.7 {
		t.Errorf("Ожидалось восстановление последней ненулевой громкости 0.7, получено %v", got)
	}
}

func TestVolumeSteps(t *testing.T) {
	c, _ := newTestController(t, WithVolume(0.8))

	c.VolumeUp()
	if got := c.Snapshot().Volume; got != 0.85 {
		t.Errorf("Ожидалось 0.85, получено %v", got)
	}

	for i := 0; i < 10; i++ {
		c.VolumeUp()
	}
	if got := c.Snapshot().Volume; got != 1 {
		t.Errorf("Громкость не должна превышать 1, получено %v", got)
	}

	c.SetVolume(0.05)
	c.VolumeDown()
	snap := c.Snapshot()
	if snap.Volume != 0 || !snap.IsMuted {
		t.Errorf("Ожидалась нулевая громкость, получено %v/%v", snap.Volume, snap.IsMuted)
	}
}

func TestEndedAdvancesQueue(t *testing.T) {
	c, out := newTestController(t)
	_ = c.PlayQueue([]data.Track{track("1"), track("2")}, 0)

	c.HandleEvent(audio.Event{Kind: audio.Ended, Gen: out.lastGen()})
	snap := mustCurrent(t, c, "2")
	if !snap.IsPlaying() {
		t.Error("После окончания трека следующий должен играть")
	}

	// Последний трек переходит к первому
	c.HandleEvent(audio.Event{Kind: audio.Ended, Gen: out.lastGen()})
	mustCurrent(t, c, "1")
}

func TestEndedSingleTrackLoops(t *testing.T) {
	c, out := newTestController(t)
	_ = c.PlayQueue([]data.Track{track("1")}, 0)
	loads := len(out.loads)

	c.HandleEvent(audio.Event{Kind: audio.Ended, Gen: out.lastGen()})

	snap := mustCurrent(t, c, "1")
	if !snap.IsPlaying() || snap.CurrentTime != 0 {
		t.Errorf("Ожидался повтор трека с начала, получено %s/%v", snap.State, snap.CurrentTime)
	}
	if len(out.loads) != loads+1 {
		t.Error("Трек должен быть загружен заново")
	}
}

func TestEndedEmptyQueueStops(t *testing.T) {
	c, out := newTestController(t)
	a := track("1")
	_ = c.PlayTrack(a)

	c.HandleEvent(audio.Event{Kind: audio.Ended, Gen: out.lastGen()})

	snap := mustCurrent(t, c, "1")
	if snap.State != StateEnded || snap.IsPlaying() {
		t.Errorf("Ожидалось состояние ended, получено %s", snap.State)
	}

	// Play из ended начинает трек заново
	if err := c.Play(); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	snap = c.Snapshot()
	if !snap.IsPlaying() || snap.CurrentTime != 0 {
		t.Errorf("Ожидался перезапуск, получено %s/%v", snap.State, snap.CurrentTime)
	}
}

func TestSeekAfterEndedReloads(t *testing.T) {
	c, out := newTestController(t)
	a := track("1")
	_ = c.PlayTrack(a)
	c.HandleEvent(audio.Event{Kind: audio.Ended, Gen: out.lastGen()})

	loads := len(out.loads)
	if err := c.SeekTo(10); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if len(out.loads) != loads+1 {
		t.Fatalf("Перемотка после окончания должна загрузить трек заново, загрузок %d", len(out.loads)-loads)
	}
	snap := c.Snapshot()
	if snap.State != StatePaused || snap.CurrentTime != 10 {
		t.Errorf("Ожидалась пауза на 10s, получено %s/%v", snap.State, snap.CurrentTime)
	}
	if got := out.seeks[len(out.seeks)-1]; got != 10 {
		t.Errorf("Перемотка должна дойти до вывода, получено %v", got)
	}

	// Play не перезагружает трек повторно и не сбрасывает позицию
	if err := c.Play(); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	snap = c.Snapshot()
	if len(out.loads) != loads+1 || !snap.IsPlaying() || snap.CurrentTime != 10 {
		t.Errorf("Ожидалось воспроизведение с 10s, получено %s/%v, загрузок %d", snap.State, snap.CurrentTime, len(out.loads)-loads)
	}
}

func TestRepeatModes(t *testing.T) {
	t.Run("one", func(t *testing.T) {
		c, out := newTestController(t)
		_ = c.PlayQueue([]data.Track{track("1"), track("2")}, 0)
		c.SetRepeat(RepeatOne)

		c.HandleEvent(audio.Event{Kind: audio.Ended, Gen: out.lastGen()})
		if snap := mustCurrent(t, c, "1"); !snap.IsPlaying() {
			t.Error("Трек должен повториться")
		}
	})

	t.Run("off", func(t *testing.T) {
		c, out := newTestController(t)
		_ = c.PlayQueue([]data.Track{track("1"), track("2")}, 0)
		c.SetRepeat(RepeatOff)

		c.HandleEvent(audio.Event{Kind: audio.Ended, Gen: out.lastGen()})
		mustCurrent(t, c, "2")

		c.HandleEvent(audio.Event{Kind: audio.Ended, Gen: out.lastGen()})
		snap := mustCurrent(t, c, "2")
		if snap.State != StateEnded {
			t.Errorf("В конце очереди ожидалось состояние ended, получено %s", snap.State)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		c, _ := newTestController(t)
		want := []RepeatMode{RepeatOne, RepeatOff, RepeatAll}
		for _, mode := range want {
			if got := c.CycleRepeat(); got != mode {
				t.Errorf("Ожидался режим %s, получен %s", mode, got)
			}
		}
	})
}

func TestShufflePicksOtherTrack(t *testing.T) {
	c, _ := newTestController(t, WithRand(rand.New(rand.NewSource(1))))
	_ = c.PlayQueue([]data.Track{track("1"), track("2"), track("3"), track("4")}, 0)
	if !c.ToggleShuffle() {
		t.Fatal("Перемешивание должно включиться")
	}

	for i := 0; i < 20; i++ {
		before := c.Snapshot().Track.ID
		_ = c.Next()
		after := c.Snapshot().Track.ID
		if before == after {
			t.Fatalf("Перемешивание не должно повторять текущий трек (%s)", after)
		}
	}
}

func TestLateEventsIgnored(t *testing.T) {
	c, out := newTestController(t)
	_ = c.PlayQueue([]data.Track{track("1"), track("2")}, 0)
	oldGen := out.lastGen()

	_ = c.Next()
	newGen := out.lastGen()
	if newGen == oldGen {
		t.Fatal("Поколение должно измениться при загрузке")
	}

	c.HandleEvent(audio.Event{Kind: audio.DurationResolved, Gen: oldGen, Seconds: 5})
	c.HandleEvent(audio.Event{Kind: audio.TimeUpdate, Gen: oldGen, Seconds: 4})
	c.HandleEvent(audio.Event{Kind: audio.Ended, Gen: oldGen})
	c.HandleEvent(audio.Event{Kind: audio.Failed, Gen: oldGen, Err: errors.New("late")})

	snap := mustCurrent(t, c, "2")
	if snap.Duration != 180 || snap.CurrentTime != 0 || !snap.IsPlaying() || snap.Err != nil {
		t.Errorf("Запоздавшие события изменили состояние: %+v", snap)
	}
}

func TestFailedEventStopsPlayback(t *testing.T) {
	c, out := newTestController(t)
	a := track("1")
	_ = c.PlayTrack(a)
	c.HandleEvent(audio.Event{Kind: audio.TimeUpdate, Gen: out.lastGen(), Seconds: 30})

	c.HandleEvent(audio.Event{Kind: audio.Failed, Gen: out.lastGen(), Err: errors.New("decode error")})

	snap := mustCurrent(t, c, "1")
	if snap.IsPlaying() || snap.CurrentTime != 0 || snap.Duration != 0 {
		t.Errorf("Ожидалась остановка с обнуленным временем, получено %+v", snap)
	}
	if !errors.Is(snap.Err, apperrors.ErrPlayback) {
		t.Errorf("Ожидалась ошибка воспроизведения в снимке, получено %v", snap.Err)
	}

	// Повторный Play загружает трек заново
	loads := len(out.loads)
	if err := c.Play(); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if len(out.loads) != loads+1 || !c.Snapshot().IsPlaying() {
		t.Error("Трек должен быть загружен заново и запущен")
	}
}

func TestSeekAfterFailureSurvivesReload(t *testing.T) {
	c, out := newTestController(t)
	a := track("1")
	_ = c.PlayTrack(a)
	c.HandleEvent(audio.Event{Kind: audio.Failed, Gen: out.lastGen(), Err: errors.New("decode error")})

	if err := c.SeekTo(42); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if err := c.Play(); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}

	snap := c.Snapshot()
	if !snap.IsPlaying() || snap.CurrentTime != 42 {
		t.Errorf("Позиция перемотки должна сохраниться после перезагрузки, получено %s/%v", snap.State, snap.CurrentTime)
	}
	if got := out.seeks[len(out.seeks)-1]; got != 42 {
		t.Errorf("Вывод должен получить позицию после перезагрузки, получено %v", got)
	}
}

func TestTimeUpdateIgnoredWhilePaused(t *testing.T) {
	c, out := newTestController(t)
	a := track("1")
	_ = c.Load(&a)

	c.HandleEvent(audio.Event{Kind: audio.TimeUpdate, Gen: out.lastGen(), Seconds: 12})
	if got := c.Snapshot().CurrentTime; got != 0 {
		t.Errorf("На паузе время не должно меняться, получено %v", got)
	}
}

func TestRemove(t *testing.T) {
	t.Run("текущий трек", func(t *testing.T) {
		c, _ := newTestController(t)
		_ = c.PlayQueue([]data.Track{track("1"), track("2"), track("3")}, 1)

		if err := c.Remove("2"); err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}
		snap := mustCurrent(t, c, "3")
		if snap.Position != 1 || len(snap.Queue) != 2 || !snap.IsPlaying() {
			t.Errorf("Неожиданное состояние после удаления: позиция %d, очередь %d", snap.Position, len(snap.Queue))
		}
	})

	t.Run("трек перед текущим", func(t *testing.T) {
		c, _ := newTestController(t)
		_ = c.PlayQueue([]data.Track{track("1"), track("2"), track("3")}, 2)

		_ = c.Remove("1")
		snap := mustCurrent(t, c, "3")
		if snap.Position != 1 {
			t.Errorf("Ожидалась позиция 1, получено %d", snap.Position)
		}
	})

	t.Run("последний трек очереди", func(t *testing.T) {
		c, _ := newTestController(t)
		_ = c.PlayQueue([]data.Track{track("1")}, 0)

		_ = c.Remove("1")
		snap := c.Snapshot()
		if snap.Track != nil || snap.State != StateEmpty || len(snap.Queue) != 0 {
			t.Errorf("Ожидался сброс сессии, получено %+v", snap)
		}
	})
}

func TestEnqueue(t *testing.T) {
	c, _ := newTestController(t)
	a := track("1")
	_ = c.PlayTrack(a)

	c.Enqueue(track("1"))
	c.Enqueue(track("2"))

	snap := c.Snapshot()
	if len(snap.Queue) != 2 || snap.Position != 0 {
		t.Fatalf("Ожидалась очередь из 2 треков с позицией 0, получено %d/%d", len(snap.Queue), snap.Position)
	}

	_ = c.Next()
	mustCurrent(t, c, "2")
}

func TestPlayQueueEmpty(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.PlayQueue(nil, 0); !errors.Is(err, apperrors.ErrEmptyPlaylist) {
		t.Errorf("Ожидалась ErrEmptyPlaylist, получено %v", err)
	}
}

func TestBlobHandlesReleased(t *testing.T) {
	registry := blob.NewRegistry()
	locA := registry.Register("a", []byte("a"))
	locB := registry.Register("b", []byte("b"))

	c, _ := newTestController(t, WithRetainer(registry))
	a := data.Track{ID: "a", Source: locA, IsLocal: true}
	b := data.Track{ID: "b", Source: locB, IsLocal: true}

	_ = c.PlayQueue([]data.Track{a, b}, 0)
	// Каталог + очередь + текущий трек
	if registry.Refs(locA) != 3 || registry.Refs(locB) != 2 {
		t.Fatalf("Неожиданные ссылки: a=%d b=%d", registry.Refs(locA), registry.Refs(locB))
	}

	// Каталог удаляет трек a: его содержимое живет, пока трек в сессии
	registry.Release(locA)
	_ = c.Remove("a")
	if registry.Refs(locA) != 0 {
		t.Errorf("Содержимое a должно освободиться, осталось ссылок %d", registry.Refs(locA))
	}
	if registry.Refs(locB) != 3 {
		t.Errorf("Ожидалось 3 ссылки на b, получено %d", registry.Refs(locB))
	}

	_ = c.Close()
	if registry.Refs(locB) != 1 {
		t.Errorf("После закрытия должна остаться ссылка каталога, получено %d", registry.Refs(locB))
	}
}

func TestRefreshSwapsSource(t *testing.T) {
	registry := blob.NewRegistry()
	loc := registry.Register("a", []byte("a"))

	c, _ := newTestController(t, WithRetainer(registry))
	a := data.Track{ID: "a", Title: "Old", Source: loc, IsLocal: true}
	_ = c.PlayQueue([]data.Track{a}, 0)

	published := data.Track{ID: "a", Title: "New", Source: "https://cdn.example.com/a.mp3"}
	c.Refresh(published)

	snap := mustCurrent(t, c, "a")
	if snap.Track.Title != "New" || snap.Queue[0].Source != published.Source {
		t.Errorf("Копии трека не обновлены: %+v", snap.Track)
	}
	if registry.Refs(loc) != 1 {
		t.Errorf("Сессия должна отпустить blob-локатор, осталось %d", registry.Refs(loc))
	}
}

func TestSubscribe(t *testing.T) {
	c, _ := newTestController(t)
	ch := c.Subscribe()

	c.SetVolume(0.3)

	select {
	case snap := <-ch:
		if snap.Volume != 0.3 {
			t.Errorf("Ожидалась громкость 0.3 в снимке, получено %v", snap.Volume)
		}
	case <-time.After(time.Second):
		t.Fatal("Снимок не получен")
	}

	c.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Error("Канал должен быть закрыт после отписки")
	}
}

func TestSubscriberDoesNotBlock(t *testing.T) {
	c, _ := newTestController(t)
	_ = c.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			c.VolumeDown()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Медленный подписчик заблокировал контроллер")
	}
}

func TestRunPumpsEvents(t *testing.T) {
	c, out := newTestController(t)
	a := track("1")
	_ = c.Load(&a)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	out.events <- audio.Event{Kind: audio.DurationResolved, Gen: out.lastGen(), Seconds: 99}

	deadline := time.After(2 * time.Second)
	for c.Snapshot().Duration != 99 {
		select {
		case <-deadline:
			t.Fatal("Событие не было обработано")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Ожидалась context.Canceled, получено %v", err)
	}
}

func TestResetClearsLastPlayed(t *testing.T) {
	catalog := &fakeCatalog{}
	c, out := newTestController(t, WithCatalog(catalog))
	a := track("1")
	_ = c.PlayTrack(a)
	gen := out.lastGen()

	c.Reset()

	if catalog.lastPlayed != "" {
		t.Errorf("Последний трек должен быть очищен, получено %q", catalog.lastPlayed)
	}

	// События сброшенного трека не применяются
	c.HandleEvent(audio.Event{Kind: audio.DurationResolved, Gen: gen, Seconds: 10})
	if c.Snapshot().Duration != 0 {
		t.Error("Событие сброшенного трека изменило состояние")
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		current  float64
		duration float64
		want     float64
	}{
		{30, 120, 25},
		{200, 100, 100},
		{10, 0, 0},
		{math.NaN(), 100, 0},
		{10, math.NaN(), 0},
		{-5, 100, 0},
	}

	for _, tt := range tests {
		snap := Snapshot{CurrentTime: tt.current, Duration: tt.duration}
		if got := snap.ProgressPercent(); got != tt.want {
			t.Errorf("ProgressPercent(%v/%v) = %v, ожидалось %v", tt.current, tt.duration, got, tt.want)
		}
	}
}

func TestTimeLabel(t *testing.T) {
	snap := Snapshot{CurrentTime: 65, Duration: math.NaN()}
	if got := snap.TimeLabel(); got != "1:05 / 0:00" {
		t.Errorf("Неожиданная подпись времени: %s", got)
	}
}
