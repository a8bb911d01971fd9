// Package audio содержит вывод звука и события, которые он сообщает контроллеру.
//
// Каждая загрузка помечается номером поколения. События несут номер поколения,
// в котором они возникли, поэтому получатель может отбросить запоздавшие
// события от уже замененного трека.
package audio

import "fmt"

// Kind - тип события вывода
type Kind int

const (
	// TimeUpdate - сдвинулась позиция воспроизведения
	TimeUpdate Kind = iota
	// DurationResolved - стала известна длительность
	DurationResolved
	// Ended - трек доигран до конца
	Ended
	// Failed - ошибка загрузки или воспроизведения
	Failed
)

// String возвращает имя события для логов
func (k Kind) String() string {
	switch k {
	case TimeUpdate:
		return "timeupdate"
	case DurationResolved:
		return "durationresolved"
	case Ended:
		return "ended"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event - событие вывода
type Event struct {
	Kind    Kind
	Gen     uint64
	Seconds float64
	Err     error
}

// Source описывает, что загружать в вывод
type Source struct {
	// Locator - blob-локатор или http(s) URL
	Locator string
	// Format - формат содержимого ("mp3", "flac", "wav", "ogg")
	Format string
}

// Output - устройство воспроизведения.
//
// Load не блокируется на декодировании: длительность и ошибки приходят
// событиями с тем же номером поколения
type Output interface {
	Load(src Source, gen uint64) error
	Play() error
	Pause()
	Seek(seconds float64) error
	SetVolume(level float64)
	Stop()
	Events() <-chan Event
	Close() error
}
