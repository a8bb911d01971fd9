package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/wav"
	"github.com/gopxl/beep/vorbis"
	"github.com/mewkiz/flac"
	"github.com/tcolgate/mp3"

	apperrors "github.com/hazadus/go-sonata/internal/errors"
)

// wavHeaderSize - размер канонического заголовка WAV
const wavHeaderSize = 44

// DurationOf вычисляет длительность содержимого указанного формата
func (e *Extractor) DurationOf(content []byte, format string) (time.Duration, error) {
	switch format {
	case "mp3":
		return durationMP3(content)
	case "flac":
		return durationFLAC(content)
	case "wav":
		return durationWAV(content)
	case "ogg":
		return durationOGG(content)
	default:
		return 0, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, format)
	}
}

// durationMP3 суммирует длительность всех фреймов
func durationMP3(content []byte) (time.Duration, error) {
	dec := mp3.NewDecoder(bytes.NewReader(content))

	var (
		total   time.Duration
		skipped int
		frames  int
	)
	for {
		var frame mp3.Frame
		if err := dec.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) && frames > 0 {
				break
			}
			if frames == 0 {
				return 0, fmt.Errorf("ошибка декодирования MP3: %w", err)
			}
			// Обрезанный хвост: используем то, что успели прочитать
			break
		}
		total += frame.Duration()
		frames++
	}
	return total, nil
}

// durationFLAC читает длительность из блока STREAMINFO
func durationFLAC(content []byte) (time.Duration, error) {
	stream, err := flac.New(bytes.NewReader(content))
	if err != nil {
		return 0, fmt.Errorf("ошибка декодирования FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	if info.NSamples == 0 || info.SampleRate == 0 {
		return 0, errors.New("в потоке FLAC нет информации о сэмплах")
	}
	secs := float64(info.NSamples) / float64(info.SampleRate)
	return time.Duration(secs * float64(time.Second)), nil
}

// durationWAV оценивает длительность по заголовку и размеру данных
func durationWAV(content []byte) (time.Duration, error) {
	dec := wav.NewDecoder(bytes.NewReader(content))
	if !dec.IsValidFile() {
		return 0, errors.New("некорректный WAV файл")
	}
	if dec.SampleRate == 0 || dec.BitDepth == 0 || dec.NumChans == 0 {
		return 0, errors.New("некорректный заголовок WAV")
	}

	pcmBytes := int64(len(content)) - wavHeaderSize
	if pcmBytes < 0 {
		pcmBytes = 0
	}
	frameSize := int64(dec.BitDepth/8) * int64(dec.NumChans)
	if frameSize <= 0 {
		return 0, errors.New("некорректный размер фрейма WAV")
	}
	secs := float64(pcmBytes/frameSize) / float64(dec.SampleRate)
	return time.Duration(secs * float64(time.Second)), nil
}

// durationOGG декодирует поток Vorbis и берет число сэмплов
func durationOGG(content []byte) (time.Duration, error) {
	streamer, format, err := vorbis.Decode(io.NopCloser(bytes.NewReader(content)))
	if err != nil {
		return 0, fmt.Errorf("ошибка декодирования OGG: %w", err)
	}
	defer streamer.Close()
	return format.SampleRate.D(streamer.Len()), nil
}

// ContentType возвращает MIME-тип для формата
func ContentType(format string) string {
	switch format {
	case "mp3":
		return "audio/mpeg"
	case "flac":
		return "audio/flac"
	case "wav":
		return "audio/wav"
	case "ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
