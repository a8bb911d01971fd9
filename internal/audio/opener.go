package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"

	"github.com/hazadus/go-sonata/internal/blob"
	apperrors "github.com/hazadus/go-sonata/internal/errors"
	"github.com/hazadus/go-sonata/internal/metadata"
	"github.com/hazadus/go-sonata/internal/streaming"
)

// Opener открывает источники по локатору
type Opener struct {
	blobs      *blob.Registry
	bufferSize int
}

// NewOpener создает Opener поверх реестра blob-локаторов
func NewOpener(blobs *blob.Registry) *Opener {
	return &Opener{
		blobs:      blobs,
		bufferSize: streaming.DefaultBufferSize,
	}
}

// Open возвращает читателя с поддержкой перемотки
func (o *Opener) Open(ctx context.Context, src Source) (io.ReadSeekCloser, error) {
	switch {
	case blob.IsLocator(src.Locator):
		if o.blobs == nil {
			return nil, apperrors.NotFound("blob", src.Locator)
		}
		return o.blobs.Open(src.Locator)
	case strings.HasPrefix(src.Locator, "http://"), strings.HasPrefix(src.Locator, "https://"):
		content, err := streaming.Fetch(ctx, src.Locator, o.bufferSize)
		if err != nil {
			return nil, err
		}
		return readSeekNopCloser{bytes.NewReader(content)}, nil
	default:
		return nil, fmt.Errorf("неизвестный тип локатора: %q", src.Locator)
	}
}

// Decode выбирает декодер по формату источника
func Decode(rc io.ReadSeekCloser, src Source) (beep.StreamSeekCloser, beep.Format, error) {
	format := src.Format
	if format == "" {
		format = metadata.FormatFromPath(src.Locator)
	}

	switch format {
	case "mp3":
		return mp3.Decode(rc)
	case "wav":
		return wav.Decode(rc)
	case "flac":
		return flac.Decode(rc)
	case "ogg":
		return vorbis.Decode(rc)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedFormat, format)
	}
}

type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error { return nil }
