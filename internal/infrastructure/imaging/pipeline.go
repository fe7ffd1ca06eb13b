package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"qrscan/internal/domain/entity"
	"qrscan/internal/domain/port"
)

// Pipeline выполняет нормализацию, предобработку и повороты растра.
type Pipeline struct {
	MaxBytes  int // лимит размера файла в байтах, 0 — без лимита
	MaxPixels int // лимит ширина×высота, 0 — без лимита
}

// NewPipeline создаёт пайплайн с лимитами на входное изображение.
func NewPipeline(maxBytes, maxPixels int) *Pipeline {
	return &Pipeline{
		MaxBytes:  maxBytes,
		MaxPixels: maxPixels,
	}
}

// Normalize декодирует байты в grayscale-буфер. Формат определяется
// по содержимому, declaredType идёт только в сообщение об ошибке.
func (p *Pipeline) Normalize(data []byte, declaredType string) (*image.Gray, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", entity.ErrInvalidImage)
	}
	if p.MaxBytes > 0 && len(data) > p.MaxBytes {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds limit %d", entity.ErrInvalidImage, len(data), p.MaxBytes)
	}

	// Сначала читаем только заголовок, чтобы отклонить слишком большое
	// изображение до полного декодирования.
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if declaredType != "" {
			return nil, fmt.Errorf("%w: unrecognized format (declared %q)", entity.ErrInvalidImage, declaredType)
		}
		return nil, fmt.Errorf("%w: unrecognized format", entity.ErrInvalidImage)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: degenerate dimensions %dx%d", entity.ErrInvalidImage, cfg.Width, cfg.Height)
	}
	if p.MaxPixels > 0 && cfg.Width*cfg.Height > p.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds pixel limit %d", entity.ErrInvalidImage, cfg.Width, cfg.Height, p.MaxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: broken %s data", entity.ErrInvalidImage, format)
	}
	return ToGray(src), nil
}

// ToGray приводит изображение к *image.Gray, по возможности без копии.
func ToGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := src.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), src, b.Min, draw.Src)
	return g
}

// Проверка реализации интерфейса
var _ port.ImagePipeline = (*Pipeline)(nil)
