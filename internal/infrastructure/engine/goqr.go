package engine

import (
	"image"

	"github.com/liyue201/goqr"

	"qrscan/internal/domain/port"
)

// GoQR — самый быстрый движок пула, порт сишного quirc.
// Хорошо читает чистые снимки, слабее на перекосе и низком контрасте.
type GoQR struct{}

func NewGoQR() *GoQR { return &GoQR{} }

func (e *GoQR) Name() string { return "goqr" }

// Decode возвращает содержимое первого найденного QR-кода.
func (e *GoQR) Decode(img *image.Gray) (string, bool) {
	if tooSmall(img) {
		return "", false
	}
	codes, err := goqr.Recognize(img)
	if err != nil || len(codes) == 0 {
		return "", false
	}
	for _, code := range codes {
		if len(code.Payload) > 0 {
			return string(code.Payload), true
		}
	}
	return "", false
}

// Проверка реализации интерфейса
var _ port.DecodeEngine = (*GoQR)(nil)
