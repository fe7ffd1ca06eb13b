package engine

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"qrscan/internal/domain/port"
)

// ZXing — сбалансированный движок пула на порте библиотеки zxing.
// Один проход декодера без дополнительных режимов.
type ZXing struct{}

func NewZXing() *ZXing { return &ZXing{} }

func (e *ZXing) Name() string { return "zxing" }

func (e *ZXing) Decode(img *image.Gray) (string, bool) {
	if tooSmall(img) {
		return "", false
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", false
	}
	return result.GetText(), true
}

// Проверка реализации интерфейса
var _ port.DecodeEngine = (*ZXing)(nil)
