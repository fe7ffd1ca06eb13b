package engine

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"qrscan/internal/domain/port"
)

// ZXingHard — самый медленный движок пула: режим TRY_HARDER
// и повторная попытка на инвертированной яркости.
type ZXingHard struct{}

func NewZXingHard() *ZXingHard { return &ZXingHard{} }

func (e *ZXingHard) Name() string { return "zxing-hard" }

func (e *ZXingHard) Decode(img *image.Gray) (string, bool) {
	if tooSmall(img) {
		return "", false
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	if text, ok := decodeImage(img, hints); ok {
		return text, true
	}
	// Коды со светлыми модулями на тёмном фоне читаются после инверсии.
	return decodeImage(invert(img), hints)
}

func decodeImage(img *image.Gray, hints map[gozxing.DecodeHintType]interface{}) (string, bool) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", false
	}
	return result.GetText(), true
}

func invert(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		row := src.Pix[off : off+b.Dx()]
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()]
		for x, v := range row {
			drow[x] = 255 - v
		}
	}
	return dst
}

// Проверка реализации интерфейса
var _ port.DecodeEngine = (*ZXingHard)(nil)
