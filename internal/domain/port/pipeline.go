package port

import (
	"image"

	"qrscan/internal/domain/entity"
)

// ImagePipeline интерфейс нормализации и предобработки растра
type ImagePipeline interface {
	// Normalize декодирует байты в grayscale-буфер.
	// declaredType — необязательная подсказка MIME от клиента, формат
	// всегда определяется по содержимому. Возвращает entity.ErrInvalidImage
	// для пустых, битых и слишком больших изображений.
	Normalize(data []byte, declaredType string) (*image.Gray, error)

	// Enhance строит единственный улучшенный вариант изображения.
	// false во втором значении означает, что предобработка деградировала
	// и вернулся исходный буфер без изменений.
	Enhance(img *image.Gray) (*image.Gray, bool)

	// Rotate возвращает повёрнутую копию буфера без потерь.
	Rotate(img *image.Gray, angle entity.Rotation) *image.Gray
}
