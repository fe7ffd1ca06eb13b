package port

import (
	"context"

	"qrscan/internal/domain/entity"
)

// Scanner интерфейс входной точки подсистемы распознавания
type Scanner interface {
	// Scan прогоняет изображение через каскад и возвращает первый успех.
	// Возвращает entity.ErrInvalidImage или entity.ErrNotFound.
	Scan(ctx context.Context, imageData []byte) (*entity.ScanResult, error)
}
