package port

import "context"

// FallbackDetector интерфейс резервного детектора третьего уровня
type FallbackDetector interface {
	// Name возвращает имя детектора для провенанса результата
	Name() string

	// Detect ищет QR-код в исходных байтах изображения.
	// Возвращает entity.ErrNoCode если кода нет, entity.ErrFallbackTimeout
	// и entity.ErrFallbackUnavailable при сбоях самого детектора.
	Detect(ctx context.Context, imageData []byte) (string, error)
}
