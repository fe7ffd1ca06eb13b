//go:build !gocv
// +build !gocv

package fallback

import (
	"context"
	"fmt"

	"qrscan/internal/domain/entity"
	"qrscan/internal/domain/port"
)

// LocalDetector — заглушка локального детектора (сборка без OpenCV).
type LocalDetector struct {
	ModelDir string
	MinCrop  int

	engines []port.DecodeEngine
}

// NewLocalDetector создаёт детектор-заглушку (без OpenCV).
func NewLocalDetector(modelDir string, engines []port.DecodeEngine) *LocalDetector {
	return &LocalDetector{
		ModelDir: modelDir,
		MinCrop:  24,
		engines:  engines,
	}
}

func (d *LocalDetector) Name() string { return "opencv" }

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *LocalDetector) Detect(ctx context.Context, imageData []byte) (string, error) {
	_ = ctx
	_ = imageData
	return "", fmt.Errorf("%w: gocv build tag is not enabled", entity.ErrFallbackUnavailable)
}

// Проверка реализации интерфейса
var _ port.FallbackDetector = (*LocalDetector)(nil)
