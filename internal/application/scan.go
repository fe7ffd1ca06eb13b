package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"qrscan/internal/domain/entity"
	"qrscan/internal/domain/port"
)

// Порядок поворотов второго уровня.
var rotations = [3]entity.Rotation{entity.Rotate90, entity.Rotate180, entity.Rotate270}

// ScanService прогоняет изображение через каскад распознавания:
// уровень 1 — предобработка и пул движков, уровень 2 — повороты,
// уровень 3 — локальная модель и внешний сервис. Первый успех
// останавливает каскад, уровни никогда не перескакиваются.
type ScanService struct {
	pipeline  port.ImagePipeline
	engines   []port.DecodeEngine
	fallbacks []port.FallbackDetector
	metrics   *Metrics
	log       *slog.Logger
}

// NewScanService создаёт сервис каскада. Порядок движков и резервных
// детекторов фиксируется вызывающей стороной: от быстрого к тщательному.
func NewScanService(pipeline port.ImagePipeline, engines []port.DecodeEngine, fallbacks []port.FallbackDetector, log *slog.Logger) *ScanService {
	if log == nil {
		log = slog.Default()
	}
	return &ScanService{
		pipeline:  pipeline,
		engines:   engines,
		fallbacks: fallbacks,
		metrics:   &Metrics{},
		log:       log,
	}
}

// Metrics возвращает счётчики каскада.
func (s *ScanService) Metrics() *Metrics { return s.metrics }

// Scan выполняет полный каскад и возвращает первый успешный результат.
func (s *ScanService) Scan(ctx context.Context, imageData []byte) (*entity.ScanResult, error) {
	start := time.Now()
	s.metrics.ScansTotal.Add(1)

	gray, err := s.pipeline.Normalize(imageData, "")
	if err != nil {
		s.metrics.InvalidImages.Add(1)
		s.log.Debug("image rejected", "error", err)
		return nil, err
	}

	// После этой точки исходный буфер не используется: при успешной
	// предобработке дальше живёт только улучшенный вариант.
	s.metrics.PreprocessRuns.Add(1)
	variant, preprocessed := s.pipeline.Enhance(gray)
	if !preprocessed {
		s.metrics.PreprocessDegraded.Add(1)
		s.log.Debug("preprocessing degraded, raw grayscale in use")
	}

	attempts := make([]entity.DecodeAttempt, 0, 4*len(s.engines))

	// Уровень 1: пул движков на едином предобработанном варианте.
	if content, engine, ok := s.runPool(variant, entity.Rotate0, preprocessed, &attempts); ok {
		return s.success(start, content, engine, entity.LevelFast, preprocessed, nil)
	}

	// Уровень 2: те же движки на повёрнутых копиях.
	for _, angle := range rotations {
		s.metrics.RotationRuns.Add(1)
		rotated := s.pipeline.Rotate(variant, angle)
		if content, engine, ok := s.runPool(rotated, angle, preprocessed, &attempts); ok {
			a := angle
			return s.success(start, content, engine, entity.LevelRotation, preprocessed, &a)
		}
	}

	// Уровень 3: локальная модель, затем внешний сервис. Любой сбой
	// резерва равносилен «код не найден» и каскад идёт дальше.
	for _, detector := range s.fallbacks {
		s.metrics.FallbackAttempts.Add(1)
		content, err := detector.Detect(ctx, imageData)
		if err == nil {
			return s.success(start, content, detector.Name(), entity.LevelFallback, false, nil)
		}
		switch {
		case errors.Is(err, entity.ErrNoCode):
			s.log.Debug("fallback found nothing", "detector", detector.Name())
		case errors.Is(err, entity.ErrFallbackTimeout):
			s.metrics.FallbackTimeouts.Add(1)
			s.log.Warn("fallback timed out", "detector", detector.Name(), "error", err)
		default:
			s.metrics.FallbackErrors.Add(1)
			s.log.Warn("fallback failed", "detector", detector.Name(), "error", err)
		}
	}

	s.metrics.NotFound.Add(1)
	elapsed := time.Since(start).Milliseconds()
	s.log.Info("cascade exhausted", "attempts", len(attempts), "elapsed_ms", elapsed)
	return nil, fmt.Errorf("%w: %d attempts in %dms", entity.ErrNotFound, len(attempts), elapsed)
}

// runPool прогоняет движки в фиксированном порядке по одному буферу.
func (s *ScanService) runPool(img *image.Gray, angle entity.Rotation, preprocessed bool, attempts *[]entity.DecodeAttempt) (string, string, bool) {
	for _, engine := range s.engines {
		s.metrics.EngineAttempts.Add(1)
		content, ok := engine.Decode(img)
		*attempts = append(*attempts, entity.DecodeAttempt{
			Engine:       engine.Name(),
			Rotation:     angle,
			Preprocessed: preprocessed,
		})
		if ok {
			return content, engine.Name(), true
		}
	}
	return "", "", false
}

func (s *ScanService) success(start time.Time, content, engine string, level entity.Level, preprocessed bool, angle *entity.Rotation) (*entity.ScanResult, error) {
	switch level {
	case entity.LevelFast:
		s.metrics.SuccessLevel1.Add(1)
	case entity.LevelRotation:
		s.metrics.SuccessLevel2.Add(1)
	case entity.LevelFallback:
		s.metrics.SuccessLevel3.Add(1)
	}

	res := &entity.ScanResult{
		Content:              content,
		Engine:               engine,
		Level:                level,
		PreprocessingApplied: preprocessed,
		RotationAngle:        angle,
		ProcessingTimeMs:     time.Since(start).Milliseconds(),
	}
	s.log.Info("qr code decoded",
		"engine", engine,
		"level", int(level),
		"rotation", rotationValue(angle),
		"elapsed_ms", res.ProcessingTimeMs,
	)
	return res, nil
}

func rotationValue(angle *entity.Rotation) int {
	if angle == nil {
		return 0
	}
	return int(*angle)
}

// Проверка реализации интерфейса
var _ port.Scanner = (*ScanService)(nil)
