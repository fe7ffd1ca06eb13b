package container

import (
	"log/slog"

	"qrscan/config"
	app "qrscan/internal/application"
	"qrscan/internal/domain/port"
	"qrscan/internal/infrastructure/cache"
	"qrscan/internal/infrastructure/engine"
	"qrscan/internal/infrastructure/fallback"
	"qrscan/internal/infrastructure/imaging"
)

// Container собирает сервис распознавания со всеми зависимостями.
type Container struct {
	ScanService *app.ScanService
	Scanner     port.Scanner // точка входа, при включённом кэше — обёртка над сервисом
	External    *fallback.Client
}

func New(cfg *config.Config, log *slog.Logger) (*Container, error) {
	pipeline := imaging.NewPipeline(cfg.MaxImageBytes, cfg.MaxImagePixels)

	// Порядок фиксирован: от быстрого движка к устойчивому.
	engines := []port.DecodeEngine{
		engine.NewGoQR(),
		engine.NewZXing(),
		engine.NewZXingHard(),
	}

	detectors := []port.FallbackDetector{
		fallback.NewLocalDetector(cfg.ModelDir, engines),
	}
	var external *fallback.Client
	if cfg.FallbackURL != "" {
		external = fallback.NewClient(cfg.FallbackURL, cfg.FallbackTimeout, cfg.FallbackMaxEdge, log)
		detectors = append(detectors, external)
	}

	service := app.NewScanService(pipeline, engines, detectors, log)

	var scanner port.Scanner = service
	if cfg.CacheSize > 0 {
		cached, err := cache.NewResultCache(service, cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		scanner = cached
	}

	return &Container{
		ScanService: service,
		Scanner:     scanner,
		External:    external,
	}, nil
}

// Stats отдаёт счётчики каскада и внешнего клиента одним словарём.
func (c *Container) Stats() map[string]uint64 {
	out := c.ScanService.Metrics().Snapshot()
	if c.External != nil {
		for k, v := range c.External.Metrics().Snapshot() {
			out["external_"+k] = v
		}
	}
	return out
}
