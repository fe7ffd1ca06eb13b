package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"qrscan/config"
	"qrscan/internal/api"
	"qrscan/internal/container"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Собираем каскад распознавания
	c, err := container.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}

	// Внешний сервис опционален, недоступность не мешает запуску
	if c.External != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if !c.External.Healthy(ctx) {
			logger.Warn("fallback service is unreachable", "url", cfg.FallbackURL)
		}
		cancel()
	}

	srv := api.NewServer(c.Scanner, c.Stats, int64(cfg.MaxImageBytes), logger)

	logger.Info("qr scan service is running", "addr", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, srv.Router()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
