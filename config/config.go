package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr        string        // адрес HTTP-сервера
	MaxImageBytes   int           // лимит размера входного файла
	MaxImagePixels  int           // лимит ширина×высота входного изображения
	FallbackURL     string        // базовый URL внешнего сервиса, пусто — выключен
	FallbackTimeout time.Duration // жёсткий дедлайн запроса к внешнему сервису
	FallbackMaxEdge int           // длинная сторона изображения для внешнего сервиса
	ModelDir        string        // каталог с моделями WeChat-детектора
	CacheSize       int           // размер кэша результатов, 0 — без кэша
	LogLevel        slog.Level
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		FallbackURL: getEnv("FALLBACK_URL", "http://localhost:8008"),
		ModelDir:    getEnv("MODEL_DIR", "models"),
		LogLevel:    parseLevel(getEnv("LOG_LEVEL", "info")),
	}

	var err error
	if cfg.MaxImageBytes, err = getEnvInt("MAX_IMAGE_BYTES", 10<<20); err != nil {
		return nil, err
	}
	if cfg.MaxImagePixels, err = getEnvInt("MAX_IMAGE_PIXELS", 30_000_000); err != nil {
		return nil, err
	}
	if cfg.FallbackMaxEdge, err = getEnvInt("FALLBACK_MAX_EDGE", 1280); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = getEnvInt("CACHE_SIZE", 256); err != nil {
		return nil, err
	}

	timeoutMs, err := getEnvInt("FALLBACK_TIMEOUT_MS", 90)
	if err != nil {
		return nil, err
	}
	cfg.FallbackTimeout = time.Duration(timeoutMs) * time.Millisecond

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: expected integer, got %q", key, v)
	}
	return n, nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
