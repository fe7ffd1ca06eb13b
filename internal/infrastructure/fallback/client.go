package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	_ "image/png"

	"github.com/disintegration/imaging"

	"qrscan/internal/domain/entity"
	"qrscan/internal/domain/port"
)

// Качество JPEG при пережатии крупных снимков перед отправкой.
const uploadJPEGQuality = 85

// Client отправляет изображение внешнему сервису распознавания.
// Весь запрос живёт под жёстким таймаутом: зависший сервис не держит
// воркер и не оставляет открытых соединений.
type Client struct {
	baseURL string
	maxEdge int
	timeout time.Duration
	http    *http.Client
	log     *slog.Logger
	metrics *ClientMetrics
}

// NewClient создаёт клиент внешнего сервиса.
// maxEdge ограничивает длинную сторону снимка перед отправкой, 0 — без пережатия.
func NewClient(baseURL string, timeout time.Duration, maxEdge int, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		maxEdge: maxEdge,
		timeout: timeout,
		http:    &http.Client{},
		log:     log,
		metrics: &ClientMetrics{},
	}
}

func (c *Client) Name() string { return "external" }

// Metrics возвращает счётчики клиента.
func (c *Client) Metrics() *ClientMetrics { return c.metrics }

// Detect отправляет изображение на /qr/hybrid-fallback и разбирает ответ.
func (c *Client) Detect(ctx context.Context, imageData []byte) (string, error) {
	payload := c.shrink(imageData)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "scan.jpg")
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrFallbackUnavailable, err)
	}
	if _, err := part.Write(payload); err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrFallbackUnavailable, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrFallbackUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/qr/hybrid-fallback", &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrFallbackUnavailable, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.metrics.Requests.Add(1)
	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.TotalLatencyMs.Add(uint64(time.Since(start).Milliseconds()))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.metrics.Timeouts.Add(1)
			return "", fmt.Errorf("%w: no answer in %s", entity.ErrFallbackTimeout, c.timeout)
		}
		c.metrics.Failures.Add(1)
		return "", fmt.Errorf("%w: %v", entity.ErrFallbackUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.Failures.Add(1)
		return "", fmt.Errorf("%w: status %d", entity.ErrFallbackUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.metrics.Timeouts.Add(1)
			return "", fmt.Errorf("%w: no answer in %s", entity.ErrFallbackTimeout, c.timeout)
		}
		c.metrics.Failures.Add(1)
		return "", fmt.Errorf("%w: %v", entity.ErrFallbackUnavailable, err)
	}

	content, err := parseAnswer(raw)
	if err != nil {
		c.metrics.Misses.Add(1)
		c.log.Debug("external service found nothing", "error", err)
		return "", err
	}
	c.metrics.Hits.Add(1)
	return content, nil
}

// Healthy делает разовый запрос к /health.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode == http.StatusOK
}

// shrink пережимает крупные снимки, чтобы не гонять мегабайты по сети.
// Снимки в пределах лимита уходят как есть, без перекодирования.
func (c *Client) shrink(data []byte) []byte {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return data
	}
	c.log.Debug("image for external service", "format", format, "width", cfg.Width, "height", cfg.Height)
	if c.maxEdge <= 0 || (cfg.Width <= c.maxEdge && cfg.Height <= c.maxEdge) {
		return data
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	resized := imaging.Fit(src, c.maxEdge, c.maxEdge, imaging.Lanczos)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: uploadJPEGQuality}); err != nil {
		return data
	}
	return buf.Bytes()
}

// Сервис отвечает JSON-объектом {"content": ...} либо {"error": ...},
// старые версии шлют голую строку с содержимым кода.
func parseAnswer(raw []byte) (string, error) {
	var answer struct {
		Content string `json:"content"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &answer); err == nil {
		if answer.Content != "" {
			return answer.Content, nil
		}
		if answer.Error != "" {
			return "", fmt.Errorf("%w: %s", entity.ErrNoCode, answer.Error)
		}
		return "", entity.ErrNoCode
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", entity.ErrNoCode
	}
	return text, nil
}

// Проверка реализации интерфейса
var _ port.FallbackDetector = (*Client)(nil)
