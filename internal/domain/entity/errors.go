package entity

import "errors"

// Ошибки подсистемы распознавания. Наружу уходят только ErrInvalidImage
// и ErrNotFound, остальные схлопываются в ErrNotFound на границе каскада.
var (
	ErrInvalidImage        = errors.New("invalid image")
	ErrNotFound            = errors.New("qr code is not found")
	ErrNoCode              = errors.New("no code detected")
	ErrFallbackUnavailable = errors.New("fallback service is unavailable")
	ErrFallbackTimeout     = errors.New("fallback service timeout")
)
