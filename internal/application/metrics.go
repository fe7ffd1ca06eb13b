package app

import "sync/atomic"

// Metrics — атомарные счётчики стадий каскада. Нужны для /stats
// и для проверки того, что стадии после отказа не запускались.
type Metrics struct {
	ScansTotal         atomic.Uint64
	InvalidImages      atomic.Uint64
	PreprocessRuns     atomic.Uint64
	PreprocessDegraded atomic.Uint64
	EngineAttempts     atomic.Uint64
	RotationRuns       atomic.Uint64
	FallbackAttempts   atomic.Uint64
	FallbackTimeouts   atomic.Uint64
	FallbackErrors     atomic.Uint64
	SuccessLevel1      atomic.Uint64
	SuccessLevel2      atomic.Uint64
	SuccessLevel3      atomic.Uint64
	NotFound           atomic.Uint64
}

// Snapshot возвращает текущие значения счётчиков одной картой.
func (m *Metrics) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"scans_total":         m.ScansTotal.Load(),
		"invalid_images":      m.InvalidImages.Load(),
		"preprocess_runs":     m.PreprocessRuns.Load(),
		"preprocess_degraded": m.PreprocessDegraded.Load(),
		"engine_attempts":     m.EngineAttempts.Load(),
		"rotation_runs":       m.RotationRuns.Load(),
		"fallback_attempts":   m.FallbackAttempts.Load(),
		"fallback_timeouts":   m.FallbackTimeouts.Load(),
		"fallback_errors":     m.FallbackErrors.Load(),
		"success_level_1":     m.SuccessLevel1.Load(),
		"success_level_2":     m.SuccessLevel2.Load(),
		"success_level_3":     m.SuccessLevel3.Load(),
		"not_found":           m.NotFound.Load(),
	}
}
