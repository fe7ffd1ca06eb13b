package fallback

import "sync/atomic"

// ClientMetrics — счётчики обращений к внешнему сервису.
type ClientMetrics struct {
	Requests       atomic.Uint64 // отправленные запросы
	Hits           atomic.Uint64 // ответы с раскодированным содержимым
	Misses         atomic.Uint64 // ответы «код не найден»
	Timeouts       atomic.Uint64 // запросы, оборванные по таймауту
	Failures       atomic.Uint64 // сетевые и серверные сбои
	TotalLatencyMs atomic.Uint64 // суммарная длительность запросов
}

// Snapshot возвращает текущие значения счётчиков одной картой.
func (m *ClientMetrics) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"requests":         m.Requests.Load(),
		"hits":             m.Hits.Load(),
		"misses":           m.Misses.Load(),
		"timeouts":         m.Timeouts.Load(),
		"failures":         m.Failures.Load(),
		"total_latency_ms": m.TotalLatencyMs.Load(),
	}
}
