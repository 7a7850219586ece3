// Package telemetry обеспечивает наблюдаемость движка.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики валидации и применения tool calls
//
// Логи пишутся в stderr, чтобы stdout CLI оставался машиночитаемым.
package telemetry
