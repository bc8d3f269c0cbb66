package ports

import "time"

// Metrics puerto de observabilidad del orquestador y de los servicios externos.
type Metrics interface {
	ObserveTurn(outcome string)
	ObserveToolCall(tool, kind string)
	ObserveUpstream(upstream string, elapsed time.Duration, err error)
}

// NopMetrics implementación vacía para tests y arranques sin métricas.
type NopMetrics struct{}

func (NopMetrics) ObserveTurn(string)                           {}
func (NopMetrics) ObserveToolCall(string, string)               {}
func (NopMetrics) ObserveUpstream(string, time.Duration, error) {}
