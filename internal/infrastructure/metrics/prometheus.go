package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/asistente-tienda-api/internal/application/ports"
	"github.com/jhoicas/asistente-tienda-api/internal/domain"
	"github.com/jhoicas/asistente-tienda-api/internal/domain/entity"
)

var _ ports.Metrics = (*Recorder)(nil)

// Recorder métricas Prometheus con registro propio (no usa el registro global).
type Recorder struct {
	registry *prometheus.Registry
	turns    *prometheus.CounterVec
	tools    *prometheus.CounterVec
	upstream *prometheus.HistogramVec
}

// NewRecorder registra los colectores del servicio más los de Go y proceso.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Turnos de conversación por resultado final",
		}, []string{"outcome"}),
		tools: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_tool_calls_total",
			Help: "Herramientas despachadas por nombre y tipo de resultado",
		}, []string{"tool", "kind"}),
		upstream: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chat_upstream_duration_seconds",
			Help:    "Duración de las llamadas al LLM y al catálogo",
			Buckets: prometheus.DefBuckets,
		}, []string{"upstream", "result"}),
	}
	r.registry.MustRegister(
		r.turns, r.tools, r.upstream,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) ObserveTurn(outcome string) {
	r.turns.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObserveToolCall(tool, kind string) {
	r.tools.WithLabelValues(tool, kind).Inc()
}

func (r *Recorder) ObserveUpstream(upstream string, elapsed time.Duration, err error) {
	r.upstream.WithLabelValues(upstream, resultLabel(err)).Observe(elapsed.Seconds())
}

// Handler expone /metrics en formato de texto Prometheus.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry acceso al registro, usado en tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUpstreamProtocol):
		return "protocol"
	default:
		return "error"
	}
}

// ── Decoradores de puertos ───────────────────────────────────────────────────

type instrumentedLLM struct {
	next ports.LLMService
	m    ports.Metrics
}

// InstrumentLLM mide cada llamada al proveedor LLM.
func InstrumentLLM(next ports.LLMService, m ports.Metrics) ports.LLMService {
	return &instrumentedLLM{next: next, m: m}
}

func (i *instrumentedLLM) Complete(ctx context.Context, req ports.CompletionRequest) (*ports.Completion, error) {
	start := time.Now()
	out, err := i.next.Complete(ctx, req)
	i.m.ObserveUpstream("llm", time.Since(start), err)
	return out, err
}

type instrumentedCatalog struct {
	next ports.CatalogGateway
	m    ports.Metrics
}

// InstrumentCatalog mide búsqueda y detalle por separado.
func InstrumentCatalog(next ports.CatalogGateway, m ports.Metrics) ports.CatalogGateway {
	return &instrumentedCatalog{next: next, m: m}
}

func (i *instrumentedCatalog) Search(ctx context.Context, query string) ([]entity.CatalogProduct, error) {
	start := time.Now()
	out, err := i.next.Search(ctx, query)
	i.m.ObserveUpstream("catalog_search", time.Since(start), err)
	return out, err
}

func (i *instrumentedCatalog) FetchVariantDetail(ctx context.Context, handle string) (*entity.ProductDetail, error) {
	start := time.Now()
	out, err := i.next.FetchVariantDetail(ctx, handle)
	i.m.ObserveUpstream("catalog_detail", time.Since(start), err)
	return out, err
}
