package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements every hook interface with Prometheus metrics.
type Prometheus struct {
	registry *prometheus.Registry

	ExtractTotal       *prometheus.CounterVec
	RenderTotal        *prometheus.CounterVec
	RenderDuration     *prometheus.HistogramVec
	RenderedNodes      prometheus.Histogram
	StaleRendersTotal  prometheus.Counter
	CacheRequestsTotal *prometheus.CounterVec
	CacheWriteBytes    *prometheus.HistogramVec
	TransformsTotal    *prometheus.CounterVec
	ScaleObserved      prometheus.Histogram
	SelectionsTotal    *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// NewPrometheus creates the metric families on reg.
// A nil registry gets a fresh one.
func NewPrometheus(reg *prometheus.Registry) *Prometheus {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Prometheus{
		registry: reg,
		ExtractTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mdview_extract_total",
			Help: "Diagram extractions by outcome",
		}, []string{"outcome"}),
		RenderTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mdview_render_total",
			Help: "Scene renders by renderer and outcome",
		}, []string{"renderer", "outcome"}),
		RenderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mdview_render_duration_seconds",
			Help:    "Scene render latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"renderer"}),
		RenderedNodes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "mdview_rendered_nodes",
			Help:    "Graph nodes recovered from rendered scenes",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 1000},
		}),
		StaleRendersTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "mdview_stale_renders_total",
			Help: "Render results discarded because a newer load superseded them",
		}),
		CacheRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mdview_cache_requests_total",
			Help: "Cache lookups by key type and result",
		}, []string{"key_type", "result"}),
		CacheWriteBytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mdview_cache_write_bytes",
			Help:    "Size of cache writes in bytes",
			Buckets: []float64{1000, 10000, 100000, 1000000},
		}, []string{"key_type"}),
		TransformsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mdview_viewport_transforms_total",
			Help: "Viewport transform propagations by cause",
		}, []string{"cause"}),
		ScaleObserved: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "mdview_viewport_scale",
			Help:    "Viewport scale after each transform",
			Buckets: []float64{0.5, 0.75, 1, 1.5, 2, 3, 4, 5},
		}),
		SelectionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mdview_selections_total",
			Help: "Selection changes by kind",
		}, []string{"kind"}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mdview_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mdview_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Register installs p as the load, cache, interaction and HTTP hooks.
func Register(p *Prometheus) {
	SetLoadHooks(p)
	SetCacheHooks(p)
	SetInteractionHooks(p)
	SetHTTPHooks(p)
}

// Registry returns the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *Prometheus) OnExtract(_ context.Context, err error) {
	p.ExtractTotal.WithLabelValues(outcome(err)).Inc()
}

func (p *Prometheus) OnRenderStart(context.Context, string) {}

func (p *Prometheus) OnRenderComplete(_ context.Context, renderer string, nodeCount int, d time.Duration, err error) {
	p.RenderTotal.WithLabelValues(renderer, outcome(err)).Inc()
	p.RenderDuration.WithLabelValues(renderer).Observe(d.Seconds())
	if err == nil {
		p.RenderedNodes.Observe(float64(nodeCount))
	}
}

func (p *Prometheus) OnStale(context.Context, uint64) {
	p.StaleRendersTotal.Inc()
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.CacheRequestsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.CacheRequestsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.CacheWriteBytes.WithLabelValues(keyType).Observe(float64(size))
}

func (p *Prometheus) OnTransform(cause string, scale float64) {
	p.TransformsTotal.WithLabelValues(cause).Inc()
	p.ScaleObserved.Observe(scale)
}

func (p *Prometheus) OnSelect(selected bool, _ int) {
	kind := "clear"
	if selected {
		kind = "select"
	}
	p.SelectionsTotal.WithLabelValues(kind).Inc()
}

func (p *Prometheus) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	p.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ LoadHooks        = (*Prometheus)(nil)
	_ CacheHooks       = (*Prometheus)(nil)
	_ InteractionHooks = (*Prometheus)(nil)
	_ HTTPHooks        = (*Prometheus)(nil)
)
