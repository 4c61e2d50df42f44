package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	buildDuration  prom.Histogram
	buildOutcome   *prom.CounterVec
	pageRender     *prom.HistogramVec
	variants       *prom.CounterVec
	encodeDuration *prom.HistogramVec
	minify         *prom.CounterVec
	assetsCopied   prom.Counter
}

// NewPrometheusRecorder constructs and registers the sitemedia metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitemedia",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitemedia",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		pageRender: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitemedia",
			Name:      "page_render_duration_seconds",
			Help:      "Duration of individual page renders",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		variants: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitemedia",
			Name:      "image_variants_total",
			Help:      "Image variants by format and whether they were encoded or reused",
		}, []string{"format", "origin"}),
		encodeDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitemedia",
			Name:      "image_encode_duration_seconds",
			Help:      "Duration of single variant encodes",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"format"}),
		minify: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitemedia",
			Name:      "minify_results_total",
			Help:      "Minifier invocations by filter and result",
		}, []string{"filter", "result"}),
		assetsCopied: prom.NewCounter(prom.CounterOpts{
			Namespace: "sitemedia",
			Name:      "passthrough_assets_copied_total",
			Help:      "Passthrough files copied into the output",
		}),
	}
	reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.pageRender, pr.variants, pr.encodeDuration, pr.minify, pr.assetsCopied)
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObservePageRender(d time.Duration, result ResultLabel) {
	if p == nil {
		return
	}
	p.pageRender.WithLabelValues(string(result)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncVariant(format string, label VariantLabel) {
	if p == nil {
		return
	}
	p.variants.WithLabelValues(format, string(label)).Inc()
}

func (p *PrometheusRecorder) ObserveEncodeDuration(format string, d time.Duration) {
	if p == nil {
		return
	}
	p.encodeDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncMinify(filter string, result ResultLabel) {
	if p == nil {
		return
	}
	p.minify.WithLabelValues(filter, string(result)).Inc()
}

func (p *PrometheusRecorder) AddAssetsCopied(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.assetsCopied.Add(float64(n))
}
