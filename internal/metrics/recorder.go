package metrics

import "time"

// ResultLabel enumerates operation result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFallback ResultLabel = "fallback"
	ResultFailed   ResultLabel = "failed"
)

// BuildOutcomeLabel enumerates final build outcomes.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// VariantLabel distinguishes freshly encoded variants from reused ones.
type VariantLabel string

const (
	VariantEncoded VariantLabel = "encoded"
	VariantReused  VariantLabel = "reused"
)

// Recorder defines observability hooks for builds, pages, image variants and minifiers.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	ObservePageRender(d time.Duration, result ResultLabel)
	IncVariant(format string, label VariantLabel)
	ObserveEncodeDuration(format string, d time.Duration)
	IncMinify(filter string, result ResultLabel)
	AddAssetsCopied(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel) {}
func (NoopRecorder) ObservePageRender(time.Duration, ResultLabel) {}
func (NoopRecorder) IncVariant(string, VariantLabel) {}
func (NoopRecorder) ObserveEncodeDuration(string, time.Duration) {}
func (NoopRecorder) IncMinify(string, ResultLabel) {}
func (NoopRecorder) AddAssetsCopied(int) {}
