package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	pr.ObservePageRender(20*time.Millisecond, ResultSuccess)
	pr.IncVariant("webp", VariantEncoded)
	pr.IncVariant("webp", VariantEncoded)
	pr.IncVariant("jpeg", VariantReused)
	pr.ObserveEncodeDuration("avif", 800*time.Millisecond)
	pr.IncMinify("jsmin", ResultFallback)
	pr.AddAssetsCopied(3)

	assert.InDelta(t, 2, testutil.ToFloat64(pr.variants.WithLabelValues("webp", "encoded")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.minify.WithLabelValues("jsmin", "fallback")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(pr.assetsCopied), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestPrometheusRecorder_NilReceiver(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncBuildOutcome(BuildOutcomeFailed)
		pr.AddAssetsCopied(1)
	})
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncBuildOutcome(BuildOutcomeSuccess)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "sitemedia_build_outcomes_total"))
}

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)
