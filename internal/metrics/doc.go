// Package metrics provides build observability for sitemedia.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics cost nothing unless a real implementation is wired
// in. The watch command activates PrometheusRecorder and serves it on /metrics:
//
//	reg := prometheus.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	builder := site.NewBuilder(cfg, site.WithRecorder(recorder))
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
