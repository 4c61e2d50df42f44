package minify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemedia/internal/metrics"
)

type countingRecorder struct {
	metrics.NoopRecorder
	minify map[string]int
}

func (r *countingRecorder) IncMinify(filter string, result metrics.ResultLabel) {
	if r.minify == nil {
		r.minify = map[string]int{}
	}
	r.minify[filter+":"+string(result)]++
}

var _ metrics.Recorder = (*countingRecorder)(nil)

func TestCSS(t *testing.T) {
	m := New(nil, nil)

	out, err := m.CSS("a { color:  red; }")
	require.NoError(t, err)
	assert.Equal(t, "a{color:red}", out)
}

func TestJS(t *testing.T) {
	rec := &countingRecorder{}
	m := New(nil, rec)

	out := m.JS(context.Background(), "var answer = 40 + 2;\n")
	assert.NotEmpty(t, out)
	assert.Less(t, len(out), len("var answer = 40 + 2;\n"))
	assert.Equal(t, 1, rec.minify["jsmin:success"])
}

func TestJS_InvalidScriptFallsBack(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	rec := &countingRecorder{}
	m := New(logger, rec)

	invalid := "function ( {"
	assert.Equal(t, invalid, m.JS(context.Background(), invalid))
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "filter=jsmin")
	assert.Equal(t, 1, rec.minify["jsmin:fallback"])
}

func TestHTML(t *testing.T) {
	m := New(nil, nil)

	page := []byte("<!DOCTYPE html>\n<html>\n  <head><title>Hi</title></head>\n  <body>\n    <p>Hello   world</p>\n  </body>\n</html>\n")
	out, err := m.HTML(page)
	require.NoError(t, err)
	assert.Less(t, len(out), len(page))
	assert.Contains(t, string(out), "<p>Hello world</p>")
}

func TestCSS_RecordsResult(t *testing.T) {
	rec := &countingRecorder{}
	m := New(nil, rec)

	_, err := m.CSS("body { margin: 0 }")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.minify["cssmin:success"])
}

func TestMinifyErrorCategory(t *testing.T) {
	err := errors.MinifyError("minify css").Build()
	assert.Equal(t, errors.CategoryMinify, errors.GetCategory(err))
	assert.True(t, err.IsFatal())
}
