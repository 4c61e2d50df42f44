// Package minify provides the cssmin and jsmin template filters and the
// optional HTML minification of rendered pages.
//
// CSS and HTML failures are fatal. JS failures are recovered: the original
// script is returned and a warning is logged.
package minify

import (
	"bytes"
	"context"
	"log/slog"

	tdm "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemedia/internal/logfields"
	"git.home.luguber.info/inful/sitemedia/internal/metrics"
)

const (
	mediaCSS  = "text/css"
	mediaJS   = "application/javascript"
	mediaHTML = "text/html"
)

// Minifier wraps a configured tdewolff minifier.
type Minifier struct {
	m        *tdm.M
	logger   *slog.Logger
	recorder metrics.Recorder
}

// New returns a Minifier. A nil logger or recorder falls back to the default
// logger and a no-op recorder.
func New(logger *slog.Logger, recorder metrics.Recorder) *Minifier {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	m := tdm.New()
	m.AddFunc(mediaCSS, css.Minify)
	m.AddFunc(mediaJS, js.Minify)
	m.Add(mediaHTML, &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	return &Minifier{m: m, logger: logger, recorder: recorder}
}

// CSS minifies a stylesheet.
func (m *Minifier) CSS(code string) (string, error) {
	out, err := m.m.String(mediaCSS, code)
	if err != nil {
		m.recorder.IncMinify("cssmin", metrics.ResultFailed)
		return "", errors.MinifyError("minify css").WithCause(err).Build()
	}
	m.recorder.IncMinify("cssmin", metrics.ResultSuccess)
	return out, nil
}

// JS minifies a script, returning code unchanged when it cannot be minified.
func (m *Minifier) JS(ctx context.Context, code string) string {
	out, err := m.m.String(mediaJS, code)
	if err != nil {
		m.logger.WarnContext(ctx, "JS minification failed, using original source",
			logfields.Filter("jsmin"),
			logfields.Error(err))
		m.recorder.IncMinify("jsmin", metrics.ResultFallback)
		return code
	}
	m.recorder.IncMinify("jsmin", metrics.ResultSuccess)
	return out
}

// HTML minifies a rendered page, including inline styles and scripts.
func (m *Minifier) HTML(page []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.m.Minify(mediaHTML, &buf, bytes.NewReader(page)); err != nil {
		m.recorder.IncMinify("htmlmin", metrics.ResultFailed)
		return nil, errors.MinifyError("minify html").WithCause(err).Build()
	}
	m.recorder.IncMinify("htmlmin", metrics.ResultSuccess)
	return buf.Bytes(), nil
}
