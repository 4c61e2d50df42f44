package site

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitemedia/internal/assets"
	"git.home.luguber.info/inful/sitemedia/internal/config"
	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemedia/internal/logfields"
	"git.home.luguber.info/inful/sitemedia/internal/media"
	"git.home.luguber.info/inful/sitemedia/internal/metrics"
	"git.home.luguber.info/inful/sitemedia/internal/minify"
	"git.home.luguber.info/inful/sitemedia/internal/shortcodes"
)

// Builder renders a site described by a configuration.
type Builder struct {
	cfg        *config.Config
	transcoder *countingTranscoder
	shortcodes *shortcodes.Shortcodes
	minifier   *minify.Minifier
	logger     *slog.Logger
	recorder   metrics.Recorder
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for build progress.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) { b.recorder = r }
}

// New returns a Builder for cfg. Image shortcodes are served by t.
func New(cfg *config.Config, t media.Transcoder, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.transcoder = &countingTranscoder{inner: t}
	b.shortcodes = shortcodes.New(b.transcoder, shortcodes.SettingsFromConfig(cfg), b.logger)
	b.minifier = minify.New(b.logger, b.recorder)
	return b
}

// Build renders every page, copies static files and the passthrough manifest,
// and persists the report into the output directory.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	report := newReport(uuid.NewString())
	logger := b.logger.With(logfields.BuildID(report.BuildID))
	b.transcoder.variants.Store(0)

	err := b.build(ctx, logger, report)
	report.Variants = int(b.transcoder.variants.Load())

	outcome := OutcomeSuccess
	switch {
	case err == nil:
	case stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded):
		outcome = OutcomeCanceled
	default:
		outcome = OutcomeFailed
	}
	report.finish(outcome, err)
	b.recorder.ObserveBuildDuration(report.Duration)
	b.recorder.IncBuildOutcome(metrics.BuildOutcomeLabel(outcome))

	if err != nil {
		logger.ErrorContext(ctx, "Build failed", logfields.Error(err))
		return report, err
	}
	if perr := report.Persist(b.cfg.Output.Directory); perr != nil {
		logger.WarnContext(ctx, "Failed to persist build report", logfields.Error(perr))
	}
	logger.InfoContext(ctx, "Build complete",
		slog.String("summary", report.Summary()),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return report, nil
}

func (b *Builder) build(ctx context.Context, logger *slog.Logger, report *Report) error {
	out := b.cfg.Output.Directory
	if b.cfg.Output.Clean {
		if err := os.RemoveAll(out); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "clean output directory").WithContext("path", out).Fatal().Build()
		}
	}
	if err := os.MkdirAll(out, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create output directory").WithContext("path", out).Fatal().Build()
	}

	tree, err := discover(b.cfg.Site.Source, b.cfg.Site.Layouts)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "scan source directory").
			WithContext("path", b.cfg.Site.Source).
			Fatal().
			Build()
	}
	logger.InfoContext(ctx, "Starting build",
		slog.Int("pages", len(tree.pages)),
		slog.Int("static", len(tree.static)))

	results, err := b.renderPages(ctx, logger, report.BuildID, tree.pages)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r == nil {
			report.Drafts++
			continue
		}
		report.Pages = append(report.Pages, *r)
	}

	for _, rel := range tree.static {
		if err := ctx.Err(); err != nil {
			return err
		}
		src := filepath.Join(b.cfg.Site.Source, filepath.FromSlash(rel))
		if _, err := assets.CopyPath(src, filepath.Join(out, filepath.FromSlash(rel))); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "copy static file").WithContext("path", rel).Fatal().Build()
		}
	}
	report.StaticFiles = len(tree.static)

	copier := assets.NewCopier(out, logger, b.recorder)
	n, err := copier.Copy(ctx, b.cfg.Passthrough)
	report.AssetsCopied = n
	return err
}

// renderPages renders pages concurrently. Results keep the order of pages;
// drafts leave a nil entry.
func (b *Builder) renderPages(ctx context.Context, logger *slog.Logger, buildID string, pages []string) ([]*PageResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, b.cfg.Build.Concurrency))

	p := &pass{
		b:   b,
		ctx: gctx,
		site: SiteData{
			Title:   b.cfg.Site.Title,
			BaseURL: b.cfg.Site.BaseURL,
			BuildID: buildID,
			Params:  b.cfg.Site.Params,
		},
		markdown: newMarkdown(),
	}
	if err := p.loadLayouts(filepath.Join(b.cfg.Site.Source, b.cfg.Site.Layouts)); err != nil {
		return nil, err
	}

	results := make([]*PageResult, len(pages))
	for i, rel := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			res, err := p.renderPage(rel)
			if err != nil {
				b.recorder.ObservePageRender(time.Since(start), metrics.ResultFailed)
				return err
			}
			b.recorder.ObservePageRender(time.Since(start), metrics.ResultSuccess)
			if res == nil {
				logger.DebugContext(gctx, "Skipped draft", logfields.Page(rel))
			} else {
				logger.DebugContext(gctx, "Rendered page", logfields.Page(rel), logfields.Path(res.Output))
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
