package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitemedia/internal/config"
	"git.home.luguber.info/inful/sitemedia/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemedia/internal/logfields"
	"git.home.luguber.info/inful/sitemedia/internal/media"
	"git.home.luguber.info/inful/sitemedia/internal/metrics"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"sitemedia.yaml"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text|json)" default:"text"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Render the site into the output directory"`
	Init  InitCmd  `cmd:"" help:"Initialize a new configuration file"`
	Watch WatchCmd `cmd:"" help:"Rebuild on change and serve the output directory"`
	Audit AuditCmd `cmd:"" help:"Write the Lighthouse CI configuration for the output directory"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	logger := newLogger(c.Verbose, c.LogFormat)
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return nil
}

func newLogger(verbose bool, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(verbose)}
	if config.NormalizeLogFormat(format) == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// parseLogLevel honors -v first, then SITEMEDIA_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch config.NormalizeLogLevel(os.Getenv("SITEMEDIA_LOG_LEVEL")) {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loggerFrom(g *Global) *slog.Logger {
	if g != nil && g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

// newProcessor assembles the image transcoder. With media.cache_path set the
// variant manifest persists in SQLite between runs.
func newProcessor(cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder) (*media.Processor, func(), error) {
	store := media.Store(media.NewMemoryStore())
	if cfg.Media.CachePath != "" {
		sqlite, err := media.NewSQLiteStore(cfg.Media.CachePath)
		if err != nil {
			return nil, nil, errors.WrapError(err, errors.CategoryCache, "open variant cache").
				WithContext("path", cfg.Media.CachePath).
				Fatal().
				Build()
		}
		store = sqlite
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close variant cache", logfields.Error(err))
		}
	}
	p := media.NewProcessor(
		media.WithStore(store),
		media.WithLogger(logger),
		media.WithRecorder(recorder),
	)
	return p, closeStore, nil
}

// newRegistry returns a Prometheus registry with the sitemedia recorder registered.
func newRegistry() (*prom.Registry, metrics.Recorder) {
	reg := prom.NewRegistry()
	return reg, metrics.NewPrometheusRecorder(reg)
}
